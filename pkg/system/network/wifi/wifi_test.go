package network_wifi

import (
	"testing"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iwSample = "BSS aa:bb:cc:dd:ee:01(on wlan0) -- associated\n" +
	"\tlast seen: 12345.678s [boottime]\n" +
	"\tTSF: 1234567 usec (0d, 00:00:01)\n" +
	"\tfreq: 5180\n" +
	"\tbeacon interval: 100 TUs\n" +
	"\tcapability: ESS Privacy SpectrumMgmt (0x0111)\n" +
	"\tsignal: -52.00 dBm\n" +
	"\tlast seen: 120 ms ago\n" +
	"\tSSID: HomeNet\n" +
	"\tSupported rates: 6.0* 9.0 12.0* \n" +
	"\tHT capabilities:\n" +
	"\t\tCapabilities: 0x9ef\n" +
	"\t\t\tRX LDPC\n" +
	"\tHT operation:\n" +
	"\t\t * primary channel: 36\n" +
	"\t\t * secondary channel offset: above\n" +
	"\t\t * STA channel width: any\n" +
	"\tVHT capabilities:\n" +
	"\t\tVHT Capabilities (0x0f8b69b2):\n" +
	"\tVHT operation:\n" +
	"\t\t * channel width: 1 (80 MHz)\n" +
	"\t\t * center freq segment 1: 42\n" +
	"\t\t * center freq segment 2: 0\n" +
	"\tRSN:\t * Version: 1\n" +
	"\t\t * Group cipher: CCMP\n" +
	"\t\t * Pairwise ciphers: CCMP\n" +
	"\t\t * Authentication suites: PSK\n" +
	"\t\t * Capabilities: 16-PTKSA-RC 1-GTKSA-RC (0x000c)\n" +
	"\tExtended capabilities:\n" +
	"\t\t * Extended Channel Switching\n" +
	"\t\t * FTM Responder\n" +
	"BSS 11:22:33:44:55:66(on wlan0)\n" +
	"\tfreq: 2437\n" +
	"\tcapability: ESS (0x0401)\n" +
	"\tsignal: -71.00 dBm\n" +
	"\tlast seen: 1500 ms ago\n" +
	"\tSSID: \n" +
	"\tDS Parameter set: channel 6\n" +
	"BSS 66:55:44:33:22:11(on wlan0)\n" +
	"\tfreq: 2462\n" +
	"\tcapability: ESS Privacy (0x0411)\n" +
	"\tsignal: -60.00 dBm\n" +
	"\tSSID: Cafe\\x20Wifi\n" +
	"\tHT operation:\n" +
	"\t\t * primary channel: 11\n" +
	"\t\t * secondary channel offset: below\n" +
	"\tHE capabilities:\n" +
	"\t\tHE MAC Capabilities (0x000000000000):\n" +
	"\tRSN:\t * Version: 1\n" +
	"\t\t * Pairwise ciphers: CCMP\n" +
	"\t\t * Authentication suites: SAE\n" +
	"\tWPA:\t * Version: 1\n" +
	"\t\t * Pairwise ciphers: TKIP\n" +
	"\t\t * Authentication suites: PSK\n" +
	"\tHotSpot 2.0 Indication:\n" +
	"\t\t * DGAF disabled\n"

func TestParseIWOutput(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := parseIWOutput(iwSample, "wlan0", now)
	require.Len(t, records, 3)

	vht := records[0]
	assert.Equal(t, "wlan0", vht.Interface)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", vht.BSSID)
	assert.Equal(t, "HomeNet", vht.SSID)
	assert.Equal(t, 5180, vht.Frequency)
	assert.Equal(t, 36, *vht.Channel)
	assert.Equal(t, -52, vht.Level)
	assert.Equal(t, 96, *vht.Strength)
	assert.Equal(t, wifiinfo.WiFiStandard11AC, vht.Standard)
	assert.Equal(t, wifiinfo.ChannelWidth80MHz, *vht.ChannelWidth)
	assert.Equal(t, 5210, *vht.CenterFreq0)
	assert.Nil(t, vht.CenterFreq1)
	assert.Equal(t, "[WPA2-PSK-CCMP][ESS]", vht.Capabilities)
	assert.Equal(t, int64(12345678000), *vht.Timestamp)
	assert.Equal(t, now.Add(-120*time.Millisecond), *vht.LastSeen)
	assert.True(t, *vht.Is80211mcResponder)
	assert.False(t, *vht.IsPasspointNetwork)
	assert.Nil(t, vht.OperatorFriendlyName)
	assert.Nil(t, vht.VenueName)

	legacy := records[1]
	assert.Equal(t, "", legacy.SSID)
	assert.Equal(t, 6, *legacy.Channel)
	assert.Equal(t, 58, *legacy.Strength)
	assert.Equal(t, wifiinfo.WiFiStandardLegacy, legacy.Standard)
	assert.Equal(t, wifiinfo.ChannelWidth20MHz, *legacy.ChannelWidth)
	assert.Equal(t, 2437, *legacy.CenterFreq0)
	assert.Equal(t, "[ESS]", legacy.Capabilities)
	assert.Nil(t, legacy.Is80211mcResponder)
	assert.Nil(t, legacy.Timestamp)

	he := records[2]
	assert.Equal(t, "Cafe Wifi", he.SSID)
	assert.Equal(t, wifiinfo.WiFiStandard11AX, he.Standard)
	assert.Equal(t, wifiinfo.ChannelWidth40MHz, *he.ChannelWidth)
	assert.Equal(t, 2452, *he.CenterFreq0)
	assert.Equal(t, "[WPA-PSK-TKIP][WPA3-SAE-CCMP][ESS]", he.Capabilities)
	assert.True(t, *he.IsPasspointNetwork)
	assert.Nil(t, he.LastSeen)
}

func TestParseIWOutputWideChannels(t *testing.T) {
	block := func(width, seg1, seg2 string) string {
		return "BSS aa:aa:aa:aa:aa:aa(on wlan0)\n" +
			"\tfreq: 5180\n" +
			"\tVHT operation:\n" +
			"\t\t * channel width: " + width + "\n" +
			"\t\t * center freq segment 1: " + seg1 + "\n" +
			"\t\t * center freq segment 2: " + seg2 + "\n"
	}

	tests := []struct {
		name    string
		out     string
		width   wifiinfo.ChannelWidth
		center0 int
		center1 *int
	}{
		{"legacy 160", block("2 (160 MHz)", "50", "0"), wifiinfo.ChannelWidth160MHz, 5250, nil},
		{"new style 160", block("1 (80 MHz)", "42", "50"), wifiinfo.ChannelWidth160MHz, 5250, nil},
		{"80+80", block("1 (80 MHz)", "42", "155"), wifiinfo.ChannelWidth80Plus80MHz, 5210, intPtr(5775)},
		{"20 or 40 falls back to HT", block("0 (20 or 40 MHz)", "0", "0"), wifiinfo.ChannelWidth20MHz, 5180, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := parseIWOutput(tt.out, "wlan0", time.Now())
			require.Len(t, records, 1)
			assert.Equal(t, tt.width, *records[0].ChannelWidth)
			assert.Equal(t, tt.center0, *records[0].CenterFreq0)
			assert.Equal(t, tt.center1, records[0].CenterFreq1)
		})
	}
}

func TestParseIWOutputEmpty(t *testing.T) {
	assert.Empty(t, parseIWOutput("", "wlan0", time.Now()))
	assert.Empty(t, parseIWOutput("command failed: Device or resource busy (-16)\n", "wlan0", time.Now()))
}

const iwlistSample = `wlan0     Scan completed :
          Cell 01 - Address: AA:BB:CC:DD:EE:FF
                    Channel:6
                    Frequency:2.437 GHz (Channel 6)
                    Quality=56/70  Signal level=-54 dBm  
                    Encryption key:on
                    ESSID:"MyNet"
                    Mode:Master
                    Extra: Last beacon: 88ms ago
                    IE: IEEE 802.11i/WPA2 Version 1
                        Group Cipher : CCMP
                        Pairwise Ciphers (1) : CCMP
                        Authentication Suites (1) : PSK
          Cell 02 - Address: 00:11:22:33:44:55
                    Frequency:5.18 GHz
                    Quality=30/70  Signal level=-80 dBm
                    Encryption key:off
                    ESSID:""
                    Mode:Master
`

func TestParseIWListOutput(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := parseIWListOutput(iwlistSample, "wlan0", now)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", first.BSSID)
	assert.Equal(t, "MyNet", first.SSID)
	assert.Equal(t, 2437, first.Frequency)
	assert.Equal(t, 6, *first.Channel)
	assert.Equal(t, -54, first.Level)
	assert.Equal(t, 80, *first.Strength)
	assert.Equal(t, "[WPA2-PSK-CCMP][ESS]", first.Capabilities)
	assert.Equal(t, now.Add(-88*time.Millisecond), *first.LastSeen)

	// iwlist has no view of these
	assert.Nil(t, first.ChannelWidth)
	assert.Nil(t, first.CenterFreq0)
	assert.Nil(t, first.Timestamp)
	assert.Nil(t, first.Is80211mcResponder)
	assert.Equal(t, wifiinfo.WiFiStandardUnknown, first.Standard)

	second := records[1]
	assert.Equal(t, "", second.SSID)
	assert.Equal(t, 5180, second.Frequency)
	assert.Equal(t, 36, *second.Channel)
	assert.Equal(t, 42, *second.Strength)
	assert.Equal(t, "[ESS]", second.Capabilities)
	assert.Nil(t, second.LastSeen)
}

func TestSecurityString(t *testing.T) {
	assert.Equal(t, "[WEP][ESS]", Security{Privacy: true, ESS: true}.String())
	assert.Equal(t, "", Security{}.String())
	assert.Equal(t, "WPA2-EAP-CCMP", SecurityFlag("WPA2", []string{AuthName("IEEE 802.1X")}, []string{"CCMP"}))
	assert.Equal(t, "WPA-?", SecurityFlag("WPA", nil, nil))
}

func TestStrengthFromLevel(t *testing.T) {
	assert.Equal(t, 100, strengthFromLevel(-30))
	assert.Equal(t, 50, strengthFromLevel(-75))
	assert.Equal(t, 0, strengthFromLevel(-110))
}

func TestNewWifiScannerFallsBack(t *testing.T) {
	old := lookPath
	defer func() { lookPath = old }()

	lookPath = func(string) (string, error) { return "", assert.AnError }
	assert.Equal(t, "iwlist", NewWifiScanner().Name())

	lookPath = func(string) (string, error) { return "/usr/sbin/iw", nil }
	assert.Equal(t, "iw", NewWifiScanner().Name())
}
