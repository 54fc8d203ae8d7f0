package nm

import (
	"testing"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apProps() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"Ssid":      dbus.MakeVariant([]byte("HomeNet")),
		"HwAddress": dbus.MakeVariant("AA:BB:CC:DD:EE:FF"),
		"Strength":  dbus.MakeVariant(byte(80)),
		"Frequency": dbus.MakeVariant(uint32(5180)),
		"Flags":     dbus.MakeVariant(uint32(apFlagPrivacy)),
		"WpaFlags":  dbus.MakeVariant(uint32(0)),
		"RsnFlags":  dbus.MakeVariant(uint32(secPairCCMP | secKeyMgmtPSK)),
		"Mode":      dbus.MakeVariant(uint32(modeInfrastructure)),
		"Bandwidth": dbus.MakeVariant(uint32(80)),
		"LastSeen":  dbus.MakeVariant(int32(1000)),
	}
}

func TestRecordFromAccessPoint(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	uptime := 1010 * time.Second

	r := recordFromAccessPoint(apProps(), "wlan0", parseVersion("1.46.0"), now, uptime)

	assert.Equal(t, "wlan0", r.Interface)
	assert.Equal(t, "HomeNet", r.SSID)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", r.BSSID)
	assert.Equal(t, 80, *r.Strength)
	assert.Equal(t, -60, r.Level)
	assert.Equal(t, 5180, r.Frequency)
	assert.Equal(t, 36, *r.Channel)
	assert.Equal(t, wifiinfo.ChannelWidth80MHz, *r.ChannelWidth)
	assert.Equal(t, int64(1000000000), *r.Timestamp)
	assert.Equal(t, now.Add(-10*time.Second), *r.LastSeen)
	assert.Equal(t, "[WPA2-PSK-CCMP][ESS]", r.Capabilities)

	// NetworkManager cannot report these
	assert.Nil(t, r.CenterFreq0)
	assert.Nil(t, r.CenterFreq1)
	assert.Nil(t, r.OperatorFriendlyName)
	assert.Nil(t, r.VenueName)
	assert.Nil(t, r.Is80211mcResponder)
	assert.Nil(t, r.IsPasspointNetwork)
	assert.Equal(t, wifiinfo.WiFiStandardUnknown, r.Standard)
}

func TestRecordFromAccessPointVersionGates(t *testing.T) {
	now := time.Now()

	old := recordFromAccessPoint(apProps(), "wlan0", parseVersion("1.40.0"), now, time.Hour)
	assert.Nil(t, old.ChannelWidth)
	assert.NotNil(t, old.Timestamp)

	ancient := recordFromAccessPoint(apProps(), "wlan0", parseVersion("1.0.0"), now, time.Hour)
	assert.Nil(t, ancient.ChannelWidth)
	assert.Nil(t, ancient.Timestamp)
	assert.Nil(t, ancient.LastSeen)

	unknown := recordFromAccessPoint(apProps(), "wlan0", nil, now, time.Hour)
	assert.Nil(t, unknown.ChannelWidth)
	assert.Nil(t, unknown.Timestamp)
}

func TestRecordFromAccessPointNeverSeen(t *testing.T) {
	props := apProps()
	props["LastSeen"] = dbus.MakeVariant(int32(-1))

	r := recordFromAccessPoint(props, "wlan0", parseVersion("1.46.0"), time.Now(), time.Hour)
	assert.Nil(t, r.Timestamp)
	assert.Nil(t, r.LastSeen)
}

func TestRecordFromAccessPointUnknownBoottime(t *testing.T) {
	r := recordFromAccessPoint(apProps(), "wlan0", parseVersion("1.46.0"), time.Now(), 0)
	assert.NotNil(t, r.Timestamp)
	assert.Nil(t, r.LastSeen)
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name               string
		ap, wpa, rsn, mode uint32
		expected           string
	}{
		{"open", 0, 0, 0, modeInfrastructure, "[ESS]"},
		{"wep", apFlagPrivacy, 0, 0, modeInfrastructure, "[WEP][ESS]"},
		{"wpa3", apFlagPrivacy, 0, secKeyMgmtSAE | secPairCCMP, modeInfrastructure, "[WPA3-SAE-CCMP][ESS]"},
		{"mixed", apFlagPrivacy, secKeyMgmtPSK | secPairTKIP, secKeyMgmtPSK | secPairCCMP | secPairTKIP, modeInfrastructure, "[WPA-PSK-TKIP][WPA2-PSK-CCMP+TKIP][ESS]"},
		{"enterprise adhoc", apFlagPrivacy, 0, secKeyMgmt8021X | secPairCCMP, 1, "[WPA2-EAP-CCMP]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, capabilities(tt.ap, tt.wpa, tt.rsn, tt.mode))
		})
	}
}

func TestParseVersion(t *testing.T) {
	v := parseVersion("1.42.2-1.fc38")
	require.NotNil(t, v)
	assert.True(t, supports(v, lastSeenSince))
	assert.False(t, supports(v, bandwidthSince))

	assert.True(t, supports(parseVersion("1.46.0"), bandwidthSince))
	assert.Nil(t, parseVersion("not a version"))
}

func TestScanCompleted(t *testing.T) {
	sig := &dbus.Signal{
		Name: propertiesIface + ".PropertiesChanged",
		Body: []interface{}{
			wirelessIface,
			map[string]dbus.Variant{"LastScan": dbus.MakeVariant(int64(12345))},
			[]string{},
		},
	}
	assert.True(t, scanCompleted(sig))

	other := &dbus.Signal{
		Name: propertiesIface + ".PropertiesChanged",
		Body: []interface{}{
			wirelessIface,
			map[string]dbus.Variant{"Bitrate": dbus.MakeVariant(uint32(1))},
			[]string{},
		},
	}
	assert.False(t, scanCompleted(other))

	device := &dbus.Signal{
		Name: propertiesIface + ".PropertiesChanged",
		Body: []interface{}{deviceIface, map[string]dbus.Variant{"LastScan": dbus.MakeVariant(int64(1))}},
	}
	assert.False(t, scanCompleted(device))
	assert.False(t, scanCompleted(nil))
}

func TestStateFromPolkit(t *testing.T) {
	results := map[string]string{
		polkitEnableDisableWifi: "yes",
		polkitNetworkControl:    "auth",
		polkitWifiScan:          "no",
	}
	assert.Equal(t, wifiinfo.PermissionGranted, stateFromPolkit(results, wifiinfo.PermissionChangeWifiState))
	assert.Equal(t, wifiinfo.PermissionPermanentlyDenied, stateFromPolkit(results, wifiinfo.PermissionAccessWifiState))

	results[polkitNetworkControl] = "unknown"
	assert.Equal(t, wifiinfo.PermissionDenied, stateFromPolkit(results, wifiinfo.PermissionChangeWifiState))

	// older NetworkManager has no wifi.scan action
	assert.Equal(t, wifiinfo.PermissionGranted, stateFromPolkit(map[string]string{}, wifiinfo.PermissionAccessWifiState))
}
