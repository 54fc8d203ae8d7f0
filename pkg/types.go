package wifiinfo

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches a BSSID.
var ErrNotFound = errors.New("no such access point")

// ChannelWidth mirrors the platform channel bandwidth codes.
type ChannelWidth int

const (
	ChannelWidth20MHz ChannelWidth = iota
	ChannelWidth40MHz
	ChannelWidth80MHz
	ChannelWidth160MHz
	ChannelWidth80Plus80MHz
)

// ChannelWidthFromMHz maps a reported bandwidth in MHz onto a ChannelWidth.
// Anything unrecognised is returned as its raw MHz value so it can still
// be displayed as an unknown type.
func ChannelWidthFromMHz(mhz int) ChannelWidth {
	switch mhz {
	case 20:
		return ChannelWidth20MHz
	case 40:
		return ChannelWidth40MHz
	case 80:
		return ChannelWidth80MHz
	case 160:
		return ChannelWidth160MHz
	}
	return ChannelWidth(mhz)
}

type WiFiStandard int

const (
	WiFiStandardUnknown WiFiStandard = 0
	WiFiStandardLegacy  WiFiStandard = 1
	WiFiStandard11N     WiFiStandard = 4
	WiFiStandard11AC    WiFiStandard = 5
	WiFiStandard11AX    WiFiStandard = 6
)

/* ScanRecord is a single access point observation from one
 * completed scan. Pointer fields are optional: a nil value
 * means the platform (or its version) could not report it.
 */
type ScanRecord struct {
	Interface            string        `json:"interface"`
	SSID                 string        `json:"ssid"`
	BSSID                string        `json:"bssid"`
	Level                int           `json:"level"`
	Strength             *int          `json:"strength"`
	Frequency            int           `json:"frequency"`
	Channel              *int          `json:"channel"`
	CenterFreq0          *int          `json:"centerFreq0"`
	CenterFreq1          *int          `json:"centerFreq1"`
	ChannelWidth         *ChannelWidth `json:"channelWidth"`
	Standard             WiFiStandard  `json:"standard"`
	Capabilities         string        `json:"capabilities"`
	OperatorFriendlyName *string       `json:"operatorFriendlyName"`
	VenueName            *string       `json:"venueName"`
	Is80211mcResponder   *bool         `json:"is80211mcResponder"`
	IsPasspointNetwork   *bool         `json:"isPasspointNetwork"`
	Timestamp            *int64        `json:"timestamp"` // µs since boot
	LastSeen             *time.Time    `json:"lastSeen"`
}

// Frequency (MHz) to channel number for the 2.4, 5 and 6GHz bands.
func FrequencyToChannel(freq int) (int, bool) {
	switch {
	case freq == 2484:
		return 14, true
	case freq >= 2412 && freq < 2484:
		return (freq - 2407) / 5, true
	case freq >= 5955 && freq <= 7115:
		return (freq - 5950) / 5, true
	case freq >= 5160 && freq <= 5885:
		return (freq - 5000) / 5, true
	}
	return 0, false
}
