package format

import (
	"strconv"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Details lists every attribute of a record in display order.
func Details(r wifiinfo.ScanRecord, now time.Time) []Field {
	return []Field{
		{"SSID", SSID(r)},
		{"BSSID", r.BSSID},
		{"Interface", r.Interface},
		{"RSSI", strconv.Itoa(r.Level)},
		{"Signal Strength", percent(r.Strength)},
		{"Frequency", strconv.Itoa(r.Frequency)},
		{"Channel", Int(r.Channel)},
		{"Center Frequency 0", Int(r.CenterFreq0)},
		{"Center Frequency 1", Int(r.CenterFreq1)},
		{"Capabilities", r.Capabilities},
		{"Channel Width", ChannelWidth(r.ChannelWidth)},
		{"Operator friendly name", String(r.OperatorFriendlyName)},
		{"Venue name", String(r.VenueName)},
		{"WiFi Standard", Standard(r.Standard)},
		{"Is 802.11mc Responder", Bool(r.Is80211mcResponder)},
		{"Is Passpoint Network", Bool(r.IsPasspointNetwork)},
		{"Timestamp in μs (since boot)", Int64(r.Timestamp)},
		{"Last seen", lastSeen(r.LastSeen, now)},
	}
}

func percent(v *int) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(*v) + "%"
}

func lastSeen(t *time.Time, now time.Time) string {
	if t == nil {
		return NotAvailable
	}
	return DurationString(now.Sub(*t)) + " ago"
}
