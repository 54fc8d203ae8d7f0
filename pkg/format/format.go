// Package format renders scan records and durations as display text.
package format

import (
	"fmt"
	"strconv"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

// NotAvailable stands in for any field the platform could not report.
const NotAvailable = "N/A"

const HiddenSSID = "Hidden SSID"

// TimeString formats a number of seconds as HH:MM:SS. Negative
// values are formatted by magnitude with a leading minus.
func TimeString(seconds int64) string {
	negative := seconds < 0
	// magnitude as uint64 so math.MinInt64 does not overflow
	mag := uint64(seconds)
	if negative {
		mag = -mag
	}

	var s string
	switch {
	case mag >= 3600:
		s = fmt.Sprintf("%s:%s:%s", pad(mag/3600), pad((mag%3600)/60), pad(mag%60))
	case mag >= 60:
		s = fmt.Sprintf("00:%s:%s", pad(mag/60), pad(mag%60))
	default:
		s = fmt.Sprintf("00:00:%s", pad(mag))
	}

	if negative {
		s = "-" + s
	}
	return s
}

// DurationString is TimeString for a time.Duration, truncated to seconds.
func DurationString(d time.Duration) string {
	return TimeString(int64(d / time.Second))
}

func pad(n uint64) string {
	if n < 10 {
		return "0" + strconv.FormatUint(n, 10)
	}
	return strconv.FormatUint(n, 10)
}

func SSID(r wifiinfo.ScanRecord) string {
	if r.SSID == "" {
		return HiddenSSID
	}
	return r.SSID
}

func Int(v *int) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(*v)
}

func Int64(v *int64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatInt(*v, 10)
}

func Bool(v *bool) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatBool(*v)
}

func String(v *string) string {
	if v == nil {
		return NotAvailable
	}
	return *v
}

func ChannelWidth(w *wifiinfo.ChannelWidth) string {
	if w == nil {
		return NotAvailable
	}
	switch *w {
	case wifiinfo.ChannelWidth20MHz:
		return "20MHZ"
	case wifiinfo.ChannelWidth40MHz:
		return "40MHZ"
	case wifiinfo.ChannelWidth80MHz:
		return "80MHZ"
	case wifiinfo.ChannelWidth160MHz:
		return "160MHZ"
	case wifiinfo.ChannelWidth80Plus80MHz:
		return "80MHZ PLUS MHZ"
	}
	return "Unknown Type: " + strconv.Itoa(int(*w))
}

func Standard(s wifiinfo.WiFiStandard) string {
	switch s {
	case wifiinfo.WiFiStandardUnknown:
		return "WIFI_STANDARD_UNKNOWN"
	case wifiinfo.WiFiStandardLegacy:
		return "WIFI_STANDARD_LEGACY"
	case wifiinfo.WiFiStandard11N:
		return "WIFI_STANDARD_11N"
	case wifiinfo.WiFiStandard11AC:
		return "WIFI_STANDARD_11AC"
	case wifiinfo.WiFiStandard11AX:
		return "WIFI_STANDARD_11AX"
	}
	return "Unknown Type: " + strconv.Itoa(int(s))
}
