package network_wifi

import (
	"context"
	"os/exec"
	"strings"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

// A WifiScanner runs one blocking scan on an interface and
// returns everything it saw.
type WifiScanner interface {
	Scan(ctx context.Context, networkInterface string) ([]wifiinfo.ScanRecord, error)
	Name() string
}

var lookPath = exec.LookPath

// NewWifiScanner prefers `iw`, which reports channel width,
// standard and timing, and falls back to the legacy `iwlist`.
func NewWifiScanner() WifiScanner {
	if _, err := lookPath("iw"); err == nil {
		return IWScanner{}
	}
	return IWListScanner{}
}

// strength as a 0..100 percentage from a dBm level
func strengthFromLevel(dbm int) int {
	s := 2 * (dbm + 100)
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Security describes the protection an access point advertises
// and renders it as bracketed capability flags.
type Security struct {
	WPA     []string // "WPA-PSK-TKIP"
	RSN     []string // "WPA2-PSK-CCMP"
	Privacy bool
	ESS     bool
}

func (s Security) String() string {
	var b strings.Builder
	for _, f := range s.WPA {
		b.WriteString("[" + f + "]")
	}
	for _, f := range s.RSN {
		b.WriteString("[" + f + "]")
	}
	if s.Privacy && len(s.WPA) == 0 && len(s.RSN) == 0 {
		b.WriteString("[WEP]")
	}
	if s.ESS {
		b.WriteString("[ESS]")
	}
	return b.String()
}

// SecurityFlag builds one flag like WPA2-PSK-CCMP+TKIP.
func SecurityFlag(proto string, auth []string, ciphers []string) string {
	a := "?"
	if len(auth) > 0 {
		a = strings.Join(auth, "+")
	}
	flag := proto + "-" + a
	if len(ciphers) > 0 {
		flag += "-" + strings.Join(ciphers, "+")
	}
	return flag
}

func AuthName(s string) string {
	switch s {
	case "IEEE 802.1X", "802.1X", "802.1x":
		return "EAP"
	}
	return s
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
