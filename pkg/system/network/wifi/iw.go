package network_wifi

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

var _ WifiScanner = &IWScanner{}

// IWScanner scans with nl80211 through `iw dev <if> scan`.
type IWScanner struct{}

func (s IWScanner) Name() string { return "iw" }

func (s IWScanner) Scan(ctx context.Context, interfaceName string) ([]wifiinfo.ScanRecord, error) {
	cmd := exec.CommandContext(ctx, "iw", "dev", interfaceName, "scan")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("iw dev %s scan: %w: %s", interfaceName, err, strings.TrimSpace(stderr.String()))
	}

	return parseIWOutput(out.String(), interfaceName, time.Now()), nil
}

var (
	iwBSSRegex      = regexp.MustCompile(`^BSS ([0-9a-fA-F:]{17})`)
	iwSignalRegex   = regexp.MustCompile(`^(-?[0-9.]+) dBm`)
	iwAgoRegex      = regexp.MustCompile(`^(\d+) ms ago`)
	iwBoottimeRegex = regexp.MustCompile(`^([0-9.]+)s \[boottime\]`)
	iwLeadingInt    = regexp.MustCompile(`^(\d+)`)
	iwSSIDEscape    = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)
)

// bssBuilder accumulates one BSS block of iw output.
type bssBuilder struct {
	r       wifiinfo.ScanRecord
	freq    float64
	sec     Security
	ht      bool
	vht     bool
	he      bool
	htWide  int // -1 below, 0 none, 1 above
	vhtWide int
	seg0    int
	seg1    int
	proto   map[string]*suite
	extCaps bool
	ftm     bool
	hs20    bool
}

type suite struct {
	auth    []string
	ciphers []string
}

func parseIWOutput(output string, iface string, now time.Time) []wifiinfo.ScanRecord {
	var networks []wifiinfo.ScanRecord
	var cur *bssBuilder
	section := ""

	flush := func() {
		if cur != nil {
			networks = append(networks, cur.build(iface))
		}
	}

	for _, raw := range strings.Split(output, "\n") {
		if strings.HasPrefix(raw, "BSS ") {
			flush()
			cur = nil
			section = ""
			if m := iwBSSRegex.FindStringSubmatch(raw); m != nil {
				cur = &bssBuilder{proto: map[string]*suite{}}
				cur.r.BSSID = strings.ToLower(m[1])
			}
			continue
		}
		if cur == nil {
			continue
		}

		depth := len(raw) - len(strings.TrimLeft(raw, "\t"))
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "* ") {
			cur.item(section, strings.TrimPrefix(line, "* "))
			continue
		}
		if depth != 1 {
			continue
		}

		key, val, _ := strings.Cut(line, ":")
		section = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		cur.header(section)
		if strings.HasPrefix(val, "* ") {
			cur.item(section, strings.TrimPrefix(val, "* "))
			continue
		}
		cur.field(section, val, now)
	}
	flush()

	return networks
}

func (b *bssBuilder) header(section string) {
	switch section {
	case "HT operation":
		b.ht = true
	case "VHT operation":
		b.vht = true
	case "HE capabilities", "HE operation":
		b.he = true
	case "RSN", "WPA":
		if b.proto[section] == nil {
			b.proto[section] = &suite{}
		}
	case "Extended capabilities":
		b.extCaps = true
	case "HotSpot 2.0 Indication":
		b.hs20 = true
	}
}

func (b *bssBuilder) field(key, val string, now time.Time) {
	switch key {
	case "freq":
		b.freq, _ = strconv.ParseFloat(val, 64)
	case "signal":
		if m := iwSignalRegex.FindStringSubmatch(val); m != nil {
			dbm, _ := strconv.ParseFloat(m[1], 64)
			b.r.Level = int(math.Round(dbm))
			b.r.Strength = intPtr(strengthFromLevel(b.r.Level))
		}
	case "last seen":
		if m := iwAgoRegex.FindStringSubmatch(val); m != nil {
			ms, _ := strconv.Atoi(m[1])
			seen := now.Add(-time.Duration(ms) * time.Millisecond)
			b.r.LastSeen = &seen
		} else if m := iwBoottimeRegex.FindStringSubmatch(val); m != nil {
			secs, _ := strconv.ParseFloat(m[1], 64)
			us := int64(math.Round(secs * 1e6))
			b.r.Timestamp = &us
		}
	case "SSID":
		b.r.SSID = unescapeSSID(val)
	case "capability":
		for _, f := range strings.Fields(val) {
			switch f {
			case "ESS":
				b.sec.ESS = true
			case "Privacy":
				b.sec.Privacy = true
			}
		}
	}
}

func (b *bssBuilder) item(section, item string) {
	key, val, _ := strings.Cut(item, ":")
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	switch section {
	case "HT operation":
		if key == "secondary channel offset" {
			switch val {
			case "above":
				b.htWide = 1
			case "below":
				b.htWide = -1
			}
		}
	case "VHT operation":
		n := leadingInt(val)
		switch key {
		case "channel width":
			b.vhtWide = n
		case "center freq segment 1":
			b.seg0 = n
		case "center freq segment 2":
			b.seg1 = n
		}
	case "RSN", "WPA":
		s := b.proto[section]
		switch key {
		case "Authentication suites":
			for _, a := range strings.Fields(val) {
				s.auth = append(s.auth, AuthName(a))
			}
		case "Pairwise ciphers":
			s.ciphers = strings.Fields(val)
		}
	case "Extended capabilities":
		if strings.Contains(item, "FTM Responder") {
			b.ftm = true
		}
	}
}

func (b *bssBuilder) build(iface string) wifiinfo.ScanRecord {
	r := b.r
	r.Interface = iface
	r.Frequency = int(math.Round(b.freq))
	if ch, ok := wifiinfo.FrequencyToChannel(r.Frequency); ok {
		r.Channel = intPtr(ch)
	}

	switch {
	case b.he:
		r.Standard = wifiinfo.WiFiStandard11AX
	case b.vht:
		r.Standard = wifiinfo.WiFiStandard11AC
	case b.ht:
		r.Standard = wifiinfo.WiFiStandard11N
	default:
		r.Standard = wifiinfo.WiFiStandardLegacy
	}

	width := wifiinfo.ChannelWidth20MHz
	center0 := r.Frequency
	center1 := 0
	switch {
	case b.vht && b.vhtWide == 1 && b.seg1 != 0 && absInt(b.seg1-b.seg0) == 8:
		// 160 MHz signalled the newer way: segment 2 is the real centre
		width = wifiinfo.ChannelWidth160MHz
		center0 = segmentFreq(r.Frequency, b.seg1)
	case b.vht && b.vhtWide == 1 && b.seg1 != 0:
		width = wifiinfo.ChannelWidth80Plus80MHz
		center0 = segmentFreq(r.Frequency, b.seg0)
		center1 = segmentFreq(r.Frequency, b.seg1)
	case b.vht && b.vhtWide == 1:
		width = wifiinfo.ChannelWidth80MHz
		center0 = segmentFreq(r.Frequency, b.seg0)
	case b.vht && b.vhtWide == 2:
		width = wifiinfo.ChannelWidth160MHz
		center0 = segmentFreq(r.Frequency, b.seg0)
	case b.vht && b.vhtWide == 3:
		width = wifiinfo.ChannelWidth80Plus80MHz
		center0 = segmentFreq(r.Frequency, b.seg0)
		center1 = segmentFreq(r.Frequency, b.seg1)
	case b.htWide != 0:
		width = wifiinfo.ChannelWidth40MHz
		center0 = r.Frequency + 10*b.htWide
	}
	r.ChannelWidth = &width
	if r.Frequency > 0 {
		r.CenterFreq0 = intPtr(center0)
	}
	if center1 > 0 {
		r.CenterFreq1 = intPtr(center1)
	}

	for _, proto := range []string{"WPA", "RSN"} {
		s := b.proto[proto]
		if s == nil {
			continue
		}
		if proto == "WPA" {
			b.sec.WPA = append(b.sec.WPA, SecurityFlag("WPA", s.auth, s.ciphers))
			continue
		}
		name := "WPA2"
		for _, a := range s.auth {
			if a == "SAE" {
				name = "WPA3"
			}
		}
		b.sec.RSN = append(b.sec.RSN, SecurityFlag(name, s.auth, s.ciphers))
	}
	r.Capabilities = b.sec.String()

	if b.extCaps {
		r.Is80211mcResponder = boolPtr(b.ftm)
	}
	r.IsPasspointNetwork = boolPtr(b.hs20)

	return r
}

// segmentFreq turns a VHT centre channel index into MHz in the
// band of the primary frequency.
func segmentFreq(primary, index int) int {
	switch {
	case primary >= 5955:
		return 5950 + 5*index
	case primary >= 5000:
		return 5000 + 5*index
	default:
		return 2407 + 5*index
	}
}

func leadingInt(s string) int {
	m := iwLeadingInt.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// iw prints non-printable SSID bytes as \xNN
func unescapeSSID(s string) string {
	return iwSSIDEscape.ReplaceAllStringFunc(s, func(m string) string {
		v, err := strconv.ParseUint(m[2:], 16, 8)
		if err != nil {
			return m
		}
		return string([]byte{byte(v)})
	})
}
