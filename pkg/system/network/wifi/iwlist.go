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

var _ WifiScanner = &IWListScanner{}

// IWListScanner scans with the legacy wireless-tools `iwlist`.
// It cannot see channel width, standard, or boot timestamps.
type IWListScanner struct{}

func (s IWListScanner) Name() string { return "iwlist" }

func (s IWListScanner) Scan(ctx context.Context, interfaceName string) ([]wifiinfo.ScanRecord, error) {
	cmd := exec.CommandContext(ctx, "iwlist", interfaceName, "scan")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("iwlist %s scan: %w: %s", interfaceName, err, strings.TrimSpace(stderr.String()))
	}

	return parseIWListOutput(out.String(), interfaceName, time.Now()), nil
}

var (
	iwlAddressRegex    = regexp.MustCompile(`Address: ([0-9A-Fa-f:]{17})`)
	iwlSSIDRegex       = regexp.MustCompile(`ESSID:"(.*?)"`)
	iwlFrequencyRegex  = regexp.MustCompile(`Frequency:([0-9.]+) GHz`)
	iwlQualityRegex    = regexp.MustCompile(`Quality[=:](\d+)/(\d+)`)
	iwlSignalDBMRegex  = regexp.MustCompile(`Signal level[=:](-?\d+) dBm`)
	iwlEncryptionRegex = regexp.MustCompile(`Encryption key:(on|off)`)
	iwlModeRegex       = regexp.MustCompile(`Mode:(\w+)`)
	iwlBeaconRegex     = regexp.MustCompile(`Last beacon: (\d+)ms ago`)
	iwlIERegex         = regexp.MustCompile(`IE: (IEEE 802\.11i/WPA2|WPA) Version \d+`)
	iwlPairwiseRegex   = regexp.MustCompile(`Pairwise Ciphers \(\d+\) : (.+)`)
	iwlAuthRegex       = regexp.MustCompile(`Authentication Suites \(\d+\) : (.+)`)
)

func parseIWListOutput(output string, iface string, now time.Time) []wifiinfo.ScanRecord {
	var networks []wifiinfo.ScanRecord
	cells := strings.Split(output, "Cell ")

	for _, cell := range cells {
		address := iwlAddressRegex.FindStringSubmatch(cell)
		if len(address) < 2 {
			continue
		}

		r := wifiinfo.ScanRecord{
			Interface: iface,
			BSSID:     strings.ToLower(address[1]),
		}

		if ssid := iwlSSIDRegex.FindStringSubmatch(cell); len(ssid) > 1 {
			r.SSID = ssid[1]
		}

		if freq := iwlFrequencyRegex.FindStringSubmatch(cell); len(freq) > 1 {
			if ghz, err := strconv.ParseFloat(freq[1], 64); err == nil {
				r.Frequency = int(math.Round(ghz * 1000))
				if ch, ok := wifiinfo.FrequencyToChannel(r.Frequency); ok {
					r.Channel = intPtr(ch)
				}
			}
		}

		if q := iwlQualityRegex.FindStringSubmatch(cell); len(q) > 2 {
			n, _ := strconv.Atoi(q[1])
			d, _ := strconv.Atoi(q[2])
			if d > 0 {
				r.Strength = intPtr(n * 100 / d)
			}
		}

		if lvl := iwlSignalDBMRegex.FindStringSubmatch(cell); len(lvl) > 1 {
			r.Level, _ = strconv.Atoi(lvl[1])
			if r.Strength == nil {
				r.Strength = intPtr(strengthFromLevel(r.Level))
			}
		}

		if b := iwlBeaconRegex.FindStringSubmatch(cell); len(b) > 1 {
			ms, _ := strconv.Atoi(b[1])
			seen := now.Add(-time.Duration(ms) * time.Millisecond)
			r.LastSeen = &seen
		}

		sec := Security{}
		if enc := iwlEncryptionRegex.FindStringSubmatch(cell); len(enc) > 1 {
			sec.Privacy = enc[1] == "on"
		}
		if mode := iwlModeRegex.FindStringSubmatch(cell); len(mode) > 1 {
			sec.ESS = mode[1] == "Master"
		}

		// each IE block runs until the next IE line
		ies := iwlIERegex.FindAllStringSubmatchIndex(cell, -1)
		for i, ie := range ies {
			end := len(cell)
			if i+1 < len(ies) {
				end = ies[i+1][0]
			}
			block := cell[ie[0]:end]
			proto := "WPA"
			if strings.Contains(cell[ie[2]:ie[3]], "WPA2") {
				proto = "WPA2"
			}
			var auth, ciphers []string
			if m := iwlAuthRegex.FindStringSubmatch(block); len(m) > 1 {
				for _, a := range strings.Fields(m[1]) {
					auth = append(auth, AuthName(a))
				}
			}
			if m := iwlPairwiseRegex.FindStringSubmatch(block); len(m) > 1 {
				ciphers = strings.Fields(m[1])
			}
			flag := SecurityFlag(proto, auth, ciphers)
			if proto == "WPA2" {
				sec.RSN = append(sec.RSN, flag)
			} else {
				sec.WPA = append(sec.WPA, flag)
			}
		}
		r.Capabilities = sec.String()

		networks = append(networks, r)
	}

	return networks
}
