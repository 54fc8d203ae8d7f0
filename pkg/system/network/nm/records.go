package nm

import (
	"strings"
	"time"

	"github.com/Masterminds/semver"
	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	network_wifi "github.com/dogeorg/wifiinfo/pkg/system/network/wifi"
	"github.com/godbus/dbus/v5"
)

// NM80211ApFlags and NM80211ApSecurityFlags
const (
	apFlagPrivacy = 0x1

	secPairTKIP      = 0x4
	secPairCCMP      = 0x8
	secKeyMgmtPSK    = 0x100
	secKeyMgmt8021X  = 0x200
	secKeyMgmtSAE    = 0x400
	secKeyMgmtOWE    = 0x800
	secKeyMgmtSuiteB = 0x2000

	modeInfrastructure = 2
)

var (
	// AccessPoint.LastSeen
	lastSeenSince = mustConstraint(">= 1.2.0")
	// AccessPoint.Bandwidth
	bandwidthSince = mustConstraint(">= 1.46.0")
)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

func supports(v *semver.Version, c *semver.Constraints) bool {
	return v != nil && c.Check(v)
}

// parseVersion drops distro suffixes like "1.42.2-1.fc38", which
// semver would read as a prerelease that no constraint accepts.
func parseVersion(s string) *semver.Version {
	head, _, _ := strings.Cut(strings.TrimSpace(s), "-")
	v, err := semver.NewVersion(head)
	if err != nil {
		return nil
	}
	return v
}

func levelFromStrength(strength int) int {
	return strength/2 - 100
}

func securityFlags(proto string, flags uint32) string {
	var auth, ciphers []string
	if flags&secKeyMgmtPSK != 0 {
		auth = append(auth, "PSK")
	}
	if flags&secKeyMgmtSAE != 0 {
		auth = append(auth, "SAE")
	}
	if flags&secKeyMgmt8021X != 0 {
		auth = append(auth, "EAP")
	}
	if flags&secKeyMgmtSuiteB != 0 {
		auth = append(auth, "EAP-SUITE-B-192")
	}
	if flags&secKeyMgmtOWE != 0 {
		auth = append(auth, "OWE")
	}
	if flags&secPairCCMP != 0 {
		ciphers = append(ciphers, "CCMP")
	}
	if flags&secPairTKIP != 0 {
		ciphers = append(ciphers, "TKIP")
	}
	return network_wifi.SecurityFlag(proto, auth, ciphers)
}

func capabilities(apFlags, wpaFlags, rsnFlags, mode uint32) string {
	sec := network_wifi.Security{
		Privacy: apFlags&apFlagPrivacy != 0,
		ESS:     mode == modeInfrastructure,
	}
	if wpaFlags != 0 {
		sec.WPA = append(sec.WPA, securityFlags("WPA", wpaFlags))
	}
	if rsnFlags != 0 {
		proto := "WPA2"
		if rsnFlags&secKeyMgmtSAE != 0 {
			proto = "WPA3"
		}
		sec.RSN = append(sec.RSN, securityFlags(proto, rsnFlags))
	}
	return sec.String()
}

func uint32Prop(props map[string]dbus.Variant, name string) (uint32, bool) {
	v, ok := props[name]
	if !ok {
		return 0, false
	}
	switch n := v.Value().(type) {
	case uint32:
		return n, true
	case byte:
		return uint32(n), true
	}
	return 0, false
}

/* recordFromAccessPoint converts one AccessPoint property map.
 * uptime is the current CLOCK_BOOTTIME reading, which is the
 * clock LastSeen is measured on.
 */
func recordFromAccessPoint(props map[string]dbus.Variant, iface string, version *semver.Version, now time.Time, uptime time.Duration) wifiinfo.ScanRecord {
	r := wifiinfo.ScanRecord{Interface: iface}

	if v, ok := props["Ssid"]; ok {
		if b, ok := v.Value().([]byte); ok {
			r.SSID = string(b)
		}
	}
	if v, ok := props["HwAddress"]; ok {
		if s, ok := v.Value().(string); ok {
			r.BSSID = strings.ToLower(s)
		}
	}
	if s, ok := uint32Prop(props, "Strength"); ok {
		strength := int(s)
		r.Strength = &strength
		r.Level = levelFromStrength(strength)
	}
	if f, ok := uint32Prop(props, "Frequency"); ok {
		r.Frequency = int(f)
		if ch, ok := wifiinfo.FrequencyToChannel(r.Frequency); ok {
			r.Channel = &ch
		}
	}

	if supports(version, bandwidthSince) {
		if bw, ok := uint32Prop(props, "Bandwidth"); ok && bw > 0 {
			width := wifiinfo.ChannelWidthFromMHz(int(bw))
			r.ChannelWidth = &width
		}
	}

	if supports(version, lastSeenSince) {
		if v, ok := props["LastSeen"]; ok {
			// -1 means never seen
			if secs, ok := v.Value().(int32); ok && secs >= 0 {
				us := int64(secs) * 1e6
				r.Timestamp = &us
				if uptime > 0 {
					seen := now.Add(-(uptime - time.Duration(secs)*time.Second))
					r.LastSeen = &seen
				}
			}
		}
	}

	apFlags, _ := uint32Prop(props, "Flags")
	wpaFlags, _ := uint32Prop(props, "WpaFlags")
	rsnFlags, _ := uint32Prop(props, "RsnFlags")
	mode, _ := uint32Prop(props, "Mode")
	r.Capabilities = capabilities(apFlags, wpaFlags, rsnFlags, mode)

	return r
}
