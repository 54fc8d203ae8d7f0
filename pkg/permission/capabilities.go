package permission

import (
	"context"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

var _ wifiinfo.PermissionChecker = CapabilityChecker{}

/* CapabilityChecker is the system authority when we drive nl80211
 * directly: changing WiFi state needs CAP_NET_ADMIN, reading it needs
 * the nl80211 family to be reachable. Neither can be prompted for,
 * so a missing one is permanently denied until fixed by hand.
 * Location is not its concern and always passes.
 */
type CapabilityChecker struct {
	// Probe opens the platform read path; nil means readable.
	Probe func() error
}

func (c CapabilityChecker) Check(ctx context.Context, p wifiinfo.Permission) (wifiinfo.PermissionState, error) {
	switch p {
	case wifiinfo.PermissionChangeWifiState:
		if hasNetAdmin() {
			return wifiinfo.PermissionGranted, nil
		}
		return wifiinfo.PermissionPermanentlyDenied, nil
	case wifiinfo.PermissionAccessWifiState:
		if c.Probe == nil || c.Probe() == nil {
			return wifiinfo.PermissionGranted, nil
		}
		return wifiinfo.PermissionPermanentlyDenied, nil
	}
	return wifiinfo.PermissionGranted, nil
}
