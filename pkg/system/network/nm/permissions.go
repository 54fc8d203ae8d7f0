package nm

import (
	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/permission"
)

const (
	polkitEnableDisableWifi = "org.freedesktop.NetworkManager.enable-disable-wifi"
	polkitNetworkControl    = "org.freedesktop.NetworkManager.network-control"
	polkitWifiScan          = "org.freedesktop.NetworkManager.wifi.scan"
)

// polkit actions each permission depends on
var polkitActions = map[wifiinfo.Permission][]string{
	wifiinfo.PermissionChangeWifiState: {polkitEnableDisableWifi, polkitNetworkControl},
	wifiinfo.PermissionAccessWifiState: {polkitWifiScan},
}

// stateFromPolkit reduces GetPermissions output to one state. An
// action NetworkManager does not report is not enforced by it.
func stateFromPolkit(results map[string]string, p wifiinfo.Permission) wifiinfo.PermissionState {
	state := wifiinfo.PermissionGranted
	for _, action := range polkitActions[p] {
		result, ok := results[action]
		if !ok {
			continue
		}
		s := permission.FromPolkit(result)
		if s == wifiinfo.PermissionPermanentlyDenied {
			return s
		}
		if s == wifiinfo.PermissionDenied {
			state = s
		}
	}
	return state
}
