package wifiinfo

import "context"

// see ./system/network for implementations

// WifiManager is the host's WiFi radio as far as scanning
// is concerned. Boolean returns report whether the platform
// accepted the request, errors report why it could not be asked.
type WifiManager interface {
	SetWifiEnabled(ctx context.Context, enabled bool) (bool, error)
	Disconnect(ctx context.Context) (bool, error)
	StartScan(ctx context.Context) (bool, error)
	ScanResults(ctx context.Context) ([]ScanRecord, error)

	// Subscribe registers fn to be called each time the platform
	// has fresh scan results. The returned func removes it.
	Subscribe(fn func()) (unsubscribe func(), err error)
	Close() error
}

// reports whether the active network is carried over WiFi
type ConnectivityManager interface {
	IsWiFiConnected(ctx context.Context) (bool, error)
}

// Platform bundles everything a backend provides.
type Platform interface {
	WifiManager
	ConnectivityManager
	PermissionChecker
	Name() string
}

// PermissionChecker reports the current state of a permission
// from one authority (user consent, polkit, capabilities).
type PermissionChecker interface {
	Check(ctx context.Context, p Permission) (PermissionState, error)
}

// asks the user for one or more permissions
type PermissionRequester interface {
	Request(ctx context.Context, perms ...Permission) (PermissionResult, error)
}

// PermissionGate must be satisfied before a scan is triggered.
type PermissionGate interface {
	Ensure(ctx context.Context) error
}

type ScanTrigger interface {
	Scan(ctx context.Context) error
	Done()
}

// ScanListener owns the results-available registration.
type ScanListener interface {
	Register() error
	Unregister()
}

// ResultPresenter holds the latest result set for display.
type ResultPresenter interface {
	SetData(records []ScanRecord)
	Clear()
	Results() []ScanRecord
	Find(bssid string) (ScanRecord, bool)
	OnChange(fn func([]ScanRecord)) (remove func())
}
