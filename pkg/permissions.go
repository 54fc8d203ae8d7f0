package wifiinfo

import "fmt"

// A Permission is one runtime grant the scan workflow depends on.
type Permission string

const (
	PermissionFineLocation    Permission = "location.fine"
	PermissionChangeWifiState Permission = "wifi.change_state"
	PermissionAccessWifiState Permission = "wifi.access_state"
)

var AllPermissions = []Permission{
	PermissionFineLocation,
	PermissionChangeWifiState,
	PermissionAccessWifiState,
}

func ParsePermission(s string) (Permission, error) {
	for _, p := range AllPermissions {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

type PermissionState int

const (
	PermissionDenied PermissionState = iota
	PermissionGranted
	PermissionPermanentlyDenied
)

func (s PermissionState) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	case PermissionPermanentlyDenied:
		return "permanently-denied"
	}
	return fmt.Sprintf("PermissionState(%d)", int(s))
}

func ParsePermissionState(s string) (PermissionState, error) {
	switch s {
	case "granted":
		return PermissionGranted, nil
	case "denied":
		return PermissionDenied, nil
	case "permanently-denied", "never":
		return PermissionPermanentlyDenied, nil
	}
	return PermissionDenied, fmt.Errorf("unknown permission state %q", s)
}

func (s PermissionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PermissionState) UnmarshalText(b []byte) error {
	v, err := ParsePermissionState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// PermissionResult reports the outcome of asking for one or
// more permissions at once.
type PermissionResult struct {
	Accepted      []Permission
	Denied        []Permission
	ForeverDenied []Permission
}

func (r PermissionResult) HasDenied() bool {
	return len(r.Denied) > 0
}

func (r PermissionResult) HasForeverDenied() bool {
	return len(r.ForeverDenied) > 0
}
