package permission

import (
	"context"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

func restrictiveness(s wifiinfo.PermissionState) int {
	switch s {
	case wifiinfo.PermissionGranted:
		return 0
	case wifiinfo.PermissionDenied:
		return 1
	}
	return 2
}

type combined []wifiinfo.PermissionChecker

// Combine asks every checker and keeps the most restrictive
// answer: permanently denied beats denied beats granted.
func Combine(checkers ...wifiinfo.PermissionChecker) wifiinfo.PermissionChecker {
	return combined(checkers)
}

func (c combined) Check(ctx context.Context, p wifiinfo.Permission) (wifiinfo.PermissionState, error) {
	state := wifiinfo.PermissionGranted
	for _, checker := range c {
		s, err := checker.Check(ctx, p)
		if err != nil {
			return wifiinfo.PermissionDenied, err
		}
		if restrictiveness(s) > restrictiveness(state) {
			state = s
		}
	}
	return state, nil
}

/* FromPolkit maps a polkit authorization result onto a state.
 * "auth" means the platform will ask for authentication itself
 * when the call is made, so it does not block the gate.
 */
func FromPolkit(result string) wifiinfo.PermissionState {
	switch result {
	case "yes", "auth":
		return wifiinfo.PermissionGranted
	case "no":
		return wifiinfo.PermissionPermanentlyDenied
	}
	return wifiinfo.PermissionDenied
}
