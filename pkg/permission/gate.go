package permission

import (
	"context"
	"errors"
	"fmt"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/sirupsen/logrus"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrPermanentlyDenied = errors.New("permission permanently denied")
)

type Action int

const (
	Proceed Action = iota
	RequestLocation
	RequestWiFi
	ShowSettings
)

func (a Action) String() string {
	switch a {
	case Proceed:
		return "proceed"
	case RequestLocation:
		return "request-location"
	case RequestWiFi:
		return "request-wifi"
	case ShowSettings:
		return "show-settings"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	for _, candidate := range []Action{Proceed, RequestLocation, RequestWiFi, ShowSettings} {
		if candidate.String() == string(b) {
			*a = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown gate action %q", b)
}

// Decision is the gate's next step. Repeated is set when the
// permissions in question were already asked for and declined.
type Decision struct {
	Action      Action                `json:"action"`
	Permissions []wifiinfo.Permission `json:"permissions"`
	Repeated    bool                  `json:"repeated"`
}

type States map[wifiinfo.Permission]wifiinfo.PermissionState

var wifiPermissions = []wifiinfo.Permission{
	wifiinfo.PermissionChangeWifiState,
	wifiinfo.PermissionAccessWifiState,
}

/* Decide picks the next step from the current permission states.
 *
 * Location always comes first. The two WiFi permissions are only
 * looked at once location is granted, and are requested together
 * if either is missing. Anything permanently denied goes to
 * settings instead of prompting again. Missing entries count
 * as denied.
 */
func Decide(states States) Decision {
	switch states[wifiinfo.PermissionFineLocation] {
	case wifiinfo.PermissionGranted:
	case wifiinfo.PermissionPermanentlyDenied:
		return Decision{Action: ShowSettings, Permissions: []wifiinfo.Permission{wifiinfo.PermissionFineLocation}}
	default:
		return Decision{Action: RequestLocation, Permissions: []wifiinfo.Permission{wifiinfo.PermissionFineLocation}}
	}

	granted := 0
	forever := []wifiinfo.Permission{}
	for _, p := range wifiPermissions {
		switch states[p] {
		case wifiinfo.PermissionGranted:
			granted++
		case wifiinfo.PermissionPermanentlyDenied:
			forever = append(forever, p)
		}
	}

	switch {
	case granted == len(wifiPermissions):
		return Decision{Action: Proceed}
	case len(forever) > 0:
		return Decision{Action: ShowSettings, Permissions: forever}
	}
	return Decision{Action: RequestWiFi, Permissions: append([]wifiinfo.Permission{}, wifiPermissions...)}
}

// UI is the part of the gate the user sees.
type UI interface {
	// LocationRationale explains why location is needed. When
	// afterDenial is set, acting on it leads to settings rather than
	// another request. Returns whether the user chose to act on it.
	LocationRationale(ctx context.Context, afterDenial bool) (bool, error)
	// WiFiDenied tells the user the WiFi permissions were refused,
	// returning true when acknowledged.
	WiFiDenied(ctx context.Context) (bool, error)
	// OpenSettings sends the user wherever the permissions can be
	// changed by hand.
	OpenSettings(ctx context.Context, perms []wifiinfo.Permission) error
}

// History answers whether a permission has been asked for before.
type History interface {
	Asked(p wifiinfo.Permission) bool
}

var _ wifiinfo.PermissionGate = &Gate{}

type Gate struct {
	checker    wifiinfo.PermissionChecker
	requester  wifiinfo.PermissionRequester
	history    History
	ui         UI
	log        logrus.FieldLogger
	MaxPrompts int
}

func NewGate(
	checker wifiinfo.PermissionChecker,
	requester wifiinfo.PermissionRequester,
	history History,
	ui UI,
	log logrus.FieldLogger,
) *Gate {
	return &Gate{
		checker:    checker,
		requester:  requester,
		history:    history,
		ui:         ui,
		log:        log.WithField("component", "permission-gate"),
		MaxPrompts: 5,
	}
}

// States evaluates every permission afresh.
func (g *Gate) States(ctx context.Context) (States, error) {
	states := States{}
	for _, p := range wifiinfo.AllPermissions {
		s, err := g.checker.Check(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", p, err)
		}
		states[p] = s
	}
	return states, nil
}

// Decide evaluates the current states and returns the next step.
func (g *Gate) Decide(ctx context.Context) (Decision, error) {
	states, err := g.States(ctx)
	if err != nil {
		return Decision{}, err
	}
	d := Decide(states)
	if g.history != nil && (d.Action == RequestLocation || d.Action == RequestWiFi) {
		for _, p := range d.Permissions {
			if g.history.Asked(p) {
				d.Repeated = true
			}
		}
	}
	return d, nil
}

// Ensure walks the request chain until every permission is
// granted, or the user declines.
func (g *Gate) Ensure(ctx context.Context) error {
	// the request the user just accepted in full, if any
	accepted := Proceed
	for round := 0; round < g.MaxPrompts; round++ {
		d, err := g.Decide(ctx)
		if err != nil {
			return err
		}
		g.log.WithField("decision", d.Action).Debug("permission gate")

		// consent was given but the system side still refuses
		if accepted != Proceed && d.Action == accepted {
			return g.systemRefused(ctx, d.Permissions)
		}
		accepted = Proceed

		switch d.Action {
		case Proceed:
			return nil

		case ShowSettings:
			if err := g.ui.OpenSettings(ctx, d.Permissions); err != nil {
				return err
			}
			return ErrPermanentlyDenied

		case RequestLocation:
			if d.Repeated {
				ok, err := g.ui.LocationRationale(ctx, false)
				if err != nil {
					return err
				}
				if !ok {
					return ErrPermissionDenied
				}
			}
			res, err := g.requester.Request(ctx, d.Permissions...)
			if err != nil {
				return err
			}
			if len(res.Accepted) == len(d.Permissions) {
				accepted = RequestLocation
				continue
			}
			return g.locationRefused(ctx, res)

		case RequestWiFi:
			res, err := g.requester.Request(ctx, d.Permissions...)
			if err != nil {
				return err
			}
			if len(res.Accepted) == len(d.Permissions) {
				accepted = RequestWiFi
				continue
			}
			ok, err := g.ui.WiFiDenied(ctx)
			if err != nil {
				return err
			}
			if res.HasForeverDenied() {
				if ok {
					if err := g.ui.OpenSettings(ctx, res.ForeverDenied); err != nil {
						return err
					}
				}
				return ErrPermanentlyDenied
			}
			if !ok {
				return ErrPermissionDenied
			}
		}
	}
	return ErrPermissionDenied
}

// systemRefused sends the user to settings for whatever the system
// side (polkit, capabilities) is still holding back.
func (g *Gate) systemRefused(ctx context.Context, perms []wifiinfo.Permission) error {
	blocking := []wifiinfo.Permission{}
	for _, p := range perms {
		state, err := g.checker.Check(ctx, p)
		if err != nil {
			return fmt.Errorf("checking %s: %w", p, err)
		}
		if state != wifiinfo.PermissionGranted {
			blocking = append(blocking, p)
		}
	}
	g.log.WithField("permissions", blocking).Warn("consent given but refused by the system")

	if err := g.ui.OpenSettings(ctx, blocking); err != nil {
		return err
	}
	return ErrPermissionDenied
}

// after a location refusal the rationale's action leads to settings
func (g *Gate) locationRefused(ctx context.Context, res wifiinfo.PermissionResult) error {
	ok, err := g.ui.LocationRationale(ctx, true)
	if err != nil {
		return err
	}
	if ok {
		if err := g.ui.OpenSettings(ctx, []wifiinfo.Permission{wifiinfo.PermissionFineLocation}); err != nil {
			return err
		}
	}
	if res.HasForeverDenied() {
		return ErrPermanentlyDenied
	}
	return ErrPermissionDenied
}
