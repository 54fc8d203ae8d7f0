package permission

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

var descriptions = map[wifiinfo.Permission]string{
	wifiinfo.PermissionFineLocation:    "Scan results reveal where you are. Allow wifiinfo to use precise location?",
	wifiinfo.PermissionChangeWifiState: "Allow wifiinfo to switch the WiFi radio and request scans?",
	wifiinfo.PermissionAccessWifiState: "Allow wifiinfo to read WiFi state and scan results?",
}

// SettingsHint tells the user how to change a permission by hand.
func SettingsHint(consentPath string, p wifiinfo.Permission) string {
	switch p {
	case wifiinfo.PermissionChangeWifiState:
		return fmt.Sprintf("%s: run `wifiinfo permissions reset %s`; the system side needs CAP_NET_ADMIN "+
			"(setcap cap_net_admin+ep) or a polkit rule allowing org.freedesktop.NetworkManager.enable-disable-wifi", p, p)
	case wifiinfo.PermissionAccessWifiState:
		return fmt.Sprintf("%s: run `wifiinfo permissions reset %s`; the system side needs access to nl80211 "+
			"or the NetworkManager D-Bus API", p, p)
	}
	return fmt.Sprintf("%s: run `wifiinfo permissions reset %s` (stored in %s)", p, p, consentPath)
}

var _ Prompter = &Terminal{}
var _ UI = &Terminal{}

// Terminal prompts on an interactive terminal.
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	consentPath string
}

func NewTerminal(in io.Reader, out io.Writer, consentPath string) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, consentPath: consentPath}
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	type line struct {
		s   string
		err error
	}
	ch := make(chan line, 1)
	go func() {
		s, err := t.in.ReadString('\n')
		ch <- line{s, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-ch:
		if l.err != nil && l.err != io.EOF {
			return "", l.err
		}
		return strings.TrimSpace(l.s), nil
	}
}

func (t *Terminal) Prompt(ctx context.Context, p wifiinfo.Permission) (Answer, error) {
	fmt.Fprintf(t.out, "%s [y]es / [n]o / [N]ever ask again: ", descriptions[p])
	s, err := t.readLine(ctx)
	if err != nil {
		return AnswerDeny, err
	}
	switch s {
	case "y", "Y", "yes", "Yes":
		return AnswerAllow, nil
	case "N", "never", "Never":
		return AnswerNever, nil
	}
	return AnswerDeny, nil
}

func (t *Terminal) confirm(ctx context.Context, action string) (bool, error) {
	fmt.Fprintf(t.out, "[%s] (enter to continue, n to cancel): ", action)
	s, err := t.readLine(ctx)
	if err != nil {
		return false, err
	}
	return s != "n" && s != "N", nil
}

func (t *Terminal) LocationRationale(ctx context.Context, afterDenial bool) (bool, error) {
	fmt.Fprintln(t.out, "Location permission required")
	fmt.Fprintln(t.out, "WiFi scanning needs precise location, because nearby access points identify where you are.")
	if afterDenial {
		return t.confirm(ctx, "Open settings")
	}
	return t.confirm(ctx, "Enable")
}

func (t *Terminal) WiFiDenied(ctx context.Context) (bool, error) {
	fmt.Fprintln(t.out, "Permission Denied")
	fmt.Fprintln(t.out, "WiFi scanning can't continue without permission to read and change WiFi state.")
	return t.confirm(ctx, "Okay")
}

func (t *Terminal) OpenSettings(ctx context.Context, perms []wifiinfo.Permission) error {
	fmt.Fprintln(t.out, "To change these permissions:")
	for _, p := range perms {
		fmt.Fprintf(t.out, "  %s\n", SettingsHint(t.consentPath, p))
	}
	return nil
}

// DenyPrompter answers every prompt with a plain denial. It is
// used where nobody is around to ask; consent is then given
// through settings instead.
type DenyPrompter struct{}

func (DenyPrompter) Prompt(ctx context.Context, p wifiinfo.Permission) (Answer, error) {
	return AnswerDeny, nil
}

// HeadlessUI never acts on rationale or alerts.
type HeadlessUI struct{}

func (HeadlessUI) LocationRationale(ctx context.Context, afterDenial bool) (bool, error) {
	return false, nil
}

func (HeadlessUI) WiFiDenied(ctx context.Context) (bool, error) {
	return false, nil
}

func (HeadlessUI) OpenSettings(ctx context.Context, perms []wifiinfo.Permission) error {
	return nil
}
