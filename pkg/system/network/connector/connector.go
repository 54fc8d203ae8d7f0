package network_connector

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// A Controller changes the link state of a wireless interface.
type Controller interface {
	SetEnabled(ctx context.Context, iface string, enabled bool) error
	Disconnect(ctx context.Context, iface string) error
	Name() string
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func Exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

var WPASupplicantRunDir = "/var/run/wpa_supplicant"

// NewController picks wpa_cli when wpa_supplicant owns the
// interface, since it would reassociate behind a bare `iw`
// disconnect.
func NewController(iface string, run Runner) Controller {
	if run == nil {
		run = Exec
	}
	base := IWController{Run: run}
	if iface == "" {
		return base
	}
	if _, err := os.Stat(filepath.Join(WPASupplicantRunDir, iface)); err != nil {
		return base
	}
	if _, err := exec.LookPath("wpa_cli"); err != nil {
		return base
	}
	return WPASupplicantController{IWController: base}
}

var _ Controller = IWController{}

// IWController drives the interface with iproute2 and iw.
type IWController struct {
	Run Runner
}

func (t IWController) Name() string { return "iw" }

func (t IWController) SetEnabled(ctx context.Context, iface string, enabled bool) error {
	state := "down"
	if enabled {
		state = "up"
	}
	_, err := t.Run(ctx, "ip", "link", "set", "dev", iface, state)
	return err
}

func (t IWController) Disconnect(ctx context.Context, iface string) error {
	_, err := t.Run(ctx, "iw", "dev", iface, "disconnect")
	return err
}
