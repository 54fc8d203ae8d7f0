package network_connector

import (
	"context"
	"fmt"
	"strings"
)

var _ Controller = WPASupplicantController{}

// WPASupplicantController asks a running wpa_supplicant to drop
// its association, so it stays disconnected until told otherwise.
type WPASupplicantController struct {
	IWController
}

func (t WPASupplicantController) Name() string { return "wpa_supplicant" }

func (t WPASupplicantController) Disconnect(ctx context.Context, iface string) error {
	out, err := t.Run(ctx, "wpa_cli", "-i", iface, "disconnect")
	if err != nil {
		return err
	}

	// wpa_cli exits 0 even when the request fails
	if status := strings.TrimSpace(string(out)); status != "OK" {
		return fmt.Errorf("wpa_cli disconnect on %s: %s", iface, status)
	}
	return nil
}
