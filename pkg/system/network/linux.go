package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/permission"
	network_connector "github.com/dogeorg/wifiinfo/pkg/system/network/connector"
	"github.com/dogeorg/wifiinfo/pkg/system/network/notify"
	network_wifi "github.com/dogeorg/wifiinfo/pkg/system/network/wifi"
	"github.com/mdlayher/wifi"
	"github.com/sirupsen/logrus"
)

var _ wifiinfo.Platform = &NL80211Platform{}

var ErrNoWifiInterface = errors.New("no wireless station interface found")

// the parts of *wifi.Client we use
type wifiClient interface {
	Interfaces() ([]*wifi.Interface, error)
	BSS(ifi *wifi.Interface) (*wifi.BSS, error)
	Close() error
}

func newWifiClient() (wifiClient, error) {
	return wifi.New()
}

/* NL80211Platform talks to the kernel directly: nl80211 for
 * interface and association state, iproute2/iw/wpa_cli for link
 * changes, and a WifiScanner for the scan itself. Scans block, so
 * StartScan runs them in the background and fires subscribers
 * when the result set is replaced.
 */
type NL80211Platform struct {
	Interface   string
	Scanner     network_wifi.WifiScanner
	ScanTimeout time.Duration

	log        logrus.FieldLogger
	newClient  func() (wifiClient, error)
	controller func(iface string) network_connector.Controller
	checker    wifiinfo.PermissionChecker
	subs       *notify.Subscribers

	mu       sync.Mutex
	results  []wifiinfo.ScanRecord
	scanning bool
	wg       sync.WaitGroup
}

func NewNL80211Platform(config wifiinfo.ServerConfig, log logrus.FieldLogger) *NL80211Platform {
	p := &NL80211Platform{
		Interface:   config.Interface,
		Scanner:     network_wifi.NewWifiScanner(),
		ScanTimeout: config.ScanTimeout,
		log:         log.WithField("backend", wifiinfo.BackendNL80211),
		newClient:   newWifiClient,
		controller: func(iface string) network_connector.Controller {
			return network_connector.NewController(iface, nil)
		},
		subs: notify.New(),
	}
	if p.ScanTimeout <= 0 {
		p.ScanTimeout = wifiinfo.DefaultScanTimeout
	}
	p.checker = permission.CapabilityChecker{Probe: p.probe}
	return p
}

func (t *NL80211Platform) Name() string { return wifiinfo.BackendNL80211 }

func (t *NL80211Platform) probe() error {
	c, err := t.newClient()
	if err != nil {
		return err
	}
	return c.Close()
}

func (t *NL80211Platform) Check(ctx context.Context, p wifiinfo.Permission) (wifiinfo.PermissionState, error) {
	return t.checker.Check(ctx, p)
}

// stations lists the station-mode interfaces we are allowed to use.
func (t *NL80211Platform) stations(c wifiClient) ([]*wifi.Interface, error) {
	ifis, err := c.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing wifi interfaces: %w", err)
	}

	found := []*wifi.Interface{}
	for _, ifi := range ifis {
		if ifi.Name == "" || ifi.Type != wifi.InterfaceTypeStation {
			continue
		}
		if t.Interface != "" && ifi.Name != t.Interface {
			continue
		}
		found = append(found, ifi)
	}

	if len(found) == 0 {
		if t.Interface != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoWifiInterface, t.Interface)
		}
		return nil, ErrNoWifiInterface
	}
	return found, nil
}

func (t *NL80211Platform) interfaceNames() ([]string, error) {
	c, err := t.newClient()
	if err != nil {
		return nil, fmt.Errorf("opening nl80211: %w", err)
	}
	defer c.Close()

	ifis, err := t.stations(c)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ifis))
	for _, ifi := range ifis {
		names = append(names, ifi.Name)
	}
	return names, nil
}

func (t *NL80211Platform) IsWiFiConnected(ctx context.Context) (bool, error) {
	c, err := t.newClient()
	if err != nil {
		return false, fmt.Errorf("opening nl80211: %w", err)
	}
	defer c.Close()

	ifis, err := t.stations(c)
	if err != nil {
		return false, err
	}

	for _, ifi := range ifis {
		bss, err := c.BSS(ifi)
		if err != nil {
			// not associated
			continue
		}
		if bss.Status == wifi.BSSStatusAssociated {
			t.log.Debugf("%s is associated with %s", ifi.Name, bss.BSSID)
			return true, nil
		}
	}
	return false, nil
}

func (t *NL80211Platform) SetWifiEnabled(ctx context.Context, enabled bool) (bool, error) {
	names, err := t.interfaceNames()
	if err != nil {
		return false, err
	}

	ok := true
	for _, name := range names {
		if err := t.controller(name).SetEnabled(ctx, name, enabled); err != nil {
			t.log.Warnf("Failed to set %s enabled=%v: %s", name, enabled, err)
			ok = false
		}
	}
	return ok, nil
}

func (t *NL80211Platform) Disconnect(ctx context.Context) (bool, error) {
	names, err := t.interfaceNames()
	if err != nil {
		return false, err
	}

	ok := true
	for _, name := range names {
		c := t.controller(name)
		if err := c.Disconnect(ctx, name); err != nil {
			t.log.Warnf("Failed to disconnect %s via %s: %s", name, c.Name(), err)
			ok = false
		}
	}
	return ok, nil
}

// StartScan returns once the scan is underway. A scan already
// running is reported as not accepted.
func (t *NL80211Platform) StartScan(ctx context.Context) (bool, error) {
	names, err := t.interfaceNames()
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	if t.scanning {
		t.mu.Unlock()
		return false, nil
	}
	t.scanning = true
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.scan(names)
	}()
	return true, nil
}

func (t *NL80211Platform) scan(names []string) {
	defer func() {
		t.mu.Lock()
		t.scanning = false
		t.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), t.ScanTimeout)
	defer cancel()

	var records []wifiinfo.ScanRecord
	succeeded := false
	for _, name := range names {
		// a radio that was just disabled has to be up to scan
		if err := t.controller(name).SetEnabled(ctx, name, true); err != nil {
			t.log.Warnf("Failed to bring %s up for scanning: %s", name, err)
		}

		found, err := t.Scanner.Scan(ctx, name)
		if err != nil {
			t.log.Errorf("Scan on %s with %s failed: %s", name, t.Scanner.Name(), err)
			continue
		}
		succeeded = true
		records = append(records, found...)
	}

	if !succeeded {
		return
	}

	t.mu.Lock()
	t.results = records
	t.mu.Unlock()

	t.log.Infof("Scan found %d access points", len(records))
	t.subs.Fire()
}

func (t *NL80211Platform) ScanResults(ctx context.Context) ([]wifiinfo.ScanRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]wifiinfo.ScanRecord{}, t.results...), nil
}

func (t *NL80211Platform) Subscribe(fn func()) (func(), error) {
	return t.subs.Add(fn), nil
}

// Close waits for a running scan to finish.
func (t *NL80211Platform) Close() error {
	t.wg.Wait()
	return nil
}
