package nm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver"
	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/system/network/notify"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	busName         = "org.freedesktop.NetworkManager"
	busPath         = "/org/freedesktop/NetworkManager"
	deviceIface     = busName + ".Device"
	wirelessIface   = busName + ".Device.Wireless"
	accessPointProp = busName + ".AccessPoint"
	propertiesIface = "org.freedesktop.DBus.Properties"

	deviceTypeWifi = 2

	// NMDeviceState
	deviceStateDisconnected = 30

	radioTimeout = 10 * time.Second

	wirelessConnectionType = "802-11-wireless"
)

var _ wifiinfo.Platform = &Platform{}

var ErrNoWifiDevice = errors.New("NetworkManager has no wifi device")

// Platform drives NetworkManager over the system bus.
type Platform struct {
	Interface string

	conn    *dbus.Conn
	version *semver.Version
	log     logrus.FieldLogger
	subs    *notify.Subscribers
	signals chan *dbus.Signal
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	devices map[dbus.ObjectPath]string
}

func New(config wifiinfo.ServerConfig, log logrus.FieldLogger) (*Platform, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}

	p := &Platform{
		Interface: config.Interface,
		conn:      conn,
		log:       log.WithField("backend", wifiinfo.BackendNetworkManager),
		subs:      notify.New(),
		signals:   make(chan *dbus.Signal, 16),
		done:      make(chan struct{}),
	}

	v, err := p.nm().GetProperty(busName + ".Version")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading NetworkManager version: %w", err)
	}
	if s, ok := v.Value().(string); ok {
		p.version = parseVersion(s)
		p.log.Infof("NetworkManager %s", s)
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchSender(busName),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to NetworkManager signals: %w", err)
	}
	conn.Signal(p.signals)

	p.wg.Add(1)
	go p.watch()

	return p, nil
}

func (t *Platform) Name() string { return wifiinfo.BackendNetworkManager }

func (t *Platform) nm() dbus.BusObject {
	return t.conn.Object(busName, busPath)
}

func (t *Platform) watch() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case sig, ok := <-t.signals:
			if !ok {
				return
			}
			t.mu.Lock()
			_, ours := t.devices[sig.Path]
			t.mu.Unlock()
			if ours && scanCompleted(sig) {
				t.log.Debugf("Scan completed on %s", sig.Path)
				t.subs.Fire()
			}
		}
	}
}

// scanCompleted matches the LastScan property change NetworkManager
// emits on a wireless device when a scan finishes.
func scanCompleted(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != propertiesIface+".PropertiesChanged" || len(sig.Body) < 2 {
		return false
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != wirelessIface {
		return false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return false
	}
	_, ok = changed["LastScan"]
	return ok
}

// wifiDevices lists wireless devices, restricted to the configured
// interface if there is one.
func (t *Platform) wifiDevices() (map[dbus.ObjectPath]string, error) {
	var paths []dbus.ObjectPath
	if err := t.nm().Call(busName+".GetDevices", 0).Store(&paths); err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	found := map[dbus.ObjectPath]string{}
	for _, path := range paths {
		dev := t.conn.Object(busName, path)
		typ, err := dev.GetProperty(deviceIface + ".DeviceType")
		if err != nil {
			t.log.Warnf("Failed to read type of %s: %s", path, err)
			continue
		}
		if n, ok := typ.Value().(uint32); !ok || n != deviceTypeWifi {
			continue
		}
		name, err := dev.GetProperty(deviceIface + ".Interface")
		if err != nil {
			continue
		}
		s, _ := name.Value().(string)
		if t.Interface != "" && s != t.Interface {
			continue
		}
		found[path] = s
	}

	t.mu.Lock()
	t.devices = found
	t.mu.Unlock()

	if len(found) == 0 {
		return nil, ErrNoWifiDevice
	}
	return found, nil
}

func (t *Platform) IsWiFiConnected(ctx context.Context) (bool, error) {
	v, err := t.nm().GetProperty(busName + ".PrimaryConnectionType")
	if err != nil {
		return false, fmt.Errorf("reading primary connection type: %w", err)
	}
	s, _ := v.Value().(string)
	return s == wirelessConnectionType, nil
}

func (t *Platform) SetWifiEnabled(ctx context.Context, enabled bool) (bool, error) {
	call := t.nm().CallWithContext(ctx, propertiesIface+".Set", 0, busName, "WirelessEnabled", dbus.MakeVariant(enabled))
	if call.Err != nil {
		return false, fmt.Errorf("setting WirelessEnabled=%v: %w", enabled, call.Err)
	}
	return true, nil
}

func (t *Platform) Disconnect(ctx context.Context) (bool, error) {
	devices, err := t.wifiDevices()
	if err != nil {
		return false, err
	}

	ok := true
	for path, name := range devices {
		dev := t.conn.Object(busName, path)
		active, err := dev.GetProperty(deviceIface + ".ActiveConnection")
		if err == nil {
			if p, _ := active.Value().(dbus.ObjectPath); p == "/" {
				continue
			}
		}
		if call := dev.CallWithContext(ctx, deviceIface+".Disconnect", 0); call.Err != nil {
			t.log.Warnf("Failed to disconnect %s: %s", name, call.Err)
			ok = false
		}
	}
	return ok, nil
}

// StartScan is accepted if at least one device took the request.
func (t *Platform) StartScan(ctx context.Context) (bool, error) {
	devices, err := t.wifiDevices()
	if err != nil {
		return false, err
	}

	if err := t.ensureRadio(ctx, devices); err != nil {
		return false, err
	}

	accepted := false
	for path, name := range devices {
		dev := t.conn.Object(busName, path)
		call := dev.CallWithContext(ctx, wirelessIface+".RequestScan", 0, map[string]dbus.Variant{})
		if call.Err != nil {
			t.log.Warnf("Scan request on %s refused: %s", name, call.Err)
			continue
		}
		accepted = true
	}
	return accepted, nil
}

/* ensureRadio turns a disabled radio back on, since a device
 * without one cannot scan. Enabling lets NetworkManager autoconnect
 * again, so each device is disconnected once it is available.
 */
func (t *Platform) ensureRadio(ctx context.Context, devices map[dbus.ObjectPath]string) error {
	v, err := t.nm().GetProperty(busName + ".WirelessEnabled")
	if err != nil {
		return fmt.Errorf("reading WirelessEnabled: %w", err)
	}
	if enabled, _ := v.Value().(bool); enabled {
		return nil
	}

	if _, err := t.SetWifiEnabled(ctx, true); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, radioTimeout)
	defer cancel()

	for path, name := range devices {
		dev := t.conn.Object(busName, path)
		if err := waitAvailable(ctx, dev); err != nil {
			return fmt.Errorf("waiting for %s: %w", name, err)
		}
		if call := dev.CallWithContext(ctx, deviceIface+".Disconnect", 0); call.Err != nil {
			t.log.Debugf("Disconnect on %s after enabling radio: %s", name, call.Err)
		}
	}
	return nil
}

func waitAvailable(ctx context.Context, dev dbus.BusObject) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		v, err := dev.GetProperty(deviceIface + ".State")
		if err != nil {
			return err
		}
		if state, _ := v.Value().(uint32); state >= deviceStateDisconnected {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Platform) ScanResults(ctx context.Context) ([]wifiinfo.ScanRecord, error) {
	devices, err := t.wifiDevices()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	uptime := bootClock()

	records := []wifiinfo.ScanRecord{}
	for path, name := range devices {
		var aps []dbus.ObjectPath
		dev := t.conn.Object(busName, path)
		if err := dev.CallWithContext(ctx, wirelessIface+".GetAllAccessPoints", 0).Store(&aps); err != nil {
			return nil, fmt.Errorf("listing access points on %s: %w", name, err)
		}

		for _, ap := range aps {
			props := map[string]dbus.Variant{}
			obj := t.conn.Object(busName, ap)
			if err := obj.CallWithContext(ctx, propertiesIface+".GetAll", 0, accessPointProp).Store(&props); err != nil {
				// access points come and go between the two calls
				t.log.Debugf("Skipping %s: %s", ap, err)
				continue
			}
			records = append(records, recordFromAccessPoint(props, name, t.version, now, uptime))
		}
	}
	return records, nil
}

func (t *Platform) Subscribe(fn func()) (func(), error) {
	// devices must be known before their signals can be matched
	if _, err := t.wifiDevices(); err != nil {
		return nil, err
	}
	return t.subs.Add(fn), nil
}

func (t *Platform) Check(ctx context.Context, p wifiinfo.Permission) (wifiinfo.PermissionState, error) {
	if p == wifiinfo.PermissionFineLocation {
		return wifiinfo.PermissionGranted, nil
	}

	results := map[string]string{}
	if err := t.nm().CallWithContext(ctx, busName+".GetPermissions", 0).Store(&results); err != nil {
		return wifiinfo.PermissionDenied, fmt.Errorf("reading NetworkManager permissions: %w", err)
	}
	return stateFromPolkit(results, p), nil
}

func (t *Platform) Close() error {
	close(t.done)
	t.conn.RemoveSignal(t.signals)
	t.wg.Wait()
	return t.conn.Close()
}
