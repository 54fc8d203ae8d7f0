package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/sirupsen/logrus"
)

var (
	ErrScanInProgress = errors.New("scan already in progress")
	ErrScanRejected   = errors.New("platform rejected scan request")
)

var _ wifiinfo.ScanTrigger = &Trigger{}

/* Trigger issues scan requests to the platform.
 *
 * It is single-flight: while a scan is outstanding, further
 * requests are refused with ErrScanInProgress rather than queued.
 * A scan stops being outstanding when Done is called (results
 * arrived) or after the timeout, since a failed platform scan
 * never reports back.
 */
type Trigger struct {
	wifi    wifiinfo.WifiManager
	conn    wifiinfo.ConnectivityManager
	log     logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	inFlight bool
	since    time.Time
}

func NewTrigger(wifi wifiinfo.WifiManager, conn wifiinfo.ConnectivityManager, timeout time.Duration, log logrus.FieldLogger) *Trigger {
	if timeout <= 0 {
		timeout = wifiinfo.DefaultScanTimeout
	}
	return &Trigger{
		wifi:    wifi,
		conn:    conn,
		log:     log.WithField("component", "scan-trigger"),
		timeout: timeout,
		now:     time.Now,
	}
}

// Scan disconnects from any WiFi network, then asks for exactly
// one scan. The disconnect outcome is logged, never acted on.
func (t *Trigger) Scan(ctx context.Context) error {
	if !t.begin() {
		return ErrScanInProgress
	}

	connected, err := t.conn.IsWiFiConnected(ctx)
	if err != nil {
		t.log.WithError(err).Warn("could not determine connectivity")
	}
	if connected {
		t.log.Info("WiFi connected, disabling radio before scan")
		disabled, errDisable := t.wifi.SetWifiEnabled(ctx, false)
		disconnected, errDisconnect := t.wifi.Disconnect(ctx)
		t.log.WithFields(logrus.Fields{
			"disabled":      disabled,
			"disableErr":    errDisable,
			"disconnected":  disconnected,
			"disconnectErr": errDisconnect,
		}).Info("WiFi disconnect called")
	}

	t.log.Info("scanning started")
	ok, err := t.wifi.StartScan(ctx)
	if err != nil {
		t.Done()
		return fmt.Errorf("requesting scan: %w", err)
	}
	if !ok {
		t.Done()
		return ErrScanRejected
	}
	return nil
}

func (t *Trigger) begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if t.inFlight && now.Sub(t.since) < t.timeout {
		return false
	}
	t.inFlight = true
	t.since = now
	return true
}

// Done marks the outstanding scan as finished.
func (t *Trigger) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight = false
}

func (t *Trigger) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight && t.now().Sub(t.since) < t.timeout
}
