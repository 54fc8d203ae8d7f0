package scan

import (
	"context"
	"sync"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/sirupsen/logrus"
)

var _ wifiinfo.ScanListener = &Listener{}

/* Listener owns the single "scan results available" registration.
 * Register when results should be shown, Unregister when they no
 * longer are. Each time it fires it reads the complete result set
 * and hands it to the presenter in place of the previous one.
 */
type Listener struct {
	wifi      wifiinfo.WifiManager
	presenter wifiinfo.ResultPresenter
	trigger   wifiinfo.ScanTrigger
	log       logrus.FieldLogger

	mu          sync.Mutex
	unsubscribe func()
}

// trigger may be nil; when set it is told each scan has finished.
func NewListener(wifi wifiinfo.WifiManager, presenter wifiinfo.ResultPresenter, trigger wifiinfo.ScanTrigger, log logrus.FieldLogger) *Listener {
	return &Listener{
		wifi:      wifi,
		presenter: presenter,
		trigger:   trigger,
		log:       log.WithField("component", "scan-listener"),
	}
}

func (l *Listener) Register() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unsubscribe != nil {
		return nil
	}
	unsubscribe, err := l.wifi.Subscribe(l.onResults)
	if err != nil {
		return err
	}
	l.unsubscribe = unsubscribe
	return nil
}

func (l *Listener) Unregister() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unsubscribe == nil {
		return
	}
	l.unsubscribe()
	l.unsubscribe = nil
}

func (l *Listener) Registered() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unsubscribe != nil
}

func (l *Listener) onResults() {
	if !l.Registered() {
		return
	}
	l.log.Debug("WiFi scan results available")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if l.trigger != nil {
		defer l.trigger.Done()
	}

	records, err := l.wifi.ScanResults(ctx)
	if err != nil {
		l.log.WithError(err).Warn("failed to read scan results")
		return
	}
	l.log.WithField("count", len(records)).Info("scan results received")
	l.presenter.SetData(records)
}
