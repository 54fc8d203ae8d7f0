package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/conductor"
	"github.com/dogeorg/wifiinfo/pkg/permission"
	"github.com/dogeorg/wifiinfo/pkg/scan"
	"github.com/dogeorg/wifiinfo/pkg/system/network"
	"github.com/sirupsen/logrus"
)

// errStopped is returned when a signal ends a scan early.
var errStopped = errors.New("interrupted")

// local is everything needed to scan on this host.
type local struct {
	config   wifiinfo.ServerConfig
	log      *logrus.Logger
	platform wifiinfo.Platform
	consent  *permission.ConsentStore
	gate     *permission.Gate
	wi       wifiinfo.WifiInfo
}

// newLocal wires the platform backend, the consent store and the
// scan workflow together. The caller must Close it.
func newLocal(ctx context.Context, config wifiinfo.ServerConfig, prompter permission.Prompter, ui permission.UI) (*local, error) {
	log := wifiinfo.NewLogger(config.Verbose)

	platform, err := network.NewPlatform(ctx, config, log)
	if err != nil {
		return nil, err
	}
	log.WithField("backend", platform.Name()).Debug("platform ready")

	consent := permission.NewConsentStore(config.DataDir, prompter, log)
	gate := permission.NewGate(permission.Combine(consent, platform), consent, consent, ui, log)

	presenter := scan.NewPresenter()
	trigger := scan.NewTrigger(platform, platform, config.ScanTimeout, log)
	listener := scan.NewListener(platform, presenter, trigger, log)

	return &local{
		config:   config,
		log:      log,
		platform: platform,
		consent:  consent,
		gate:     gate,
		wi:       wifiinfo.NewWifiInfo(gate, trigger, listener, presenter, log),
	}, nil
}

func (l *local) Close() error {
	return l.platform.Close()
}

func (l *local) conductor() *conductor.Conductor {
	if l.config.Verbose {
		return conductor.NewConductor(
			conductor.HookSignals(),
			conductor.Noisy(),
			conductor.WithLogger(l.log),
		)
	}
	return conductor.NewConductor(
		conductor.HookSignals(),
		conductor.WithLogger(l.log),
	)
}

func (l *local) requestScan() {
	go l.wi.AddAction(wifiinfo.StartScan{})
}

/* scan runs the WifiInfo service for the duration of one scan, or
 * until interrupted when watch is set. Every result set delivered
 * while it runs is handed to show. In watch mode a new scan is asked
 * for every interval after the previous results arrived.
 */
func (l *local) scan(watch bool, interval time.Duration, show func([]wifiinfo.ScanRecord) error) error {
	c := l.conductor()
	c.Service("WifiInfo", l.wi)
	done := c.Start()
	defer func() {
		c.Stop()
		<-done
	}()

	timeout := l.config.ScanTimeout
	if timeout <= 0 {
		timeout = wifiinfo.DefaultScanTimeout
	}

	var deadline <-chan time.Time
	var next <-chan time.Time
	l.requestScan()

	for {
		select {
		case <-done:
			return errStopped

		case <-next:
			next = nil
			l.requestScan()

		case <-deadline:
			return fmt.Errorf("no scan results after %s", timeout)

		case change := <-l.wi.Changes:
			switch change.Type {
			case "action":
				if change.Error != "" {
					return errors.New(change.Error)
				}
				// the platform accepted the scan, results are on the way
				deadline = time.After(timeout)

			case "scan":
				update, ok := change.Update.(wifiinfo.ScanUpdate)
				if !ok {
					continue
				}
				deadline = nil
				if err := show(update.Results); err != nil {
					return err
				}
				if !watch {
					return nil
				}
				if next == nil {
					next = time.After(interval)
				}
			}
		}
	}
}
