package wifiinfo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/scan"
	"github.com/dogeorg/wifiinfo/pkg/scan/scantest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateFunc func(ctx context.Context) error

func (f gateFunc) Ensure(ctx context.Context) error { return f(ctx) }

func allow(context.Context) error { return nil }

type harness struct {
	platform  *scantest.Platform
	presenter *scan.Presenter
	listener  *scan.Listener
	w         wifiinfo.WifiInfo
	stop      chan context.Context
	stopped   chan bool
}

func start(t *testing.T, gate wifiinfo.PermissionGate) *harness {
	log, _ := test.NewNullLogger()
	p := scantest.NewPlatform()
	presenter := scan.NewPresenter()
	trigger := scan.NewTrigger(p, p, time.Minute, log)
	listener := scan.NewListener(p, presenter, trigger, log)

	h := &harness{
		platform:  p,
		presenter: presenter,
		listener:  listener,
		w:         wifiinfo.NewWifiInfo(gate, trigger, listener, presenter, log),
		stop:      make(chan context.Context),
		stopped:   make(chan bool, 1),
	}

	started := make(chan bool, 1)
	require.NoError(t, h.w.Run(started, h.stopped, h.stop))
	<-started
	return h
}

func (h *harness) shutdown(t *testing.T) {
	close(h.stop)
	select {
	case <-h.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("WifiInfo did not stop")
	}
}

func nextChange(t *testing.T, w wifiinfo.WifiInfo) wifiinfo.Change {
	select {
	case c := <-w.Changes:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no change published")
	}
	return wifiinfo.Change{}
}

func TestScanJobPublishesResults(t *testing.T) {
	h := start(t, gateFunc(allow))
	defer h.shutdown(t)

	id := h.w.AddAction(wifiinfo.StartScan{})
	c := nextChange(t, h.w)
	assert.Equal(t, id, c.ID)
	assert.Empty(t, c.Error)
	assert.Equal(t, map[string]bool{"scanning": true}, c.Update)

	go h.platform.Complete(scantest.Record("HomeNet", "aa:bb:cc:dd:ee:ff", -50, 2437))

	c = nextChange(t, h.w)
	assert.Equal(t, "scan", c.Type)
	update, ok := c.Update.(wifiinfo.ScanUpdate)
	require.True(t, ok)
	require.Len(t, update.Results, 1)
	assert.Equal(t, "HomeNet", update.Results[0].SSID)
	assert.Len(t, h.presenter.Results(), 1)
}

func TestScanJobRefusedByGate(t *testing.T) {
	h := start(t, gateFunc(func(context.Context) error { return errors.New("permission denied") }))
	defer h.shutdown(t)

	id := h.w.AddAction(wifiinfo.StartScan{})
	c := nextChange(t, h.w)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, "permission denied", c.Error)
	assert.Empty(t, h.platform.CallLog(), "a refused scan must not touch the radio")
}

func TestSecondScanWhileInFlight(t *testing.T) {
	h := start(t, gateFunc(allow))
	defer h.shutdown(t)

	h.w.AddAction(wifiinfo.StartScan{})
	nextChange(t, h.w)

	h.w.AddAction(wifiinfo.StartScan{})
	c := nextChange(t, h.w)
	assert.Equal(t, scan.ErrScanInProgress.Error(), c.Error)
}

func TestClearResults(t *testing.T) {
	h := start(t, gateFunc(allow))
	defer h.shutdown(t)

	h.presenter.SetData([]wifiinfo.ScanRecord{scantest.Record("a", "00:00:00:00:00:01", -40, 2412)})
	nextChange(t, h.w)

	id := h.w.AddAction(wifiinfo.ClearResults{})

	// clearing replaces the set too, so both arrive in some order
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		c := nextChange(t, h.w)
		seen[c.Type] = true
		if c.Type == "action" {
			assert.Equal(t, id, c.ID)
		}
	}
	assert.True(t, seen["action"])
	assert.True(t, seen["scan"])
	assert.Empty(t, h.presenter.Results())
}

func TestRegistrationFollowsService(t *testing.T) {
	h := start(t, gateFunc(allow))
	assert.True(t, h.listener.Registered())
	assert.Equal(t, 1, h.platform.Subscribers())

	h.shutdown(t)
	assert.False(t, h.listener.Registered())
	assert.Equal(t, 0, h.platform.Subscribers())
}

// The conductor delivers stop until it hears stopped, so one delivery
// must be enough to end the dispatcher as well.
func TestSingleStopEndsDispatcher(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := start(t, gateFunc(allow))

		h.stop <- context.Background()
		select {
		case <-h.stopped:
		case <-time.After(2 * time.Second):
			t.Fatal("WifiInfo did not stop")
		}

		accepted := make(chan string, 1)
		go func() { accepted <- h.w.AddAction(wifiinfo.ClearResults{}) }()
		select {
		case <-accepted:
			t.Fatal("dispatcher still accepting jobs after stop")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
