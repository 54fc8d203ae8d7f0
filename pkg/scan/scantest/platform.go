// Package scantest provides an in-memory platform for tests.
package scantest

import (
	"context"
	"sync"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

var _ wifiinfo.Platform = &Platform{}

// Platform records every call made to it. Scans complete only
// when the test calls Complete, like a real asynchronous scan.
type Platform struct {
	mu          sync.Mutex
	Calls       []string
	Connected   bool
	ScanOK      bool
	ScanErr     error
	Records     []wifiinfo.ScanRecord
	States      map[wifiinfo.Permission]wifiinfo.PermissionState
	subscribers map[int]func()
	next        int
}

func NewPlatform() *Platform {
	return &Platform{
		ScanOK:      true,
		subscribers: map[int]func(){},
		States: map[wifiinfo.Permission]wifiinfo.PermissionState{
			wifiinfo.PermissionFineLocation:    wifiinfo.PermissionGranted,
			wifiinfo.PermissionChangeWifiState: wifiinfo.PermissionGranted,
			wifiinfo.PermissionAccessWifiState: wifiinfo.PermissionGranted,
		},
	}
}

func (p *Platform) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, call)
}

func (p *Platform) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.Calls...)
}

func (p *Platform) Name() string { return "fake" }

func (p *Platform) IsWiFiConnected(ctx context.Context) (bool, error) {
	p.record("IsWiFiConnected")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Connected, nil
}

func (p *Platform) SetWifiEnabled(ctx context.Context, enabled bool) (bool, error) {
	if enabled {
		p.record("SetWifiEnabled(true)")
	} else {
		p.record("SetWifiEnabled(false)")
	}
	return true, nil
}

func (p *Platform) Disconnect(ctx context.Context) (bool, error) {
	p.record("Disconnect")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Connected = false
	return true, nil
}

func (p *Platform) StartScan(ctx context.Context) (bool, error) {
	p.record("StartScan")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ScanOK, p.ScanErr
}

func (p *Platform) ScanResults(ctx context.Context) ([]wifiinfo.ScanRecord, error) {
	p.record("ScanResults")
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]wifiinfo.ScanRecord{}, p.Records...), nil
}

func (p *Platform) Subscribe(fn func()) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.subscribers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}, nil
}

func (p *Platform) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// Complete finishes a scan with the given records and fires
// every results-available subscriber.
func (p *Platform) Complete(records ...wifiinfo.ScanRecord) {
	p.mu.Lock()
	p.Records = records
	subs := make([]func(), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	p.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (p *Platform) Check(ctx context.Context, perm wifiinfo.Permission) (wifiinfo.PermissionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.States[perm], nil
}

func (p *Platform) Close() error { return nil }

// Record builds a minimal scan record.
func Record(ssid, bssid string, level, freq int) wifiinfo.ScanRecord {
	return wifiinfo.ScanRecord{SSID: ssid, BSSID: bssid, Level: level, Frequency: freq}
}
