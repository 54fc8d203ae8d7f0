package scan

import (
	"strings"
	"sync"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
)

var _ wifiinfo.ResultPresenter = &Presenter{}

// Presenter holds the latest result set. Every SetData replaces
// the set wholesale; results from different scans are never mixed.
type Presenter struct {
	mu        sync.RWMutex
	data      []wifiinfo.ScanRecord
	observers map[int]func([]wifiinfo.ScanRecord)
	next      int
}

func NewPresenter() *Presenter {
	return &Presenter{observers: map[int]func([]wifiinfo.ScanRecord){}}
}

func (p *Presenter) SetData(records []wifiinfo.ScanRecord) {
	data := make([]wifiinfo.ScanRecord, len(records))
	copy(data, records)

	p.mu.Lock()
	p.data = data
	observers := make([]func([]wifiinfo.ScanRecord), 0, len(p.observers))
	for _, fn := range p.observers {
		observers = append(observers, fn)
	}
	p.mu.Unlock()

	for _, fn := range observers {
		fn(p.Results())
	}
}

func (p *Presenter) Clear() {
	p.SetData(nil)
}

func (p *Presenter) Results() []wifiinfo.ScanRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]wifiinfo.ScanRecord, len(p.data))
	copy(out, p.data)
	return out
}

func (p *Presenter) Find(bssid string) (wifiinfo.ScanRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, r := range p.data {
		if strings.EqualFold(r.BSSID, bssid) {
			return r, true
		}
	}
	return wifiinfo.ScanRecord{}, false
}

func (p *Presenter) OnChange(fn func([]wifiinfo.ScanRecord)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.observers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers, id)
	}
}
