package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/permission"
	"github.com/dogeorg/wifiinfo/pkg/scan"
	"github.com/dogeorg/wifiinfo/pkg/scan/scantest"
	"github.com/dogeorg/wifiinfo/pkg/web"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T, p *scantest.Platform) *local {
	log, _ := test.NewNullLogger()
	config := wifiinfo.ServerConfig{DataDir: t.TempDir(), ScanTimeout: 2 * time.Second}

	consent := permission.NewConsentStore(config.DataDir, permission.DenyPrompter{}, log)
	for _, perm := range wifiinfo.AllPermissions {
		require.NoError(t, consent.Set(perm, wifiinfo.PermissionGranted))
	}
	gate := permission.NewGate(permission.Combine(consent, p), consent, consent, permission.HeadlessUI{}, log)

	presenter := scan.NewPresenter()
	trigger := scan.NewTrigger(p, p, config.ScanTimeout, log)
	listener := scan.NewListener(p, presenter, trigger, log)

	return &local{
		config:   config,
		log:      log,
		platform: p,
		consent:  consent,
		gate:     gate,
		wi:       wifiinfo.NewWifiInfo(gate, trigger, listener, presenter, log),
	}
}

func scanRequested(p *scantest.Platform) func() bool {
	return func() bool {
		for _, c := range p.CallLog() {
			if c == "StartScan" {
				return true
			}
		}
		return false
	}
}

func TestLocalScanShowsOneResultSet(t *testing.T) {
	p := scantest.NewPlatform()
	l := newTestLocal(t, p)

	shown := make(chan []wifiinfo.ScanRecord, 1)
	done := make(chan error, 1)
	go func() {
		done <- l.scan(false, 0, func(records []wifiinfo.ScanRecord) error {
			shown <- records
			return nil
		})
	}()

	require.Eventually(t, scanRequested(p), 2*time.Second, 10*time.Millisecond)
	p.Complete(scantest.Record("home", "aa:bb:cc:dd:ee:01", -40, 2412))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("scan did not return")
	}

	records := <-shown
	require.Len(t, records, 1)
	assert.Equal(t, "home", records[0].SSID)

	r, ok := l.wi.Results.Find("AA:BB:CC:DD:EE:01")
	assert.True(t, ok)
	assert.Equal(t, -40, r.Level)
	assert.Equal(t, 0, p.Subscribers())
}

func TestLocalScanReportsRejection(t *testing.T) {
	p := scantest.NewPlatform()
	p.ScanOK = false
	l := newTestLocal(t, p)

	err := l.scan(false, 0, func([]wifiinfo.ScanRecord) error {
		t.Fatal("nothing should be shown")
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), scan.ErrScanRejected.Error())
}

func TestLocalScanRefusedWithoutConsent(t *testing.T) {
	p := scantest.NewPlatform()
	l := newTestLocal(t, p)
	require.NoError(t, l.consent.Set(wifiinfo.PermissionFineLocation, wifiinfo.PermissionPermanentlyDenied))

	err := l.scan(false, 0, func([]wifiinfo.ScanRecord) error { return nil })
	require.Error(t, err)
	assert.Equal(t, permission.ErrPermanentlyDenied.Error(), err.Error())
	assert.False(t, scanRequested(p)())
}

func TestByLevelSortsStrongestFirst(t *testing.T) {
	records := []wifiinfo.ScanRecord{
		scantest.Record("b", "02", -70, 2412),
		scantest.Record("c", "03", -40, 5180),
		scantest.Record("a", "01", -70, 2437),
	}
	sorted := byLevel(records)

	assert.Equal(t, []string{"c", "a", "b"}, []string{sorted[0].SSID, sorted[1].SSID, sorted[2].SSID})
	assert.Equal(t, "b", records[0].SSID, "input must not be reordered")
}

func TestWriteTable(t *testing.T) {
	now := time.Now()
	seen := now.Add(-90 * time.Second)
	ch := 1
	hidden := scantest.Record("", "aa:aa:aa:aa:aa:02", -80, 2412)
	home := scantest.Record("home", "aa:aa:aa:aa:aa:01", -50, 2412)
	home.Channel = &ch
	home.LastSeen = &seen
	home.Capabilities = "[WPA2-PSK-CCMP][ESS]"

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []wifiinfo.ScanRecord{hidden, home}, now))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SSID"))
	assert.True(t, strings.HasPrefix(lines[1], "home"))
	assert.Contains(t, lines[1], "[WPA2-PSK-CCMP][ESS]")
	assert.Contains(t, lines[1], "00:01:30")
	assert.True(t, strings.HasPrefix(lines[2], "Hidden SSID"))
	assert.Contains(t, lines[2], "N/A")
	assert.Equal(t, "2 access points", lines[3])
}

func TestWritePermissions(t *testing.T) {
	res := web.PermissionsResponse{
		Permissions: permission.States{
			wifiinfo.PermissionFineLocation:    wifiinfo.PermissionPermanentlyDenied,
			wifiinfo.PermissionChangeWifiState: wifiinfo.PermissionGranted,
			wifiinfo.PermissionAccessWifiState: wifiinfo.PermissionGranted,
		},
		Decision: permission.Decision{
			Action:      permission.ShowSettings,
			Permissions: []wifiinfo.Permission{wifiinfo.PermissionFineLocation},
		},
		Hints: map[wifiinfo.Permission]string{
			wifiinfo.PermissionFineLocation: "reset location.fine",
		},
	}

	var buf bytes.Buffer
	writePermissions(&buf, res, nil, nil)
	out := buf.String()
	assert.Contains(t, out, "location.fine")
	assert.Contains(t, out, "permanently-denied")
	assert.Contains(t, out, "reset location.fine")
	assert.NotContains(t, out, "CONSENT")

	buf.Reset()
	res.Decision = permission.Decision{Action: permission.Proceed}
	writePermissions(&buf, res, res.Permissions, res.Permissions)
	assert.Contains(t, buf.String(), "CONSENT")
	assert.Contains(t, buf.String(), "Ready to scan.")
}
