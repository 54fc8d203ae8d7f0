package network_connector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
	out   []byte
	err   error
}

func (r *recorder) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	return r.out, r.err
}

func TestIWController(t *testing.T) {
	r := &recorder{}
	c := IWController{Run: r.run}

	require.NoError(t, c.SetEnabled(context.Background(), "wlan0", false))
	require.NoError(t, c.SetEnabled(context.Background(), "wlan0", true))
	require.NoError(t, c.Disconnect(context.Background(), "wlan0"))

	assert.Equal(t, []string{
		"ip link set dev wlan0 down",
		"ip link set dev wlan0 up",
		"iw dev wlan0 disconnect",
	}, r.calls)
}

func TestIWControllerPropagatesErrors(t *testing.T) {
	r := &recorder{err: errors.New("operation not permitted")}
	c := IWController{Run: r.run}
	assert.Error(t, c.Disconnect(context.Background(), "wlan0"))
}

func TestWPASupplicantDisconnect(t *testing.T) {
	r := &recorder{out: []byte("OK\n")}
	c := WPASupplicantController{IWController{Run: r.run}}

	require.NoError(t, c.Disconnect(context.Background(), "wlan0"))
	assert.Equal(t, []string{"wpa_cli -i wlan0 disconnect"}, r.calls)

	r.out = []byte("FAIL\n")
	assert.Error(t, c.Disconnect(context.Background(), "wlan0"))
}

func TestNewControllerWithoutSupplicant(t *testing.T) {
	old := WPASupplicantRunDir
	WPASupplicantRunDir = t.TempDir()
	defer func() { WPASupplicantRunDir = old }()

	c := NewController("wlan0", nil)
	assert.Equal(t, "iw", c.Name())
}

func TestNewControllerEmptyInterface(t *testing.T) {
	old := WPASupplicantRunDir
	WPASupplicantRunDir = t.TempDir()
	defer func() { WPASupplicantRunDir = old }()

	// a control socket exists, but there is no interface to match it
	require.NoError(t, os.WriteFile(filepath.Join(WPASupplicantRunDir, "wlan0"), nil, 0600))
	assert.Equal(t, "iw", NewController("", nil).Name())
}
