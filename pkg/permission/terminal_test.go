package permission

import (
	"bytes"
	"context"
	"strings"
	"testing"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalPrompt(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("y\nn\nN\n\n"), &out, "/tmp/consent.gob")
	ctx := context.Background()

	for _, want := range []Answer{AnswerAllow, AnswerDeny, AnswerNever, AnswerDeny} {
		got, err := term.Prompt(ctx, loc)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Contains(t, out.String(), "precise location")
}

func TestTerminalRationaleAndSettings(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("\nn\n"), &out, "/tmp/consent.gob")
	ctx := context.Background()

	ok, err := term.LocationRationale(ctx, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "[Open settings]")

	ok, err = term.WiFiDenied(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, term.OpenSettings(ctx, []wifiinfo.Permission{loc, change}))
	assert.Contains(t, out.String(), "wifiinfo permissions reset location.fine")
	assert.Contains(t, out.String(), "CAP_NET_ADMIN")
}
