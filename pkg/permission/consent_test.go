package permission

import (
	"context"
	"sync"
	"testing"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsentStoreDefaultsToDenied(t *testing.T) {
	store := NewConsentStore(t.TempDir(), DenyPrompter{}, logrus.New())

	state, err := store.Check(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, denied, state)
	assert.False(t, store.Asked(loc))
}

func TestConsentStoreRequestPersists(t *testing.T) {
	dir := t.TempDir()
	prompter := &scriptedPrompter{answers: []Answer{AnswerAllow, AnswerNever, AnswerDeny}}
	store := NewConsentStore(dir, prompter, logrus.New())

	res, err := store.Request(context.Background(), loc, change, access)
	require.NoError(t, err)
	assert.Equal(t, []wifiinfo.Permission{loc}, res.Accepted)
	assert.Equal(t, []wifiinfo.Permission{change}, res.ForeverDenied)
	assert.Equal(t, []wifiinfo.Permission{access}, res.Denied)

	reopened := NewConsentStore(dir, DenyPrompter{}, logrus.New())
	all, err := reopened.List()
	require.NoError(t, err)
	assert.Equal(t, granted, all[loc].State)
	assert.Equal(t, never, all[change].State)
	assert.Equal(t, denied, all[access].State)
	assert.Equal(t, 1, all[access].Asked)
	assert.True(t, reopened.Asked(access))
}

func TestConsentStoreDoesNotPromptSettledPermissions(t *testing.T) {
	prompter := &scriptedPrompter{}
	store := NewConsentStore(t.TempDir(), prompter, logrus.New())
	require.NoError(t, store.Set(loc, granted))
	require.NoError(t, store.Set(change, never))

	res, err := store.Request(context.Background(), loc, change)
	require.NoError(t, err)
	assert.Empty(t, prompter.asked)
	assert.Equal(t, []wifiinfo.Permission{loc}, res.Accepted)
	assert.Equal(t, []wifiinfo.Permission{change}, res.ForeverDenied)
}

func TestConsentStoreReset(t *testing.T) {
	store := NewConsentStore(t.TempDir(), DenyPrompter{}, logrus.New())
	require.NoError(t, store.Set(loc, never))
	require.NoError(t, store.Reset(loc))

	state, err := store.Check(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, denied, state)
	assert.False(t, store.Asked(loc))
}

// a settings change made while the user is being prompted must survive
type settingPrompter struct {
	store *ConsentStore
}

func (s settingPrompter) Prompt(ctx context.Context, p wifiinfo.Permission) (Answer, error) {
	if err := s.store.Set(access, granted); err != nil {
		return AnswerDeny, err
	}
	return AnswerAllow, nil
}

func TestConsentStoreRequestKeepsConcurrentSet(t *testing.T) {
	prompter := &settingPrompter{}
	store := NewConsentStore(t.TempDir(), prompter, logrus.New())
	prompter.store = store

	res, err := store.Request(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, []wifiinfo.Permission{loc}, res.Accepted)

	all, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, granted, all[loc].State)
	assert.Equal(t, granted, all[access].State)
}

func TestConsentStoreConcurrentSets(t *testing.T) {
	store := NewConsentStore(t.TempDir(), DenyPrompter{}, logrus.New())

	var wg sync.WaitGroup
	for _, p := range wifiinfo.AllPermissions {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(p wifiinfo.Permission) {
				defer wg.Done()
				assert.NoError(t, store.Set(p, granted))
			}(p)
		}
	}
	wg.Wait()

	all, err := store.List()
	require.NoError(t, err)
	for _, p := range wifiinfo.AllPermissions {
		assert.Equal(t, granted, all[p].State, "%s lost", p)
	}
}
