// File: internal/session/manager_test.go
package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
)

func TestEnsureAuthenticatedReplay(t *testing.T) {
	browser := &fakeBrowser{probeText: "我"}
	store := &fakeStore{cookies: []schemas.Cookie{
		{Name: "web_session", Value: "persisted", Domain: ".xiaohongshu.com"},
	}}
	m := NewManager(browser, store, newTestConfig(), zap.NewNop())

	state, err := m.EnsureAuthenticated(context.Background(), time.Minute)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.IsAuthenticated)
	assert.NotEmpty(t, state.Cookies)
	assert.Equal(t, 1, store.saveCount(), "verified cookies should be re-persisted")

	// Re-validation walks replay+probe again and must never reach the
	// login dialog while the persisted session is still good.
	_, err = m.EnsureAuthenticated(context.Background(), time.Minute)
	require.NoError(t, err)

	for _, fc := range browser.contexts {
		for _, pg := range fc.pages {
			assert.NotContains(t, pg.stages(), "login dialog")
			assert.NotContains(t, pg.stages(), "qr code")
		}
	}

	// One context per call; the second adoption releases the first. Every
	// page is closed once its workflow ends.
	openCtx, openPages := browser.openCloseBalance()
	assert.Equal(t, 1, openCtx, "only the adopted context stays open")
	assert.Equal(t, 0, openPages)

	require.NoError(t, m.Close(context.Background()))
}

func TestEnsureAuthenticatedQrLogin(t *testing.T) {
	browser := &fakeBrowser{probeText: "我"}
	store := &fakeStore{}
	m := NewManager(browser, store, newTestConfig(), zap.NewNop())

	state, err := m.EnsureAuthenticated(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, 1, store.saveCount())

	require.Len(t, browser.contexts, 1)
	require.Len(t, browser.contexts[0].pages, 1)
	stages := browser.contexts[0].pages[0].stages()
	assert.Equal(t, []string{"login dialog", "qr code"}, stages,
		"manual login waits on the dialog, then the rendered QR image")

	require.NoError(t, m.Close(context.Background()))
}

func TestEnsureAuthenticatedRejectedReplayFallsBackToQr(t *testing.T) {
	browser := &fakeBrowser{probeText: ""}
	store := &fakeStore{cookies: []schemas.Cookie{
		{Name: "web_session", Value: "stale", Domain: ".xiaohongshu.com"},
	}}
	m := NewManager(browser, store, newTestConfig(), zap.NewNop())

	// Simulate the human scanning the QR code shortly after it appears.
	go func() {
		time.Sleep(300 * time.Millisecond)
		browser.setProbeText("我")
	}()

	state, err := m.EnsureAuthenticated(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, state.IsAuthenticated)

	var sawDialog bool
	for _, fc := range browser.contexts {
		for _, pg := range fc.pages {
			for _, stage := range pg.stages() {
				if stage == "login dialog" {
					sawDialog = true
				}
			}
		}
	}
	assert.True(t, sawDialog, "a rejected replay must escalate to manual login")

	require.NoError(t, m.Close(context.Background()))
}

func TestEnsureAuthenticatedAttemptCeiling(t *testing.T) {
	browser := &fakeBrowser{newCtxErr: errors.New("browser gone")}
	m := NewManager(browser, &fakeStore{}, newTestConfig(), zap.NewNop())

	_, err := m.EnsureAuthenticated(context.Background(), time.Minute)
	require.Error(t, err)

	var loginErr *schemas.LoginFailedError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, 3, loginErr.Attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "browser gone")
}

func TestEnsureAuthenticatedConfiguredAttemptCeiling(t *testing.T) {
	browser := &fakeBrowser{newCtxErr: errors.New("browser gone")}
	cfg := newTestConfig()
	cfg.Session.MaxLoginAttempts = 5
	m := NewManager(browser, &fakeStore{}, cfg, zap.NewNop())

	_, err := m.EnsureAuthenticated(context.Background(), time.Minute)
	require.Error(t, err)

	var loginErr *schemas.LoginFailedError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, 5, loginErr.Attempts)
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestEnsureAuthenticatedHonorsCancellation(t *testing.T) {
	browser := &fakeBrowser{newCtxErr: errors.New("browser gone")}
	cfg := newTestConfig()
	cfg.Session.RetryBackoff = time.Minute
	m := NewManager(browser, &fakeStore{}, cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := m.EnsureAuthenticated(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second,
		"cancellation must cut the inter-attempt backoff short")
}

func TestPageWithoutSession(t *testing.T) {
	m := NewManager(&fakeBrowser{}, &fakeStore{}, newTestConfig(), zap.NewNop())

	_, err := m.Page(context.Background())
	var notAuthed *schemas.NotAuthenticatedError
	require.ErrorAs(t, err, &notAuthed)
}

func TestCloseReleasesEverything(t *testing.T) {
	browser := &fakeBrowser{probeText: "我"}
	store := &fakeStore{cookies: []schemas.Cookie{
		{Name: "web_session", Value: "persisted", Domain: ".xiaohongshu.com"},
	}}
	m := NewManager(browser, store, newTestConfig(), zap.NewNop())

	_, err := m.EnsureAuthenticated(context.Background(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background()))

	openCtx, openPages := browser.openCloseBalance()
	assert.Equal(t, 0, openCtx)
	assert.Equal(t, 0, openPages)
	assert.Equal(t, 1, browser.closed, "the browser process is terminated exactly once")
	assert.Nil(t, m.State())
}

func TestFilterDomain(t *testing.T) {
	cookies := []schemas.Cookie{
		{Name: "a", Domain: ".xiaohongshu.com"},
		{Name: "b", Domain: "www.xiaohongshu.com"},
		{Name: "c", Domain: "xiaohongshu.com"},
		{Name: "d", Domain: ".evil.com"},
		{Name: "e", Domain: "notxiaohongshu.com"},
	}

	kept := filterDomain(cookies, "xiaohongshu.com")
	names := make([]string, 0, len(kept))
	for _, c := range kept {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestFilterDomainEmptyDomainKeepsAll(t *testing.T) {
	cookies := []schemas.Cookie{{Name: "a", Domain: "anything.example"}}
	assert.Len(t, filterDomain(cookies, ""), 1)
}
