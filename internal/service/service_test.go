// File: internal/service/service_test.go
package service

import (
	"context"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
	"github.com/veiloak/rednote-cli/internal/config"
)

// fakeExtractor records the timeout each call receives.
type fakeExtractor struct {
	lastTimeout time.Duration
	closed      bool
}

func (f *fakeExtractor) EnsureSession(_ context.Context, timeout time.Duration) (*schemas.SessionState, error) {
	f.lastTimeout = timeout
	return &schemas.SessionState{IsAuthenticated: true}, nil
}

func (f *fakeExtractor) Search(_ context.Context, _ string, _ int, timeout time.Duration) ([]schemas.Note, error) {
	f.lastTimeout = timeout
	return []schemas.Note{{Title: "一个标题", Tags: []string{"旅行"}}}, nil
}

func (f *fakeExtractor) NoteDetail(_ context.Context, noteURL string, timeout time.Duration) (*schemas.Note, error) {
	f.lastTimeout = timeout
	return &schemas.Note{Title: "一个标题", URL: noteURL}, nil
}

func (f *fakeExtractor) Comments(_ context.Context, _ string, timeout time.Duration) ([]schemas.Comment, error) {
	f.lastTimeout = timeout
	return []schemas.Comment{{Author: "momo"}}, nil
}

func (f *fakeExtractor) Close(context.Context) error {
	f.closed = true
	return nil
}

func newTestService() (*Service, *fakeExtractor) {
	fx := &fakeExtractor{}
	return NewService(fx, config.NewDefaultConfig(), zap.NewNop()), fx
}

func TestTimeoutDefaultsToConfig(t *testing.T) {
	svc, fx := newTestService()

	_, err := svc.Search(context.Background(), "kw", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, svc.cfg.Network.DefaultTimeout, fx.lastTimeout)
}

func TestTimeoutOverride(t *testing.T) {
	svc, fx := newTestService()

	_, err := svc.NoteDetail(context.Background(), "https://www.xiaohongshu.com/explore/x", 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, fx.lastTimeout)
}

func TestSearchReturnsJSON(t *testing.T) {
	svc, _ := newTestService()

	out, err := svc.Search(context.Background(), "kw", 1, 0)
	require.NoError(t, err)

	var notes []schemas.Note
	require.NoError(t, jsoniter.UnmarshalFromString(out, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "一个标题", notes[0].Title)
}

func TestCommentsReturnsJSON(t *testing.T) {
	svc, _ := newTestService()

	out, err := svc.Comments(context.Background(), "https://www.xiaohongshu.com/explore/x", 0)
	require.NoError(t, err)

	var comments []schemas.Comment
	require.NoError(t, jsoniter.UnmarshalFromString(out, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "momo", comments[0].Author)
}

func TestLoginUsesDefaultTimeout(t *testing.T) {
	svc, fx := newTestService()

	state, err := svc.Login(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, svc.cfg.Network.DefaultTimeout, fx.lastTimeout)
}

func TestCloseDelegates(t *testing.T) {
	svc, fx := newTestService()
	require.NoError(t, svc.Close(context.Background()))
	assert.True(t, fx.closed)
}
