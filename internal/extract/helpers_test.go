// File: internal/extract/helpers_test.go
package extract

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
	"github.com/veiloak/rednote-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestOrchestrator(sess SessionController, search SearchExtractor, note NoteExtractor, comments CommentExtractor) *Orchestrator {
	return &Orchestrator{
		logger:   zap.NewNop(),
		cfg:      config.NewDefaultConfig(),
		sessions: sess,
		pacer:    NopPacer{},
		search:   search,
		note:     note,
		comments: comments,
	}
}

// fakeSession is a SessionController double handing out fake pages.
type fakeSession struct {
	mu      sync.Mutex
	ensures int
	pages   []*fakePage
	closed  bool

	gotoErr error
	waitErr map[string]error
}

func (s *fakeSession) EnsureAuthenticated(context.Context, time.Duration) (*schemas.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensures++
	return &schemas.SessionState{IsAuthenticated: true}, nil
}

func (s *fakeSession) Page(context.Context) (schemas.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pg := &fakePage{gotoErr: s.gotoErr, waitErr: s.waitErr}
	s.pages = append(s.pages, pg)
	return pg, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakePage records navigation and waits; content access is stubbed per test
// through the html field.
type fakePage struct {
	mu         sync.Mutex
	gotos      []string
	waitStages []string
	closeCount int

	html    string
	gotoErr error
	waitErr map[string]error
}

func (p *fakePage) Goto(_ context.Context, url string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gotoErr != nil {
		return p.gotoErr
	}
	p.gotos = append(p.gotos, url)
	return nil
}

func (p *fakePage) WaitForSelector(_ context.Context, _ string, opts schemas.WaitOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitStages = append(p.waitStages, opts.Stage)
	if err, ok := p.waitErr[opts.Stage]; ok {
		return err
	}
	return nil
}

func (p *fakePage) Evaluate(context.Context, string, any) error { return nil }

func (p *fakePage) Click(context.Context, string) error { return nil }

func (p *fakePage) OuterHTML(context.Context, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *fakePage) Location(context.Context) (string, error) {
	return "https://www.xiaohongshu.com/explore/live", nil
}

func (p *fakePage) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCount++
	return nil
}

func (p *fakePage) closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCount
}

func (p *fakePage) stages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.waitStages...)
}

func (p *fakePage) visited() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.gotos...)
}

// fakeSearchExtractor simulates a results grid with a fixed card count.
type fakeSearchExtractor struct {
	mu       sync.Mutex
	found    int
	opened   []int
	closures int
	openErr  map[int]error
}

func (f *fakeSearchExtractor) ContainerSelector() string { return selFeedsContainer }

func (f *fakeSearchExtractor) Count(context.Context, schemas.Page) (int, error) {
	return f.found, nil
}

func (f *fakeSearchExtractor) OpenItem(_ context.Context, _ schemas.Page, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.openErr[index]; ok {
		return err
	}
	f.opened = append(f.opened, index)
	return nil
}

func (f *fakeSearchExtractor) CloseItem(context.Context, schemas.Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closures++
	return nil
}

func (f *fakeSearchExtractor) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closures
}

// fakeNoteExtractor returns a canned note, optionally failing on the n-th
// Extract call (1-based).
type fakeNoteExtractor struct {
	mu     sync.Mutex
	note   schemas.Note
	calls  int
	failOn int
	err    error
}

func (f *fakeNoteExtractor) ContainerSelector() string { return selNoteContainer }

func (f *fakeNoteExtractor) Extract(context.Context, schemas.Page) (*schemas.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return nil, f.err
	}
	note := f.note
	return &note, nil
}

type fakeCommentExtractor struct {
	comments []schemas.Comment
}

func (f *fakeCommentExtractor) ContainerSelector() string { return selCommentsList }

func (f *fakeCommentExtractor) Extract(context.Context, schemas.Page) ([]schemas.Comment, error) {
	return f.comments, nil
}
