// File: internal/extract/orchestrator.go
package extract

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
	"github.com/veiloak/rednote-cli/internal/config"
	"github.com/veiloak/rednote-cli/internal/session"
)

// SessionController is the slice of the session manager the orchestrator
// needs. Tests substitute a double that hands out fake pages.
type SessionController interface {
	EnsureAuthenticated(ctx context.Context, total time.Duration) (*schemas.SessionState, error)
	Page(ctx context.Context) (schemas.Page, error)
	Close(ctx context.Context) error
}

// Orchestrator sequences authenticated page work for the three content
// operations. Every operation re-validates the session first, so a caller can
// fire them cold against an expired cookie set and still get content back.
type Orchestrator struct {
	logger   *zap.Logger
	cfg      *config.Config
	sessions SessionController
	pacer    schemas.Pacer

	search   SearchExtractor
	note     NoteExtractor
	comments CommentExtractor
}

// New wires an orchestrator against the live extractors.
func New(sessions SessionController, cfg *config.Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		logger:   logger.Named("extract"),
		cfg:      cfg,
		sessions: sessions,
		pacer:    NewPacer(cfg.Extract.PacingMinSeconds),
		search:   NewSearchExtractor(),
		note:     NewNoteExtractor(),
		comments: NewCommentExtractor(),
	}
}

// EnsureSession runs the full session establishment flow without extracting
// anything. The init command is its only production caller.
func (o *Orchestrator) EnsureSession(ctx context.Context, timeout time.Duration) (*schemas.SessionState, error) {
	return o.sessions.EnsureAuthenticated(ctx, timeout)
}

// withPage runs fn on a fresh page in the authenticated context, then closes
// the page regardless of fn's outcome. fn's error wins over the close error.
func (o *Orchestrator) withPage(ctx context.Context, timeout time.Duration, fn func(pg schemas.Page) error) error {
	if _, err := o.sessions.EnsureAuthenticated(ctx, timeout); err != nil {
		return err
	}
	pg, err := o.sessions.Page(ctx)
	if err != nil {
		return err
	}
	defer session.ReleasePage(o.logger, pg)
	return fn(pg)
}

// Search opens the search-results page for keywords and extracts up to limit
// notes by clicking each result card open and closed in turn. A limit of zero
// or below falls back to the configured default; the result never exceeds the
// number of cards actually rendered. A single failing card is logged and
// skipped, it does not fail the batch.
func (o *Orchestrator) Search(ctx context.Context, keywords string, limit int, timeout time.Duration) ([]schemas.Note, error) {
	if limit <= 0 {
		limit = o.cfg.Extract.DefaultLimit
	}

	var notes []schemas.Note
	err := o.withPage(ctx, timeout, func(pg schemas.Page) error {
		target := fmt.Sprintf(o.cfg.Extract.SearchURL, url.QueryEscape(keywords))
		if err := pg.Goto(ctx, target, timeout); err != nil {
			return err
		}
		if err := pg.WaitForSelector(ctx, o.search.ContainerSelector(), schemas.WaitOptions{
			Timeout: timeout,
			State:   schemas.WaitVisible,
			Stage:   "search results",
		}); err != nil {
			return err
		}

		found, err := o.search.Count(ctx, pg)
		if err != nil {
			return err
		}
		if found < limit {
			limit = found
		}
		o.logger.Info("Search results located.",
			zap.String("keywords", keywords),
			zap.Int("found", found),
			zap.Int("limit", limit))

		for i := 0; i < limit; i++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			note, err := o.extractResult(ctx, pg, i)
			if err != nil {
				o.logger.Warn("Skipping search result after extraction failure.",
					zap.Int("index", i), zap.Error(err))
				o.dismissOverlay(ctx, pg)
				continue
			}
			notes = append(notes, *note)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// extractResult opens the i-th result card as a detail overlay, extracts it
// and closes the overlay again. Overlay waits are bounded by the fixed stage
// ceiling rather than the call budget: a stuck overlay should fail this one
// card, not burn the whole batch timeout.
func (o *Orchestrator) extractResult(ctx context.Context, pg schemas.Page, index int) (*schemas.Note, error) {
	if err := o.search.OpenItem(ctx, pg, index); err != nil {
		return nil, fmt.Errorf("failed to open result %d: %w", index, err)
	}
	if err := pg.WaitForSelector(ctx, o.note.ContainerSelector(), schemas.WaitOptions{
		Timeout: session.StageCeiling,
		State:   schemas.WaitVisible,
		Stage:   "note detail",
	}); err != nil {
		return nil, err
	}
	if err := o.pacer.Wait(ctx, o.cfg.Extract.PacingMinSeconds, o.cfg.Extract.PacingMaxSeconds); err != nil {
		return nil, err
	}

	note, err := o.note.Extract(ctx, pg)
	if err != nil {
		return nil, err
	}

	if err := o.search.CloseItem(ctx, pg); err != nil {
		return nil, fmt.Errorf("failed to close result %d: %w", index, err)
	}
	if err := pg.WaitForSelector(ctx, o.note.ContainerSelector(), schemas.WaitOptions{
		Timeout: session.StageCeiling,
		State:   schemas.WaitDetached,
		Stage:   "note detail detach",
	}); err != nil {
		return nil, err
	}
	if err := o.pacer.Wait(ctx, o.cfg.Extract.PacingMinSeconds, o.cfg.Extract.PacingMaxSeconds); err != nil {
		return nil, err
	}
	return note, nil
}

// dismissOverlay is best-effort cleanup after a failed card so the next card
// starts from the results grid. Errors are expected when no overlay is open.
func (o *Orchestrator) dismissOverlay(ctx context.Context, pg schemas.Page) {
	if err := o.search.CloseItem(ctx, pg); err != nil {
		o.logger.Debug("Overlay dismissal failed.", zap.Error(err))
		return
	}
	if err := pg.WaitForSelector(ctx, o.note.ContainerSelector(), schemas.WaitOptions{
		Timeout: session.StageCeiling,
		State:   schemas.WaitDetached,
		Stage:   "note detail detach",
	}); err != nil {
		o.logger.Debug("Overlay did not detach after dismissal.", zap.Error(err))
	}
}

// NoteDetail extracts a single note. The input URL may be a share link, which
// is resolved first; the returned note reports the caller's original URL, not
// whatever the browser shows after redirects.
func (o *Orchestrator) NoteDetail(ctx context.Context, noteURL string, timeout time.Duration) (*schemas.Note, error) {
	target := ResolveShareLink(noteURL)
	if target != noteURL {
		o.logger.Debug("Resolved share link.",
			zap.String("input", noteURL), zap.String("target", target))
	}

	var note *schemas.Note
	err := o.withPage(ctx, timeout, func(pg schemas.Page) error {
		if err := pg.Goto(ctx, target, timeout); err != nil {
			return err
		}
		if err := pg.WaitForSelector(ctx, o.note.ContainerSelector(), schemas.WaitOptions{
			Timeout: timeout,
			State:   schemas.WaitVisible,
			Stage:   "note detail",
		}); err != nil {
			return err
		}
		var err error
		note, err = o.note.Extract(ctx, pg)
		return err
	})
	if err != nil {
		return nil, err
	}
	note.URL = noteURL
	return note, nil
}

// Comments extracts the visible comment thread of a note.
func (o *Orchestrator) Comments(ctx context.Context, noteURL string, timeout time.Duration) ([]schemas.Comment, error) {
	target := ResolveShareLink(noteURL)

	var comments []schemas.Comment
	err := o.withPage(ctx, timeout, func(pg schemas.Page) error {
		if err := pg.Goto(ctx, target, timeout); err != nil {
			return err
		}
		if err := pg.WaitForSelector(ctx, o.comments.ContainerSelector(), schemas.WaitOptions{
			Timeout: timeout,
			State:   schemas.WaitVisible,
			Stage:   "comment list",
		}); err != nil {
			return err
		}
		var err error
		comments, err = o.comments.Extract(ctx, pg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Close releases the underlying session and browser resources.
func (o *Orchestrator) Close(ctx context.Context) error {
	return o.sessions.Close(ctx)
}
