// File: internal/service/service.go
package service

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
	"github.com/veiloak/rednote-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Extractor is the orchestrator surface the service drives.
type Extractor interface {
	EnsureSession(ctx context.Context, timeout time.Duration) (*schemas.SessionState, error)
	Search(ctx context.Context, keywords string, limit int, timeout time.Duration) ([]schemas.Note, error)
	NoteDetail(ctx context.Context, noteURL string, timeout time.Duration) (*schemas.Note, error)
	Comments(ctx context.Context, noteURL string, timeout time.Duration) ([]schemas.Comment, error)
	Close(ctx context.Context) error
}

// Service is the command-facing surface. Each operation returns its result
// pre-marshaled as JSON so the commands stay thin: parse flags, call, print.
type Service struct {
	logger       *zap.Logger
	cfg          *config.Config
	orchestrator Extractor
}

// NewService wires a Service over an orchestrator.
func NewService(orchestrator Extractor, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		logger:       logger.Named("service"),
		cfg:          cfg,
		orchestrator: orchestrator,
	}
}

// timeout resolves a per-call override against the configured default.
func (s *Service) timeout(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return s.cfg.Network.DefaultTimeout
}

// Login establishes an authenticated session, driving the QR flow if the
// persisted cookies no longer work.
func (s *Service) Login(ctx context.Context, override time.Duration) (*schemas.SessionState, error) {
	return s.orchestrator.EnsureSession(ctx, s.timeout(override))
}

// Search extracts up to limit notes for keywords and returns them as JSON.
func (s *Service) Search(ctx context.Context, keywords string, limit int, override time.Duration) (string, error) {
	notes, err := s.orchestrator.Search(ctx, keywords, limit, s.timeout(override))
	if err != nil {
		return "", err
	}
	return s.marshal(notes)
}

// NoteDetail extracts a single note, given a canonical or share URL.
func (s *Service) NoteDetail(ctx context.Context, noteURL string, override time.Duration) (string, error) {
	note, err := s.orchestrator.NoteDetail(ctx, noteURL, s.timeout(override))
	if err != nil {
		return "", err
	}
	return s.marshal(note)
}

// Comments extracts the visible comment thread of a note.
func (s *Service) Comments(ctx context.Context, noteURL string, override time.Duration) (string, error) {
	comments, err := s.orchestrator.Comments(ctx, noteURL, s.timeout(override))
	if err != nil {
		return "", err
	}
	return s.marshal(comments)
}

// Close tears down the session and the browser behind it.
func (s *Service) Close(ctx context.Context) error {
	return s.orchestrator.Close(ctx)
}

func (s *Service) marshal(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(out), nil
}
