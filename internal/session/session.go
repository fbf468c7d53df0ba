// Package session connects an editor document to its persistence: the local
// draft cache, the design service and thumbnail upload.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/draft"
	"github.com/sysdraw/sysdraw/backend-go/internal/thumbnail"
)

// Service is the design service as seen by the editor. *design.Client
// implements it.
type Service interface {
	Load(ctx context.Context, id string) (*document.Document, error)
	// Save stores doc and returns its id, creating the design when doc.ID
	// is empty.
	Save(ctx context.Context, doc *document.Document) (string, error)
	UploadThumbnail(ctx context.Context, id string, png []byte) error
}

// Source says where a loaded document came from.
type Source int

const (
	SourceNew Source = iota
	SourceDraft
	SourceService
)

func (s Source) String() string {
	switch s {
	case SourceDraft:
		return "draft"
	case SourceService:
		return "service"
	}
	return "new"
}

type Session struct {
	drafts  draft.Store
	service Service
	logger  *slog.Logger

	thumbWidth, thumbHeight int
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithThumbnailSize sets the viewport rendered after a save.
func WithThumbnailSize(w, h int) Option {
	return func(s *Session) { s.thumbWidth, s.thumbHeight = w, h }
}

func New(drafts draft.Store, service Service, opts ...Option) *Session {
	s := &Session{
		drafts:      drafts,
		service:     service,
		logger:      slog.Default(),
		thumbWidth:  thumbnail.DefaultWidth,
		thumbHeight: thumbnail.DefaultHeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the document for id. An empty id means a new, unsaved
// design. A draft, when present, wins over the service copy.
func (s *Session) Load(ctx context.Context, id string) (*document.Document, Source, error) {
	key := draft.Key(id)
	doc, err := s.drafts.Get(ctx, key)
	switch {
	case err == nil:
		doc.ID = id
		s.logger.Info("restored draft", "design", key)
		return doc, SourceDraft, nil
	case !errors.Is(err, draft.ErrNotFound):
		s.logger.Warn("read draft", "error", err, "design", key)
	}

	if id == "" {
		return document.NewDocument("", ""), SourceNew, nil
	}

	doc, err = s.service.Load(ctx, id)
	if err != nil {
		return nil, SourceService, fmt.Errorf("load design %s: %w", id, err)
	}
	doc.ID = id
	return doc, SourceService, nil
}

// Stash records doc in the draft cache under its id, or the new-design key.
func (s *Session) Stash(ctx context.Context, doc *document.Document) error {
	if err := s.drafts.Put(ctx, draft.Key(doc.ID), doc); err != nil {
		return fmt.Errorf("stash draft: %w", err)
	}
	return nil
}

// Discard drops the draft for id.
func (s *Session) Discard(ctx context.Context, id string) error {
	return s.drafts.Delete(ctx, draft.Key(id))
}

// Save stores doc through the design service and returns it with its
// assigned id. After a confirmed save the draft is cleared and a thumbnail
// of the current camera view is uploaded. Thumbnail failures are logged,
// not returned: the document itself was saved.
func (s *Session) Save(ctx context.Context, doc *document.Document) (*document.Document, error) {
	id, err := s.service.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save design: %w", err)
	}

	saved := doc.Clone()
	saved.ID = id

	for _, key := range []string{draft.Key(doc.ID), draft.Key(id)} {
		if err := s.drafts.Delete(ctx, key); err != nil {
			s.logger.Warn("clear draft", "error", err, "design", key)
		}
	}

	png, err := thumbnail.RenderView(saved, s.thumbWidth, s.thumbHeight)
	if err != nil {
		s.logger.Warn("render thumbnail", "error", err, "design", id)
		return saved, nil
	}
	if err := s.service.UploadThumbnail(ctx, id, png); err != nil {
		s.logger.Warn("upload thumbnail", "error", err, "design", id)
	}
	return saved, nil
}
