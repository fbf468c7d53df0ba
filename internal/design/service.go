// Package design is the design service: it stores whole documents keyed by
// design id, owns thumbnail uploads and serves both over HTTP. Client talks
// to it from the editor side.
package design

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sysdraw/sysdraw/backend-go/internal/asset"
	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/typeid"
)

var (
	ErrNotFound        = errors.New("design not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidDocument = errors.New("invalid document")
)

const DefaultName = "Untitled design"

type Design struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Version      int       `json:"version"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Thumbnail struct {
	ID        string    `json:"id"`
	DesignID  string    `json:"designId"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	repo   Repository
	assets *asset.Store
}

func NewService(repo Repository, assets *asset.Store) *Service {
	return &Service{repo: repo, assets: assets}
}

func encodeDocument(doc *document.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &doc, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create stores doc as a new design owned by ownerID and assigns its id.
func (s *Service) Create(ctx context.Context, ownerID string, doc *document.Document) (*Design, error) {
	doc = doc.Clone()
	doc.ID = typeid.NewDesignID()
	if doc.Meta.Name == "" {
		doc.Meta.Name = DefaultName
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}
	d := &Design{
		ID:          doc.ID,
		OwnerID:     ownerID,
		Name:        doc.Meta.Name,
		Description: doc.Meta.Description,
	}
	if err := s.repo.CreateDesign(ctx, d, data); err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}

	slog.Info("design created", "design", d.ID, "owner", ownerID)
	return d, nil
}

// Get returns a design and its document. The document's thumbnail field
// points at the latest uploaded thumbnail.
func (s *Service) Get(ctx context.Context, id, userID string) (*Design, *document.Document, error) {
	d, data, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, "get design")
	}
	if d.OwnerID != userID {
		return nil, nil, ErrForbidden
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, nil, err
	}
	doc.ID = d.ID
	if d.ThumbnailURL != "" {
		doc.Meta.Thumbnail = d.ThumbnailURL
	}
	return d, doc, nil
}

// Save overwrites the document of an existing design.
func (s *Service) Save(ctx context.Context, id, userID string, doc *document.Document) (*Design, error) {
	d, _, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return nil, notFound(err, "get design")
	}
	if d.OwnerID != userID {
		return nil, ErrForbidden
	}
	return s.store(ctx, d, doc)
}

func (s *Service) store(ctx context.Context, d *Design, doc *document.Document) (*Design, error) {
	doc = doc.Clone()
	doc.ID = d.ID
	if doc.Meta.Name == "" {
		doc.Meta.Name = d.Name
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}
	d.Name = doc.Meta.Name
	d.Description = doc.Meta.Description
	if err := s.repo.UpdateDesign(ctx, d, data); err != nil {
		return nil, notFound(err, "update design")
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	d, _, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return notFound(err, "get design")
	}
	if d.OwnerID != userID {
		return ErrForbidden
	}

	if t, err := s.repo.LatestThumbnail(ctx, id); err == nil && s.assets != nil {
		if err := s.assets.Delete(t.ID); err != nil && !errors.Is(err, asset.ErrNotFound) {
			slog.Warn("delete thumbnail file", "error", err, "design", id)
		}
	}
	if err := s.repo.DeleteDesign(ctx, id); err != nil {
		return notFound(err, "delete design")
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Design, error) {
	designs, err := s.repo.ListDesigns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	if designs == nil {
		designs = []Design{}
	}
	return designs, nil
}

// UploadThumbnail stores a PNG or JPEG image as the design's newest thumbnail.
func (s *Service) UploadThumbnail(ctx context.Context, id, userID string, r io.Reader) (*Thumbnail, error) {
	d, _, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return nil, notFound(err, "get design")
	}
	if d.OwnerID != userID {
		return nil, ErrForbidden
	}
	if s.assets == nil {
		return nil, errors.New("thumbnail storage not configured")
	}

	info, err := s.assets.Save(typeid.NewThumbnailID(), r)
	if err != nil {
		return nil, err
	}

	t := &Thumbnail{
		ID:       info.ID,
		DesignID: id,
		URL:      info.URL,
		Width:    info.Width,
		Height:   info.Height,
	}
	if err := s.repo.AddThumbnail(ctx, t); err != nil {
		s.assets.Delete(info.ID)
		return nil, fmt.Errorf("record thumbnail: %w", err)
	}
	return t, nil
}

func (s *Service) LatestThumbnail(ctx context.Context, id, userID string) (*Thumbnail, error) {
	d, _, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return nil, notFound(err, "get design")
	}
	if d.OwnerID != userID {
		return nil, ErrForbidden
	}
	t, err := s.repo.LatestThumbnail(ctx, id)
	if err != nil {
		return nil, notFound(err, "get thumbnail")
	}
	return t, nil
}

// Authorize reports whether userID may edit the design.
func (s *Service) Authorize(ctx context.Context, id, userID string) error {
	d, _, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return notFound(err, "get design")
	}
	if d.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

// LoadDocument returns the stored document without an ownership check. It
// backs collaboration rooms, which authorize on join.
func (s *Service) LoadDocument(ctx context.Context, id string) (*document.Document, error) {
	d, data, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return nil, notFound(err, "get design")
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	doc.ID = d.ID
	return doc, nil
}

// StoreDocument overwrites the stored document without an ownership check.
func (s *Service) StoreDocument(ctx context.Context, id string, doc *document.Document) error {
	d, _, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return notFound(err, "get design")
	}
	_, err = s.store(ctx, d, doc)
	return err
}
