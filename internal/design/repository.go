package design

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists designs and their thumbnails. Lookups of missing rows
// return pgx.ErrNoRows.
type Repository interface {
	CreateDesign(ctx context.Context, d *Design, doc []byte) error
	GetDesign(ctx context.Context, id string) (*Design, []byte, error)
	UpdateDesign(ctx context.Context, d *Design, doc []byte) error
	DeleteDesign(ctx context.Context, id string) error
	ListDesigns(ctx context.Context, ownerID string) ([]Design, error)
	AddThumbnail(ctx context.Context, t *Thumbnail) error
	LatestThumbnail(ctx context.Context, designID string) (*Thumbnail, error)
}

// Postgres is the Repository backed by the designs and thumbnails tables.
type Postgres struct {
	db DBTX
}

var _ Repository = (*Postgres)(nil)

func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

const latestThumbnailPath = `COALESCE((
	SELECT t.path FROM thumbnails t
	WHERE t.design_id = d.id
	ORDER BY t.created_at DESC, t.id DESC
	LIMIT 1), '')`

func (p *Postgres) CreateDesign(ctx context.Context, d *Design, doc []byte) error {
	err := p.db.QueryRow(ctx, `
		INSERT INTO designs (id, owner_id, name, description, document)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version, created_at, updated_at`,
		d.ID, d.OwnerID, d.Name, d.Description, doc,
	).Scan(&d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

func (p *Postgres) GetDesign(ctx context.Context, id string) (*Design, []byte, error) {
	var (
		d   Design
		doc []byte
	)
	err := p.db.QueryRow(ctx, `
		SELECT d.id, d.owner_id, d.name, d.description, d.version, d.created_at, d.updated_at,
		       `+latestThumbnailPath+`, d.document
		FROM designs d
		WHERE d.id = $1`, id,
	).Scan(&d.ID, &d.OwnerID, &d.Name, &d.Description, &d.Version, &d.CreatedAt, &d.UpdatedAt,
		&d.ThumbnailURL, &doc)
	if err != nil {
		return nil, nil, fmt.Errorf("select design: %w", err)
	}
	return &d, doc, nil
}

// UpdateDesign overwrites the document and bumps the version. There is no
// optimistic concurrency check.
func (p *Postgres) UpdateDesign(ctx context.Context, d *Design, doc []byte) error {
	err := p.db.QueryRow(ctx, `
		UPDATE designs
		SET name = $2, description = $3, document = $4, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING owner_id, version, created_at, updated_at`,
		d.ID, d.Name, d.Description, doc,
	).Scan(&d.OwnerID, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update design: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteDesign(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM designs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (p *Postgres) ListDesigns(ctx context.Context, ownerID string) ([]Design, error) {
	rows, err := p.db.Query(ctx, `
		SELECT d.id, d.owner_id, d.name, d.description, d.version, d.created_at, d.updated_at,
		       `+latestThumbnailPath+`
		FROM designs d
		WHERE d.owner_id = $1
		ORDER BY d.updated_at DESC, d.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	designs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Design, error) {
		var d Design
		err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Description, &d.Version, &d.CreatedAt, &d.UpdatedAt,
			&d.ThumbnailURL)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	return designs, nil
}

func (p *Postgres) AddThumbnail(ctx context.Context, t *Thumbnail) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO thumbnails (id, design_id, path, width, height, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.DesignID, t.URL, t.Width, t.Height, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert thumbnail: %w", err)
	}
	return nil
}

func (p *Postgres) LatestThumbnail(ctx context.Context, designID string) (*Thumbnail, error) {
	var t Thumbnail
	err := p.db.QueryRow(ctx, `
		SELECT id, design_id, path, width, height, created_at
		FROM thumbnails
		WHERE design_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, designID,
	).Scan(&t.ID, &t.DesignID, &t.URL, &t.Width, &t.Height, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("select thumbnail: %w", err)
	}
	return &t, nil
}
