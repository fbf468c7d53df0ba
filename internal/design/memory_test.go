package design

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// memRepo is an in-memory Repository with the same not-found contract as
// Postgres.
type memRepo struct {
	mu         sync.Mutex
	designs    map[string]Design
	docs       map[string][]byte
	thumbnails map[string][]Thumbnail
}

func newMemRepo() *memRepo {
	return &memRepo{
		designs:    map[string]Design{},
		docs:       map[string][]byte{},
		thumbnails: map[string][]Thumbnail{},
	}
}

func (m *memRepo) latestURL(id string) string {
	ts := m.thumbnails[id]
	if len(ts) == 0 {
		return ""
	}
	return ts[len(ts)-1].URL
}

func (m *memRepo) CreateDesign(_ context.Context, d *Design, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	d.Version, d.CreatedAt, d.UpdatedAt = 1, now, now
	m.designs[d.ID] = *d
	m.docs[d.ID] = slices.Clone(doc)
	return nil
}

func (m *memRepo) GetDesign(_ context.Context, id string) (*Design, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.designs[id]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	d.ThumbnailURL = m.latestURL(id)
	return &d, slices.Clone(m.docs[id]), nil
}

func (m *memRepo) UpdateDesign(_ context.Context, d *Design, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.designs[d.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cur.Name, cur.Description = d.Name, d.Description
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	m.designs[d.ID] = cur
	m.docs[d.ID] = slices.Clone(doc)
	d.OwnerID, d.Version, d.CreatedAt, d.UpdatedAt = cur.OwnerID, cur.Version, cur.CreatedAt, cur.UpdatedAt
	return nil
}

func (m *memRepo) DeleteDesign(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.designs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.designs, id)
	delete(m.docs, id)
	delete(m.thumbnails, id)
	return nil
}

func (m *memRepo) ListDesigns(_ context.Context, ownerID string) ([]Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Design
	for _, d := range m.designs {
		if d.OwnerID == ownerID {
			d.ThumbnailURL = m.latestURL(d.ID)
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b Design) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *memRepo) AddThumbnail(_ context.Context, t *Thumbnail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.designs[t.DesignID]; !ok {
		return pgx.ErrNoRows
	}
	t.CreatedAt = time.Now().UTC()
	m.thumbnails[t.DesignID] = append(m.thumbnails[t.DesignID], *t)
	return nil
}

func (m *memRepo) LatestThumbnail(_ context.Context, designID string) (*Thumbnail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.thumbnails[designID]
	if len(ts) == 0 {
		return nil, pgx.ErrNoRows
	}
	t := ts[len(ts)-1]
	return &t, nil
}
