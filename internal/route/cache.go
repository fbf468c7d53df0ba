package route

import (
	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
)

// Routed is everything needed to draw one connection.
type Routed struct {
	ID          string                   `json:"id"`
	Path        Path                     `json:"path"`
	Decorations []Decoration             `json:"decorations"`
	Style       document.ConnectionStyle `json:"style"`
}

// Compute routes a connection between its two resolved shapes.
func Compute(from, to document.Shape, c document.Connection) Routed {
	st := c.ResolvedStyle()
	a := from.AnchorPoint(c.FromSide)
	b := to.AnchorPoint(c.ToSide)
	p := Route(a, b, c.FromSide, c.ToSide, st.Routing)
	return Routed{
		ID:          c.ID,
		Path:        p,
		Decorations: Decorations(st.Arrow, p, c.FromSide, c.ToSide, st.Thickness),
		Style:       st,
	}
}

type cacheKey struct {
	a, b   geom.Point
	fs, ts document.Side
	style  document.ConnectionStyle
}

type cacheEntry struct {
	key    cacheKey
	routed Routed
}

// Cache memoizes routes by connection id. An entry is recomputed only when
// one of its endpoint shapes or the connection itself changed, so a drag
// reroutes just the edges touching the dragged shape.
type Cache struct {
	entries map[string]cacheEntry
	misses  int
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Route returns the routed connection, or false when an endpoint is missing.
func (c *Cache) Route(doc *document.Document, conn document.Connection) (Routed, bool) {
	from, okFrom := doc.Shape(conn.From)
	to, okTo := doc.Shape(conn.To)
	if !okFrom || !okTo {
		return Routed{}, false
	}
	key := cacheKey{
		a:     from.AnchorPoint(conn.FromSide),
		b:     to.AnchorPoint(conn.ToSide),
		fs:    conn.FromSide,
		ts:    conn.ToSide,
		style: conn.ResolvedStyle(),
	}
	if e, ok := c.entries[conn.ID]; ok && e.key == key {
		return e.routed, true
	}
	c.misses++
	r := Compute(from, to, conn)
	c.entries[conn.ID] = cacheEntry{key: key, routed: r}
	return r, true
}

// All routes every connection in doc and evicts entries for deleted ones.
func (c *Cache) All(doc *document.Document) []Routed {
	out := make([]Routed, 0, len(doc.Connections))
	live := make(map[string]bool, len(doc.Connections))
	for _, conn := range doc.Connections {
		live[conn.ID] = true
		if r, ok := c.Route(doc, conn); ok {
			out = append(out, r)
		}
	}
	for id := range c.entries {
		if !live[id] {
			delete(c.entries, id)
		}
	}
	return out
}

// Misses reports how many routes were computed rather than served from cache.
func (c *Cache) Misses() int { return c.misses }
