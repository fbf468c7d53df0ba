package document

import (
	"slices"

	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
)

// Document is the canonical scene: shapes, connections, design groups and camera.
// Documents handed out by the scene store are treated as immutable; mutations
// produce a new Document that shares untouched slices. JSON encoding uses the
// wire schema (see ToWire).
type Document struct {
	ID          string
	Meta        Meta
	Shapes      []Shape
	Connections []Connection
	Groups      []Group
	Camera      Camera

	// name -> position in Shapes
	index map[string]int
}

type Meta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// Camera is the pan offset and zoom scale applied uniformly at render time.
// screen = world*Scale + (X, Y)
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// DefaultCamera is an unpanned camera at 100% zoom.
func DefaultCamera() Camera {
	return Camera{X: 0, Y: 0, Scale: 1}
}

// Matrix returns the world-to-screen transform.
func (c Camera) Matrix() geom.Matrix2D {
	s := c.Scale
	if s <= 0 {
		s = 1
	}
	return geom.Translate(c.X, c.Y).Multiply(geom.Scale(s, s))
}

// ScreenToWorld converts a screen-space point to scene coordinates.
func (c Camera) ScreenToWorld(p geom.Point) geom.Point {
	return c.Matrix().Invert().TransformPoint(p)
}

// WorldToScreen converts a scene-space point to screen coordinates.
func (c Camera) WorldToScreen(p geom.Point) geom.Point {
	return c.Matrix().TransformPoint(p)
}

// NewDocument creates an empty document.
func NewDocument(id, name string) *Document {
	d := &Document{
		ID:          id,
		Meta:        Meta{Name: name},
		Shapes:      []Shape{},
		Connections: []Connection{},
		Groups:      []Group{},
		Camera:      DefaultCamera(),
	}
	d.Reindex()
	return d
}

// Clone returns a shallow copy whose collections can be replaced without
// affecting d. The name index is shared until the shape list changes.
func (d *Document) Clone() *Document {
	if d == nil {
		return NewDocument("", "")
	}
	out := *d
	return &out
}

// Reindex rebuilds the name -> index map. Documents produced by this package
// and by the scene store are always indexed.
func (d *Document) Reindex() {
	idx := make(map[string]int, len(d.Shapes))
	for i, s := range d.Shapes {
		idx[s.Name] = i
	}
	d.index = idx
}

// ShapeIndex returns the position of the named shape, or -1. A stale index,
// left behind when Shapes was replaced directly, is rebuilt once.
func (d *Document) ShapeIndex(name string) int {
	if len(d.index) == len(d.Shapes) {
		if i, ok := d.lookup(name); ok {
			return i
		}
	}
	d.Reindex()
	if i, ok := d.lookup(name); ok {
		return i
	}
	return -1
}

func (d *Document) lookup(name string) (int, bool) {
	i, ok := d.index[name]
	if !ok || i >= len(d.Shapes) || d.Shapes[i].Name != name {
		return 0, false
	}
	return i, true
}

// Shape looks up a shape by name.
func (d *Document) Shape(name string) (Shape, bool) {
	i := d.ShapeIndex(name)
	if i < 0 {
		return Shape{}, false
	}
	return d.Shapes[i], true
}

// HasShape reports whether a shape with the given name exists.
func (d *Document) HasShape(name string) bool {
	return d.ShapeIndex(name) >= 0
}

// ConnectionIndex returns the position of the connection with the given id, or -1.
func (d *Document) ConnectionIndex(id string) int {
	return slices.IndexFunc(d.Connections, func(c Connection) bool { return c.ID == id })
}

// Connection looks up a connection by id.
func (d *Document) Connection(id string) (Connection, bool) {
	i := d.ConnectionIndex(id)
	if i < 0 {
		return Connection{}, false
	}
	return d.Connections[i], true
}

// GroupIndex returns the position of the group with the given id, or -1.
func (d *Document) GroupIndex(id string) int {
	return slices.IndexFunc(d.Groups, func(g Group) bool { return g.ID == id })
}

// Group looks up a design group by id.
func (d *Document) Group(id string) (Group, bool) {
	i := d.GroupIndex(id)
	if i < 0 {
		return Group{}, false
	}
	return d.Groups[i], true
}

// MaxZ returns the highest z-index in use, or -1 for an empty scene.
func (d *Document) MaxZ() int {
	z := -1
	for _, s := range d.Shapes {
		z = max(z, s.ZIndex)
	}
	return z
}

// ConnectionsOf returns the ids of every connection touching the named shape.
func (d *Document) ConnectionsOf(name string) []string {
	var ids []string
	for _, c := range d.Connections {
		if c.From == name || c.To == name {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Equal compares the exported content of two documents. Connection and group
// order is ignored; shape order is significant because it is the initial paint order.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Meta != b.Meta || a.Camera != b.Camera {
		return false
	}
	if !slices.EqualFunc(a.Shapes, b.Shapes, func(x, y Shape) bool { return x.Equal(y) }) {
		return false
	}
	if len(a.Connections) != len(b.Connections) || len(a.Groups) != len(b.Groups) {
		return false
	}
	for _, c := range a.Connections {
		other, ok := b.Connection(c.ID)
		if !ok || !c.Equal(other) {
			return false
		}
	}
	for _, g := range a.Groups {
		other, ok := b.Group(g.ID)
		if !ok || g != other {
			return false
		}
	}
	return true
}

// Group is a design group: a visual container whose membership is derived
// from shape geometry, never stored.
type Group struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DisplayName     string    `json:"displayName"`
	Description     string    `json:"description"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	BorderColor     string    `json:"borderColor"`
	BorderThickness float64   `json:"borderThickness"`
	BorderStyle     DashStyle `json:"borderStyle"`
}

const (
	DefaultGroupWidth  = 200.0
	DefaultGroupHeight = 150.0
	MinGroupWidth      = 100.0
	MinGroupHeight     = 80.0
)

// GroupPalette is cycled through when new groups are created.
var GroupPalette = []string{"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6", "#ec4899"}

// NewGroup builds a group with default size and the n-th palette color.
func NewGroup(id, name string, x, y float64, n int) Group {
	return Group{
		ID:              id,
		Name:            name,
		DisplayName:     name,
		X:               x,
		Y:               y,
		Width:           DefaultGroupWidth,
		Height:          DefaultGroupHeight,
		BorderColor:     GroupPalette[((n%len(GroupPalette))+len(GroupPalette))%len(GroupPalette)],
		BorderThickness: 2,
		BorderStyle:     DashDashed,
	}
}

// Rect returns the group rectangle.
func (g Group) Rect() geom.Rect {
	return geom.Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

// Contains reports whether the shape's center lies inside the group.
func (g Group) Contains(s Shape) bool {
	return g.Rect().ContainsPoint(s.Center())
}

// Members returns the names of shapes whose center lies inside the group,
// in shape order.
func (g Group) Members(shapes []Shape) []string {
	var names []string
	for _, s := range shapes {
		if g.Contains(s) {
			names = append(names, s.Name)
		}
	}
	return names
}

// ClampGroupSize applies the minimum group dimensions.
func ClampGroupSize(w, h float64) (float64, float64) {
	return max(w, MinGroupWidth), max(h, MinGroupHeight)
}
