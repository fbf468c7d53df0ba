package scene

import (
	"math"
	"slices"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
)

const (
	MinZoom  = 0.25
	MaxZoom  = 3.0
	ZoomStep = 0.1
)

// Reduce applies an action to d and returns the resulting document. d is
// never modified. When the action does not change anything (unknown names,
// ids or indexes) d itself is returned, so callers can detect no-ops by
// pointer comparison.
func Reduce(d *document.Document, a Action) *document.Document {
	if d == nil {
		d = document.NewDocument("", "")
	}
	switch a := a.(type) {
	case SetState:
		return setState(d, a.Partial)
	case Reset:
		return document.NewDocument("", "")
	case AddShape:
		return addShape(d, a.Shape)
	case UpdateShape:
		return updateShape(d, a.Name, a.Patch)
	case RemoveShape:
		return removeShape(d, a.Name)
	case Reroute:
		return reroute(d, a.Shape)
	case AddConnection:
		return addConnection(d, a.Connection)
	case UpdateConnection:
		return updateConnection(d, a.ID, a.Patch)
	case RemoveConnection:
		return removeConnectionAt(d, d.ConnectionIndex(a.ID))
	case RemoveConnectionAt:
		return removeConnectionAt(d, a.Index)
	case AddGroup:
		return addGroup(d, a.Group)
	case UpdateGroup:
		return updateGroup(d, a.ID, a.Patch)
	case RemoveGroup:
		return removeGroup(d, a.ID)
	case MoveGroup:
		return moveGroup(d, a)
	case SetCamera:
		if d.Camera.X == a.X && d.Camera.Y == a.Y {
			return d
		}
		out := d.Clone()
		out.Camera.X, out.Camera.Y = a.X, a.Y
		return out
	case SetZoom:
		cam := document.Camera{X: a.X, Y: a.Y, Scale: ClampZoom(a.Scale)}
		if d.Camera == cam {
			return d
		}
		out := d.Clone()
		out.Camera = cam
		return out
	}
	return d
}

// ClampZoom limits a camera scale to [MinZoom, MaxZoom].
func ClampZoom(s float64) float64 {
	if math.IsNaN(s) || s <= 0 {
		return 1
	}
	return min(max(s, MinZoom), MaxZoom)
}

func withShapes(d *document.Document, shapes []document.Shape) *document.Document {
	out := d.Clone()
	out.Shapes = shapes
	out.Reindex()
	return out
}

func setState(d *document.Document, p Partial) *document.Document {
	out := d.Clone()
	if p.ID != nil {
		out.ID = *p.ID
	}
	if p.Meta != nil {
		out.Meta = *p.Meta
	}
	if p.Camera != nil {
		out.Camera = *p.Camera
		out.Camera.Scale = ClampZoom(out.Camera.Scale)
	}
	if p.Shapes != nil {
		shapes := make([]document.Shape, 0, len(p.Shapes))
		seen := make(map[string]bool, len(p.Shapes))
		for _, s := range p.Shapes {
			if s.Name == "" || seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			shapes = append(shapes, s.Normalize())
		}
		out.Shapes = shapes
		out.Reindex()
	}
	if p.Connections != nil {
		out.Connections = slices.Clone(p.Connections)
	}
	if p.Groups != nil {
		out.Groups = slices.Clone(p.Groups)
	}
	out.Connections = slices.DeleteFunc(slices.Clone(out.Connections), func(c document.Connection) bool {
		return c.ID == "" || !out.HasShape(c.From) || !out.HasShape(c.To)
	})
	return out
}

func addShape(d *document.Document, s document.Shape) *document.Document {
	if s.Name == "" || d.HasShape(s.Name) {
		return d
	}
	shapes := make([]document.Shape, len(d.Shapes), len(d.Shapes)+1)
	copy(shapes, d.Shapes)
	return withShapes(d, append(shapes, s.Normalize()))
}

func (p ShapePatch) apply(s document.Shape) document.Shape {
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Width != nil && *p.Width > 0 {
		s.Width = *p.Width
	}
	if p.Height != nil && *p.Height > 0 {
		s.Height = *p.Height
	}
	if p.ZIndex != nil && *p.ZIndex >= 0 {
		s.ZIndex = *p.ZIndex
	}
	if p.Color != nil {
		s.Style.Color = *p.Color
	}
	if p.BackgroundColor != nil {
		s.Style.BackgroundColor = *p.BackgroundColor
	}
	if p.BorderColor != nil {
		s.Style.BorderColor = *p.BorderColor
	}
	if p.BorderWidth != nil && *p.BorderWidth >= 0 {
		s.Style.BorderWidth = *p.BorderWidth
	}
	if p.FontSize != nil && *p.FontSize > 0 {
		s.Style.FontSize = *p.FontSize
	}
	if p.FontStyle != nil {
		s.Style.FontStyle = *p.FontStyle
	}
	if p.Content != nil || p.Points != nil {
		content := s.Content()
		if p.Content != nil {
			content = *p.Content
		}
		var pts []float64
		if lb, ok := s.Body.(document.LineBody); ok {
			pts = lb.Points[:]
		}
		if p.Points != nil {
			pts = p.Points[:]
		}
		s.Body = document.NewBody(s.Kind, content, pts)
	}
	return s
}

func updateShape(d *document.Document, name string, p ShapePatch) *document.Document {
	i := d.ShapeIndex(name)
	if i < 0 {
		return d
	}
	updated := p.apply(d.Shapes[i])
	if updated.Equal(d.Shapes[i]) {
		return d
	}
	shapes := slices.Clone(d.Shapes)
	shapes[i] = updated
	return withShapes(d, shapes)
}

func removeShape(d *document.Document, name string) *document.Document {
	i := d.ShapeIndex(name)
	if i < 0 {
		return d
	}
	out := withShapes(d, slices.Delete(slices.Clone(d.Shapes), i, i+1))
	if slices.ContainsFunc(d.Connections, func(c document.Connection) bool { return c.Touches(name) }) {
		out.Connections = slices.DeleteFunc(slices.Clone(d.Connections), func(c document.Connection) bool {
			return c.Touches(name)
		})
	}
	return out
}

func reroute(d *document.Document, name string) *document.Document {
	if !d.HasShape(name) {
		return d
	}
	var conns []document.Connection
	for i, c := range d.Connections {
		if !c.Touches(name) {
			continue
		}
		from, okFrom := d.Shape(c.From)
		to, okTo := d.Shape(c.To)
		if !okFrom || !okTo {
			continue
		}
		fs, ts := document.OptimalAnchors(from, to)
		if fs == c.FromSide && ts == c.ToSide {
			continue
		}
		if conns == nil {
			conns = slices.Clone(d.Connections)
		}
		conns[i].FromSide, conns[i].ToSide = fs, ts
	}
	if conns == nil {
		return d
	}
	out := d.Clone()
	out.Connections = conns
	return out
}

func addConnection(d *document.Document, c document.Connection) *document.Document {
	if c.ID == "" || d.ConnectionIndex(c.ID) >= 0 {
		return d
	}
	from, okFrom := d.Shape(c.From)
	to, okTo := d.Shape(c.To)
	if !okFrom || !okTo {
		return d
	}
	if c.Type == "" {
		c.Type = document.DefaultConnectionType
	}
	if !from.HasSide(c.FromSide) || !to.HasSide(c.ToSide) {
		fs, ts := document.OptimalAnchors(from, to)
		if !from.HasSide(c.FromSide) {
			c.FromSide = fs
		}
		if !to.HasSide(c.ToSide) {
			c.ToSide = ts
		}
	}
	out := d.Clone()
	out.Connections = append(slices.Clip(d.Connections), c)
	return out
}

func updateConnection(d *document.Document, id string, p ConnectionPatch) *document.Document {
	i := d.ConnectionIndex(id)
	if i < 0 {
		return d
	}
	c := d.Connections[i]
	if p.Type != nil {
		c.Type = *p.Type
		if p.Metadata == nil {
			c.Metadata = document.Spec(c.Type).Metadata
		}
	}
	if p.Override != nil {
		c.Override = *p.Override
	}
	if p.Metadata != nil {
		c.Metadata = p.Metadata
	}
	from, _ := d.Shape(c.From)
	to, _ := d.Shape(c.To)
	if p.FromSide != nil && from.HasSide(*p.FromSide) {
		c.FromSide = *p.FromSide
	}
	if p.ToSide != nil && to.HasSide(*p.ToSide) {
		c.ToSide = *p.ToSide
	}
	if c.Equal(d.Connections[i]) {
		return d
	}
	out := d.Clone()
	out.Connections = slices.Clone(d.Connections)
	out.Connections[i] = c
	return out
}

func removeConnectionAt(d *document.Document, i int) *document.Document {
	if i < 0 || i >= len(d.Connections) {
		return d
	}
	out := d.Clone()
	out.Connections = slices.Delete(slices.Clone(d.Connections), i, i+1)
	return out
}

func addGroup(d *document.Document, g document.Group) *document.Document {
	if g.ID == "" || d.GroupIndex(g.ID) >= 0 {
		return d
	}
	g.Width, g.Height = document.ClampGroupSize(g.Width, g.Height)
	if g.DisplayName == "" {
		g.DisplayName = g.Name
	}
	out := d.Clone()
	out.Groups = append(slices.Clip(d.Groups), g)
	return out
}

func (p GroupPatch) apply(g document.Group) document.Group {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.DisplayName != nil {
		g.DisplayName = *p.DisplayName
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.X != nil {
		g.X = *p.X
	}
	if p.Y != nil {
		g.Y = *p.Y
	}
	if p.Width != nil {
		g.Width = *p.Width
	}
	if p.Height != nil {
		g.Height = *p.Height
	}
	if p.BorderColor != nil {
		g.BorderColor = *p.BorderColor
	}
	if p.BorderThickness != nil && *p.BorderThickness >= 0 {
		g.BorderThickness = *p.BorderThickness
	}
	if p.BorderStyle != nil {
		g.BorderStyle = *p.BorderStyle
	}
	g.Width, g.Height = document.ClampGroupSize(g.Width, g.Height)
	return g
}

func updateGroup(d *document.Document, id string, p GroupPatch) *document.Document {
	i := d.GroupIndex(id)
	if i < 0 {
		return d
	}
	g := p.apply(d.Groups[i])
	if g == d.Groups[i] {
		return d
	}
	out := d.Clone()
	out.Groups = slices.Clone(d.Groups)
	out.Groups[i] = g
	return out
}

func removeGroup(d *document.Document, id string) *document.Document {
	i := d.GroupIndex(id)
	if i < 0 {
		return d
	}
	out := d.Clone()
	out.Groups = slices.Delete(slices.Clone(d.Groups), i, i+1)
	return out
}

func moveGroup(d *document.Document, a MoveGroup) *document.Document {
	i := d.GroupIndex(a.ID)
	if i < 0 || (a.DX == 0 && a.DY == 0) {
		return d
	}
	members := a.Members
	if members == nil {
		members = d.Groups[i].Members(d.Shapes)
	}

	groups := slices.Clone(d.Groups)
	groups[i].X += a.DX
	groups[i].Y += a.DY

	shapes := slices.Clone(d.Shapes)
	for _, name := range members {
		if j := d.ShapeIndex(name); j >= 0 {
			shapes[j] = shapes[j].Translate(a.DX, a.DY)
		}
	}
	out := withShapes(d, shapes)
	out.Groups = groups
	return out
}
