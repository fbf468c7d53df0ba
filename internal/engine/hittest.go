package engine

import (
	"slices"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
	"github.com/sysdraw/sysdraw/backend-go/internal/route"
)

// HitKind classifies what lies under a pointer.
type HitKind int

const (
	HitNone HitKind = iota
	HitAnchor
	HitResize
	HitGroupResize
	HitShape
	HitConnection
	HitGroup
)

func (k HitKind) String() string {
	switch k {
	case HitAnchor:
		return "anchor"
	case HitResize:
		return "resize"
	case HitGroupResize:
		return "group-resize"
	case HitShape:
		return "shape"
	case HitConnection:
		return "connection"
	case HitGroup:
		return "group"
	default:
		return "none"
	}
}

// Hit is the result of a hit test. Only the fields relevant to Kind are set.
type Hit struct {
	Kind       HitKind
	Shape      string
	Side       document.Side
	Group      string
	Connection string
}

// Hit tolerances in screen pixels.
const (
	lineHitTolerance       = 6.0
	connectionHitTolerance = 6.0
)

// HitTest finds the topmost interactive element at p (scene coordinates).
// Handles of the active shape and group take precedence over shapes, shapes
// over connections, and connections over groups. scale is the camera zoom,
// used to keep tolerances constant on screen.
func HitTest(doc *document.Document, view View, p geom.Point, scale float64, routes *route.Cache) Hit {
	if scale <= 0 {
		scale = 1
	}
	if s, ok := doc.Shape(view.ActiveShape); ok {
		r := (AnchorRadius + 2) / scale
		for _, side := range s.Sides() {
			if s.AnchorPoint(side).Dist(p) <= r {
				return Hit{Kind: HitAnchor, Shape: s.Name, Side: side}
			}
		}
		if s.Kind.IsTextLike() && resizeHandle(s.X+s.Width, s.Y+s.Height, scale).ContainsPoint(p) {
			return Hit{Kind: HitResize, Shape: s.Name}
		}
	}
	if g, ok := doc.Group(view.ActiveGroup); ok {
		if resizeHandle(g.X+g.Width, g.Y+g.Height, scale).ContainsPoint(p) {
			return Hit{Kind: HitGroupResize, Group: g.ID}
		}
	}

	if name, ok := ShapeAt(doc, p, scale, ""); ok {
		return Hit{Kind: HitShape, Shape: name}
	}

	if routes != nil {
		tol := connectionHitTolerance / scale
		rs := routes.All(doc)
		for i := len(rs) - 1; i >= 0; i-- {
			if rs[i].Path.Distance(p) <= tol+rs[i].Style.Thickness/2 {
				return Hit{Kind: HitConnection, Connection: rs[i].ID}
			}
		}
	}

	for i := len(doc.Groups) - 1; i >= 0; i-- {
		if doc.Groups[i].Rect().ContainsPoint(p) {
			return Hit{Kind: HitGroup, Group: doc.Groups[i].ID}
		}
	}
	return Hit{}
}

// ShapeAt returns the topmost shape under p, skipping exclude. Lines are hit
// within a small tolerance of their segment.
func ShapeAt(doc *document.Document, p geom.Point, scale float64, exclude string) (string, bool) {
	if scale <= 0 {
		scale = 1
	}
	order := PaintOrder(doc.Shapes)
	for _, i := range slices.Backward(order) {
		s := doc.Shapes[i]
		if s.Name == exclude {
			continue
		}
		if shapeContains(s, p, scale) {
			return s.Name, true
		}
	}
	return "", false
}

// DropTargetAt returns the topmost shape other than exclude whose bounding
// box contains p. Connection drops use it instead of ShapeAt so a line or
// arrow accepts a release anywhere in its box, padded by the line hit
// tolerance so horizontal and vertical lines stay reachable.
func DropTargetAt(doc *document.Document, p geom.Point, scale float64, exclude string) (string, bool) {
	if scale <= 0 {
		scale = 1
	}
	order := PaintOrder(doc.Shapes)
	for _, i := range slices.Backward(order) {
		s := doc.Shapes[i]
		if s.Name == exclude {
			continue
		}
		r := s.Bounds()
		if s.Kind.Category() == document.CategoryFreeform {
			r = r.Expand(lineHitTolerance / scale)
		}
		if r.ContainsPoint(p) {
			return s.Name, true
		}
	}
	return "", false
}

func shapeContains(s document.Shape, p geom.Point, scale float64) bool {
	if a, b, ok := s.Points(); ok {
		tol := lineHitTolerance/scale + s.Style.BorderWidth/2
		return geom.DistanceToSegment(p, a, b) <= tol
	}
	return s.Bounds().ContainsPoint(p)
}

// resizeHandle is the square around a bottom-right corner, padded so it
// stays grabbable when zoomed out.
func resizeHandle(x, y, scale float64) geom.Rect {
	half := HandleSize/2 + 2/scale
	return geom.Rect{X: x - half, Y: y - half, Width: 2 * half, Height: 2 * half}
}
