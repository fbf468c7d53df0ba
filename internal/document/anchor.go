package document

import (
	"math"

	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
)

// Side names an attachment point on a shape: a side midpoint for box-like
// shapes or an endpoint for lines and arrows.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideStart  Side = "start"
	SideEnd    Side = "end"
)

var (
	boxSides  = []Side{SideTop, SideRight, SideBottom, SideLeft}
	lineSides = []Side{SideStart, SideEnd}
)

// Horizontal reports whether the side is left or right.
func (s Side) Horizontal() bool { return s == SideLeft || s == SideRight }

// Vertical reports whether the side is top or bottom.
func (s Side) Vertical() bool { return s == SideTop || s == SideBottom }

// Normal returns the outward unit direction of a box side. Endpoint sides
// have no fixed direction and return the zero vector.
func (s Side) Normal() geom.Point {
	switch s {
	case SideTop:
		return geom.Point{X: 0, Y: -1}
	case SideRight:
		return geom.Point{X: 1, Y: 0}
	case SideBottom:
		return geom.Point{X: 0, Y: 1}
	case SideLeft:
		return geom.Point{X: -1, Y: 0}
	default:
		return geom.Point{}
	}
}

// Opposite returns the facing side.
func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	case SideStart:
		return SideEnd
	default:
		return SideStart
	}
}

// Sides returns the anchor sides available on a shape.
func (s Shape) Sides() []Side {
	if s.Kind.Category() == CategoryFreeform {
		return lineSides
	}
	return boxSides
}

// HasSide reports whether side is a valid anchor for the shape.
func (s Shape) HasSide(side Side) bool {
	for _, v := range s.Sides() {
		if v == side {
			return true
		}
	}
	return false
}

// AnchorPoint returns the absolute position of an anchor. Sides that do not
// apply to the shape resolve to its center.
func (s Shape) AnchorPoint(side Side) geom.Point {
	if start, end, ok := s.Points(); ok {
		switch side {
		case SideStart:
			return start
		case SideEnd:
			return end
		}
		return s.Center()
	}
	c := s.Center()
	switch side {
	case SideTop:
		return geom.Point{X: c.X, Y: s.Y}
	case SideRight:
		return geom.Point{X: s.X + s.Width, Y: c.Y}
	case SideBottom:
		return geom.Point{X: c.X, Y: s.Y + s.Height}
	case SideLeft:
		return geom.Point{X: s.X, Y: c.Y}
	}
	return c
}

// OptimalAnchors picks the side pair that minimizes turns between two shapes:
// facing horizontal anchors when the centers differ more in x than in y,
// facing vertical anchors otherwise. Line endpoints resolve to the endpoint
// nearest the other shape.
func OptimalAnchors(from, to Shape) (Side, Side) {
	fc, tc := from.Center(), to.Center()
	dx, dy := tc.X-fc.X, tc.Y-fc.Y

	var fs, ts Side
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			fs, ts = SideRight, SideLeft
		} else {
			fs, ts = SideLeft, SideRight
		}
	} else {
		if dy > 0 {
			fs, ts = SideBottom, SideTop
		} else {
			fs, ts = SideTop, SideBottom
		}
	}

	if from.Kind.Category() == CategoryFreeform {
		fs = nearestEndpoint(from, tc)
	}
	if to.Kind.Category() == CategoryFreeform {
		ts = nearestEndpoint(to, fc)
	}
	return fs, ts
}

func nearestEndpoint(s Shape, target geom.Point) Side {
	start, end, _ := s.Points()
	if end.Dist(target) < start.Dist(target) {
		return SideEnd
	}
	return SideStart
}
