package route

import (
	"math"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
)

type Marker string

const (
	MarkerTriangle Marker = "triangle"
	MarkerOpen     Marker = "open"
	MarkerDiamond  Marker = "diamond"
)

// Decoration is an arrowhead or diamond drawn at one end of an edge. Tip is
// the anchor point; Angle is the direction the marker points, in radians.
type Decoration struct {
	Marker Marker     `json:"marker"`
	Filled bool       `json:"filled"`
	Tip    geom.Point `json:"tip"`
	Angle  float64    `json:"angle"`
	Size   float64    `json:"size"`
}

// MarkerSize scales markers with the stroke thickness.
func MarkerSize(thickness float64) float64 {
	return max(10, 4*thickness)
}

// Decorations places the markers for an arrow type. Orientation comes from
// the anchor side at each end so markers stay perpendicular to the shape
// edge whatever the routing. Line endpoint anchors fall back to the path
// direction at that end.
func Decorations(arrow document.ArrowType, p Path, fs, ts document.Side, thickness float64) []Decoration {
	size := MarkerSize(thickness)
	atTarget := func(m Marker, filled bool) Decoration {
		return Decoration{Marker: m, Filled: filled, Tip: p.End(), Angle: endAngle(p, ts, true), Size: size}
	}
	atSource := func(m Marker, filled bool) Decoration {
		return Decoration{Marker: m, Filled: filled, Tip: p.Start(), Angle: endAngle(p, fs, false), Size: size}
	}

	switch arrow {
	case document.ArrowFilled:
		return []Decoration{atTarget(MarkerTriangle, true)}
	case document.ArrowOpen:
		return []Decoration{atTarget(MarkerOpen, false)}
	case document.ArrowHollowTriangle:
		return []Decoration{atTarget(MarkerTriangle, false)}
	case document.ArrowFilledDiamond:
		return []Decoration{atSource(MarkerDiamond, true)}
	case document.ArrowHollowDiamond:
		return []Decoration{atSource(MarkerDiamond, false)}
	case document.ArrowDouble:
		return []Decoration{atSource(MarkerTriangle, true), atTarget(MarkerTriangle, true)}
	}
	return nil
}

// SideAngle is the direction pointing into a shape through the given side.
func SideAngle(s document.Side) (float64, bool) {
	switch s {
	case document.SideLeft:
		return 0, true
	case document.SideTop:
		return math.Pi / 2, true
	case document.SideRight:
		return math.Pi, true
	case document.SideBottom:
		return 3 * math.Pi / 2, true
	}
	return 0, false
}

func endAngle(p Path, s document.Side, target bool) float64 {
	if a, ok := SideAngle(s); ok {
		return a
	}
	pts := p.Polyline()
	if len(pts) < 2 {
		return 0
	}
	var from, to geom.Point
	if target {
		from, to = pts[len(pts)-2], pts[len(pts)-1]
	} else {
		from, to = pts[1], pts[0]
	}
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// Polygon returns the marker outline. Open markers are two strokes meeting
// at the tip and are returned as three points: wing, tip, wing.
func (d Decoration) Polygon() []geom.Point {
	dir := geom.Point{X: math.Cos(d.Angle), Y: math.Sin(d.Angle)}
	normal := geom.Point{X: -dir.Y, Y: dir.X}
	back := func(dist, side float64) geom.Point {
		return d.Tip.Sub(dir.Scale(dist)).Add(normal.Scale(side))
	}

	switch d.Marker {
	case MarkerDiamond:
		return []geom.Point{d.Tip, back(d.Size*0.8, d.Size*0.45), back(d.Size*1.6, 0), back(d.Size*0.8, -d.Size*0.45)}
	case MarkerOpen:
		return []geom.Point{back(d.Size, d.Size*0.5), d.Tip, back(d.Size, -d.Size*0.5)}
	default:
		return []geom.Point{d.Tip, back(d.Size, d.Size*0.5), back(d.Size, -d.Size*0.5)}
	}
}
