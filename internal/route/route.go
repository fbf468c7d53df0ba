package route

import (
	"math"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
)

const (
	// MinSegment is the shortest perpendicular exit from an anchor.
	MinSegment = 20.0
	// Margin is the extra clearance of a detour beyond half the gap.
	Margin = 20.0
	// MaxCurveOffset caps the bezier control point distance.
	MaxCurveOffset = 150.0
)

// Path is a routed edge. Polylines list their vertices; curves list
// start, control 1, control 2, end.
type Path struct {
	Points []geom.Point `json:"points"`
	Curved bool         `json:"curved"`
}

// Start returns the first point of the path.
func (p Path) Start() geom.Point {
	if len(p.Points) == 0 {
		return geom.Point{}
	}
	return p.Points[0]
}

// End returns the last point of the path.
func (p Path) End() geom.Point {
	if len(p.Points) == 0 {
		return geom.Point{}
	}
	return p.Points[len(p.Points)-1]
}

// Polyline returns the path as line segments, flattening curves.
func (p Path) Polyline() []geom.Point {
	if !p.Curved || len(p.Points) != 4 {
		return p.Points
	}
	const steps = 24
	out := make([]geom.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		out = append(out, bezier(p.Points, float64(i)/steps))
	}
	return out
}

// Distance returns the shortest distance from q to the path.
func (p Path) Distance(q geom.Point) float64 {
	pts := p.Polyline()
	if len(pts) == 0 {
		return math.Inf(1)
	}
	if len(pts) == 1 {
		return q.Dist(pts[0])
	}
	best := math.Inf(1)
	for i := 1; i < len(pts); i++ {
		best = min(best, geom.DistanceToSegment(q, pts[i-1], pts[i]))
	}
	return best
}

// Bounds returns the bounding box of the path vertices and control points.
func (p Path) Bounds() geom.Rect {
	return geom.RectFromPoints(p.Points...)
}

// Midpoint returns a point halfway along the flattened path.
func (p Path) Midpoint() geom.Point {
	pts := p.Polyline()
	if len(pts) == 0 {
		return geom.Point{}
	}
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Dist(pts[i])
	}
	half := total / 2
	for i := 1; i < len(pts); i++ {
		seg := pts[i-1].Dist(pts[i])
		if seg >= half && seg > 0 {
			t := half / seg
			return pts[i-1].Add(pts[i].Sub(pts[i-1]).Scale(t))
		}
		half -= seg
	}
	return pts[len(pts)-1]
}

func bezier(p []geom.Point, t float64) geom.Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return geom.Point{
		X: a*p[0].X + b*p[1].X + c*p[2].X + d*p[3].X,
		Y: a*p[0].Y + b*p[1].Y + c*p[2].Y + d*p[3].Y,
	}
}

// Route computes the path between two anchor points for a routing pattern.
func Route(from, to geom.Point, fs, ts document.Side, pattern document.RoutingPattern) Path {
	switch pattern {
	case document.RouteCurved:
		return Path{Points: Curved(from, to), Curved: true}
	case document.RouteStepped:
		return Path{Points: Stepped(from, to)}
	default:
		return Path{Points: Orthogonal(from, to, fs, ts)}
	}
}

// Curved returns the cubic bezier [start, c1, c2, end]. Control points are
// pushed along the axis with the larger delta, giving an S-curve.
func Curved(from, to geom.Point) []geom.Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	off := min(from.Dist(to)/2, MaxCurveOffset)
	var c1, c2 geom.Point
	if math.Abs(dx) >= math.Abs(dy) {
		s := sign(dx)
		c1 = geom.Point{X: from.X + s*off, Y: from.Y}
		c2 = geom.Point{X: to.X - s*off, Y: to.Y}
	} else {
		s := sign(dy)
		c1 = geom.Point{X: from.X, Y: from.Y + s*off}
		c2 = geom.Point{X: to.X, Y: to.Y - s*off}
	}
	return []geom.Point{from, c1, c2, to}
}

// Stepped returns a single-bend path: horizontal first, then vertical.
func Stepped(from, to geom.Point) []geom.Point {
	return simplify([]geom.Point{from, {X: to.X, Y: from.Y}, to})
}

// Orthogonal returns a right-angle polyline between two anchors.
func Orthogonal(from, to geom.Point, fs, ts document.Side) []geom.Point {
	fs = effectiveSide(fs, from, to)
	ts = effectiveSide(ts, to, from)

	switch {
	case fs.Horizontal() && ts.Horizontal():
		return simplify(parallel(from, to, fs, ts, false))
	case fs.Vertical() && ts.Vertical():
		return simplify(parallel(from, to, fs, ts, true))
	case fs.Horizontal() && ts.Vertical(), fs.Vertical() && ts.Horizontal():
		return simplify(mixed(from, to, fs, ts))
	}
	return simplify(midpointH(from, to))
}

// effectiveSide maps line endpoint anchors, which have no facing, to the box
// side pointing at the other end of the edge.
func effectiveSide(s document.Side, at, other geom.Point) document.Side {
	if s.Horizontal() || s.Vertical() {
		return s
	}
	dx, dy := other.X-at.X, other.Y-at.Y
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return document.SideRight
		}
		return document.SideLeft
	}
	if dy >= 0 {
		return document.SideBottom
	}
	return document.SideTop
}

func midpointH(from, to geom.Point) []geom.Point {
	mx := (from.X + to.X) / 2
	return []geom.Point{from, {X: mx, Y: from.Y}, {X: mx, Y: to.Y}, to}
}

func midpointV(from, to geom.Point) []geom.Point {
	my := (from.Y + to.Y) / 2
	return []geom.Point{from, {X: from.X, Y: my}, {X: to.X, Y: my}, to}
}

// parallel routes two anchors on the same axis. vertical selects top/bottom.
func parallel(from, to geom.Point, fs, ts document.Side, vertical bool) []geom.Point {
	df, dt := fs.Normal(), ts.Normal()

	along := to.X - from.X
	exit := df.X
	if vertical {
		along = to.Y - from.Y
		exit = df.Y
	}

	// Same facing: both anchors open the same way.
	if fs == ts {
		if vertical {
			return midpointV(from, to)
		}
		return midpointH(from, to)
	}
	// Opposite sides and the source opens toward the target.
	if exit*along > 0 {
		if vertical {
			return midpointV(from, to)
		}
		return midpointH(from, to)
	}

	// Facing away or overlapping: leave each anchor, go around, come back.
	p1 := from.Add(df.Scale(MinSegment))
	p4 := to.Add(dt.Scale(MinSegment))
	if vertical {
		offset := math.Abs(to.X-from.X)/2 + Margin
		x := max(from.X, to.X) + offset
		return []geom.Point{from, p1, {X: x, Y: p1.Y}, {X: x, Y: p4.Y}, p4, to}
	}
	offset := math.Abs(to.Y-from.Y)/2 + Margin
	y := max(from.Y, to.Y) + offset
	return []geom.Point{from, p1, {X: p1.X, Y: y}, {X: p4.X, Y: y}, p4, to}
}

// mixed routes one horizontal and one vertical anchor.
func mixed(from, to geom.Point, fs, ts document.Side) []geom.Point {
	df, dt := fs.Normal(), ts.Normal()

	if fs.Horizontal() {
		corner := geom.Point{X: to.X, Y: from.Y}
		exitOK := df.X*(corner.X-from.X) >= MinSegment
		entryOK := dt.Y*(corner.Y-to.Y) >= MinSegment
		if exitOK && entryOK {
			return []geom.Point{from, corner, to}
		}
		p1 := from.Add(df.Scale(MinSegment))
		p2 := to.Add(dt.Scale(MinSegment))
		return []geom.Point{from, p1, {X: p1.X, Y: p2.Y}, p2, to}
	}

	corner := geom.Point{X: from.X, Y: to.Y}
	exitOK := df.Y*(corner.Y-from.Y) >= MinSegment
	entryOK := dt.X*(corner.X-to.X) >= MinSegment
	if exitOK && entryOK {
		return []geom.Point{from, corner, to}
	}
	p1 := from.Add(df.Scale(MinSegment))
	p2 := to.Add(dt.Scale(MinSegment))
	return []geom.Point{from, p1, {X: p2.X, Y: p1.Y}, p2, to}
}

// simplify drops repeated points and interior points on a straight run.
func simplify(pts []geom.Point) []geom.Point {
	const eps = 1e-9
	out := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Dist(p) < eps {
			continue
		}
		out = append(out, p)
		for len(out) >= 3 {
			a, b, c := out[len(out)-3], out[len(out)-2], out[len(out)-1]
			cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
			dot := (b.X-a.X)*(c.X-b.X) + (b.Y-a.Y)*(c.Y-b.Y)
			if math.Abs(cross) > eps || dot < 0 {
				break
			}
			out = append(out[:len(out)-2], c)
		}
	}
	return out
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
