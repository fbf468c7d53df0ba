package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectUnionAndIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: 5, Width: 10, Height: 10}
	c := Rect{X: 10, Y: 0, Width: 5, Height: 5}

	assert.Equal(t, Rect{X: 0, Y: 0, Width: 15, Height: 15}, a.Union(b))
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c), "touching edges do not overlap")
	assert.Equal(t, b, Rect{}.Union(b))
}

func TestRectFromPoints(t *testing.T) {
	r := RectFromPoints(Point{X: 4, Y: 1}, Point{X: -2, Y: 3}, Point{X: 0, Y: -5})
	assert.Equal(t, Rect{X: -2, Y: -5, Width: 6, Height: 8}, r)
	assert.Equal(t, Point{X: 1, Y: -1}, r.Center())
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := Translate(30, -12).Multiply(Scale(2.5, 2.5))
	p := Point{X: 7, Y: 9}
	got := m.Invert().TransformPoint(m.TransformPoint(p))
	assert.InDelta(t, p.X, got.X, 1e-9)
	assert.InDelta(t, p.Y, got.Y, 1e-9)
}

func TestRotateDegrees(t *testing.T) {
	p := RotateDegrees(90).TransformPoint(Point{X: 1, Y: 0})
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 1, p.Y, 1e-9)
}

func TestDistanceToSegment(t *testing.T) {
	a, b := Point{X: 0, Y: 0}, Point{X: 10, Y: 0}
	assert.InDelta(t, 3, DistanceToSegment(Point{X: 5, Y: 3}, a, b), 1e-9)
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 13, Y: 4}, a, b), 1e-9)
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 3, Y: 4}, a, a), 1e-9)
}
