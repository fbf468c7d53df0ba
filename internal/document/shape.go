package document

import (
	"math"

	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
)

// Kind is the semantic type of a shape.
type Kind string

const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindIcon      Kind = "icon"
	KindSolid     Kind = "solid"
	KindLine      Kind = "line"
	KindArrow     Kind = "arrow"
	KindCircle    Kind = "circle"
	KindRectangle Kind = "rectangle"
	KindTriangle  Kind = "triangle"
)

// Category groups kinds that share a body variant and render path.
type Category int

const (
	CategoryPrimitive Category = iota
	CategoryText
	CategoryFreeform
	CategoryImage
	CategoryIcon
	CategoryComponent
)

// Category returns the body category for a kind. Unknown kinds render as primitives.
func (k Kind) Category() Category {
	switch k {
	case KindText:
		return CategoryText
	case KindLine, KindArrow:
		return CategoryFreeform
	case KindImage:
		return CategoryImage
	case KindIcon:
		return CategoryIcon
	case KindCircle, KindRectangle, KindTriangle, KindSolid:
		return CategoryPrimitive
	}
	if _, ok := componentSpecs[k]; ok {
		return CategoryComponent
	}
	return CategoryPrimitive
}

// IsTextLike reports whether the kind shows editable text and a resize handle.
func (k Kind) IsTextLike() bool {
	c := k.Category()
	return c == CategoryText || c == CategoryComponent
}

// Style holds the visual attributes shared by every kind.
type Style struct {
	Color           string  `json:"color"`
	BackgroundColor string  `json:"backgroundColor"`
	BorderColor     string  `json:"borderColor"`
	BorderWidth     float64 `json:"borderWidth"`
	FontSize        float64 `json:"fontSize"`
	FontStyle       string  `json:"fontStyle"`
}

// Body is the kind-specific content of a shape. Exactly one variant applies
// per category; see NewBody.
type Body interface {
	category() Category
}

// TextBody is free text shown over a filled background.
type TextBody struct {
	Text string `json:"text"`
}

// LineBody holds endpoint coordinates relative to the shape position:
// [x1, y1, x2, y2].
type LineBody struct {
	Points [4]float64 `json:"points"`
}

// PrimitiveBody is a filled circle, rectangle, triangle or solid block.
type PrimitiveBody struct{}

// ImageBody references a raster image.
type ImageBody struct {
	URL string `json:"url"`
}

// IconBody is SVG path data drawn in a 24x24 design box.
type IconBody struct {
	PathData string `json:"pathData"`
}

// ComponentBody is an architecture component. A non-empty Text replaces the icon.
type ComponentBody struct {
	Text string `json:"text"`
}

func (TextBody) category() Category      { return CategoryText }
func (LineBody) category() Category      { return CategoryFreeform }
func (PrimitiveBody) category() Category { return CategoryPrimitive }
func (ImageBody) category() Category     { return CategoryImage }
func (IconBody) category() Category      { return CategoryIcon }
func (ComponentBody) category() Category { return CategoryComponent }

// NewBody builds the body variant for kind from a content string and, for
// freeform kinds, the endpoint tuple.
func NewBody(kind Kind, content string, points []float64) Body {
	switch kind.Category() {
	case CategoryText:
		return TextBody{Text: content}
	case CategoryFreeform:
		var lb LineBody
		if len(points) == 4 {
			copy(lb.Points[:], points)
		} else {
			lb.Points = [4]float64{0, 0, DefaultLineLength, 0}
		}
		return lb
	case CategoryImage:
		return ImageBody{URL: content}
	case CategoryIcon:
		return IconBody{PathData: content}
	case CategoryComponent:
		return ComponentBody{Text: content}
	default:
		return PrimitiveBody{}
	}
}

// Shape is a placed visual element. Name is its immutable primary key.
type Shape struct {
	Name   string  `json:"name"`
	Kind   Kind    `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ZIndex int     `json:"zIndex"`
	Style  Style   `json:"style"`
	Body   Body    `json:"body"`
}

// Content returns the string content carried by the body: text, image URL
// or path data. Primitives and lines have none.
func (s Shape) Content() string {
	switch b := s.Body.(type) {
	case TextBody:
		return b.Text
	case ImageBody:
		return b.URL
	case IconBody:
		return b.PathData
	case ComponentBody:
		return b.Text
	default:
		return ""
	}
}

// Points returns the absolute endpoints of a line or arrow.
func (s Shape) Points() (start, end geom.Point, ok bool) {
	lb, isLine := s.Body.(LineBody)
	if !isLine {
		return geom.Point{}, geom.Point{}, false
	}
	start = geom.Point{X: s.X + lb.Points[0], Y: s.Y + lb.Points[1]}
	end = geom.Point{X: s.X + lb.Points[2], Y: s.Y + lb.Points[3]}
	return start, end, true
}

// Bounds returns the axis-aligned bounding box in scene coordinates. For
// lines it is the min/max of the endpoints.
func (s Shape) Bounds() geom.Rect {
	if start, end, ok := s.Points(); ok {
		return geom.RectFromPoints(start, end)
	}
	return geom.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// Center returns the center of the bounding box.
func (s Shape) Center() geom.Point {
	return s.Bounds().Center()
}

// Equal compares two shapes field by field.
func (s Shape) Equal(o Shape) bool {
	return s.Name == o.Name && s.Kind == o.Kind &&
		s.X == o.X && s.Y == o.Y && s.Width == o.Width && s.Height == o.Height &&
		s.ZIndex == o.ZIndex && s.Style == o.Style && s.Body == o.Body
}

// Translate returns the shape moved by (dx, dy). Line endpoints are relative
// and move with it.
func (s Shape) Translate(dx, dy float64) Shape {
	s.X += dx
	s.Y += dy
	return s
}

const (
	DefaultLineLength = 150.0
	MinTextWidth      = 60.0
	MinTextHeight     = 40.0
)

// DefaultSize returns the palette size for a kind.
func DefaultSize(kind Kind) (w, h float64) {
	if spec, ok := componentSpecs[kind]; ok {
		return spec.Width, spec.Height
	}
	switch kind {
	case KindText:
		return 160, 60
	case KindLine, KindArrow:
		return DefaultLineLength, 1
	case KindCircle:
		return 80, 80
	case KindTriangle:
		return 100, 90
	case KindImage:
		return 160, 120
	case KindIcon:
		return 48, 48
	default:
		return 120, 80
	}
}

// DefaultStyle returns the palette style for a kind.
func DefaultStyle(kind Kind) Style {
	if spec, ok := componentSpecs[kind]; ok {
		return Style{Color: spec.Color, BorderColor: spec.Color, BorderWidth: 2, FontSize: 14}
	}
	switch kind {
	case KindText:
		return Style{Color: "#111827", BackgroundColor: "#fef3c7", FontSize: 16}
	case KindLine, KindArrow:
		return Style{Color: "#374151", BorderWidth: 2}
	case KindIcon:
		return Style{Color: "#2563eb"}
	case KindSolid:
		return Style{Color: "#94a3b8"}
	default:
		return Style{Color: "#60a5fa", BorderColor: "#1d4ed8", BorderWidth: 1}
	}
}

// NewShape is the palette factory: a shape of the given kind with its default
// size, style and content at (x, y).
func NewShape(name string, kind Kind, x, y float64, z int) Shape {
	w, h := DefaultSize(kind)
	content := ""
	switch kind.Category() {
	case CategoryText:
		content = "Text"
	case CategoryIcon:
		content = IconPath(kind)
	}
	return Shape{
		Name:   name,
		Kind:   kind,
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
		ZIndex: max(z, 0),
		Style:  DefaultStyle(kind),
		Body:   NewBody(kind, content, nil),
	}
}

// Normalize enforces the shape invariants: positive size and non-negative
// z-index. A line without a usable size takes it from its endpoints.
func (s Shape) Normalize() Shape {
	if s.Body == nil {
		s.Body = NewBody(s.Kind, "", nil)
	}
	if _, _, ok := s.Points(); ok && (s.Width <= 0 || s.Height <= 0) {
		b := s.Bounds()
		s.Width = math.Max(b.Width, 1)
		s.Height = math.Max(b.Height, 1)
	}
	dw, dh := DefaultSize(s.Kind)
	if s.Width <= 0 {
		s.Width = dw
	}
	if s.Height <= 0 {
		s.Height = dh
	}
	if s.ZIndex < 0 {
		s.ZIndex = 0
	}
	return s
}

// IconPath returns the 24x24 path data for a vector icon or component kind.
func IconPath(kind Kind) string {
	if spec, ok := componentSpecs[kind]; ok {
		return spec.Icon
	}
	return defaultIconPath
}

const defaultIconPath = "M12 2L22 12L12 22L2 12Z"
