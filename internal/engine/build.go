package engine

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
	"github.com/sysdraw/sysdraw/backend-go/internal/route"
)

const (
	// SelectionMargin expands the selection outline around a shape.
	SelectionMargin = 6.0
	// AnchorRadius is the screen-independent radius of an anchor handle.
	AnchorRadius = 6.0
	// HandleSize is the side of a corner resize handle.
	HandleSize = 10.0
	// OccludedOpacity is applied to shapes covered by a higher shape.
	OccludedOpacity = 0.4

	SelectionColor = "#2563eb"
	HandleFill     = "#ffffff"
	HighlightColor = "#93c5fd"
)

// View is the non-document state that affects rendering.
type View struct {
	ActiveShape      string
	ActiveGroup      string
	ActiveConnection string
	Editing          string
	// Rubber band of an in-progress connection drag, in scene coordinates.
	RubberBand *RubberBand
}

type RubberBand struct {
	From   geom.Point
	To     geom.Point
	Target string
}

// Layer ids, in paint order.
const (
	layerGroups      = "layer:groups"
	layerConnections = "layer:connections"
	layerShapes      = "layer:shapes"
	layerOverlay     = "layer:overlay"
)

// BuildSceneGraph builds a render-ready scene graph for the document. Groups
// paint first, then connections, then shapes by z-index, then selection
// affordances. routes may be nil.
func BuildSceneGraph(doc *document.Document, view View, routes *route.Cache) *SceneGraph {
	sg := NewSceneGraph(doc.Camera.Matrix())
	groups := sg.Layer(layerGroups)
	conns := sg.Layer(layerConnections)
	shapes := sg.Layer(layerShapes)
	overlay := sg.Layer(layerOverlay)

	for _, g := range doc.Groups {
		buildGroup(sg, groups, g, g.ID == view.ActiveGroup)
	}

	if routes == nil {
		routes = route.NewCache()
	}
	for _, r := range routes.All(doc) {
		buildConnection(sg, conns, r, r.ID == view.ActiveConnection)
	}

	for _, i := range PaintOrder(doc.Shapes) {
		s := doc.Shapes[i]
		opacity := 1.0
		if s.Name != view.ActiveShape && Occluded(doc.Shapes, i) {
			opacity = OccludedOpacity
		}
		buildShape(sg, shapes, s, opacity)
	}

	if s, ok := doc.Shape(view.ActiveShape); ok {
		buildSelection(sg, overlay, s)
	}
	if rb := view.RubberBand; rb != nil {
		buildRubberBand(sg, overlay, doc, *rb)
	}
	return sg
}

// PaintOrder returns shape indexes back to front: by z-index, then by
// position in the document.
func PaintOrder(shapes []document.Shape) []int {
	order := make([]int, len(shapes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(shapes[a].ZIndex, shapes[b].ZIndex)
	})
	return order
}

// Occluded reports whether shapes[i] overlaps any shape with a strictly
// higher z-index.
func Occluded(shapes []document.Shape, i int) bool {
	s := shapes[i]
	b := s.Bounds()
	for j, o := range shapes {
		if j != i && o.ZIndex > s.ZIndex && o.Bounds().Intersects(b) {
			return true
		}
	}
	return false
}

func buildShape(sg *SceneGraph, parent *SceneNode, s document.Shape, opacity float64) {
	node := sg.Add(parent, &SceneNode{
		ID:      "shape:" + s.Name,
		Type:    NodeShape,
		Opacity: opacity,
		Bounds:  s.Bounds(),
	}, geom.Translate(s.X, s.Y))

	w, h := s.Width, s.Height
	st := s.Style

	switch b := s.Body.(type) {
	case document.TextBody:
		sg.Add(node, &SceneNode{Path: rectPath(w, h), Fill: st.BackgroundColor}, geom.Identity())
		addText(sg, node, b.Text, w, h, st, "left")

	case document.LineBody:
		start := geom.Point{X: b.Points[0], Y: b.Points[1]}
		end := geom.Point{X: b.Points[2], Y: b.Points[3]}
		sg.Add(node, &SceneNode{
			Path:        polylinePath([]geom.Point{start, end}, false),
			Stroke:      st.Color,
			StrokeWidth: strokeWidth(st.BorderWidth, 2),
		}, geom.Identity())
		if s.Kind == document.KindArrow {
			head := route.Decoration{
				Marker: route.MarkerTriangle,
				Filled: true,
				Tip:    end,
				Angle:  math.Atan2(end.Y-start.Y, end.X-start.X),
				Size:   route.MarkerSize(st.BorderWidth),
			}
			sg.Add(node, &SceneNode{Path: polylinePath(head.Polygon(), true), Fill: st.Color}, geom.Identity())
		}

	case document.PrimitiveBody:
		var path []PathCommand
		switch s.Kind {
		case document.KindCircle:
			path = ellipsePath(w, h)
		case document.KindTriangle:
			path = trianglePath(w, h)
		default:
			path = rectPath(w, h)
		}
		sg.Add(node, &SceneNode{
			Path:        path,
			Fill:        st.Color,
			Stroke:      st.BorderColor,
			StrokeWidth: st.BorderWidth,
		}, geom.Identity())

	case document.IconBody:
		addIcon(sg, node, b.PathData, 0, 0, w, h, st.Color, true)

	case document.ImageBody:
		sg.Add(node, &SceneNode{ImageURL: b.URL, BoxWidth: w, BoxHeight: h}, geom.Identity())

	case document.ComponentBody:
		sg.Add(node, &SceneNode{
			Path:        rectPath(w, h),
			Stroke:      cmp.Or(st.BorderColor, st.Color),
			StrokeWidth: strokeWidth(st.BorderWidth, 2),
		}, geom.Identity())
		if strings.TrimSpace(b.Text) != "" {
			addText(sg, node, b.Text, w, h, st, "center")
			break
		}
		size := min(w, h) * 0.5
		addIcon(sg, node, document.IconPath(s.Kind), (w-size)/2, (h-size)/2-8, size, size, st.Color, false)
		if spec, ok := document.Component(s.Kind); ok {
			sg.Add(node, &SceneNode{
				Text:      []string{spec.Label},
				Fill:      st.Color,
				FontSize:  12,
				TextAlign: "center",
				BoxWidth:  w,
				BoxHeight: 16,
			}, geom.Translate(0, h-20))
		}
	}
}

func strokeWidth(w, fallback float64) float64 {
	if w > 0 {
		return w
	}
	return fallback
}

func addText(sg *SceneGraph, parent *SceneNode, text string, w, h float64, st document.Style, align string) {
	fontSize := st.FontSize
	if fontSize <= 0 {
		fontSize = 14
	}
	const pad = 6.0
	sg.Add(parent, &SceneNode{
		Text:      WrapText(text, w-2*pad, fontSize),
		Fill:      st.Color,
		FontSize:  fontSize,
		FontStyle: st.FontStyle,
		TextAlign: align,
		BoxWidth:  w - 2*pad,
		BoxHeight: h - 2*pad,
	}, geom.Translate(pad, pad))
}

var iconCache sync.Map // path data -> []PathCommand

func iconPath(data string) []PathCommand {
	if v, ok := iconCache.Load(data); ok {
		return v.([]PathCommand)
	}
	path, err := ParseSVGPath(data)
	if err != nil || len(path) == 0 {
		path = rectPath(24, 24)
	}
	iconCache.Store(data, path)
	return path
}

// addIcon draws 24x24 path data scaled into the box (x, y, w, h). Icon
// shapes are filled with color; component glyphs are stroked.
func addIcon(sg *SceneGraph, parent *SceneNode, data string, x, y, w, h float64, color string, fill bool) {
	if data == "" || w <= 0 || h <= 0 {
		return
	}
	n := &SceneNode{Path: iconPath(data)}
	if fill {
		n.Fill = color
	} else {
		n.Stroke, n.StrokeWidth = color, 1.5
	}
	sg.Add(parent, n, geom.Translate(x, y).Multiply(geom.Scale(w/24, h/24)))
}

// WrapText breaks text into lines that fit maxWidth, estimating glyph width
// as 0.6 of the font size. Explicit newlines are kept; a word longer than a
// line is broken by characters.
func WrapText(text string, maxWidth, fontSize float64) []string {
	if text == "" {
		return nil
	}
	perLine := int(maxWidth / (fontSize * 0.6))
	if perLine < 1 {
		perLine = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		var line []rune
		for _, word := range strings.Fields(para) {
			w := []rune(word)
			for len(w) > perLine {
				if len(line) > 0 {
					lines = append(lines, string(line))
					line = nil
				}
				lines = append(lines, string(w[:perLine]))
				w = w[perLine:]
			}
			switch {
			case len(line) == 0:
				line = w
			case len(line)+1+len(w) <= perLine:
				line = append(append(line, ' '), w...)
			default:
				lines = append(lines, string(line))
				line = w
			}
		}
		lines = append(lines, string(line))
	}
	return lines
}

func buildGroup(sg *SceneGraph, parent *SceneNode, g document.Group, selected bool) {
	node := sg.Add(parent, &SceneNode{
		ID:     "group:" + g.ID,
		Type:   NodeGroup,
		Bounds: g.Rect(),
	}, geom.Translate(g.X, g.Y))

	sg.Add(node, &SceneNode{
		Path:        rectPath(g.Width, g.Height),
		Fill:        g.BorderColor + "1a",
		Stroke:      g.BorderColor,
		StrokeWidth: g.BorderThickness,
		Dash:        g.BorderStyle.Pattern(g.BorderThickness),
	}, geom.Identity())
	if label := cmp.Or(g.DisplayName, g.Name); label != "" {
		sg.Add(node, &SceneNode{
			Text:      []string{label},
			Fill:      g.BorderColor,
			FontSize:  13,
			FontStyle: "bold",
			BoxWidth:  g.Width - 16,
			BoxHeight: 18,
		}, geom.Translate(8, 6))
	}
	if selected {
		sg.Add(node, &SceneNode{
			ID:          "group-resize:" + g.ID,
			Type:        NodeOverlay,
			Path:        rectPath(HandleSize, HandleSize),
			Fill:        HandleFill,
			Stroke:      g.BorderColor,
			StrokeWidth: 1.5,
		}, geom.Translate(g.Width-HandleSize/2, g.Height-HandleSize/2))
	}
}

func buildConnection(sg *SceneGraph, parent *SceneNode, r route.Routed, selected bool) {
	st := r.Style
	var path []PathCommand
	if r.Path.Curved {
		path = bezierPath(r.Path.Points)
	} else {
		path = polylinePath(r.Path.Points, false)
	}
	node := sg.Add(parent, &SceneNode{
		ID:     "conn:" + r.ID,
		Type:   NodeConnection,
		Bounds: r.Path.Bounds(),
	}, geom.Identity())

	if selected {
		sg.Add(node, &SceneNode{
			Path:        path,
			Stroke:      HighlightColor,
			StrokeWidth: st.Thickness + 6,
			Opacity:     0.6,
		}, geom.Identity())
	}
	sg.Add(node, &SceneNode{
		Path:        path,
		Stroke:      st.Color,
		StrokeWidth: st.Thickness,
		Dash:        st.Dash.Pattern(st.Thickness),
	}, geom.Identity())

	for _, d := range r.Decorations {
		poly := d.Polygon()
		m := &SceneNode{Stroke: st.Color, StrokeWidth: st.Thickness}
		switch {
		case d.Marker == route.MarkerOpen:
			m.Path = polylinePath(poly, false)
		case d.Filled:
			m.Path = polylinePath(poly, true)
			m.Fill = st.Color
		default:
			m.Path = polylinePath(poly, true)
			m.Fill = HandleFill
		}
		sg.Add(node, m, geom.Identity())
	}
}

// buildSelection draws the outline, anchor handles and, for text-like kinds,
// the resize handle of the active shape.
func buildSelection(sg *SceneGraph, parent *SceneNode, s document.Shape) {
	b := s.Bounds().Expand(SelectionMargin)
	sg.Add(parent, &SceneNode{
		ID:          "selection:" + s.Name,
		Type:        NodeOverlay,
		Path:        rectPath(b.Width, b.Height),
		Stroke:      SelectionColor,
		StrokeWidth: 1,
		Dash:        []float64{4, 4},
	}, geom.Translate(b.X, b.Y))

	for _, side := range s.Sides() {
		sg.Add(parent, &SceneNode{
			ID:          "anchor:" + s.Name + ":" + string(side),
			Type:        NodeOverlay,
			Path:        circlePath(s.AnchorPoint(side), AnchorRadius),
			Fill:        HandleFill,
			Stroke:      SelectionColor,
			StrokeWidth: 1.5,
		}, geom.Identity())
	}

	if s.Kind.IsTextLike() {
		sg.Add(parent, &SceneNode{
			ID:          "resize:" + s.Name,
			Type:        NodeOverlay,
			Path:        rectPath(HandleSize, HandleSize),
			Fill:        SelectionColor,
			StrokeWidth: 0,
		}, geom.Translate(s.X+s.Width-HandleSize/2, s.Y+s.Height-HandleSize/2))
	}
}

func buildRubberBand(sg *SceneGraph, parent *SceneNode, doc *document.Document, rb RubberBand) {
	if t, ok := doc.Shape(rb.Target); ok {
		b := t.Bounds().Expand(SelectionMargin)
		sg.Add(parent, &SceneNode{
			ID:          "drop-target:" + t.Name,
			Type:        NodeOverlay,
			Path:        rectPath(b.Width, b.Height),
			Stroke:      HighlightColor,
			StrokeWidth: 2,
		}, geom.Translate(b.X, b.Y))
	}
	sg.Add(parent, &SceneNode{
		ID:          "rubber-band",
		Type:        NodeOverlay,
		Path:        polylinePath([]geom.Point{rb.From, rb.To}, false),
		Stroke:      SelectionColor,
		StrokeWidth: 1.5,
		Dash:        []float64{6, 4},
	}, geom.Identity())
}
