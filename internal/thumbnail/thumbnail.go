// Package thumbnail rasterizes the engine's draw commands to PNG.
package thumbnail

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/engine"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 400

	lineHeight = 1.25
)

var (
	background       = color.White
	imagePlaceholder = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
)

// RenderView renders the document through its own camera into a w x h PNG.
// A degenerate viewport yields a 1x1 placeholder instead of an error.
func RenderView(doc *document.Document, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return Placeholder()
	}
	cmds := engine.CompileDrawCommands(engine.BuildSceneGraph(doc, engine.View{}, nil))
	return Render(cmds, w, h)
}

// RenderFit renders the whole diagram scaled to fit a w x h PNG with the
// given padding in pixels. The document's camera is not used.
func RenderFit(doc *document.Document, w, h int, padding float64) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return Placeholder()
	}
	fitted := doc.Clone()
	fitted.Camera = Fit(doc, float64(w), float64(h), padding)
	return RenderView(fitted, w, h)
}

// Fit returns a camera that shows every shape and group inside a w x h
// viewport. Zoom is capped at 1 so small diagrams are not blown up.
func Fit(doc *document.Document, w, h, padding float64) document.Camera {
	var bounds geom.Rect
	first := true
	add := func(r geom.Rect) {
		if first {
			bounds, first = r, false
			return
		}
		bounds = bounds.Union(r)
	}
	for _, s := range doc.Shapes {
		add(s.Bounds())
	}
	for _, g := range doc.Groups {
		add(g.Rect())
	}
	if first || bounds.Width <= 0 || bounds.Height <= 0 {
		return document.DefaultCamera()
	}
	availW, availH := w-2*padding, h-2*padding
	if availW <= 0 || availH <= 0 {
		availW, availH = w, h
	}
	scale := min(availW/bounds.Width, availH/bounds.Height, 1)
	c := bounds.Center()
	return document.Camera{
		X:     w/2 - c.X*scale,
		Y:     h/2 - c.Y*scale,
		Scale: scale,
	}
}

// Placeholder returns a 1x1 white PNG.
func Placeholder() ([]byte, error) {
	dc := gg.NewContext(1, 1)
	dc.SetColor(background)
	dc.Clear()
	return encode(dc)
}

// Render rasterizes draw commands onto a white w x h canvas.
func Render(cmds []engine.DrawCommand, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return Placeholder()
	}
	dc := gg.NewContext(w, h)
	dc.SetColor(background)
	dc.Clear()

	for _, cmd := range cmds {
		m := matrixOf(cmd.Transform)
		switch cmd.Op {
		case engine.OpPath:
			drawPath(dc, cmd, m)
		case engine.OpText:
			if err := drawText(dc, cmd, m); err != nil {
				return nil, err
			}
		case engine.OpImage:
			drawImagePlaceholder(dc, cmd, m)
		}
	}
	return encode(dc)
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func matrixOf(t []float64) geom.Matrix2D {
	if len(t) != 6 {
		return geom.Identity()
	}
	return geom.Matrix2D{t[0], t[1], t[2], t[3], t[4], t[5]}
}

// scaleOf is the uniform scale factor of m, used for stroke widths and font
// sizes.
func scaleOf(m geom.Matrix2D) float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}

func drawPath(dc *gg.Context, cmd engine.DrawCommand, m geom.Matrix2D) {
	if !tracePath(dc, cmd.Path, m) {
		return
	}
	s := scaleOf(m)
	if c, ok := ParseColor(cmd.Fill, cmd.Opacity); ok {
		dc.SetColor(c)
		if cmd.Stroke != "" {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if c, ok := ParseColor(cmd.Stroke, cmd.Opacity); ok && cmd.StrokeWidth > 0 {
		dc.SetColor(c)
		dc.SetLineWidth(cmd.StrokeWidth * s)
		if len(cmd.Dash) > 0 {
			dash := make([]float64, len(cmd.Dash))
			for i, d := range cmd.Dash {
				dash[i] = d * s
			}
			dc.SetDash(dash...)
		} else {
			dc.SetDash()
		}
		dc.Stroke()
	}
	dc.ClearPath()
}

// tracePath replays path commands through m. It reports whether anything
// was traced.
func tracePath(dc *gg.Context, path []engine.PathCommand, m geom.Matrix2D) bool {
	traced := false
	pt := func(args []any, i int) (geom.Point, bool) {
		if i+1 >= len(args) {
			return geom.Point{}, false
		}
		x, okX := toFloat(args[i])
		y, okY := toFloat(args[i+1])
		return m.TransformPoint(geom.Point{X: x, Y: y}), okX && okY
	}
	for _, pc := range path {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		switch op {
		case "M":
			if p, ok := pt(pc, 1); ok {
				dc.MoveTo(p.X, p.Y)
				traced = true
			}
		case "L":
			if p, ok := pt(pc, 1); ok {
				dc.LineTo(p.X, p.Y)
			}
		case "Q":
			c1, ok1 := pt(pc, 1)
			p, ok2 := pt(pc, 3)
			if ok1 && ok2 {
				dc.QuadraticTo(c1.X, c1.Y, p.X, p.Y)
			}
		case "C":
			c1, ok1 := pt(pc, 1)
			c2, ok2 := pt(pc, 3)
			p, ok3 := pt(pc, 5)
			if ok1 && ok2 && ok3 {
				dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p.X, p.Y)
			}
		case "Z":
			dc.ClosePath()
		}
	}
	return traced
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

var (
	fontOnce sync.Once
	monoFont *truetype.Font
	fontErr  error

	facesMu sync.Mutex
	faces   = map[float64]font.Face{}
)

// face returns a cached monospace face of the given pixel size.
func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		monoFont, fontErr = truetype.Parse(gomono.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("parse font: %w", fontErr)
	}
	size = math.Round(size*2) / 2
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f := truetype.NewFace(monoFont, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	faces[size] = f
	return f, nil
}

func drawText(dc *gg.Context, cmd engine.DrawCommand, m geom.Matrix2D) error {
	c, ok := ParseColor(cmd.Fill, cmd.Opacity)
	if !ok || len(cmd.Lines) == 0 {
		return nil
	}
	s := scaleOf(m)
	size := cmd.FontSize * s
	if size < 1 {
		return nil
	}
	f, err := face(size)
	if err != nil {
		return err
	}
	dc.SetFontFace(f)
	dc.SetColor(c)

	x, ax := 0.0, 0.0
	switch cmd.TextAlign {
	case "center":
		x, ax = cmd.Width/2, 0.5
	case "right":
		x, ax = cmd.Width, 1
	}
	for i, line := range cmd.Lines {
		y := float64(i)*cmd.FontSize*lineHeight + cmd.FontSize
		if cmd.Height > 0 && y > cmd.Height+cmd.FontSize/2 {
			break
		}
		p := m.TransformPoint(geom.Point{X: x, Y: y})
		dc.DrawStringAnchored(line, p.X, p.Y, ax, 0)
	}
	return nil
}

func drawImagePlaceholder(dc *gg.Context, cmd engine.DrawCommand, m geom.Matrix2D) {
	tl := m.TransformPoint(geom.Point{})
	br := m.TransformPoint(geom.Point{X: cmd.Width, Y: cmd.Height})
	dc.DrawRectangle(tl.X, tl.Y, br.X-tl.X, br.Y-tl.Y)
	dc.SetColor(imagePlaceholder)
	dc.Fill()
}

// ParseColor parses "#rgb", "#rrggbb" and "#rrggbbaa" and multiplies the
// alpha by opacity. Empty, "none" and "transparent" report false.
func ParseColor(s string, opacity float64) (color.NRGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "none", "transparent":
		return color.NRGBA{}, false
	case "white":
		s = "#ffffff"
	case "black":
		s = "#000000"
	}
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(math.Round(float64(uint8(v)) * opacity)),
	}, true
}
