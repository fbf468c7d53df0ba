package engine

import (
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
)

// Node types.
const (
	NodeRoot       = "root"
	NodeLayer      = "layer"
	NodeGroup      = "group"
	NodeConnection = "connection"
	NodeShape      = "shape"
	NodeOverlay    = "overlay"
)

// SceneGraph is the render-ready state of the document for one frame.
// It is rebuilt when the document or the view state changes.
type SceneGraph struct {
	Root      *SceneNode
	NodesById map[string]*SceneNode
}

// SceneNode is a resolved node ready for rendering. Paths are in the node's
// local space; WorldTransform maps them to the screen.
type SceneNode struct {
	ID   string
	Type string

	WorldTransform geom.Matrix2D
	LocalTransform geom.Matrix2D

	Opacity float64
	Visible bool

	Parent   *SceneNode
	Children []*SceneNode

	Path        []PathCommand
	Fill        string
	Stroke      string
	StrokeWidth float64
	Dash        []float64

	// Text nodes
	Text      []string
	FontSize  float64
	FontStyle string
	TextAlign string

	ImageURL string

	// Local size of a text box or image
	BoxWidth  float64
	BoxHeight float64

	// Bounds in scene coordinates.
	Bounds geom.Rect
}

// PathCommand is a single path segment in Canvas2D form:
// ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []any

// NewSceneGraph creates a scene graph whose root applies the camera.
func NewSceneGraph(camera geom.Matrix2D) *SceneGraph {
	root := &SceneNode{
		ID:             NodeRoot,
		Type:           NodeRoot,
		WorldTransform: camera,
		LocalTransform: camera,
		Opacity:        1,
		Visible:        true,
	}
	return &SceneGraph{
		Root:      root,
		NodesById: map[string]*SceneNode{NodeRoot: root},
	}
}

// Layer adds a named child of the root. Layers keep painter's order between
// groups, connections, shapes and overlays.
func (sg *SceneGraph) Layer(id string) *SceneNode {
	if n, ok := sg.NodesById[id]; ok {
		return n
	}
	n := &SceneNode{ID: id, Type: NodeLayer, Opacity: 1, Visible: true}
	sg.attach(sg.Root, n, geom.Identity())
	return n
}

// Add attaches n under parent with a local transform and registers it by id
// when it has one.
func (sg *SceneGraph) Add(parent, n *SceneNode, local geom.Matrix2D) *SceneNode {
	if n.Opacity == 0 {
		n.Opacity = 1
	}
	n.Visible = true
	sg.attach(parent, n, local)
	return n
}

func (sg *SceneGraph) attach(parent, n *SceneNode, local geom.Matrix2D) {
	n.Parent = parent
	n.LocalTransform = local
	n.WorldTransform = parent.WorldTransform.Multiply(local)
	n.Opacity *= parent.Opacity
	parent.Children = append(parent.Children, n)
	if n.ID != "" {
		if _, taken := sg.NodesById[n.ID]; !taken {
			sg.NodesById[n.ID] = n
		}
	}
}

func rectPath(w, h float64) []PathCommand {
	return []PathCommand{
		{"M", 0.0, 0.0},
		{"L", w, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

// ellipsePath approximates an ellipse inscribed in a w x h box with four
// cubic curves.
func ellipsePath(w, h float64) []PathCommand {
	rx, ry := w/2, h/2
	const k = 0.5522847498
	kx, ky := rx*k, ry*k
	cx, cy := rx, ry
	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}

func trianglePath(w, h float64) []PathCommand {
	return []PathCommand{
		{"M", w / 2, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

func polylinePath(pts []geom.Point, closed bool) []PathCommand {
	if len(pts) == 0 {
		return nil
	}
	out := make([]PathCommand, 0, len(pts)+1)
	out = append(out, PathCommand{"M", pts[0].X, pts[0].Y})
	for _, p := range pts[1:] {
		out = append(out, PathCommand{"L", p.X, p.Y})
	}
	if closed {
		out = append(out, PathCommand{"Z"})
	}
	return out
}

func bezierPath(p []geom.Point) []PathCommand {
	return []PathCommand{
		{"M", p[0].X, p[0].Y},
		{"C", p[1].X, p[1].Y, p[2].X, p[2].Y, p[3].X, p[3].Y},
	}
}

// circlePath is a circle of radius r centered on c.
func circlePath(c geom.Point, r float64) []PathCommand {
	path := ellipsePath(2*r, 2*r)
	for _, cmd := range path {
		for i := 1; i+1 < len(cmd); i += 2 {
			cmd[i] = cmd[i].(float64) + c.X - r
			cmd[i+1] = cmd[i+1].(float64) + c.Y - r
		}
	}
	return path
}
