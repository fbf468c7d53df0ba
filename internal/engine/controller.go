package engine

import (
	"math"
	"time"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
	"github.com/sysdraw/sysdraw/backend-go/internal/route"
	"github.com/sysdraw/sysdraw/backend-go/internal/scene"
)

const (
	// HoldDelay is how long a touch must rest on an anchor to start a
	// connection drag.
	HoldDelay = time.Second
	// HoldTolerance is the screen distance a resting touch may drift.
	HoldTolerance = 4.0
)

// GestureState is the state of the pointer gesture state machine.
type GestureState int

const (
	Idle GestureState = iota
	ArmedForHold
	DraggingShape
	DraggingGroup
	ResizingShape
	ResizingGroup
	ConnectionDrag
	Panning
	Pinching
)

var gestureNames = [...]string{
	Idle:           "idle",
	ArmedForHold:   "armed",
	DraggingShape:  "dragging-shape",
	DraggingGroup:  "dragging-group",
	ResizingShape:  "resizing-shape",
	ResizingGroup:  "resizing-group",
	ConnectionDrag: "connection-drag",
	Panning:        "panning",
	Pinching:       "pinching",
}

func (s GestureState) String() string {
	if int(s) < len(gestureNames) {
		return gestureNames[s]
	}
	return "unknown"
}

// PointerEvent is a mouse or single-touch event in screen coordinates. At is
// the host's event timestamp.
type PointerEvent struct {
	Pos   geom.Point
	Touch bool
	At    time.Time
}

// gesture holds the per-drag cells. It is replaced wholesale on reset.
type gesture struct {
	state GestureState
	press geom.Point // screen position of pointer-down
	last  geom.Point // screen position of the previous event
	at    time.Time  // time of pointer-down

	shape   string
	side    document.Side
	offset  geom.Point // pointer minus shape origin, or minus the grabbed corner when resizing
	moved   bool
	group   string
	members []string
	applied geom.Point // group delta already dispatched

	anchor geom.Point // connection source anchor, scene units
	end    geom.Point
	target string

	pinchMid  geom.Point
	pinchDist float64
}

// Controller turns pointer, wheel, touch and key input into store actions
// and owns selection and editing state. Its methods must be called from one
// goroutine.
type Controller struct {
	store  *scene.Store
	routes *route.Cache

	activeShape      string
	activeGroup      string
	activeConnection string
	editing          string
	textFocus        bool
	connType         document.ConnectionType

	g      gesture
	resets uint64
}

func NewController(store *scene.Store, routes *route.Cache) *Controller {
	if routes == nil {
		routes = route.NewCache()
	}
	return &Controller{
		store:    store,
		routes:   routes,
		connType: document.DefaultConnectionType,
	}
}

// State returns the current gesture state.
func (c *Controller) State() GestureState { return c.g.state }

// Resets returns how many times gesture state has been forcibly cleared.
func (c *Controller) Resets() uint64 { return c.resets }

// View returns the selection and editing state for rendering. Selections
// whose target no longer exists are dropped.
func (c *Controller) View() View {
	doc := c.store.State()
	v := View{Editing: c.editing}
	if doc.HasShape(c.activeShape) {
		v.ActiveShape = c.activeShape
	}
	if doc.GroupIndex(c.activeGroup) >= 0 {
		v.ActiveGroup = c.activeGroup
	}
	if doc.ConnectionIndex(c.activeConnection) >= 0 {
		v.ActiveConnection = c.activeConnection
	}
	if !doc.HasShape(v.Editing) {
		v.Editing = ""
	}
	if c.g.state == ConnectionDrag {
		v.RubberBand = &RubberBand{From: c.g.anchor, To: c.g.end, Target: c.g.target}
	}
	return v
}

// ConnectionType is the type used for connections created by dragging.
func (c *Controller) ConnectionType() document.ConnectionType { return c.connType }

func (c *Controller) SetConnectionType(t document.ConnectionType) {
	c.connType = t
}

// SetTextFocus tells the controller whether a host text input has focus.
func (c *Controller) SetTextFocus(focused bool) { c.textFocus = focused }

func (c *Controller) Select(name string) {
	c.activeShape, c.activeGroup, c.activeConnection = name, "", ""
	if c.editing != name {
		c.editing = ""
	}
}

func (c *Controller) SelectGroup(id string) {
	c.activeShape, c.activeGroup, c.activeConnection = "", id, ""
	c.editing = ""
}

func (c *Controller) SelectConnection(id string) {
	c.activeShape, c.activeGroup, c.activeConnection = "", "", id
	c.editing = ""
}

// ClearSelection deselects everything and closes the inline editor.
func (c *Controller) ClearSelection() {
	c.activeShape, c.activeGroup, c.activeConnection = "", "", ""
	c.editing = ""
}

// Reset abandons any in-flight gesture. Changes already applied by a drag
// are kept and recorded as one undo step.
func (c *Controller) Reset() {
	c.resets++
	if c.store.InBatch() {
		c.store.EndBatch()
	}
	c.g = gesture{}
}

func (c *Controller) world(p geom.Point) geom.Point {
	return c.store.State().Camera.ScreenToWorld(p)
}

func (c *Controller) scale() float64 {
	return c.store.State().Camera.Scale
}

// PointerDown starts a gesture from whatever lies under the pointer.
func (c *Controller) PointerDown(e PointerEvent) {
	if c.g.state != Idle {
		c.Reset()
	}
	doc := c.store.State()
	p := c.world(e.Pos)
	hit := HitTest(doc, c.View(), p, c.scale(), c.routes)
	c.g = gesture{press: e.Pos, last: e.Pos, at: e.At}

	switch hit.Kind {
	case HitAnchor:
		c.Select(hit.Shape)
		s, _ := doc.Shape(hit.Shape)
		c.g.shape, c.g.side = hit.Shape, hit.Side
		c.g.offset = p.Sub(geom.Point{X: s.X, Y: s.Y})
		if e.Touch {
			c.g.state = ArmedForHold
			return
		}
		c.startConnectionDrag(p)

	case HitResize:
		c.Select(hit.Shape)
		s, _ := doc.Shape(hit.Shape)
		c.g.state, c.g.shape = ResizingShape, hit.Shape
		c.g.offset = p.Sub(geom.Point{X: s.X + s.Width, Y: s.Y + s.Height})
		c.store.BeginBatch()

	case HitGroupResize:
		c.SelectGroup(hit.Group)
		g, _ := doc.Group(hit.Group)
		c.g.state, c.g.group = ResizingGroup, hit.Group
		c.g.offset = p.Sub(geom.Point{X: g.X + g.Width, Y: g.Y + g.Height})
		c.store.BeginBatch()

	case HitShape:
		c.Select(hit.Shape)
		s, _ := doc.Shape(hit.Shape)
		c.g.shape = hit.Shape
		c.g.offset = p.Sub(geom.Point{X: s.X, Y: s.Y})
		c.g.state = DraggingShape
		c.store.BeginBatch()

	case HitConnection:
		c.SelectConnection(hit.Connection)

	case HitGroup:
		c.SelectGroup(hit.Group)
		g, _ := doc.Group(hit.Group)
		c.g.state, c.g.group = DraggingGroup, hit.Group
		c.g.members = g.Members(doc.Shapes)
		c.g.offset = p
		c.store.BeginBatch()

	default:
		c.ClearSelection()
		c.g.state = Panning
	}
}

func (c *Controller) startConnectionDrag(p geom.Point) {
	s, ok := c.store.State().Shape(c.g.shape)
	if !ok {
		c.g = gesture{}
		return
	}
	c.g.state = ConnectionDrag
	c.g.anchor = s.AnchorPoint(c.g.side)
	c.g.end = p
}

// PointerMove advances the active gesture. It reports whether anything
// visible changed.
func (c *Controller) PointerMove(e PointerEvent) bool {
	g := &c.g
	defer func() { g.last = e.Pos }()
	p := c.world(e.Pos)

	switch g.state {
	case ArmedForHold:
		if e.Pos.Dist(g.press) > HoldTolerance {
			// Moving before the hold completes drags the shape instead.
			g.state = DraggingShape
			c.store.BeginBatch()
			return c.dragShape(p)
		}
		if !e.At.Before(g.at.Add(HoldDelay)) {
			c.startConnectionDrag(p)
			return true
		}
		return false

	case DraggingShape:
		return c.dragShape(p)

	case DraggingGroup:
		total := p.Sub(g.offset)
		d := total.Sub(g.applied)
		if d.X == 0 && d.Y == 0 {
			return false
		}
		_, changed := c.store.Dispatch(scene.MoveGroup{ID: g.group, DX: d.X, DY: d.Y, Members: g.members})
		g.applied = total
		return changed

	case ResizingShape:
		s, ok := c.store.State().Shape(g.shape)
		if !ok {
			return false
		}
		corner := p.Sub(g.offset)
		w := max(corner.X-s.X, document.MinTextWidth)
		h := max(corner.Y-s.Y, document.MinTextHeight)
		_, changed := c.store.Dispatch(scene.UpdateShape{Name: g.shape, Patch: scene.ShapePatch{
			Width: scene.Float(w), Height: scene.Float(h),
		}})
		return changed

	case ResizingGroup:
		grp, ok := c.store.State().Group(g.group)
		if !ok {
			return false
		}
		corner := p.Sub(g.offset)
		_, changed := c.store.Dispatch(scene.UpdateGroup{ID: g.group, Patch: scene.GroupPatch{
			Width: scene.Float(corner.X - grp.X), Height: scene.Float(corner.Y - grp.Y),
		}})
		return changed

	case ConnectionDrag:
		g.end = p
		g.target, _ = DropTargetAt(c.store.State(), p, c.scale(), g.shape)
		return true

	case Panning:
		d := e.Pos.Sub(g.last)
		cam := c.store.State().Camera
		_, changed := c.store.Dispatch(scene.SetCamera{X: cam.X + d.X, Y: cam.Y + d.Y})
		return changed
	}
	return false
}

func (c *Controller) dragShape(p geom.Point) bool {
	pos := p.Sub(c.g.offset)
	_, changed := c.store.Dispatch(scene.UpdateShape{Name: c.g.shape, Patch: scene.ShapePatch{
		X: scene.Float(pos.X), Y: scene.Float(pos.Y),
	}})
	c.g.moved = c.g.moved || changed
	return changed
}

// Tick lets a resting touch complete its hold without further movement.
func (c *Controller) Tick(now time.Time) bool {
	if c.g.state != ArmedForHold || now.Before(c.g.at.Add(HoldDelay)) {
		return false
	}
	c.startConnectionDrag(c.world(c.g.last))
	return true
}

// PointerUp finishes the active gesture and returns to Idle.
func (c *Controller) PointerUp(e PointerEvent) bool {
	g := c.g
	p := c.world(e.Pos)
	changed := false

	switch g.state {
	case ArmedForHold:
		if !e.At.Before(g.at.Add(HoldDelay)) {
			// Held and released in place: nothing to connect.
			changed = true
		}
	case DraggingShape:
		if g.moved {
			c.store.Dispatch(scene.Reroute{Shape: g.shape})
			changed = true
		}
	case DraggingGroup, ResizingShape, ResizingGroup:
		changed = true
	case ConnectionDrag:
		if e.Pos.Dist(g.press) > HoldTolerance {
			c.finishConnection(p)
		}
		changed = true
	}

	if c.store.InBatch() {
		c.store.EndBatch()
	}
	c.g = gesture{}
	return changed
}

// finishConnection links the drag source to the shape under p, or to a
// duplicate of the source placed at p when p is over no shape. Releasing
// over the source itself creates nothing.
func (c *Controller) finishConnection(p geom.Point) {
	doc := c.store.State()
	src, ok := doc.Shape(c.g.shape)
	if !ok {
		return
	}

	if name, hit := DropTargetAt(doc, p, c.scale(), src.Name); hit {
		dst, _ := doc.Shape(name)
		fs, ts := document.OptimalAnchors(src, dst)
		c.store.Dispatch(scene.AddConnection{Connection: document.NewConnection("", src.Name, fs, dst.Name, ts, c.connType)})
		c.Select(dst.Name)
		return
	}

	if src.Bounds().ContainsPoint(p) {
		return
	}

	dup := src.Translate(p.X-src.Center().X, p.Y-src.Center().Y)
	dup.Name = document.DuplicateName(doc, src.Name)
	dup.ZIndex = doc.MaxZ() + 1
	fs, ts := document.OptimalAnchors(src, dup)

	c.store.BeginBatch()
	c.store.Dispatch(scene.AddShape{Shape: dup})
	c.store.Dispatch(scene.AddConnection{Connection: document.NewConnection("", src.Name, fs, dup.Name, ts, c.connType)})
	c.store.EndBatch()
	c.Select(dup.Name)
}

// Wheel zooms one step toward the pointer: in for negative deltaY, out
// otherwise. The scale stays within [MinZoom, MaxZoom] on a 0.1 grid.
func (c *Controller) Wheel(pos geom.Point, deltaY float64) bool {
	cam := c.store.State().Camera
	step := scene.ZoomStep
	if deltaY > 0 {
		step = -step
	}
	next := scene.ClampZoom(math.Round((cam.Scale+step)*10) / 10)
	if next == cam.Scale {
		return false
	}
	return c.zoomAt(pos, pos, next)
}

// zoomAt sets the scale so that the scene point under from ends up under to.
func (c *Controller) zoomAt(from, to geom.Point, scale float64) bool {
	w := c.world(from)
	_, changed := c.store.Dispatch(scene.SetZoom{
		Scale: scale,
		X:     to.X - w.X*scale,
		Y:     to.Y - w.Y*scale,
	})
	return changed
}

// Pinch handles a two-finger touch frame. The first frame of a pinch
// cancels any single-pointer gesture. Zoom is anchored at the midpoint of
// the touches and the midpoint's movement pans.
func (c *Controller) Pinch(a, b geom.Point) bool {
	mid := geom.Midpoint(a, b)
	dist := a.Dist(b)
	if c.g.state != Pinching {
		c.Reset()
		c.g = gesture{state: Pinching, pinchMid: mid, pinchDist: dist}
		return false
	}
	prevMid, prevDist := c.g.pinchMid, c.g.pinchDist
	c.g.pinchMid, c.g.pinchDist = mid, dist
	scale := c.scale()
	if prevDist > 0 && dist > 0 {
		scale = scene.ClampZoom(scale * dist / prevDist)
	}
	return c.zoomAt(prevMid, mid, scale)
}

// PinchEnd ends a two-finger gesture.
func (c *Controller) PinchEnd() {
	if c.g.state == Pinching {
		c.g = gesture{}
	}
}

// DoubleClick opens the inline editor on a text-like shape.
func (c *Controller) DoubleClick(pos geom.Point) bool {
	doc := c.store.State()
	name, ok := ShapeAt(doc, c.world(pos), c.scale(), "")
	if !ok {
		return false
	}
	s, _ := doc.Shape(name)
	if !s.Kind.IsTextLike() {
		return false
	}
	c.Select(name)
	c.editing = name
	return true
}

// Editing returns the shape whose text is being edited, if any.
func (c *Controller) Editing() string { return c.editing }

// CommitEdit stores the edited text and closes the editor.
func (c *Controller) CommitEdit(text string) bool {
	name := c.editing
	if name == "" {
		return false
	}
	c.editing = ""
	_, changed := c.store.Dispatch(scene.UpdateShape{Name: name, Patch: scene.ShapePatch{Content: scene.String(text)}})
	return changed
}

func (c *Controller) CancelEdit() { c.editing = "" }

// Key handles a keyboard key by its DOM key name. Delete and Backspace
// remove the selected shape, group or connection unless a text input has
// focus or the inline editor is open. Escape cancels the gesture and the
// selection.
func (c *Controller) Key(key string) bool {
	switch key {
	case "Delete", "Backspace":
		if c.textFocus || c.editing != "" {
			return false
		}
		v := c.View()
		var changed bool
		switch {
		case v.ActiveShape != "":
			_, changed = c.store.Dispatch(scene.RemoveShape{Name: v.ActiveShape})
		case v.ActiveGroup != "":
			_, changed = c.store.Dispatch(scene.RemoveGroup{ID: v.ActiveGroup})
		case v.ActiveConnection != "":
			_, changed = c.store.Dispatch(scene.RemoveConnection{ID: v.ActiveConnection})
		}
		if changed {
			c.ClearSelection()
		}
		return changed
	case "Escape":
		c.Reset()
		c.ClearSelection()
		return true
	}
	return false
}
