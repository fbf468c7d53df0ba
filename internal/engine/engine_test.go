package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
	"github.com/sysdraw/sysdraw/backend-go/internal/scene"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func pt(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }

func mouse(x, y float64) PointerEvent {
	return PointerEvent{Pos: pt(x, y), At: epoch}
}

func touch(x, y float64, after time.Duration) PointerEvent {
	return PointerEvent{Pos: pt(x, y), Touch: true, At: epoch.Add(after)}
}

func rect(name string, x, y, w, h float64) document.Shape {
	s := document.NewShape(name, document.KindRectangle, x, y, 0)
	s.Width, s.Height = w, h
	return s
}

// twoRects sets up shapes A and B side by side with A selected.
func twoRects(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(nil)
	require.True(t, e.Dispatch(scene.AddShape{Shape: rect("A", 100, 100, 120, 80)}))
	require.True(t, e.Dispatch(scene.AddShape{Shape: rect("B", 400, 100, 120, 80)}))
	e.Controller().Select("A")
	return e
}

func TestDragConnectionToTarget(t *testing.T) {
	e := twoRects(t)
	ctl := e.Controller()

	ctl.PointerDown(mouse(220, 140))
	require.Equal(t, ConnectionDrag, ctl.State())
	assert.Empty(t, e.Document().Connections, "no mutation while dragging")

	ctl.PointerMove(mouse(460, 140))
	rb := ctl.View().RubberBand
	require.NotNil(t, rb)
	assert.Equal(t, pt(220, 140), rb.From)
	assert.Equal(t, "B", rb.Target)

	ctl.PointerUp(mouse(460, 140))
	assert.Equal(t, Idle, ctl.State())

	conns := e.Document().Connections
	require.Len(t, conns, 1)
	c := conns[0]
	assert.Equal(t, "A", c.From)
	assert.Equal(t, "B", c.To)
	assert.Equal(t, document.SideRight, c.FromSide)
	assert.Equal(t, document.SideLeft, c.ToSide)
	assert.Equal(t, document.ConnAssociation, c.Type)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "B", e.Selection().Shape, "target becomes selected")

	// Deleting the target cascades to the connection and leaves A alone.
	a, _ := e.Document().Shape("A")
	require.True(t, ctl.Key("Delete"))
	assert.False(t, e.Document().HasShape("B"))
	assert.Empty(t, e.Document().Connections)
	after, ok := e.Document().Shape("A")
	require.True(t, ok)
	assert.True(t, a.Equal(after))
}

func TestDragLineEndpointToEmptySpaceDuplicates(t *testing.T) {
	e := NewEngine(nil)
	line := document.NewShape("line-1", document.KindLine, 100, 100, 0)
	require.True(t, e.Dispatch(scene.AddShape{Shape: line}))
	ctl := e.Controller()
	ctl.Select("line-1")

	start := line.AnchorPoint(document.SideStart)
	ctl.PointerDown(mouse(start.X, start.Y))
	require.Equal(t, ConnectionDrag, ctl.State())
	ctl.PointerMove(mouse(start.X-40, start.Y))
	ctl.PointerUp(mouse(start.X-40, start.Y))

	doc := e.Document()
	dup, ok := doc.Shape("line-1-copy")
	require.True(t, ok, "source is duplicated")
	assert.Equal(t, document.KindLine, dup.Kind)
	assert.Equal(t, pt(start.X-40, start.Y), dup.Center())
	assert.Greater(t, dup.ZIndex, line.ZIndex)

	require.Len(t, doc.Connections, 1)
	assert.Equal(t, "line-1", doc.Connections[0].From)
	assert.Equal(t, "line-1-copy", doc.Connections[0].To)
	assert.Equal(t, "line-1-copy", e.Selection().Shape)

	require.True(t, e.Undo())
	assert.False(t, e.Document().HasShape("line-1-copy"), "duplicate and link undo together")
	assert.Empty(t, e.Document().Connections)
}

func TestClickOnAnchorWithoutDragCreatesNothing(t *testing.T) {
	e := twoRects(t)
	e.Controller().PointerDown(mouse(220, 140))
	e.Controller().PointerUp(mouse(221, 140))
	assert.Len(t, e.Document().Shapes, 2)
	assert.Empty(t, e.Document().Connections)
}

func TestReleaseOverSourceCreatesNothing(t *testing.T) {
	e := twoRects(t)
	ctl := e.Controller()

	ctl.PointerDown(mouse(220, 140))
	require.Equal(t, ConnectionDrag, ctl.State())
	ctl.PointerMove(mouse(150, 140))
	ctl.PointerUp(mouse(150, 140))

	assert.Equal(t, Idle, ctl.State())
	assert.Len(t, e.Document().Shapes, 2)
	assert.Empty(t, e.Document().Connections)
	assert.False(t, e.Document().HasShape("A-copy"))
}

func TestDropOnLineBoundingBoxConnects(t *testing.T) {
	e := twoRects(t)
	l := document.NewShape("L", document.KindLine, 400, 300, 0)
	l.Body = document.LineBody{Points: [4]float64{0, 0, 100, 100}}
	require.True(t, e.Dispatch(scene.AddShape{Shape: l}))
	ctl := e.Controller()
	ctl.Select("A")

	// (480, 320) is inside the line's box but well off the stroke.
	ctl.PointerDown(mouse(220, 140))
	require.Equal(t, ConnectionDrag, ctl.State())
	ctl.PointerMove(mouse(480, 320))
	rb := ctl.View().RubberBand
	require.NotNil(t, rb)
	assert.Equal(t, "L", rb.Target)
	ctl.PointerUp(mouse(480, 320))

	conns := e.Document().Connections
	require.Len(t, conns, 1)
	assert.Equal(t, "A", conns[0].From)
	assert.Equal(t, "L", conns[0].To)
	assert.False(t, e.Document().HasShape("A-copy"))
}

func TestTouchHoldStartsConnectionDrag(t *testing.T) {
	e := twoRects(t)
	ctl := e.Controller()

	ctl.PointerDown(touch(220, 140, 0))
	assert.Equal(t, ArmedForHold, ctl.State())
	assert.False(t, ctl.Tick(epoch.Add(500*time.Millisecond)))
	ctl.PointerMove(touch(222, 141, 700*time.Millisecond))
	assert.Equal(t, ArmedForHold, ctl.State(), "small drift keeps the hold")

	assert.True(t, ctl.Tick(epoch.Add(HoldDelay)))
	assert.Equal(t, ConnectionDrag, ctl.State())

	ctl.PointerMove(touch(460, 140, 1500*time.Millisecond))
	ctl.PointerUp(touch(460, 140, 1600*time.Millisecond))
	require.Len(t, e.Document().Connections, 1)
	assert.Equal(t, "B", e.Document().Connections[0].To)
}

func TestTouchMoveBeforeHoldDragsShape(t *testing.T) {
	e := twoRects(t)
	ctl := e.Controller()

	ctl.PointerDown(touch(220, 140, 0))
	ctl.PointerMove(touch(240, 140, 100*time.Millisecond))
	assert.Equal(t, DraggingShape, ctl.State())
	assert.False(t, ctl.Tick(epoch.Add(2*time.Second)), "hold is cancelled")

	ctl.PointerUp(touch(240, 140, 200*time.Millisecond))
	a, _ := e.Document().Shape("A")
	assert.Equal(t, 120.0, a.X)
	assert.Equal(t, 100.0, a.Y)
	assert.Empty(t, e.Document().Connections)
}

func TestShapeDragIsOneUndoStepAndReroutes(t *testing.T) {
	e := twoRects(t)
	c := document.NewConnection("c1", "A", document.SideRight, "B", document.SideLeft, document.ConnAssociation)
	require.True(t, e.Dispatch(scene.AddConnection{Connection: c}))
	ctl := e.Controller()
	ctl.ClearSelection()

	// Drag B from beside A to below it.
	ctl.PointerDown(mouse(460, 140))
	require.Equal(t, DraggingShape, ctl.State())
	for _, y := range []float64{200, 300, 400} {
		ctl.PointerMove(mouse(460-300, y))
	}
	ctl.PointerUp(mouse(160, 400))

	b, _ := e.Document().Shape("B")
	assert.Equal(t, pt(100, 360), pt(b.X, b.Y))
	conn, _ := e.Document().Connection("c1")
	assert.Equal(t, document.SideBottom, conn.FromSide, "dropped shape reroutes its edges")
	assert.Equal(t, document.SideTop, conn.ToSide)

	require.True(t, e.Undo())
	b, _ = e.Document().Shape("B")
	assert.Equal(t, 400.0, b.X)
	conn, _ = e.Document().Connection("c1")
	assert.Equal(t, document.SideRight, conn.FromSide)
}

func TestGroupDragMovesMembers(t *testing.T) {
	e := NewEngine(nil)
	require.True(t, e.Dispatch(scene.AddGroup{Group: document.NewGroup("grp_1", "group-1", 50, 50, 0)}))
	require.True(t, e.Dispatch(scene.AddShape{Shape: rect("C", 100, 100, 50, 50)}))
	require.True(t, e.Dispatch(scene.AddShape{Shape: rect("D", 500, 500, 50, 50)}))
	ctl := e.Controller()

	ctl.PointerDown(mouse(60, 180))
	require.Equal(t, DraggingGroup, ctl.State())
	assert.Equal(t, "grp_1", e.Selection().Group)
	ctl.PointerMove(mouse(75, 170))
	ctl.PointerMove(mouse(90, 160))
	ctl.PointerUp(mouse(90, 160))

	doc := e.Document()
	c, _ := doc.Shape("C")
	assert.Equal(t, pt(130, 80), pt(c.X, c.Y))
	d, _ := doc.Shape("D")
	assert.Equal(t, pt(500, 500), pt(d.X, d.Y), "non-members stay put")
	g, _ := doc.Group("grp_1")
	assert.Equal(t, pt(80, 30), pt(g.X, g.Y))

	require.True(t, e.Undo())
	c, _ = e.Document().Shape("C")
	assert.Equal(t, pt(100, 100), pt(c.X, c.Y))
}

func TestResizeTextShapeKeepsMinimum(t *testing.T) {
	e := NewEngine(nil)
	require.True(t, e.Dispatch(scene.AddShape{Shape: document.NewShape("t", document.KindText, 0, 0, 0)}))
	ctl := e.Controller()
	ctl.Select("t")

	ctl.PointerDown(mouse(160, 60))
	require.Equal(t, ResizingShape, ctl.State())
	ctl.PointerMove(mouse(20, 20))
	ctl.PointerUp(mouse(20, 20))

	s, _ := e.Document().Shape("t")
	assert.Equal(t, document.MinTextWidth, s.Width)
	assert.Equal(t, document.MinTextHeight, s.Height)
}

func TestResizeKeepsGrabOffset(t *testing.T) {
	e := NewEngine(nil)
	require.True(t, e.Dispatch(scene.AddShape{Shape: document.NewShape("t", document.KindText, 0, 0, 0)}))
	ctl := e.Controller()
	ctl.Select("t")
	before, _ := e.Document().Shape("t")

	// Grab the handle 3px inside its corner; the corner must not jump.
	ctl.PointerDown(mouse(before.Width+3, before.Height+3))
	require.Equal(t, ResizingShape, ctl.State())
	ctl.PointerMove(mouse(before.Width+23, before.Height+13))
	ctl.PointerUp(mouse(before.Width+23, before.Height+13))

	s, _ := e.Document().Shape("t")
	assert.Equal(t, before.Width+20, s.Width)
	assert.Equal(t, before.Height+10, s.Height)
}

func TestGroupResizeKeepsGrabOffset(t *testing.T) {
	e := NewEngine(nil)
	require.True(t, e.Dispatch(scene.AddGroup{Group: document.NewGroup("grp_1", "group-1", 50, 50, 0)}))
	ctl := e.Controller()
	ctl.SelectGroup("grp_1")

	corner := pt(50+document.DefaultGroupWidth, 50+document.DefaultGroupHeight)
	ctl.PointerDown(mouse(corner.X+3, corner.Y+3))
	require.Equal(t, ResizingGroup, ctl.State())
	ctl.PointerMove(mouse(corner.X+23, corner.Y+13))
	ctl.PointerUp(mouse(corner.X+23, corner.Y+13))

	g, _ := e.Document().Group("grp_1")
	assert.Equal(t, pt(50, 50), pt(g.X, g.Y))
	assert.Equal(t, document.DefaultGroupWidth+20, g.Width)
	assert.Equal(t, document.DefaultGroupHeight+10, g.Height)

	// Groups clamp to their own floor, not the text minimum.
	corner = pt(g.X+g.Width, g.Y+g.Height)
	ctl.PointerDown(mouse(corner.X, corner.Y))
	require.Equal(t, ResizingGroup, ctl.State())
	ctl.PointerMove(mouse(60, 60))
	ctl.PointerUp(mouse(60, 60))
	g, _ = e.Document().Group("grp_1")
	assert.Equal(t, document.MinGroupWidth, g.Width)
	assert.Equal(t, document.MinGroupHeight, g.Height)
}

func TestClickOnEmptyCanvasClearsSelectionAndPans(t *testing.T) {
	e := twoRects(t)
	ctl := e.Controller()

	ctl.PointerDown(mouse(700, 500))
	assert.Equal(t, Panning, ctl.State())
	assert.Equal(t, Selection{}, e.Selection())

	ctl.PointerMove(mouse(710, 505))
	ctl.PointerMove(mouse(720, 510))
	ctl.PointerUp(mouse(720, 510))
	cam := e.Document().Camera
	assert.Equal(t, 20.0, cam.X)
	assert.Equal(t, 10.0, cam.Y)

	require.True(t, e.Undo())
	assert.Equal(t, 20.0, e.Document().Camera.X, "panning is not part of history")
}

func TestWheelZoomIsClamped(t *testing.T) {
	e := NewEngine(nil)
	ctl := e.Controller()

	for range 50 {
		ctl.Wheel(pt(400, 300), -100)
	}
	assert.Equal(t, scene.MaxZoom, e.Document().Camera.Scale)

	for range 50 {
		ctl.Wheel(pt(400, 300), 100)
	}
	assert.Equal(t, scene.MinZoom, e.Document().Camera.Scale)
	assert.False(t, ctl.Wheel(pt(400, 300), 100))
}

func TestWheelZoomKeepsPointUnderCursor(t *testing.T) {
	e := NewEngine(nil)
	ctl := e.Controller()
	cursor := pt(250, 120)
	before := e.Document().Camera.ScreenToWorld(cursor)

	require.True(t, ctl.Wheel(cursor, -1))
	cam := e.Document().Camera
	assert.InDelta(t, 1.1, cam.Scale, 1e-9)
	after := cam.ScreenToWorld(cursor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestPinchZoomsAroundMidpoint(t *testing.T) {
	e := NewEngine(nil)
	ctl := e.Controller()

	assert.False(t, ctl.Pinch(pt(100, 100), pt(200, 100)))
	assert.Equal(t, Pinching, ctl.State())
	require.True(t, ctl.Pinch(pt(50, 100), pt(250, 100)))

	cam := e.Document().Camera
	assert.InDelta(t, 2, cam.Scale, 1e-9)
	assert.InDelta(t, -150, cam.X, 1e-9)
	assert.InDelta(t, -100, cam.Y, 1e-9)

	// Moving both fingers pans by the midpoint delta.
	require.True(t, ctl.Pinch(pt(60, 110), pt(260, 110)))
	cam = e.Document().Camera
	assert.InDelta(t, 2, cam.Scale, 1e-9)
	assert.InDelta(t, -140, cam.X, 1e-9)
	assert.InDelta(t, -90, cam.Y, 1e-9)

	ctl.PinchEnd()
	assert.Equal(t, Idle, ctl.State())
}

func TestDeleteSuppressedWhileTyping(t *testing.T) {
	e := twoRects(t)
	ctl := e.Controller()

	ctl.SetTextFocus(true)
	assert.False(t, ctl.Key("Delete"))
	assert.True(t, e.Document().HasShape("A"))

	ctl.SetTextFocus(false)
	assert.True(t, ctl.Key("Backspace"))
	assert.False(t, e.Document().HasShape("A"))
	assert.False(t, ctl.Key("Backspace"), "nothing selected")
}

func TestInlineEditing(t *testing.T) {
	e := NewEngine(nil)
	require.True(t, e.Dispatch(scene.AddShape{Shape: document.NewShape("t", document.KindText, 0, 0, 0)}))
	require.True(t, e.Dispatch(scene.AddShape{Shape: rect("r", 300, 0, 50, 50)}))
	ctl := e.Controller()

	assert.False(t, ctl.DoubleClick(pt(320, 20)), "primitives have no text")
	require.True(t, ctl.DoubleClick(pt(50, 30)))
	assert.Equal(t, "t", e.Selection().Editing)
	assert.False(t, ctl.Key("Delete"), "editing suppresses delete")

	require.True(t, ctl.CommitEdit("hello"))
	s, _ := e.Document().Shape("t")
	assert.Equal(t, "hello", s.Content())
	assert.Empty(t, ctl.Editing())

	ctl.DoubleClick(pt(50, 30))
	ctl.PointerDown(mouse(700, 500))
	assert.Empty(t, ctl.Editing(), "clicking the canvas closes the editor")
}

func TestResetClearsGesture(t *testing.T) {
	e := twoRects(t)
	ctl := e.Controller()

	ctl.PointerDown(mouse(150, 140))
	ctl.PointerMove(mouse(170, 140))
	require.Equal(t, DraggingShape, ctl.State())

	ctl.Reset()
	assert.Equal(t, Idle, ctl.State())
	assert.Equal(t, uint64(1), ctl.Resets())
	assert.False(t, e.Store().InBatch())
	assert.False(t, ctl.PointerMove(mouse(300, 300)), "moves after a reset are ignored")

	require.True(t, e.Undo(), "the partial drag is one undo step")
	a, _ := e.Document().Shape("A")
	assert.Equal(t, 100.0, a.X)
}

func TestEscapeResetsAndDeselects(t *testing.T) {
	e := twoRects(t)
	ctl := e.Controller()
	ctl.PointerDown(mouse(220, 140))
	require.Equal(t, ConnectionDrag, ctl.State())

	assert.True(t, ctl.Key("Escape"))
	assert.Equal(t, Idle, ctl.State())
	assert.Equal(t, Selection{}, e.Selection())
	assert.Empty(t, e.Document().Connections)
}

func TestApplyLegacyPatch(t *testing.T) {
	e := twoRects(t)
	err := e.ApplyPatch(`{
		"objects": [
			{"name": "web", "type": "server", "x": 10, "y": 20, "width": 100, "height": 110},
			{"name": "store", "type": "database", "x": 300, "y": 20}
		],
		"connections": [{"from": "web", "to": {"name": "store"}, "fromPoint": "right", "toPoint": "left"}]
	}`)
	require.NoError(t, err)

	doc := e.Document()
	require.Len(t, doc.Shapes, 2)
	assert.True(t, doc.HasShape("web"))
	assert.False(t, doc.HasShape("A"))
	require.Len(t, doc.Connections, 1)

	require.True(t, e.Undo(), "patch replacement is undoable")
	assert.True(t, e.Document().HasShape("A"))
}

func TestApplyBadPatchLeavesDocument(t *testing.T) {
	e := twoRects(t)
	before := e.Document()

	for _, in := range []string{"", "{", `{"items": {}}`, `{"shapes": []}`} {
		err := e.ApplyPatch(in)
		var pe *document.PatchError
		require.ErrorAs(t, err, &pe, "input %q", in)
		assert.Same(t, before, e.Document())
	}
}

func TestAddShapeAndGroupAtViewportCenter(t *testing.T) {
	e := NewEngine(nil)
	e.SetViewport(1000, 800)

	name := e.AddShape(document.KindDatabase)
	assert.Equal(t, "database-1", name)
	s, _ := e.Document().Shape(name)
	assert.Equal(t, pt(500, 400), s.Center())
	assert.Equal(t, name, e.Selection().Shape)

	assert.Equal(t, "database-2", e.AddShape(document.KindDatabase))

	id := e.AddGroup()
	require.NotEmpty(t, id)
	g, ok := e.Document().Group(id)
	require.True(t, ok)
	assert.Equal(t, "group-1", g.Name)
	assert.Equal(t, pt(500, 400), g.Rect().Center())
	assert.Equal(t, id, e.Selection().Group)
}

func TestSetConnectionTypeRetypesSelection(t *testing.T) {
	e := twoRects(t)
	c := document.NewConnection("c1", "A", document.SideRight, "B", document.SideLeft, document.ConnAssociation)
	require.True(t, e.Dispatch(scene.AddConnection{Connection: c}))

	require.Error(t, e.SetConnectionType("telepathy"))

	e.Controller().SelectConnection("c1")
	require.NoError(t, e.SetConnectionType(document.ConnAsynchronousCall))
	got, _ := e.Document().Connection("c1")
	assert.Equal(t, document.ConnAsynchronousCall, got.Type)
	assert.Equal(t, document.ConnAsynchronousCall, e.Controller().ConnectionType())
}

func TestClickSelectsConnection(t *testing.T) {
	e := twoRects(t)
	c := document.NewConnection("c1", "A", document.SideRight, "B", document.SideLeft, document.ConnAssociation)
	require.True(t, e.Dispatch(scene.AddConnection{Connection: c}))
	ctl := e.Controller()
	ctl.ClearSelection()

	ctl.PointerDown(mouse(300, 141))
	ctl.PointerUp(mouse(300, 141))
	assert.Equal(t, "c1", e.Selection().Connection)

	require.True(t, ctl.Key("Delete"))
	assert.Empty(t, e.Document().Connections)
	assert.Len(t, e.Document().Shapes, 2)
}

func TestSceneGraphLayers(t *testing.T) {
	e := NewEngine(nil)
	e.LoadSampleDocument("dsgn_sample")
	sg := e.SceneGraph()

	var layers []string
	for _, n := range sg.Root.Children {
		layers = append(layers, n.ID)
	}
	assert.Equal(t, []string{layerGroups, layerConnections, layerShapes, layerOverlay}, layers)

	doc := e.Document()
	for _, c := range doc.Connections {
		assert.Contains(t, sg.NodesById, "conn:"+c.ID)
	}
	for _, s := range doc.Shapes {
		assert.Contains(t, sg.NodesById, "shape:"+s.Name)
	}
	assert.Same(t, sg, e.SceneGraph(), "unchanged state reuses the graph")

	e.Controller().Select("db")
	sg = e.SceneGraph()
	for _, side := range []string{"top", "right", "bottom", "left"} {
		assert.Contains(t, sg.NodesById, "anchor:db:"+side)
	}
	assert.Contains(t, sg.NodesById, "resize:db")
}

func TestRenderJSON(t *testing.T) {
	e := NewEngine(nil)
	assert.Equal(t, "[]", e.Render())

	e.LoadSampleDocument("dsgn_sample")
	var cmds []map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.Render()), &cmds))
	require.NotEmpty(t, cmds)
	for _, c := range cmds {
		assert.Contains(t, []any{OpPath, OpText, OpImage}, c["op"])
	}

	var state map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.GetState()), &state))
	assert.Equal(t, "idle", state["gesture"])

	var hit map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.HitTest(60, 230)), &hit))
	assert.Equal(t, "shape", hit["kind"])
	assert.Equal(t, "client", hit["shape"])
}

func TestDocumentRoundTripThroughEngine(t *testing.T) {
	e := NewEngine(nil)
	e.LoadSampleDocument("dsgn_sample")
	data := e.GetDocument()

	other := NewEngine(nil)
	require.NoError(t, other.LoadDocument(data))
	assert.True(t, document.Equal(e.Document(), other.Document()))
	assert.False(t, other.Store().CanUndo())

	require.Error(t, other.LoadDocument("not json"))
}

func TestOcclusion(t *testing.T) {
	low := rect("low", 0, 0, 100, 100)
	high := rect("high", 50, 50, 100, 100)
	high.ZIndex = 1
	apart := rect("apart", 500, 500, 10, 10)
	shapes := []document.Shape{high, low, apart}

	assert.Equal(t, []int{1, 2, 0}, PaintOrder(shapes))
	assert.True(t, Occluded(shapes, 1))
	assert.False(t, Occluded(shapes, 0))
	assert.False(t, Occluded(shapes, 2))

	doc := document.NewDocument("d", "d")
	doc.Shapes = shapes
	doc.Reindex()
	sg := BuildSceneGraph(doc, View{}, nil)
	assert.Equal(t, OccludedOpacity, sg.NodesById["shape:low"].Opacity)
	assert.Equal(t, 1.0, sg.NodesById["shape:high"].Opacity)

	sg = BuildSceneGraph(doc, View{ActiveShape: "low"}, nil)
	assert.Equal(t, 1.0, sg.NodesById["shape:low"].Opacity, "the active shape is never dimmed")
}

func TestShapeAtPrefersTopmost(t *testing.T) {
	low := rect("low", 0, 0, 100, 100)
	high := rect("high", 50, 50, 100, 100)
	high.ZIndex = 1
	doc := document.NewDocument("d", "d")
	doc.Shapes = []document.Shape{high, low}
	doc.Reindex()

	name, ok := ShapeAt(doc, pt(75, 75), 1, "")
	require.True(t, ok)
	assert.Equal(t, "high", name)

	name, _ = ShapeAt(doc, pt(75, 75), 1, "high")
	assert.Equal(t, "low", name)

	_, ok = ShapeAt(doc, pt(300, 300), 1, "")
	assert.False(t, ok)
}

func TestWrapText(t *testing.T) {
	assert.Nil(t, WrapText("", 100, 10))
	assert.Equal(t, []string{"hello", "world foo"}, WrapText("hello world foo", 61, 10))
	assert.Equal(t, []string{"a", "", "b"}, WrapText("a\n\nb", 61, 10))
	assert.Equal(t, []string{"abcdefghij", "klm"}, WrapText("abcdefghijklm", 61, 10))
}

func TestParseSVGPath(t *testing.T) {
	got, err := ParseSVGPath("M1 2 L3 4 h5 v-1 z")
	require.NoError(t, err)
	assert.Equal(t, []PathCommand{
		{"M", 1.0, 2.0},
		{"L", 3.0, 4.0},
		{"L", 8.0, 4.0},
		{"L", 8.0, 3.0},
		{"Z"},
	}, got)

	got, err = ParseSVGPath("m1,1 2,2 C0 0 1 1 2 2 q1 1 2-2")
	require.NoError(t, err)
	assert.Equal(t, []PathCommand{
		{"M", 1.0, 1.0},
		{"L", 3.0, 3.0},
		{"C", 0.0, 0.0, 1.0, 1.0, 2.0, 2.0},
		{"Q", 3.0, 3.0, 4.0, 0.0},
	}, got)

	got, err = ParseSVGPath("M1e1 .5")
	require.NoError(t, err)
	assert.Equal(t, []PathCommand{{"M", 10.0, 0.5}}, got)

	for _, bad := range []string{"1 2", "M 1", "A 1 2", "M 1 2 Z 3", "M 1 #"} {
		_, err := ParseSVGPath(bad)
		assert.Error(t, err, bad)
	}
}

func TestComponentIconsParse(t *testing.T) {
	for _, k := range document.ComponentKinds() {
		_, err := ParseSVGPath(document.IconPath(k))
		assert.NoError(t, err, k)
	}
}

func TestCompileDrawCommandsOrder(t *testing.T) {
	doc := document.NewDocument("d", "d")
	doc.Shapes = []document.Shape{rect("A", 0, 0, 10, 10), rect("B", 100, 0, 10, 10)}
	doc.Groups = []document.Group{document.NewGroup("g", "g", -20, -20, 0)}
	doc.Connections = []document.Connection{
		document.NewConnection("c", "A", document.SideRight, "B", document.SideLeft, document.ConnDependency),
	}
	doc.Reindex()

	cmds := CompileDrawCommands(BuildSceneGraph(doc, View{}, nil))
	require.NotEmpty(t, cmds)
	groupFill := -1
	connStroke := -1
	shapeFill := -1
	for i, c := range cmds {
		switch {
		case c.Stroke == doc.Groups[0].BorderColor && groupFill < 0:
			groupFill = i
		case c.Dash != nil && connStroke < 0 && c.Stroke == doc.Connections[0].ResolvedStyle().Color:
			connStroke = i
		case c.Fill == doc.Shapes[0].Style.Color && shapeFill < 0:
			shapeFill = i
		}
	}
	assert.Less(t, groupFill, connStroke)
	assert.Less(t, connStroke, shapeFill)
}

func TestIconShapeIsFilled(t *testing.T) {
	doc := document.NewDocument("d", "d")
	icon := document.NewShape("i", document.KindIcon, 0, 0, 0)
	doc.Shapes = []document.Shape{icon}
	doc.Reindex()

	var filled bool
	for _, c := range CompileDrawCommands(BuildSceneGraph(doc, View{}, nil)) {
		if c.Op == OpPath && c.Fill == icon.Style.Color {
			assert.Empty(t, c.Stroke)
			filled = true
		}
	}
	assert.True(t, filled, "icon glyph is painted with the shape color")
}
