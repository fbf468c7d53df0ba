package scene

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
)

func rect(name string, x, y, w, h float64) document.Shape {
	s := document.NewShape(name, document.KindRectangle, x, y, 0)
	s.Width, s.Height = w, h
	return s
}

func twoShapes(t *testing.T) *Store {
	t.Helper()
	s := NewStore(nil)
	s.Dispatch(AddShape{Shape: rect("A", 100, 100, 120, 80)})
	s.Dispatch(AddShape{Shape: rect("B", 400, 100, 120, 80)})
	_, changed := s.Dispatch(AddConnection{Connection: document.NewConnection(
		"c1", "A", document.SideRight, "B", document.SideLeft, document.DefaultConnectionType)})
	require.True(t, changed)
	return s
}

func TestRemoveShapeIsIdempotent(t *testing.T) {
	s := twoShapes(t)
	before := s.State()

	after := Reduce(before, RemoveShape{Name: "missing"})
	assert.Same(t, before, after)

	_, changed := s.Dispatch(RemoveShape{Name: "missing"})
	assert.False(t, changed)
	assert.False(t, s.CanRedo())
}

func TestRemoveShapeCascades(t *testing.T) {
	s := twoShapes(t)
	a, _ := s.State().Shape("A")

	doc, changed := s.Dispatch(RemoveShape{Name: "B"})
	require.True(t, changed)
	assert.False(t, doc.HasShape("B"))
	assert.Empty(t, doc.Connections)

	stillA, ok := doc.Shape("A")
	require.True(t, ok)
	assert.True(t, a.Equal(stillA))
}

func TestCascadeInvariantForEveryShape(t *testing.T) {
	base := document.NewSampleDocument("x")
	for _, sh := range base.Shapes {
		doc := Reduce(base, RemoveShape{Name: sh.Name})
		for _, c := range doc.Connections {
			assert.NotEqual(t, sh.Name, c.From)
			assert.NotEqual(t, sh.Name, c.To)
		}
	}
	assert.Len(t, base.Connections, 5, "input document must not change")
}

func TestAddShapeKeepsNamesUnique(t *testing.T) {
	s := NewStore(nil)
	for range 5 {
		name := document.NextShapeName(s.State(), document.KindCircle)
		s.Dispatch(AddShape{Shape: document.NewShape(name, document.KindCircle, 0, 0, 0)})
	}
	_, changed := s.Dispatch(AddShape{Shape: document.NewShape("circle-1", document.KindCircle, 0, 0, 0)})
	assert.False(t, changed)

	seen := map[string]bool{}
	for _, sh := range s.State().Shapes {
		assert.False(t, seen[sh.Name], sh.Name)
		seen[sh.Name] = true
	}
	assert.Len(t, seen, 5)
}

func TestUpdateShape(t *testing.T) {
	s := twoShapes(t)

	doc, changed := s.Dispatch(UpdateShape{Name: "A", Patch: ShapePatch{X: Float(10), Color: String("#000000")}})
	require.True(t, changed)
	a, _ := doc.Shape("A")
	assert.Equal(t, 10.0, a.X)
	assert.Equal(t, "#000000", a.Style.Color)

	_, changed = s.Dispatch(UpdateShape{Name: "A", Patch: ShapePatch{Width: Float(0), Height: Float(-1), ZIndex: Int(-2)}})
	assert.False(t, changed, "invalid sizes and z-index are ignored")

	_, changed = s.Dispatch(UpdateShape{Name: "ghost", Patch: ShapePatch{X: Float(1)}})
	assert.False(t, changed)
}

func TestUpdateShapeContentAndPoints(t *testing.T) {
	s := NewStore(nil)
	s.Dispatch(AddShape{Shape: document.NewShape("t", document.KindText, 0, 0, 0)})
	s.Dispatch(AddShape{Shape: document.NewShape("l", document.KindLine, 0, 0, 0)})

	doc, _ := s.Dispatch(UpdateShape{Name: "t", Patch: ShapePatch{Content: String("hello")}})
	txt, _ := doc.Shape("t")
	assert.Equal(t, document.TextBody{Text: "hello"}, txt.Body)

	pts := [4]float64{0, 0, 10, 20}
	doc, _ = s.Dispatch(UpdateShape{Name: "l", Patch: ShapePatch{Points: &pts}})
	line, _ := doc.Shape("l")
	assert.Equal(t, document.LineBody{Points: pts}, line.Body)
}

func TestConnectionsByIDAndPosition(t *testing.T) {
	s := twoShapes(t)
	s.Dispatch(AddConnection{Connection: document.NewConnection("", "B", "", "A", "", document.ConnDependency)})
	require.Len(t, s.State().Connections, 2)

	second := s.State().Connections[1]
	assert.NotEmpty(t, second.ID, "store assigns ids")
	assert.Equal(t, document.SideLeft, second.FromSide)
	assert.Equal(t, document.SideRight, second.ToSide)

	_, changed := s.Dispatch(AddConnection{Connection: document.NewConnection("c9", "A", document.SideRight, "ghost", document.SideLeft, "")})
	assert.False(t, changed, "dangling endpoints are ignored")

	_, changed = s.Dispatch(RemoveConnection{ID: "c1"})
	require.True(t, changed)
	require.Len(t, s.State().Connections, 1)
	assert.Equal(t, second.ID, s.State().Connections[0].ID)

	_, changed = s.Dispatch(RemoveConnectionAt{Index: 5})
	assert.False(t, changed)
	_, changed = s.Dispatch(RemoveConnectionAt{Index: 0})
	assert.True(t, changed)
	assert.Empty(t, s.State().Connections)
}

func TestUpdateConnection(t *testing.T) {
	s := twoShapes(t)
	typ := document.ConnSynchronousCall
	doc, changed := s.Dispatch(UpdateConnection{ID: "c1", Patch: ConnectionPatch{Type: &typ}})
	require.True(t, changed)
	c := doc.Connections[0]
	assert.Equal(t, typ, c.Type)
	assert.Equal(t, true, c.Metadata["synchronous"])

	bad := document.SideStart
	_, changed = s.Dispatch(UpdateConnection{ID: "c1", Patch: ConnectionPatch{FromSide: &bad}})
	assert.False(t, changed, "start is not an anchor of a rectangle")
}

func TestRerouteAfterMove(t *testing.T) {
	s := twoShapes(t)
	s.Dispatch(UpdateShape{Name: "B", Patch: ShapePatch{X: Float(110), Y: Float(400)}})
	doc, changed := s.Dispatch(Reroute{Shape: "B"})
	require.True(t, changed)
	assert.Equal(t, document.SideBottom, doc.Connections[0].FromSide)
	assert.Equal(t, document.SideTop, doc.Connections[0].ToSide)

	_, changed = s.Dispatch(Reroute{Shape: "B"})
	assert.False(t, changed)
}

func TestMoveGroupMovesMembers(t *testing.T) {
	s := NewStore(nil)
	s.Dispatch(AddGroup{Group: document.NewGroup("g1", "g", 50, 50, 0)})
	s.Dispatch(AddShape{Shape: rect("C", 100, 100, 50, 50)})
	s.Dispatch(AddShape{Shape: rect("far", 600, 600, 50, 50)})

	doc, changed := s.Dispatch(MoveGroup{ID: "g1", DX: 30, DY: -20})
	require.True(t, changed)

	c, _ := doc.Shape("C")
	assert.Equal(t, 130.0, c.X)
	assert.Equal(t, 80.0, c.Y)
	far, _ := doc.Shape("far")
	assert.Equal(t, 600.0, far.X)

	g, _ := doc.Group("g1")
	assert.Equal(t, 80.0, g.X)
	assert.Equal(t, 30.0, g.Y)
}

func TestMoveGroupUsesSnapshot(t *testing.T) {
	s := NewStore(nil)
	s.Dispatch(AddGroup{Group: document.NewGroup("g1", "g", 0, 0, 0)})
	s.Dispatch(AddShape{Shape: rect("in", 10, 10, 20, 20)})
	s.Dispatch(AddShape{Shape: rect("out", 500, 500, 20, 20)})

	doc, _ := s.Dispatch(MoveGroup{ID: "g1", DX: 5, DY: 5, Members: []string{"out", "ghost"}})
	in, _ := doc.Shape("in")
	out, _ := doc.Shape("out")
	assert.Equal(t, 10.0, in.X)
	assert.Equal(t, 505.0, out.X)
}

func TestGroupLifecycle(t *testing.T) {
	s := NewStore(nil)
	s.Dispatch(AddShape{Shape: rect("C", 100, 100, 50, 50)})
	doc, _ := s.Dispatch(AddGroup{Group: document.Group{Name: "g", Width: 10, Height: 10}})
	require.Len(t, doc.Groups, 1)
	g := doc.Groups[0]
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, document.MinGroupWidth, g.Width)
	assert.Equal(t, "g", g.DisplayName)

	doc, _ = s.Dispatch(UpdateGroup{ID: g.ID, Patch: GroupPatch{DisplayName: String("Payments"), Width: Float(20)}})
	g, _ = doc.Group(g.ID)
	assert.Equal(t, "Payments", g.DisplayName)
	assert.Equal(t, "g", g.Name)
	assert.Equal(t, document.MinGroupWidth, g.Width)

	doc, _ = s.Dispatch(RemoveGroup{ID: g.ID})
	assert.Empty(t, doc.Groups)
	assert.True(t, doc.HasShape("C"), "removing a group keeps its shapes")
}

func TestCameraAndZoom(t *testing.T) {
	s := NewStore(nil)
	doc, _ := s.Dispatch(SetCamera{X: 10, Y: 20})
	assert.Equal(t, document.Camera{X: 10, Y: 20, Scale: 1}, doc.Camera)
	assert.False(t, s.CanUndo(), "camera moves are not undoable")

	doc, _ = s.Dispatch(SetZoom{Scale: 9, X: 1, Y: 2})
	assert.Equal(t, MaxZoom, doc.Camera.Scale)
	doc, _ = s.Dispatch(SetZoom{Scale: 0.01})
	assert.Equal(t, MinZoom, doc.Camera.Scale)
}

func TestSetStatePrunesDanglingConnections(t *testing.T) {
	s := twoShapes(t)
	doc, _ := s.Dispatch(SetState{Partial: Partial{Shapes: []document.Shape{rect("A", 0, 0, 10, 10)}}})
	assert.Len(t, doc.Shapes, 1)
	assert.Empty(t, doc.Connections)

	name := "renamed"
	doc, _ = s.Dispatch(SetState{Partial: Partial{Meta: &document.Meta{Name: name}}})
	assert.Equal(t, name, doc.Meta.Name)
	assert.Len(t, doc.Shapes, 1)
}

func TestSetStateAssignsMissingIDs(t *testing.T) {
	s := NewStore(nil)
	conns := []document.Connection{
		document.NewConnection("", "A", document.SideRight, "B", document.SideLeft, document.ConnDependency),
		document.NewConnection("c-keep", "B", document.SideLeft, "A", document.SideRight, document.ConnAssociation),
	}
	groups := []document.Group{document.NewGroup("", "group-1", 0, 0, 0)}

	doc, changed := s.Dispatch(SetState{Partial: Partial{
		Shapes:      []document.Shape{rect("A", 0, 0, 10, 10), rect("B", 100, 0, 10, 10)},
		Connections: conns,
		Groups:      groups,
	}})
	require.True(t, changed)
	require.Len(t, doc.Connections, 2)
	assert.True(t, strings.HasPrefix(doc.Connections[0].ID, "conn_"), doc.Connections[0].ID)
	assert.Equal(t, "c-keep", doc.Connections[1].ID)
	require.Len(t, doc.Groups, 1)
	assert.True(t, strings.HasPrefix(doc.Groups[0].ID, "grp_"), doc.Groups[0].ID)

	assert.Empty(t, conns[0].ID, "the caller's slice is not modified")
	assert.Empty(t, groups[0].ID)
}

func TestResetAndLoad(t *testing.T) {
	s := twoShapes(t)
	doc, _ := s.Dispatch(Reset{})
	assert.Empty(t, doc.Shapes)
	assert.Empty(t, doc.Connections)

	sample := document.NewSampleDocument("dsgn_1")
	s.Load(sample)
	assert.True(t, document.Equal(sample, s.State()))
	assert.False(t, s.CanUndo())
}

func TestUndoRedo(t *testing.T) {
	s := twoShapes(t)
	s.Dispatch(SetCamera{X: 50, Y: 50})
	s.Dispatch(RemoveShape{Name: "B"})

	require.True(t, s.Undo())
	assert.True(t, s.State().HasShape("B"))
	assert.Len(t, s.State().Connections, 1)
	assert.Equal(t, 50.0, s.State().Camera.X, "undo keeps the camera")

	require.True(t, s.Redo())
	assert.False(t, s.State().HasShape("B"))
	assert.False(t, s.Redo())

	for s.Undo() {
	}
	assert.Empty(t, s.State().Shapes)
}

func TestHistoryLimit(t *testing.T) {
	s := NewStore(nil, WithHistoryLimit(2))
	for i := range 4 {
		s.Dispatch(AddShape{Shape: rect(document.NextShapeName(s.State(), document.KindRectangle), float64(i), 0, 10, 10)})
	}
	assert.True(t, s.Undo())
	assert.True(t, s.Undo())
	assert.False(t, s.Undo())
	assert.Len(t, s.State().Shapes, 2)
}

func TestBatchRecordsOneUndoEntry(t *testing.T) {
	s := twoShapes(t)
	before := s.State()

	s.BeginBatch()
	assert.True(t, s.InBatch())
	for range 5 {
		s.Dispatch(UpdateShape{Name: "A", Patch: ShapePatch{X: Float(s.State().Shapes[0].X + 10)}})
	}
	s.EndBatch()
	assert.False(t, s.InBatch())
	assert.Equal(t, 150.0, s.State().Shapes[0].X)

	require.True(t, s.Undo())
	assert.True(t, document.Equal(before, s.State()))
	assert.True(t, s.Undo(), "earlier history is intact")
}

func TestEmptyBatchRecordsNothing(t *testing.T) {
	s := NewStore(nil)
	s.BeginBatch()
	s.Dispatch(SetCamera{X: 10, Y: 10})
	s.EndBatch()
	assert.False(t, s.CanUndo())

	s.EndBatch()
	assert.False(t, s.InBatch())
}

func TestNestedBatch(t *testing.T) {
	s := NewStore(nil)
	s.BeginBatch()
	s.Dispatch(AddShape{Shape: rect("A", 0, 0, 10, 10)})
	s.BeginBatch()
	s.Dispatch(AddShape{Shape: rect("B", 0, 0, 10, 10)})
	s.EndBatch()
	assert.False(t, s.CanUndo(), "inner batch does not record")
	s.EndBatch()

	require.True(t, s.Undo())
	assert.Empty(t, s.State().Shapes)
}

func TestSubscribe(t *testing.T) {
	s := NewStore(nil)
	var got []string
	unsubscribe := s.Subscribe(func(_ *document.Document, a Action) { got = append(got, a.Type()) })

	s.Dispatch(AddShape{Shape: rect("A", 0, 0, 10, 10)})
	s.Dispatch(RemoveShape{Name: "ghost"})
	s.Undo()
	unsubscribe()
	s.Redo()

	assert.Equal(t, []string{TypeAddShape, "history.undo"}, got)
}

func TestIgnoredActionsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewStore(nil, WithLogger(logger))

	s.Dispatch(RemoveGroup{ID: "nope"})
	assert.Contains(t, buf.String(), "scene action ignored")
	assert.Contains(t, buf.String(), TypeRemoveGroup)
}

func TestCodecRoundTrip(t *testing.T) {
	actions := []Action{
		AddShape{Shape: document.NewShape("db-1", document.KindDatabase, 10, 20, 3)},
		UpdateShape{Name: "db-1", Patch: ShapePatch{X: Float(5)}},
		AddConnection{Connection: document.NewConnection("c1", "a", document.SideTop, "b", document.SideBottom, document.ConnEventFlow)},
		MoveGroup{ID: "g", DX: 1, DY: 2, Members: []string{"a"}},
		SetZoom{Scale: 2, X: 3, Y: 4},
		Reset{},
	}
	for _, a := range actions {
		t.Run(a.Type(), func(t *testing.T) {
			typ, payload, err := Encode(a)
			require.NoError(t, err)
			back, err := Decode(typ, payload)
			require.NoError(t, err)
			assert.Equal(t, a.Type(), back.Type())

			_, again, err := Encode(back)
			require.NoError(t, err)
			assert.JSONEq(t, string(payload), string(again))
		})
	}
}

func TestDecodeUnknown(t *testing.T) {
	_, err := Decode("shape.explode", nil)
	require.ErrorIs(t, err, ErrUnknownAction)

	_, err = Decode(TypeRemoveShape, []byte(`{"name": 5}`))
	require.Error(t, err)
}
