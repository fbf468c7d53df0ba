package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
	"github.com/sysdraw/sysdraw/backend-go/internal/route"
	"github.com/sysdraw/sysdraw/backend-go/internal/scene"
)

// Engine is the diagram editor core. It owns the scene store, the route
// cache and the interaction controller, and answers render queries from the
// host.
type Engine struct {
	store  *scene.Store
	routes *route.Cache
	ctl    *Controller

	// Viewport size in screen pixels, used to place new shapes.
	viewW, viewH float64

	// Retained scene graph and the inputs it was built from.
	sceneGraph *SceneGraph
	builtDoc   *document.Document
	builtView  View
}

// NewEngine creates an engine with an empty document.
func NewEngine(logger *slog.Logger) *Engine {
	var opts []scene.Option
	if logger != nil {
		opts = append(opts, scene.WithLogger(logger))
	}
	store := scene.NewStore(nil, opts...)
	routes := route.NewCache()
	return &Engine{
		store:  store,
		routes: routes,
		ctl:    NewController(store, routes),
		viewW:  800,
		viewH:  600,
	}
}

func (e *Engine) Store() *scene.Store          { return e.store }
func (e *Engine) Controller() *Controller      { return e.ctl }
func (e *Engine) Document() *document.Document { return e.store.State() }

// --- Commands (host → engine) ---

// LoadDocument replaces the document with one in the wire schema and clears
// history and selection.
func (e *Engine) LoadDocument(jsonData string) error {
	var doc document.Document
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	e.Load(&doc)
	return nil
}

// Load replaces the document, clearing history and selection.
func (e *Engine) Load(doc *document.Document) {
	e.ctl.Reset()
	e.ctl.ClearSelection()
	e.store.Load(doc)
}

// LoadSampleDocument loads the built-in sample design.
func (e *Engine) LoadSampleDocument(id string) {
	e.Load(document.NewSampleDocument(id))
}

// ApplyPatch replaces the whole document with a patch in either the current
// or the legacy schema. A malformed patch leaves the document unchanged and
// returns a *document.PatchError. The replacement is undoable.
func (e *Engine) ApplyPatch(jsonData string) error {
	doc, err := document.ParsePatch([]byte(jsonData))
	if err != nil {
		return err
	}
	cur := e.store.State()
	doc.ID, doc.Camera = cur.ID, cur.Camera
	if doc.Meta.Name == "" {
		doc.Meta = cur.Meta
	}
	e.ctl.Reset()
	e.ctl.ClearSelection()
	e.store.Dispatch(scene.SetState{Partial: scene.Replace(doc)})
	return nil
}

// Dispatch applies a store action directly.
func (e *Engine) Dispatch(a scene.Action) bool {
	_, changed := e.store.Dispatch(a)
	return changed
}

// SetViewport records the canvas size in screen pixels.
func (e *Engine) SetViewport(w, h float64) {
	if w > 0 && h > 0 {
		e.viewW, e.viewH = w, h
	}
}

// viewCenter is the scene point at the middle of the viewport.
func (e *Engine) viewCenter() geom.Point {
	return e.store.State().Camera.ScreenToWorld(geom.Point{X: e.viewW / 2, Y: e.viewH / 2})
}

// AddShape creates a shape of the given kind centered in the viewport, on
// top of everything else, and selects it. It returns the new name.
func (e *Engine) AddShape(kind document.Kind) string {
	doc := e.store.State()
	name := document.NextShapeName(doc, kind)
	c := e.viewCenter()
	s := document.NewShape(name, kind, 0, 0, doc.MaxZ()+1)
	s = s.Translate(c.X-s.Center().X, c.Y-s.Center().Y)
	if _, changed := e.store.Dispatch(scene.AddShape{Shape: s}); !changed {
		return ""
	}
	e.ctl.Select(name)
	return name
}

// AddGroup creates a default-sized group centered in the viewport and
// selects it. It returns the new group id.
func (e *Engine) AddGroup() string {
	doc := e.store.State()
	c := e.viewCenter()
	g := document.NewGroup("", document.NextGroupName(doc), 0, 0, len(doc.Groups))
	g.X, g.Y = c.X-g.Width/2, c.Y-g.Height/2
	next, changed := e.store.Dispatch(scene.AddGroup{Group: g})
	if !changed {
		return ""
	}
	id := next.Groups[len(next.Groups)-1].ID
	e.ctl.SelectGroup(id)
	return id
}

// SetConnectionType sets the type for new connections and retypes the
// selected connection, if any.
func (e *Engine) SetConnectionType(t document.ConnectionType) error {
	if !t.Known() {
		return fmt.Errorf("unknown connection type %q", t)
	}
	e.ctl.SetConnectionType(t)
	if id := e.ctl.View().ActiveConnection; id != "" {
		e.store.Dispatch(scene.UpdateConnection{ID: id, Patch: scene.ConnectionPatch{Type: &t}})
	}
	return nil
}

func (e *Engine) SetTextFocus(focused bool) { e.ctl.SetTextFocus(focused) }

// Reset cancels any in-flight gesture.
func (e *Engine) Reset() { e.ctl.Reset() }

func (e *Engine) Undo() bool { return e.store.Undo() }
func (e *Engine) Redo() bool { return e.store.Redo() }

// --- Queries (engine → host) ---

// SceneGraph returns the scene graph for the current document and view,
// rebuilding it only when either changed.
func (e *Engine) SceneGraph() *SceneGraph {
	doc := e.store.State()
	view := e.ctl.View()
	if e.sceneGraph == nil || doc != e.builtDoc || !viewEqual(view, e.builtView) {
		e.sceneGraph = BuildSceneGraph(doc, view, e.routes)
		e.builtDoc, e.builtView = doc, view
	}
	return e.sceneGraph
}

func viewEqual(a, b View) bool {
	if a.ActiveShape != b.ActiveShape || a.ActiveGroup != b.ActiveGroup ||
		a.ActiveConnection != b.ActiveConnection || a.Editing != b.Editing {
		return false
	}
	if a.RubberBand == nil || b.RubberBand == nil {
		return a.RubberBand == b.RubberBand
	}
	return *a.RubberBand == *b.RubberBand
}

// Commands returns draw commands for the current frame.
func (e *Engine) Commands() []DrawCommand {
	return CompileDrawCommands(e.SceneGraph())
}

// Render returns draw commands for the current frame as JSON.
func (e *Engine) Render() string {
	result, _ := DrawCommandsToJSON(e.Commands())
	return result
}

// Routes returns every routed connection of the current document.
func (e *Engine) Routes() []route.Routed {
	return e.routes.All(e.store.State())
}

// GetDocument returns the document in the wire schema.
func (e *Engine) GetDocument() string {
	data, err := json.Marshal(e.store.State())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Selection is the host-visible selection state.
type Selection struct {
	Shape      string `json:"shape,omitempty"`
	Group      string `json:"group,omitempty"`
	Connection string `json:"connection,omitempty"`
	Editing    string `json:"editing,omitempty"`
}

func (e *Engine) Selection() Selection {
	v := e.ctl.View()
	return Selection{
		Shape:      v.ActiveShape,
		Group:      v.ActiveGroup,
		Connection: v.ActiveConnection,
		Editing:    v.Editing,
	}
}

// GetSelection returns the selection as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.Selection())
	return string(data)
}

// GetState returns camera, gesture and history state as JSON.
func (e *Engine) GetState() string {
	cam := e.store.State().Camera
	data, _ := json.Marshal(map[string]any{
		"camera":         cam,
		"gesture":        e.ctl.State().String(),
		"resets":         e.ctl.Resets(),
		"canUndo":        e.store.CanUndo(),
		"canRedo":        e.store.CanRedo(),
		"connectionType": e.ctl.ConnectionType(),
	})
	return string(data)
}

// HitTest returns the kind and target under a screen point as JSON.
func (e *Engine) HitTest(x, y float64) string {
	doc := e.store.State()
	p := doc.Camera.ScreenToWorld(geom.Point{X: x, Y: y})
	h := HitTest(doc, e.ctl.View(), p, doc.Camera.Scale, e.routes)
	data, _ := json.Marshal(map[string]any{
		"kind":       h.Kind.String(),
		"shape":      h.Shape,
		"side":       h.Side,
		"group":      h.Group,
		"connection": h.Connection,
	})
	return string(data)
}
