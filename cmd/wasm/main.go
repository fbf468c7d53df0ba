//go:build js && wasm

package main

import (
	"encoding/base64"
	"syscall/js"
	"time"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/engine"
	"github.com/sysdraw/sysdraw/backend-go/internal/geom"
	"github.com/sysdraw/sysdraw/backend-go/internal/thumbnail"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(nil)

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("applyPatch", js.FuncOf(applyPatch))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("setViewport", js.FuncOf(setViewport))
	api.Set("addShape", js.FuncOf(addShape))
	api.Set("addGroup", js.FuncOf(addGroup))
	api.Set("setConnectionType", js.FuncOf(setConnectionType))
	api.Set("setTextFocus", js.FuncOf(setTextFocus))
	api.Set("reset", js.FuncOf(reset))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))

	// --- Input ---
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("tick", js.FuncOf(tick))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("pinch", js.FuncOf(pinch))
	api.Set("pinchEnd", js.FuncOf(pinchEnd))
	api.Set("doubleClick", js.FuncOf(doubleClick))
	api.Set("commitEdit", js.FuncOf(commitEdit))
	api.Set("cancelEdit", js.FuncOf(cancelEdit))
	api.Set("key", js.FuncOf(key))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getState", js.FuncOf(getState))
	api.Set("getEditing", js.FuncOf(getEditing))
	api.Set("renderThumbnail", js.FuncOf(renderThumbnail))

	js.Global().Set("sysdrawEngine", api)
	js.Global().Set("sysdrawWasmReady", js.ValueOf(true))

	select {}
}

func ok() js.Value {
	return js.ValueOf(map[string]any{"ok": true})
}

func fail(msg string) js.Value {
	return js.ValueOf(map[string]any{"error": msg})
}

// point reads a screen point from args[i] and args[i+1].
func point(args []js.Value, i int) (geom.Point, bool) {
	if len(args) < i+2 {
		return geom.Point{}, false
	}
	return geom.Point{X: args[i].Float(), Y: args[i+1].Float()}, true
}

// pointerEvent reads (x, y, touch?, timestampMs?). A missing timestamp
// means now.
func pointerEvent(args []js.Value) (engine.PointerEvent, bool) {
	p, found := point(args, 0)
	if !found {
		return engine.PointerEvent{}, false
	}
	e := engine.PointerEvent{Pos: p, At: time.Now()}
	if len(args) > 2 && args[2].Type() == js.TypeBoolean {
		e.Touch = args[2].Bool()
	}
	if len(args) > 3 && args[3].Type() == js.TypeNumber {
		e.At = time.UnixMilli(int64(args[3].Float()))
	}
	return e, true
}

// --- Command handlers ---

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing document JSON")
	}
	if err := eng.LoadDocument(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func applyPatch(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing patch JSON")
	}
	if err := eng.ApplyPatch(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	id := "dsgn_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		id = args[0].String()
	}
	eng.LoadSampleDocument(id)
	return ok()
}

func setViewport(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	eng.SetViewport(args[0].Float(), args[1].Float())
	return nil
}

func addShape(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return ""
	}
	return eng.AddShape(document.Kind(args[0].String()))
}

func addGroup(this js.Value, args []js.Value) any {
	return eng.AddGroup()
}

func setConnectionType(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing connection type")
	}
	if err := eng.SetConnectionType(document.ConnectionType(args[0].String())); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setTextFocus(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetTextFocus(args[0].Truthy())
	return nil
}

func reset(this js.Value, args []js.Value) any {
	eng.Reset()
	return nil
}

func undo(this js.Value, args []js.Value) any {
	return eng.Undo()
}

func redo(this js.Value, args []js.Value) any {
	return eng.Redo()
}

// --- Input handlers ---
// Each returns whether the frame needs to be redrawn.

func pointerDown(this js.Value, args []js.Value) any {
	e, found := pointerEvent(args)
	if !found {
		return false
	}
	eng.Controller().PointerDown(e)
	return true
}

func pointerMove(this js.Value, args []js.Value) any {
	e, found := pointerEvent(args)
	if !found {
		return false
	}
	return eng.Controller().PointerMove(e)
}

func pointerUp(this js.Value, args []js.Value) any {
	e, found := pointerEvent(args)
	if !found {
		return false
	}
	return eng.Controller().PointerUp(e)
}

func tick(this js.Value, args []js.Value) any {
	now := time.Now()
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		now = time.UnixMilli(int64(args[0].Float()))
	}
	return eng.Controller().Tick(now)
}

func wheel(this js.Value, args []js.Value) any {
	p, found := point(args, 0)
	if !found || len(args) < 3 {
		return false
	}
	return eng.Controller().Wheel(p, args[2].Float())
}

func pinch(this js.Value, args []js.Value) any {
	a, okA := point(args, 0)
	b, okB := point(args, 2)
	if !okA || !okB {
		return false
	}
	return eng.Controller().Pinch(a, b)
}

func pinchEnd(this js.Value, args []js.Value) any {
	eng.Controller().PinchEnd()
	return nil
}

func doubleClick(this js.Value, args []js.Value) any {
	p, found := point(args, 0)
	if !found {
		return false
	}
	return eng.Controller().DoubleClick(p)
}

func commitEdit(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return false
	}
	return eng.Controller().CommitEdit(args[0].String())
}

func cancelEdit(this js.Value, args []js.Value) any {
	eng.Controller().CancelEdit()
	return nil
}

func key(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return false
	}
	return eng.Controller().Key(args[0].String())
}

// --- Query handlers ---

func render(this js.Value, args []js.Value) any {
	return eng.Render()
}

func hitTest(this js.Value, args []js.Value) any {
	p, found := point(args, 0)
	if !found {
		return "{}"
	}
	return eng.HitTest(p.X, p.Y)
}

func getDocument(this js.Value, args []js.Value) any {
	return eng.GetDocument()
}

func getSelection(this js.Value, args []js.Value) any {
	return eng.GetSelection()
}

func getState(this js.Value, args []js.Value) any {
	return eng.GetState()
}

func getEditing(this js.Value, args []js.Value) any {
	return eng.Controller().Editing()
}

// renderThumbnail returns a PNG data URL of the current camera view.
func renderThumbnail(this js.Value, args []js.Value) any {
	w, h := thumbnail.DefaultWidth, thumbnail.DefaultHeight
	if len(args) >= 2 {
		w, h = args[0].Int(), args[1].Int()
	}
	data, err := thumbnail.RenderView(eng.Document(), w, h)
	if err != nil {
		return fail(err.Error())
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
