//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/inamate/schematic/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	schematicEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	schematicEngine.Set("loadDocument", js.FuncOf(loadDocument))
	schematicEngine.Set("updateDocument", js.FuncOf(updateDocument))
	schematicEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	schematicEngine.Set("setScreenSize", js.FuncOf(setScreenSize))
	schematicEngine.Set("setMargin", js.FuncOf(setMargin))
	schematicEngine.Set("setIndexing", js.FuncOf(setIndexing))
	schematicEngine.Set("setView", js.FuncOf(setView))
	schematicEngine.Set("pan", js.FuncOf(pan))
	schematicEngine.Set("zoomAt", js.FuncOf(zoomAt))
	schematicEngine.Set("setPage", js.FuncOf(setPage))
	schematicEngine.Set("setSelection", js.FuncOf(setSelection))
	schematicEngine.Set("focusSelection", js.FuncOf(focusSelection))
	schematicEngine.Set("zoomToFit", js.FuncOf(zoomToFit))
	schematicEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	schematicEngine.Set("render", js.FuncOf(render))
	schematicEngine.Set("hitTest", js.FuncOf(hitTest))
	schematicEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	schematicEngine.Set("getViewport", js.FuncOf(getViewport))
	schematicEngine.Set("getVisibleDocument", js.FuncOf(getVisibleDocument))
	schematicEngine.Set("getCullStats", js.FuncOf(getCullStats))
	schematicEngine.Set("getView", js.FuncOf(getView))
	schematicEngine.Set("getDocument", js.FuncOf(getDocument))
	schematicEngine.Set("getSelection", js.FuncOf(getSelection))
	schematicEngine.Set("isAnimating", js.FuncOf(isAnimating))

	// Register on global scope
	js.Global().Set("schematicEngine", schematicEngine)

	// Signal that WASM is ready
	js.Global().Set("schematicWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	if err := eng.LoadDocument(args[0].String()); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func updateDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	if err := eng.UpdateDocument(args[0].String()); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	drawingID := "dwg_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		drawingID = args[0].String()
	}
	eng.LoadSampleDocument(drawingID)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setScreenSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetScreenSize(args[0].Float(), args[1].Float())
	return nil
}

func setMargin(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetMargin(args[0].Float())
	return nil
}

func setIndexing(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetIndexing(args[0].Int(), args[1].Float())
	return nil
}

func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SetView(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func pan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Pan(args[0].Float(), args[1].Float())
	return nil
}

func zoomAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.ZoomAt(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func setPage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetPage(args[0].String()))
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		eng.SetSelection(nil)
		return nil
	}

	arr := args[0]
	if arr.Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}

	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func focusSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.FocusSelection())
}

func zoomToFit(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ZoomToFit())
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getViewport(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetViewport())
}

func getVisibleDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetVisibleDocument())
}

func getCullStats(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetCullStats())
}

func getView(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetView())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func isAnimating(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Animating())
}
