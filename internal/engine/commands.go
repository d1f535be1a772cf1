package engine

import (
	"encoding/json"

	"seehuhn.de/go/geom/rect"

	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/viewport"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op           string        `json:"op"`                     // Operation: "path", "image", "text"
	ObjectID     string        `json:"objectId,omitempty"`     // For hit correlation
	Transform    []float64     `json:"transform,omitempty"`    // [a, b, c, d, e, f] document to screen
	Path         []PathCommand `json:"path,omitempty"`         // Path data for "path" ops
	Fill         string        `json:"fill,omitempty"`         // Fill color
	Stroke       string        `json:"stroke,omitempty"`       // Stroke color
	StrokeWidth  float64       `json:"strokeWidth,omitempty"`  // Stroke width in document units
	Opacity      float64       `json:"opacity,omitempty"`      // Global alpha
	ImageAssetID string        `json:"imageAssetId,omitempty"` // Asset ID for image lookup
	ImageWidth   float64       `json:"imageWidth,omitempty"`   // Image natural width
	ImageHeight  float64       `json:"imageHeight,omitempty"`  // Image natural height
	Text         string        `json:"text,omitempty"`         // Content for "text" ops, drawn at the origin
	FontSize     float64       `json:"fontSize,omitempty"`
}

const (
	defaultInk   = "#222222"
	pageFill     = "#ffffff"
	pageBorder   = "#c8c8c8"
	arrowHeadLen = 6
	dimTick      = 3
)

// CompileDrawCommands generates draw commands for doc as seen through view.
// doc is normally an already culled snapshot. Commands are in painter's
// order: the page background first, then elements in the order buildScene
// lists them.
func CompileDrawCommands(doc *document.Document, view viewport.ViewState) []DrawCommand {
	if doc == nil {
		return nil
	}
	scale := doc.Settings.EffectiveAnnotationScale()
	vm := view.Matrix()
	world := toSlice(vm)
	at := func(x, y, rot, s float64) []float64 {
		return toSlice(multiply(vm, placement(x, y, rot, s)))
	}

	var cmds []DrawCommand
	if page, ok := currentPage(doc, view.PageID); ok {
		if page.BackgroundAssetID != "" {
			cmds = append(cmds, DrawCommand{
				Op:           "image",
				ObjectID:     page.ID,
				Transform:    world,
				Opacity:      1,
				ImageAssetID: page.BackgroundAssetID,
				ImageWidth:   page.Width,
				ImageHeight:  page.Height,
			})
		} else {
			cmds = append(cmds, DrawCommand{
				Op:          "path",
				ObjectID:    page.ID,
				Transform:   world,
				Path:        rectPath(page.Width, page.Height),
				Opacity:     1,
				Fill:        pageFill,
				Stroke:      pageBorder,
				StrokeWidth: 1,
			})
		}
	}

	stroke := func(id, color string, width float64, path []PathCommand) DrawCommand {
		return DrawCommand{
			Op:          "path",
			ObjectID:    id,
			Transform:   world,
			Path:        path,
			Opacity:     1,
			Stroke:      ink(color),
			StrokeWidth: width,
		}
	}
	text := func(id, color, content string, size float64, transform []float64) DrawCommand {
		return DrawCommand{
			Op:        "text",
			ObjectID:  id,
			Transform: transform,
			Opacity:   1,
			Fill:      ink(color),
			Text:      content,
			FontSize:  size,
		}
	}

	for _, l := range doc.Lines {
		cmds = append(cmds, stroke(l.ID, l.Color, strokeWidth(l.Weight), segmentPath(l.Start.Vec(), l.End.Vec())))
	}
	for _, a := range doc.Arcs {
		cmds = append(cmds, stroke(a.ID, a.Color, 1, arcPath(a.Start.Vec(), a.Through.Vec(), a.End.Vec())))
	}
	for _, c := range doc.Curves {
		cmds = append(cmds, stroke(c.ID, c.Color, 1, curvePath(c.Start.Vec(), c.Through.Vec(), c.End.Vec())))
	}
	for _, d := range doc.Dimensions {
		cmds = append(cmds, stroke(d.ID, d.Color, 0.5, dimensionPath(d.Start.Vec(), d.End.Vec(), dimTick*scale)))
		if d.Label != "" {
			cmds = append(cmds, text(d.ID, d.Color, d.Label, defaultTextSize*scale, at(d.Position.X, d.Position.Y, 0, 1)))
		}
	}
	for _, a := range doc.Arrows {
		cmds = append(cmds, stroke(a.ID, a.Color, 1, arrowPath(a.Tail.Vec(), a.Head.Vec(), arrowHeadLen*scale)))
	}
	for _, m := range doc.Marks {
		c := stroke(m.ID, m.Color, 1/(markRadius*scale), crossPath(1))
		c.Transform = at(m.Position.X, m.Position.Y, 0, markRadius*scale)
		cmds = append(cmds, c)
	}
	for _, s := range doc.Symbols {
		c := stroke(s.ID, s.Color, 1/(symbolRadius*scale), symbolPath(s.Kind))
		c.Transform = at(s.Position.X, s.Position.Y, s.Rotation, symbolRadius*scale)
		cmds = append(cmds, c)
	}
	for _, t := range doc.Texts {
		cmds = append(cmds, text(t.ID, t.Color, t.Content, textSize(t.Size, scale), at(t.Position.X, t.Position.Y, 0, 1)))
	}
	block := func(id string, pos document.Point, rows []string) {
		size := (legendRowHeight - 2) * scale
		for i, row := range rows {
			y := pos.Y + float64(i+1)*legendRowHeight*scale
			cmds = append(cmds, text(id, "", row, size, at(pos.X, y, 0, 1)))
		}
	}
	for _, l := range doc.Legends {
		block(l.ID, l.Position, l.Entries)
	}
	for _, n := range doc.GeneralNotes {
		block(n.ID, n.Position, n.Notes)
	}
	return cmds
}

// currentPage returns the page with the given id, or the first page.
func currentPage(doc *document.Document, id string) (document.Page, bool) {
	if p, ok := doc.Page(id); ok {
		return p, true
	}
	if len(doc.Pages) > 0 {
		return doc.Pages[0], true
	}
	return document.Page{}, false
}

func pageRect(p document.Page) rect.Rect {
	return rect.Rect{URx: p.Width, URy: p.Height}
}

func ink(color string) string {
	if color == "" {
		return defaultInk
	}
	return color
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a document-space rectangle as x/y/width/height.
func RectToJSON(r rect.Rect) string {
	data, _ := json.Marshal(map[string]float64{
		"x":      r.LLx,
		"y":      r.LLy,
		"width":  r.URx - r.LLx,
		"height": r.URy - r.LLy,
	})
	return string(data)
}

// ScreenRect maps a document rectangle to screen space under view.
func ScreenRect(view viewport.ViewState, r rect.Rect) rect.Rect {
	return transformRect(view.Matrix(), r)
}
