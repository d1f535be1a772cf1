package document

import (
	"time"

	"github.com/inamate/schematic/internal/typeid"
)

// NewSampleDocument returns a small wiring sketch on an A0 sheet, with
// elements both inside and well outside the initial view.
func NewSampleDocument(drawingID string) *Document {
	now := time.Now().UTC().Format(time.RFC3339)

	pageID := typeid.NewPageID()

	return &Document{
		Project: Project{
			ID:        drawingID,
			Name:      "Untitled",
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Settings: Settings{
			AnnotationScale: 1,
			Units:           "mm",
			GridSize:        10,
		},
		Pages: []Page{
			{ID: pageID, Name: "Sheet 1", Width: 1189, Height: 841},
		},
		Metadata: map[string]string{"source": "sample"},
		Lines: []Line{
			{ID: typeid.New(typeid.PrefixLine), Start: Point{100, 100}, End: Point{600, 100}, Layer: "walls", Color: "#222222", Weight: 2},
			{ID: typeid.New(typeid.PrefixLine), Start: Point{600, 100}, End: Point{600, 500}, Layer: "walls", Color: "#222222", Weight: 2},
			{ID: typeid.New(typeid.PrefixLine), Start: Point{100, 500}, End: Point{600, 500}, Layer: "walls", Color: "#222222", Weight: 2},
			{ID: typeid.New(typeid.PrefixLine), Start: Point{100, 100}, End: Point{100, 500}, Layer: "walls", Color: "#222222", Weight: 2},
			{ID: typeid.New(typeid.PrefixLine), Start: Point{3000, 2000}, End: Point{3400, 2000}, Layer: "cable", Color: "#0055aa", Material: "cu-2.5"},
		},
		Arrows: []Arrow{
			{ID: typeid.New(typeid.PrefixArrow), Tail: Point{650, 300}, Head: Point{720, 300}, Color: "#aa0000"},
		},
		Arcs: []Arc{
			{ID: typeid.New(typeid.PrefixArc), Start: Point{250, 100}, Through: Point{325, 175}, End: Point{400, 100}, Layer: "doors"},
		},
		Curves: []Curve{
			{ID: typeid.New(typeid.PrefixCurve), Start: Point{150, 450}, Through: Point{300, 380}, End: Point{450, 450}, Layer: "cable", Color: "#0055aa"},
		},
		Symbols: []Symbol{
			{ID: typeid.New(typeid.PrefixSymbol), Kind: "socket", Position: Point{150, 150}},
			{ID: typeid.New(typeid.PrefixSymbol), Kind: "switch", Position: Point{550, 150}, Rotation: 90},
			{ID: typeid.New(typeid.PrefixSymbol), Kind: "light", Position: Point{350, 300}},
			{ID: typeid.New(typeid.PrefixSymbol), Kind: "socket", Position: Point{3200, 2050}},
		},
		Texts: []Text{
			{ID: typeid.New(typeid.PrefixText), Position: Point{120, 80}, Content: "Kitchen", Size: 12},
			{ID: typeid.New(typeid.PrefixText), Position: Point{3100, 1980}, Content: "Garage feed", Size: 10},
		},
		Marks: []Mark{
			{ID: typeid.New(typeid.PrefixMark), Kind: "cross", Position: Point{350, 500}},
		},
		Dimensions: []Dimension{
			{ID: typeid.New(typeid.PrefixDimension), Start: Point{100, 540}, End: Point{600, 540}, Position: Point{350, 560}, Label: "5000"},
		},
		Legends: []LegendPlacement{
			{ID: typeid.New(typeid.PrefixLegend), Position: Point{1000, 700}, Entries: []string{"socket", "switch", "light"}},
		},
		GeneralNotes: []NotePlacement{
			{ID: typeid.New(typeid.PrefixNote), Position: Point{1000, 60}, Notes: []string{"All dimensions in mm."}},
		},
	}
}
