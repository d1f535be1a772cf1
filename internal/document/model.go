package document

import "seehuhn.de/go/geom/vec"

// Document is a schematic drawing snapshot. Element collections are ordered
// by z-order: later entries are drawn on top of earlier ones.
type Document struct {
	Project  Project           `json:"project"`
	Settings Settings          `json:"settings"`
	Pages    []Page            `json:"pages"`
	Metadata map[string]string `json:"metadata,omitempty"`

	Lines        []Line            `json:"lines"`
	Arrows       []Arrow           `json:"arrows"`
	Arcs         []Arc             `json:"arcs"`
	Curves       []Curve           `json:"curves"`
	Symbols      []Symbol          `json:"symbols"`
	Texts        []Text            `json:"texts"`
	Marks        []Mark            `json:"marks"`
	Dimensions   []Dimension       `json:"dimensions"`
	Legends      []LegendPlacement `json:"legends"`
	GeneralNotes []NotePlacement   `json:"generalNotes"`
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Settings struct {
	// AnnotationScale controls the drawn size of symbols, texts and marks
	// independently of zoom.
	AnnotationScale float64 `json:"annotationScale"`
	Units           string  `json:"units"`
	GridSize        float64 `json:"gridSize"`
}

// EffectiveAnnotationScale returns AnnotationScale, or 1 when it is unset.
func (s Settings) EffectiveAnnotationScale() float64 {
	if !(s.AnnotationScale > 0) {
		return 1
	}
	return s.AnnotationScale
}

// Page is one raster background sheet.
type Page struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Width             float64 `json:"width"`
	Height            float64 `json:"height"`
	BackgroundAssetID string  `json:"backgroundAssetId,omitempty"`
}

// Point is a position in document units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec converts p to a geometry vector.
func (p Point) Vec() vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

type Line struct {
	ID       string  `json:"id"`
	Start    Point   `json:"start"`
	End      Point   `json:"end"`
	Layer    string  `json:"layer,omitempty"`
	Color    string  `json:"color,omitempty"`
	Material string  `json:"material,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

type Arrow struct {
	ID    string `json:"id"`
	Tail  Point  `json:"tail"`
	Head  Point  `json:"head"`
	Layer string `json:"layer,omitempty"`
	Color string `json:"color,omitempty"`
}

// Arc is a circular arc through three points.
type Arc struct {
	ID      string `json:"id"`
	Start   Point  `json:"start"`
	Through Point  `json:"through"`
	End     Point  `json:"end"`
	Layer   string `json:"layer,omitempty"`
	Color   string `json:"color,omitempty"`
}

// Curve is a smooth curve through three points.
type Curve struct {
	ID      string `json:"id"`
	Start   Point  `json:"start"`
	Through Point  `json:"through"`
	End     Point  `json:"end"`
	Layer   string `json:"layer,omitempty"`
	Color   string `json:"color,omitempty"`
}

type Symbol struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Position Point   `json:"position"`
	Rotation float64 `json:"rotation,omitempty"`
	Layer    string  `json:"layer,omitempty"`
	Color    string  `json:"color,omitempty"`
	Material string  `json:"material,omitempty"`
}

type Text struct {
	ID       string  `json:"id"`
	Position Point   `json:"position"`
	Content  string  `json:"content"`
	Size     float64 `json:"size,omitempty"`
	Layer    string  `json:"layer,omitempty"`
	Color    string  `json:"color,omitempty"`
}

// Mark is a construction mark (cross, tick, reference dot).
type Mark struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Position Point  `json:"position"`
	Color    string `json:"color,omitempty"`
}

// Dimension is a measured span between Start and End with its label at
// Position.
type Dimension struct {
	ID       string `json:"id"`
	Start    Point  `json:"start"`
	End      Point  `json:"end"`
	Position Point  `json:"position"`
	Label    string `json:"label,omitempty"`
	Color    string `json:"color,omitempty"`
}

type LegendPlacement struct {
	ID       string   `json:"id"`
	Position Point    `json:"position"`
	Entries  []string `json:"entries,omitempty"`
}

type NotePlacement struct {
	ID       string   `json:"id"`
	Position Point    `json:"position"`
	Notes    []string `json:"notes,omitempty"`
}

// ElementCount returns the total number of elements across all collections.
func (d *Document) ElementCount() int {
	if d == nil {
		return 0
	}
	return len(d.Lines) + len(d.Arrows) + len(d.Arcs) + len(d.Curves) +
		len(d.Symbols) + len(d.Texts) + len(d.Marks) + len(d.Dimensions) +
		len(d.Legends) + len(d.GeneralNotes)
}

// Page returns the page with the given id.
func (d *Document) Page(id string) (Page, bool) {
	for _, p := range d.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

// NewEmptyDocument creates an empty document for a new drawing.
func NewEmptyDocument(drawingID, drawingName, pageID string) *Document {
	return &Document{
		Project: Project{
			ID:        drawingID,
			Name:      drawingName,
			Version:   1,
			CreatedAt: "", // Will be set by caller
			UpdatedAt: "",
		},
		Settings: Settings{
			AnnotationScale: 1,
			Units:           "mm",
			GridSize:        10,
		},
		Pages: []Page{
			{ID: pageID, Name: "Sheet 1", Width: 1189, Height: 841},
		},
		Lines:        []Line{},
		Arrows:       []Arrow{},
		Arcs:         []Arc{},
		Curves:       []Curve{},
		Symbols:      []Symbol{},
		Texts:        []Text{},
		Marks:        []Mark{},
		Dimensions:   []Dimension{},
		Legends:      []LegendPlacement{},
		GeneralNotes: []NotePlacement{},
	}
}
