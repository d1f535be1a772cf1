package engine

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/viewport"
)

func sampleEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	e.LoadSampleDocument("dwg_test")
	e.SetScreenSize(800, 600)
	e.SetMargin(0)
	return e
}

func decodeCommands(t *testing.T, s string) []DrawCommand {
	t.Helper()
	var cmds []DrawCommand
	if err := json.Unmarshal([]byte(s), &cmds); err != nil {
		t.Fatalf("decode draw commands: %v", err)
	}
	return cmds
}

func objectIDs(cmds []DrawCommand) map[string]bool {
	out := make(map[string]bool)
	for _, c := range cmds {
		out[c.ObjectID] = true
	}
	return out
}

func TestRenderOnlyVisible(t *testing.T) {
	e := sampleEngine(t)
	doc := e.doc

	cmds := decodeCommands(t, e.Render())
	if len(cmds) == 0 {
		t.Fatal("no draw commands")
	}
	if cmds[0].ObjectID != doc.Pages[0].ID {
		t.Errorf("first command draws %q, want the page", cmds[0].ObjectID)
	}

	ids := objectIDs(cmds)
	if !ids[doc.Lines[0].ID] {
		t.Error("room wall not drawn")
	}
	far := doc.Lines[4].ID
	if ids[far] {
		t.Error("far cable line drawn while off screen")
	}

	// Move the far corner of the sheet into view.
	e.Pan(-2900, -1900)
	ids = objectIDs(decodeCommands(t, e.Render()))
	if !ids[far] {
		t.Error("far cable line not drawn after panning to it")
	}
	if ids[doc.Lines[0].ID] {
		t.Error("room wall still drawn after panning away")
	}
}

func TestRenderEmpty(t *testing.T) {
	e := NewEngine()
	if got := e.Render(); got != "[]" {
		t.Errorf("Render() = %s, want []", got)
	}
	if got := e.HitTest(1, 1); got != "" {
		t.Errorf("HitTest() = %q", got)
	}
	if got := e.GetVisibleDocument(); got != "{}" {
		t.Errorf("GetVisibleDocument() = %s", got)
	}
}

func TestLegendsAlwaysRendered(t *testing.T) {
	e := sampleEngine(t)
	e.Pan(-100000, -100000)
	ids := objectIDs(decodeCommands(t, e.Render()))
	for _, l := range e.doc.Legends {
		if !ids[l.ID] {
			t.Errorf("legend %s not drawn", l.ID)
		}
	}
	for _, n := range e.doc.GeneralNotes {
		if !ids[n.ID] {
			t.Errorf("note %s not drawn", n.ID)
		}
	}
}

func TestHitTest(t *testing.T) {
	e := sampleEngine(t)
	doc := e.doc

	tests := []struct {
		name   string
		sx, sy float64
		want   string
	}{
		{"top wall", 500, 101, doc.Lines[0].ID},
		{"socket symbol", 152, 148, doc.Symbols[0].ID},
		{"empty floor", 480, 250, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.HitTest(tc.sx, tc.sy); got != tc.want {
				t.Errorf("HitTest(%v, %v) = %q, want %q", tc.sx, tc.sy, got, tc.want)
			}
		})
	}

	// Zooming in by 2 around the origin moves the wall to y=200 on screen.
	e.ZoomAt(2, 0, 0)
	if got := e.HitTest(1000, 201); got != doc.Lines[0].ID {
		t.Errorf("after zoom HitTest = %q, want top wall", got)
	}
}

func TestIndexedMatchesLinear(t *testing.T) {
	linear := sampleEngine(t)
	indexed := NewEngine()
	indexed.SetIndexing(0, 128)
	if err := indexed.LoadDocument(linear.GetDocument()); err != nil {
		t.Fatal(err)
	}
	indexed.SetScreenSize(800, 600)
	indexed.SetMargin(0)
	if !indexed.Indexed() || linear.Indexed() {
		t.Fatalf("Indexed() = %v/%v, want true/false", indexed.Indexed(), linear.Indexed())
	}

	for _, pan := range [][2]float64{{0, 0}, {-2900, -1900}, {-400, 200}, {5000, 5000}} {
		linear.SetView(1, pan[0], pan[1])
		indexed.SetView(1, pan[0], pan[1])
		if !reflect.DeepEqual(linear.Visible(), indexed.Visible()) {
			t.Errorf("pan %v: indexed result differs", pan)
		}
		if linear.Render() != indexed.Render() {
			t.Errorf("pan %v: draw commands differ", pan)
		}
	}
}

func TestFocusSelectionAnimates(t *testing.T) {
	e := sampleEngine(t)
	target := e.doc.Symbols[3] // far socket at (3200, 2050)

	e.SetSelection([]string{target.ID})
	if !e.FocusSelection() {
		t.Fatal("FocusSelection() = false")
	}
	if !e.Animating() {
		t.Fatal("no camera move started")
	}

	for i := 0; e.Animating(); i++ {
		if i > maxCameraFrames {
			t.Fatal("camera move did not finish")
		}
		e.Tick()
		if !(e.View().Zoom > 0) {
			t.Fatalf("zoom went to %v", e.View().Zoom)
		}
	}

	got := e.View().DocToScreen(target.Position.Vec())
	if math.Abs(got.X-400) > 1 || math.Abs(got.Y-300) > 1 {
		t.Errorf("focused symbol at screen %v, want centre", got)
	}
	ids := objectIDs(decodeCommands(t, e.Render()))
	if !ids[target.ID] {
		t.Error("focused symbol not drawn")
	}
}

func TestFocusSelectionEmpty(t *testing.T) {
	e := sampleEngine(t)
	e.SetSelection([]string{"sym_missing"})
	if e.FocusSelection() {
		t.Error("FocusSelection() = true for unknown id")
	}
	if e.Animating() {
		t.Error("camera move started")
	}
}

func TestZoomToFitShowsEverything(t *testing.T) {
	e := sampleEngine(t)
	if !e.ZoomToFit() {
		t.Fatal("ZoomToFit() = false")
	}
	for e.Animating() {
		e.Tick()
	}
	st := e.Stats()
	if st.Kept() != st.Total() {
		t.Errorf("after fit %d of %d elements visible", st.Kept(), st.Total())
	}
}

func TestPanCancelsAnimation(t *testing.T) {
	e := sampleEngine(t)
	e.ZoomToFit()
	e.Tick()
	e.Pan(10, 0)
	if e.Animating() {
		t.Error("user pan did not cancel the camera move")
	}
}

func TestSetPage(t *testing.T) {
	e := sampleEngine(t)
	if e.SetPage("page_missing") {
		t.Error("SetPage() = true for unknown page")
	}
	id := e.doc.Pages[0].ID
	if !e.SetPage(id) {
		t.Fatal("SetPage() = false")
	}
	if e.View().PageID != id {
		t.Errorf("PageID = %q, want %q", e.View().PageID, id)
	}
}

func TestUpdateDocumentKeepsView(t *testing.T) {
	e := sampleEngine(t)
	e.SetView(2, -150, -40)
	e.SetSelection([]string{e.doc.Lines[0].ID})

	var doc document.Document
	if err := json.Unmarshal([]byte(e.GetDocument()), &doc); err != nil {
		t.Fatal(err)
	}
	doc.Lines = doc.Lines[:1]
	data, _ := json.Marshal(&doc)

	before := e.View()
	if err := e.UpdateDocument(string(data)); err != nil {
		t.Fatal(err)
	}
	if e.View() != before {
		t.Errorf("view changed: %+v -> %+v", before, e.View())
	}
	if e.GetSelection() == "null" {
		t.Error("selection was cleared")
	}
	if st := e.Stats(); st.Lines.Total != 1 {
		t.Errorf("lines total = %d, want 1", st.Lines.Total)
	}
}

func TestLoadDocumentErrors(t *testing.T) {
	e := NewEngine()
	if err := e.LoadDocument("{not json"); err == nil {
		t.Error("LoadDocument accepted malformed JSON")
	}
	if err := e.UpdateDocument(""); err == nil {
		t.Error("UpdateDocument accepted empty input")
	}
}

func TestSetViewIgnoresBadZoom(t *testing.T) {
	e := sampleEngine(t)
	e.SetView(0, 10, 10)
	e.SetView(math.NaN(), 10, 10)
	if e.View() != (viewport.ViewState{Zoom: 1, PageID: e.doc.Pages[0].ID}) {
		t.Errorf("view = %+v", e.View())
	}
}

func TestGetViewportAndStats(t *testing.T) {
	e := sampleEngine(t)
	e.SetMargin(100)
	e.SetView(2, 0, 0)

	var vp map[string]float64
	if err := json.Unmarshal([]byte(e.GetViewport()), &vp); err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"minX": -50, "minY": -50, "maxX": 450, "maxY": 350}
	if !reflect.DeepEqual(vp, want) {
		t.Errorf("viewport = %v, want %v", vp, want)
	}

	var st struct {
		Kept    int  `json:"kept"`
		Total   int  `json:"total"`
		Indexed bool `json:"indexed"`
	}
	if err := json.Unmarshal([]byte(e.GetCullStats()), &st); err != nil {
		t.Fatal(err)
	}
	if st.Total != e.doc.ElementCount() || st.Kept == 0 || st.Kept >= st.Total || st.Indexed {
		t.Errorf("stats = %+v", st)
	}
}

func TestSelectionBounds(t *testing.T) {
	e := sampleEngine(t)
	e.SetSelection([]string{e.doc.Lines[0].ID, e.doc.Lines[1].ID})

	var got map[string]float64
	if err := json.Unmarshal([]byte(e.GetSelectionBounds()), &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"x": 100, "y": 100, "width": 500, "height": 400}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bounds = %v, want %v", got, want)
	}
}
