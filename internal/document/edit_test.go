package document

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func editDoc() *Document {
	d := NewEmptyDocument("dwg_1", "Plan", "page_1")
	d.Lines = []Line{
		{ID: "line_a", Start: Point{0, 0}, End: Point{10, 0}},
		{ID: "line_b", Start: Point{0, 5}, End: Point{10, 5}},
	}
	d.Symbols = []Symbol{{ID: "sym_a", Kind: "socket", Position: Point{3, 3}}}
	d.Dimensions = []Dimension{{ID: "dim_a", Start: Point{0, 0}, End: Point{10, 0}, Position: Point{5, 2}}}
	return d
}

func TestLocate(t *testing.T) {
	d := editDoc()
	tests := []struct {
		id    string
		kind  string
		index int
		ok    bool
	}{
		{"line_b", KindLine, 1, true},
		{"sym_a", KindSymbol, 0, true},
		{"dim_a", KindDimension, 0, true},
		{"nope", "", -1, false},
	}
	for _, tc := range tests {
		kind, i, ok := d.Locate(tc.id)
		if kind != tc.kind || i != tc.index || ok != tc.ok {
			t.Errorf("Locate(%q) = %q, %d, %v; want %q, %d, %v", tc.id, kind, i, ok, tc.kind, tc.index, tc.ok)
		}
	}
}

func TestAddElement(t *testing.T) {
	d := editDoc()
	before := editDoc()
	zero := 0

	out, id, err := d.AddElement(KindLine, json.RawMessage(`{"id":"line_c","start":{"x":1,"y":1},"end":{"x":2,"y":2}}`), &zero)
	if err != nil {
		t.Fatal(err)
	}
	if id != "line_c" {
		t.Errorf("id = %q", id)
	}
	if got := []string{out.Lines[0].ID, out.Lines[1].ID, out.Lines[2].ID}; !reflect.DeepEqual(got, []string{"line_c", "line_a", "line_b"}) {
		t.Errorf("order = %v", got)
	}
	if !reflect.DeepEqual(d, before) {
		t.Error("AddElement modified its receiver")
	}
	if &out.Symbols[0] != &d.Symbols[0] {
		t.Error("untouched collection was copied")
	}

	// Out of range index appends.
	far := 99
	out, _, err = d.AddElement(KindMark, json.RawMessage(`{"id":"mark_a","kind":"cross","position":{"x":1,"y":1}}`), &far)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Marks) != 1 || out.Marks[0].ID != "mark_a" {
		t.Errorf("marks = %+v", out.Marks)
	}
}

func TestAddElementErrors(t *testing.T) {
	d := editDoc()
	tests := []struct {
		name string
		kind string
		raw  string
		want error
	}{
		{"unknown kind", "blob", `{"id":"x"}`, ErrUnknownKind},
		{"missing id", KindText, `{"content":"x"}`, ErrMissingID},
		{"duplicate across kinds", KindText, `{"id":"sym_a"}`, ErrDuplicateID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := d.AddElement(tc.kind, json.RawMessage(tc.raw), nil)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
	if _, _, err := d.AddElement(KindLine, json.RawMessage(`[`), nil); err == nil {
		t.Error("malformed element accepted")
	}
}

func TestUpdateElement(t *testing.T) {
	d := editDoc()
	out, err := d.UpdateElement(KindSymbol, json.RawMessage(`{"id":"sym_a","kind":"light","position":{"x":3,"y":3},"color":"#f00"}`))
	if err != nil {
		t.Fatal(err)
	}
	if out.Symbols[0].Kind != "light" || out.Symbols[0].Color != "#f00" {
		t.Errorf("symbol = %+v", out.Symbols[0])
	}
	if d.Symbols[0].Kind != "socket" {
		t.Error("receiver modified")
	}
	if _, err := d.UpdateElement(KindSymbol, json.RawMessage(`{"id":"line_a"}`)); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("got %v, want ErrElementNotFound", err)
	}
}

func TestDeleteElement(t *testing.T) {
	d := editDoc()
	out, err := d.DeleteElement("line_a")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Lines) != 1 || out.Lines[0].ID != "line_b" {
		t.Errorf("lines = %+v", out.Lines)
	}
	if len(d.Lines) != 2 {
		t.Error("receiver modified")
	}

	out, err = out.DeleteElement("line_b")
	if err != nil {
		t.Fatal(err)
	}
	if out.Lines == nil || len(out.Lines) != 0 {
		t.Errorf("lines = %#v, want empty non-nil", out.Lines)
	}

	if _, err := d.DeleteElement("nope"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("got %v, want ErrElementNotFound", err)
	}
}

func TestMoveElement(t *testing.T) {
	d := editDoc()
	out, err := d.MoveElement("dim_a", 10, -1)
	if err != nil {
		t.Fatal(err)
	}
	want := Dimension{ID: "dim_a", Start: Point{10, -1}, End: Point{20, -1}, Position: Point{15, 1}}
	if out.Dimensions[0] != want {
		t.Errorf("got %+v, want %+v", out.Dimensions[0], want)
	}
	if d.Dimensions[0].Start != (Point{0, 0}) {
		t.Error("receiver modified")
	}
	if _, err := d.MoveElement("nope", 1, 1); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("got %v, want ErrElementNotFound", err)
	}
}

func TestWithSettingsAndPage(t *testing.T) {
	d := editDoc()
	if _, err := d.WithSettings(Settings{AnnotationScale: 0}); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("got %v, want ErrInvalidSettings", err)
	}
	out, err := d.WithSettings(Settings{AnnotationScale: 2, Units: "cm"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Settings.AnnotationScale != 2 || d.Settings.AnnotationScale != 1 {
		t.Errorf("settings = %+v / %+v", out.Settings, d.Settings)
	}

	page := d.Pages[0]
	page.BackgroundAssetID = "asset_1"
	out, err = d.WithPage(page)
	if err != nil {
		t.Fatal(err)
	}
	if out.Pages[0].BackgroundAssetID != "asset_1" || d.Pages[0].BackgroundAssetID != "" {
		t.Error("page not replaced copy-on-write")
	}
	if _, err := d.WithPage(Page{ID: "page_x"}); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("got %v, want ErrPageNotFound", err)
	}

	if got := d.WithName("Renamed").Project.Name; got != "Renamed" || d.Project.Name != "Plan" {
		t.Errorf("rename: got %q, receiver %q", got, d.Project.Name)
	}
}
