package sheet

import (
	"testing"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// line собирает строку листа из пар "колонка → значение".
func line(cells map[string]string) Row {
	row := make(Row, DefaultLayout().Width())
	for col, v := range cells {
		n, err := excelize.ColumnNameToNumber(col)
		if err != nil {
			panic(err)
		}
		row[n-1] = Literal(v)
	}
	return row
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDecode(t *testing.T) {
	header := line(map[string]string{"B": "Category", "F": "Item", "X": "Price"})

	tests := []struct {
		name string
		rows []Row
		want []catalog.Row
	}{
		{
			name: "inherits category and subcategory",
			rows: []Row{
				header,
				line(map[string]string{"B": "Flooring"}),
				line(map[string]string{"D": "Tile"}),
				line(map[string]string{"F": "Tile Install", "H": "m²", "R": "30", "S": "20", "X": "50"}),
				line(map[string]string{"F": "Grout", "J": "kg", "X": "4,5"}),
			},
			want: []catalog.Row{
				{Category: "Flooring", SubCategory: "Tile", Item: "Tile Install", Unit: "m²", PreTaxPrice: dec("50"), LaborPrice: dec("30"), MaterialPrice: dec("20")},
				{Category: "Flooring", SubCategory: "Tile", Item: "Grout", Unit: "kg", PreTaxPrice: dec("4.5")},
			},
		},
		{
			name: "stray item before any category is dropped",
			rows: []Row{
				header,
				line(map[string]string{"F": "Orphan", "X": "10"}),
				line(map[string]string{"B": "Flooring"}),
				line(map[string]string{"F": "Still orphan", "X": "10"}),
				line(map[string]string{"D": "Tile"}),
				line(map[string]string{"F": "Kept", "X": "10"}),
			},
			want: []catalog.Row{
				{Category: "Flooring", SubCategory: "Tile", Item: "Kept", PreTaxPrice: dec("10")},
			},
		},
		{
			name: "missing price falls back to labor plus material",
			rows: []Row{
				header,
				line(map[string]string{"B": "Walls", "D": "Paint"}),
				line(map[string]string{"F": "Primer", "R": "12", "S": "3.5"}),
				line(map[string]string{"F": "No price at all"}),
				line(map[string]string{"F": "Bad price", "R": "1", "X": "n/a"}),
			},
			want: []catalog.Row{
				{Category: "Walls", SubCategory: "Paint", Item: "Primer", PreTaxPrice: dec("15.5"), LaborPrice: dec("12"), MaterialPrice: dec("3.5")},
			},
		},
		{
			name: "item on the category row is kept",
			rows: []Row{
				header,
				line(map[string]string{"B": "Roof", "D": "Tiles", "F": "Ridge", "X": "8"}),
			},
			want: []catalog.Row{
				{Category: "Roof", SubCategory: "Tiles", Item: "Ridge", PreTaxPrice: dec("8")},
			},
		},
		{
			name: "package flag only for literal one",
			rows: []Row{
				header,
				line(map[string]string{"B": "Bath", "D": "Shower"}),
				line(map[string]string{"F": "Tray", "X": "100", "Y": "1", "Z": "2", "AA": "Acrylic tray"}),
				line(map[string]string{"F": "Screen", "X": "80", "Y": "2"}),
				line(map[string]string{"F": "Valve", "X": "40", "Y": "1.0", "Z": "0"}),
			},
			want: []catalog.Row{
				{Category: "Bath", SubCategory: "Shower", Item: "Tray", PreTaxPrice: dec("100"), InPackage: true, DefaultQuantity: dec("2"), Description: "Acrylic tray"},
				{Category: "Bath", SubCategory: "Shower", Item: "Screen", PreTaxPrice: dec("80")},
				{Category: "Bath", SubCategory: "Shower", Item: "Valve", PreTaxPrice: dec("40"), InPackage: true},
			},
		},
	}

	r := NewReader(DefaultLayout(), "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Decode(tt.rows)
			assertRows(t, got, normalized(tt.want))
		})
	}
}

func TestStepIsPure(t *testing.T) {
	l := DefaultLayout()
	st := State{}
	st, item := l.Step(st, line(map[string]string{"B": "Flooring"}))
	if item != nil || st.Level1 != "Flooring" || st.Level2 != "" {
		t.Fatalf("after category row: %+v, %v", st, item)
	}
	st2, item := l.Step(st, line(map[string]string{"D": "Tile"}))
	if item != nil || st2.Level2 != "Tile" {
		t.Fatalf("after subcategory row: %+v, %v", st2, item)
	}
	if st.Level2 != "" {
		t.Error("previous state mutated")
	}
}

func TestReadStructuredFormulaPrice(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	headers := DefaultLayout().Headers()
	labels := make([]any, len(headers))
	for i, h := range headers {
		labels[i] = h
	}
	must(t, f.SetSheetRow("Sheet1", "A1", &labels))
	must(t, f.SetCellValue("Sheet1", "B2", "Flooring"))
	must(t, f.SetCellValue("Sheet1", "D3", "Tile"))
	must(t, f.SetCellValue("Sheet1", "F4", "Tile Install"))
	must(t, f.SetCellValue("Sheet1", "R4", 30))
	must(t, f.SetCellValue("Sheet1", "S4", 20))
	must(t, f.SetCellFormula("Sheet1", "X4", "R4+S4"))
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewReader(DefaultLayout(), "").ReadStructured(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadStructured: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !rows[0].PreTaxPrice.Equal(dec("50")) {
		t.Errorf("price = %s, want 50 (formula result)", rows[0].PreTaxPrice)
	}
}

func TestReadFallsBackToFlat(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	must(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Price"}))
	must(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Tile Install", 50}))
	must(t, f.SetCellValue("Sheet1", "B4", 7))
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	src := NewReader(DefaultLayout(), "").Read(buf.Bytes())
	if src.Kind != catalog.SourceFlat {
		t.Fatalf("kind = %s, want flat", src.Kind)
	}
	if src.Reason == "" {
		t.Error("flat source without reason")
	}
	if len(src.Flat) != 2 {
		t.Fatalf("records = %v", src.Flat)
	}
	if src.Flat[0]["Name"] != "Tile Install" || src.Flat[0]["Price"] != "50" {
		t.Errorf("first record = %v", src.Flat[0])
	}
	if _, ok := src.Flat[1]["Name"]; ok {
		t.Errorf("empty cell kept: %v", src.Flat[1])
	}
}

func TestReadStructuredShortHeader(t *testing.T) {
	tests := []struct {
		name     string
		cells    map[string]any
		wantKind catalog.SourceKind
		wantRows int
	}{
		{
			name: "data rows decide",
			cells: map[string]any{
				"B1": "Category", "F1": "Item",
				"B2": "Flooring", "D3": "Tile", "F4": "Tile Install", "X4": 50,
			},
			wantKind: catalog.SourceStructured,
			wantRows: 1,
		},
		{
			name:     "header only",
			cells:    map[string]any{"A1": "Name", "B1": "Price"},
			wantKind: catalog.SourceFlat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			defer func() { _ = f.Close() }()
			for cell, v := range tt.cells {
				must(t, f.SetCellValue("Sheet1", cell, v))
			}
			buf, err := f.WriteToBuffer()
			if err != nil {
				t.Fatal(err)
			}
			src := NewReader(DefaultLayout(), "").Read(buf.Bytes())
			if src.Kind != tt.wantKind || len(src.Rows) != tt.wantRows {
				t.Errorf("kind = %s rows = %d (%s)", src.Kind, len(src.Rows), src.Reason)
			}
		})
	}
}

func TestReadCorruptFile(t *testing.T) {
	src := NewReader(DefaultLayout(), "").Read([]byte("not a workbook"))
	if src.Kind != catalog.SourceFlat || len(src.Flat) != 0 {
		t.Errorf("src = %+v", src)
	}
}

func normalized(rows []catalog.Row) []catalog.Row {
	out := make([]catalog.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Normalize()
	}
	return out
}

func assertRows(t *testing.T, got, want []catalog.Row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Category != w.Category || g.SubCategory != w.SubCategory || g.Item != w.Item ||
			g.Unit != w.Unit || g.Description != w.Description || g.InPackage != w.InPackage {
			t.Errorf("row %d = %+v, want %+v", i, g, w)
			continue
		}
		prices := []struct {
			name      string
			got, want decimal.Decimal
		}{
			{"price", g.PreTaxPrice, w.PreTaxPrice},
			{"labor", g.LaborPrice, w.LaborPrice},
			{"material", g.MaterialPrice, w.MaterialPrice},
			{"defaultQuantity", g.DefaultQuantity, w.DefaultQuantity},
		}
		for _, p := range prices {
			if !p.got.Equal(p.want) {
				t.Errorf("row %d %s = %s, want %s", i, p.name, p.got, p.want)
			}
		}
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
