package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/MMMiaotl/IngRenoQuote/internal/sheet"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

func testRows() []catalog.Row {
	d := decimal.RequireFromString
	out := []catalog.Row{
		{Category: "Flooring", SubCategory: "Tile", Item: "Tile Install", Unit: "m²", PreTaxPrice: d("50"), LaborPrice: d("30"), MaterialPrice: d("20")},
		{Category: "Bathroom", SubCategory: "Tile", Item: "Prep", PreTaxPrice: d("15"), LaborPrice: d("10"), MaterialPrice: d("5"), InPackage: true, DefaultQuantity: d("2")},
		{Category: "Bathroom", SubCategory: "Tile", Item: "Lay", PreTaxPrice: d("30"), LaborPrice: d("20"), MaterialPrice: d("10"), InPackage: true},
	}
	for i := range out {
		out[i] = out[i].Normalize()
	}
	return out
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name    string
		src     catalog.Source
		wantErr bool
		want    []string
	}{
		{
			name: "structured",
			src:  catalog.Structured(testRows()),
			want: []string{"prices.xlsx: 3 items", "  Bathroom\n", "    Tile: 2 items, package 60.00 (2 items)", "  Flooring\n", "    Tile: 1 items\n"},
		},
		{
			name:    "flat",
			src:     catalog.Flat([]catalog.FlatRecord{{"Name": "x"}}, "header too short"),
			wantErr: true,
			want:    []string{"no category structure (header too short)", "flat records: 1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printSummary(&buf, "prices.xlsx", tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q does not contain %q", buf.String(), w)
				}
			}
		})
	}
}

func TestRewrite(t *testing.T) {
	fsys := afero.NewMemMapFs()
	data, err := sheet.NewWriter(sheet.DefaultLayout(), "").Encode(testRows(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, "/in.xlsx", data, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := rewrite(fsys, "/in.xlsx", "/out.xlsx", "", &out); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if !strings.Contains(out.String(), "3 items") {
		t.Errorf("output = %q", out.String())
	}
	written, err := afero.ReadFile(fsys, "/out.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	got, err := sheet.NewReader(sheet.DefaultLayout(), "").ReadStructured(written)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2].Item != "Lay" || !got[1].DefaultQuantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("rows = %+v", got)
	}
}

func TestRewriteRejectsFlatFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "Name"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	if err := afero.WriteFile(fsys, "/in.xlsx", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := rewrite(fsys, "/in.xlsx", "/out.xlsx", "", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for flat workbook")
	}
	if ok, _ := afero.Exists(fsys, "/out.xlsx"); ok {
		t.Error("output written for flat workbook")
	}
}
