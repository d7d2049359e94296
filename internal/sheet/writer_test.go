package sheet

import (
	"bytes"
	"testing"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/xuri/excelize/v2"
)

func sampleCatalog() []catalog.Row {
	return normalized([]catalog.Row{
		{Category: "Flooring", SubCategory: "Tile", Item: "Tile Install", Unit: "m²", PreTaxPrice: dec("50"), LaborPrice: dec("30"), MaterialPrice: dec("20")},
		{Category: "Flooring", SubCategory: "Tile", Item: "Prep", Unit: "m²", PreTaxPrice: dec("15"), LaborPrice: dec("10"), MaterialPrice: dec("5"), InPackage: true, DefaultQuantity: dec("2")},
		{Category: "Flooring", SubCategory: "Wood", Item: "Sanding", Unit: "m²", PreTaxPrice: dec("12.75"), LaborPrice: dec("12.75"), Description: "Sanding and two coats"},
		{Category: "Walls", SubCategory: "Tile", Item: "Wall tiles", Unit: "m²", PreTaxPrice: dec("0.1"), InPackage: true, DefaultQuantity: dec("1.5")},
		{Category: "Walls", SubCategory: "Paint", Item: "Free survey", PreTaxPrice: dec("0")},
	})
}

func TestWriteReadRoundTrip(t *testing.T) {
	layout := DefaultLayout()
	want := sampleCatalog()

	data, err := NewWriter(layout, "").Encode(want, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := NewReader(layout, "").ReadStructured(data)
	if err != nil {
		t.Fatalf("ReadStructured: %v", err)
	}
	assertRows(t, got, want)
}

func TestWriteReadRoundTripPrecision(t *testing.T) {
	layout := DefaultLayout()
	long := catalog.Row{Category: "Walls", SubCategory: "Paint", Item: "Glaze", PreTaxPrice: dec("19.123456789012345678"), LaborPrice: dec("0.30000000000000004441"), DefaultQuantity: dec("2.00005")}

	t.Run("normalized", func(t *testing.T) {
		want := normalized([]catalog.Row{long})
		if !want[0].PreTaxPrice.Equal(dec("19.1235")) {
			t.Fatalf("normalized price = %s", want[0].PreTaxPrice)
		}
		data, err := NewWriter(layout, "").Encode(want, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := NewReader(layout, "").ReadStructured(data)
		if err != nil {
			t.Fatal(err)
		}
		assertRows(t, got, want)
	})

	// значения, которые float64 не хранит точно, уходят в файл текстом
	t.Run("raw", func(t *testing.T) {
		data, err := NewWriter(layout, "").Encode([]catalog.Row{long}, nil)
		if err != nil {
			t.Fatal(err)
		}
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = f.Close() }()
		if v, _ := f.GetCellValue("Sheet1", "X4"); v != "19.123456789012345678" {
			t.Errorf("X4 = %q", v)
		}
	})
}

func TestWriterEmitsHeaderRows(t *testing.T) {
	data, err := NewWriter(DefaultLayout(), "").Encode(sampleCatalog()[:3], nil)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	tests := []struct {
		cell string
		want string
	}{
		{"B2", "Flooring"},
		{"D3", "Tile"},
		{"F4", "Tile Install"},
		{"B4", ""},
		{"D4", ""},
		{"F5", "Prep"},
		{"Y5", "1"},
		{"Z5", "2"},
		{"D6", "Wood"},
		{"F7", "Sanding"},
		{"AA7", "Sanding and two coats"},
		{"AA4", ""},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, err := f.GetCellValue("Sheet1", tt.cell)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
			}
		})
	}
}

func TestWriterKeepsTemplateHeader(t *testing.T) {
	tpl := excelize.NewFile()
	defer func() { _ = tpl.Close() }()
	must(t, tpl.SetSheetName("Sheet1", "Prix"))
	must(t, tpl.SetCellValue("Prix", "F1", "Prestation"))
	must(t, tpl.SetCellValue("Prix", "X1", "Prix HT"))
	must(t, tpl.SetColWidth("Prix", "F", "F", 42))
	buf, err := tpl.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	data, err := NewWriter(DefaultLayout(), "").Encode(sampleCatalog(), buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Prix" {
		t.Fatalf("sheets = %v", got)
	}
	if v, _ := f.GetCellValue("Prix", "F1"); v != "Prestation" {
		t.Errorf("F1 = %q", v)
	}
	// колонки, которых нет в шаблоне, получают подписи по умолчанию
	if v, _ := f.GetCellValue("Prix", "Y1"); v != "In package" {
		t.Errorf("Y1 = %q", v)
	}
	if w, _ := f.GetColWidth("Prix", "F"); w != 42 {
		t.Errorf("width F = %v", w)
	}

	rows, err := NewReader(DefaultLayout(), "").ReadStructured(data)
	if err != nil {
		t.Fatal(err)
	}
	assertRows(t, rows, sampleCatalog())
}
