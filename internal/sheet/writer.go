package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// Writer делает обратное Reader: позиции снова раскладываются
// в строки-заголовки категорий/подкатегорий и строки позиций.
type Writer struct {
	Layout Layout
	Sheet  string
}

func NewWriter(layout Layout, sheet string) *Writer {
	return &Writer{Layout: layout, Sheet: sheet}
}

// header: заголовки и ширины колонок, взятые из шаблона (если он есть).
type header struct {
	sheet  string
	labels []string
	widths map[int]float64
}

func (w *Writer) header(template []byte) header {
	h := header{sheet: w.Sheet, labels: w.Layout.Headers(), widths: map[int]float64{}}
	if h.sheet == "" {
		h.sheet = defaultSheet
	}
	if len(template) == 0 {
		return h
	}
	f, err := excelize.OpenReader(bytes.NewReader(template))
	if err != nil {
		return h
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return h
	}
	src := sheets[0]
	if w.Sheet != "" {
		src = w.Sheet
	}
	h.sheet = src
	rows, err := f.GetRows(src)
	if err != nil || len(rows) == 0 {
		return h
	}
	for i, v := range rows[0] {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if i >= len(h.labels) {
			h.labels = append(h.labels, make([]string, i+1-len(h.labels))...)
		}
		h.labels[i] = v
	}
	for i := range h.labels {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if width, err := f.GetColWidth(src, col); err == nil {
			h.widths[i] = width
		}
	}
	return h
}

// Encode строит xlsx из позиций. template (может быть nil) это текущий файл,
// из него берутся подписи заголовка и ширины колонок.
func (w *Writer) Encode(rows []catalog.Row, template []byte) ([]byte, error) {
	h := w.header(template)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if h.sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, h.sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}
	sheet := h.sheet

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	labels := make([]any, len(h.labels))
	for i, v := range h.labels {
		labels[i] = v
	}
	if err := f.SetSheetRow(sheet, "A1", &labels); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, err
	}
	for i, width := range h.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, err
		}
	}

	l := w.Layout
	line := 2
	var st State
	for _, r := range rows {
		if r.Category != st.Level1 {
			st = State{Level1: r.Category}
			if err := w.label(f, sheet, l.Level1, line, r.Category, bold); err != nil {
				return nil, err
			}
			line++
		}
		if r.SubCategory != st.Level2 {
			st.Level2 = r.SubCategory
			if err := w.label(f, sheet, l.Level2, line, r.SubCategory, bold); err != nil {
				return nil, err
			}
			line++
		}

		cell, _ := excelize.CoordinatesToCellName(1, line)
		values := w.itemValues(r)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
		line++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *Writer) label(f *excelize.File, sheet string, col, line int, v string, style int) error {
	cell, _ := excelize.CoordinatesToCellName(col+1, line)
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

// В строке позиции ячейки категорий остаются пустыми.
func (w *Writer) itemValues(r catalog.Row) []any {
	l := w.Layout
	values := make([]any, l.Width())
	values[l.Item] = r.Item
	if r.Unit != "" && len(l.Units) > 0 {
		values[l.Units[0]] = r.Unit
	}
	values[l.Labor] = number(r.LaborPrice)
	values[l.Material] = number(r.MaterialPrice)
	values[l.Price] = number(r.PreTaxPrice)
	if r.InPackage {
		values[l.Package] = 1
	}
	qty := r.DefaultQuantity
	if !qty.IsPositive() {
		qty = decimal.NewFromInt(1)
	}
	values[l.Quantity] = number(qty)
	if r.Description != "" && r.Description != r.Item {
		values[l.Description] = r.Description
	}
	return values
}

// number пишет значение числом, если float64 хранит его точно,
// иначе текстом: Reader разбирает оба варианта.
func number(d decimal.Decimal) any {
	f, exact := d.Float64()
	if exact || decimal.NewFromFloat(f).Equal(d) {
		return f
	}
	return d.String()
}
