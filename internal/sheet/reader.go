package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrLayoutMismatch значит, что файл не похож на прайс с иерархией.
var ErrLayoutMismatch = errors.New("sheet layout mismatch")

// State переносится со строки на строку: текущие категория и подкатегория.
type State struct {
	Level1 string
	Level2 string
}

// Step делает один шаг свёртки по строкам листа (без заголовка).
// Непустая ячейка уровня 1/2 обновляет состояние; позиция получается,
// только если заполнен уровень 3, известны обе категории и цена: число.
func (l Layout) Step(st State, row Row) (State, *catalog.Row) {
	if v := row.At(l.Level1).Text(); v != "" {
		st.Level1 = v
	}
	if v := row.At(l.Level2).Text(); v != "" {
		st.Level2 = v
	}

	item := row.At(l.Item).Text()
	if item == "" || st.Level1 == "" || st.Level2 == "" {
		return st, nil
	}

	labor, _ := row.At(l.Labor).Decimal()
	material, _ := row.At(l.Material).Decimal()

	var price decimal.Decimal
	priceCell := row.At(l.Price)
	if !priceCell.Empty() {
		p, ok := priceCell.Decimal()
		if !ok {
			return st, nil
		}
		price = p
	} else {
		_, hasLabor := row.At(l.Labor).Decimal()
		_, hasMaterial := row.At(l.Material).Decimal()
		if !hasLabor && !hasMaterial {
			return st, nil
		}
		price = labor.Add(material)
	}

	unit := ""
	for _, c := range l.Units {
		if v := row.At(c).Text(); v != "" {
			unit = v
			break
		}
	}

	qty, ok := row.At(l.Quantity).Decimal()
	if !ok {
		qty = decimal.Zero
	}

	r := catalog.Row{
		Category:        st.Level1,
		SubCategory:     st.Level2,
		Item:            item,
		Unit:            unit,
		PreTaxPrice:     price,
		LaborPrice:      labor,
		MaterialPrice:   material,
		Description:     row.At(l.Description).Text(),
		InPackage:       isPackageFlag(row.At(l.Package)),
		DefaultQuantity: qty,
	}.Normalize()
	return st, &r
}

// isPackageFlag: только литерал 1 (строкой или числом).
func isPackageFlag(c Cell) bool {
	if c.Text() == "1" {
		return true
	}
	d, ok := c.Decimal()
	return ok && d.Equal(decimal.NewFromInt(1))
}

// Reader разбирает xlsx-прайс.
type Reader struct {
	Layout Layout
	Sheet  string // пусто: первый лист
}

func NewReader(layout Layout, sheet string) *Reader {
	return &Reader{Layout: layout, Sheet: sheet}
}

// Decode сворачивает строки листа в позиции; первая строка: заголовок.
func (r *Reader) Decode(rows []Row) []catalog.Row {
	out := []catalog.Row{}
	if len(rows) < 2 {
		return out
	}
	var st State
	for _, row := range rows[1:] {
		var item *catalog.Row
		st, item = r.Layout.Step(st, row)
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}

// Read пытается разобрать файл с иерархией; при неудаче: плоский разбор
// "заголовок → значение". Причина перехода попадает в Source.Reason.
func (r *Reader) Read(data []byte) catalog.Source {
	rows, err := r.ReadStructured(data)
	if err == nil {
		return catalog.Structured(rows)
	}
	reason := err.Error()
	flat, ferr := r.ReadFlat(data)
	if ferr != nil {
		return catalog.Flat(nil, fmt.Sprintf("%s; flat decode: %v", reason, ferr))
	}
	return catalog.Flat(flat, reason)
}

func (r *Reader) ReadStructured(data []byte) ([]catalog.Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrLayoutMismatch, err)
	}
	defer func() { _ = f.Close() }()

	sheet, err := r.sheetName(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.cells(f, sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrLayoutMismatch)
	}
	// Ширину заголовка не проверяем: решают строки данных. Пустой прайс
	// (только заголовок) принимается, если заголовок доходит до колонки цены.
	items := r.Decode(rows)
	if len(items) > 0 {
		return items, nil
	}
	if len(rows) > 1 {
		return nil, fmt.Errorf("%w: no item rows under a category and sub-category", ErrLayoutMismatch)
	}
	if len(rows[0]) <= r.Layout.required() {
		col, _ := excelize.ColumnNumberToName(r.Layout.required() + 1)
		return nil, fmt.Errorf("%w: header row does not reach column %s", ErrLayoutMismatch, col)
	}
	return items, nil
}

// ReadFlat: резервный разбор без иерархии. Пустые строки пропускаются,
// пустые ячейки в запись не попадают.
func (r *Reader) ReadFlat(data []byte) ([]catalog.FlatRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet, err := r.sheetName(f)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	out := []catalog.FlatRecord{}
	if len(rows) == 0 {
		return out, nil
	}

	header := rows[0]
	for _, row := range rows[1:] {
		rec := catalog.FlatRecord{}
		for i, v := range row {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			key := ""
			if i < len(header) {
				key = strings.TrimSpace(header[i])
			}
			if key == "" {
				key, _ = excelize.ColumnNumberToName(i + 1)
			}
			rec[key] = v
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *Reader) sheetName(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrLayoutMismatch)
	}
	if r.Sheet == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == r.Sheet {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: sheet %q not found", ErrLayoutMismatch, r.Sheet)
}

// cells читает лист как []Row. Для числовых колонок с формулой без
// кэшированного значения результат считается движком excelize.
func (r *Reader) cells(f *excelize.File, sheet string) ([]Row, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrLayoutMismatch, err)
	}
	numeric := []int{r.Layout.Labor, r.Layout.Material, r.Layout.Price, r.Layout.Package, r.Layout.Quantity}

	out := make([]Row, len(raw))
	for i, values := range raw {
		row := make(Row, max(len(values), r.Layout.Width()))
		for j, v := range values {
			row[j] = Literal(v)
		}
		if i == 0 {
			out[i] = row[:len(values)]
			continue
		}
		for _, col := range numeric {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			formula, err := f.GetCellFormula(sheet, cell)
			if err != nil || formula == "" {
				continue
			}
			row[col].Formula = formula
			if row[col].Text() == "" {
				if v, err := f.CalcCellValue(sheet, cell, excelize.Options{RawCellValue: true}); err == nil {
					row[col].Value = v
				}
			}
		}
		out[i] = row
	}
	return out, nil
}
