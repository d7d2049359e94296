package sheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Cell хранит значение ячейки. Для формулы Value содержит закэшированный
// (или пересчитанный) результат, текст формулы в расчёт не идёт.
type Cell struct {
	Value   string
	Formula string
}

func Literal(v string) Cell { return Cell{Value: v} }

func (c Cell) IsFormula() bool { return c.Formula != "" }

func (c Cell) Text() string { return strings.TrimSpace(c.Value) }

// Empty сообщает, что в ячейке нет ни значения, ни формулы.
func (c Cell) Empty() bool { return c.Text() == "" && !c.IsFormula() }

// Decimal разбирает число; запятая принимается как десятичный разделитель.
func (c Cell) Decimal() (decimal.Decimal, bool) {
	s := strings.ReplaceAll(c.Text(), ",", ".")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Row это строка листа; за её пределами ячейки пустые.
type Row []Cell

func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}
