package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// ErrRender: смету не удалось отрисовать (шаблон, движок PDF, внешний процесс).
var ErrRender = errors.New("render quote")

//go:embed templates/quote.html
var quoteHTML string

var quoteTmpl = template.Must(template.New("quote").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"money": money,
	"qty":   qty,
}).Parse(quoteHTML))

// HTML рендерит документ сметы; его же получает внешний рендерер PDF.
func HTML(q quote.Quote) ([]byte, error) {
	var buf bytes.Buffer
	if err := quoteTmpl.Execute(&buf, q); err != nil {
		return nil, fmt.Errorf("%w: html: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// qty: целые без дробной части, иначе до двух знаков.
func qty(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	return d.Round(2).String()
}
