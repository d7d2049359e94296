package render

import (
	"context"
	"fmt"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/quote"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	brandBlue = &props.Color{Red: 0, Green: 123, Blue: 255}
	greyText  = &props.Color{Red: 102, Green: 102, Blue: 102}
	white     = &props.Color{Red: 255, Green: 255, Blue: 255}
	stripe    = &props.Cell{BackgroundColor: &props.Color{Red: 248, Green: 249, Blue: 250}}
)

// Maroto рисует PDF прямо в процессе, без внешних программ.
type Maroto struct{}

func NewMaroto() *Maroto { return &Maroto{} }

func (Maroto) PDF(ctx context.Context, q quote.Quote) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   greyText,
		}).
		Build()

	m := maroto.New(cfg)
	addTitle(m)
	addProject(m, q.ProjectInfo)
	addItems(m, q.Items)
	addTotals(m, q)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", ErrRender, err)
	}
	return doc.GetBytes(), nil
}

func addTitle(m core.Maroto) {
	m.AddRows(
		row.New(14).Add(
			col.New(12).Add(text.New("Renovation quote", props.Text{
				Size:  18,
				Style: fontstyle.Bold,
				Align: align.Center,
				Color: brandBlue,
			})),
		),
		row.New(4),
	)
}

func addProject(m core.Maroto, info quote.ProjectInfo) {
	area := "-"
	if info.Area != "" {
		area = info.Area + " m²"
	}
	pairs := [][2]string{
		{"Customer", orDash(info.CustomerName)},
		{"Phone", orDash(info.Phone)},
		{"Address", orDash(info.Address)},
		{"Area", area},
	}
	label := props.Text{Size: 9, Style: fontstyle.Bold, Color: greyText}
	value := props.Text{Size: 9}
	for i := 0; i < len(pairs); i += 2 {
		m.AddRows(row.New(6).Add(
			col.New(2).Add(text.New(pairs[i][0]+":", label)),
			col.New(4).Add(text.New(pairs[i][1], value)),
			col.New(2).Add(text.New(pairs[i+1][0]+":", label)),
			col.New(4).Add(text.New(pairs[i+1][1], value)),
		))
	}
	m.AddRows(row.New(6))
}

func addItems(m core.Maroto, items []quote.Item) {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Color: white, Align: align.Left}
	headRight := head
	headRight.Align = align.Right
	headCell := &props.Cell{BackgroundColor: brandBlue}

	m.AddRows(row.New(8).Add(
		col.New(1).Add(text.New("#", head)).WithStyle(headCell),
		col.New(4).Add(text.New("Item", head)).WithStyle(headCell),
		col.New(1).Add(text.New("Unit", head)).WithStyle(headCell),
		col.New(2).Add(text.New("Qty", headRight)).WithStyle(headCell),
		col.New(2).Add(text.New("Unit price", headRight)).WithStyle(headCell),
		col.New(2).Add(text.New("Subtotal", headRight)).WithStyle(headCell),
	))

	base := props.Text{Size: 8, Top: 1}
	right := base
	right.Align = align.Right
	member := props.Text{Size: 7, Top: 1, Left: 4, Color: greyText}
	memberRight := member
	memberRight.Align = align.Right
	memberRight.Left = 0

	for i, it := range items {
		name := it.Name
		if !it.IncludeMaterials {
			name += " (labor only)"
		}
		cols := []core.Col{
			col.New(1).Add(text.New(fmt.Sprintf("%d", i+1), base)),
			col.New(4).Add(text.New(name, base)),
			col.New(1).Add(text.New(it.Unit, base)),
			col.New(2).Add(text.New(qty(it.Quantity), right)),
			col.New(2).Add(text.New("€ "+money(it.UnitPrice), right)),
			col.New(2).Add(text.New("€ "+money(it.Subtotal), right)),
		}
		if i%2 == 1 {
			for j := range cols {
				cols[j] = cols[j].WithStyle(stripe)
			}
		}
		m.AddRows(row.New(7).Add(cols...))

		for _, mb := range it.Members {
			m.AddRows(row.New(5).Add(
				col.New(1),
				col.New(4).Add(text.New(mb.Item, member)),
				col.New(1).Add(text.New(mb.Unit, member)),
				col.New(2).Add(text.New(qty(mb.Quantity), memberRight)),
				col.New(2).Add(text.New("€ "+money(mb.UnitPrice), memberRight)),
				col.New(2).Add(text.New("€ "+money(mb.Subtotal), memberRight)),
			))
		}
	}
}

func addTotals(m core.Maroto, q quote.Quote) {
	m.AddRows(row.New(6))
	label := props.Text{Size: 9, Align: align.Right, Color: greyText}
	value := props.Text{Size: 9, Align: align.Right}
	m.AddRows(
		row.New(6).Add(
			col.New(9).Add(text.New("Labor", label)),
			col.New(3).Add(text.New("€ "+money(q.LaborAmount), value)),
		),
		row.New(6).Add(
			col.New(9).Add(text.New("Materials", label)),
			col.New(3).Add(text.New("€ "+money(q.MaterialAmount), value)),
		),
		row.New(9).Add(
			col.New(9).Add(text.New("Total", props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Color: brandBlue})),
			col.New(3).Add(text.New("€ "+money(q.TotalAmount), props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Color: brandBlue})),
		),
		row.New(10),
		row.New(5).Add(col.New(12).Add(text.New("Generated "+q.GeneratedAt.Format("02.01.2006 15:04"), props.Text{Size: 7, Color: greyText}))),
		row.New(5).Add(col.New(12).Add(text.New("This quote is an estimate; the final price depends on the work actually carried out.", props.Text{Size: 7, Color: greyText}))),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
