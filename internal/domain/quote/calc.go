package quote

import (
	"fmt"
	"strings"
	"time"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculate считает смету по снимку прайса.
//
// Строки, которые не нашлись в прайсе, пакеты без позиций и пакеты
// с нулевым количеством в смету не попадают. Отрицательное количество
// считается ошибкой клиента. Кроме ID и GeneratedAt результат детерминирован.
func Calculate(rows []catalog.Row, lines []Line, info ProjectInfo, now func() time.Time) (Quote, error) {
	q := Quote{
		ID:             uuid.NewString(),
		ProjectInfo:    info,
		Items:          []Item{},
		TotalAmount:    decimal.Zero,
		LaborAmount:    decimal.Zero,
		MaterialAmount: decimal.Zero,
	}

	for i, l := range lines {
		if l.Quantity.IsNegative() {
			return Quote{}, fmt.Errorf("line %d (%s): %w", i, l.Name, ErrInvalidQuantity)
		}
		var (
			item Item
			ok   bool
			err  error
		)
		switch l.Kind {
		case KindPackage:
			item, ok, err = packageLine(rows, l)
		case KindItem, "":
			item, ok = itemLine(rows, l)
		default:
			return Quote{}, fmt.Errorf("line %d: unknown kind %q", i, l.Kind)
		}
		if err != nil {
			return Quote{}, fmt.Errorf("line %d (%s): %w", i, l.Name, err)
		}
		if !ok {
			continue
		}
		q.Items = append(q.Items, item)
		q.TotalAmount = q.TotalAmount.Add(item.Subtotal)
		q.LaborAmount = q.LaborAmount.Add(item.LaborAmount)
		q.MaterialAmount = q.MaterialAmount.Add(item.MaterialAmount)
	}

	q.GeneratedAt = now()
	return q, nil
}

// find: первая позиция с таким названием; категория и подкатегория
// сужают поиск, если заданы.
func find(rows []catalog.Row, name, category, subCategory string) (catalog.Row, bool) {
	name = strings.TrimSpace(name)
	for _, r := range rows {
		if r.Item != name {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		if subCategory != "" && r.SubCategory != subCategory {
			continue
		}
		return r, true
	}
	return catalog.Row{}, false
}

// itemLine: строка с нулевым количеством остаётся в смете с нулевой суммой.
func itemLine(rows []catalog.Row, l Line) (Item, bool) {
	r, ok := find(rows, l.Name, l.Category, l.SubCategory)
	if !ok {
		return Item{}, false
	}
	withMaterials := l.includeMaterials()
	unitPrice := r.Price(withMaterials)
	subtotal := unitPrice.Mul(l.Quantity)
	labor := r.LaborPrice.Mul(l.Quantity)

	return Item{
		Kind:             KindItem,
		Name:             r.Item,
		Category:         r.Category,
		SubCategory:      r.SubCategory,
		Unit:             r.Unit,
		Quantity:         l.Quantity,
		UnitPrice:        unitPrice,
		Subtotal:         subtotal,
		Description:      r.Description,
		LaborPrice:       r.LaborPrice,
		MaterialPrice:    r.MaterialPrice,
		IncludeMaterials: withMaterials,
		LaborAmount:      labor,
		MaterialAmount:   subtotal.Sub(labor),
	}, true
}

// packageLine: сумма по позициям пакета (цена × количество позиции),
// цена за единицу = сумма / количество пакетов. В пакет попадают только
// его собственные позиции, каждая один раз.
func packageLine(rows []catalog.Row, l Line) (Item, bool, error) {
	if !l.Quantity.IsPositive() || l.Category == "" || l.SubCategory == "" {
		return Item{}, false, nil
	}
	pkg := catalog.BuildPackage(rows, l.Category, l.SubCategory)

	members := l.Members
	if len(members) == 0 {
		for _, r := range pkg.Items {
			members = append(members, Member{Item: r.Item})
		}
	}

	withMaterials := l.includeMaterials()
	item := Item{
		Kind:             KindPackage,
		Name:             l.Name,
		Category:         l.Category,
		SubCategory:      l.SubCategory,
		Unit:             "package",
		Quantity:         l.Quantity,
		Subtotal:         decimal.Zero,
		LaborPrice:       decimal.Zero,
		MaterialPrice:    decimal.Zero,
		IncludeMaterials: withMaterials,
		LaborAmount:      decimal.Zero,
	}
	if item.Name == "" {
		item.Name = l.SubCategory
	}

	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		r, ok := pkg.Member(strings.TrimSpace(m.Item))
		if !ok {
			continue
		}
		if _, dup := seen[r.Item]; dup {
			continue
		}
		seen[r.Item] = struct{}{}
		qty := r.DefaultQuantity
		if m.DefaultQuantity.Valid {
			qty = m.DefaultQuantity.Decimal
		}
		if qty.IsNegative() {
			return Item{}, false, fmt.Errorf("package member %s: %w", r.Item, ErrInvalidQuantity)
		}
		sub := catalog.MemberTotal(r, qty, withMaterials)
		item.Members = append(item.Members, MemberLine{
			Item:      r.Item,
			Unit:      r.Unit,
			Quantity:  qty,
			UnitPrice: r.Price(withMaterials),
			Subtotal:  sub,
		})
		item.Subtotal = item.Subtotal.Add(sub)
		item.LaborAmount = item.LaborAmount.Add(catalog.MemberTotal(r, qty, false))
		item.LaborPrice = item.LaborPrice.Add(r.LaborPrice.Mul(qty))
		item.MaterialPrice = item.MaterialPrice.Add(r.MaterialPrice.Mul(qty))
	}
	if len(item.Members) == 0 {
		return Item{}, false, nil
	}

	item.UnitPrice = item.Subtotal.Div(l.Quantity)
	item.MaterialAmount = item.Subtotal.Sub(item.LaborAmount)
	item.Description = fmt.Sprintf("%s / %s: %d items", l.Category, l.SubCategory, len(item.Members))
	return item, true, nil
}
