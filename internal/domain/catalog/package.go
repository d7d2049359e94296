package catalog

import "github.com/shopspring/decimal"

// Package собирает все позиции подкатегории с InPackage.
//
// LaborPrice/MaterialPrice/TotalPrice: простые суммы цен позиций,
// LaborTotal/MaterialTotal/Total: суммы с учётом DefaultQuantity,
// по ним же считается пакет в смете.
type Package struct {
	Category      string          `json:"category"`
	SubCategory   string          `json:"subCategory"`
	ItemCount     int             `json:"itemCount"`
	Items         []Row           `json:"packageItems"`
	LaborPrice    decimal.Decimal `json:"packageLaborPrice"`
	MaterialPrice decimal.Decimal `json:"packageMaterialPrice"`
	TotalPrice    decimal.Decimal `json:"packageTotalPrice"`
	LaborTotal    decimal.Decimal `json:"packageLaborTotal"`
	MaterialTotal decimal.Decimal `json:"packageMaterialTotal"`
	Total         decimal.Decimal `json:"packageTotal"`
}

// BuildPackage собирает пакет по паре (категория, подкатегория).
// Нет позиций: пустой пакет с нулевыми суммами, не ошибка.
func BuildPackage(rows []Row, category, subCategory string) Package {
	p := Package{
		Category:      category,
		SubCategory:   subCategory,
		Items:         []Row{},
		LaborPrice:    decimal.Zero,
		MaterialPrice: decimal.Zero,
		TotalPrice:    decimal.Zero,
		LaborTotal:    decimal.Zero,
		MaterialTotal: decimal.Zero,
		Total:         decimal.Zero,
	}
	for _, r := range rows {
		if !r.InPackage || r.Category != category || r.SubCategory != subCategory {
			continue
		}
		p.Items = append(p.Items, r)
		p.LaborPrice = p.LaborPrice.Add(r.LaborPrice)
		p.MaterialPrice = p.MaterialPrice.Add(r.MaterialPrice)
		p.TotalPrice = p.TotalPrice.Add(r.PreTaxPrice)
		p.LaborTotal = p.LaborTotal.Add(MemberTotal(r, r.DefaultQuantity, false))
		p.MaterialTotal = p.MaterialTotal.Add(MemberTotal(r, r.DefaultQuantity, true).Sub(MemberTotal(r, r.DefaultQuantity, false)))
		p.Total = p.Total.Add(MemberTotal(r, r.DefaultQuantity, true))
	}
	p.ItemCount = len(p.Items)
	return p
}

// MemberTotal считает вклад позиции в пакет (цена × количество).
func MemberTotal(r Row, qty decimal.Decimal, includeMaterials bool) decimal.Decimal {
	return r.Price(includeMaterials).Mul(qty)
}

// Member ищет позицию пакета по названию.
func (p Package) Member(item string) (Row, bool) {
	for _, r := range p.Items {
		if r.Item == item {
			return r, true
		}
	}
	return Row{}, false
}
