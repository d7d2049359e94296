package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound              = errors.New("catalog row not found")
	ErrHierarchyUnavailable  = errors.New("catalog hierarchy unavailable")
	errMissingRequiredFields = errors.New("category, subCategory, item and price are required")
)

// Row описывает одну позицию прайса (уровень 3 иерархии категория → подкатегория → позиция).
type Row struct {
	Category        string          `json:"category"`
	SubCategory     string          `json:"subCategory"`
	Item            string          `json:"item"`
	Unit            string          `json:"unit"`
	PreTaxPrice     decimal.Decimal `json:"price"` // цена за единицу, основная
	LaborPrice      decimal.Decimal `json:"laborPrice"`
	MaterialPrice   decimal.Decimal `json:"materialPrice"`
	Description     string          `json:"description"`
	InPackage       bool            `json:"inPackage"`
	DefaultQuantity decimal.Decimal `json:"defaultQuantity"` // сколько позиция даёт в пакет
}

// Price возвращает цену за единицу с материалами или только работу.
func (r Row) Price(includeMaterials bool) decimal.Decimal {
	if includeMaterials {
		return r.PreTaxPrice
	}
	return r.LaborPrice
}

// Точность цен и количеств в прайсе.
const Places = 4

// Normalize подставляет значения по умолчанию: описание = название,
// количество в пакете = 1. Цены и количество округляются до Places знаков.
func (r Row) Normalize() Row {
	r.PreTaxPrice = r.PreTaxPrice.Round(Places)
	r.LaborPrice = r.LaborPrice.Round(Places)
	r.MaterialPrice = r.MaterialPrice.Round(Places)
	r.DefaultQuantity = r.DefaultQuantity.Round(Places)
	r.Category = strings.TrimSpace(r.Category)
	r.SubCategory = strings.TrimSpace(r.SubCategory)
	r.Item = strings.TrimSpace(r.Item)
	r.Unit = strings.TrimSpace(r.Unit)
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		r.Description = r.Item
	}
	if !r.DefaultQuantity.IsPositive() {
		r.DefaultQuantity = decimal.NewFromInt(1)
	}
	return r
}

// ValidationError: ошибка клиента при добавлении/изменении позиции.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate проверяет обязательные поля и неотрицательность цен.
func (r Row) Validate() error {
	switch {
	case strings.TrimSpace(r.Category) == "":
		return &ValidationError{Field: "category", Reason: errMissingRequiredFields.Error()}
	case strings.TrimSpace(r.SubCategory) == "":
		return &ValidationError{Field: "subCategory", Reason: errMissingRequiredFields.Error()}
	case strings.TrimSpace(r.Item) == "":
		return &ValidationError{Field: "item", Reason: errMissingRequiredFields.Error()}
	}
	prices := []struct {
		field string
		v     decimal.Decimal
	}{
		{"price", r.PreTaxPrice},
		{"laborPrice", r.LaborPrice},
		{"materialPrice", r.MaterialPrice},
	}
	for _, p := range prices {
		if p.v.IsNegative() {
			return &ValidationError{Field: p.field, Reason: "must not be negative"}
		}
	}
	if r.DefaultQuantity.IsNegative() {
		return &ValidationError{Field: "defaultQuantity", Reason: "must be positive"}
	}
	return nil
}

// Input приходит из формы админки, цены приходят строками или числами,
// приводим их к decimal здесь.
type Input struct {
	Category        string `json:"category"`
	SubCategory     string `json:"subCategory"`
	Item            string `json:"item"`
	Unit            string `json:"unit"`
	Price           any    `json:"price"`
	LaborPrice      any    `json:"laborPrice"`
	MaterialPrice   any    `json:"materialPrice"`
	Description     string `json:"description"`
	InPackage       any    `json:"inPackage"`
	DefaultQuantity any    `json:"defaultQuantity"`
}

// Row приводит форму к позиции прайса. Пустая цена: ошибка валидации,
// пустые цены работы/материалов считаются нулём.
func (in Input) Row() (Row, error) {
	price, ok, err := coerceDecimal(in.Price)
	if err != nil {
		return Row{}, &ValidationError{Field: "price", Reason: "must be a number"}
	}
	if !ok {
		return Row{}, &ValidationError{Field: "price", Reason: errMissingRequiredFields.Error()}
	}
	labor, _, err := coerceDecimal(in.LaborPrice)
	if err != nil {
		return Row{}, &ValidationError{Field: "laborPrice", Reason: "must be a number"}
	}
	material, _, err := coerceDecimal(in.MaterialPrice)
	if err != nil {
		return Row{}, &ValidationError{Field: "materialPrice", Reason: "must be a number"}
	}
	qty, _, err := coerceDecimal(in.DefaultQuantity)
	if err != nil {
		return Row{}, &ValidationError{Field: "defaultQuantity", Reason: "must be a number"}
	}

	r := Row{
		Category:        in.Category,
		SubCategory:     in.SubCategory,
		Item:            in.Item,
		Unit:            in.Unit,
		PreTaxPrice:     price,
		LaborPrice:      labor,
		MaterialPrice:   material,
		Description:     in.Description,
		InPackage:       coerceBool(in.InPackage),
		DefaultQuantity: qty,
	}
	if err := r.Validate(); err != nil {
		return Row{}, err
	}
	return r.Normalize(), nil
}

// coerceDecimal: nil и "" означают, что значения нет; "12,5" принимаем как 12.5.
func coerceDecimal(v any) (decimal.Decimal, bool, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case float64:
		return decimal.NewFromFloat(x), true, nil
	case int:
		return decimal.NewFromInt(int64(x)), true, nil
	case decimal.Decimal:
		return x, true, nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", "."))
		if s == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false, err
		}
		return d, true, nil
	default:
		return decimal.Zero, false, fmt.Errorf("unsupported value %T", v)
	}
}

func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x == 1
	case string:
		s := strings.TrimSpace(strings.ToLower(x))
		return s == "1" || s == "true"
	}
	return false
}
