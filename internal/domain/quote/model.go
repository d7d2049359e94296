package quote

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must not be negative")

type Kind string

const (
	KindItem    Kind = "item"
	KindPackage Kind = "package"
)

// Member: позиция пакета в заказе; DefaultQuantity переопределяет
// количество из прайса.
type Member struct {
	Item            string              `json:"item"`
	DefaultQuantity decimal.NullDecimal `json:"defaultQuantity"`
}

// Line это выбранная клиентом строка, отдельная позиция или пакет подкатегории.
type Line struct {
	Kind             Kind            `json:"kind"`
	Name             string          `json:"name"`
	Category         string          `json:"category,omitempty"`
	SubCategory      string          `json:"subCategory,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	IncludeMaterials *bool           `json:"includeMaterials,omitempty"` // по умолчанию true
	Members          []Member        `json:"packageItems,omitempty"`
}

func (l Line) includeMaterials() bool {
	return l.IncludeMaterials == nil || *l.IncludeMaterials
}

type ProjectInfo struct {
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Area         string `json:"area,omitempty"`
}

// MemberLine: расшифровка пакета в смете.
type MemberLine struct {
	Item      string          `json:"item"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Item это посчитанная строка сметы.
type Item struct {
	Kind             Kind            `json:"kind"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	SubCategory      string          `json:"subCategory"`
	Unit             string          `json:"unit"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Description      string          `json:"description"`
	LaborPrice       decimal.Decimal `json:"laborPrice"`
	MaterialPrice    decimal.Decimal `json:"materialPrice"`
	IncludeMaterials bool            `json:"includeMaterials"`
	LaborAmount      decimal.Decimal `json:"laborAmount"`
	MaterialAmount   decimal.Decimal `json:"materialAmount"`
	Members          []MemberLine    `json:"packageItems,omitempty"`
}

// Quote: готовая смета. После Calculate не меняется.
type Quote struct {
	ID             string          `json:"id"`
	ProjectInfo    ProjectInfo     `json:"projectInfo"`
	Items          []Item          `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	LaborAmount    decimal.Decimal `json:"laborAmount"`
	MaterialAmount decimal.Decimal `json:"materialAmount"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

type Summary struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customerName"`
	ItemCount    int             `json:"itemCount"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	GeneratedAt  time.Time       `json:"generatedAt"`
}
