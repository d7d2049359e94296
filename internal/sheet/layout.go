package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Layout задаёт колонки прайса, индексы с 0 (A=0, B=1, ...).
type Layout struct {
	Level1      int
	Level2      int
	Item        int
	Units       []int // первая непустая
	Labor       int
	Material    int
	Price       int
	Package     int
	Quantity    int
	Description int
}

// DefaultLayout повторяет рабочий прайс:
// B категория, D подкатегория, F позиция, H/J ед. изм., R работа,
// S материалы, X цена без налога, Y пакет, Z кол-во в пакете, AA описание.
func DefaultLayout() Layout {
	return Layout{
		Level1:      1,
		Level2:      3,
		Item:        5,
		Units:       []int{7, 9},
		Labor:       17,
		Material:    18,
		Price:       23,
		Package:     24,
		Quantity:    25,
		Description: 26,
	}
}

func (l Layout) Width() int {
	w := 0
	for _, c := range l.columns() {
		if c+1 > w {
			w = c + 1
		}
	}
	return w
}

// required: колонка, до которой обязан доходить заголовок.
// Y/Z/AA необязательны: старые файлы их не содержат.
func (l Layout) required() int { return l.Price }

func (l Layout) columns() []int {
	cols := []int{l.Level1, l.Level2, l.Item, l.Labor, l.Material, l.Price, l.Package, l.Quantity, l.Description}
	return append(cols, l.Units...)
}

// Headers возвращает подписи по умолчанию для нового файла.
func (l Layout) Headers() []string {
	h := make([]string, l.Width())
	h[l.Level1] = "Category"
	h[l.Level2] = "Sub-category"
	h[l.Item] = "Item"
	if len(l.Units) > 0 {
		h[l.Units[0]] = "Unit"
	}
	h[l.Labor] = "Total labor price"
	h[l.Material] = "Total material price"
	h[l.Price] = "Pre-tax unit price"
	h[l.Package] = "In package"
	h[l.Quantity] = "Default quantity"
	h[l.Description] = "Description"
	return h
}

func (l Layout) Validate() error {
	seen := map[int]bool{}
	for _, c := range l.columns() {
		if c < 0 {
			return fmt.Errorf("layout: negative column %d", c)
		}
		if seen[c] {
			name, _ := excelize.ColumnNumberToName(c + 1)
			return fmt.Errorf("layout: column %s used twice", name)
		}
		seen[c] = true
	}
	if len(l.Units) == 0 {
		return fmt.Errorf("layout: no unit column")
	}
	return nil
}
