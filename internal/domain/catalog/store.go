package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Store является единственным владельцем прайса в памяти.
// Наружу отдаются только копии; правки идут через методы Store.
type Store struct {
	mu  sync.RWMutex
	src Source

	persister Persister
	log       *slog.Logger
}

func NewStore(p Persister, log *slog.Logger) *Store {
	return &Store{persister: p, log: log, src: Structured(nil)}
}

// Load перечитывает прайс из хранилища и заменяет текущий.
func (s *Store) Load(ctx context.Context) (Source, error) {
	src, err := s.persister.Load(ctx)
	if err != nil {
		return Source{}, fmt.Errorf("load catalog: %w", err)
	}
	if src.Kind == SourceFlat {
		s.log.Error("catalog loaded without hierarchy", "reason", src.Reason, "records", len(src.Flat))
	} else {
		s.log.Info("catalog loaded", "rows", len(src.Rows))
	}
	s.mu.Lock()
	s.src = src
	s.mu.Unlock()
	return s.Snapshot(), nil
}

// Snapshot возвращает копию текущего состояния.
func (s *Store) Snapshot() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Source{Kind: s.src.Kind, Reason: s.src.Reason}
	if s.src.Rows != nil {
		out.Rows = append([]Row(nil), s.src.Rows...)
	}
	if s.src.Flat != nil {
		out.Flat = make([]FlatRecord, len(s.src.Flat))
		for i, rec := range s.src.Flat {
			cp := make(FlatRecord, len(rec))
			for k, v := range rec {
				cp[k] = v
			}
			out.Flat[i] = cp
		}
	}
	return out
}

// Rows возвращает копию позиций; для плоского прайса пусто.
func (s *Store) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Row{}, s.src.Rows...)
}

func (s *Store) Hierarchical() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.src.Kind == SourceStructured
}

// Replace целиком заменяет прайс. При любой невалидной строке
// текущий прайс не меняется.
func (s *Store) Replace(rows []Row) error {
	next := make([]Row, 0, len(rows))
	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		next = append(next, r.Normalize())
	}
	s.mu.Lock()
	s.src = Structured(next)
	s.mu.Unlock()
	return nil
}

// Restore возвращает снимок, взятый через Snapshot, вместе с видом
// источника, плоскими записями и причиной.
func (s *Store) Restore(src Source) {
	src.Rows = append([]Row(nil), src.Rows...)
	src.Flat = append([]FlatRecord(nil), src.Flat...)
	s.mu.Lock()
	s.src = src
	s.mu.Unlock()
}

// editable вызывается под блокировкой. Плоский непустой прайс править нельзя:
// в нём нет категорий. Пустой (файла не было) начинаем с нуля.
func (s *Store) editable() ([]Row, error) {
	if s.src.Kind == SourceFlat {
		if len(s.src.Flat) > 0 {
			return nil, ErrHierarchyUnavailable
		}
		return nil, nil
	}
	return s.src.Rows, nil
}

// Add добавляет позицию в конец прайса.
func (s *Store) Add(r Row) (Row, error) {
	if err := r.Validate(); err != nil {
		return Row{}, err
	}
	r = r.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.editable()
	if err != nil {
		return Row{}, err
	}
	next := append(append(make([]Row, 0, len(rows)+1), rows...), r)
	s.src = Structured(next)
	return r, nil
}

// Mutate применяет fn к позиции по индексу. Ошибка fn или невалидный
// результат оставляют прайс без изменений.
func (s *Store) Mutate(index int, fn func(Row) (Row, error)) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.editable()
	if err != nil {
		return Row{}, err
	}
	if index < 0 || index >= len(rows) {
		return Row{}, ErrNotFound
	}
	updated, err := fn(rows[index])
	if err != nil {
		return Row{}, err
	}
	if err := updated.Validate(); err != nil {
		return Row{}, err
	}
	updated = updated.Normalize()

	next := append([]Row(nil), rows...)
	next[index] = updated
	s.src = Structured(next)
	return updated, nil
}

// Update заменяет позицию по индексу.
func (s *Store) Update(index int, r Row) (Row, error) {
	return s.Mutate(index, func(Row) (Row, error) { return r, nil })
}

// Delete удаляет позицию по индексу и возвращает её.
func (s *Store) Delete(index int) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.editable()
	if err != nil {
		return Row{}, err
	}
	if index < 0 || index >= len(rows) {
		return Row{}, ErrNotFound
	}
	deleted := rows[index]
	next := make([]Row, 0, len(rows)-1)
	next = append(next, rows[:index]...)
	next = append(next, rows[index+1:]...)
	s.src = Structured(next)
	return deleted, nil
}

// Save пишет текущий прайс и, если запись пошла в основной файл,
// перечитывает его обратно.
func (s *Store) Save(ctx context.Context) (SaveResult, error) {
	s.mu.RLock()
	rows, err := s.editable()
	rows = append([]Row(nil), rows...)
	s.mu.RUnlock()
	if err != nil {
		return SaveResult{}, err
	}

	res, err := s.persister.Save(ctx, rows)
	if err != nil {
		return SaveResult{}, fmt.Errorf("save catalog: %w", err)
	}
	if res.Fallback {
		s.log.Warn("catalog saved to fallback file", "path", res.Path)
		return res, nil
	}
	if _, err := s.Load(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// Categories: уникальные категории в порядке первого появления.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinct(s.src.Rows, func(r Row) (string, bool) { return r.Category, true })
}

func (s *Store) SubCategories(category string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinct(s.src.Rows, func(r Row) (string, bool) {
		return r.SubCategory, r.Category == category
	})
}

// Items отдаёт позиции подкатегории, а при пустой subCategory всю категорию.
func (s *Store) Items(category, subCategory string) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Row{}
	for _, r := range s.src.Rows {
		if r.Category != category {
			continue
		}
		if subCategory != "" && r.SubCategory != subCategory {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *Store) Package(category, subCategory string) Package {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildPackage(s.src.Rows, category, subCategory)
}

// Indexed: позиция вместе с её индексом в прайсе (для PUT/DELETE).
type Indexed struct {
	Index int `json:"index"`
	Row
}

type Filter struct {
	Query       string
	Category    string
	SubCategory string
}

// Search ищет по подстроке в названии/описании без учёта регистра.
func (s *Store) Search(f Filter) []Indexed {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Indexed{}
	for i, r := range s.src.Rows {
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.SubCategory != "" && r.SubCategory != f.SubCategory {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.Item), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) {
			continue
		}
		out = append(out, Indexed{Index: i, Row: r})
	}
	return out
}

// Stats для дашборда админки.
type Stats struct {
	Items         int             `json:"totalItems"`
	Categories    int             `json:"totalCategories"`
	SubCategories int             `json:"totalSubCategories"`
	AveragePrice  decimal.Decimal `json:"averagePrice"`
	PackageItems  int             `json:"packageItems"`
	Hierarchical  bool            `json:"hierarchical"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Hierarchical: s.src.Kind == SourceStructured, AveragePrice: decimal.Zero}
	if !st.Hierarchical {
		st.Items = len(s.src.Flat)
		return st
	}
	cats := map[string]struct{}{}
	subs := map[string]struct{}{}
	sum := decimal.Zero
	for _, r := range s.src.Rows {
		cats[r.Category] = struct{}{}
		subs[r.Category+"\x00"+r.SubCategory] = struct{}{}
		sum = sum.Add(r.PreTaxPrice)
		if r.InPackage {
			st.PackageItems++
		}
	}
	st.Items = len(s.src.Rows)
	st.Categories = len(cats)
	st.SubCategories = len(subs)
	if st.Items > 0 {
		st.AveragePrice = sum.Div(decimal.NewFromInt(int64(st.Items))).Round(2)
	}
	return st
}

func distinct(rows []Row, key func(Row) (string, bool)) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range rows {
		k, ok := key(r)
		if !ok || k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// SortedCategories нужен CLI-отчёту, где важен стабильный порядок.
func SortedCategories(rows []Row) []string {
	out := distinct(rows, func(r Row) (string, bool) { return r.Category, true })
	sort.Strings(out)
	return out
}
