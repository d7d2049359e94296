package catalog

import "context"

type SourceKind int

const (
	// SourceStructured: прайс разобран с наследованием категорий.
	SourceStructured SourceKind = iota
	// SourceFlat: резервный разбор "заголовок → значение" без иерархии.
	SourceFlat
)

func (k SourceKind) String() string {
	if k == SourceFlat {
		return "flat"
	}
	return "structured"
}

// FlatRecord: строка файла, разобранная по заголовкам первой строки.
type FlatRecord map[string]string

// Source это результат загрузки файла, заполнен либо Rows, либо Flat.
type Source struct {
	Kind   SourceKind
	Rows   []Row
	Flat   []FlatRecord
	Reason string // почему пришлось перейти на Flat
}

func Structured(rows []Row) Source {
	return Source{Kind: SourceStructured, Rows: rows}
}

func Flat(records []FlatRecord, reason string) Source {
	return Source{Kind: SourceFlat, Flat: records, Reason: reason}
}

// SaveResult описывает, куда в итоге записан прайс.
type SaveResult struct {
	Path       string `json:"path"`
	Fallback   bool   `json:"fallback"`
	BackupPath string `json:"backupPath,omitempty"`
}

// Persister читает и пишет прайс во внешнее хранилище (xlsx-файл).
type Persister interface {
	Load(ctx context.Context) (Source, error)
	Save(ctx context.Context, rows []Row) (SaveResult, error)
}
