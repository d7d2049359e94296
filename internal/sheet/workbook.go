package sheet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"
)

const stampLayout = "20060102_150405"

type Options struct {
	Path       string
	BackupDir  string // пусто: без резервных копий
	Attempts   int
	RetryDelay time.Duration
	Layout     Layout
	Sheet      string
}

// Workbook хранит прайс в xlsx-файле: чтение через Reader, запись
// через Writer во временный файл и атомарный rename.
type Workbook struct {
	fs     afero.Fs
	opts   Options
	reader *Reader
	writer *Writer
	log    *slog.Logger
	now    func() time.Time
}

func NewWorkbook(fsys afero.Fs, opts Options, log *slog.Logger) *Workbook {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	return &Workbook{
		fs:     fsys,
		opts:   opts,
		reader: NewReader(opts.Layout, opts.Sheet),
		writer: NewWriter(opts.Layout, opts.Sheet),
		log:    log,
		now:    time.Now,
	}
}

func (w *Workbook) Path() string { return w.opts.Path }

// Load читает файл. Отсутствие файла или неподходящая раскладка
// не ошибка: возвращается плоский Source с причиной.
func (w *Workbook) Load(ctx context.Context) (catalog.Source, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Source{}, err
	}
	data, err := afero.ReadFile(w.fs, w.opts.Path)
	if errors.Is(err, fs.ErrNotExist) {
		w.log.Error("catalog file not found", "path", w.opts.Path)
		return catalog.Flat(nil, "file not found: "+w.opts.Path), nil
	}
	if err != nil {
		w.log.Error("read catalog file", "path", w.opts.Path, "err", err)
		return catalog.Flat(nil, err.Error()), nil
	}

	src := w.reader.Read(data)
	if src.Kind == catalog.SourceFlat {
		w.log.Error("structured decode failed, using flat records", "path", w.opts.Path, "reason", src.Reason)
	}
	return src, nil
}

// Export кодирует позиции, используя текущий файл как шаблон заголовка.
func (w *Workbook) Export(rows []catalog.Row) ([]byte, error) {
	template, _ := afero.ReadFile(w.fs, w.opts.Path)
	return w.writer.Encode(rows, template)
}

// Save: резервная копия (по возможности) → временный файл → rename.
// Занятый файл пробуем ещё Attempts-1 раз, потом пишем рядом
// <name>_<timestamp>.xlsx и возвращаем Fallback.
func (w *Workbook) Save(ctx context.Context, rows []catalog.Row) (catalog.SaveResult, error) {
	template, err := afero.ReadFile(w.fs, w.opts.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.log.Warn("read catalog template", "path", w.opts.Path, "err", err)
		template = nil
	}
	data, err := w.writer.Encode(rows, template)
	if err != nil {
		return catalog.SaveResult{}, fmt.Errorf("encode catalog: %w", err)
	}

	res := catalog.SaveResult{Path: w.opts.Path}
	if len(template) > 0 {
		res.BackupPath = w.backup(template)
	}

	backoff := retry.WithMaxRetries(uint64(w.opts.Attempts-1), retry.NewConstant(w.opts.RetryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := w.writeAtomic(data)
		if isLocked(err) {
			w.log.Warn("catalog file locked, retrying", "path", w.opts.Path, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return res, nil
	}
	if !isLocked(err) {
		return catalog.SaveResult{}, fmt.Errorf("write catalog: %w", err)
	}

	fallback := w.fallbackPath()
	if werr := afero.WriteFile(w.fs, fallback, data, 0o644); werr != nil {
		return catalog.SaveResult{}, fmt.Errorf("write fallback catalog: %w", werr)
	}
	w.log.Warn("catalog written to fallback file", "path", fallback, "err", err)
	res.Path = fallback
	res.Fallback = true
	return res, nil
}

func (w *Workbook) writeAtomic(data []byte) error {
	dir, base := filepath.Split(w.opts.Path)
	tmp := filepath.Join(dir, "."+base+".tmp-"+uuid.NewString())
	if err := afero.WriteFile(w.fs, tmp, data, 0o644); err != nil {
		_ = w.fs.Remove(tmp)
		return err
	}
	if err := w.fs.Rename(tmp, w.opts.Path); err != nil {
		_ = w.fs.Remove(tmp)
		return err
	}
	return nil
}

func (w *Workbook) backup(data []byte) string {
	if w.opts.BackupDir == "" {
		return ""
	}
	if err := w.fs.MkdirAll(w.opts.BackupDir, 0o755); err != nil {
		w.log.Warn("create backup dir", "dir", w.opts.BackupDir, "err", err)
		return ""
	}
	name, ext := splitExt(filepath.Base(w.opts.Path))
	path := filepath.Join(w.opts.BackupDir, name+"_backup_"+w.now().Format(stampLayout)+ext)
	if err := afero.WriteFile(w.fs, path, data, 0o644); err != nil {
		w.log.Warn("catalog backup failed", "path", path, "err", err)
		return ""
	}
	return path
}

func (w *Workbook) fallbackPath() string {
	dir, base := filepath.Split(w.opts.Path)
	name, ext := splitExt(base)
	return filepath.Join(dir, name+"_"+w.now().Format(stampLayout)+ext)
}

func splitExt(base string) (string, string) {
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".xlsx"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)), ext
}

// isLocked: файл занят другой программой (Excel держит его открытым).
// Коды ошибок платформы перечислены в lockedErrnos.
func isLocked(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	for _, errno := range lockedErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
