package sheet

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/spf13/afero"
)

// lockedFs отказывает в rename на целевой файл, пока failures > 0.
type lockedFs struct {
	afero.Fs
	target   string
	failures int
	err      error
	calls    int
}

func (l *lockedFs) Rename(oldname, newname string) error {
	if newname == l.target {
		l.calls++
		if l.failures != 0 {
			if l.failures > 0 {
				l.failures--
			}
			return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: l.err}
		}
	}
	return l.Fs.Rename(oldname, newname)
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestWorkbook(fsys afero.Fs, attempts int) *Workbook {
	w := NewWorkbook(fsys, Options{
		Path:       "/data/prices.xlsx",
		BackupDir:  "/data/backups",
		Attempts:   attempts,
		RetryDelay: time.Millisecond,
		Layout:     DefaultLayout(),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.now = func() time.Time { return fixedNow }
	return w
}

func TestWorkbookLoadMissingFile(t *testing.T) {
	w := newTestWorkbook(afero.NewMemMapFs(), 1)
	src, err := w.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.Kind != catalog.SourceFlat || len(src.Flat) != 0 || !strings.Contains(src.Reason, "not found") {
		t.Errorf("src = %+v", src)
	}
}

func TestWorkbookSaveLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w := newTestWorkbook(fsys, 3)
	ctx := context.Background()

	res, err := w.Save(ctx, sampleCatalog())
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if res.Fallback || res.Path != "/data/prices.xlsx" || res.BackupPath != "" {
		t.Errorf("first save result = %+v", res)
	}

	res, err = w.Save(ctx, sampleCatalog()[:2])
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if res.BackupPath != "/data/backups/prices_backup_20260102_030405.xlsx" {
		t.Errorf("backup = %q", res.BackupPath)
	}
	if ok, _ := afero.Exists(fsys, res.BackupPath); !ok {
		t.Error("backup file missing")
	}

	src, err := w.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if src.Kind != catalog.SourceStructured {
		t.Fatalf("kind = %s (%s)", src.Kind, src.Reason)
	}
	assertRows(t, src.Rows, sampleCatalog()[:2])

	// временные файлы не остаются
	entries, err := afero.ReadDir(fsys, "/data")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left: %s", e.Name())
		}
	}
}

func TestWorkbookSaveRetries(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		attempts     int
		wantFallback bool
		wantCalls    int
	}{
		{"succeeds after retry", 2, 3, false, 3},
		{"falls back when still locked", -1, 3, true, 3},
		{"single attempt", -1, 1, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := &lockedFs{Fs: afero.NewMemMapFs(), target: "/data/prices.xlsx", failures: tt.failures, err: fs.ErrPermission}
			w := newTestWorkbook(fsys, tt.attempts)

			res, err := w.Save(context.Background(), sampleCatalog())
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if fsys.calls != tt.wantCalls {
				t.Errorf("rename calls = %d, want %d", fsys.calls, tt.wantCalls)
			}
			if res.Fallback != tt.wantFallback {
				t.Fatalf("fallback = %v, want %v", res.Fallback, tt.wantFallback)
			}
			if !tt.wantFallback {
				return
			}
			if res.Path != "/data/prices_20260102_030405.xlsx" {
				t.Errorf("fallback path = %q", res.Path)
			}
			data, err := afero.ReadFile(fsys, res.Path)
			if err != nil {
				t.Fatalf("fallback file: %v", err)
			}
			rows, err := NewReader(DefaultLayout(), "").ReadStructured(data)
			if err != nil {
				t.Fatal(err)
			}
			assertRows(t, rows, sampleCatalog())
		})
	}
}

func TestWorkbookSaveFatalError(t *testing.T) {
	fsys := &lockedFs{Fs: afero.NewMemMapFs(), target: "/data/prices.xlsx", failures: -1, err: errors.New("no space left on device")}
	w := newTestWorkbook(fsys, 3)

	_, err := w.Save(context.Background(), sampleCatalog())
	if err == nil {
		t.Fatal("expected error")
	}
	if fsys.calls != 1 {
		t.Errorf("rename calls = %d, want 1 (no retry)", fsys.calls)
	}
	if ok, _ := afero.Exists(fsys, "/data/prices_20260102_030405.xlsx"); ok {
		t.Error("fallback written for fatal error")
	}
}

func TestDeleteSaveReload(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w := newTestWorkbook(fsys, 1)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	if _, err := w.Save(ctx, sampleCatalog()); err != nil {
		t.Fatal(err)
	}
	store := catalog.NewStore(w, log)
	if _, err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.Delete(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(ctx); err != nil {
		t.Fatal(err)
	}

	reloaded, err := w.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := append(sampleCatalog()[:2:2], sampleCatalog()[3:]...)
	assertRows(t, reloaded.Rows, want)
	for _, r := range reloaded.Rows {
		if r.Item == deleted.Item {
			t.Errorf("deleted row %q still present", deleted.Item)
		}
	}
}

func TestIsLocked(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"permission", &os.LinkError{Op: "rename", Err: fs.ErrPermission}, true},
		{"disk full", &os.LinkError{Op: "rename", Err: errors.New("no space left on device")}, false},
	}
	for _, errno := range lockedErrnos {
		tests = append(tests, struct {
			name string
			err  error
			want bool
		}{errno.Error(), &os.PathError{Op: "open", Path: "prices.xlsx", Err: errno}, true})
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLocked(tt.err); got != tt.want {
				t.Errorf("isLocked(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
