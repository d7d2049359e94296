package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/MMMiaotl/IngRenoQuote/internal/api"
	"github.com/MMMiaotl/IngRenoQuote/internal/config"
	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/MMMiaotl/IngRenoQuote/internal/domain/quote"
	"github.com/MMMiaotl/IngRenoQuote/internal/infra/db"
	httpx "github.com/MMMiaotl/IngRenoQuote/internal/infra/http"
	"github.com/MMMiaotl/IngRenoQuote/internal/infra/logger"
	"github.com/MMMiaotl/IngRenoQuote/internal/infra/metrics"
	"github.com/MMMiaotl/IngRenoQuote/internal/infra/notify"
	"github.com/MMMiaotl/IngRenoQuote/internal/render"
	"github.com/MMMiaotl/IngRenoQuote/internal/sheet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newWorkbook(cfg config.Config, log *slog.Logger) *sheet.Workbook {
	return sheet.NewWorkbook(afero.NewOsFs(), sheet.Options{
		Path:       cfg.Catalog.Path,
		BackupDir:  cfg.Catalog.BackupDir,
		Attempts:   cfg.Catalog.SaveAttempts,
		RetryDelay: cfg.Catalog.SaveRetryDelay,
		Layout:     sheet.DefaultLayout(),
		Sheet:      cfg.Catalog.Sheet,
	}, log)
}

func clock(tz string, log *slog.Logger) func() time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("unknown timezone, using local", "tz", tz, "err", err)
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}

func serve(parent context.Context, cfg config.Config) error {
	log := logger.New(cfg.App.Env)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var history api.History
	if cfg.Postgres.DSN != "" {
		if err := db.Migrate(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return err
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			return err
		}
		defer pool.Close()
		log.Info("db connected")
		history = quote.NewRepo(pool)
	} else {
		log.Info("postgres DSN not set, quote history disabled")
	}

	wb := newWorkbook(cfg, log)
	store := catalog.NewStore(wb, log)
	src, err := store.Load(ctx)
	if err != nil {
		return err
	}
	log.Info("catalog loaded", "path", wb.Path(), "source", src.Kind.String(), "rows", len(src.Rows))

	pdf, err := render.New(cfg.Render.Engine, cfg.Render.Command, cfg.Render.Args, cfg.Render.Timeout)
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
		if err != nil {
			log.Error("telegram disabled", "err", err)
		} else {
			notifier = tg
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	m.CatalogRows.Set(float64(len(src.Rows)))

	h := api.NewHandler(api.Deps{
		Log:      log,
		Store:    store,
		Exporter: wb,
		PDF:      pdf,
		History:  history,
		Notifier: notifier,
		Metrics:  m,
		Now:      clock(cfg.App.Timezone, log),
	})
	srv := httpx.New(httpx.Options{
		Addr:          cfg.HTTP.Addr,
		ExposeMetrics: cfg.Metrics.Enabled,
		StaticDir:     cfg.HTTP.StaticDir,
	}, h)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server started", "addr", cfg.HTTP.Addr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("http server error", "err", err)
		return err
	}
	log.Info("graceful shutdown complete")
	return nil
}
