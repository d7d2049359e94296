package http

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 10 << 20

// Registrar вешает свои маршруты на общий mux.
type Registrar interface {
	Register(mux *http.ServeMux)
}

type Options struct {
	Addr          string
	ExposeMetrics bool
	Gatherer      prometheus.Gatherer // nil: глобальный реестр
	StaticDir     string              // пусто: статика не раздаётся
}

type Server struct {
	srv *http.Server
}

func New(opts Options, apis ...Registrar) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if opts.ExposeMetrics {
		if opts.Gatherer != nil {
			mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
		} else {
			mux.Handle("GET /metrics", promhttp.Handler())
		}
	}

	for _, a := range apis {
		a.Register(mux)
	}

	if opts.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return &Server{srv: &http.Server{
		Addr:              opts.Addr,
		Handler:           secure(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Handler: корневой обработчик со всеми middleware (для httptest).
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// secure: базовые заголовки безопасности и лимит тела запроса 10 МБ.
func secure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}
