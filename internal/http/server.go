package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expensetracker/internal/log"
	"expensetracker/internal/presenter"
	appweb "expensetracker/web"
)

// Counter reports how many expenses are stored; used by the readiness probe.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Server is the browser-facing window of the expense tracker. Every request
// that reads or changes presenter state holds mu, so the presenter sees one
// user event at a time.
type Server struct {
	http.Server
	templates *template.Template
	counter   Counter

	mu        sync.Mutex
	presenter *presenter.Presenter
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, p *presenter.Presenter, counter Counter, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.ForComponent(log.ComponentHTTP)
	} else {
		logger = logger.WithComponent(log.ComponentHTTP)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		counter:   counter,
		presenter: p,
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /expenses", s.handleAddExpense)
	mux.HandleFunc("POST /expenses/delete", s.handleDeleteExpense)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.Handler = log.Middleware(logger)(withSecurityHeaders(mux))
	return s
}
