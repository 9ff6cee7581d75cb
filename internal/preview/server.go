package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Handler serves the output directory plus:
//
//	GET /healthz   liveness
//	GET /_status   last build outcome as JSON
//	GET /metrics   Prometheus metrics, when configured
func (p *Preview) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(p.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/_status", p.handleStatus)
	if p.cfg.Metrics != nil {
		r.Handle("/metrics", p.cfg.Metrics)
	}
	r.Handle("/*", http.FileServer(http.Dir(p.cfg.Request.OutputDir)))
	return r
}

func (p *Preview) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p.Status()); err != nil {
		p.log.Warn("Failed to encode status", logfields.Error(err))
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
