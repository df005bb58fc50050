package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"

	applog "github.com/cnlance/rulesd/internal/log"
	"github.com/cnlance/rulesd/internal/store"
)

// listCacheTTL bounds how long a rendered rule list is kept around; stale
// revisions age out even if nothing evicts them.
const listCacheTTL = time.Minute

type APIServer struct {
	version        string
	addr           string
	store          *store.Store
	httpServer     *http.Server
	logBroadcaster *applog.Broadcaster

	// listCache caches rendered GET /rules bodies keyed by store revision.
	// Downstream engines poll that endpoint, so an unchanged collection is
	// served without re-rendering.
	listCache *expirable.LRU[uint64, []byte]
}

func New(addr string, version string, st *store.Store, lb *applog.Broadcaster) *APIServer {
	return &APIServer{
		version:        version,
		addr:           addr,
		store:          st,
		logBroadcaster: lb,
		listCache:      expirable.NewLRU[uint64, []byte](4, nil, listCacheTTL),
	}
}

func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.newRouter(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("api-server listen failed: %w", err)
	}

	slog.Info("api-server started", slog.String("addr", s.addr))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("api-server error", slog.Any("error", err))
		}
	}()

	return nil
}

func (s *APIServer) Close() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("api-server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *APIServer) newRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Compress(5, "text/plain", "application/json"))

	// api routes
	r.Get("/version", s.handleVersion)

	r.Get("/rules", s.handleListRules)
	r.Post("/rules", s.handleAddRule)
	r.Delete("/rules", s.handleDeleteRule)

	r.Get("/logs", s.handleLogs)

	// pprof routes
	r.Route("/debug/pprof", func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		r.Handle("/goroutine", pprof.Handler("goroutine"))
		r.Handle("/heap", pprof.Handler("heap"))
		r.Handle("/allocs", pprof.Handler("allocs"))
		r.Handle("/threadcreate", pprof.Handler("threadcreate"))
		r.Handle("/block", pprof.Handler("block"))
		r.Handle("/mutex", pprof.Handler("mutex"))
	})

	return r
}

func slogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("api-server request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
