package portfolio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Router builds the HTTP handler serving the public API, the admin API and the health
// check, wrapped in CORS handling for the dashboard's origin.
//
// Public routes:
//
//	GET    /api/pa                         categories with nested indicators, works and images
//	GET    /api/{collection}               rows in display order (?<parent_field>=id to scope)
//	GET    /api/{collection}/{id}          one row
//	POST   /api/messages                   contact form
//
// Admin routes:
//
//	PUT    /api/admin/read-only            {"read_only": bool}
//	POST   /api/admin/uploads              multipart "file", ?bucket=&folder=
//	PUT    /api/admin/{collection}/order   {"ids": [...], "strategy": "..."}
//	PUT    /api/admin/{collection}/replace {"rows": [...], "scope": {...}}, replaceable collections only
//	GET    /api/admin/{collection}
//	POST   /api/admin/{collection}
//	PUT    /api/admin/{collection}/{id}    update, releasing replaced files
//	DELETE /api/admin/{collection}/{id}    cascade delete with files
//
// The admin routes carry no authentication of their own; they are meant to sit behind
// the hosting platform's auth proxy.
func (a *App) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(a.logRequests)

	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/read-only", a.handleSetReadOnly).Methods("PUT")
	admin.HandleFunc("/uploads", a.handleUpload).Methods("POST")
	admin.HandleFunc("/{collection}/order", a.handleReorder).Methods("PUT")
	admin.HandleFunc("/{collection}/replace", a.handleReplace).Methods("PUT")
	admin.HandleFunc("/{collection}", a.handleAdminList).Methods("GET")
	admin.HandleFunc("/{collection}", a.handleCreate).Methods("POST")
	admin.HandleFunc("/{collection}/{id}", a.handleUpdate).Methods("PUT")
	admin.HandleFunc("/{collection}/{id}", a.handleDelete).Methods("DELETE")

	api.HandleFunc("/pa", a.handlePATree).Methods("GET")
	api.HandleFunc("/messages", a.handleCreateMessage).Methods("POST")
	api.HandleFunc("/{collection}", a.handlePublicList).Methods("GET")
	api.HandleFunc("/{collection}/{id}", a.handlePublicGet).Methods("GET")

	return cors.New(cors.Options{
		AllowedOrigins: a.config.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	}).Handler(router)
}

// Run serves the API on the configured port until ctx is cancelled, then allows up to
// 5 seconds for active requests to complete.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.logger.Info().Str("addr", addr).Bool("read_only", a.IsReadOnly()).Msg("Starting portfolio server")

	server := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		event := a.logger.Debug()
		if rec.status >= http.StatusInternalServerError {
			event = a.logger.Warn()
		}
		event.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
