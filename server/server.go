package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"trackdesk/config"
	"trackdesk/core/auth"
	"trackdesk/core/draft"
	"trackdesk/core/editor"
	"trackdesk/core/wordpress"
	"trackdesk/logger"
)

// corsMiddleware answers preflight requests and allows any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter registers every route of the dashboard API.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/token", h.TokenHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/settings", h.SettingsHandler).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}/artist-track", h.ArtistTrackHandler).Methods(http.MethodGet)

	// authenticated routes
	api.HandleFunc("/upload", h.AuthMiddleware(h.UploadHandler)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/posts", h.AuthMiddleware(h.ListPostsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/albums", h.AuthMiddleware(h.ListAlbumsHandler)).Methods(http.MethodGet)

	api.HandleFunc("/editor/sessions", h.AuthMiddleware(h.OpenSessionHandler)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/editor/ws", h.AuthMiddleware(h.EditorWSHandler))
	s := api.PathPrefix("/editor/sessions/{key}").Subrouter()
	s.HandleFunc("", h.AuthMiddleware(h.GetSessionHandler)).Methods(http.MethodGet)
	s.HandleFunc("", h.AuthMiddleware(h.CloseSessionHandler)).Methods(http.MethodDelete, http.MethodOptions)
	s.HandleFunc("/fields", h.AuthMiddleware(h.SetFieldHandler)).Methods(http.MethodPatch, http.MethodOptions)
	s.HandleFunc("/attachments/{kind}", h.AuthMiddleware(h.AttachHandler)).Methods(http.MethodPut, http.MethodOptions)
	s.HandleFunc("/revert", h.AuthMiddleware(h.RevertHandler)).Methods(http.MethodPost, http.MethodOptions)
	s.HandleFunc("/submit", h.AuthMiddleware(h.SubmitHandler)).Methods(http.MethodPost, http.MethodOptions)

	return router
}

// Start wires the backends named by cfg and serves until SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	kv, closeKV, err := OpenDraftKV(cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	uploader, err := NewUploader(cfg)
	if err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	client := wordpress.NewClient(cfg.GraphQLEndpoint,
		wordpress.WithToken(cfg.GraphQLToken),
		wordpress.WithRetries(cfg.QueryRetries),
	)
	sessions := editor.NewRegistry(editor.Config{
		TitleDebounce:     cfg.TitleDebounce,
		ContentDebounce:   cfg.ContentDebounce,
		MinCoverDimension: cfg.MinCoverDimension,
		MaxEditSessions:   cfg.MaxEditSessions,
	}, editor.Deps{
		Drafts:    draft.NewStore(kv),
		Uploader:  uploader,
		Publisher: client,
	})
	defer sessions.CloseAll()

	h := NewAPIHandler(cfg, issuer, client, sessions, uploader)
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: NewRouter(h),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			logger.String("addr", server.Addr),
			logger.String("graphql", cfg.GraphQLEndpoint),
			logger.String("drafts", cfg.DraftBackend),
			logger.String("media", cfg.MediaBackend))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
