package server

import (
	"context"
	"encoding/json"
	"net/http"

	"trackdesk/config"
	"trackdesk/core/auth"
	"trackdesk/core/editor"
	"trackdesk/core/media"
	"trackdesk/core/wordpress"
	"trackdesk/logger"
)

// PostSource reads posts from the CMS.
type PostSource interface {
	GetPost(ctx context.Context, databaseID int) (*wordpress.Post, error)
	ListViewerPosts(ctx context.Context, opts wordpress.ListOptions) (*wordpress.PostPage, error)
}

// APIHandler serves every API route.
type APIHandler struct {
	cfg      *config.Config
	issuer   *auth.Issuer
	account  auth.Account
	posts    PostSource
	sessions *editor.Registry
	// uploads hosts files posted to /api/upload; nil disables the endpoint.
	uploads media.Uploader
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	cfg *config.Config,
	issuer *auth.Issuer,
	posts PostSource,
	sessions *editor.Registry,
	uploads media.Uploader,
) *APIHandler {
	return &APIHandler{
		cfg:    cfg,
		issuer: issuer,
		account: auth.Account{
			Username:     cfg.DashboardUser,
			PasswordHash: cfg.DashboardPasswordHash,
		},
		posts:    posts,
		sessions: sessions,
		uploads:  uploads,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response failed", logger.ErrorField(err))
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// SettingsHandler returns the fixed site settings.
func (h *APIHandler) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"theme": config.Theme})
}
