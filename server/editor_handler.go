package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"trackdesk/core/draft"
	"trackdesk/core/editor"
	"trackdesk/core/wordpress"
	"trackdesk/logger"
)

type sessionView struct {
	Key         string                  `json:"key"`
	State       editor.State            `json:"state"`
	Form        editor.Form             `json:"form"`
	CanRevert   bool                    `json:"canRevert"`
	Attachments []editor.AttachmentKind `json:"attachments"`
	Reused      bool                    `json:"reused"`
}

func viewOf(c *editor.Controller, reused bool) sessionView {
	attachments := c.Attachments()
	if attachments == nil {
		attachments = []editor.AttachmentKind{}
	}
	return sessionView{
		Key:         c.Key(),
		State:       c.State(),
		Form:        c.Form(),
		CanRevert:   c.CanRevert(),
		Attachments: attachments,
		Reused:      reused,
	}
}

// writeEditorError maps editor failures onto HTTP statuses.
func writeEditorError(w http.ResponseWriter, err error) {
	var (
		verr *editor.ValidationError
		uerr *editor.UploadError
		merr *editor.MutationError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.As(err, &uerr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "Upload failed", Field: string(uerr.Kind)})
	case errors.As(err, &merr):
		writeError(w, http.StatusBadGateway, merr.Message)
	case errors.Is(err, editor.ErrSubmitInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, editor.ErrSessionClosed):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrInvalidValue),
		errors.Is(err, editor.ErrUnknownAttachment),
		errors.Is(err, editor.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("[Editor] unexpected error", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Controller, bool) {
	key := mux.Vars(r)["key"]
	c, ok := h.sessions.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Editor session not found")
		return nil, false
	}
	return c, true
}

// OpenSessionHandler opens or resumes the editor for a new submission
// (no postId) or for an existing post.
func (h *APIHandler) OpenSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID int `json:"postId"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.PostID < 0 {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	isSubmitting := req.PostID == 0
	postID := ""
	if !isSubmitting {
		postID = strconv.Itoa(req.PostID)
	}
	if c, ok := h.sessions.Get(draft.SessionKey(isSubmitting, postID)); ok && c.State() != editor.StateSubmitted {
		writeJSON(w, http.StatusOK, viewOf(c, true))
		return
	}

	defaults := editor.NewForm()
	if !isSubmitting {
		post, err := h.posts.GetPost(r.Context(), req.PostID)
		if errors.Is(err, wordpress.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		if err != nil {
			logger.Error("[Editor] failed to load post", logger.Int("post_id", req.PostID), logger.ErrorField(err))
			writeError(w, http.StatusBadGateway, "Failed to load post")
			return
		}
		defaults = editor.FormFromPost(post)
	}

	c, reused := h.sessions.Open(isSubmitting, postID, defaults)
	status := http.StatusCreated
	if reused {
		status = http.StatusOK
	}
	writeJSON(w, status, viewOf(c, reused))
}

// GetSessionHandler returns the current state of a session.
func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c, true))
}

type fieldChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// SetFieldHandler replaces one form field.
func (h *APIHandler) SetFieldHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	var req fieldChange
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Field == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.Set(req.Field, req.Value); err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c, true))
}

// AttachHandler holds an audio or cover file until submit.
func (h *APIHandler) AttachHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	f, ok := readUpload(w, r)
	if !ok {
		return
	}
	if err := c.Attach(editor.AttachmentKind(mux.Vars(r)["kind"]), f); err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c, true))
}

// RevertHandler discards the session's draft.
func (h *APIHandler) RevertHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := c.Revert(); err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c, true))
}

// SubmitHandler publishes or saves the post as a draft.
func (h *APIHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	action, err := editor.ParseAction(req.Action)
	if err != nil {
		writeEditorError(w, err)
		return
	}

	res, err := c.Submit(r.Context(), action)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	if username, err := GetUsernameFromContext(r.Context()); err == nil {
		logger.Info("[Editor] post submitted", logger.String("username", username), logger.Int("post_id", res.PostID))
	}
	writeJSON(w, http.StatusOK, res)
}

// CloseSessionHandler flushes pending edits and forgets the session.
func (h *APIHandler) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Close(mux.Vars(r)["key"]) {
		writeError(w, http.StatusNotFound, "Editor session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
