package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"trackdesk/core/meta"
	"trackdesk/core/wordpress"
	"trackdesk/logger"
)

// ListPostsHandler returns one page of the viewer's posts for a dashboard tab.
func (h *APIHandler) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, nil)
}

// ListAlbumsHandler is ListPostsHandler narrowed to the album category.
func (h *APIHandler) ListAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, []int{h.cfg.AlbumCategoryID})
}

func (h *APIHandler) listPosts(w http.ResponseWriter, r *http.Request, categoryIn []int) {
	q := r.URL.Query()
	tab, err := wordpress.ParseTab(q.Get("tab"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	first := wordpress.DefaultPageSize
	if s := q.Get("first"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "first must be between 1 and 100")
			return
		}
		first = n
	}

	page, err := h.posts.ListViewerPosts(r.Context(), wordpress.ListOptions{
		Tab:        tab,
		First:      first,
		After:      q.Get("after"),
		CategoryIn: categoryIn,
	})
	if err != nil {
		logger.Error("[Posts] failed to list posts", logger.String("tab", string(tab)), logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "Failed to load posts")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ArtistTrackHandler renders the artist/track block of a published post.
func (h *APIHandler) ArtistTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := h.posts.GetPost(r.Context(), id)
	if errors.Is(err, wordpress.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		logger.Error("[Posts] failed to load post", logger.Int("post_id", id), logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "Failed to load post")
		return
	}

	display := meta.NewDisplay(post.VideoField())
	if display == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, display)
}
