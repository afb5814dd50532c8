package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackdesk/config"
	"trackdesk/core/auth"
	"trackdesk/core/draft"
	"trackdesk/core/editor"
	"trackdesk/core/media"
	"trackdesk/core/wordpress"
)

type fakePosts struct {
	posts map[int]*wordpress.Post
	last  wordpress.ListOptions
}

func (f *fakePosts) GetPost(_ context.Context, id int) (*wordpress.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, wordpress.ErrNotFound
	}
	return p, nil
}

func (f *fakePosts) ListViewerPosts(_ context.Context, opts wordpress.ListOptions) (*wordpress.PostPage, error) {
	f.last = opts
	return &wordpress.PostPage{Posts: []wordpress.Post{{DatabaseID: 7, Title: "Night Drive"}}, EndCursor: "c1"}, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	created []wordpress.PostInput
}

func (p *fakePublisher) CreatePost(_ context.Context, in wordpress.PostInput) (*wordpress.MutationResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, in)
	return &wordpress.MutationResult{DatabaseID: 99, URI: "/night-drive/", Status: "publish"}, nil
}

func (p *fakePublisher) UpdatePost(_ context.Context, in wordpress.PostInput) (*wordpress.MutationResult, error) {
	return &wordpress.MutationResult{DatabaseID: 7, URI: "/?p=7", Status: "publish"}, nil
}

type fakeUploader struct{}

func (fakeUploader) Upload(_ context.Context, f media.File) (string, error) {
	return "https://cdn.example.com/" + f.Name, nil
}

type testEnv struct {
	router    http.Handler
	posts     *fakePosts
	publisher *fakePublisher
	token     string
}

func newTestEnv(t *testing.T, uploads media.Uploader) *testEnv {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	cfg := &config.Config{DashboardUser: "editor", DashboardPasswordHash: hash, AlbumCategoryID: 233}

	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := issuer.GenerateToken("editor")
	require.NoError(t, err)

	posts := &fakePosts{posts: map[int]*wordpress.Post{}}
	publisher := &fakePublisher{}
	sessions := editor.NewRegistry(editor.Config{
		TitleDebounce:   10 * time.Millisecond,
		ContentDebounce: 10 * time.Millisecond,
	}, editor.Deps{
		Drafts:    draft.NewStore(draft.NewMemoryKV()),
		Uploader:  fakeUploader{},
		Publisher: publisher,
	})
	t.Cleanup(sessions.CloseAll)

	h := NewAPIHandler(cfg, issuer, posts, sessions, uploads)
	return &testEnv{router: NewRouter(h), posts: posts, publisher: publisher, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestTokenHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/token", map[string]string{"username": "editor", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/token", map[string]string{"username": "editor"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/token", map[string]string{"username": "editor", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["expiresAt"])
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/posts?access_token="+env.token, nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/token", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSettingsHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"theme":"dark"}`, rec.Body.String())
}

func TestListPostsHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/posts?tab=draft&first=5&after=abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wordpress.ListOptions{Tab: wordpress.TabDraft, First: 5, After: "abc"}, env.posts.last)
	page := decode[wordpress.PostPage](t, rec)
	assert.Equal(t, "c1", page.EndCursor)
	require.Len(t, page.Posts, 1)

	rec = env.do(t, http.MethodGet, "/api/posts?tab=archived", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/posts?first=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAlbumsHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/albums?tab=schedule&after=c9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wordpress.ListOptions{
		Tab:        wordpress.TabSchedule,
		First:      wordpress.DefaultPageSize,
		After:      "c9",
		CategoryIn: []int{233},
	}, env.posts.last)

	rec = env.do(t, http.MethodGet, "/api/posts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.posts.last.CategoryIn)
}

func TestArtistTrackHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	withTrack := &wordpress.Post{DatabaseID: 1}
	require.NoError(t, json.Unmarshal([]byte(`{"ncmazVideoUrl":{"videoUrl":"{\"artistTrack\":{\"artistName\":\"Ada\",\"trackTitle\":\"Night Drive\",\"isrc\":\"US-ABC-12-34567\"}}"}}`), withTrack))
	env.posts.posts[1] = withTrack
	env.posts.posts[2] = &wordpress.Post{DatabaseID: 2}

	rec := env.do(t, http.MethodGet, "/api/posts/1/artist-track", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Ada", body["artist"])
	assert.Equal(t, "Night Drive", body["track"])

	rec = env.do(t, http.MethodGet, "/api/posts/2/artist-track", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/posts/3/artist-track", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, method, path, name string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, name, []byte("ID3data"))
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadHandler(t *testing.T) {
	rec := newTestEnv(t, nil).upload(t, http.MethodPost, "/api/upload", "song.mp3")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = newTestEnv(t, fakeUploader{}).upload(t, http.MethodPost, "/api/upload", "song.mp3")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"source_url":"https://cdn.example.com/song.mp3"}`, rec.Body.String())
}

func setField(t *testing.T, env *testEnv, key, field string, value any) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, http.MethodPatch, "/api/editor/sessions/"+key+"/fields", map[string]any{"field": field, "value": value})
}

func TestEditorSessionFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/editor/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode[map[string]any](t, rec)
	key := view["key"].(string)
	assert.Equal(t, draft.NewSessionKey, key)
	assert.Equal(t, "editing", view["state"])
	assert.Equal(t, false, view["reused"])

	rec = env.do(t, http.MethodPost, "/api/editor/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["reused"])

	rec = setField(t, env, key, "artistName", "Ada")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/editor/sessions/"+key+"/submit", map[string]string{"action": "publish"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "trackTitle", decode[errorBody](t, rec).Field)

	for field, value := range map[string]any{
		"trackTitle":      "Night Drive",
		"tags":            []wordpress.Tag{{Name: "synthwave"}},
		"postOptionsData": map[string]any{"excerptText": "A late night track", "isAllowComments": true},
		"isrc":            "US-ABC-12-34567",
		"proAffiliation":  "BMI",
		"acceptTerms":     true,
	} {
		require.Equal(t, http.StatusOK, setField(t, env, key, field, value).Code, field)
	}

	rec = env.upload(t, http.MethodPut, "/api/editor/sessions/"+key+"/attachments/audio", "song.mp3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"audio"}, decode[map[string]any](t, rec)["attachments"])

	rec = env.do(t, http.MethodPost, "/api/editor/sessions/"+key+"/submit", map[string]string{"action": "publish"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[editor.Result](t, rec)
	assert.Equal(t, 99, res.PostID)
	assert.Equal(t, "/night-drive/", res.NextPath)

	require.Len(t, env.publisher.created, 1)
	assert.Equal(t, "https://cdn.example.com/song.mp3", env.publisher.created[0].AudioURL)
	assert.Contains(t, env.publisher.created[0].VideoField, `"artistName":"Ada"`)

	rec = env.do(t, http.MethodGet, "/api/editor/sessions/"+key, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = setField(t, env, key, "trackTitle", "Again")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/editor/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "", decode[map[string]any](t, rec)["form"].(map[string]any)["artistName"])

	rec = env.do(t, http.MethodDelete, "/api/editor/sessions/"+key, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/editor/sessions/"+key, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditorSessionErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	key := decode[map[string]any](t, env.do(t, http.MethodPost, "/api/editor/sessions", nil))["key"].(string)

	assert.Equal(t, http.StatusBadRequest, setField(t, env, key, "nope", "x").Code)
	assert.Equal(t, http.StatusBadRequest, setField(t, env, key, "proAffiliation", "XYZ").Code)
	assert.Equal(t, http.StatusBadRequest,
		env.upload(t, http.MethodPut, "/api/editor/sessions/"+key+"/attachments/video", "v.mp4").Code)
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodPost, "/api/editor/sessions/"+key+"/submit", map[string]string{"action": "delete"}).Code)
	assert.Equal(t, http.StatusNotFound, setField(t, env, "missing", "artistName", "Ada").Code)
}

func TestOpenSessionForExistingPost(t *testing.T) {
	env := newTestEnv(t, nil)
	env.posts.posts[7] = &wordpress.Post{DatabaseID: 7, Title: "Night Drive", Status: "publish"}

	rec := env.do(t, http.MethodPost, "/api/editor/sessions", map[string]int{"postId": 7})
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode[map[string]any](t, rec)
	assert.Equal(t, draft.SessionKey(false, "7"), view["key"])
	assert.Equal(t, "Night Drive", view["form"].(map[string]any)["titleContent"])
	assert.Equal(t, false, view["canRevert"])

	require.Equal(t, http.StatusOK, setField(t, env, view["key"].(string), "isrc", "US-ABC-12-34567").Code)
	rec = env.do(t, http.MethodPost, "/api/editor/sessions/"+view["key"].(string)+"/revert", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decode[map[string]any](t, rec)["form"].(map[string]any)["isrc"])

	rec = env.do(t, http.MethodPost, "/api/editor/sessions", map[string]int{"postId": 8})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditorWSHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	key := decode[map[string]any](t, env.do(t, http.MethodPost, "/api/editor/sessions", nil))["key"].(string)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/editor/ws?session=" + key + "&access_token=" + env.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"field": "titleContent", "value": "Live title"}))
	var ack fieldAck
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, fieldAck{OK: true, Field: "titleContent"}, ack)

	require.NoError(t, conn.WriteJSON(map[string]any{"field": "nope", "value": 1}))
	require.NoError(t, conn.ReadJSON(&ack))
	assert.False(t, ack.OK)
	assert.NotEmpty(t, ack.Error)

	rec := env.do(t, http.MethodGet, "/api/editor/sessions/"+key, nil)
	assert.Equal(t, "Live title", decode[map[string]any](t, rec)["form"].(map[string]any)["titleContent"])
}
