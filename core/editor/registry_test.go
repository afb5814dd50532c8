package editor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackdesk/core/draft"
	"trackdesk/core/meta"
	"trackdesk/core/wordpress"
)

func TestRegistry_OpenReusesLiveSession(t *testing.T) {
	h := newHarness()
	r := NewRegistry(Config{}, h.deps())
	defer r.CloseAll()

	first, reused := r.Open(true, "", NewForm())
	assert.False(t, reused)
	second, reused := r.Open(true, "", NewForm())
	assert.True(t, reused)
	assert.Same(t, first, second)

	got, ok := r.Get(draft.NewSessionKey)
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, []string{draft.NewSessionKey}, r.Keys())
}

func TestRegistry_ReplacesSubmittedSession(t *testing.T) {
	h := newHarness()
	r := NewRegistry(Config{}, h.deps())
	defer r.CloseAll()

	c, _ := r.Open(false, "42", NewForm())
	fillValid(t, c)
	_, err := c.Submit(context.Background(), ActionDraft)
	require.NoError(t, err)

	_, ok := r.Get(draft.SessionKey(false, "42"))
	assert.False(t, ok)
	assert.Empty(t, r.Keys())
	assert.ErrorIs(t, c.Set("isrc", json.RawMessage(`"US-XYZ-99-00001"`)), ErrSessionClosed)

	next, reused := r.Open(false, "42", NewForm())
	assert.False(t, reused)
	assert.NotSame(t, c, next)
	assert.Equal(t, StateEditing, next.State())
}

func TestRegistry_SubmitKeepsReopenedSession(t *testing.T) {
	h := newHarness()
	r := NewRegistry(Config{}, h.deps())
	defer r.CloseAll()

	c, _ := r.Open(true, "", NewForm())
	r.forget(draft.NewSessionKey, &Controller{})
	got, ok := r.Get(draft.NewSessionKey)
	require.True(t, ok)
	assert.Same(t, c, got)
}

func TestRegistry_CloseFlushes(t *testing.T) {
	h := newHarness()
	r := NewRegistry(Config{}, h.deps())

	c, _ := r.Open(true, "", NewForm())
	require.NoError(t, c.Set("titleContent", json.RawMessage(`"Draft title"`)))

	assert.True(t, r.Close(draft.NewSessionKey))
	assert.False(t, r.Close(draft.NewSessionKey))
	snap := h.store.Load(draft.NewSessionKey)
	require.NotNil(t, snap)
	assert.JSONEq(t, `"Draft title"`, string(snap["titleContent"]))
	_, ok := r.Get(draft.NewSessionKey)
	assert.False(t, ok)
}

func TestFormFromPost(t *testing.T) {
	var post wordpress.Post
	require.NoError(t, json.Unmarshal([]byte(`{
		"databaseId": 42,
		"title": "Night Drive",
		"content": "<p>body</p>",
		"excerpt": "short",
		"status": "future",
		"date": "2026-12-01T09:00:00",
		"commentStatus": "closed",
		"featuredImage": {"node": {"sourceUrl": "https://cdn/c.jpg", "altText": "cover"}},
		"tags": {"nodes": [{"name": "synthwave"}]},
		"categories": {"nodes": [{"databaseId": 3, "name": "Music"}]},
		"postFormats": {"nodes": [{"slug": "audio"}]},
		"ncmazVideoUrl": {"videoUrl": "{\"artistTrack\":{\"artistName\":\"Ada\",\"isrc\":\"US-ABC-12-34567\",\"status\":\"live\"}}"},
		"ncmazGalleryImgs": {"image1": {"sourceUrl": "https://cdn/g1.jpg", "altText": "g1"}},
		"ncPostMetaData": {"showRightSidebar": true, "template": ["style3"]}
	}`), &post))

	f := FormFromPost(&post)

	assert.Equal(t, "Night Drive", f.TitleContent)
	assert.Equal(t, "cover", f.FeaturedImage.AltText)
	assert.Equal(t, []wordpress.Tag{{Name: "synthwave"}}, f.Tags)
	assert.Equal(t, 3, f.Categories[0].DatabaseID)
	assert.Equal(t, "short", f.PostOptions.ExcerptText)
	assert.Equal(t, "audio", f.PostOptions.PostFormatsSelected)
	assert.False(t, f.PostOptions.IsAllowComments)
	assert.True(t, f.PostOptions.ShowRightSidebar)
	assert.Equal(t, "style3", f.PostOptions.PostStyleSelected)
	assert.Equal(t, "2026-12-01T09:00:00", f.PostOptions.TimeSchedulePublication)
	assert.Equal(t, "https://cdn/g1.jpg", f.PostOptions.Gallery()[0].SourceURL)
	assert.Equal(t, "Ada", f.ArtistName)
	assert.Equal(t, meta.StatusLive, f.Status)
}

func TestFormFromPost_PlainVideoURL(t *testing.T) {
	post := &wordpress.Post{Status: "publish"}
	require.NoError(t, json.Unmarshal([]byte(`{"ncmazVideoUrl":{"videoUrl":"https://example.com/v.mp4"}}`), post))

	f := FormFromPost(post)

	assert.Equal(t, "https://example.com/v.mp4", f.PostOptions.VideoURL)
	assert.Empty(t, f.PostOptions.TimeSchedulePublication)
	assert.Equal(t, meta.NewArtistTrack(), f.ArtistTrack)
}
