package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"trackdesk/core/draft"
	"trackdesk/core/meta"
	"trackdesk/core/wordpress"
)

// PostOptions are the secondary post settings edited in the options dialog.
type PostOptions struct {
	AudioURL                string                     `json:"audioUrl"`
	VideoURL                string                     `json:"videoUrl"`
	ExcerptText             string                     `json:"excerptText"`
	PostFormatsSelected     string                     `json:"postFormatsSelected"`
	ObjGalleryImgs          map[string]wordpress.Image `json:"objGalleryImgs,omitempty"`
	IsAllowComments         bool                       `json:"isAllowComments"`
	TimeSchedulePublication string                     `json:"timeSchedulePublication,omitempty"`
	ShowRightSidebar        bool                       `json:"showRightSidebar"`
	PostStyleSelected       string                     `json:"postStyleSelected"`
}

// Gallery returns slots image1..image8 in order.
func (o PostOptions) Gallery() [wordpress.GallerySlots]wordpress.Image {
	var out [wordpress.GallerySlots]wordpress.Image
	for i := range out {
		out[i] = o.ObjGalleryImgs["image"+strconv.Itoa(i+1)]
	}
	return out
}

// Form is the editable document of one session. The embedded artist-track
// record is flattened so its attributes are top-level fields.
type Form struct {
	TitleContent  string               `json:"titleContent"`
	ContentHTML   string               `json:"contentHTML"`
	FeaturedImage wordpress.Image      `json:"featuredImage"`
	Tags          []wordpress.Tag      `json:"tags"`
	Categories    []wordpress.Category `json:"categories"`
	PostOptions   PostOptions          `json:"postOptionsData"`
	AcceptTerms   bool                 `json:"acceptTerms"`
	meta.ArtistTrack
}

// NewForm returns the defaults of a fresh submission.
func NewForm() Form {
	return Form{
		PostOptions: PostOptions{
			IsAllowComments:   true,
			ShowRightSidebar:  true,
			PostStyleSelected: "style1",
		},
		ArtistTrack: meta.NewArtistTrack(),
	}
}

func (f Form) clone() Form {
	out := f
	out.Tags = append([]wordpress.Tag(nil), f.Tags...)
	out.Categories = append([]wordpress.Category(nil), f.Categories...)
	if f.PostOptions.ObjGalleryImgs != nil {
		out.PostOptions.ObjGalleryImgs = make(map[string]wordpress.Image, len(f.PostOptions.ObjGalleryImgs))
		for k, v := range f.PostOptions.ObjGalleryImgs {
			out.PostOptions.ObjGalleryImgs[k] = v
		}
	}
	return out
}

// overlay applies a stored snapshot field by field. A stored value wins unless
// it is null, "", false or 0; values that do not decode are skipped.
func (f *Form) overlay(snap draft.Snapshot) {
	for name, raw := range snap {
		spec, ok := fields[name]
		if !ok || isFalsy(raw) {
			continue
		}
		_ = spec.decode(f, raw)
	}
}

func isFalsy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", `""`, "false":
		return true
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil && n == 0 {
		return true
	}
	return false
}

type writeMode int

const (
	writeImmediate writeMode = iota
	writeTitle
	writeContent
)

type fieldSpec struct {
	mode   writeMode
	decode func(f *Form, raw json.RawMessage) error
	value  func(f *Form) any
}

func bind[T any](get func(*Form) *T, check func(T) (T, error)) fieldSpec {
	return fieldSpec{
		decode: func(f *Form, raw json.RawMessage) error {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			if check != nil {
				var err error
				if v, err = check(v); err != nil {
					return err
				}
			}
			*get(f) = v
			return nil
		},
		value: func(f *Form) any { return *get(f) },
	}
}

func clampCount(n int) (int, error) {
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

func checkPRO(p meta.PRO) (meta.PRO, error) {
	if !p.Valid() {
		return p, fmt.Errorf("%w: unknown PRO %q", ErrInvalidValue, p)
	}
	return p, nil
}

// fields is the registry of draft field names.
var fields = func() map[string]fieldSpec {
	m := map[string]fieldSpec{
		"titleContent":    bind(func(f *Form) *string { return &f.TitleContent }, nil),
		"contentHTML":     bind(func(f *Form) *string { return &f.ContentHTML }, nil),
		"featuredImage":   bind(func(f *Form) *wordpress.Image { return &f.FeaturedImage }, nil),
		"tags":            bind(func(f *Form) *[]wordpress.Tag { return &f.Tags }, nil),
		"categories":      bind(func(f *Form) *[]wordpress.Category { return &f.Categories }, nil),
		"postOptionsData": bind(func(f *Form) *PostOptions { return &f.PostOptions }, nil),
		"acceptTerms":     bind(func(f *Form) *bool { return &f.AcceptTerms }, nil),

		"artistName":              bind(func(f *Form) *string { return &f.ArtistName }, nil),
		"trackTitle":              bind(func(f *Form) *string { return &f.TrackTitle }, nil),
		"albumName":               bind(func(f *Form) *string { return &f.AlbumName }, nil),
		"trackFileUrl":            bind(func(f *Form) *string { return &f.TrackFileURL }, nil),
		"trackFileName":           bind(func(f *Form) *string { return &f.TrackFileName }, nil),
		"isrc":                    bind(func(f *Form) *string { return &f.ISRC }, nil),
		"proAffiliation":          bind(func(f *Form) *meta.PRO { return &f.PROAffiliation }, checkPRO),
		"soundExchangeRegistered": bind(func(f *Form) *bool { return &f.SoundExchangeRegistered }, nil),
		"status":                  bind(func(f *Form) *meta.Status { return &f.Status }, nil),
		"airplayCount":            bind(func(f *Form) *int { return &f.AirplayCount }, clampCount),
		"spinCount":               bind(func(f *Form) *int { return &f.SpinCount }, clampCount),
		"targetChannel":           bind(func(f *Form) *string { return &f.TargetChannel }, nil),
		"targetPlaylist":          bind(func(f *Form) *string { return &f.TargetPlaylist }, nil),
	}
	title := m["titleContent"]
	title.mode = writeTitle
	m["titleContent"] = title
	content := m["contentHTML"]
	content.mode = writeContent
	m["contentHTML"] = content
	return m
}()
