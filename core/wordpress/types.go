package wordpress

import (
	"strconv"
	"strings"
)

// PostStatus is the WordPress post status enum.
type PostStatus string

const (
	PostStatusPending PostStatus = "PENDING"
	PostStatusPrivate PostStatus = "PRIVATE"
	PostStatusPublish PostStatus = "PUBLISH"
	PostStatusDraft   PostStatus = "DRAFT"
	PostStatusFuture  PostStatus = "FUTURE"
	PostStatusTrash   PostStatus = "TRASH"
)

// GallerySlots is how many gallery images a post carries.
const GallerySlots = 8

// Image is a media reference by URL and alt text.
type Image struct {
	SourceURL  string `json:"sourceUrl"`
	AltText    string `json:"altText"`
	DatabaseID int    `json:"databaseId,omitempty"`
}

// Category is a post category node.
type Category struct {
	DatabaseID int    `json:"databaseId"`
	Name       string `json:"name"`
}

// Tag is a post tag node; tags are sent back by name.
type Tag struct {
	Name string `json:"name"`
}

// Post is the subset of a post the dashboard reads.
type Post struct {
	DatabaseID    int    `json:"databaseId"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	URI           string `json:"uri"`
	Status        string `json:"status"`
	Date          string `json:"date"`
	CommentStatus string `json:"commentStatus"`
	FeaturedImage *struct {
		Node *Image `json:"node"`
	} `json:"featuredImage"`
	Categories struct {
		Nodes []Category `json:"nodes"`
	} `json:"categories"`
	Tags struct {
		Nodes []Tag `json:"nodes"`
	} `json:"tags"`
	PostFormats struct {
		Nodes []struct {
			Slug string `json:"slug"`
		} `json:"nodes"`
	} `json:"postFormats"`
	NcmazVideoURL *struct {
		VideoURL string `json:"videoUrl"`
	} `json:"ncmazVideoUrl"`
	NcmazAudioURL *struct {
		AudioURL string `json:"audioUrl"`
	} `json:"ncmazAudioUrl"`
	NcmazGalleryImgs *struct {
		Image1 *Image `json:"image1"`
		Image2 *Image `json:"image2"`
		Image3 *Image `json:"image3"`
		Image4 *Image `json:"image4"`
		Image5 *Image `json:"image5"`
		Image6 *Image `json:"image6"`
		Image7 *Image `json:"image7"`
		Image8 *Image `json:"image8"`
	} `json:"ncmazGalleryImgs"`
	NcPostMetaData *struct {
		ShowRightSidebar bool     `json:"showRightSidebar"`
		Template         []string `json:"template"`
	} `json:"ncPostMetaData"`
}

// VideoField returns the raw text of the video field, which may hold either a
// video URL or encoded custom meta.
func (p *Post) VideoField() string {
	if p == nil || p.NcmazVideoURL == nil {
		return ""
	}
	return p.NcmazVideoURL.VideoURL
}

// AudioURL returns the audio field.
func (p *Post) AudioURL() string {
	if p == nil || p.NcmazAudioURL == nil {
		return ""
	}
	return p.NcmazAudioURL.AudioURL
}

// Featured returns the featured image, or the zero Image.
func (p *Post) Featured() Image {
	if p == nil || p.FeaturedImage == nil || p.FeaturedImage.Node == nil {
		return Image{}
	}
	return *p.FeaturedImage.Node
}

// Gallery returns the gallery slots in order; empty slots are zero Images.
func (p *Post) Gallery() [GallerySlots]Image {
	var out [GallerySlots]Image
	if p == nil || p.NcmazGalleryImgs == nil {
		return out
	}
	g := p.NcmazGalleryImgs
	for i, img := range []*Image{g.Image1, g.Image2, g.Image3, g.Image4, g.Image5, g.Image6, g.Image7, g.Image8} {
		if img != nil {
			out[i] = *img
		}
	}
	return out
}

// PostFormat returns the first post format slug, or "".
func (p *Post) PostFormat() string {
	if p == nil || len(p.PostFormats.Nodes) == 0 {
		return ""
	}
	return p.PostFormats.Nodes[0].Slug
}

// PostInput carries the arguments of the create and update mutations.
type PostInput struct {
	ID               string // database id; empty for creates
	Status           PostStatus
	Title            string
	Content          string
	CategoryIDs      []int
	Tags             []string
	FeaturedImage    Image
	Date             string // schedule date, empty for none
	Gallery          [GallerySlots]Image
	AllowComments    bool
	Excerpt          string
	AudioURL         string
	VideoField       string // video URL or encoded custom meta
	PostFormat       string
	ShowRightSidebar bool
	PostStyle        string
}

// Variables flattens the input into the mutation's named arguments.
func (in PostInput) Variables() map[string]any {
	categories := make([]map[string]string, 0, len(in.CategoryIDs))
	for _, id := range in.CategoryIDs {
		categories = append(categories, map[string]string{"id": strconv.Itoa(id)})
	}

	commentStatus := "closed"
	if in.AllowComments {
		commentStatus = "open"
	}
	sidebar := "0"
	if in.ShowRightSidebar {
		sidebar = "1"
	}

	vars := map[string]any{
		"status":           in.Status,
		"title":            in.Title,
		"content":          in.Content,
		"categoryNodes":    categories,
		"ncTags":           strings.Join(in.Tags, ","),
		"featuredImg_alt":  in.FeaturedImage.AltText,
		"featuredImg_url":  in.FeaturedImage.SourceURL,
		"date":             nullable(in.Date),
		"commentStatus":    commentStatus,
		"excerpt":          in.Excerpt,
		"ncmazAudioUrl":    in.AudioURL,
		"ncmazVideoUrl":    in.VideoField,
		"postFormatName":   nullable(in.PostFormat),
		"showRightSidebar": sidebar,
		"postStyle":        in.PostStyle,
	}
	if in.ID != "" {
		vars["id"] = in.ID
	}
	for i, img := range in.Gallery {
		n := strconv.Itoa(i + 1)
		vars["img_"+n+"_alt"] = img.AltText
		vars["img_"+n+"_url"] = img.SourceURL
	}
	return vars
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// MutationResult is what a create or update returns.
type MutationResult struct {
	DatabaseID int    `json:"databaseId"`
	URI        string `json:"uri"`
	Status     string `json:"status"`
}

// NextPath is where the dashboard sends the user after a successful save.
// Updates point at the post by id; creates go to the public URI once
// published and to the preview page otherwise.
func (r MutationResult) NextPath(updated bool) string {
	if updated {
		return "/?p=" + strconv.Itoa(r.DatabaseID)
	}
	if r.Status == "publish" {
		return r.URI
	}
	return "/preview" + r.URI + "&preview=true&previewPathname=post"
}
