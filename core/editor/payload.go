package editor

import (
	"strconv"

	"trackdesk/core/meta"
	"trackdesk/core/wordpress"
)

// Action is what the user asked the submit button to do.
type Action string

const (
	ActionPublish Action = "publish"
	ActionDraft   Action = "draft"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionPublish, ActionDraft:
		return a, nil
	}
	return "", ErrUnknownAction
}

// postStatus maps an action to the post status sent to the CMS. Publishing a
// post with a schedule date makes it a future post.
func postStatus(a Action, f *Form) wordpress.PostStatus {
	if a == ActionDraft {
		return wordpress.PostStatusDraft
	}
	if f.PostOptions.TimeSchedulePublication != "" {
		return wordpress.PostStatusFuture
	}
	return wordpress.PostStatusPublish
}

// composeInput builds the mutation arguments. The artist-track record is
// merged into whatever envelope the video field already carries.
func composeInput(a Action, postID string, f *Form) wordpress.PostInput {
	tags := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		tags = append(tags, t.Name)
	}
	categories := make([]int, 0, len(f.Categories))
	for _, c := range f.Categories {
		categories = append(categories, c.DatabaseID)
	}

	return wordpress.PostInput{
		ID:               postID,
		Status:           postStatus(a, f),
		Title:            f.TitleContent,
		Content:          f.ContentHTML,
		CategoryIDs:      categories,
		Tags:             tags,
		FeaturedImage:    f.FeaturedImage,
		Date:             f.PostOptions.TimeSchedulePublication,
		Gallery:          f.PostOptions.Gallery(),
		AllowComments:    f.PostOptions.IsAllowComments,
		Excerpt:          f.PostOptions.ExcerptText,
		AudioURL:         f.PostOptions.AudioURL,
		VideoField:       meta.UpdateArtistTrackData(f.PostOptions.VideoURL, f.ArtistTrack.Patch()),
		PostFormat:       f.PostOptions.PostFormatsSelected,
		ShowRightSidebar: f.PostOptions.ShowRightSidebar,
		PostStyle:        f.PostOptions.PostStyleSelected,
	}
}

// FormFromPost maps a stored post onto the defaults of an edit session.
func FormFromPost(p *wordpress.Post) Form {
	f := NewForm()
	if p == nil {
		return f
	}

	f.TitleContent = p.Title
	f.ContentHTML = p.Content
	f.FeaturedImage = p.Featured()
	f.Tags = append(f.Tags, p.Tags.Nodes...)
	f.Categories = append(f.Categories, p.Categories.Nodes...)

	opts := &f.PostOptions
	opts.AudioURL = p.AudioURL()
	opts.VideoURL = p.VideoField()
	opts.ExcerptText = p.Excerpt
	opts.PostFormatsSelected = p.PostFormat()
	opts.IsAllowComments = p.CommentStatus == "open"
	opts.ShowRightSidebar = false
	if p.NcPostMetaData != nil {
		opts.ShowRightSidebar = p.NcPostMetaData.ShowRightSidebar
		if len(p.NcPostMetaData.Template) > 0 && p.NcPostMetaData.Template[0] != "" {
			opts.PostStyleSelected = p.NcPostMetaData.Template[0]
		}
	}
	if p.Status == "future" {
		opts.TimeSchedulePublication = p.Date
	}
	opts.ObjGalleryImgs = make(map[string]wordpress.Image, wordpress.GallerySlots)
	for i, img := range p.Gallery() {
		opts.ObjGalleryImgs["image"+strconv.Itoa(i+1)] = img
	}

	if track := meta.GetArtistTrackData(opts.VideoURL); track != nil {
		f.ArtistTrack = *track
	}
	return f
}
