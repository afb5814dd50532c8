package editor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"trackdesk/core/media"
)

// DefaultMinCoverDimension is the smallest accepted cover edge in pixels.
const DefaultMinCoverDimension = 1400

type rule struct {
	field   string
	message string
	ok      func(f *Form) bool
}

func filled(s string) bool { return strings.TrimSpace(s) != "" }

// rules run in order; the first failure blocks submission.
var rules = []rule{
	{"artistName", "Artist name is required", func(f *Form) bool { return filled(f.ArtistName) }},
	{"trackTitle", "Track title is required", func(f *Form) bool { return filled(f.TrackTitle) }},
	{"tags", "Select at least one genre", func(f *Form) bool { return len(f.Tags) > 0 }},
	{"excerptText", "Short description is required", func(f *Form) bool { return filled(f.PostOptions.ExcerptText) }},
	{"isrc", "ISRC is required", func(f *Form) bool { return filled(f.ISRC) }},
	{"proAffiliation", "PRO affiliation is required", func(f *Form) bool { return f.PROAffiliation != "" }},
	{"acceptTerms", "You must accept the terms", func(f *Form) bool { return f.AcceptTerms }},
}

// Validate returns the first failing required-field rule, or nil.
func Validate(f *Form) *ValidationError {
	for _, r := range rules {
		if !r.ok(f) {
			return &ValidationError{Field: r.field, Message: r.message}
		}
	}
	return nil
}

// checkCover decodes the image header of an attached cover and rejects covers
// smaller than min on either edge.
func checkCover(cover *media.File, min int) *ValidationError {
	if cover == nil {
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(cover.Data))
	if err != nil {
		return &ValidationError{Field: "cover", Message: "Cover art could not be read as an image"}
	}
	if cfg.Width < min || cfg.Height < min {
		return &ValidationError{
			Field:   "cover",
			Message: fmt.Sprintf("Cover art must be at least %dx%d pixels (got %dx%d)", min, min, cfg.Width, cfg.Height),
		}
	}
	return nil
}
