// Package media uploads locally attached files to a hosted media endpoint.
package media

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrNoSourceURL is returned when an endpoint accepts a file but reports no
// hosted URL for it.
var ErrNoSourceURL = errors.New("media: upload returned no source url")

// File is a locally attached file waiting to be uploaded.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader hosts a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// DetectContentType prefers the declared type, then the extension, then sniffing.
func (f File) DetectContentType() string {
	if f.ContentType != "" && f.ContentType != "application/octet-stream" {
		return f.ContentType
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(f.Data)
}
