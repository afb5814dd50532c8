package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"trackdesk/logger"
)

// WordPressUploader posts files to the WordPress REST media endpoint. Every
// upload fetches a fresh bearer token from the token endpoint first.
type WordPressUploader struct {
	MediaURL string
	TokenURL string
	Username string
	Password string
	Client   *http.Client
}

// NewWordPressUploader creates an uploader with a 60 second HTTP timeout.
func NewWordPressUploader(mediaURL, tokenURL, username, password string) *WordPressUploader {
	return &WordPressUploader{
		MediaURL: mediaURL,
		TokenURL: tokenURL,
		Username: username,
		Password: password,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (u *WordPressUploader) Upload(ctx context.Context, f File) (string, error) {
	token, err := u.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	header.Set("Content-Type", f.DetectContentType())
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("media: build form: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", fmt.Errorf("media: build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("media: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.MediaURL, &body)
	if err != nil {
		return "", fmt.Errorf("media: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("media: upload %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("media: upload %s: status %d: %s", f.Name, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out struct {
		SourceURL string `json:"source_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("media: decode upload response: %w", err)
	}
	if out.SourceURL == "" {
		return "", ErrNoSourceURL
	}

	logger.Info("media uploaded", logger.String("file", f.Name), logger.String("url", out.SourceURL))
	return out.SourceURL, nil
}

func (u *WordPressUploader) fetchToken(ctx context.Context) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"username": u.Username,
		"password": u.Password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("media: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("media: fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media: fetch token: status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("media: decode token: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("media: token endpoint returned no token")
	}
	return out.Token, nil
}
