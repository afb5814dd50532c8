// Package editor holds the in-memory state of one post editing session and
// drives its draft write-through, validation, uploads and submission.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trackdesk/core/draft"
	"trackdesk/core/media"
	"trackdesk/core/wordpress"
	"trackdesk/logger"
)

// State is the lifecycle stage of a session.
type State int

const (
	StateInitializing State = iota
	StateEditing
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// AttachmentKind names a locally attached file slot.
type AttachmentKind string

const (
	AttachAudio AttachmentKind = "audio"
	AttachCover AttachmentKind = "cover"
)

// Publisher creates and updates posts.
type Publisher interface {
	CreatePost(ctx context.Context, in wordpress.PostInput) (*wordpress.MutationResult, error)
	UpdatePost(ctx context.Context, in wordpress.PostInput) (*wordpress.MutationResult, error)
}

// Config describes one session.
type Config struct {
	// IsSubmitting is true for a new post, false for editing PostID.
	IsSubmitting bool
	PostID       string
	Defaults     Form

	TitleDebounce     time.Duration
	ContentDebounce   time.Duration
	MinCoverDimension int
	MaxEditSessions   int
}

func (c *Config) applyDefaults() {
	if c.TitleDebounce <= 0 {
		c.TitleDebounce = 300 * time.Millisecond
	}
	if c.ContentDebounce <= 0 {
		c.ContentDebounce = 400 * time.Millisecond
	}
	if c.MinCoverDimension <= 0 {
		c.MinCoverDimension = DefaultMinCoverDimension
	}
	if c.MaxEditSessions <= 0 {
		c.MaxEditSessions = draft.MaxEditSessions
	}
}

// Deps are the collaborators of a session.
type Deps struct {
	Drafts    *draft.Store
	Uploader  media.Uploader
	Publisher Publisher
}

// Result describes a successful submission.
type Result struct {
	PostID   int    `json:"postId"`
	URI      string `json:"uri"`
	Status   string `json:"status"`
	NextPath string `json:"nextPath"`
}

// Controller owns the form state of one session.
type Controller struct {
	cfg  Config
	deps Deps
	key  string

	mu       sync.Mutex
	state    State
	closed   bool
	form     Form
	audio    *media.File
	cover    *media.File
	debounce *debouncer

	// onSubmitted runs once after a successful submit, outside mu.
	onSubmitted func()
}

// Open loads the session's draft over cfg.Defaults, evicts stale edit drafts
// and returns a controller in the Editing state.
func Open(cfg Config, deps Deps) *Controller {
	cfg.applyDefaults()
	c := &Controller{
		cfg:      cfg,
		deps:     deps,
		key:      draft.SessionKey(cfg.IsSubmitting, cfg.PostID),
		state:    StateInitializing,
		form:     cfg.Defaults.clone(),
		debounce: newDebouncer(),
	}

	if snap := deps.Drafts.Load(c.key); snap != nil {
		c.form.overlay(snap)
		logger.Debug("draft restored", logger.String("session", c.key), logger.Int("fields", len(snap)))
	}
	if _, err := deps.Drafts.EvictStale(draft.EditKeyPrefix, c.key, cfg.MaxEditSessions); err != nil {
		logger.Warn("draft eviction failed", logger.String("session", c.key), logger.ErrorField(err))
	}

	c.state = StateEditing
	return c
}

// Key returns the session's draft key.
func (c *Controller) Key() string { return c.key }

// State returns the current lifecycle stage.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Form returns a copy of the current form.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.clone()
}

// CanRevert reports whether there is a stored draft of an existing post to
// throw away.
func (c *Controller) CanRevert() bool {
	return !c.cfg.IsSubmitting && c.deps.Drafts.Has(c.key)
}

// Attachments lists the kinds with a file waiting to be uploaded.
func (c *Controller) Attachments() []AttachmentKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []AttachmentKind
	if c.audio != nil {
		out = append(out, AttachAudio)
	}
	if c.cover != nil {
		out = append(out, AttachCover)
	}
	return out
}

func (c *Controller) checkOpen() error {
	if c.closed || c.state == StateSubmitted {
		return ErrSessionClosed
	}
	return nil
}

// checkEditable rejects changes that a running submit would discard.
func (c *Controller) checkEditable() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	return nil
}

// Set replaces one field. Memory changes at once; the draft is written
// immediately for discrete fields and after a quiet window for the title and
// body. Draft write failures are logged, never returned.
func (c *Controller) Set(field string, raw json.RawMessage) error {
	spec, ok := fields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	if err := spec.decode(&c.form, raw); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	patch := map[string]any{field: spec.value(&c.form)}

	switch spec.mode {
	case writeTitle:
		c.debounce.Schedule(field, c.cfg.TitleDebounce, func() { c.persist(patch) })
	case writeContent:
		c.debounce.Schedule(field, c.cfg.ContentDebounce, func() { c.persist(patch) })
	case writeImmediate:
		c.persist(patch)
	}
	return nil
}

func (c *Controller) persist(patch map[string]any) {
	if err := c.deps.Drafts.Save(c.key, patch); err != nil {
		logger.Warn("draft write failed", logger.String("session", c.key), logger.ErrorField(err))
	}
}

// Attach holds a local file for upload at submit time. Only the audio file's
// name is written to the draft.
func (c *Controller) Attach(kind AttachmentKind, f media.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	switch kind {
	case AttachAudio:
		c.audio = &f
		c.form.TrackFileName = f.Name
		c.persist(map[string]any{"trackFileName": f.Name})
	case AttachCover:
		c.cover = &f
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAttachment, kind)
	}
	return nil
}

// Revert discards the draft and pending attachments and resets the form to
// the session defaults.
func (c *Controller) Revert() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	c.debounce.Stop()
	if err := c.deps.Drafts.Clear(c.key); err != nil {
		logger.Warn("draft clear failed", logger.String("session", c.key), logger.ErrorField(err))
	}
	c.form = c.cfg.Defaults.clone()
	c.audio, c.cover = nil, nil
	logger.Info("editor reverted", logger.String("session", c.key))
	return nil
}

// Close writes pending debounced edits and rejects further changes.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.state != StateSubmitted {
		c.debounce.Flush()
	}
	c.debounce.Stop()
}

// Submit validates the form, uploads attachments and creates or updates the
// post. Any failure leaves the session in Editing with the form untouched.
// On success the draft is cleared and the session is finished.
func (c *Controller) Submit(ctx context.Context, action Action) (*Result, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if err := c.checkOpen(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	form := c.form.clone()
	audio, cover := c.audio, c.cover
	if verr := Validate(&form); verr != nil {
		c.mu.Unlock()
		return nil, verr
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	res, err := c.submit(ctx, action, &form, audio, cover)
	if err != nil {
		c.mu.Lock()
		c.state = StateEditing
		c.mu.Unlock()
		logger.Warn("submit failed", logger.String("session", c.key), logger.ErrorField(err))
		return nil, err
	}

	c.mu.Lock()
	c.form = form
	c.audio, c.cover = nil, nil
	c.state = StateSubmitted
	c.debounce.Stop()
	if err := c.deps.Drafts.Clear(c.key); err != nil {
		logger.Warn("draft clear failed", logger.String("session", c.key), logger.ErrorField(err))
	}
	done := c.onSubmitted
	c.mu.Unlock()

	logger.Info("post submitted",
		logger.String("session", c.key),
		logger.Int("post_id", res.PostID),
		logger.String("status", res.Status))
	if done != nil {
		done()
	}
	return res, nil
}

func (c *Controller) submit(ctx context.Context, action Action, form *Form, audio, cover *media.File) (*Result, error) {
	if verr := checkCover(cover, c.cfg.MinCoverDimension); verr != nil {
		return nil, verr
	}
	if err := c.upload(ctx, form, audio, cover); err != nil {
		return nil, err
	}

	in := composeInput(action, c.postID(), form)
	var (
		out *wordpress.MutationResult
		err error
	)
	if c.cfg.IsSubmitting {
		out, err = c.deps.Publisher.CreatePost(ctx, in)
	} else {
		out, err = c.deps.Publisher.UpdatePost(ctx, in)
	}
	if err != nil {
		return nil, &MutationError{Message: mutationMessage(err), Err: err}
	}
	return &Result{
		PostID:   out.DatabaseID,
		URI:      out.URI,
		Status:   out.Status,
		NextPath: out.NextPath(!c.cfg.IsSubmitting),
	}, nil
}

func (c *Controller) postID() string {
	if c.cfg.IsSubmitting {
		return ""
	}
	return c.cfg.PostID
}

// upload hosts the attachments concurrently and writes their URLs into form
// only when every upload succeeded.
func (c *Controller) upload(ctx context.Context, form *Form, audio, cover *media.File) error {
	if audio == nil && cover == nil {
		return nil
	}
	if c.deps.Uploader == nil {
		return &UploadError{Kind: AttachAudio, Err: errors.New("no media uploader configured")}
	}

	var audioURL, coverURL string
	g, gctx := errgroup.WithContext(ctx)
	if audio != nil {
		g.Go(func() error {
			url, err := c.deps.Uploader.Upload(gctx, *audio)
			if err != nil {
				return &UploadError{Kind: AttachAudio, Err: err}
			}
			audioURL = url
			return nil
		})
	}
	if cover != nil {
		g.Go(func() error {
			url, err := c.deps.Uploader.Upload(gctx, *cover)
			if err != nil {
				return &UploadError{Kind: AttachCover, Err: err}
			}
			coverURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if audioURL != "" {
		form.TrackFileURL = audioURL
		if form.PostOptions.AudioURL == "" {
			form.PostOptions.AudioURL = audioURL
		}
	}
	if coverURL != "" {
		form.FeaturedImage = wordpress.Image{SourceURL: coverURL, AltText: form.FeaturedImage.AltText}
		if form.FeaturedImage.AltText == "" {
			form.FeaturedImage.AltText = cover.Name
		}
	}
	return nil
}

func mutationMessage(err error) string {
	var gqlErr *wordpress.GraphQLError
	if errors.As(err, &gqlErr) {
		return gqlErr.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "The request was cancelled, please try again"
	}
	return "Could not reach the site, please try again"
}
