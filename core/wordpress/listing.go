package wordpress

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// DefaultPageSize is how many posts one dashboard page loads.
const DefaultPageSize = 20

// Tab is a dashboard listing tab.
type Tab string

const (
	TabPublished Tab = "published"
	TabDraft     Tab = "draft"
	TabPending   Tab = "pending"
	TabTrash     Tab = "trash"
	TabSchedule  Tab = "schedule"
)

// Status maps the tab onto the post status it lists. Unknown tabs list
// published posts.
func (t Tab) Status() PostStatus {
	switch t {
	case TabDraft:
		return PostStatusDraft
	case TabPending:
		return PostStatusPending
	case TabTrash:
		return PostStatusTrash
	case TabSchedule:
		return PostStatusFuture
	default:
		return PostStatusPublish
	}
}

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(s); t {
	case TabPublished, TabDraft, TabPending, TabTrash, TabSchedule:
		return t, nil
	case "":
		return TabPublished, nil
	default:
		return "", fmt.Errorf("wordpress: unknown tab %q", s)
	}
}

// ListOptions selects one page of the viewer's posts. CategoryIn narrows the
// listing to posts in any of the given categories.
type ListOptions struct {
	Tab        Tab
	First      int
	After      string
	CategoryIn []int
}

// PostPage is one page of a cursor-paginated listing.
type PostPage struct {
	Posts       []Post `json:"posts"`
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// ListViewerPosts lists the authenticated viewer's posts. Failures are retried.
func (c *Client) ListViewerPosts(ctx context.Context, opts ListOptions) (*PostPage, error) {
	if opts.First <= 0 {
		opts.First = DefaultPageSize
	}
	vars := map[string]any{
		"first":  opts.First,
		"status": opts.Tab.Status(),
	}
	if opts.After != "" {
		vars["after"] = opts.After
	}
	if len(opts.CategoryIn) > 0 {
		ids := make([]string, 0, len(opts.CategoryIn))
		for _, id := range opts.CategoryIn {
			ids = append(ids, strconv.Itoa(id))
		}
		vars["categoryIn"] = ids
	}

	var out struct {
		Viewer *struct {
			Posts struct {
				Nodes    []Post `json:"nodes"`
				PageInfo struct {
					EndCursor   string `json:"endCursor"`
					HasNextPage bool   `json:"hasNextPage"`
				} `json:"pageInfo"`
			} `json:"posts"`
		} `json:"viewer"`
	}
	if err := c.query(ctx, "GetViewerPostsByStatus", viewerPostsQuery, vars, &out); err != nil {
		return nil, err
	}
	if out.Viewer == nil {
		return &PostPage{}, nil
	}
	return &PostPage{
		Posts:       out.Viewer.Posts.Nodes,
		EndCursor:   out.Viewer.Posts.PageInfo.EndCursor,
		HasNextPage: out.Viewer.Posts.PageInfo.HasNextPage,
	}, nil
}

// PostLister is the listing half of Client.
type PostLister interface {
	ListViewerPosts(ctx context.Context, opts ListOptions) (*PostPage, error)
}

// Pager accumulates pages of one listing the way "load more" does: every call
// to More appends the next page and advances the cursor.
type Pager struct {
	lister PostLister
	opts   ListOptions

	mu      sync.Mutex
	posts   []Post
	cursor  string
	hasNext bool
	started bool
}

// NewPager creates a pager over the listing selected by opts. opts.After is
// ignored; the pager starts from the first page.
func NewPager(lister PostLister, opts ListOptions) *Pager {
	opts.After = ""
	return &Pager{lister: lister, opts: opts, hasNext: true}
}

// More loads the next page and returns everything loaded so far. Once the
// listing is exhausted it returns the accumulated posts without a request.
func (p *Pager) More(ctx context.Context) ([]Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started && !p.hasNext {
		return p.posts, nil
	}
	opts := p.opts
	opts.After = p.cursor
	page, err := p.lister.ListViewerPosts(ctx, opts)
	if err != nil {
		return p.posts, err
	}
	p.started = true
	p.posts = append(p.posts, page.Posts...)
	p.cursor = page.EndCursor
	p.hasNext = page.HasNextPage
	return p.posts, nil
}

// All pages through the listing until it is exhausted or a page comes back
// empty.
func (p *Pager) All(ctx context.Context) ([]Post, error) {
	loaded := -1
	for {
		posts, err := p.More(ctx)
		if err != nil || !p.HasMore() || len(posts) == loaded {
			return posts, err
		}
		loaded = len(posts)
	}
}

// HasMore reports whether another page may exist.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.started || p.hasNext
}
