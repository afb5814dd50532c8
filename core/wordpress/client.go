// Package wordpress talks to the site's WPGraphQL endpoint.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"trackdesk/logger"
)

// ErrNotFound is returned when a post lookup yields nothing.
var ErrNotFound = errors.New("wordpress: post not found")

// DefaultQueryRetries is how many times a failed read is silently repeated.
const DefaultQueryRetries = 3

var stripPolicy = bluemonday.StrictPolicy()

// GraphQLError is the errors array of a GraphQL response, flattened into a
// message that is safe to show to the user.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Client is a WPGraphQL client.
type Client struct {
	endpoint   string
	token      string
	retries    int
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRetries sets how many times reads are retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the GraphQL endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		retries:  DefaultQueryRetries,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTimeout sets the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do sends one GraphQL operation and decodes its data into out.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("wordpress: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("wordpress: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wordpress: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("wordpress: read response: %w", err)
	}

	var gr response
	if err := json.Unmarshal(raw, &gr); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("wordpress: status %d", resp.StatusCode)
		}
		return fmt.Errorf("wordpress: decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range gr.Errors {
			gqlErr.Messages = append(gqlErr.Messages, cleanMessage(e.Message))
		}
		return gqlErr
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("wordpress: status %d", resp.StatusCode)
	}
	if out == nil || len(gr.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("wordpress: decode data: %w", err)
	}
	return nil
}

// query runs a read, retrying silently before the last error escalates.
func (c *Client) query(ctx context.Context, name, q string, vars map[string]any, out any) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err = c.do(ctx, q, vars, out); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Debug("graphql query failed",
			logger.String("operation", name),
			logger.Int("attempt", attempt+1),
			logger.ErrorField(err))
	}
	logger.Warn("graphql query gave up", logger.String("operation", name), logger.ErrorField(err))
	return err
}

// cleanMessage strips markup from a server-provided error message.
func cleanMessage(msg string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(msg)))
}
