// Package wordpress implements the subset of the WordPress REST API used to publish worksheet rows as posts.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/context/ctxhttp"
	"golang.org/x/oauth2"
)

const StatusPublish = "publish"

var (
	ErrHTTPStatus    = errors.New("unexpected HTTP status")
	ErrMissingPostID = errors.New("response missing post ID")
)

// Post is the title, content and status of a WordPress post. The ID is assigned by WordPress and is not
// included in the request body.
type Post struct {
	ID      string `json:"-"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%v: %v %v (%v)", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}

	return fmt.Sprintf("%v: %v %v", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrHTTPStatus
}

// Client creates and updates posts at a WordPress posts endpoint e.g.
// https://example.com/wp-json/wp/v2/posts.
type Client struct {
	endpoint string
	client   *http.Client
}

type Option func(*options)

type options struct {
	client  *http.Client
	timeout time.Duration
}

// WithHTTPClient sets the underlying HTTP client. The bearer token is layered on top of the client transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithTimeout sets the timeout for each request. A zero timeout means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// NewClient returns a client that authenticates every request with 'Authorization: Bearer <token>'.
func NewClient(endpoint, token string, opts ...Option) *Client {
	o := options{
		client: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, o.client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	if o.timeout > 0 {
		c := *client
		c.Timeout = o.timeout
		client = &c
	}

	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   client,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Create publishes a new post and returns it with the ID assigned by WordPress.
func (c *Client) Create(ctx context.Context, post Post) (Post, error) {
	response, err := c.post(ctx, c.endpoint, post)
	if err != nil {
		return post, err
	}

	reply := struct {
		ID json.Number `json:"id"`
	}{}

	if err := json.Unmarshal(response, &reply); err != nil {
		return post, fmt.Errorf("invalid response from %v (%w)", c.endpoint, err)
	} else if reply.ID == "" {
		return post, fmt.Errorf("%v: %w", c.endpoint, ErrMissingPostID)
	}

	post.ID = reply.ID.String()

	return post, nil
}

// Update replaces the title, content and status of an existing post. The response body is ignored.
func (c *Client) Update(ctx context.Context, post Post) error {
	if strings.TrimSpace(post.ID) == "" {
		return ErrMissingPostID
	}

	_, err := c.post(ctx, c.endpoint+"/"+url.PathEscape(post.ID), post)

	return err
}

func (c *Client) post(ctx context.Context, uri string, post Post) ([]byte, error) {
	var b bytes.Buffer

	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(post); err != nil {
		return nil, err
	}

	rq, err := http.NewRequest(http.MethodPost, uri, bytes.NewReader(bytes.TrimSpace(b.Bytes())))
	if err != nil {
		return nil, err
	}

	rq.Header.Set("Content-Type", "application/json")
	rq.Header.Set("Accept", "application/json")

	response, err := ctxhttp.Do(ctx, c.client, rq)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &StatusError{
			URL:        uri,
			StatusCode: response.StatusCode,
			Body:       truncate(string(body), 256),
		}
	}

	return body, nil
}

func truncate(s string, N int) string {
	s = strings.TrimSpace(s)
	if len(s) > N {
		return s[:N] + "..."
	}

	return s
}
