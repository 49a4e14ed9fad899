// Package formpost delivers lead submissions to the form backend as URL-encoded posts.
package formpost

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"merchanthaus.com/web/internal/forms"
)

const (
	defaultTimeout = 15 * time.Second

	// FormNameField is the discriminator the backend uses to route a post to its form.
	FormNameField = "form-name"
	// HoneypotField is left empty by people and filled by most bots.
	HoneypotField = forms.HoneypotField

	contentType = "application/x-www-form-urlencoded"
)

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("formpost: backend status %d", e.StatusCode)
	}
	return fmt.Sprintf("formpost: backend status %d: %s", e.StatusCode, e.Body)
}

// Client posts submissions to a fixed endpoint. It implements forms.Transport.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds a single delivery.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient targets the backend root at baseURL, e.g. "https://merchanthaus.io".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("formpost: parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("formpost: endpoint %q must be absolute", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	c := &Client{
		endpoint: u.String(),
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the resolved target URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Deliver sends one POST carrying sub. Any 2xx answer is success; transport errors and
// every other status are returned unchanged, without retrying.
func (c *Client) Deliver(ctx context.Context, schema *forms.Schema, sub forms.Submission) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(Encode(schema, sub)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/html, text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: drainError(resp.Body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Encode serializes sub in a stable order: the form-name discriminator, then each
// schema field in declaration order (repeated for multi-value fields, empty when
// absent), then the honeypot as posted. url.Values.Encode is not used since it sorts keys.
func Encode(schema *forms.Schema, sub forms.Submission) string {
	var b strings.Builder
	write := func(k, v string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}

	write(FormNameField, schema.Name)
	for _, f := range schema.Fields {
		values := sub[f.Name]
		if len(values) == 0 {
			write(f.Name, "")
			continue
		}
		if !f.IsMulti() {
			values = values[:1]
		}
		for _, v := range values {
			write(f.Name, v)
		}
	}
	write(HoneypotField, sub.Get(HoneypotField))
	return b.String()
}

func drainError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
