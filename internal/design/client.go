package design

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
)

// StatusError is a non-2xx response the client has no sentinel for.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("design service: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("design service: %d %s", e.Code, e.Message)
}

// Client calls the design service over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient returns a client for the service rooted at baseURL (for example
// "http://localhost:8080/api"). token is sent as a bearer token.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusForbidden:
			return ErrForbidden
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func designPath(id string) string {
	return "/designs/" + url.PathEscape(id)
}

// Load fetches a document by design id.
func (c *Client) Load(ctx context.Context, id string) (*document.Document, error) {
	var doc document.Document
	if err := c.do(ctx, http.MethodGet, designPath(id), "", nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save stores doc. A document without an id is created and the assigned id
// is returned; otherwise the design with doc.ID is overwritten.
func (c *Client) Save(ctx context.Context, doc *document.Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	var d Design
	if doc.ID == "" {
		err = c.do(ctx, http.MethodPost, "/designs", "application/json", bytes.NewReader(body), &d)
	} else {
		err = c.do(ctx, http.MethodPut, designPath(doc.ID), "application/json", bytes.NewReader(body), &d)
	}
	if err != nil {
		return "", err
	}
	return d.ID, nil
}

// UploadThumbnail uploads a PNG as the design's newest thumbnail.
func (c *Client) UploadThumbnail(ctx context.Context, id string, png []byte) error {
	return c.do(ctx, http.MethodPost, designPath(id)+"/thumbnail", "image/png", bytes.NewReader(png), nil)
}

// List returns the caller's designs, most recently updated first.
func (c *Client) List(ctx context.Context) ([]Design, error) {
	var designs []Design
	if err := c.do(ctx, http.MethodGet, "/designs", "", nil, &designs); err != nil {
		return nil, err
	}
	return designs, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, designPath(id), "", nil, nil)
}
