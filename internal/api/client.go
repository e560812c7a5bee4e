package api

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

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/pkg/models"
)

// ErrRejected is returned when the server refuses a progress update
var ErrRejected = errors.New("update rejected")

// Client is the HTTP client for the linga book server
type Client struct {
	baseURL    string
	token      string
	device     string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the server address
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken updates the authentication token
func (c *Client) SetToken(token string) {
	c.token = token
}

// SetDevice sets the device id sent with every request
func (c *Client) SetDevice(id string) {
	c.device = id
}

// resolve turns a server path or absolute URL into a request URL
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

// request makes an HTTP request to the API
func (c *Client) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.device != "" {
		req.Header.Set(models.DeviceHeader, c.device)
	}

	return c.httpClient.Do(req)
}

// parseResponse reads and unmarshals the response body
func parseResponse[T any](resp *http.Response) (T, error) {
	var result T
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, err
	}

	if resp.StatusCode >= 400 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
			return result, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return result, fmt.Errorf("%s", errResp.Error)
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return result, err
	}

	return result, nil
}

// Book methods

// ListBooks returns the books available on the server
func (c *Client) ListBooks(ctx context.Context) ([]models.BookSummary, error) {
	resp, err := c.request(ctx, http.MethodGet, "/api/books", nil)
	if err != nil {
		return nil, err
	}
	result, err := parseResponse[models.BooksResponse](resp)
	if err != nil {
		return nil, err
	}
	return result.Books, nil
}

// GetBook returns the descriptor of a single book
func (c *Client) GetBook(ctx context.Context, id string) (models.BookDescriptor, error) {
	resp, err := c.request(ctx, http.MethodGet, "/api/books/"+url.PathEscape(id), nil)
	if err != nil {
		return models.BookDescriptor{}, err
	}
	return parseResponse[models.BookDescriptor](resp)
}

// PageImage downloads the image of a page
func (c *Client) PageImage(ctx context.Context, bookID string, page comic.Page) ([]byte, error) {
	path := page.URL
	if path == "" {
		path = fmt.Sprintf("/api/books/%s/pages/%d", url.PathEscape(bookID), page.Position)
	}
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to load page %d: HTTP %d: %s", page.Position, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}

// Progress methods

// UpdateProgress stores the last page and reading modes of a book
func (c *Client) UpdateProgress(ctx context.Context, update models.ProgressUpdate) error {
	resp, err := c.request(ctx, http.MethodPost, "/book/update/page", update)
	if err != nil {
		return err
	}
	result, err := parseResponse[models.UpdateResponse](resp)
	if err != nil {
		return err
	}
	if !result.Success {
		if result.Error == "" {
			return ErrRejected
		}
		return fmt.Errorf("%w: %s", ErrRejected, result.Error)
	}
	return nil
}

// SyncProgress implements comic.ProgressSyncer
func (c *Client) SyncProgress(ctx context.Context, p comic.Progress) error {
	return c.UpdateProgress(ctx, p.Update())
}

// Health check

// Health checks if the server is available
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.request(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

var _ comic.ProgressSyncer = (*Client)(nil)
