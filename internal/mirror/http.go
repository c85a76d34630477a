package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/quotes"
)

// ErrAlreadyExists is the server's answer to a conditional create when a
// snapshot is present. InitializeIfAbsent treats it as success.
var ErrAlreadyExists = errors.New("already exists")

const quotesPath = "/v1/quotes"

// HTTP is a Remote backed by the quotes-mirror REST API
type HTTP struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTP creates a new mirror client
func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck hits the /healthz endpoint to verify server reachability.
func (c *HTTP) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	body, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp HealthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

func (c *HTTP) Push(ctx context.Context, col models.Collection) error {
	data, err := quotes.Encode(col)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPut, quotesPath, data, nil); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func (c *HTTP) FetchBytes(ctx context.Context) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, quotesPath, nil, nil)
	if err != nil {
		if errors.Is(err, ErrMissing) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return body, nil
}

func (c *HTTP) Fetch(ctx context.Context) (models.Collection, error) {
	data, err := c.FetchBytes(ctx)
	if err != nil {
		return nil, err
	}
	return quotes.Decode(data)
}

func (c *HTTP) InitializeIfAbsent(ctx context.Context, seed models.Collection) error {
	data, err := quotes.Encode(seed)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, quotesPath, data, map[string]string{"If-None-Match": "*"})
	if err != nil && !errors.Is(err, ErrAlreadyExists) {
		return fmt.Errorf("initialize remote: %w", err)
	}
	return nil
}

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (c *HTTP) do(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error apiError `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Code != "" {
			switch resp.StatusCode {
			case http.StatusNotFound:
				return nil, fmt.Errorf("%w: %s", ErrMissing, envelope.Error.Message)
			case http.StatusPreconditionFailed:
				return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, envelope.Error.Message)
			default:
				return nil, &envelope.Error
			}
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
