package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPClient habla con un nodo de ledger remoto por JSON sobre HTTP.
// Cualquier error de red o status 5xx se mapea a ErrUnavailable para que
// el mirror degrade en lugar de fallar el write relacional.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient crea el cliente. timeout acota la espera de confirmación.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type txResponse struct {
	TxRef string `json:"tx_ref"`
	Error string `json:"error,omitempty"`
}

type submitRequest struct {
	ID     int64  `json:"id"`
	Digest string `json:"digest,omitempty"`
}

func (c *HTTPClient) submit(ctx context.Context, method, path string, body any) (string, error) {
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var tr txResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil && resp.StatusCode < 500 {
		return "", fmt.Errorf("ledger: bad response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		if tr.Error == "deleted" {
			return "", ErrDeleted
		}
		return "", ErrExists
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("ledger: status %d: %s", resp.StatusCode, tr.Error)
	}
	return tr.TxRef, nil
}

// Add implementa Client.
func (c *HTTPClient) Add(ctx context.Context, id int64, digest string) (string, error) {
	return c.submit(ctx, http.MethodPost, "/ledger/records", submitRequest{ID: id, Digest: digest})
}

// Update implementa Client.
func (c *HTTPClient) Update(ctx context.Context, id int64, digest string) (string, error) {
	return c.submit(ctx, http.MethodPut, fmt.Sprintf("/ledger/records/%d", id), submitRequest{ID: id, Digest: digest})
}

// Delete implementa Client.
func (c *HTTPClient) Delete(ctx context.Context, id int64) (string, error) {
	return c.submit(ctx, http.MethodDelete, fmt.Sprintf("/ledger/records/%d", id), nil)
}

// Get implementa Client.
func (c *HTTPClient) Get(ctx context.Context, id int64) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/ledger/records/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var e Entry
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return nil, fmt.Errorf("ledger: bad response: %w", err)
	}
	return &e, nil
}

// ListByOwner implementa Client.
func (c *HTTPClient) ListByOwner(ctx context.Context, owner string) ([]int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ledger/owners/"+owner, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var out struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ledger: bad response: %w", err)
	}
	return out.IDs, nil
}
