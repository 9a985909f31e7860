// Package remote is the HTTP binding of the ledger service's four CRUD
// operations. It is the only component in the state engine that touches
// the network; everything it returns is either a canonical record from
// the service or an error carrying a human-readable message.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finboard/internal/core"
)

// API is the contract the mutation coordinator consumes. Implementations
// must return canonical, service-acknowledged records.
type API interface {
	ListAll(ctx context.Context) ([]core.Transaction, error)
	Create(ctx context.Context, d core.Draft) (core.Transaction, error)
	Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error)
	// Delete returns the id the service confirmed it removed.
	Delete(ctx context.Context, id string) (string, error)
}

// Error is a failed call against the ledger service. Message prefers
// the service-supplied text over a generic transport description, since
// callers only display it.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Client talks to the ledger service's JSON API.
type Client struct {
	baseURL string
	hc      *http.Client
}

var _ API = (*Client)(nil)

// NewClient returns a client for the service at baseURL
// (e.g. "http://localhost:8081").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the service's uniform response shape:
// {success, count, data} on success, {success:false, message} on failure.
type envelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) ListAll(ctx context.Context) ([]core.Transaction, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/transactions", nil)
	if err != nil {
		return nil, err
	}
	var items []core.Transaction
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return items, nil
}

func (c *Client) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/transactions", d)
	if err != nil {
		return core.Transaction{}, err
	}
	return decodeRecord(env.Data)
}

func (c *Client) Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	env, err := c.do(ctx, http.MethodPut, "/api/transactions/"+id, d)
	if err != nil {
		return core.Transaction{}, err
	}
	return decodeRecord(env.Data)
}

func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	env, err := c.do(ctx, http.MethodDelete, "/api/transactions/"+id, nil)
	if err != nil {
		return "", err
	}
	var conf struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &conf); err != nil {
		return "", fmt.Errorf("decode delete confirmation: %w", err)
	}
	return conf.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ledger service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		msg := ""
		if decodeErr == nil {
			msg = env.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("ledger service returned status %d", resp.StatusCode)
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &env, nil
}

func decodeRecord(data json.RawMessage) (core.Transaction, error) {
	var t core.Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return t, nil
}
