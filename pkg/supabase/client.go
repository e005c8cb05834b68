// Package supabase is a small PostgREST and GoTrue client for Supabase projects
package supabase

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
)

// ErrNotFound is returned by Single when no row matches
var ErrNotFound = errors.New("supabase: no rows")

// Error is a non-2xx answer from Supabase
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase error (status %d): %s", e.StatusCode, e.Body)
}

// Client represents a Supabase client
type Client struct {
	URL        string
	ServiceKey string
	HTTPClient *http.Client
}

// NewClient creates a new Supabase client
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		URL:        strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Filter is a set of PostgREST query parameters, e.g. {"user_id": "eq.u1", "order": "entry_date.desc"}
type Filter map[string]string

// Eq builds an equality filter value
func Eq(v string) string { return "eq." + v }

// Lt builds a less-than filter value
func Lt(v string) string { return "lt." + v }

func (c *Client) do(ctx context.Context, method, path string, query Filter, body any, prefer string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, reader)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := url.Values{}
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// Select reads rows from a table into out, which must be a pointer to a slice
func (c *Client) Select(ctx context.Context, table string, query Filter, out any) error {
	body, err := c.do(ctx, http.MethodGet, "/rest/v1/"+table, query, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}

// Single reads exactly one row into out, returning ErrNotFound when none match
func (c *Client) Single(ctx context.Context, table string, query Filter, out any) error {
	var rows []json.RawMessage
	if err := c.Select(ctx, table, query, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("failed to decode %s row: %w", table, err)
	}
	return nil
}

// Insert inserts one row or a slice of rows
func (c *Client) Insert(ctx context.Context, table string, data any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/rest/v1/"+table, nil, data, "return=representation")
}

// Upsert inserts or updates rows. onConflict names the unique columns,
// e.g. "user_id,entry_date".
func (c *Client) Upsert(ctx context.Context, table string, data any, onConflict string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/rest/v1/"+table, Filter{"on_conflict": onConflict}, data,
		"return=representation,resolution=merge-duplicates")
}

// UpdateWhere patches rows matching query
func (c *Client) UpdateWhere(ctx context.Context, table string, query Filter, data any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, "/rest/v1/"+table, query, data, "return=representation")
}

// DeleteWhere deletes rows matching query
func (c *Client) DeleteWhere(ctx context.Context, table string, query Filter) error {
	_, err := c.do(ctx, http.MethodDelete, "/rest/v1/"+table, query, nil, "")
	return err
}

// DeleteReturning deletes rows matching query and returns the deleted rows
func (c *Client) DeleteReturning(ctx context.Context, table string, query Filter) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, "/rest/v1/"+table, query, nil, "return=representation")
}

// RPC calls a Postgres function exposed by PostgREST. Functions run in a
// single transaction.
func (c *Client) RPC(ctx context.Context, function string, params any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+function, nil, params, "")
}

// VerifyToken resolves a user access token to its user
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("token verification failed: %w", &Error{StatusCode: resp.StatusCode, Body: string(body)})
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// User represents a Supabase user
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
