// Package daemonctl provides the HTTP client the CLI uses to talk to a
// running pinyinmate daemon without linking its internals.
package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
)

// ErrDaemonUnavailable reports that no daemon answered on the API address.
var ErrDaemonUnavailable = errors.New("daemon API unavailable")

// Client talks to a running pinyinmate daemon over its HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// New builds a client for the given API address. Plain host:port values are
// assumed to be http.
func New(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api address is required")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Status fetches the daemon runtime snapshot.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.get(ctx, "/api/status", nil, &status)
	return status, err
}

// LogQuery selects a page of daemon log events.
type LogQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	LessonID  string
	SourceID  string
	Component string
}

// Logs fetches log events from the daemon's stream.
func (c *Client) Logs(ctx context.Context, q LogQuery) (api.LogStreamResponse, error) {
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if q.LessonID != "" {
		values.Set("lesson", q.LessonID)
	}
	if q.SourceID != "" {
		values.Set("source", q.SourceID)
	}
	if q.Component != "" {
		values.Set("component", q.Component)
	}
	var page api.LogStreamResponse
	err := c.get(ctx, "/api/logs", values, &page)
	return page, err
}

// Sync asks the daemon to refresh one source, or every source when sourceID
// is empty.
func (c *Client) Sync(ctx context.Context, sourceID string) ([]api.SyncOutcome, error) {
	values := url.Values{}
	if strings.TrimSpace(sourceID) != "" {
		values.Set("source", strings.TrimSpace(sourceID))
	}
	var resp api.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/sync", values, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// CacheStatus fetches the prepared-lesson cache counters.
func (c *Client) CacheStatus(ctx context.Context) (api.CacheStatus, error) {
	var resp api.CacheStatusResponse
	err := c.get(ctx, "/api/cache", nil, &resp)
	return resp.Cache, err
}

// ClearCache drops every prepared lesson and returns the post-clear counters.
func (c *Client) ClearCache(ctx context.Context) (api.CacheStatus, error) {
	var resp api.CacheStatusResponse
	err := c.do(ctx, http.MethodDelete, "/api/cache", nil, &resp)
	return resp.Cache, err
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, values, out)
}

func (c *Client) do(ctx context.Context, method, path string, values url.Values, out any) error {
	if c == nil {
		return ErrDaemonUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return fmt.Errorf("daemon api: %s", payload.Error)
	}
	return fmt.Errorf("daemon api returned status %d", resp.StatusCode)
}

func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsUnavailable reports whether err indicates that no daemon is listening on
// the API address.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrDaemonUnavailable)
}
