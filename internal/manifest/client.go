package manifest

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

	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

const (
	defaultUserAgent   = "PinyinMate/dev"
	defaultHTTPTimeout = 30 * time.Second

	// errorBodyLimit bounds how much of an error response lands in messages.
	errorBodyLimit = 4096
)

// Config describes the manifest client configuration.
type Config struct {
	UserAgent  string
	HTTPClient *http.Client
}

// Client fetches remote manifests and referenced lesson documents.
type Client struct {
	userAgent string
	http      *http.Client
}

// New creates a Client from the supplied configuration.
func New(cfg Config) *Client {
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{userAgent: userAgent, http: client}
}

// Manifest is the decoded catalog a remote source publishes.
type Manifest struct {
	Name      string
	UpdatedAt time.Time
	Entries   []Entry
}

// Entry is one manifest item: an inline lesson document or a reference to
// fetch. Exactly one of Document and URL is meaningful.
type Entry struct {
	ID       string
	URL      string
	Document json.RawMessage
}

// Inline reports whether the entry carries the lesson document itself.
func (e Entry) Inline() bool {
	return len(e.Document) > 0
}

type rawManifest struct {
	Name      string            `json:"name"`
	UpdatedAt string            `json:"updatedAt"`
	Lessons   []json.RawMessage `json:"lessons"`
}

type rawManifestEntry struct {
	ID      string          `json:"id"`
	URL     string          `json:"url"`
	Content json.RawMessage `json:"content"`
}

// FetchManifest retrieves and decodes the manifest at manifestURL. Reference
// URLs are resolved against the manifest location before returning.
func (c *Client) FetchManifest(ctx context.Context, manifestURL string) (Manifest, error) {
	if c == nil {
		return Manifest{}, errors.New("manifest: client is nil")
	}
	base, err := url.Parse(strings.TrimSpace(manifestURL))
	if err != nil {
		return Manifest{}, services.Wrap(services.ErrConfiguration, "manifest", "fetch",
			fmt.Sprintf("parse manifest url %q", manifestURL), err)
	}

	body, err := c.get(ctx, base.String())
	if err != nil {
		return Manifest{}, err
	}

	decoded, err := decodeManifest(body)
	if err != nil {
		return Manifest{}, services.Wrap(services.ErrExternalSource, "manifest", "decode",
			fmt.Sprintf("manifest at %s", base), err)
	}

	for i := range decoded.Entries {
		entry := &decoded.Entries[i]
		if entry.Inline() || entry.URL == "" {
			continue
		}
		resolved, err := base.Parse(entry.URL)
		if err != nil {
			return Manifest{}, services.Wrap(services.ErrExternalSource, "manifest", "decode",
				fmt.Sprintf("resolve lesson reference %q", entry.URL), err)
		}
		entry.URL = resolved.String()
	}
	return decoded, nil
}

// FetchLesson retrieves one referenced lesson document and returns the raw
// JSON for schema validation.
func (c *Client) FetchLesson(ctx context.Context, lessonURL string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("manifest: client is nil")
	}
	return c.get(ctx, lessonURL)
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "fetch",
			fmt.Sprintf("build request for %q", target), err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		marker := services.ErrExternalSource
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "manifest", "fetch",
			fmt.Sprintf("request %s", target), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, services.Wrap(services.ErrExternalSource, "manifest", "fetch",
			fmt.Sprintf("%s returned %s: %s", target, resp.Status, strings.TrimSpace(string(snippet))), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalSource, "manifest", "fetch",
			fmt.Sprintf("read response from %s", target), err)
	}
	return body, nil
}

// decodeManifest accepts the wrapper-object form and the bare-array form.
func decodeManifest(body []byte) (Manifest, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return Manifest{}, errors.New("empty manifest body")
	}

	var raw rawManifest
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw.Lessons); err != nil {
			return Manifest{}, fmt.Errorf("parse manifest array: %w", err)
		}
	} else {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Manifest{}, fmt.Errorf("parse manifest object: %w", err)
		}
	}

	out := Manifest{Name: raw.Name}
	if raw.UpdatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, raw.UpdatedAt); err == nil {
			out.UpdatedAt = parsed
		}
	}

	out.Entries = make([]Entry, 0, len(raw.Lessons))
	for i, element := range raw.Lessons {
		var probe rawManifestEntry
		if err := json.Unmarshal(element, &probe); err != nil {
			return Manifest{}, fmt.Errorf("parse manifest entry %d: %w", i, err)
		}
		entry := Entry{ID: probe.ID}
		if len(probe.Content) > 0 || probe.URL == "" {
			entry.Document = element
		} else {
			entry.URL = probe.URL
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}
