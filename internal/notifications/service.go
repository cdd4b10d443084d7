package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
)

const userAgent = "PinyinMate/0.1.0"

// Event names one notifiable library milestone.
type Event string

const (
	EventSyncCompleted Event = "sync_completed"
	EventSyncFailed    Event = "sync_failed"
	EventSyncSummary   Event = "sync_summary"
	EventError         Event = "error"
	EventTest          Event = "test"
)

// Payload carries the formatting inputs for one event.
type Payload map[string]string

func (p Payload) get(key string) string {
	return strings.TrimSpace(p[key])
}

// Service defines the notification surface exposed to library components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		settings:    cfg.Notifications,
		dedupWindow: time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		recent:      make(map[string]time.Time),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	settings config.Notifications

	dedupWindow time.Duration
	mu          sync.Mutex
	recent      map[string]time.Time
}

// Publish formats and sends one event. Events whose category is disabled in
// the configuration are dropped silently, as are repeats of an identical
// message inside the dedup window.
func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if data == nil {
		data = Payload{}
	}
	formatted, enabled := n.format(event, data)
	if !enabled {
		return nil
	}
	if n.suppressed(formatted) {
		return nil
	}
	return n.send(ctx, formatted)
}

func (n *ntfyService) format(event Event, data Payload) (payload, bool) {
	switch event {
	case EventSyncCompleted:
		return payload{
			title:   "PinyinMate - Sync Complete",
			message: fmt.Sprintf("📚 Synced %s: %s lessons in %s", data.get("sourceId"), data.get("lessons"), data.get("duration")),
			tags:    []string{"pinyinmate", "sync", "completed"},
		}, n.settings.SyncCompleted
	case EventSyncFailed:
		return payload{
			title:    "PinyinMate - Sync Failed",
			message:  fmt.Sprintf("❌ Sync failed for %s: %s", data.get("sourceId"), data.get("reason")),
			tags:     []string{"pinyinmate", "sync", "failed"},
			priority: "high",
		}, n.settings.SyncFailures
	case EventSyncSummary:
		failed := data.get("failed")
		if failed != "" && failed != "0" {
			return payload{
				title:    "PinyinMate - Sync Summary (with failures)",
				message:  fmt.Sprintf("⚠️ Sync finished: %s succeeded, %s failed, %s lessons in %s", data.get("succeeded"), failed, data.get("lessons"), data.get("duration")),
				tags:     []string{"pinyinmate", "sync", "summary"},
				priority: "high",
			}, n.settings.SyncFailures || n.settings.SyncCompleted
		}
		return payload{
			title:   "PinyinMate - Sync Summary",
			message: fmt.Sprintf("✅ Sync finished: %s sources, %s lessons in %s", data.get("succeeded"), data.get("lessons"), data.get("duration")),
			tags:    []string{"pinyinmate", "sync", "summary"},
		}, n.settings.SyncCompleted
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if contextLabel := data.get("context"); contextLabel != "" {
			builder.WriteString(" with ")
			builder.WriteString(contextLabel)
		}
		builder.WriteString(": ")
		if msg := data.get("error"); msg != "" {
			builder.WriteString(msg)
		} else {
			builder.WriteString("unknown")
		}
		return payload{
			title:    "PinyinMate - Error",
			message:  builder.String(),
			tags:     []string{"pinyinmate", "error", "alert"},
			priority: "high",
		}, n.settings.Errors
	case EventTest:
		return payload{
			title:    "PinyinMate - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"pinyinmate", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

// suppressed reports whether an identical message was sent inside the dedup
// window, recording this one otherwise.
func (n *ntfyService) suppressed(data payload) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	key := data.title + "\n" + data.message
	now := time.Now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if last, seen := n.recent[key]; seen && now.Sub(last) < n.dedupWindow {
		return true
	}
	for old, at := range n.recent {
		if now.Sub(at) >= n.dedupWindow {
			delete(n.recent, old)
		}
	}
	n.recent[key] = now
	return false
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
