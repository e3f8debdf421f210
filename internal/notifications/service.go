package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"perlentaucher/internal/config"
)

const userAgent = "Perlentaucher-Go/1.0"

// Severity orders notifications; messages below the configured minimum are dropped.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) rank() int {
	switch s {
	case SeveritySuccess:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	default:
		return 0
	}
}

// Message is one (title, body, severity) notification.
type Message struct {
	Title    string
	Body     string
	Severity Severity
	Tags     []string
}

// Event names a workflow outcome worth telling the user about.
type Event string

const (
	EventDownloadSucceeded Event = "download_succeeded"
	EventDownloadFailed    Event = "download_failed"
	EventNotFound          Event = "not_found"
	EventNoRelevantMatch   Event = "no_relevant_match"
	EventSeasonCompleted   Event = "season_completed"
	EventRunCompleted      Event = "run_completed"
	EventTest              Event = "test"
)

// Payload carries event fields. Unknown keys are ignored.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	Notify(ctx context.Context, msg Message) error
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

	minSeverity := Severity(strings.ToLower(strings.TrimSpace(cfg.Notifications.MinSeverity)))
	if minSeverity == "" {
		minSeverity = SeverityInfo
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		min:      minSeverity,
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	min      Severity
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := Format(event, payload)
	if !ok {
		return nil
	}
	return n.Notify(ctx, msg)
}

func (n *ntfyService) Notify(ctx context.Context, msg Message) error {
	if n == nil || n.client == nil {
		return nil
	}
	if msg.Severity.rank() < n.min.rank() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	tags := append([]string{"perlentaucher"}, severityTag(msg.Severity))
	tags = append(tags, msg.Tags...)
	req.Header.Set("Tags", strings.Join(tags, ","))
	if priority := severityPriority(msg.Severity); priority != "default" {
		req.Header.Set("Priority", priority)
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

func severityTag(s Severity) string {
	switch s {
	case SeveritySuccess:
		return "white_check_mark"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "x"
	default:
		return "information_source"
	}
}

func severityPriority(s Severity) string {
	switch s {
	case SeverityError:
		return "high"
	case SeverityInfo:
		return "low"
	default:
		return "default"
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
func (noopService) Notify(context.Context, Message) error         { return nil }
