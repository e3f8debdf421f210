package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"perlentaucher/internal/config"
	"perlentaucher/internal/notifications"
)

type captured struct {
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func ntfyServer(t *testing.T, c *captured, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		c.calls++
		c.title = r.Header.Get("Title")
		c.tags = r.Header.Get("Tags")
		c.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		c.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventDownloadSucceeded, notifications.Payload{"title": "Inception"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     []string
		expectTags     string
		expectPriority string
	}{
		{
			name:           "movie downloaded",
			event:          notifications.EventDownloadSucceeded,
			payload:        notifications.Payload{"title": "Inception", "path": "/filme/Inception (2010).mp4", "link": "https://blog/x"},
			expectTitle:    "Download erfolgreich",
			expectBody:     []string{"Film erfolgreich heruntergeladen", "📽️ Inception", "💾 /filme/Inception (2010).mp4", "🔗 Blog-Eintrag: https://blog/x"},
			expectTags:     "perlentaucher,white_check_mark,download",
			expectPriority: "",
		},
		{
			name:           "download failed",
			event:          notifications.EventDownloadFailed,
			payload:        notifications.Payload{"title": "Babylon Berlin", "series": true, "error": "unexpected status 404"},
			expectTitle:    "Download fehlgeschlagen",
			expectBody:     []string{"📺 Babylon Berlin", "unexpected status 404"},
			expectTags:     "perlentaucher,x,download",
			expectPriority: "high",
		},
		{
			name:        "series not found",
			event:       notifications.EventNotFound,
			payload:     notifications.Payload{"title": "Dark", "series": true},
			expectTitle: "Serie nicht gefunden",
			expectBody:  []string{"Keine Ergebnisse", "📺 Dark"},
			expectTags:  "perlentaucher,warning,search",
		},
		{
			name:        "no relevant match",
			event:       notifications.EventNoRelevantMatch,
			payload:     notifications.Payload{"title": "Alpha", "best": "Omega", "similarity": 0.15},
			expectTitle: "Keine relevante Übereinstimmung",
			expectBody:  []string{"Bestes Ergebnis: Omega (Ähnlichkeit 0.15)"},
			expectTags:  "perlentaucher,warning,search",
		},
		{
			name:        "season with failures",
			event:       notifications.EventSeasonCompleted,
			payload:     notifications.Payload{"title": "Serie", "downloaded": 2, "total": 3, "failed": 1},
			expectTitle: "Staffel-Download abgeschlossen",
			expectBody:  []string{"✅ 2/3 Episoden erfolgreich", "❌ 1 Episoden fehlgeschlagen"},
			expectTags:  "perlentaucher,warning,download,series",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var c captured
			server := ntfyServer(t, &c, http.StatusOK)

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if c.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, c.title)
			}
			for _, want := range tc.expectBody {
				if !strings.Contains(c.body, want) {
					t.Fatalf("body %q missing %q", c.body, want)
				}
			}
			if c.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, c.tags)
			}
			if c.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, c.priority)
			}
		})
	}
}

func TestMinSeverityFilters(t *testing.T) {
	var c captured
	server := ntfyServer(t, &c, http.StatusOK)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.MinSeverity = "warning"
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	_ = svc.Publish(ctx, notifications.EventDownloadSucceeded, notifications.Payload{"title": "x"})
	_ = svc.Publish(ctx, notifications.EventTest, nil)
	if c.calls != 0 {
		t.Fatalf("low-severity messages were sent: %d", c.calls)
	}
	_ = svc.Publish(ctx, notifications.EventDownloadFailed, notifications.Payload{"title": "x"})
	if c.calls != 1 {
		t.Fatalf("error message not sent")
	}
}

func TestNtfyErrorStatus(t *testing.T) {
	var c captured
	server := ntfyServer(t, &c, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	err := svc.Notify(context.Background(), notifications.Message{Title: "t", Body: "b", Severity: notifications.SeverityError})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	if _, ok := notifications.Format("bogus", nil); ok {
		t.Fatal("unknown event formatted")
	}
	var c captured
	server := ntfyServer(t, &c, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), "bogus", nil); err != nil || c.calls != 0 {
		t.Fatalf("err = %v, calls = %d", err, c.calls)
	}
}
