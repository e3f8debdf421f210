package notifications

import (
	"fmt"
	"strings"
	"time"
)

// Format renders an event as a German-language message. The boolean is
// false for unknown events.
func Format(event Event, p Payload) (Message, bool) {
	title := p.str("title")
	icon := "📽️"
	if p.flag("series") {
		icon = "📺"
	}

	var b strings.Builder
	var msg Message
	switch event {
	case EventDownloadSucceeded:
		noun := "Film"
		if p.flag("series") {
			noun = "Episode"
		}
		fmt.Fprintf(&b, "%s erfolgreich heruntergeladen:\n\n%s %s\n", noun, icon, title)
		if path := p.str("path"); path != "" {
			fmt.Fprintf(&b, "💾 %s\n", path)
		}
		msg = Message{Title: "Download erfolgreich", Severity: SeveritySuccess, Tags: []string{"download"}}
	case EventDownloadFailed:
		fmt.Fprintf(&b, "Download fehlgeschlagen:\n\n%s %s\n", icon, title)
		if reason := p.str("error"); reason != "" {
			fmt.Fprintf(&b, "⚠️ %s\n", reason)
		}
		msg = Message{Title: "Download fehlgeschlagen", Severity: SeverityError, Tags: []string{"download"}}
	case EventNotFound:
		fmt.Fprintf(&b, "Keine Ergebnisse in der Mediathek gefunden:\n\n%s %s\n", icon, title)
		msgTitle := "Film nicht gefunden"
		if p.flag("series") {
			msgTitle = "Serie nicht gefunden"
		}
		msg = Message{Title: msgTitle, Severity: SeverityWarning, Tags: []string{"search"}}
	case EventNoRelevantMatch:
		fmt.Fprintf(&b, "Keine relevante Übereinstimmung gefunden:\n\n%s %s\n", icon, title)
		if best := p.str("best"); best != "" {
			fmt.Fprintf(&b, "🔍 Bestes Ergebnis: %s (Ähnlichkeit %.2f)\n", best, p.num("similarity"))
		}
		msg = Message{Title: "Keine relevante Übereinstimmung", Severity: SeverityWarning, Tags: []string{"search"}}
	case EventSeasonCompleted:
		downloaded, total, failed := int(p.num("downloaded")), int(p.num("total")), int(p.num("failed"))
		fmt.Fprintf(&b, "Staffel-Download abgeschlossen:\n\n📺 %s\n✅ %d/%d Episoden erfolgreich\n", title, downloaded, total)
		severity := SeveritySuccess
		if failed > 0 {
			fmt.Fprintf(&b, "❌ %d Episoden fehlgeschlagen\n", failed)
			severity = SeverityWarning
		}
		msg = Message{Title: "Staffel-Download abgeschlossen", Severity: severity, Tags: []string{"download", "series"}}
	case EventRunCompleted:
		fmt.Fprintf(&b, "Lauf abgeschlossen:\n\n✅ %d heruntergeladen\n🔍 %d nicht gefunden\n❌ %d fehlgeschlagen\n⏭️ %d übersprungen\n",
			int(p.num("downloaded")), int(p.num("not_found")), int(p.num("failed")), int(p.num("skipped")))
		if d, ok := p["duration"].(time.Duration); ok {
			fmt.Fprintf(&b, "⏱️ %s\n", d.Round(time.Second))
		}
		severity := SeverityInfo
		if p.num("failed") > 0 {
			severity = SeverityWarning
		}
		msg = Message{Title: "Perlentaucher-Lauf abgeschlossen", Severity: severity, Tags: []string{"summary"}}
	case EventTest:
		b.WriteString("🧪 Test der Benachrichtigungen\n")
		msg = Message{Title: "Perlentaucher - Test", Severity: SeverityInfo, Tags: []string{"test"}}
	default:
		return Message{}, false
	}
	if link := p.str("link"); link != "" {
		fmt.Fprintf(&b, "\n🔗 Blog-Eintrag: %s", link)
	}
	msg.Body = strings.TrimRight(b.String(), "\n")
	return msg, true
}

func (p Payload) str(key string) string {
	if v, ok := p[key]; ok && v != nil {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

func (p Payload) flag(key string) bool {
	v, _ := p[key].(bool)
	return v
}

func (p Payload) num(key string) float64 {
	switch v := p[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}
