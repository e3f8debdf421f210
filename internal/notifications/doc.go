// Package notifications delivers run outcomes via ntfy.
//
// Events (download succeeded or failed, nothing found, no relevant match,
// season finished, run summary) are rendered into German messages by Format
// and posted to the configured ntfy topic with severity-derived tags and
// priority. Messages below notifications.min_severity are dropped. Without a
// topic NewService returns a no-op, and callers treat delivery errors as
// log-only.
package notifications
