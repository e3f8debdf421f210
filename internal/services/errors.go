package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTitleExtraction marks feed entries whose headline carries no quoted title.
	ErrTitleExtraction = errors.New("title extraction failed")
	// ErrNotFound marks searches with no usable catalog candidate.
	ErrNotFound = errors.New("not found")
	// ErrNetwork marks transient transport failures (timeouts, refused connections, 5xx).
	ErrNetwork = errors.New("network error")
	// ErrDownloadFailed marks failed transfers; partial files are already removed.
	ErrDownloadFailed = errors.New("download failed")
	// ErrCancelled marks user-initiated cancellation of a download task.
	ErrCancelled      = errors.New("cancelled")
	ErrConfiguration  = errors.New("configuration error")
	ErrUnwritableRoot = errors.New("download root not writable")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later outcome classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Outcome statuses persisted by the state store. They mirror the state file
// vocabulary and must not be renamed.
const (
	StatusDownloadSuccess       = "download_success"
	StatusDownloadFailed        = "download_failed"
	StatusNotFound              = "not_found"
	StatusTitleExtractionFailed = "title_extraction_failed"
	StatusSkipped               = "skipped"
)

// OutcomeStatus maps a per-entry error to the record status that should be
// persisted for it. The boolean is false when nothing should be recorded:
// a nil error, cancellation, and search-side network exhaustion all leave
// the entry eligible for the next run.
func OutcomeStatus(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, ErrCancelled):
		return "", false
	case errors.Is(err, ErrTitleExtraction):
		return StatusTitleExtractionFailed, true
	case errors.Is(err, ErrNotFound):
		return StatusNotFound, true
	case errors.Is(err, ErrDownloadFailed):
		return StatusDownloadFailed, true
	case errors.Is(err, ErrNetwork):
		return "", false
	default:
		return StatusDownloadFailed, true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
