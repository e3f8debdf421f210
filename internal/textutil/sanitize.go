package textutil

import "strings"

var fileNameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeFileName replaces characters that are invalid in Windows or POSIX
// file names with underscores. Everything else, including umlauts, is kept.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}
