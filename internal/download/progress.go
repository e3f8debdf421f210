package download

import "fmt"

const bytesPerMB = 1024 * 1024

// Progress is one streaming progress event. Total is -1 and Indeterminate
// is set when the server did not announce a length.
type Progress struct {
	Label         string
	Downloaded    int64
	Total         int64
	Percent       float64
	Indeterminate bool
}

// Text renders "X.X MB / Y.Y MB", or "X.X MB" when the total is unknown.
func (p Progress) Text() string {
	if p.Indeterminate {
		return fmt.Sprintf("%.1f MB", float64(p.Downloaded)/bytesPerMB)
	}
	return fmt.Sprintf("%.1f MB / %.1f MB", float64(p.Downloaded)/bytesPerMB, float64(p.Total)/bytesPerMB)
}

// ProgressFunc receives progress events. It is called from download goroutines.
type ProgressFunc func(Progress)

func newProgress(label string, downloaded, total int64) Progress {
	p := Progress{Label: label, Downloaded: downloaded, Total: total}
	if total <= 0 {
		p.Total = -1
		p.Indeterminate = true
		return p
	}
	p.Percent = float64(downloaded) / float64(total) * 100
	return p
}
