package main

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"perlentaucher/internal/download"
)

// progressDisplay renders one bar per active transfer on a terminal. It is
// inert when the writer is not a terminal; the download logger reports
// sampled progress instead.
type progressDisplay struct {
	out     io.Writer
	enabled bool

	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newProgressDisplay(out io.Writer, wanted bool) *progressDisplay {
	return &progressDisplay{
		out:     out,
		enabled: wanted && isTerminal(out),
		bars:    make(map[string]*progressbar.ProgressBar),
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Update is a download.ProgressFunc.
func (d *progressDisplay) Update(p download.Progress) {
	if !d.enabled {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	bar, ok := d.bars[p.Label]
	if !ok {
		bar = progressbar.NewOptions64(p.Total,
			progressbar.OptionSetWriter(d.out),
			progressbar.OptionSetDescription(p.Label),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		d.bars[p.Label] = bar
	}
	_ = bar.Set64(p.Downloaded)
	if !p.Indeterminate && p.Downloaded >= p.Total {
		_ = bar.Finish()
		delete(d.bars, p.Label)
	}
}

// Finish closes any bar left open by a failed or cancelled transfer.
func (d *progressDisplay) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for label, bar := range d.bars {
		_ = bar.Exit()
		delete(d.bars, label)
	}
}
