package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"perlentaucher/internal/logging"
	"perlentaucher/internal/services"
)

const defaultChunkSize = 8192

// Fetcher streams a remote payload into a file.
type Fetcher struct {
	fs        afero.Fs
	client    *http.Client
	chunkSize int
	idle      time.Duration
	logger    *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithIdleTimeout bounds how long a body read may stall before the transfer
// is abandoned. Zero disables the watchdog.
func WithIdleTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.idle = d
	}
}

// NewFetcher builds a fetcher. headerTimeout bounds the wait for response
// headers and, unless WithIdleTimeout overrides it, the gap between two
// body chunks.
func NewFetcher(fsys afero.Fs, headerTimeout time.Duration, chunkSize int, logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	f := &Fetcher{
		fs:        fsys,
		client:    &http.Client{Transport: transport},
		chunkSize: chunkSize,
		idle:      headerTimeout,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url to dest. Bytes land in dest+".part" first and are
// renamed on success; on any failure or cancellation the partial file is
// removed. Cancellation is checked at every chunk boundary.
func (f *Fetcher) Fetch(ctx context.Context, url, dest, label string, progress ProgressFunc) (int64, error) {
	reqCtx, cancelReq := context.WithCancel(ctx)
	defer cancelReq()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrDownloadFailed, "download", "build request", "invalid video url", err)
	}
	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, services.Wrap(services.ErrCancelled, "download", "request", "download cancelled", ctx.Err())
		}
		return 0, services.Wrap(services.ErrDownloadFailed, "download", "request", fmt.Sprintf("request failed (latency=%v)", time.Since(start).Round(time.Millisecond)), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, services.Wrap(services.ErrDownloadFailed, "download", "request", fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}
	total := resp.ContentLength
	if total <= 0 {
		logging.WarnWithContext(logging.WithContext(ctx, f.logger), "content length missing", "download_length_unknown",
			logging.String("label", label),
			logging.String(logging.FieldErrorHint, "progress is reported in bytes only"),
			logging.String(logging.FieldImpact, "no percentage available for this download"))
	}

	wd := newWatchdog(f.idle, cancelReq)
	defer wd.stop()

	part := dest + ".part"
	written, err := f.stream(ctx, resp.Body, wd, part, label, total, progress)
	if err != nil {
		_ = f.fs.Remove(part)
		return written, err
	}
	if err := f.fs.Rename(part, dest); err != nil {
		_ = f.fs.Remove(part)
		return written, services.Wrap(services.ErrDownloadFailed, "download", "finalize", "could not move completed download into place", err)
	}
	return written, nil
}

// watchdog cancels the request when no chunk arrives within idle.
type watchdog struct {
	idle    time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newWatchdog(idle time.Duration, cancel context.CancelFunc) *watchdog {
	wd := &watchdog{idle: idle}
	if idle > 0 {
		wd.timer = time.AfterFunc(idle, func() {
			wd.expired.Store(true)
			cancel()
		})
	}
	return wd
}

func (wd *watchdog) reset() {
	if wd.timer != nil && !wd.expired.Load() {
		wd.timer.Reset(wd.idle)
	}
}

func (wd *watchdog) stop() {
	if wd.timer != nil {
		wd.timer.Stop()
	}
}

func (f *Fetcher) stream(ctx context.Context, body io.Reader, wd *watchdog, path, label string, total int64, progress ProgressFunc) (int64, error) {
	file, err := f.fs.Create(path)
	if err != nil {
		return 0, services.Wrap(services.ErrDownloadFailed, "download", "create file", "target file not writable", err)
	}
	defer file.Close()

	logger := logging.WithContext(ctx, f.logger)
	sampler := logging.NewProgressSampler(10)
	buf := make([]byte, f.chunkSize)
	var downloaded int64
	for {
		if err := ctx.Err(); err != nil {
			return downloaded, services.Wrap(services.ErrCancelled, "download", "stream", "download cancelled", err)
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			wd.reset()
			if _, err := file.Write(buf[:n]); err != nil {
				return downloaded, services.Wrap(services.ErrDownloadFailed, "download", "write", "writing to disk failed", err)
			}
			downloaded += int64(n)
			p := newProgress(label, downloaded, total)
			if progress != nil {
				progress(p)
			}
			if (p.Indeterminate && sampler.ShouldLogBytes(downloaded, label)) || (!p.Indeterminate && sampler.ShouldLog(p.Percent, label)) {
				logger.Info("download progress",
					logging.String("label", label),
					logging.String("progress", p.Text()),
					logging.Float64("percent", p.Percent))
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return downloaded, services.Wrap(services.ErrCancelled, "download", "stream", "download cancelled", ctx.Err())
			}
			if wd.expired.Load() {
				return downloaded, services.Wrap(services.ErrDownloadFailed, "download", "stream",
					fmt.Sprintf("transfer stalled for %v", wd.idle), readErr)
			}
			return downloaded, services.Wrap(services.ErrDownloadFailed, "download", "stream", "connection dropped", readErr)
		}
	}
	if total > 0 && downloaded != total {
		return downloaded, services.Wrap(services.ErrDownloadFailed, "download", "stream",
			fmt.Sprintf("short transfer: %d of %d bytes", downloaded, total), nil)
	}
	if err := file.Close(); err != nil {
		return downloaded, services.Wrap(services.ErrDownloadFailed, "download", "close", "flushing file failed", err)
	}
	return downloaded, nil
}
