// Package download implements the HTTP fetch and streaming
// archive-extraction engine: best-effort descriptor text fetch, and the
// core artifact fetcher that streams file artifacts straight to disk and
// archive artifacts through XZ-decompress + tar-unpack, reporting progress
// as it goes.
package download

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/nativestart-go/launcher/descriptor"
	"github.com/nativestart-go/launcher/launcherrors"
	"github.com/nativestart-go/launcher/progress"
	"github.com/nativestart-go/launcher/store"
)

// DefaultTimeout is the HTTP client timeout used when no config overrides it.
const DefaultTimeout = 5 * time.Minute

// Engine fetches descriptor text and artifact bodies over HTTP.
type Engine struct {
	httpClient  *http.Client
	mirrorBase  string
	maxDownload uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Engine) { e.httpClient = hc }
}

// WithMirrorBase rewrites every fetch URL's scheme+host to base, for
// air-gapped or mirrored environments.
func WithMirrorBase(base string) Option {
	return func(e *Engine) { e.mirrorBase = base }
}

// WithMaxDownloadBytes caps the size of any single artifact body streamed
// through open; a stream that exceeds the cap fails with a Download error
// instead of being silently truncated. 0 (the default) means unbounded.
func WithMaxDownloadBytes(max uint64) Option {
	return func(e *Engine) { e.maxDownload = max }
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{httpClient: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DownloadAndGet is the best-effort text fetch used for the descriptor: no
// retries, no surfaced error. Failure (transport error or non-2xx status)
// maps to (\"\", false); the caller falls back to the cached descriptor.
func (e *Engine) DownloadAndGet(ctx context.Context, rawURL string) (string, bool) {
	finalURL, err := e.rewriteURL(rawURL)
	if err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return "", false
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false
	}
	return string(body), true
}

// DownloadAndStore fetches an ordered sequence of artifacts into st,
// advancing counter and emitting progress.Event messages on ch as each
// artifact completes. Artifacts are processed in declared order, matching
// the monotonic-within-a-batch ordering guarantee.
func (e *Engine) DownloadAndStore(ctx context.Context, artifacts []descriptor.Artifact, st *store.Store, counter *progress.Counter, ch progress.Channel) error {
	var total uint64
	for _, a := range artifacts {
		total += a.EffectiveDownloadSize()
	}
	counter.SetTotal(total)

	for _, a := range artifacts {
		target, err := st.PathForWrite(a.Path)
		if err != nil {
			return err
		}

		if a.IsArchive() {
			if err := e.fetchArchive(ctx, a, target, counter); err != nil {
				return err
			}
		} else {
			if err := e.fetchFile(ctx, a, target, counter); err != nil {
				return err
			}
		}

		counter.CommitArtifact(a.EffectiveDownloadSize())
		if ch != nil {
			ch <- progress.Event{Kind: progress.EventStatusChanged, Status: progress.StatusDownloading}
		}
	}

	if ch != nil {
		ch <- progress.Event{Kind: progress.EventDownloadDone}
	}
	return nil
}

// fetchFile streams a file artifact's body straight to target.
func (e *Engine) fetchFile(ctx context.Context, a descriptor.Artifact, target string, counter *progress.Counter) error {
	resp, err := e.open(ctx, a.URL)
	if err != nil {
		return err
	}
	defer resp.Close()

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "creating %s", target)
	}
	defer f.Close()

	w := &progressWriter{w: f, counter: counter}
	if _, err := io.Copy(w, resp); err != nil {
		return launcherrors.Wrap(launcherrors.Download, err, "streaming %s", a.URL)
	}
	return nil
}

// open performs the GET and validates a 2xx status, returning the response
// body for the caller to stream and close.
func (e *Engine) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	finalURL, err := e.rewriteURL(rawURL)
	if err != nil {
		return nil, launcherrors.Wrap(launcherrors.Download, err, "rewriting URL %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, launcherrors.Wrap(launcherrors.Download, err, "building request for %s", rawURL)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, launcherrors.Wrap(launcherrors.Download, err, "fetching %s", rawURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, launcherrors.New(launcherrors.Download, "fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}
	if e.maxDownload > 0 {
		return &cappedReader{r: resp.Body, limit: int64(e.maxDownload)}, nil
	}
	return resp.Body, nil
}

// rewriteURL replaces the scheme+host of a URL with the configured mirror
// base. If no mirror is configured, the original URL is returned unchanged.
func (e *Engine) rewriteURL(original string) (string, error) {
	if e.mirrorBase == "" {
		return original, nil
	}
	origParsed, err := url.Parse(original)
	if err != nil {
		return "", err
	}
	mirrorParsed, err := url.Parse(e.mirrorBase)
	if err != nil {
		return "", err
	}
	origParsed.Scheme = mirrorParsed.Scheme
	origParsed.Host = mirrorParsed.Host
	return origParsed.String(), nil
}

// cappedReader enforces WithMaxDownloadBytes: once the running total crosses
// limit, Read surfaces a Download error instead of letting the stream
// continue, so an oversized artifact body fails the fetch outright rather
// than being silently truncated. A body whose length lands exactly on limit
// still reads to completion — the check is "more than limit", not "at least
// limit", so there is no off-by-one rejection of an artifact sized exactly
// at the cap.
type cappedReader struct {
	r     io.ReadCloser
	limit int64
	read  int64
}

func (c *cappedReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.read += int64(n)
	if c.read > c.limit {
		return n, launcherrors.New(launcherrors.Download, "artifact body exceeds configured max download size of %d bytes", c.limit)
	}
	return n, err
}

func (c *cappedReader) Close() error { return c.r.Close() }

// progressWriter wraps an io.Writer, fanning in each chunk's byte count to a
// shared progress.Counter's in-flight accumulation as the transfer streams.
type progressWriter struct {
	w       io.Writer
	counter *progress.Counter
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		p.counter.Add(uint64(n))
	}
	return n, err
}
