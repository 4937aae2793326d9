package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	appLog "datepick/internal/log"
)

// Source is one annotation feed.
type Source struct {
	ID string
	// Location is either an http(s) URL or a local file path.
	Location string
	// Blackout marks every day touched by the feed's events as
	// unselectable.
	Blackout bool
}

func (s Source) isRemote() bool {
	return strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://")
}

// LoadResult is the payload of a single source.
type LoadResult struct {
	Source Source
	Body   []byte
	// Stale is true when a remembered body was reused after 304 or a failed
	// request.
	Stale bool
}

// validator holds conditional request state for one URL.
type validator struct {
	etag         string
	lastModified string
	body         []byte
}

// Loader reads annotation feeds from disk or HTTP. Remote bodies are kept in
// memory so conditional requests can be answered with 304.
type Loader struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]validator
}

func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Loader{
		client: client,
		cache:  make(map[string]validator),
	}
}

// LoadAll loads every source. Failed sources are logged and reported in the
// error slice; the rest are returned.
func (l *Loader) LoadAll(ctx context.Context, sources []Source) ([]LoadResult, []error) {
	results := make([]LoadResult, 0, len(sources))
	var errs []error

	for _, src := range sources {
		res, err := l.Load(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("ics: load %s: %w", src.ID, err))
			appLog.Error("ics load failed", err, "id", src.ID, "location", redact(src.Location))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// Load reads a single source.
func (l *Loader) Load(ctx context.Context, src Source) (LoadResult, error) {
	if src.Location == "" {
		return LoadResult{}, errors.New("source location is empty")
	}
	if !src.isRemote() {
		body, err := os.ReadFile(src.Location)
		if err != nil {
			return LoadResult{}, err
		}
		return LoadResult{Source: src, Body: body}, nil
	}
	return l.fetch(ctx, src)
}

func (l *Loader) fetch(ctx context.Context, src Source) (LoadResult, error) {
	l.mu.Lock()
	prev, havePrev := l.cache[src.Location]
	l.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return LoadResult{}, err
	}
	if prev.etag != "" {
		req.Header.Set("If-None-Match", prev.etag)
	}
	if prev.lastModified != "" {
		req.Header.Set("If-Modified-Since", prev.lastModified)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if havePrev {
			appLog.Warn("ics fetch failed, reusing previous body", "id", src.ID, "url", redact(src.Location), "err", err)
			return LoadResult{Source: src, Body: prev.body, Stale: true}, nil
		}
		return LoadResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return LoadResult{}, err
		}
		l.mu.Lock()
		l.cache[src.Location] = validator{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		l.mu.Unlock()
		appLog.Debug("ics fetch ok", "id", src.ID, "url", redact(src.Location), "bytes", len(body))
		return LoadResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if !havePrev {
			return LoadResult{}, errors.New("received 304 Not Modified without a previous body")
		}
		appLog.Debug("ics not modified", "id", src.ID, "url", redact(src.Location))
		return LoadResult{Source: src, Body: prev.body, Stale: true}, nil

	default:
		if havePrev {
			appLog.Warn("ics fetch non-OK, reusing previous body", "id", src.ID, "url", redact(src.Location), "status", resp.StatusCode)
			return LoadResult{Source: src, Body: prev.body, Stale: true}, nil
		}
		return LoadResult{}, errors.New(resp.Status)
	}
}

// redact keeps the scheme and host of a URL and hides the rest, since feed
// URLs often carry access tokens. File paths are returned unchanged.
func redact(loc string) string {
	i := strings.Index(loc, "://")
	if i < 0 {
		return loc
	}
	rest := loc[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return loc[:i+3] + rest + "/...(redacted)"
}
