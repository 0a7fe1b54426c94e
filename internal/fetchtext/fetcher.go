package fetchtext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avollmer/weavebox/internal/common"
	"github.com/avollmer/weavebox/internal/logging"
	"github.com/avollmer/weavebox/internal/models"
	"github.com/avollmer/weavebox/internal/repositories/urltext"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Options tune a Fetcher. Zero values select the defaults.
type Options struct {
	// IgnoreSubstrings skips any URL containing one of these fragments:
	// banking sites, CDNs serving raw images, domains that hang.
	IgnoreSubstrings []string
	// MaxRetries bounds retransmissions of one page fetch.
	MaxRetries uint64
	// RetryBase is the initial exponential-backoff delay.
	RetryBase time.Duration
}

// Fetcher downloads pages for URLs that have no extracted text yet and
// stores the extraction. Per-URL failures are logged and skipped; they never
// abort the batch.
type Fetcher struct {
	repo   urltext.Repository
	http   *http.Client
	logger logging.Logger
	opts   Options
}

// NewFetcher wires a fetcher. httpClient may be nil to use the default
// client.
func NewFetcher(repo urltext.Repository, httpClient *http.Client, logger logging.Logger, opts Options) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}
	return &Fetcher{repo: repo, http: httpClient, logger: logger, opts: opts}
}

// Run fetches and indexes every missing URL once.
func (f *Fetcher) Run(ctx context.Context) error {
	urls, err := f.repo.MissingURLs(ctx)
	if err != nil {
		return err
	}

	fetched := 0
	for _, u := range urls {
		if f.ignored(u) {
			f.logger.Debug(ctx, "url ignored", "url", u)
			continue
		}
		if err := f.fetchOne(ctx, u); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn(ctx, "page fetch failed", "url", u, "error", err)
			continue
		}
		fetched++
	}

	f.logger.Info(ctx, "text fetch pass finished", "candidates", len(urls), "fetched", fetched)
	return nil
}

func (f *Fetcher) ignored(u string) bool {
	for _, frag := range f.opts.IgnoreSubstrings {
		if strings.Contains(u, frag) {
			return true
		}
	}
	return false
}

func (f *Fetcher) fetchOne(ctx context.Context, u string) error {
	log := f.logger.With("fetch_id", uuid.NewString(), "url", u)

	var (
		status int
		body   []byte
	)

	backoff := retry.WithMaxRetries(f.opts.MaxRetries, retry.NewExponential(f.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := f.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("server status %d", resp.StatusCode))
		}

		status = resp.StatusCode
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ut := models.URLText{URL: u, HTTPStatus: status}
	if status == http.StatusOK {
		ext, err := Extract(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("extracting content: %w", err)
		}
		ut.RawText = string(body)
		ut.ProcessedText = ext.Body
		ut.Title = ext.Title
		ut.Headers = ext.Headers
	} else {
		// Record the status so the URL is not retried every pass.
		log.Debug(ctx, "page not indexable", "status", status)
	}

	if err := f.repo.Upsert(ctx, &ut); err != nil {
		if !errors.Is(err, common.ErrOversizedText) {
			return err
		}
		// The store's index rejected the text; keep the row with the text
		// fields nulled rather than losing the URL entirely.
		log.Warn(ctx, "text too large for index, storing without text", "size", len(ut.ProcessedText))
		ut.RawText, ut.ProcessedText, ut.Headers = "", "", ""
		if err := f.repo.Upsert(ctx, &ut); err != nil {
			return err
		}
	}

	return f.repo.Link(ctx, u)
}
