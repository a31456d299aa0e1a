// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl runs one crawl: fetch the feed, then for each entry check
// the store, and copy the PDF in if it is missing.
package crawl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-crawler/internal/feed"
	"github.com/pdiddy/arxiv-crawler/internal/retry"
	"github.com/pdiddy/arxiv-crawler/pkg/types"
)

const (
	defaultMaxAttempts = 2
	defaultRetryStep   = 2 * time.Second
)

// Store is the object store the engine syncs into. Exists must be a
// metadata-only check that distinguishes absence from service errors.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// Result holds the outcome counters of one run. The run never aborts on
// per-entry failures; they land in Failed and Failures instead.
type Result struct {
	Synced  int
	Skipped int
	Failed  int

	// Failures records the cause per failed entry.
	Failures []Failure
}

// Failure is one entry that exhausted its attempts or hit a store error.
type Failure struct {
	ID  string
	Err error
}

// Total returns the number of entries processed.
func (r Result) Total() int {
	return r.Synced + r.Skipped + r.Failed
}

// HasFailures reports whether any entries failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Engine performs the per-entry synchronization. One engine serves one run;
// it holds no state beyond its collaborators.
type Engine struct {
	store  Store
	client *http.Client
	cfg    types.CrawlConfig
	logger *slog.Logger
	policy retry.Policy
}

// New builds an engine from its collaborators and the run configuration.
func New(store Store, client *http.Client, cfg types.CrawlConfig, logger *slog.Logger) *Engine {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	step := cfg.RetryStep
	if step <= 0 {
		step = defaultRetryStep
	}
	return &Engine{
		store:  store,
		client: client,
		cfg:    cfg,
		logger: logger,
		policy: retry.Policy{MaxAttempts: maxAttempts, Delay: retry.Linear(step)},
	}
}

// Run executes one crawl: a single feed fetch, then each entry in feed
// order through the sync steps. Only a feed-level failure returns an
// error; entry failures are counted and the loop continues. The returned
// Result is valid even when err is non-nil (all counters zero).
func (e *Engine) Run(ctx context.Context) (Result, error) {
	var result Result

	doc, err := feed.Fetch(ctx, e.client, e.cfg)
	if err != nil {
		return result, fmt.Errorf("fetching feed: %w", err)
	}

	entries, dropped := feed.Resolve(doc)
	for _, id := range dropped {
		e.logger.Warn("no pdf link", "id", id)
	}

	for _, entry := range entries {
		skipped, err := e.syncEntry(ctx, entry)
		switch {
		case err != nil:
			result.Failed++
			result.Failures = append(result.Failures, Failure{ID: entry.ID, Err: err})
			e.logger.Error("giving up", "id", entry.ID, "error", err)
		case skipped:
			result.Skipped++
		default:
			result.Synced++
		}
	}

	e.logger.Info("run complete",
		"synced", result.Synced, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// syncEntry copies one paper into the store unless it is already there.
// The existence check runs first and is never retried: a store error here
// fails the entry without touching the PDF link, so a store outage cannot
// turn into a duplicate-fetch storm against arXiv.
func (e *Engine) syncEntry(ctx context.Context, entry feed.Entry) (skipped bool, err error) {
	key := e.cfg.Prefix + entry.ID + ".pdf"

	exists, err := e.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("checking store: %w", err)
	}
	if exists {
		e.logger.Debug("skip, already stored", "id", entry.ID, "key", key)
		return true, nil
	}

	err = e.policy.Do(ctx, func(attempt int) error {
		if err := e.transfer(ctx, entry, key); err != nil {
			e.logger.Warn("transfer attempt failed",
				"id", entry.ID, "attempt", attempt, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if e.cfg.WriteMetadata {
		// Sidecar upload is best-effort; the PDF is already durable.
		if err := e.putMetadata(ctx, entry); err != nil {
			e.logger.Warn("metadata upload failed", "id", entry.ID, "error", err)
		}
	}

	e.logger.Info("uploaded", "id", entry.ID, "key", key)
	return false, nil
}

// transfer is one fetch-and-store attempt: GET the PDF link, gate on the
// declared content type, and stream the body into the store.
func (e *Engine) transfer(ctx context.Context, entry feed.Entry, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.PDFURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, entry.PDFURL)
	}

	// A 200 with a non-PDF type is usually an error or interstitial page
	// served under the fetch URL. Never store it.
	ctype := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ctype), "pdf") {
		return fmt.Errorf("non-PDF content type %q", ctype)
	}

	if err := e.store.Put(ctx, key, resp.Body, "application/pdf"); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// paperMetadata is the YAML sidecar written next to each newly synced PDF.
type paperMetadata struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title,omitempty"`
	Authors   []string  `yaml:"authors,omitempty"`
	Published time.Time `yaml:"published,omitempty"`
	SourceURL string    `yaml:"source_url"`
}

func (e *Engine) putMetadata(ctx context.Context, entry feed.Entry) error {
	meta := paperMetadata{
		ID:        entry.ID,
		Title:     entry.Title,
		Authors:   entry.Authors,
		Published: entry.Published,
		SourceURL: entry.PDFURL,
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	key := e.cfg.Prefix + entry.ID + ".yaml"
	return e.store.Put(ctx, key, bytes.NewReader(data), "application/yaml")
}
