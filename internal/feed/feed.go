// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed fetches the arXiv search feed and resolves its entries to
// (identifier, PDF link) pairs.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-crawler/pkg/types"
)

// apiBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://export.arxiv.org/api/query"

// Document is the decoded Atom feed returned by the arXiv API.
type Document struct {
	Entries []docEntry `xml:"entry"`
}

type docEntry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Published string      `xml:"published"`
	Authors   []docAuthor `xml:"author"`
	Links     []docLink   `xml:"link"`
}

type docAuthor struct {
	Name string `xml:"name"`
}

type docLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// Entry is one resolved paper: a stable identifier, the direct PDF link,
// and the descriptive fields carried along for the metadata sidecar.
type Entry struct {
	ID        string
	PDFURL    string
	Title     string
	Authors   []string
	Published time.Time
}

// Fetch issues the single feed query for a run and decodes the response.
// Results are requested sorted by submission date, newest first, so entry
// order is stable across invocations. Any failure here is fatal to the
// run; there is no retry at this layer.
func Fetch(ctx context.Context, client *http.Client, cfg types.CrawlConfig) (*Document, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	u := fmt.Sprintf("%s?search_query=%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		apiBase, url.QueryEscape(cfg.Query), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var doc Document
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &doc, nil
}

// Resolve transforms a decoded document into an ordered entry list, feed
// order preserved. Entries with no PDF-typed link are dropped and their
// identifiers returned so the caller can log warnings; dropping is not a
// failure (withdrawn papers legitimately have no PDF). Resolve is a pure
// function over the document and can be called repeatedly.
func Resolve(doc *Document) (entries []Entry, dropped []string) {
	for _, e := range doc.Entries {
		id := entryID(e.ID)
		if id == "" {
			dropped = append(dropped, strings.TrimSpace(e.ID))
			continue
		}

		pdfURL := pdfLink(e.Links)
		if pdfURL == "" {
			dropped = append(dropped, id)
			continue
		}

		entry := Entry{
			ID:     id,
			PDFURL: pdfURL,
			Title:  strings.TrimSpace(e.Title),
		}
		for _, a := range e.Authors {
			entry.Authors = append(entry.Authors, strings.TrimSpace(a.Name))
		}
		if t, parseErr := time.Parse(time.RFC3339, e.Published); parseErr == nil {
			entry.Published = t
		}

		entries = append(entries, entry)
	}
	return entries, dropped
}

// entryID extracts the identifier from the entry's canonical <id> URL,
// keeping the version suffix: "http://arxiv.org/abs/2505.05471v1" becomes
// "2505.05471v1". Later revisions get distinct identifiers, and therefore
// distinct store keys, which is what makes re-crawls pick them up.
func entryID(idURL string) string {
	idURL = strings.TrimSpace(idURL)
	return idURL[strings.LastIndex(idURL, "/")+1:]
}

// pdfLink selects the first link marked as PDF, either by arXiv's
// title="pdf" attribute or by MIME type.
func pdfLink(links []docLink) string {
	for _, l := range links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return ""
}
