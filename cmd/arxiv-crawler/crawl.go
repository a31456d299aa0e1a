package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-crawler/internal/crawl"
	"github.com/pdiddy/arxiv-crawler/internal/store"
	"github.com/pdiddy/arxiv-crawler/pkg/types"
)

const (
	defaultMaxResults = 100
	// Short dial timeout, long total timeout: fail fast on unreachable
	// hosts but tolerate large PDF transfers.
	defaultDialTimeout = 5 * time.Second
	defaultTimeout     = 120 * time.Second
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run one crawl: fetch the feed and sync missing PDFs to S3",
	Long: `Crawl issues a single arXiv search, then processes each result in feed
order: papers whose key already exists in the bucket are skipped, the rest
are fetched and streamed to S3 as <prefix><id>.pdf. Per-paper failures are
retried with backoff and then counted; only a feed-level failure aborts
the run.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("query", "", "arXiv search expression (required)")
	crawlCmd.Flags().Int("max-results", defaultMaxResults, "number of feed results to request (arXiv caps around 300)")
	crawlCmd.Flags().String("contact", "", "contact address for the outbound User-Agent, per arXiv access policy (required)")
	crawlCmd.Flags().String("bucket", "", "target S3 bucket (required)")
	crawlCmd.Flags().String("prefix", "", "key prefix inside the bucket, e.g. \"arxiv/2025-05-11/\"")
	crawlCmd.Flags().Bool("metadata", false, "upload a YAML metadata sidecar next to each new PDF")
	crawlCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout, including body read")
	crawlCmd.Flags().Duration("dial-timeout", defaultDialTimeout, "HTTP connect timeout")

	for _, name := range []string{"query", "max-results", "contact", "bucket", "prefix", "metadata", "timeout", "dial-timeout"} {
		_ = viper.BindPFlag(name, crawlCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := crawlConfig()
	if err != nil {
		return err
	}

	s3Store, err := store.NewS3(cmd.Context(), cfg.Bucket)
	if err != nil {
		return err
	}

	engine := crawl.New(s3Store, newHTTPClient(cfg.HTTPConfig), cfg, slog.Default())
	result, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}

	// Per-entry failures are reflected in the counts, not the exit code.
	fmt.Printf("synced=%d skipped=%d failed=%d\n", result.Synced, result.Skipped, result.Failed)
	return nil
}

// crawlConfig assembles the immutable run configuration from viper
// (flags take precedence over ARXIV_CRAWLER_* env vars and the config file).
func crawlConfig() (types.CrawlConfig, error) {
	cfg := types.CrawlConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:     viper.GetDuration("timeout"),
			DialTimeout: viper.GetDuration("dial-timeout"),
		},
		Query:         viper.GetString("query"),
		MaxResults:    viper.GetInt("max-results"),
		Bucket:        viper.GetString("bucket"),
		Prefix:        viper.GetString("prefix"),
		WriteMetadata: viper.GetBool("metadata"),
	}

	contact := viper.GetString("contact")
	switch {
	case cfg.Query == "":
		return cfg, fmt.Errorf("--query is required")
	case contact == "":
		return cfg, fmt.Errorf("--contact is required")
	case cfg.Bucket == "":
		return cfg, fmt.Errorf("--bucket is required")
	}
	cfg.UserAgent = fmt.Sprintf("arxiv-crawler/%s (%s)", version, contact)

	return cfg, nil
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: cfg.DialTimeout}).DialContext,
		},
	}
}
