package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network requests.
type HTTPConfig struct {
	// Timeout bounds a whole HTTP exchange, including reading the body.
	// Sized for large PDF transfers (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// DialTimeout bounds connection establishment (default 5s).
	DialTimeout time.Duration `json:"dial_timeout" yaml:"dial_timeout"`

	// UserAgent is the User-Agent header sent with every outbound request.
	// arXiv's access policy requires a contact address in it.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CrawlConfig holds the immutable per-run settings for one crawl invocation.
// It is constructed once at startup and passed to each component; nothing
// reads the environment after that.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// Query is the arXiv search expression,
	// e.g. "(cat:cs.LG OR cat:cs.CL) AND (all:application OR all:deployment)".
	Query string `json:"query" yaml:"query"`

	// MaxResults is the number of feed results to request (default 100;
	// arXiv serves up to ~300 reliably).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Bucket is the target S3 bucket.
	Bucket string `json:"bucket" yaml:"bucket"`

	// Prefix is prepended to every object key, e.g. "arxiv/2025-05-11/".
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// WriteMetadata uploads a YAML metadata sidecar next to each new PDF.
	WriteMetadata bool `json:"write_metadata" yaml:"write_metadata"`

	// MaxAttempts is the per-entry transfer attempt bound (default 2).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryStep is the linear backoff step between attempts (default 2s;
	// attempt n waits n * RetryStep).
	RetryStep time.Duration `json:"retry_step" yaml:"retry_step"`
}
