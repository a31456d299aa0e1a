// Package main is the entry point for the arxiv-crawler CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the arxiv-crawler CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-crawler",
	Short: "Crawl arXiv search results and mirror the PDFs to S3",
	Long: `arxiv-crawler queries the arXiv search API for papers matching a
configured query, resolves each result to its PDF link, and copies the PDF
into an S3 bucket under a deterministic key. PDFs already present in the
bucket are skipped, so repeated runs against the same bucket and prefix
transfer nothing twice.

The crawler runs once per invocation; scheduling is left to the host
(cron, EventBridge, systemd timers).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-crawler.yaml or ~/.config/arxiv-crawler/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxiv-crawler")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-crawler"))
		}
	}

	viper.SetEnvPrefix("ARXIV_CRAWLER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogging installs the process-wide slog handler at the configured level.
func setupLogging() error {
	var level slog.Level
	name := viper.GetString("log_level")
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid log level %q", name)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
