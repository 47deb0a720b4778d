package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/mediumdl/config"
	"github.com/use-agent/mediumdl/downloader"
	"github.com/use-agent/mediumdl/fetch"
	"github.com/use-agent/mediumdl/images"
	"github.com/use-agent/mediumdl/markdown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "mediumdl <article-url> [output-file]",
		Short: "Download a Medium article as markdown with local images",
		Long: `mediumdl fetches a single published article, extracts its readable
content, downloads the embedded images into a local media directory,
and writes a self-contained markdown document.

Several retrieval strategies are tried in order (direct request, feed
lookup, warm-up visit, external curl) to get past anti-scraping blocks.`,
		Example: `  mediumdl https://medium.com/@user/article-title
  mediumdl https://medium.com/@user/article-title article.md
  mediumdl --browser --media-dir assets https://medium.com/@user/article-title`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				cmd.Help()
				return errors.New("missing required <article-url> argument")
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogger(cfg.Log)

			output := outputFlag
			if len(args) > 1 {
				output = args[1]
			}

			client, err := fetch.NewClient(cfg.Fetch)
			if err != nil {
				return err
			}

			strategies := []fetch.Strategy{
				fetch.NewDirect(client),
				fetch.NewFeed(client),
				fetch.NewWarmup(client, cfg.Fetch.WarmupDelay),
			}
			if cfg.Browser.Enabled {
				strategies = append(strategies, fetch.NewBrowser(cfg.Browser, cfg.Fetch.Timeout))
			}
			strategies = append(strategies, fetch.NewCurl(cfg.Fetch.CurlBin, cfg.Fetch.Timeout))

			chain := fetch.NewChain(cfg.Fetch.Selector, strategies...)
			renderer := markdown.NewRenderer(
				cfg.Media.Dir,
				images.NewExtractor(cfg.Media.Dir),
				images.NewDownloader(cfg.Media, cfg.Fetch.CurlBin, cfg.Fetch.Timeout),
			)

			d := downloader.New(chain, renderer, cfg.Media.Dir)
			path, err := d.DownloadArticle(cmd.Context(), args[0], output)
			if err != nil {
				return err
			}

			fmt.Println(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output markdown file (default: derived from the article title)")
	cmd.Flags().StringVar(&cfg.Media.Dir, "media-dir", cfg.Media.Dir, "directory for downloaded images")
	cmd.Flags().DurationVarP(&cfg.Fetch.Timeout, "timeout", "t", cfg.Fetch.Timeout, "per-request timeout")
	cmd.Flags().StringVarP(&cfg.Fetch.Proxy, "proxy", "p", cfg.Fetch.Proxy, "proxy URL (http, https, socks5) for page fetches, defaults to MEDIUMDL_PROXY")
	cmd.Flags().StringVarP(&cfg.Fetch.Selector, "selector", "s", "", "CSS selector restricting the article body")
	cmd.Flags().BoolVar(&cfg.Browser.Enabled, "browser", false, "enable the headless-browser retrieval strategy")
	cmd.Flags().BoolVar(&cfg.Browser.NoSandbox, "no-sandbox", false, "disable the browser sandbox (needed in Docker)")
	cmd.Flags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format (text or json)")

	return cmd
}

// initLogger configures slog on stdout; warnings and progress share the
// same stream, only the final fatal error goes to stderr (via cobra).
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
