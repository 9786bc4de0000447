package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitebrief/internal/logger"
	"github.com/jmylchreest/sitebrief/pkg/acquire"
	"github.com/jmylchreest/sitebrief/pkg/cleaner"
	"github.com/jmylchreest/sitebrief/pkg/fetcher"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire <url>",
	Short: "Fetch a website and reduce it to prompt-ready text",
	Long: `Fetch a page and collect its title, meta description, headings and
substantial paragraphs as plain text.

If the fetch fails (after one retry for transient errors) the --fallback
text is used; without it, a one-line description is synthesized from the
domain. The command only fails when none of these is possible.

Examples:
  sitebrief acquire https://harbourcoffee.com
  sitebrief acquire harbourcoffee.com --fallback-file notes.txt -f yaml
  sitebrief acquire shop.example.com --no-synthesize --max-chars 1500`,
	Args: cobra.ExactArgs(1),
	RunE: runAcquire,
}

func init() {
	rootCmd.AddCommand(acquireCmd)

	flags := acquireCmd.Flags()
	flags.String("fallback", "", "text to use if the site cannot be fetched")
	flags.String("fallback-file", "", "read fallback text from a file")
	flags.Bool("no-synthesize", false, "fail instead of synthesizing text from the domain")

	def := acquire.DefaultConfig()
	flags.Int("max-chars", def.MaxChars, "cap on returned text, in characters")
	flags.Int("min-chars", def.MinChars, "least fetched text accepted before falling back")
	flags.Duration("timeout", def.Timeout, "per-attempt request timeout")
	flags.Int("attempts", def.MaxAttempts, "max fetch attempts for transient failures")
	flags.Duration("backoff", def.Backoff, "pause between attempts")
	flags.String("user-agent", "", "override the browser user agent")
	flags.String("max-body", "5MB", "max response body size (e.g., 512KB, 5MB)")
	flags.String("cleaner", "summary", "text extraction: summary, noop")
	addOutputFlags(acquireCmd, "json")

	_ = viper.BindPFlag("acquire.max_chars", flags.Lookup("max-chars"))
	_ = viper.BindPFlag("acquire.min_chars", flags.Lookup("min-chars"))
	_ = viper.BindPFlag("acquire.timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("acquire.attempts", flags.Lookup("attempts"))
	_ = viper.BindPFlag("acquire.backoff", flags.Lookup("backoff"))
	_ = viper.BindPFlag("acquire.user_agent", flags.Lookup("user-agent"))
	_ = viper.BindPFlag("acquire.max_body", flags.Lookup("max-body"))
}

func runAcquire(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fallback, err := fallbackText(cmd)
	if err != nil {
		return err
	}

	maxBody, err := humanize.ParseBytes(viper.GetString("acquire.max_body"))
	if err != nil {
		return fmt.Errorf("invalid max-body %q: %w", viper.GetString("acquire.max_body"), err)
	}

	logger.Debug("acquire settings",
		"timeout", viper.GetDuration("acquire.timeout"),
		"attempts", viper.GetInt("acquire.attempts"),
		"max_body", humanize.Bytes(maxBody))

	cleanerName, _ := cmd.Flags().GetString("cleaner")
	cl, ok := cleaner.ByName(cleanerName)
	if !ok {
		return fmt.Errorf("unknown cleaner: %s (use 'summary' or 'noop')", cleanerName)
	}

	opts := []acquire.Option{
		acquire.WithClient(fetcher.NewHTTPClient()),
		acquire.WithCleaner(cl),
		acquire.WithMaxChars(viper.GetInt("acquire.max_chars")),
		acquire.WithMinChars(viper.GetInt("acquire.min_chars")),
		acquire.WithTimeout(viper.GetDuration("acquire.timeout")),
		acquire.WithRetry(viper.GetInt("acquire.attempts"), viper.GetDuration("acquire.backoff")),
		acquire.WithUserAgent(viper.GetString("acquire.user_agent")),
		acquire.WithMaxBodySize(int(maxBody)),
	}
	if noSynth, _ := cmd.Flags().GetBool("no-synthesize"); noSynth {
		opts = append(opts, acquire.WithoutSynthesis())
	}

	a := acquire.New(opts...)
	defer func() { _ = a.Close() }()

	start := time.Now()
	content, err := a.Acquire(ctx, acquire.Request{URL: args[0], Fallback: fallback})
	if err != nil {
		logger.Error("acquisition failed", "url", args[0], "error", err)
		return err
	}
	logger.Info("acquired content",
		"url", content.URL,
		"source", content.Source,
		"chars", utf8.RuneCountInString(content.Text),
		"truncated", content.Truncated,
		"attempts", content.Attempts,
		"elapsed", time.Since(start).Round(time.Millisecond))

	w, closeFn, err := openWriter(cmd)
	if err != nil {
		return err
	}
	if err := w.Write(content); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func fallbackText(cmd *cobra.Command) (string, error) {
	fallback, _ := cmd.Flags().GetString("fallback")
	path, _ := cmd.Flags().GetString("fallback-file")
	if path == "" {
		return fallback, nil
	}
	if strings.TrimSpace(fallback) != "" {
		return "", fmt.Errorf("use either --fallback or --fallback-file, not both")
	}
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads a user-specified file
	if err != nil {
		return "", fmt.Errorf("read fallback file: %w", err)
	}
	return string(data), nil
}
