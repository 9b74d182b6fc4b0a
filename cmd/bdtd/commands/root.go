// Package commands implements the bdtd CLI: keyword search against the
// BDTD digital library with tabular output on disk.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bdtd-go/bdtd-client/pkg/bdtd"
	"github.com/bdtd-go/bdtd-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	outputFolder string
	maxPages     int
	typeFilter   string
	workers      int
	intervalSecs float64
	maxRetries   int
	timeoutSecs  float64
	csvOutput    bool
	noDetails    bool
	noPDFs       bool
	redisAddr    string
	logLevel     string
	prettyLogs   bool
)

var rootCmd = &cobra.Command{
	Use:   "bdtd <search_term>",
	Short: "bdtd searches the Brazilian Digital Library of Theses and Dissertations and writes the results as tabular files.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&outputFolder, "output-folder", "o", "", "Output folder name (default: \"BDTD (<term>)\")")
	flags.IntVarP(&maxPages, "pages", "p", 0, "Number of result pages to fetch (default: all)")
	flags.StringVarP(&typeFilter, "type", "t", bdtd.DefaultTypeFilter, "Search form filter for the keyword")
	flags.IntVarP(&workers, "workers", "w", 8, "Number of concurrent fetch workers")
	flags.Float64Var(&intervalSecs, "interval", 0.5, "Minimum seconds between requests (all workers combined)")
	flags.IntVar(&maxRetries, "retries", 3, "Attempts per page before giving it up")
	flags.Float64Var(&timeoutSecs, "timeout", 10, "Seconds before a single request is aborted")
	flags.BoolVar(&csvOutput, "csv", false, "Write the combined output as CSV instead of Excel")
	flags.BoolVar(&noDetails, "no-details", false, "Skip fetching per-record detail pages")
	flags.BoolVar(&noPDFs, "no-pdfs", false, "Skip downloading full-text PDF files")
	flags.StringVar(&redisAddr, "redis", "", "Redis address for the optional page cache (e.g. localhost:6379)")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.BoolVar(&prettyLogs, "pretty", false, "Human-readable console logs instead of JSON")
}

// ExecuteContext runs the CLI.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Pretty: prettyLogs,
		Output: os.Stderr,
	})

	term := args[0]

	cfg := bdtd.DefaultConfig()
	cfg.Workers = workers
	cfg.Client.Interval = time.Duration(intervalSecs * float64(time.Second))
	cfg.Client.Timeout = time.Duration(timeoutSecs * float64(time.Second))
	cfg.Client.MaxRetries = maxRetries
	if redisAddr != "" {
		cfg.Client.Redis = redis.NewClient(&redis.Options{Addr: redisAddr})
	}

	b, err := bdtd.New(cfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	folder := outputFolder
	if folder == "" {
		folder = fmt.Sprintf("BDTD (%s)", term)
	}

	start := time.Now()

	rs, err := searchAndWrite(cmd.Context(), b, term, folder, bdtd.SearchOptions{
		Type:     typeFilter,
		MaxPages: maxPages,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("term", term).
		Int("records", rs.Len()).
		Ints("failed_pages", rs.FailedPages()).
		Dur("duration", time.Since(start)).
		Str("output", folder).
		Msg("Done")

	return nil
}

// searchAndWrite runs the search and writes every output file into folder.
// The folder is only created once the first page resolves, so a fatal search
// failure leaves nothing behind on disk.
func searchAndWrite(ctx context.Context, b *bdtd.BDTD, term, folder string, opts bdtd.SearchOptions) (*bdtd.ResultSet, error) {
	rs, err := b.Search(ctx, term, opts)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	if err := writeOutputs(ctx, b, rs, folder); err != nil {
		return nil, err
	}
	return rs, nil
}
