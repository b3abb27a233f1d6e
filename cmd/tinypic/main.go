package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/viant/tinypic"
	"github.com/viant/tinypic/config"
	"github.com/viant/tinypic/journal"
	"github.com/viant/tinypic/optimizer"
	"github.com/viant/tinypic/tinify"

	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)

func main() {
	startGops()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("tinypic: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("tinypic", flag.ContinueOnError)
	flags.SetOutput(stdout)
	var key string
	flags.StringVar(&key, "k", "", "TinyPNG API key (defaults to "+tinify.KeyEnv+")")
	flags.StringVar(&key, "key", "", "TinyPNG API key (alias of -k)")
	configPath := flags.String("config", "", "config yaml (optional)")
	secretRef := flags.String("secret", "", "scy secret resource holding the API key")
	concurrency := flags.Int("concurrency", optimizer.DefaultConcurrency, "max files compressed at once")
	rateLimit := flags.Float64("rate", 0, "max compression calls per second, 0 disables throttling")
	digest := flags.String("digest", "", "manifest digest: md5|highway128 (default md5)")
	suffix := flags.String("suffix", "", "candidate file suffix (default .png)")
	exclude := flags.String("exclude", "", "comma-separated exclude patterns")
	ignore := flags.String("ignore", "", ".gitignore style exclusion file")
	journalPath := flags.String("journal", "", "sqlite compression journal path (optional)")
	endpoint := flags.String("endpoint", "", "compression API base URL")
	showVersion := flags.Bool("version", false, "print version")
	showStats := flags.Bool("stats", false, "print run statistics")
	history := flags.String("history", "", "print journal entries for a file and exit (requires -journal)")
	flags.Usage = func() {
		fmt.Fprintln(stdout, "Usage: tinypic [options] <file-or-directory...>")
		flags.PrintDefaults()
	}
	paths, err := parseArgs(flags, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, tinypic.Version)
		return nil
	}

	cfg := &config.Config{}
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k", "key":
			cfg.Key, cfg.Secret = key, ""
		case "secret":
			cfg.Secret = *secretRef
		case "concurrency":
			cfg.Concurrency = *concurrency
		case "rate":
			cfg.Rate = *rateLimit
		case "digest":
			cfg.Digest = *digest
		case "suffix":
			cfg.Suffix = *suffix
		case "exclude":
			cfg.Exclude = splitCSV(*exclude)
		case "ignore":
			cfg.Ignore = *ignore
		case "journal":
			cfg.Journal = *journalPath
		case "endpoint":
			cfg.BaseURL = *endpoint
		}
	})
	if *history != "" {
		return printHistory(ctx, cfg, *history, stdout)
	}
	apiKey, err := cfg.ResolveKey(ctx)
	if err != nil {
		return err
	}
	if apiKey == "" {
		flags.Usage()
		return nil
	}

	optConfig, err := cfg.Optimizer(tinypic.Version)
	if err != nil {
		return err
	}
	client := tinify.NewClient(apiKey, tinify.WithBaseURL(cfg.BaseURL), tinify.WithRate(cfg.Rate))
	var opts []optimizer.Option
	var compressions *journal.Journal
	if cfg.Journal != "" {
		location, err := cfg.JournalPath()
		if err != nil {
			return err
		}
		if compressions, err = journal.Open(ctx, location); err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() { _ = compressions.Close() }()
		opts = append(opts, optimizer.WithJournal(compressions))
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	stats := optimizer.New(client, optConfig, opts...).Run(ctx, paths...)
	if *showStats {
		fmt.Fprintln(stdout, stats.String())
		if compressions != nil {
			summary, err := compressions.Summary(ctx)
			if err != nil {
				log.Printf("journal summary: %v", err)
				return nil
			}
			fmt.Fprintf(stdout, "journal: files=%d bytes_in=%d bytes_out=%d saved=%d\n",
				summary.Files, summary.InputBytes, summary.OutputBytes, summary.Saved())
		}
	}
	return nil
}

func printHistory(ctx context.Context, cfg *config.Config, location string, stdout io.Writer) error {
	if cfg.Journal == "" {
		return fmt.Errorf("history: -journal is required")
	}
	journalPath, err := cfg.JournalPath()
	if err != nil {
		return err
	}
	compressions, err := journal.Open(ctx, journalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = compressions.Close() }()
	if abs, err := filepath.Abs(location); err == nil {
		location = abs
	}
	entries, err := compressions.Entries(ctx, location)
	if err != nil {
		return fmt.Errorf("history %s: %w", location, err)
	}
	for _, entry := range entries {
		fmt.Fprintf(stdout, "%s in=%d out=%d count=%d digest=%s %s\n",
			entry.CreatedAt.Format(time.RFC3339), entry.InputSize, entry.OutputSize, entry.Count, entry.Digest, entry.Path)
	}
	return nil
}

// parseArgs allows options after positional paths
func parseArgs(flags *flag.FlagSet, args []string) ([]string, error) {
	var paths []string
	for {
		if err := flags.Parse(args); err != nil {
			return nil, err
		}
		rest := flags.Args()
		if len(rest) == 0 {
			return paths, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(paths, rest...), nil
		}
		paths = append(paths, rest[0])
		args = rest[1:]
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
