package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout"
	"github.com/kailas-cloud/ideascout/internal/config"
	logpkg "github.com/kailas-cloud/ideascout/internal/logger"
	"github.com/kailas-cloud/ideascout/internal/version"
	"github.com/kailas-cloud/ideascout/pkg/sdk"
)

const maxLineSize = 1 << 20

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "ideascout-cli",
		Usage:   "Manage the idea catalog and run searches",
		Version: version.Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (default: config/<ENV>.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "Manage the catalog index",
				Subcommands: []*cli.Command{
					{Name: "create", Usage: "Create the index if missing", Action: indexCreateCommand},
					{Name: "drop", Usage: "Drop the index, keeping stored items", Action: indexDropCommand},
					{Name: "size", Usage: "Print the number of indexed items", Action: indexSizeCommand},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Embed and store catalog items from a JSON Lines file",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON Lines file, one item per line (- for stdin)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items sent per ingest call",
						Value: 500,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Run a search in-process and print progress events",
				Action: searchCommand,
				Flags:  searchFlags(),
			},
			{
				Name:   "watch",
				Usage:  "Run a search against a server and print its event stream",
				Action: watchCommand,
				Flags: append(searchFlags(),
					&cli.StringFlag{
						Name:    "server",
						Usage:   "Server base URL",
						Value:   "http://localhost:8080",
						EnvVars: []string{"IDEASCOUT_SERVER"},
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "Bearer token",
						EnvVars: []string{"IDEASCOUT_API_KEY"},
					},
				),
			},
		},
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "query",
			Aliases:  []string{"q"},
			Usage:    "Idea description",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:    "sources",
			Aliases: []string{"s"},
			Usage:   "Sources to search",
			Value:   cli.NewStringSlice("reddit", "product_hunt", "y_combinator", "hacker_news", "arxiv"),
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Number of results",
			Value: 10,
		},
		&cli.IntFlag{
			Name:  "recency",
			Usage: "Only items from the last N days (0 = no limit)",
		},
		&cli.StringSliceFlag{
			Name:  "category",
			Usage: "Category filter as source=category, repeatable",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Overall search deadline",
			Value: 2 * time.Minute,
		},
	}
}

// parseCategories turns "arxiv=cs.AI" pairs into a per-source map.
func parseCategories(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string)
	for _, p := range pairs {
		src, cat, ok := strings.Cut(p, "=")
		src, cat = strings.TrimSpace(src), strings.TrimSpace(cat)
		if !ok || src == "" || cat == "" {
			return nil, fmt.Errorf("category %q: expected source=category", p)
		}
		out[src] = append(out[src], cat)
	}
	return out, nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load(config.GetEnv())
}

// openClient builds an in-process client from the service configuration.
func openClient(c *cli.Context) (*ideascout.Client, *zap.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(config.GetEnv(), c.String("log-level"))
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	opts := []ideascout.Option{
		ideascout.WithAddrs(cfg.Database.Addrs, cfg.Database.Password),
		ideascout.WithOpenAI(cfg.Embedding.APIKey, cfg.Embedding.BaseURL),
		ideascout.WithEmbeddingModel(cfg.Embedding.Model, cfg.Embedding.Dimensions),
		ideascout.WithReasoningModel(cfg.Enrichment.Model),
		ideascout.WithEnrichmentTimeout(time.Duration(cfg.Enrichment.TimeoutSec) * time.Second),
		ideascout.WithLiterature(cfg.Literature.BaseURL, cfg.Literature.EmbedWorkers),
		ideascout.WithSimilarityThreshold(cfg.Search.SimilarityThreshold),
		ideascout.WithAdapterTimeout(time.Duration(cfg.Search.AdapterTimeoutSec) * time.Second),
		ideascout.WithHNSW(cfg.Catalog.HNSWM, cfg.Catalog.HNSWEFConstruct),
		ideascout.WithLogger(logger),
	}
	if cfg.Embedding.Cache.Enabled {
		opts = append(opts, ideascout.WithEmbeddingCache(time.Duration(cfg.Embedding.Cache.TTLHours)*time.Hour))
	}

	client, err := ideascout.New(c.Context, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}

func indexCreateCommand(c *cli.Context) error {
	client, _, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.EnsureIndex(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "index ready")
	return nil
}

func indexDropCommand(c *cli.Context) error {
	client, _, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DropIndex(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "index dropped")
	return nil
}

func indexSizeCommand(c *cli.Context) error {
	client, _, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	n, err := client.CatalogSize(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, n)
	return nil
}

func ingestCommand(c *cli.Context) error {
	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return errors.New("batch-size must be positive")
	}

	var in io.Reader = os.Stdin
	if path := c.String("file"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	client, logger, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.EnsureIndex(c.Context); err != nil {
		return err
	}

	var total ideascout.IngestReport
	flush := func(batch []ideascout.Item) error {
		rep, err := client.Ingest(c.Context, batch)
		if err != nil {
			return err
		}
		total.Stored += rep.Stored
		total.Skipped += rep.Skipped
		logger.Info("Batch ingested", zap.Int("stored", total.Stored), zap.Int("skipped", total.Skipped))
		return nil
	}

	malformed, err := readItems(in, batchSize, flush)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "stored=%d skipped=%d malformed=%d\n", total.Stored, total.Skipped, malformed)
	return nil
}

// readItems decodes JSON Lines from r and hands them to flush in batches.
// Blank lines are ignored; lines that do not decode are counted as malformed.
func readItems(r io.Reader, batchSize int, flush func([]ideascout.Item) error) (malformed int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	batch := make([]ideascout.Item, 0, batchSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var it ideascout.Item
		if err := json.Unmarshal([]byte(line), &it); err != nil {
			malformed++
			continue
		}
		batch = append(batch, it)
		if len(batch) == batchSize {
			if err := flush(batch); err != nil {
				return malformed, err
			}
			batch = make([]ideascout.Item, 0, batchSize)
		}
	}
	if err := sc.Err(); err != nil {
		return malformed, fmt.Errorf("read items: %w", err)
	}
	if len(batch) > 0 {
		if err := flush(batch); err != nil {
			return malformed, err
		}
	}
	return malformed, nil
}

func searchCommand(c *cli.Context) error {
	cats, err := parseCategories(c.StringSlice("category"))
	if err != nil {
		return err
	}
	req := &ideascout.SearchRequest{
		Query:       c.String("query"),
		Limit:       c.Int("limit"),
		RecencyDays: c.Int("recency"),
	}
	for _, s := range c.StringSlice("sources") {
		req.Sources = append(req.Sources, ideascout.Source(s))
	}
	if len(cats) > 0 {
		req.Categories = make(map[ideascout.Source][]string, len(cats))
		for s, v := range cats {
			req.Categories[ideascout.Source(s)] = v
		}
	}

	client, _, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := contextWithTimeout(c)
	defer cancel()

	return client.Search(ctx, req, func(ev ideascout.Event) error {
		return printEvent(c.App.Writer, string(ev.Type), ev.Message, ev.Items)
	})
}

func watchCommand(c *cli.Context) error {
	cats, err := parseCategories(c.StringSlice("category"))
	if err != nil {
		return err
	}
	client, err := sdk.NewClient(c.String("server"), sdk.WithAPIKey(c.String("api-key")))
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()

	return client.Search(ctx, &sdk.SearchParams{
		Query:      c.String("query"),
		Sources:    c.StringSlice("sources"),
		Recency:    c.Int("recency"),
		NumResults: c.Int("limit"),
		Categories: cats,
	}, func(ev sdk.Event) error {
		return printEvent(c.App.Writer, ev.Type, ev.Message, ev.Items)
	})
}

func printEvent(w io.Writer, typ, msg string, items []map[string]any) error {
	switch typ {
	case "results":
		if _, err := fmt.Fprintf(w, "[results] %d items\n", len(items)); err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		for _, it := range items {
			if err := enc.Encode(it); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintf(w, "[%s] %s\n", typ, msg)
		return err
	}
}
