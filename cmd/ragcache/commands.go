package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/ragcache"
	"github.com/poiesic/ragcache/config"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/ingestion"
	"github.com/poiesic/ragcache/pipeline"
	"github.com/poiesic/ragcache/querylog"
	"github.com/poiesic/ragcache/reembed"
	"github.com/urfave/cli/v2"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a question, splitting and routing it as needed",
		ArgsUsage: "QUESTION...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-web",
				Usage: "Do not perform internet searches",
			},
			&cli.BoolFlag{
				Name:  "show-route",
				Usage: "Print the route chosen for each sub-question",
			},
		},
		Action: func(c *cli.Context) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return errors.New("a question is required")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.Bool("no-web") {
				cfg.Web.Enabled = false
			}

			return withEngine(c, cfg, func(ctx context.Context, engine *ragcache.Engine) error {
				results, err := engine.AskDetailed(ctx, query)
				printResults(c.App.Writer, results, c.Bool("show-route"))
				return err
			})
		},
	}
}

func printResults(w io.Writer, results []pipeline.Result, showRoute bool) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Q: %s\n", r.Question)
		if showRoute {
			fmt.Fprintf(w, "Route: %s (%s)\n", r.Route.Action, r.Route.Reason)
		}
		if r.Err != nil {
			fmt.Fprintf(w, "Error: %v\n", r.Err)
			continue
		}
		fmt.Fprintf(w, "A: %s\n", r.Answer)
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Chunk, embed and store text files in a collection",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "collection",
				Usage: "Target collection name",
			},
			&cli.StringFlag{
				Name:  "action",
				Usage: "Route whose configured collection receives the files (e.g. OPENAI_QUERY)",
			},
			&cli.IntFlag{
				Name:  "max-chunk-size",
				Usage: "Maximum chunk length in characters (overrides config)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chunks per embedding request (overrides config)",
			},
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Number of concurrent embedding workers (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("at least one file is required")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			collection, err := targetCollection(cfg, c.String("collection"), c.String("action"))
			if err != nil {
				return err
			}
			opts := ingestOptions(c)
			// Ingestion never searches the web.
			cfg.Web.Enabled = false

			return withEngine(c, cfg, func(ctx context.Context, engine *ragcache.Engine) error {
				p, err := engine.NewIngestionPipeline(opts...)
				if err != nil {
					return err
				}
				defer p.Release()

				stored, err := p.IngestFiles(ctx, collection, c.Args().Slice()...)
				if err != nil {
					return fmt.Errorf("ingestion failed: %w", err)
				}
				fmt.Fprintf(c.App.Writer, "Stored %d chunks from %d files in %s\n", len(stored), c.NArg(), collection)
				return nil
			})
		},
	}
}

// ingestOptions turns the ingest flags into pipeline options that
// override the configured ingestion settings.
func ingestOptions(c *cli.Context) []ingestion.Option {
	var opts []ingestion.Option
	if c.IsSet("max-chunk-size") {
		opts = append(opts, ingestion.WithMaxChunkSize(c.Int("max-chunk-size")))
	}
	if c.IsSet("batch-size") {
		opts = append(opts, ingestion.WithBatchSize(c.Int("batch-size")))
	}
	if c.IsSet("pool-size") {
		opts = append(opts, ingestion.WithPoolSize(c.Int("pool-size")))
	}
	return opts
}

// targetCollection resolves --collection or --action to a collection name.
func targetCollection(cfg *config.Config, collection, action string) (string, error) {
	switch {
	case collection != "" && action != "":
		return "", errors.New("use either --collection or --action, not both")
	case collection != "":
		return collection, nil
	case action != "":
		name, ok := cfg.ActionCollections()[core.Action(action)]
		if !ok {
			return "", fmt.Errorf("no collection configured for action %q", action)
		}
		return name, nil
	default:
		return "", errors.New("--collection or --action is required")
	}
}

func reembedCommand() *cli.Command {
	return &cli.Command{
		Name:  "reembed",
		Usage: "Re-embed stored chunks with the configured embedding model",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "collection",
				Usage: "Collection to re-embed (repeatable, default all)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides config)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chunks to process in each batch",
				Value: reembed.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N chunks",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum retry attempts for failed operations",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: 1 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "keep-cache",
				Usage: "Keep cached answers (they were keyed with the previous model)",
			},
		},
		Action: func(c *cli.Context) error {
			reembedConfig := &reembed.Config{
				Collections:    c.StringSlice("collection"),
				BatchSize:      c.Int("batch-size"),
				ReportInterval: c.Int("report-interval"),
				MaxRetries:     c.Int("max-retries"),
				RetryDelay:     c.Duration("retry-delay"),
				MaxRetryDelay:  reembed.DefaultConfig().MaxRetryDelay,
			}
			if reembedConfig.BatchSize <= 0 {
				return fmt.Errorf("batch-size must be greater than 0")
			}
			if reembedConfig.ReportInterval <= 0 {
				return fmt.Errorf("report-interval must be greater than 0")
			}
			if reembedConfig.MaxRetries <= 0 {
				return fmt.Errorf("max-retries must be greater than 0")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("embedding-host") {
				cfg.AI.EmbeddingHost = c.String("embedding-host")
			}
			if c.IsSet("embedding-model") {
				cfg.AI.EmbeddingModel = c.String("embedding-model")
			}
			cfg.Web.Enabled = false

			return withEngine(c, cfg, func(ctx context.Context, engine *ragcache.Engine) error {
				fmt.Fprintf(os.Stderr, "Data directory: %s\n", cfg.DataDir)
				fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
				fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
				fmt.Fprintln(os.Stderr)

				r, err := engine.NewReembedder(reembedConfig, os.Stderr)
				if err != nil {
					return err
				}
				if _, err := r.Run(ctx); err != nil {
					return fmt.Errorf("re-embedding failed: %w", err)
				}

				if c.Bool("keep-cache") {
					return nil
				}
				removed, err := engine.Cache().Clear(ctx)
				if err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Cleared %d cached answers\n", removed)
				return nil
			})
		},
	}
}

func collectionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "collections",
		Usage: "Inspect and manage chunk collections",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List collections and their chunk counts",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					cfg.Web.Enabled = false
					return withEngine(c, cfg, func(ctx context.Context, engine *ragcache.Engine) error {
						repo := engine.ChunkRepository()
						names, err := repo.Collections(ctx)
						if err != nil {
							return err
						}
						for _, name := range names {
							n, err := repo.CountChunks(ctx, name)
							if err != nil {
								return err
							}
							fmt.Fprintf(c.App.Writer, "%s\t%d\n", name, n)
						}
						return nil
					})
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete every chunk in a collection",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("exactly one collection name is required")
					}
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					cfg.Web.Enabled = false
					return withEngine(c, cfg, func(ctx context.Context, engine *ragcache.Engine) error {
						removed, err := engine.ChunkRepository().DeleteCollection(ctx, c.Args().First())
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "Deleted %d chunks\n", removed)
						return nil
					})
				},
			},
		},
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and invalidate the semantic cache",
		Subcommands: []*cli.Command{
			{
				Name:  "info",
				Usage: "Show cache size and threshold",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "List cached questions and their context sizes",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					cfg.Web.Enabled = false
					return withEngine(c, cfg, func(ctx context.Context, engine *ragcache.Engine) error {
						sc := engine.Cache()
						w := c.App.Writer
						fmt.Fprintf(w, "Path:      %s\n", cfg.Cache.Path)
						fmt.Fprintf(w, "Entries:   %d\n", sc.Len())
						fmt.Fprintf(w, "Threshold: %g\n", sc.Threshold())
						if c.Bool("verbose") {
							for i, entry := range sc.Entries() {
								fmt.Fprintf(w, "%4d  [%d chunks] %s\n", i+1, len(entry.Context), entry.Question)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "invalidate",
				Usage: "Drop every cached answer produced from exactly the given context",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "chunk",
						Usage: "Context chunk, in retrieval order (repeatable; none means web answers)",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					cfg.Web.Enabled = false
					chunks := c.StringSlice("chunk")
					if chunks == nil {
						chunks = []string{}
					}
					return withEngine(c, cfg, func(ctx context.Context, engine *ragcache.Engine) error {
						removed, err := engine.Cache().InvalidateForContext(ctx, chunks)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "Removed %d cached answers\n", removed)
						return nil
					})
				},
			},
		},
	}
}

func logsCommand() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Report on the query log",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show totals, cache-hit rate, latency and route counts",
				Action: func(c *cli.Context) error {
					return withQueryLog(c, func(ctx context.Context, reader querylog.Reader) error {
						stats, err := reader.Stats(ctx)
						if err != nil {
							return err
						}
						return stats.WriteReport(c.App.Writer)
					})
				},
			},
			{
				Name:  "recent",
				Usage: "Show the most recent entries",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of entries to show",
						Value:   10,
					},
				},
				Action: func(c *cli.Context) error {
					return withQueryLog(c, func(ctx context.Context, reader querylog.Reader) error {
						entries, err := reader.Recent(ctx, c.Int("limit"))
						if err != nil {
							return err
						}
						printEntries(c.App.Writer, entries)
						return nil
					})
				},
			},
		},
	}
}

// withQueryLog opens the configured query log for reading without
// starting the rest of the engine.
func withQueryLog(c *cli.Context, fn func(context.Context, querylog.Reader) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var reader interface {
		querylog.Reader
		Close() error
	}
	switch cfg.QueryLog.Backend {
	case config.LogBackendJSONL:
		reader = querylog.NewJSONLReader(cfg.QueryLog.Path)
	case config.LogBackendSQLite:
		reader, err = querylog.NewSQLiteSink(cfg.QueryLog.Path)
		if err != nil {
			return err
		}
	default:
		return ragcache.ErrQueryLogUnreadable
	}
	defer reader.Close()

	return fn(c.Context, reader)
}

func printEntries(w io.Writer, entries []querylog.Entry) {
	for _, e := range entries {
		hit := ""
		if e.CacheHit {
			hit = " [cache hit]"
		}
		fmt.Fprintf(w, "%s  %-20s %6.2fs%s  %s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Action, e.LatencySeconds, hit, e.SubQuery)
		if e.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", e.Error)
		} else if e.AnswerPreview != "" {
			fmt.Fprintf(w, "    %s\n", e.AnswerPreview)
		}
	}
}
