// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/poiesic/ragcache"
	"github.com/poiesic/ragcache/config"
	"github.com/urfave/cli/v2"
)

// lockTimeout bounds how long a command waits for another process to
// release the cache lock.
const lockTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ragcache",
		Usage: "Routed retrieval-augmented answers with a semantic response cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"RAGCACHE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding the chunk store (overrides config)",
			},
			&cli.StringFlag{
				Name:  "cache-file",
				Usage: "Semantic cache snapshot path (overrides config)",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Bearer token for the model hosts (overrides config)",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "ares-api-key",
				Usage:   "ARES web search API key, used when the config has none",
				EnvVars: []string{"ARES_API_KEY"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			askCommand(),
			ingestCommand(),
			reembedCommand(),
			collectionsCommand(),
			cacheCommand(),
			logsCommand(),
		},
	}
}

// loadConfig reads the config file, if any, and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("cache-file") {
		cfg.Cache.Path = c.String("cache-file")
	}
	if key := c.String("api-key"); key != "" {
		cfg.AI.APIKey = key
	}
	if key := c.String("ares-api-key"); key != "" && cfg.Web.AresAPIKey == "" {
		cfg.Web.AresAPIKey = key
	}
	return cfg, nil
}

// withEngine opens an Engine for the duration of fn while holding the
// lock file next to the cache snapshot.
func withEngine(c *cli.Context, cfg *config.Config, fn func(context.Context, *ragcache.Engine) error) error {
	unlock, err := acquireLock(cfg.Cache.Path+".lock", lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	engine, err := ragcache.Open(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	return fn(ctx, engine)
}

// acquireLock takes an exclusive lock on path, retrying until timeout.
func acquireLock(path string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create lock directory: %w", err)
	}

	l := flock.New(path)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	locked, err := l.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("cannot acquire cache lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("cache is in use by another process (lock: %s)", path)
	}
	return func() { _ = l.Unlock() }, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
