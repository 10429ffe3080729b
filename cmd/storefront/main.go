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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "storefront",
		Usage: "Semantic product assistant for a sporting-goods shop",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file loaded before reading configuration",
				Value: ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "init-schema",
				Usage:  "Create the product index and the customer keyspace",
				Action: initSchemaCommand,
			},
			{
				Name:      "ingest",
				Usage:     "Embed a JSON product catalog and index it",
				ArgsUsage: "<catalog.json>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding workers (defaults to STOREFRONT_POOL_SIZE)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute the embedding of every indexed product",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (defaults to OPENAI_EMBEDDING_MODEL)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of products to embed in each request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N products",
						Value: 100,
					},
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "Scale vectors to unit length before storing them",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the closest products",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:      "match",
				Usage:     "Full-text match against product descriptions",
				ArgsUsage: "<query>",
				Action:    matchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of products to list",
						Value: 5,
					},
				},
			},
			{
				Name:  "profile",
				Usage: "Manage customer profiles",
				Subcommands: []*cli.Command{
					{
						Name:   "put",
						Usage:  "Store a customer profile",
						Action: profilePutCommand,
						Flags: []cli.Flag{
							userIDFlag(true),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Customer name",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "email",
								Usage: "Customer email address",
							},
							&cli.StringSliceFlag{
								Name:    "transaction",
								Aliases: []string{"t"},
								Usage:   "Past transaction, repeatable",
							},
						},
					},
					{
						Name:   "get",
						Usage:  "Print a customer profile as JSON",
						Action: profileGetCommand,
						Flags:  []cli.Flag{userIDFlag(true)},
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Interactive conversation with the assistant; type exit to quit",
				Action: chatCommand,
				Flags:  []cli.Flag{userIDFlag(false)},
			},
			{
				Name:   "serve",
				Usage:  "Serve the chat API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (defaults to STOREFRONT_LISTEN_ADDR)",
					},
					&cli.StringSliceFlag{
						Name:  "allow-origin",
						Usage: "Allowed CORS origin, repeatable (default any)",
					},
				},
			},
		},
	}
}

func userIDFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "user-id",
		Aliases:  []string{"u"},
		Usage:    "Customer ID",
		Required: required,
	}
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
