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
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ai/openai"
	"github.com/poiesic/docqa/answer"
	"github.com/poiesic/docqa/chunking"
	"github.com/poiesic/docqa/index"
	"github.com/poiesic/docqa/retrieval"
	"github.com/poiesic/docqa/storage/badger"
	"github.com/urfave/cli/v2"
)

// newProvider builds the AI provider used by every command.
var newProvider = openai.NewProvider

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "docqa",
		Usage:    "Ask questions about the documents of a project",
		Flags:    globalFlags(),
		Before:   setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8080",
						EnvVars: []string{"DOCQA_ADDR"},
					},
					&cli.Int64Flag{
						Name:  "max-body",
						Usage: "Maximum request body size in bytes",
						Value: 32 << 20,
					},
				},
			},
			{
				Name:        "project",
				Usage:       "Manage projects",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a project",
						Action: projectCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "Project name", Required: true},
							&cli.StringFlag{Name: "id", Usage: "Explicit numeric project id"},
							&cli.StringFlag{Name: "tag", Usage: "Short tag"},
							&cli.StringFlag{Name: "description", Usage: "Description"},
						},
					},
					{
						Name:   "list",
						Usage:  "List projects",
						Action: projectListCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete a project with its documents and conversation",
						ArgsUsage: "<project-id>",
						Action:    projectDeleteCommand,
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Add files to a project",
				ArgsUsage: "<file>...",
				Action:    addCommand,
				Flags:     []cli.Flag{projectFlag()},
			},
			{
				Name:   "docs",
				Usage:  "List the documents of a project",
				Action: docsCommand,
				Flags:  []cli.Flag{projectFlag()},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question about a project",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					projectFlag(),
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print the stages of the pipeline",
					},
				},
			},
			{
				Name:   "history",
				Usage:  "Print the conversation of a project",
				Action: historyCommand,
				Flags:  []cli.Flag{projectFlag()},
			},
			{
				Name:   "reset",
				Usage:  "Discard the conversation of a project",
				Action: resetCommand,
				Flags:  []cli.Flag{projectFlag()},
			},
			{
				Name:   "index",
				Usage:  "Build a project index and report its size",
				Action: indexCommand,
				Flags: []cli.Flag{
					projectFlag(),
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 32,
					},
				},
			},
			{
				Name:      "extract",
				Usage:     "Print the plain text of a document file",
				ArgsUsage: "<file>",
				Action:    extractCommand,
			},
		},
	}
}

func projectFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "project",
		Aliases:  []string{"p"},
		Usage:    "Project id",
		Required: true,
		EnvVars:  []string{"DOCQA_PROJECT"},
	}
}

func globalFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"DOCQA_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Directory holding projects.db and project files",
			Value:   "./data",
			EnvVars: []string{"DOCQA_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "session-dir",
			Usage:   "Directory for persistent sessions (in memory when empty)",
			EnvVars: []string{"DOCQA_SESSION_DIR"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   defaults.EmbeddingHost,
			EnvVars: []string{"DOCQA_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   defaults.EmbeddingModel,
			EnvVars: []string{"DOCQA_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "generation-host",
			Usage:   "Generation service host URL",
			Value:   defaults.GenerationHost,
			EnvVars: []string{"DOCQA_GENERATION_HOST"},
		},
		&cli.StringFlag{
			Name:    "generation-model",
			Usage:   "Generation model name",
			Value:   defaults.GenerationModel,
			EnvVars: []string{"DOCQA_GENERATION_MODEL"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API key sent to the AI services",
			Value:   defaults.Token,
			EnvVars: []string{"DOCQA_API_TOKEN"},
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed embedding batches",
			Value: defaults.MaxRetries,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: defaults.RetryDelay,
		},
		&cli.IntFlag{
			Name:  "chunk-tokens",
			Usage: "Maximum words per chunk",
			Value: chunking.DefaultMaxTokens,
		},
		&cli.IntFlag{
			Name:  "chunk-overlap",
			Usage: "Words shared by consecutive windows of a long paragraph",
			Value: chunking.DefaultOverlap,
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Number of chunks given to the generator",
			Value: retrieval.DefaultTopK,
		},
		&cli.IntFlag{
			Name:  "pool-size",
			Usage: "Documents extracted concurrently (0 picks from CPU count)",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Chunks per embedding request",
			Value: index.DefaultBatchSize,
		},
		&cli.DurationFlag{
			Name:  "embed-timeout",
			Usage: "Time allowed for embedding a whole project",
			Value: index.DefaultEmbedTimeout,
		},
		&cli.DurationFlag{
			Name:  "generation-timeout",
			Usage: "Time allowed for generating one answer",
			Value: answer.DefaultTimeout,
		},
		&cli.IntFlag{
			Name:  "history-turns",
			Usage: "Previous turns included in the prompt",
			Value: answer.DefaultHistoryTurns,
		},
		&cli.DurationFlag{
			Name:    "session-ttl",
			Usage:   "How long an idle conversation is kept",
			Value:   badger.DefaultSessionTTL,
			EnvVars: []string{"DOCQA_SESSION_TTL"},
		},
		&cli.IntFlag{
			Name:  "max-turns",
			Usage: "Turns kept per conversation",
			Value: badger.DefaultMaxTurns,
		},
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
