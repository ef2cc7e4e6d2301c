package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/docqa"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/document"
	"github.com/poiesic/docqa/httpapi"
	"github.com/poiesic/docqa/index"
	"github.com/urfave/cli/v2"
)

// serviceConfig maps the global flags onto a service configuration.
func serviceConfig(c *cli.Context) (*docqa.Config, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationHost(c.String("generation-host")),
		ai.WithGenerationModel(c.String("generation-model")),
		ai.WithToken(c.String("token")),
		ai.WithMaxRetries(c.Int("max-retries")),
		ai.WithRetryDelay(c.Duration("retry-delay")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	cfg := docqa.DefaultConfig(c.String("data-dir"))
	cfg.SessionDir = c.String("session-dir")
	cfg.AI = aiConfig
	cfg.ChunkTokens = c.Int("chunk-tokens")
	cfg.ChunkOverlap = c.Int("chunk-overlap")
	cfg.TopK = c.Int("top-k")
	cfg.PoolSize = c.Int("pool-size")
	cfg.BatchSize = c.Int("batch-size")
	cfg.EmbedTimeout = c.Duration("embed-timeout")
	cfg.GenerationTimeout = c.Duration("generation-timeout")
	cfg.HistoryTurns = c.Int("history-turns")
	cfg.SessionTTL = c.Duration("session-ttl")
	cfg.MaxTurns = c.Int("max-turns")
	return cfg, nil
}

func openService(c *cli.Context) (*docqa.Service, error) {
	cfg, err := serviceConfig(c)
	if err != nil {
		return nil, err
	}
	provider, err := newProvider(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	svc, err := docqa.New(cfg, docqa.WithProvider(provider), docqa.WithLogger(slog.Default()))
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return svc, nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func serveCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signalContext(c)
	defer stop()

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Service:      svc,
		Logger:       slog.Default(),
		MaxBodyBytes: c.Int64("max-body"),
	})
	return httpapi.NewServer(c.String("addr"), router, slog.Default()).Run(ctx)
}

func projectCreateCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	project, err := svc.CreateProject(c.Context, &core.Project{
		ID:          c.String("id"),
		Name:        c.String("name"),
		Tag:         c.String("tag"),
		Description: c.String("description"),
	})
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Created project %s (%s)\n", project.ID, project.Name)
	return nil
}

func projectListCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	projects, err := svc.ListProjects(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Status, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func projectDeleteCommand(c *cli.Context) error {
	projectID := c.Args().First()
	if projectID == "" {
		return errors.New("project id is required")
	}
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.DeleteProject(c.Context, projectID); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted project %s\n", projectID)
	return nil
}

func addCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one file is required")
	}
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	projectID := c.String("project")
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := svc.AddDocument(c.Context, projectID, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("adding %s: %w", path, err)
		}
		fmt.Fprintf(c.App.Writer, "Added %s (%s, %d bytes)\n", svc.DocumentName(doc), doc.Format, len(data))
	}
	return nil
}

func docsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	docs, err := svc.ListDocuments(c.Context, c.String("project"))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", svc.DocumentName(doc), doc.Format)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signalContext(c)
	defer stop()

	var result *core.Answer
	if c.Bool("verbose") {
		result, err = svc.AskWithMonitor(ctx, c.String("project"), question, newVerboseMonitor(c.App.ErrWriter))
	} else {
		result, err = svc.Ask(ctx, c.String("project"), question)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", core.Kind(err), err)
	}
	fmt.Fprintln(c.App.Writer, result.Answer)
	return nil
}

func historyCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	session, err := svc.History(c.Context, c.String("project"))
	if err != nil {
		return err
	}
	for _, turn := range session.History {
		fmt.Fprintf(c.App.Writer, "[%s] %s: %s\n", turn.At.Local().Format("15:04:05"), turn.Role, turn.Content)
	}
	return nil
}

func resetCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.ResetSession(c.Context, c.String("project"))
}

func indexCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signalContext(c)
	defer stop()

	start := time.Now()
	tracker := index.NewProgressTracker(c.App.ErrWriter, c.Int("report-interval"))
	idx, err := svc.BuildIndex(ctx, c.String("project"), tracker)
	if err != nil {
		return err
	}

	docs := make(map[core.ID]struct{})
	for _, chunk := range idx.Chunks {
		docs[chunk.DocumentID] = struct{}{}
	}
	fmt.Fprintf(c.App.Writer, "Indexed %d chunks from %d documents in %s\n",
		len(idx.Chunks), len(docs), time.Since(start).Round(time.Millisecond))
	return nil
}

func extractCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("a file is required")
	}
	format, err := core.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := document.ExtractBytes(format, data)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, text)
	return nil
}
