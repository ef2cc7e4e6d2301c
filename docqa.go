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


// Package docqa answers questions about the documents attached to a project.
//
// Service wires the pipeline together: a SQLite project store, a local
// document tree, a badger session store and an OpenAI-compatible AI
// provider. It is the entry point used by the HTTP transport and the CLI.
package docqa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ai/openai"
	"github.com/poiesic/docqa/answer"
	"github.com/poiesic/docqa/chunking"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/document"
	"github.com/poiesic/docqa/index"
	"github.com/poiesic/docqa/retrieval"
	"github.com/poiesic/docqa/session"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
	"github.com/poiesic/docqa/storage/fs"
	"github.com/poiesic/docqa/storage/sqlite"
)

// Config holds the settings of a Service.
type Config struct {
	// DataDir holds projects.db.
	DataDir string

	// FilesDir is the root of the document tree, laid out as
	// <FilesDir>/<projectID>/docs/<file>.
	FilesDir string

	// SessionDir stores conversation sessions on disk. Empty keeps them in
	// memory, so they do not survive a restart.
	SessionDir string

	// AI configures the embedding and generation services.
	AI *ai.Config

	SessionTTL time.Duration
	MaxTurns   int

	ChunkTokens  int
	ChunkOverlap int

	PoolSize     int
	BatchSize    int
	EmbedTimeout time.Duration

	TopK int

	AnswerTokens      int
	Temperature       float64
	GenerationTimeout time.Duration
	HistoryTurns      int
}

// DefaultConfig returns the default settings, storing everything under dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		DataDir:           dir,
		FilesDir:          filepath.Join(dir, "project_files"),
		AI:                ai.DefaultConfig(),
		SessionTTL:        badger.DefaultSessionTTL,
		MaxTurns:          badger.DefaultMaxTurns,
		ChunkTokens:       chunking.DefaultMaxTokens,
		ChunkOverlap:      chunking.DefaultOverlap,
		BatchSize:         index.DefaultBatchSize,
		EmbedTimeout:      index.DefaultEmbedTimeout,
		TopK:              retrieval.DefaultTopK,
		AnswerTokens:      answer.DefaultMaxTokens,
		Temperature:       answer.DefaultTemperature,
		GenerationTimeout: answer.DefaultTimeout,
		HistoryTurns:      answer.DefaultHistoryTurns,
	}
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from Config.AI.
// The service takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Service is the question answering pipeline of all projects.
type Service struct {
	projects  *sqlite.ProjectStore
	files     *fs.FileStore
	backend   *badger.Backend
	sessions  *badger.SessionRepository
	provider  ai.AIProvider
	extractor *document.Extractor
	writer    *document.Writer
	builder   *index.Builder
	manager   *session.Manager
	logger    *slog.Logger
}

// New opens the stores and builds the pipeline described by cfg.
func New(cfg *Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("docqa: config is required")
	}
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	s := &Service{logger: logger.With("component", "service")}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	var err error
	if s.projects, err = sqlite.NewProjectStore(cfg.DataDir); err != nil {
		return nil, err
	}
	if s.files, err = fs.NewFileStore(cfg.FilesDir, fs.WithLogger(logger)); err != nil {
		return nil, err
	}

	if s.backend, err = badger.OpenBackend(cfg.SessionDir, cfg.SessionDir == ""); err != nil {
		return nil, err
	}
	s.sessions, err = badger.NewSessionRepository(s.backend,
		badger.WithSessionTTL(cfg.SessionTTL),
		badger.WithMaxTurns(cfg.MaxTurns),
		badger.WithSessionLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	s.provider = options.provider
	if s.provider == nil {
		aiConfig := cfg.AI
		if aiConfig == nil {
			aiConfig = ai.DefaultConfig()
		}
		if s.provider, err = openai.NewProvider(aiConfig); err != nil {
			return nil, err
		}
	}

	if s.extractor, err = document.NewExtractor(s.files, document.WithLogger(logger)); err != nil {
		return nil, err
	}
	if s.writer, err = document.NewWriter(s.files, document.WithLogger(logger)); err != nil {
		return nil, err
	}

	var chunkOpts []chunking.Option
	if cfg.ChunkTokens > 0 {
		chunkOpts = append(chunkOpts, chunking.WithMaxTokens(cfg.ChunkTokens))
	}
	if cfg.ChunkOverlap > 0 {
		chunkOpts = append(chunkOpts, chunking.WithOverlap(cfg.ChunkOverlap))
	}
	chunker, err := chunking.New(chunkOpts...)
	if err != nil {
		return nil, err
	}

	builderOpts := []index.Option{index.WithChunker(chunker), index.WithLogger(logger)}
	if cfg.PoolSize > 0 {
		builderOpts = append(builderOpts, index.WithPoolSize(cfg.PoolSize))
	}
	if cfg.BatchSize > 0 {
		builderOpts = append(builderOpts, index.WithBatchSize(cfg.BatchSize))
	}
	if cfg.EmbedTimeout > 0 {
		builderOpts = append(builderOpts, index.WithEmbedTimeout(cfg.EmbedTimeout))
	}
	if s.builder, err = index.NewBuilder(s.files, s.extractor, s.provider.Embedder(), builderOpts...); err != nil {
		return nil, err
	}

	retrieverOpts := []retrieval.Option{retrieval.WithLogger(logger)}
	if cfg.TopK > 0 {
		retrieverOpts = append(retrieverOpts, retrieval.WithTopK(cfg.TopK))
	}
	if cfg.EmbedTimeout > 0 {
		retrieverOpts = append(retrieverOpts, retrieval.WithEmbedTimeout(cfg.EmbedTimeout))
	}
	retriever, err := retrieval.NewRetriever(s.provider.Embedder(), retrieverOpts...)
	if err != nil {
		return nil, err
	}

	answerOpts := []answer.Option{
		answer.WithTemperature(cfg.Temperature),
		answer.WithHistoryTurns(cfg.HistoryTurns),
		answer.WithLogger(logger),
	}
	if cfg.AnswerTokens > 0 {
		answerOpts = append(answerOpts, answer.WithMaxTokens(cfg.AnswerTokens))
	}
	if cfg.GenerationTimeout > 0 {
		answerOpts = append(answerOpts, answer.WithTimeout(cfg.GenerationTimeout))
	}
	answers, err := answer.NewGenerator(s.provider.Generator(), answerOpts...)
	if err != nil {
		return nil, err
	}

	s.manager, err = session.NewManager(s.projects, s.builder, retriever, answers, s.sessions,
		session.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	ok = true
	return s, nil
}

// Close releases every resource held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.builder != nil {
		s.builder.Release()
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if s.sessions != nil {
		if err := s.sessions.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing session storage", "err", err)
			errs = append(errs, err)
		}
	}
	if s.projects != nil {
		if err := s.projects.Close(); err != nil {
			s.logger.Error("error closing project store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ask answers a question about a project's documents.
func (s *Service) Ask(ctx context.Context, projectID, question string) (*core.Answer, error) {
	return s.manager.Ask(ctx, core.Query{ProjectID: projectID, Question: question})
}

// AskWithMonitor is Ask with stage callbacks.
func (s *Service) AskWithMonitor(ctx context.Context, projectID, question string, monitor session.Monitor) (*core.Answer, error) {
	return s.manager.AskWithMonitor(ctx, core.Query{ProjectID: projectID, Question: question}, monitor)
}

// History returns the conversation of a project.
func (s *Service) History(ctx context.Context, projectID string) (*core.Session, error) {
	return s.manager.History(ctx, projectID)
}

// ResetSession discards the conversation of a project.
func (s *Service) ResetSession(ctx context.Context, projectID string) error {
	return s.manager.Reset(ctx, projectID)
}

// BuildIndex builds a project's index without asking anything, reporting
// embedding progress to progress when it is not nil.
func (s *Service) BuildIndex(ctx context.Context, projectID string, progress index.Progress) (*core.Index, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	var idx *core.Index
	err := s.manager.WithProjectLock(ctx, projectID, func(ctx context.Context) error {
		var err error
		idx, err = s.builder.BuildWithProgress(ctx, projectID, progress)
		return err
	})
	return idx, err
}

// CreateProject stores a new project.
func (s *Service) CreateProject(ctx context.Context, project *core.Project) (*core.Project, error) {
	return s.projects.CreateProject(ctx, project)
}

// GetProject returns a project.
func (s *Service) GetProject(ctx context.Context, projectID string) (*core.Project, error) {
	return s.projects.GetProject(ctx, projectID)
}

// ListProjects returns every project, oldest first.
func (s *Service) ListProjects(ctx context.Context) ([]*core.Project, error) {
	return s.projects.ListProjects(ctx)
}

// DeleteProject removes a project's files, its conversation and its record.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return err
	}
	return s.manager.WithProjectLock(ctx, projectID, func(ctx context.Context) error {
		if err := s.files.DeleteProjectFiles(ctx, projectID); err != nil {
			return fmt.Errorf("deleting files of project %s: %w", projectID, err)
		}
		if err := s.sessions.Delete(ctx, projectID); err != nil {
			return fmt.Errorf("deleting session of project %s: %w", projectID, err)
		}
		if err := s.projects.DeleteProject(ctx, projectID); err != nil {
			return err
		}
		s.logger.Info("project deleted", "project", projectID)
		return nil
	})
}

// AddDocument stores data as the document called name, replacing any
// document of that name.
func (s *Service) AddDocument(ctx context.Context, projectID, name string, data []byte) (core.Document, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return core.Document{}, err
	}
	if err := validateName(name); err != nil {
		return core.Document{}, err
	}
	var doc core.Document
	err := s.manager.WithProjectLock(ctx, projectID, func(ctx context.Context) error {
		var err error
		doc, err = s.files.AddDocument(ctx, projectID, name, data)
		return err
	})
	if err != nil {
		return core.Document{}, err
	}
	s.logger.Info("document added", "project", projectID, "path", doc.Path, "bytes", len(data))
	return doc, nil
}

// ListDocuments returns the documents of a project. A project without
// documents has an empty list.
func (s *Service) ListDocuments(ctx context.Context, projectID string) ([]core.Document, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	docs, err := s.files.ListDocuments(ctx, projectID)
	if errors.Is(err, core.ErrDocumentNotFound) {
		return []core.Document{}, nil
	}
	return docs, err
}

// DocumentName returns the name under which doc is addressed in its project.
func (s *Service) DocumentName(doc core.Document) string {
	return s.files.DocumentName(doc)
}

// DocumentText returns the plain text of a project document.
func (s *Service) DocumentText(ctx context.Context, projectID, name string) (string, error) {
	doc, err := s.resolve(ctx, projectID, name)
	if err != nil {
		return "", err
	}
	return s.extractor.ExtractDocument(ctx, doc)
}

// SaveDocument replaces a project document with content in the document's
// own format. pdf documents cannot be saved.
func (s *Service) SaveDocument(ctx context.Context, projectID, name, content string) error {
	doc, err := s.resolve(ctx, projectID, name)
	if err != nil {
		return err
	}
	if !doc.Format.Writable() {
		return fmt.Errorf("%w: cannot write %s", core.ErrUnsupportedFormat, name)
	}
	return s.manager.WithProjectLock(ctx, projectID, func(ctx context.Context) error {
		return s.writer.WriteDocument(ctx, doc, content)
	})
}

func (s *Service) resolve(ctx context.Context, projectID, name string) (core.Document, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return core.Document{}, err
	}
	if err := validateName(name); err != nil {
		return core.Document{}, err
	}
	return s.files.ResolveDocument(ctx, projectID, name)
}

// validateName rejects names with an unsupported extension or that would
// escape the project's document directory.
func validateName(name string) error {
	if _, err := core.FormatFromPath(name); err != nil {
		return err
	}
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)) {
		return fmt.Errorf("%w: %w: %q", core.ErrValidation, storage.ErrInvalidPath, name)
	}
	return nil
}
