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


package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docqa/answer"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// IndexBuilder builds the index of a project. *index.Builder satisfies it.
type IndexBuilder interface {
	Build(ctx context.Context, projectID string) (*core.Index, error)
}

// Retriever selects the chunks of an index relevant to a question.
// *retrieval.Retriever satisfies it.
type Retriever interface {
	RetrieveText(ctx context.Context, index *core.Index, question string) ([]core.ScoredChunk, error)
}

// AnswerGenerator produces a raw answer. *answer.Generator satisfies it.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, chunks []core.ScoredChunk, history []core.Turn) (string, error)
}

// Manager answers questions and owns per-project conversation state.
type Manager struct {
	projects  storage.ProjectStore
	builder   IndexBuilder
	retriever Retriever
	generator AnswerGenerator
	sessions  storage.SessionRepository
	post      *answer.PostProcessor
	locks     *lockTable
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager) error

// WithPostProcessor sets how raw answers are cleaned up.
// Default strips <think>...</think> blocks.
func WithPostProcessor(post *answer.PostProcessor) Option {
	return func(m *Manager) error {
		if post != nil {
			m.post = post
		}
		return nil
	}
}

// WithClock sets the time source for turn timestamps.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates a new session manager.
func NewManager(
	projects storage.ProjectStore,
	builder IndexBuilder,
	retriever Retriever,
	generator AnswerGenerator,
	sessions storage.SessionRepository,
	opts ...Option,
) (*Manager, error) {
	if projects == nil {
		return nil, ErrProjectStoreRequired
	}
	if builder == nil {
		return nil, ErrIndexBuilderRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}

	m := &Manager{
		projects:  projects,
		builder:   builder,
		retriever: retriever,
		generator: generator,
		sessions:  sessions,
		post:      answer.NewPostProcessor(answer.ThinkOpen, answer.ThinkClose),
		locks:     newLockTable(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.logger = m.logger.With("component", "session-manager")
	return m, nil
}

// Ask answers a question against the current documents of a project and
// records the exchange in the project's history.
func (m *Manager) Ask(ctx context.Context, query core.Query) (*core.Answer, error) {
	return m.AskWithMonitor(ctx, query, nil)
}

// AskWithMonitor is Ask with a monitor receiving callbacks at each stage.
// Nothing is appended to the history unless every stage succeeds.
func (m *Manager) AskWithMonitor(ctx context.Context, query core.Query, monitor Monitor) (result *core.Answer, err error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := core.ValidateQuery(&query); err != nil {
		return nil, err
	}
	if _, err := m.projects.GetProject(ctx, query.ProjectID); err != nil {
		return nil, err
	}

	lock := m.locks.get(query.ProjectID)
	if err := lock.Lock(ctx); err != nil {
		m.logger.Debug("gave up waiting for project", "project", query.ProjectID, "err", err)
		return nil, err
	}
	defer lock.Unlock()

	monitor.Start(query)
	defer func() { monitor.Finish(result, err) }()

	start := time.Now()
	idx, err := m.builder.Build(ctx, query.ProjectID)
	if err != nil {
		m.logger.Error("error building index", "project", query.ProjectID, "err", err)
		return nil, err
	}
	monitor.AfterIndexBuild(idx)

	chunks, err := m.retriever.RetrieveText(ctx, idx, query.Question)
	if err != nil {
		m.logger.Error("error retrieving context", "project", query.ProjectID, "err", err)
		return nil, err
	}
	monitor.AfterRetrieval(chunks)

	history, err := m.history(ctx, query.ProjectID)
	if err != nil {
		return nil, err
	}

	raw, err := m.generator.Generate(ctx, query.Question, chunks, history)
	if err != nil {
		return nil, err
	}
	monitor.AfterGeneration(raw)

	text := m.post.Process(raw)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	_, err = m.sessions.Append(ctx, query.ProjectID,
		core.Turn{Role: core.RoleUser, Content: query.Question, At: now},
		core.Turn{Role: core.RoleAssistant, Content: text, At: now},
	)
	if err != nil {
		m.logger.Error("error recording turns", "project", query.ProjectID, "err", err)
		return nil, fmt.Errorf("recording turns: %w", err)
	}

	m.logger.Info("answered question", "project", query.ProjectID,
		"chunks", len(idx.Chunks), "context", len(chunks), "elapsed", time.Since(start))
	return &core.Answer{Question: query.Question, Answer: text}, nil
}

// History returns the session of a project. A project that has not been
// asked anything yet has an empty session with no id.
func (m *Manager) History(ctx context.Context, projectID string) (*core.Session, error) {
	if _, err := m.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	sess, err := m.sessions.Get(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return &core.Session{ProjectID: projectID, History: []core.Turn{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Reset discards the history of a project. It waits behind questions
// already accepted for the project.
func (m *Manager) Reset(ctx context.Context, projectID string) error {
	if _, err := m.projects.GetProject(ctx, projectID); err != nil {
		return err
	}
	lock := m.locks.get(projectID)
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	if err := m.sessions.Delete(ctx, projectID); err != nil {
		return err
	}
	m.logger.Info("session reset", "project", projectID)
	return nil
}

// WithProjectLock runs fn while holding the project's lock, so it does not
// interleave with questions for that project.
func (m *Manager) WithProjectLock(ctx context.Context, projectID string, fn func(ctx context.Context) error) error {
	lock := m.locks.get(projectID)
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn(ctx)
}

func (m *Manager) history(ctx context.Context, projectID string) ([]core.Turn, error) {
	sess, err := m.sessions.Get(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return sess.History, nil
}
