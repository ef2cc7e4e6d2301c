package session

import "github.com/poiesic/docqa/core"

// Monitor provides hooks to observe how a question is answered.
// Hooks run on the asking goroutine while the project lock is held.
type Monitor interface {
	Start(query core.Query)
	AfterIndexBuild(index *core.Index)
	AfterRetrieval(chunks []core.ScoredChunk)
	AfterGeneration(raw string)
	Finish(answer *core.Answer, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query)                  {}
func (n *noopMonitor) AfterIndexBuild(_ *core.Index)       {}
func (n *noopMonitor) AfterRetrieval(_ []core.ScoredChunk) {}
func (n *noopMonitor) AfterGeneration(_ string)            {}
func (n *noopMonitor) Finish(_ *core.Answer, _ error)      {}
