package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/session"
)

// verboseMonitor prints the stages of a question as they complete.
type verboseMonitor struct {
	w     io.Writer
	start time.Time
	last  time.Time
}

var _ session.Monitor = (*verboseMonitor)(nil)

func newVerboseMonitor(w io.Writer) *verboseMonitor {
	return &verboseMonitor{w: w}
}

func (m *verboseMonitor) step() time.Duration {
	now := time.Now()
	d := now.Sub(m.last)
	m.last = now
	return d.Round(time.Millisecond)
}

func (m *verboseMonitor) Start(q core.Query) {
	m.start = time.Now()
	m.last = m.start
	fmt.Fprintf(m.w, "project %s: %q\n", q.ProjectID, q.Question)
}

func (m *verboseMonitor) AfterIndexBuild(idx *core.Index) {
	fmt.Fprintf(m.w, "  index: %d chunks (%s)\n", len(idx.Chunks), m.step())
}

func (m *verboseMonitor) AfterRetrieval(chunks []core.ScoredChunk) {
	fmt.Fprintf(m.w, "  retrieval: %d chunks (%s)\n", len(chunks), m.step())
	for i, sc := range chunks {
		fmt.Fprintf(m.w, "    %d: [%0.3f] %s\n", i, sc.Score, preview(sc.Chunk.Text, 60))
	}
}

func (m *verboseMonitor) AfterGeneration(raw string) {
	fmt.Fprintf(m.w, "  generation: %d bytes (%s)\n", len(raw), m.step())
}

func (m *verboseMonitor) Finish(_ *core.Answer, err error) {
	total := time.Since(m.start).Round(time.Millisecond)
	if err != nil {
		fmt.Fprintf(m.w, "  failed after %s: %v\n", total, err)
		return
	}
	fmt.Fprintf(m.w, "  done in %s\n", total)
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
