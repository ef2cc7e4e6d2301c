package answer

import (
	"strings"

	"github.com/poiesic/docqa/core"
)

const systemInstructions = `You are an assistant answering questions about a project's documents.
Answer using only the context passages below. If the context does not contain
the answer, say that you do not know. Answer in the language of the question.`

const noContext = "(no relevant passages)"

// buildPrompt assembles the instructions, the context passages in retrieval
// order, the most recent historyTurns turns, and the question.
func buildPrompt(question string, chunks []core.ScoredChunk, history []core.Turn, historyTurns int) string {
	var b strings.Builder
	b.WriteString(systemInstructions)

	b.WriteString("\n\nContext:\n")
	if len(chunks) == 0 {
		b.WriteString(noContext)
	}
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(chunk.Chunk.Text)
	}

	if recent := lastTurns(history, historyTurns); len(recent) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, turn := range recent {
			b.WriteString(speaker(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\nAnswer:")
	return b.String()
}

func lastTurns(history []core.Turn, n int) []core.Turn {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

func speaker(role core.Role) string {
	if role == core.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
