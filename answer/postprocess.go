package answer

import "strings"

// Default reasoning markers.
const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"
)

// PostProcessor removes a reasoning block delimited by an open and a close
// marker from generated text.
type PostProcessor struct {
	openMarker  string
	closeMarker string
}

var defaultPostProcessor = NewPostProcessor(ThinkOpen, ThinkClose)

// NewPostProcessor creates a PostProcessor for the given markers.
func NewPostProcessor(openMarker, closeMarker string) *PostProcessor {
	return &PostProcessor{openMarker: openMarker, closeMarker: closeMarker}
}

// Process returns the text after the last close marker, trimmed. Without a
// close marker it returns the trimmed input.
func (p *PostProcessor) Process(raw string) string {
	_, answer := p.Split(raw)
	return answer
}

// Split separates the reasoning block from the answer. Text without the
// open marker or without a close marker has no reasoning block. Otherwise
// the answer is what follows the last close marker and the reasoning starts
// after the first open marker that precedes it.
func (p *PostProcessor) Split(raw string) (reasoning, answer string) {
	if p.closeMarker == "" {
		return "", strings.TrimSpace(raw)
	}
	if p.openMarker != "" && !strings.Contains(raw, p.openMarker) {
		return "", strings.TrimSpace(raw)
	}
	end := strings.LastIndex(raw, p.closeMarker)
	if end < 0 {
		return "", strings.TrimSpace(raw)
	}

	answer = strings.TrimSpace(raw[end+len(p.closeMarker):])
	block := raw[:end]
	if p.openMarker != "" {
		if start := strings.Index(block, p.openMarker); start >= 0 {
			block = block[start+len(p.openMarker):]
		}
	}
	return strings.TrimSpace(block), answer
}

// PostProcess strips a <think>...</think> reasoning block from raw.
func PostProcess(raw string) string {
	return defaultPostProcessor.Process(raw)
}
