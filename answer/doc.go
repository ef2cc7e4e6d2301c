// Package answer turns retrieved chunks into an answer.
//
// Generator assembles the prompt from the question, the retrieved context and
// recent conversation turns, then makes one bounded call to the text
// generation provider. PostProcess strips a reasoning block some models emit
// before the user-facing answer.
package answer
