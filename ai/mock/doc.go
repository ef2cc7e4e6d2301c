// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockGenerator := mock.NewMockGenerator().
//	    WithGenerateFunc(func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
//	        return "<think>plan</think> 42", nil
//	    })
//
//	// Check recorded calls
//	prompts := mockGenerator.Prompts()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Returns DefaultAnswer
//   - MockProvider: Aggregates mock embedder and generator
package mock
