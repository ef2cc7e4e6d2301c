package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/docqa/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ai.Embedder   = (*MockEmbedder)(nil)
	_ ai.Generator  = (*MockGenerator)(nil)
	_ ai.AIProvider = (*MockProvider)(nil)
)

func TestVector_DeterministicUnitLength(t *testing.T) {
	a := Vector("hello", DefaultDimension)
	b := Vector("hello", DefaultDimension)
	c := Vector("world", DefaultDimension)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestMockEmbedder_RecordsBatches(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	vectors, err := m.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)

	_, err = m.EmbedText(ctx, "q")
	require.NoError(t, err)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, [][]string{{"a", "b"}}, m.Batches())

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Empty(t, m.Batches())
}

func TestMockEmbedder_HonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockEmbedder().EmbedText(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockGenerator(t *testing.T) {
	m := NewMockGenerator()
	ctx := context.Background()

	out, err := m.Generate(ctx, "prompt one", ai.GenerateOptions{MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, DefaultAnswer, out)

	boom := errors.New("boom")
	m.WithGenerateFunc(func(context.Context, string, ai.GenerateOptions) (string, error) {
		return "", boom
	})
	_, err = m.Generate(ctx, "prompt two", ai.GenerateOptions{MaxTokens: 20})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, []string{"prompt one", "prompt two"}, m.Prompts())
	assert.Equal(t, 20, m.LastOptions().MaxTokens)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)

	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.Same(t, p.GetMockGenerator(), p.Generator())
	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
