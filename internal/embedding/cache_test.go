package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/embedding/mock"
)

func TestCachedEmbedderReusesVectors(t *testing.T) {
	inner := mock.NewEmbedder(8)
	cached, err := NewCachedEmbedder(inner, CacheOptions{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cached.Close() })

	ctx := context.Background()

	first, err := cached.EmbedTexts(ctx, []string{"java", "sql"})
	require.NoError(t, err)
	require.Equal(t, 1, inner.CallCount())

	second, err := cached.EmbedTexts(ctx, []string{"sql", "java", "python"})
	require.NoError(t, err)
	require.Equal(t, 2, inner.CallCount())
	require.Equal(t, first[1], second[0])
	require.Equal(t, first[0], second[1])
	require.Equal(t, mock.Deterministic("python", 8), second[2])

	vec, err := cached.EmbedText(ctx, "python")
	require.NoError(t, err)
	require.Equal(t, 2, inner.CallCount())
	require.Equal(t, second[2], vec)

	require.Equal(t, "mock", cached.ModelID())
}

func TestCachedEmbedderKeysOnNormalizedText(t *testing.T) {
	inner := mock.NewEmbedder(4)
	cached, err := NewCachedEmbedder(inner, CacheOptions{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cached.Close() })

	ctx := context.Background()
	_, err = cached.EmbedText(ctx, "java")
	require.NoError(t, err)
	_, err = cached.EmbedText(ctx, "  java  ")
	require.NoError(t, err)
	require.Equal(t, 1, inner.CallCount())
}

func TestCachedEmbedderCloseClosesInner(t *testing.T) {
	inner := mock.NewEmbedder(4)
	cached, err := NewCachedEmbedder(inner, CacheOptions{InMemory: true}, nil)
	require.NoError(t, err)

	require.NoError(t, cached.Close())
	require.True(t, inner.Closed())
}

func TestNewCachedEmbedderValidates(t *testing.T) {
	_, err := NewCachedEmbedder(nil, CacheOptions{InMemory: true}, nil)
	require.Error(t, err)

	_, err = NewCachedEmbedder(mock.NewEmbedder(4), CacheOptions{}, nil)
	require.ErrorContains(t, err, "cache directory")
}

func TestVectorCodec(t *testing.T) {
	vec := []float32{0.25, -1.5, 3}
	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	require.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2})
	require.Error(t, err)

	corrupt := encodeVector(vec)
	_, err = decodeVector(corrupt[:len(corrupt)-1])
	require.Error(t, err)
}
