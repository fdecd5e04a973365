package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncateTokens(t *testing.T) {
	t.Parallel()

	ids, mask, types := truncateTokens([]int{101, 7, 8, 9, 102}, []int{1, 1, 1, 1, 1}, []int{0, 0, 0, 0, 0}, 4)
	require.Equal(t, []int64{101, 7, 8, 102}, ids)
	require.Equal(t, []int64{1, 1, 1, 1}, mask)
	require.Equal(t, []int64{0, 0, 0, 0}, types)

	ids, mask, types = truncateTokens([]int{101, 102}, nil, nil, 8)
	require.Equal(t, []int64{101, 102}, ids)
	require.Equal(t, []int64{1, 1}, mask)
	require.Equal(t, []int64{0, 0}, types)
}

func TestMeanPoolHonoursMask(t *testing.T) {
	t.Parallel()

	hidden := []float32{
		1, 2,
		3, 4,
		100, 100,
	}
	got := meanPool(hidden, []int64{1, 1, 0}, 2)
	require.Equal(t, []float32{2, 3}, got)

	none := meanPool(hidden, []int64{0, 0, 0}, 2)
	require.Equal(t, []float32{0, 0}, none)
}

func TestL2Normalize(t *testing.T) {
	t.Parallel()

	vec := []float32{3, 4}
	l2Normalize(vec)
	require.InDelta(t, 0.6, vec[0], 1e-6)
	require.InDelta(t, 0.8, vec[1], 1e-6)

	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	require.InDelta(t, 1, math.Sqrt(sum), 1e-6)

	zero := []float32{0, 0}
	l2Normalize(zero)
	require.Equal(t, []float32{0, 0}, zero)
}

func TestOrtConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := OrtConfig{ModelPath: "/models/all-MiniLM-L6-v2.onnx"}
	cfg.applyDefaults()
	require.Equal(t, "all-MiniLM-L6-v2", cfg.ModelID)
	require.Equal(t, defaultMaxSeqLen, cfg.MaxSeqLen)
	require.Equal(t, defaultDimensions, cfg.Dimensions)
}

func TestNewOrtEmbedderRequiresPaths(t *testing.T) {
	t.Parallel()

	_, err := NewOrtEmbedder(OrtConfig{}, nil)
	require.ErrorContains(t, err, "model path")

	_, err = NewOrtEmbedder(OrtConfig{ModelPath: "model.onnx"}, nil)
	require.ErrorContains(t, err, "tokenizer path")
}
