// Package mock provides a deterministic embedder for tests.
package mock

import (
	"context"
	"hash/fnv"
	"sync"
)

const defaultDimensions = 16

// Embedder is a test double for embedding.Embedder. Vectors registered with
// Set win; any other text hashes to a stable pseudo-random vector.
type Embedder struct {
	// EmbedTextsFunc replaces the batch behaviour when set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedTextFunc replaces the single-text behaviour when set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	dim int

	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	closed  bool
}

// NewEmbedder returns an embedder producing vectors of length dim.
func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = defaultDimensions
	}
	return &Embedder{dim: dim, vectors: make(map[string][]float32)}
}

// Set pins the vector returned for text.
func (m *Embedder) Set(text string, vec []float32) *Embedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vec
	return m
}

// EmbedText returns the pinned or hashed vector for text.
func (m *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	fn := m.EmbedTextFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return m.vector(text), nil
}

// EmbedTexts returns one vector per text.
func (m *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	fn := m.EmbedTextsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

// ModelID identifies the mock in cache keys.
func (m *Embedder) ModelID() string {
	return "mock"
}

// Close marks the embedder closed.
func (m *Embedder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// CallCount returns the number of embed calls.
func (m *Embedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *Embedder) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Embedder) vector(text string) []float32 {
	m.mu.Lock()
	pinned, ok := m.vectors[text]
	m.mu.Unlock()
	if ok {
		out := make([]float32, len(pinned))
		copy(out, pinned)
		return out
	}
	return Deterministic(text, m.dim)
}

// Deterministic derives a vector from the FNV hash of text.
func Deterministic(text string, dim int) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, dim)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return vec
}
