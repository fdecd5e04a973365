package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// OpenAIConfig describes an OpenAI-compatible embedding endpoint (OpenAI,
// Ollama, LocalAI, vLLM).
type OpenAIConfig struct {
	Host  string
	Model string
	// Token may be empty for local services that do not authenticate.
	Token string
}

// OpenAIEmbedder embeds text through langchaingo's OpenAI client.
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *zap.Logger
}

// NewOpenAIEmbedder builds the client. No request is made until the first embed call.
func NewOpenAIEmbedder(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("openai embedding model is required")
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	}
	if host := normalizeHost(cfg.Host); host != "" {
		opts = append(opts, openai.WithBaseURL(host))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &OpenAIEmbedder{
		embedder: embedder,
		model:    model,
		logger:   logger,
	}, nil
}

// normalizeHost appends the /v1 suffix expected by OpenAI-compatible servers.
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// ModelID returns the remote model name.
func (e *OpenAIEmbedder) ModelID() string {
	return e.model
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

// EmbedText embeds a single text.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", zap.Int("length", len(text)))

	vec, err := e.embedder.EmbedQuery(ctx, Normalize(text))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

// EmbedTexts embeds texts in one request batch.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", zap.Int("count", len(texts)))

	normalized := make([]string, len(texts))
	for i, text := range texts {
		normalized[i] = Normalize(text)
	}

	vecs, err := e.embedder.EmbedDocuments(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d, received %d", len(texts), len(vecs))
	}
	return vecs, nil
}
