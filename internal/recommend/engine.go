// Package recommend wires the catalog, the embedding index and the ranker
// into an engine that is built once and then serves queries.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/embedding"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/ranking"
	"github.com/spigell/assessment-recommender/internal/utils"
)

const queryPreviewLength = 80

// Init stages reported by InitError.
const (
	StageCatalog  = "catalog"
	StageEmbedder = "embedder"
	StageIndex    = "index"
)

// InitError is returned when the engine cannot be built. No engine is usable after it.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Config controls engine construction.
type Config struct {
	Catalog catalog.Source
	// EmbeddingProvider names the embedder backend in logs.
	EmbeddingProvider string
	PoolSize          int
	Workers           int
	BatchSize         int
	// Explainers builds an explainer per credential. Nil disables explanations.
	Explainers ai.ExplainerFactory
}

// Engine answers queries against an immutable catalog and index.
type Engine struct {
	catalog    *catalog.Catalog
	ranker     *ranking.Ranker
	embedder   embedding.Embedder
	explainers ai.ExplainerFactory
	logger     *zap.Logger
}

// New loads the catalog and encodes every assessment. Either everything
// succeeds or an *InitError is returned.
func New(ctx context.Context, cfg Config, embedder embedding.Embedder, log *zap.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, &InitError{Stage: StageEmbedder, Err: errors.New("embedder is required")}
	}
	log = logger.WithEmbeddingFields(log, cfg.EmbeddingProvider, embedder.ModelID())

	cat, err := catalog.Load(cfg.Catalog, log)
	if err != nil {
		return nil, &InitError{Stage: StageCatalog, Err: err}
	}

	vectors, err := embedding.NewBatchEncoder(embedder, cfg.Workers, cfg.BatchSize, log).Encode(ctx, cat.Texts())
	if err != nil {
		return nil, &InitError{Stage: StageIndex, Err: err}
	}

	idx, err := embedding.NewIndex(vectors)
	if err != nil {
		return nil, &InitError{Stage: StageIndex, Err: err}
	}

	ranker, err := ranking.NewRanker(cat, idx, embedder, cfg.PoolSize, log)
	if err != nil {
		return nil, &InitError{Stage: StageIndex, Err: err}
	}

	log.Info("index built", zap.Int("vectors", idx.Len()), zap.Int("dimensions", idx.Dim()))

	return &Engine{
		catalog:    cat,
		ranker:     ranker,
		embedder:   embedder,
		explainers: cfg.Explainers,
		logger:     log,
	}, nil
}

// Search returns at most topK formatted recommendations for query. The only
// error is a failure to embed the query.
func (e *Engine) Search(ctx context.Context, query string, topK int) (Results, error) {
	log := e.logger.With(logger.RequestFields(uuid.NewString(), utils.TruncateForLog(query, queryPreviewLength))...)

	candidates, err := e.ranker.Rank(ctx, query, topK)
	if err != nil {
		log.Warn("search failed", zap.Error(err))
		return nil, err
	}

	results := make(Results, len(candidates))
	for i, c := range candidates {
		results[i] = Format(c.Record, c.Score)
	}

	log.Info("search finished", zap.Int("top_k", topK), zap.Int("results", len(results)))
	return results, nil
}

// Explain asks the explanation service to justify results. An empty
// credential skips the call; the caller shows Placeholder instead.
func (e *Engine) Explain(ctx context.Context, query string, results Results, credential string) ai.Explanation {
	if strings.TrimSpace(credential) == "" {
		return ai.Skipped()
	}

	if e.explainers == nil {
		return ai.Failed(errors.New("explanation service is not configured"))
	}

	explainer, err := e.explainers(ctx, credential)
	if err != nil {
		e.logger.Warn("building explainer", zap.Error(err))
		return ai.Failed(err)
	}

	return explainer.Explain(ctx, query, results.Recommendations())
}

// Size is the number of assessments in the catalog.
func (e *Engine) Size() int {
	return e.catalog.Len()
}

// Source is the catalog file the engine was built from.
func (e *Engine) Source() string {
	return e.catalog.Source()
}

// Close releases the embedder.
func (e *Engine) Close() error {
	return e.embedder.Close()
}
