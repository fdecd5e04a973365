// Package ranking scores catalog records against a query and composes the
// final ordered candidate list.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/embedding"
	"github.com/spigell/assessment-recommender/internal/query"
)

const (
	// DefaultPoolSize bounds the shortlist considered after scoring.
	DefaultPoolSize = 30

	knowledgeQuota   = 3
	personalityQuota = 2
)

// Candidate is a record paired with its cosine similarity to the query.
type Candidate struct {
	Record catalog.Record
	Score  float64
}

// Ranker holds read-only references to the catalog and its index. It is safe
// for concurrent use when the embedder is.
type Ranker struct {
	catalog  *catalog.Catalog
	index    *embedding.Index
	embedder embedding.Embedder
	poolSize int
	logger   *zap.Logger
}

// NewRanker checks that the index covers the catalog one-to-one.
func NewRanker(c *catalog.Catalog, idx *embedding.Index, embedder embedding.Embedder, poolSize int, logger *zap.Logger) (*Ranker, error) {
	if c == nil || idx == nil {
		return nil, errors.New("catalog and index are required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.Len() != idx.Len() {
		return nil, fmt.Errorf("index has %d vectors for %d assessments", idx.Len(), c.Len())
	}
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ranker{
		catalog:  c,
		index:    idx,
		embedder: embedder,
		poolSize: poolSize,
		logger:   logger,
	}, nil
}

// Rank returns at most topK candidates for q.
func (r *Ranker) Rank(ctx context.Context, q string, topK int) ([]Candidate, error) {
	if topK <= 0 {
		return []Candidate{}, nil
	}

	vec, err := r.embedder.EmbedText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scores, err := r.index.Scores(vec)
	if err != nil {
		return nil, err
	}

	pool := SelectPool(r.catalog.Records(), scores, r.poolSize)

	var steps []Filter
	if limit, ok := query.ParseDurationLimit(q); ok {
		steps = append(steps, NewDurationFilter(limit))
	}
	pool = RunFilters(r.logger, steps, pool)

	intent := query.DetectIntent(q)
	ranked := Compose(pool, intent, topK)

	categories := make([]string, len(ranked))
	for i, c := range ranked {
		categories[i] = c.Record.Categories.String()
	}

	r.logger.Debug("ranking finished",
		zap.Bool("technical", intent.Technical),
		zap.Bool("behavioral", intent.Behavioral),
		zap.Int("pool", len(pool)),
		zap.Int("returned", len(ranked)),
		zap.Strings("categories", categories),
	)

	return ranked, nil
}

// SelectPool returns the size highest-scoring records, best first. Ties keep
// catalog order.
func SelectPool(records []catalog.Record, scores []float64, size int) []Candidate {
	n := min(len(records), len(scores))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if size < n {
		order = order[:size]
	}

	pool := make([]Candidate, len(order))
	for i, idx := range order {
		pool[i] = Candidate{Record: records[idx], Score: scores[idx]}
	}
	return pool
}

// Compose picks the final list from a score-ordered pool. Hybrid queries take
// up to three knowledge and two personality candidates, knowledge first, with
// duplicates removed; the list is not backfilled when those groups run short.
// Otherwise the top candidates are returned as they are.
func Compose(pool []Candidate, intent query.Intent, topK int) []Candidate {
	if topK <= 0 {
		return []Candidate{}
	}

	if !intent.Hybrid() {
		n := min(topK, len(pool))
		out := make([]Candidate, n)
		copy(out, pool[:n])
		return out
	}

	knowledge := takeCategory(pool, catalog.CategoryKnowledge, knowledgeQuota)
	personality := takeCategory(pool, catalog.CategoryPersonality, personalityQuota)

	seen := make(map[string]bool, len(knowledge)+len(personality))
	out := make([]Candidate, 0, len(knowledge)+len(personality))
	for _, c := range append(knowledge, personality...) {
		key := c.Record.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

func takeCategory(pool []Candidate, category catalog.Category, limit int) []Candidate {
	out := make([]Candidate, 0, limit)
	for _, c := range pool {
		if len(out) == limit {
			break
		}
		if c.Record.Categories.Has(category) {
			out = append(out, c)
		}
	}
	return out
}
