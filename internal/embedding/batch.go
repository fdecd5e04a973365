package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 32
)

// BatchEncoder encodes a large list of texts in fixed-size batches spread over
// a worker pool. The result keeps input order and is all-or-nothing.
type BatchEncoder struct {
	embedder  Embedder
	workers   int
	batchSize int
	logger    *zap.Logger
}

// NewBatchEncoder returns an encoder; non-positive sizes fall back to defaults.
func NewBatchEncoder(embedder Embedder, workers, batchSize int, logger *zap.Logger) *BatchEncoder {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchEncoder{
		embedder:  embedder,
		workers:   workers,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Encode embeds every text. The first failing batch cancels the rest.
func (b *BatchEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if b.embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	out := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	batches := 0
	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		start := start
		batches++

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}

			vecs, err := b.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				fail(fmt.Errorf("embed batch [%d:%d]: %w", start, end, err))
				return
			}
			if len(vecs) != end-start {
				fail(fmt.Errorf("embed batch [%d:%d]: expected %d vectors, received %d", start, end, end-start, len(vecs)))
				return
			}
			copy(out[start:end], vecs)
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit embedding batch: %w", submitErr))
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}

	b.logger.Debug("batch encoding finished",
		zap.Int("texts", len(texts)),
		zap.Int("batches", batches),
		zap.Int("workers", b.workers),
	)

	return out, nil
}
