package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const cacheWriteChunk = 256

// CacheOptions selects where cached vectors live.
type CacheOptions struct {
	Dir      string
	InMemory bool
}

// CachedEmbedder stores vectors in badger keyed by model and normalized text,
// so restarts over an unchanged catalog skip the encoder.
type CachedEmbedder struct {
	next   Embedder
	db     *badger.DB
	logger *zap.Logger
}

type badgerLogger struct {
	logger *zap.SugaredLogger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any)   { l.logger.Errorf(msg, items...) }
func (l *badgerLogger) Warningf(msg string, items ...any) { l.logger.Warnf(msg, items...) }
func (l *badgerLogger) Infof(msg string, items ...any)    { l.logger.Debugf(msg, items...) }
func (l *badgerLogger) Debugf(msg string, items ...any)   { l.logger.Debugf(msg, items...) }

// NewCachedEmbedder opens the cache and wraps next.
func NewCachedEmbedder(next Embedder, opts CacheOptions, logger *zap.Logger) (*CachedEmbedder, error) {
	if next == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var bopts badger.Options
	switch {
	case opts.InMemory:
		bopts = badger.DefaultOptions("").WithInMemory(true)
	case opts.Dir != "":
		bopts = badger.DefaultOptions(opts.Dir)
	default:
		return nil, errors.New("cache directory is required")
	}
	bopts.Logger = &badgerLogger{logger: logger.Named("badger").Sugar()}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}

	return &CachedEmbedder{next: next, db: db, logger: logger}, nil
}

// ModelID returns the wrapped model identifier.
func (c *CachedEmbedder) ModelID() string {
	return c.next.ModelID()
}

// Close closes the cache and the wrapped embedder.
func (c *CachedEmbedder) Close() error {
	return errors.Join(c.db.Close(), c.next.Close())
}

// EmbedText returns a cached vector or embeds and stores it.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.lookup(key); ok {
		return vec, nil
	}

	vec, err := c.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(map[string][]float32{string(key): vec})
	return vec, nil
}

// EmbedTexts embeds only cache misses, in one call to the wrapped embedder.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		keys[i] = c.key(text)
		if vec, ok := c.lookup(keys[i]); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	c.logger.Debug("embedding cache lookup",
		zap.Int("requested", len(texts)),
		zap.Int("hits", len(texts)-len(missing)),
	)

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d, received %d", len(missing), len(vecs))
	}

	fresh := make(map[string][]float32, len(vecs))
	for j, vec := range vecs {
		i := missingIdx[j]
		out[i] = vec
		fresh[string(keys[i])] = vec
	}
	c.store(fresh)

	return out, nil
}

func (c *CachedEmbedder) key(text string) []byte {
	h := sha1.New()
	_, _ = io.WriteString(h, c.next.ModelID())
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, Normalize(text))
	return []byte("vec:" + hex.EncodeToString(h.Sum(nil)))
}

func (c *CachedEmbedder) lookup(key []byte) ([]float32, bool) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		vec, err = decodeVector(data)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("reading cached embedding failed", zap.Error(err))
		}
		return nil, false
	}
	return vec, true
}

// store is best effort: a failed write only costs a re-embed later.
func (c *CachedEmbedder) store(entries map[string][]float32) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}

	for start := 0; start < len(keys); start += cacheWriteChunk {
		end := min(start+cacheWriteChunk, len(keys))
		err := c.db.Update(func(txn *badger.Txn) error {
			for _, key := range keys[start:end] {
				if err := txn.Set([]byte(key), encodeVector(entries[key])); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			c.logger.Warn("caching embeddings failed", zap.Int("entries", end-start), zap.Error(err))
			return
		}
	}
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(vec)))
	off := 4
	for _, v := range vec {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, errors.New("cached vector too small")
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*4 {
		return nil, fmt.Errorf("cached vector length mismatch: header %d, payload %d bytes", length, len(data))
	}
	vec := make([]float32, length)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : (i+1)*4]))
	}
	return vec, nil
}
