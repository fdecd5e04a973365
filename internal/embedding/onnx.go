package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

const (
	defaultMaxSeqLen  = 256
	defaultDimensions = 384
)

var (
	ortInputNames  = []string{"input_ids", "attention_mask", "token_type_ids"}
	ortOutputNames = []string{"last_hidden_state"}
)

// OrtConfig points at a sentence-transformer exported to ONNX together with
// its tokenizer.json.
type OrtConfig struct {
	LibraryPath   string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
	Dimensions    int
	ModelID       string
}

func (c *OrtConfig) applyDefaults() {
	if c.MaxSeqLen <= 0 {
		c.MaxSeqLen = defaultMaxSeqLen
	}
	if c.Dimensions <= 0 {
		c.Dimensions = defaultDimensions
	}
	if c.ModelID == "" && c.ModelPath != "" {
		c.ModelID = strings.TrimSuffix(filepath.Base(c.ModelPath), filepath.Ext(c.ModelPath))
	}
}

// OrtEmbedder runs a local transformer through onnxruntime and mean-pools the
// last hidden state into a unit vector.
type OrtEmbedder struct {
	cfg       OrtConfig
	tokenizer *tokenizer.Tokenizer
	session   *ort.DynamicAdvancedSession
	ownsEnv   bool
	logger    *zap.Logger

	// session runs are serialized; the runtime session is not shared safely.
	mu sync.Mutex
}

// NewOrtEmbedder loads the tokenizer and model. Any failure here means the
// embedding model is unavailable.
func NewOrtEmbedder(cfg OrtConfig, logger *zap.Logger) (*OrtEmbedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()

	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, errors.New("onnx model path is required")
	}
	if strings.TrimSpace(cfg.TokenizerPath) == "" {
		return nil, errors.New("tokenizer path is required")
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q: %w", cfg.TokenizerPath, err)
	}

	ownsEnv := false
	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
		ownsEnv = true
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, ortInputNames, ortOutputNames, nil)
	if err != nil {
		if ownsEnv {
			_ = ort.DestroyEnvironment()
		}
		return nil, fmt.Errorf("load onnx model %q: %w", cfg.ModelPath, err)
	}

	logger.Info("onnx embedding model loaded",
		zap.String("model_id", cfg.ModelID),
		zap.Int("dimensions", cfg.Dimensions),
		zap.Int("max_seq_len", cfg.MaxSeqLen),
	)

	return &OrtEmbedder{
		cfg:       cfg,
		tokenizer: tk,
		session:   session,
		ownsEnv:   ownsEnv,
		logger:    logger,
	}, nil
}

// ModelID returns the identifier used for cache keys.
func (o *OrtEmbedder) ModelID() string {
	return o.cfg.ModelID
}

// Close releases the session and, when this embedder created it, the runtime environment.
func (o *OrtEmbedder) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	var errs []error
	if o.session != nil {
		errs = append(errs, o.session.Destroy())
		o.session = nil
	}
	if o.ownsEnv {
		errs = append(errs, ort.DestroyEnvironment())
		o.ownsEnv = false
	}
	return errors.Join(errs...)
}

// EmbedText encodes a single text.
func (o *OrtEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return o.encode(Normalize(text))
}

// EmbedTexts encodes texts one by one, preserving order.
func (o *OrtEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := o.EmbedText(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (o *OrtEmbedder) encode(text string) ([]float32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return nil, errors.New("onnx embedder is closed")
	}

	enc, err := o.tokenizer.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	ids, mask, types := truncateTokens(enc.GetIds(), enc.GetAttentionMask(), enc.GetTypeIds(), o.cfg.MaxSeqLen)
	n := len(ids)
	if n == 0 {
		return make([]float32, o.cfg.Dimensions), nil
	}

	shape := ort.NewShape(1, int64(n))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typesTensor, err := ort.NewTensor(shape, types)
	if err != nil {
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer typesTensor.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n), int64(o.cfg.Dimensions)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	if err := o.session.Run([]ort.Value{idsTensor, maskTensor, typesTensor}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("run onnx session: %w", err)
	}

	vec := meanPool(output.GetData(), mask, o.cfg.Dimensions)
	l2Normalize(vec)
	return vec, nil
}

// truncateTokens caps the sequence at maxLen, keeping the final special token.
func truncateTokens(ids, mask, types []int, maxLen int) ([]int64, []int64, []int64) {
	n := len(ids)
	truncated := maxLen > 0 && n > maxLen
	if truncated {
		n = maxLen
	}

	outIDs := make([]int64, n)
	outMask := make([]int64, n)
	outTypes := make([]int64, n)
	for i := 0; i < n; i++ {
		outIDs[i] = int64(ids[i])
		outMask[i] = 1
		if i < len(mask) {
			outMask[i] = int64(mask[i])
		}
		if i < len(types) {
			outTypes[i] = int64(types[i])
		}
	}

	if truncated && n > 0 {
		outIDs[n-1] = int64(ids[len(ids)-1])
	}

	return outIDs, outMask, outTypes
}

// meanPool averages token vectors weighted by the attention mask.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	out := make([]float32, dim)
	if dim == 0 {
		return out
	}

	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		offset := t * dim
		if offset+dim > len(hidden) {
			break
		}
		for j := 0; j < dim; j++ {
			out[j] += hidden[offset+j]
		}
		count++
	}

	if count == 0 {
		return out
	}
	for j := range out {
		out[j] /= count
	}
	return out
}

func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
