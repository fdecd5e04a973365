package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Explainer asks Gemini to justify a recommendation list.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

var _ ai.Explainer = (*Explainer)(nil)

func NewExplainer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Explainer{
		generator: generator,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

// NewFactory returns a factory that builds a Gemini explainer per credential.
func NewFactory(model string, maxLogLength int, log *zap.Logger) ai.ExplainerFactory {
	return func(ctx context.Context, credential string) (ai.Explainer, error) {
		generator, err := NewGenerator(ctx, credential, model)
		if err != nil {
			return nil, err
		}
		return NewExplainer(generator, maxLogLength, logger.WithCommonFields(log, "gemini", generator.Model())), nil
	}
}

// Explain never returns an error; failures come back as ai.OutcomeFailed.
func (e *Explainer) Explain(ctx context.Context, query string, recs []ai.Recommendation) ai.Explanation {
	if e == nil || e.generator == nil {
		return ai.Failed(errors.New("gemini explainer is not initialized"))
	}

	prompt := buildPrompt(query, recs)

	e.logger.Debug("gemini generate content request",
		zap.Int("recommendations", len(recs)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		e.logger.Warn("explanation generation failed", zap.Error(err))
		return ai.Failed(err)
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return ai.Generated(raw)
}

func buildPrompt(query string, recs []ai.Recommendation) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "User query: \"{{QUERY}}\"\n\nRecommendations:\n{{RECOMMENDATIONS}}\n\nJustification:"
	}

	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		lines = append(lines, fmt.Sprintf("- %s (%s)", rec.Name, strings.Join(rec.TestTypes, ", ")))
	}

	prompt := strings.ReplaceAll(template, "{{QUERY}}", query)
	prompt = strings.ReplaceAll(prompt, "{{RECOMMENDATIONS}}", strings.Join(lines, "\n"))
	return prompt
}
