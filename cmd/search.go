package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/ai/gemini"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/embedding"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/recommend"
	"github.com/spigell/assessment-recommender/internal/secrets"
)

const (
	PromptNewSearch   = "New search"
	PromptShowJSON    = "Show results as JSON"
	PromptResultsFile = "Dump results to file"
	PromptExit        = "Exit"

	providerONNX   = "onnx"
	providerOpenAI = "openai"

	outputPretty = "pretty"
	outputJSON   = "json"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptNewSearch, PromptShowJSON, PromptResultsFile, PromptExit},
}

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Recommend assessments for a job description or hiring query",
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("top-k", "k", 5, "number of assessments to return")
	searchCmd.Flags().String("api-key-file", "", "file with a Gemini API key used to explain the results")
	searchCmd.Flags().BoolP("interactive", "i", false, "ask for queries in a loop")
	searchCmd.Flags().String("output", outputPretty, "output format: pretty or json")

	viper.BindPFlag("ranking.top-k", searchCmd.Flags().Lookup("top-k"))
	viper.BindPFlag("explain.gemini.api-key-file", searchCmd.Flags().Lookup("api-key-file"))
}

// search is the main command for the cli.
func search(cmd *cobra.Command, query string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Catalog == nil || config.Embedding == nil || config.Ranking == nil || config.Explain == nil || config.Explain.Gemini == nil {
		logger.Fatal("config is incomplete")
	}

	logger.Info("starting the assessment-recommender", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	output, _ := cmd.Flags().GetString("output")
	if output != outputPretty && output != outputJSON {
		logger.Fatal("unsupported output format", zap.String("output", output))
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if strings.TrimSpace(query) == "" && !interactive {
		logger.Fatal("query is required", zap.String("hint", "pass it as arguments or use --interactive"))
	}

	credential, err := resolveCredential(config.Explain.Gemini)
	if err != nil {
		logger.Fatal("loading gemini api key", zap.Error(err))
	}

	engine, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing the engine", zap.Error(err))
	}
	defer engine.Close()

	logger.Info("engine is ready", zap.String("catalog", engine.Source()), zap.Int("assessments", engine.Size()))

	s := &session{
		engine:     engine,
		credential: credential,
		topK:       config.Ranking.TopK,
		output:     output,
		out:        cmd.OutOrStdout(),
		logger:     logger,
	}

	if !interactive {
		if _, err := s.run(ctx, query); err != nil {
			logger.Fatal("search failed", zap.Error(err))
		}
		return
	}

	if err := s.loop(ctx, query); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

type session struct {
	engine     *recommend.Engine
	credential string
	topK       int
	output     string
	out        io.Writer
	logger     *zap.Logger
}

// run searches once and prints the results with their explanation.
func (s *session) run(ctx context.Context, query string) (recommend.Results, error) {
	results, err := s.engine.Search(ctx, query, s.topK)
	if err != nil {
		return nil, err
	}

	// JSON output carries the results only, so no explanation is requested.
	if s.output == outputJSON {
		return results, writeJSON(s.out, results)
	}

	explanation := s.engine.Explain(ctx, query, results, s.credential)
	if explanation.Outcome == ai.OutcomeFailed {
		s.logger.Warn("explanation is unavailable", zap.Error(explanation.Err))
	}

	writeResults(s.out, results)
	fmt.Fprintf(s.out, "\n%s\n", explanationText(query, explanation))
	return results, nil
}

func (s *session) loop(ctx context.Context, query string) error {
	for {
		if strings.TrimSpace(query) == "" {
			var err error
			query, err = askQuery()
			if err != nil {
				return err
			}
		}

		results, err := s.run(ctx, query)
		if err != nil {
			return err
		}
		query = ""

		if err := s.actions(results); err != nil {
			return err
		}
	}
}

// actions runs the post-search menu until a new search or exit is chosen.
func (s *session) actions(results recommend.Results) error {
	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		next, err := handleAction(action, s.out, s.logger, results)
		if err != nil || next {
			return err
		}
	}
}

// handleAction reports whether a new search was requested.
func handleAction(action string, out io.Writer, logger *zap.Logger, results recommend.Results) (bool, error) {
	switch action {
	case PromptNewSearch:
		return true, nil
	case PromptShowJSON:
		return false, writeJSON(out, results)
	case PromptResultsFile:
		filename, err := results.DumpToTmpFile()
		if err != nil {
			return false, fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename), zap.Int("count", results.Len()))
		return false, nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return false, errExit
	default:
		return false, fmt.Errorf("invalid action: %s", action)
	}
}

func askQuery() (string, error) {
	p := promptui.Prompt{
		Label: "Job description or hiring query",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("query must not be empty")
			}
			return nil
		},
	}
	return p.Run()
}

func explanationText(query string, explanation ai.Explanation) string {
	if explanation.Outcome == ai.OutcomeSkipped {
		return recommend.Placeholder(query)
	}
	return explanation.Text
}

func writeResults(out io.Writer, results recommend.Results) {
	if results.Len() == 0 {
		fmt.Fprintln(out, "No assessments matched the query.")
		return
	}

	for i, r := range results {
		fmt.Fprintf(out, "%d. %s (%d%% match)\n", i+1, r.Name, r.MatchPercent())
		fmt.Fprintf(out, "   Duration: %d min | Remote: %s | Adaptive: %s\n", r.Duration, r.RemoteSupport, r.AdaptiveSupport)
		fmt.Fprintf(out, "   Types: %s\n", strings.Join(r.TestType, ", "))
		if r.URL != "" {
			fmt.Fprintf(out, "   %s\n", r.URL)
		}
		if strings.TrimSpace(r.Description) != "" {
			fmt.Fprintf(out, "   %s\n", r.DescriptionPreview())
		}
	}
}

func writeJSON(out io.Writer, results recommend.Results) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func resolveCredential(cfg *GeminiConfig) (string, error) {
	file := strings.TrimSpace(cfg.APIKeyFile)
	if file == "" {
		file = strings.TrimSpace(viper.GetString("explain.gemini.api-key-file"))
	}

	return secrets.LoadOptional(secrets.Source{
		Name: "gemini api key",
		File: file,
		Env:  "GEMINI_API_KEY",
	})
}

func newEngine(ctx context.Context, config *Config, logger *zap.Logger) (*recommend.Engine, error) {
	embedder, err := newEmbedder(config.Embedding, logger)
	if err != nil {
		return nil, &recommend.InitError{Stage: recommend.StageEmbedder, Err: err}
	}

	gem := config.Explain.Gemini
	engine, err := recommend.New(ctx, recommend.Config{
		Catalog: catalog.Source{
			Primary:  config.Catalog.Primary,
			Fallback: config.Catalog.Fallback,
		},
		EmbeddingProvider: embeddingProvider(config.Embedding),
		PoolSize:          config.Ranking.PoolSize,
		Workers:           config.Embedding.Workers,
		BatchSize:         config.Embedding.BatchSize,
		Explainers:        gemini.NewFactory(gem.Model, gem.MaxLogLength, logger),
	}, embedder, logger)
	if err != nil {
		embedder.Close()
		return nil, err
	}

	return engine, nil
}

func embeddingProvider(cfg *EmbeddingConfig) string {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		return providerONNX
	}
	return provider
}

func newEmbedder(cfg *EmbeddingConfig, log *zap.Logger) (embedding.Embedder, error) {
	provider := embeddingProvider(cfg)

	var (
		embedder embedding.Embedder
		err      error
	)

	switch provider {
	case providerONNX:
		if cfg.ONNX == nil {
			return nil, errors.New("embedding.onnx section is required for the onnx provider")
		}
		embedder, err = embedding.NewOrtEmbedder(embedding.OrtConfig{
			LibraryPath:   cfg.ONNX.LibraryPath,
			ModelPath:     cfg.ONNX.ModelPath,
			TokenizerPath: cfg.ONNX.TokenizerPath,
			MaxSeqLen:     cfg.ONNX.MaxSeqLen,
			Dimensions:    cfg.ONNX.Dimensions,
			ModelID:       cfg.ONNX.ModelID,
		}, logger.WithEmbeddingFields(log, provider, cfg.ONNX.ModelID))
	case providerOpenAI:
		if cfg.OpenAI == nil {
			return nil, errors.New("embedding.openai section is required for the openai provider")
		}
		token, terr := secrets.LoadOptional(secrets.Source{
			Name: "openai token",
			File: cfg.OpenAI.TokenFile,
			Env:  "OPENAI_API_KEY",
		})
		if terr != nil {
			return nil, terr
		}
		embedder, err = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			Host:  cfg.OpenAI.Host,
			Model: cfg.OpenAI.Model,
			Token: token,
		}, logger.WithEmbeddingFields(log, provider, cfg.OpenAI.Model))
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.CacheDir) == "" {
		return embedder, nil
	}

	cached, err := embedding.NewCachedEmbedder(embedder, embedding.CacheOptions{Dir: cfg.CacheDir}, log)
	if err != nil {
		embedder.Close()
		return nil, err
	}

	log.Debug("embedding cache enabled", zap.String("dir", cfg.CacheDir))
	return cached, nil
}
