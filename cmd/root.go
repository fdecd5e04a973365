package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/assessment-recommender/internal/ranking"
)

const (
	app = "assessment-recommender"
)

type Config struct {
	Catalog   *CatalogConfig   `mapstructure:"catalog"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Ranking   *RankingConfig   `mapstructure:"ranking"`
	Explain   *ExplainConfig   `mapstructure:"explain"`
}

type CatalogConfig struct {
	Primary  string `mapstructure:"primary"`
	Fallback string `mapstructure:"fallback"`
}

type EmbeddingConfig struct {
	Provider  string        `mapstructure:"provider"`
	Workers   int           `mapstructure:"workers"`
	BatchSize int           `mapstructure:"batch-size"`
	CacheDir  string        `mapstructure:"cache-dir"`
	ONNX      *ONNXConfig   `mapstructure:"onnx"`
	OpenAI    *OpenAIConfig `mapstructure:"openai"`
}

type ONNXConfig struct {
	LibraryPath   string `mapstructure:"library-path"`
	ModelPath     string `mapstructure:"model-path"`
	TokenizerPath string `mapstructure:"tokenizer-path"`
	MaxSeqLen     int    `mapstructure:"max-seq-len"`
	Dimensions    int    `mapstructure:"dimensions"`
	ModelID       string `mapstructure:"model-id"`
}

type OpenAIConfig struct {
	Host      string `mapstructure:"host"`
	Model     string `mapstructure:"model"`
	TokenFile string `mapstructure:"token-file"`
}

type RankingConfig struct {
	PoolSize int `mapstructure:"pool-size"`
	TopK     int `mapstructure:"top-k"`
}

type ExplainConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "assessment-recommender suggests assessments from a catalog for a hiring query",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("explain.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is assessment-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("catalog.primary", "shl_assessments_advanced.csv")
	viper.SetDefault("catalog.fallback", "shl_assessments.csv")

	viper.SetDefault("embedding.provider", providerONNX)
	viper.SetDefault("embedding.workers", 4)
	viper.SetDefault("embedding.batch-size", 32)
	viper.SetDefault("embedding.cache-dir", "")
	viper.SetDefault("embedding.onnx.library-path", "")
	viper.SetDefault("embedding.onnx.model-path", "models/all-MiniLM-L6-v2/model.onnx")
	viper.SetDefault("embedding.onnx.tokenizer-path", "models/all-MiniLM-L6-v2/tokenizer.json")
	viper.SetDefault("embedding.onnx.max-seq-len", 256)
	viper.SetDefault("embedding.onnx.dimensions", 384)
	viper.SetDefault("embedding.onnx.model-id", "all-MiniLM-L6-v2")
	viper.SetDefault("embedding.openai.host", "")
	viper.SetDefault("embedding.openai.model", "")
	viper.SetDefault("embedding.openai.token-file", "")

	viper.SetDefault("ranking.pool-size", ranking.DefaultPoolSize)
	viper.SetDefault("ranking.top-k", 5)

	viper.SetDefault("explain.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("explain.gemini.max-log-length", 200)
}

func initConfig() {
	// Config is needed only for the search command. Every key has a default.
	if searchCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine, a broken or explicitly given one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
