package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DatasetConfig selects and configures the roster store backend.
type DatasetConfig struct {
	Type string `yaml:"type"` // "csv" or "sqlite"
	Path string `yaml:"path"`
}

// HybridConfig holds the linear mixing weights for hybrid recommendations.
// Weights are normalized at use, so they do not need to sum to 1.
type HybridConfig struct {
	ContentWeight       float64 `yaml:"content_weight"`
	CollaborativeWeight float64 `yaml:"collaborative_weight"`
}

// EngineConfig configures the similarity and collaborative models.
type EngineConfig struct {
	// Neighbors is K for the neighbor-based model.
	Neighbors int `yaml:"neighbors"`
	// Factors is the latent dimensionality of the factorization model.
	Factors int `yaml:"factors"`
	// Epochs is the number of SGD passes over the training records.
	Epochs int `yaml:"epochs"`
	// LearningRate and Regularization are the SGD hyperparameters.
	LearningRate   float64 `yaml:"learning_rate"`
	Regularization float64 `yaml:"regularization"`
	// Seed drives factor initialization and record shuffling; a fixed seed
	// makes every fit reproducible.
	Seed int64 `yaml:"seed"`
	// WeightInteractions boosts pair strengths by the students' normalized
	// interaction counts when building the matrix.
	WeightInteractions bool         `yaml:"weight_interactions"`
	Hybrid             HybridConfig `yaml:"hybrid"`
}

// EvaluationConfig configures the model-comparison harness.
type EvaluationConfig struct {
	// SplitRatio is the train fraction of the hold-out split.
	SplitRatio float64 `yaml:"split_ratio"`
	Seed       int64   `yaml:"seed"`
}

// AccountConfig is one HTTP login account. PasswordHash is a bcrypt hash.
type AccountConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// ServerConfig configures the optional HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// JWTSecretEnv names the environment variable holding the signing secret.
	JWTSecretEnv   string          `yaml:"jwt_secret_env"`
	TokenTTLMins   int             `yaml:"token_ttl_mins"`
	RateLimitRPS   float64         `yaml:"rate_limit_rps"`
	RateLimitBurst int             `yaml:"rate_limit_burst"`
	Accounts       []AccountConfig `yaml:"accounts"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Dataset    DatasetConfig    `yaml:"dataset"`
	Engine     EngineConfig     `yaml:"engine"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Server     ServerConfig     `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/peermatch/config.yaml.
// If neither exists, it writes defaults to ~/.config/peermatch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "peermatch", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Dataset: DatasetConfig{Type: "csv", Path: filepath.Join("dataset", "students.csv")},
		Engine: EngineConfig{
			Neighbors:      5,
			Factors:        8,
			Epochs:         60,
			LearningRate:   0.01,
			Regularization: 0.05,
			Seed:           42,
			Hybrid:         HybridConfig{ContentWeight: 0.5, CollaborativeWeight: 0.5},
		},
		Evaluation: EvaluationConfig{SplitRatio: 0.8, Seed: 42},
		Server: ServerConfig{
			Addr:           ":8080",
			JWTSecretEnv:   "PEERMATCH_JWT_SECRET",
			TokenTTLMins:   60,
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Dataset.Type == "" {
		cfg.Dataset.Type = "csv"
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = filepath.Join("dataset", "students.csv")
	}
	if cfg.Engine.Neighbors <= 0 {
		cfg.Engine.Neighbors = 5
	}
	if cfg.Engine.Factors <= 0 {
		cfg.Engine.Factors = 8
	}
	if cfg.Engine.Epochs <= 0 {
		cfg.Engine.Epochs = 60
	}
	if cfg.Engine.LearningRate <= 0 {
		cfg.Engine.LearningRate = 0.01
	}
	if cfg.Engine.Regularization <= 0 {
		cfg.Engine.Regularization = 0.05
	}
	if cfg.Engine.Seed == 0 {
		cfg.Engine.Seed = 42
	}
	if cfg.Engine.Hybrid.ContentWeight == 0 && cfg.Engine.Hybrid.CollaborativeWeight == 0 {
		cfg.Engine.Hybrid = HybridConfig{ContentWeight: 0.5, CollaborativeWeight: 0.5}
	}
	if cfg.Evaluation.SplitRatio <= 0 || cfg.Evaluation.SplitRatio >= 1 {
		cfg.Evaluation.SplitRatio = 0.8
	}
	if cfg.Evaluation.Seed == 0 {
		cfg.Evaluation.Seed = 42
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.JWTSecretEnv == "" {
		cfg.Server.JWTSecretEnv = "PEERMATCH_JWT_SECRET"
	}
	if cfg.Server.TokenTTLMins <= 0 {
		cfg.Server.TokenTTLMins = 60
	}
	if cfg.Server.RateLimitRPS <= 0 {
		cfg.Server.RateLimitRPS = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
}
