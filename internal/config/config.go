package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Recommendation RecommendationConfig `yaml:"recommendation"`
	Server         ServerConfig         `yaml:"server"`
	Cache          CacheConfig          `yaml:"cache"`
	Log            LogConfig            `yaml:"log"`
}

type RecommendationConfig struct {
	Weights         WeightsConfig         `yaml:"weights"`
	Diversification DiversificationConfig `yaml:"diversification"`
	DefaultLimit    int                   `yaml:"default_limit"`
	MaxLimit        int                   `yaml:"max_limit"`
	SubjectLimit    int                   `yaml:"subject_limit"`
	MaxSubjectLimit int                   `yaml:"max_subject_limit"`
}

// WeightsConfig holds the per-dimension weights. They must add up to 1.0.
type WeightsConfig struct {
	Academic    float64 `yaml:"academic"`
	Performance float64 `yaml:"performance"`
	Method      float64 `yaml:"method"`
	Quality     float64 `yaml:"quality"`
	Temporal    float64 `yaml:"temporal"`
}

type DiversificationConfig struct {
	MaxPerSubject       int     `yaml:"max_per_subject"`
	SerendipityFraction float64 `yaml:"serendipity_fraction"`
	TypeDiversity       bool    `yaml:"type_diversity"`
	TypeRelaxAfter      int     `yaml:"type_relax_after"`
}

type ServerConfig struct {
	Addr                string   `yaml:"addr"`
	Mode                string   `yaml:"mode"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
	AllowOrigins        []string `yaml:"allow_origins"`
}

type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	RedisAddr  string `yaml:"redis_addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	KeyPrefix  string `yaml:"key_prefix"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

func Default() *Config {
	return &Config{
		Recommendation: RecommendationConfig{
			Weights: WeightsConfig{
				Academic:    0.35,
				Performance: 0.25,
				Method:      0.20,
				Quality:     0.15,
				Temporal:    0.05,
			},
			Diversification: DiversificationConfig{
				MaxPerSubject:       4,
				SerendipityFraction: 0.15,
				TypeDiversity:       true,
				TypeRelaxAfter:      6,
			},
			DefaultLimit:    20,
			MaxLimit:        50,
			SubjectLimit:    10,
			MaxSubjectLimit: 30,
		},
		Server: ServerConfig{
			Addr:                ":8080",
			Mode:                "release",
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 15,
			AllowOrigins:        []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Cache: CacheConfig{
			Enabled:    false,
			RedisAddr:  "localhost:6379",
			TTLSeconds: 300,
			KeyPrefix:  "miespacio:rec:",
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	w := c.Recommendation.Weights
	sum := w.Academic + w.Performance + w.Method + w.Quality + w.Temporal
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("recommendation weights must sum to 1.0, got %.4f", sum)
	}
	for name, v := range map[string]float64{
		"academic": w.Academic, "performance": w.Performance, "method": w.Method,
		"quality": w.Quality, "temporal": w.Temporal,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative", name)
		}
	}

	d := c.Recommendation.Diversification
	if d.MaxPerSubject < 1 {
		return fmt.Errorf("max_per_subject must be at least 1")
	}
	if d.SerendipityFraction < 0 || d.SerendipityFraction >= 1 {
		return fmt.Errorf("serendipity_fraction must be in [0,1)")
	}

	r := c.Recommendation
	if r.DefaultLimit < 1 || r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("default_limit must be in [1,%d]", r.MaxLimit)
	}
	if r.SubjectLimit < 1 || r.SubjectLimit > r.MaxSubjectLimit {
		return fmt.Errorf("subject_limit must be in [1,%d]", r.MaxSubjectLimit)
	}
	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache enabled without redis_addr")
	}
	return nil
}

func Dir() string {
	if dir := os.Getenv("MIESPACIO_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".miespacio")
}

func DBPath() string {
	return filepath.Join(Dir(), "miespacio.db")
}

func configPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func Load() (*Config, error) {
	data, err := os.ReadFile(configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath(), err)
	}
	return cfg, nil
}

func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath(), data, 0644)
}
