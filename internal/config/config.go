package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultQATemperature = 0.3

// GeminiConfig holds configuration for the Gemini generation and embedding APIs.
type GeminiConfig struct {
	APIKeyEnv         string `yaml:"api_key_env"`
	Model             string `yaml:"model"`
	EmbeddingModel    string `yaml:"embedding_model"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	CallTimeoutSecs   int    `yaml:"call_timeout_secs"`
}

// APIKey reads the key from the configured environment variable.
func (c GeminiConfig) APIKey() string { return os.Getenv(c.APIKeyEnv) }

// EmbedderConfig selects the text embedder implementation.
type EmbedderConfig struct {
	Type string `yaml:"type"`
}

// SplitConfig bounds chunk size and overlap, in characters.
type SplitConfig struct {
	MaxSize int `yaml:"max_size"`
	Overlap int `yaml:"overlap"`
}

// ChunkerConfig configures how documents are split for each path.
type ChunkerConfig struct {
	Analyzer SplitConfig `yaml:"analyzer"`
	Index    SplitConfig `yaml:"index"`
}

// RetryConfig describes a bounded exponential backoff.
type RetryConfig struct {
	Attempts      int     `yaml:"attempts"`
	BaseDelaySecs float64 `yaml:"base_delay_secs"`
	Multiplier    float64 `yaml:"multiplier"`
	MaxDelaySecs  float64 `yaml:"max_delay_secs"`
}

// BaseDelay returns the first backoff delay.
func (r RetryConfig) BaseDelay() time.Duration { return seconds(r.BaseDelaySecs) }

// MaxDelay returns the delay cap, zero when uncapped.
func (r RetryConfig) MaxDelay() time.Duration { return seconds(r.MaxDelaySecs) }

// IndexConfig configures embedding index storage and retrieval.
type IndexConfig struct {
	Dir        string      `yaml:"dir"`
	CacheSize  int         `yaml:"cache_size"`
	TopK       int         `yaml:"top_k"`
	BuildRetry RetryConfig `yaml:"build_retry"`
	// PreviewSentences bounds the extractive preview stored with an index.
	PreviewSentences int `yaml:"preview_sentences"`
}

// QAConfig configures grounded question answering.
type QAConfig struct {
	// Temperature is a pointer so an explicit 0 survives defaulting.
	Temperature        *float32    `yaml:"temperature"`
	Retry              RetryConfig `yaml:"retry"`
	SectionTimeoutSecs int         `yaml:"section_timeout_secs"`
}

// AnswerTemperature returns the sampling temperature for grounded answers.
func (q QAConfig) AnswerTemperature() float32 {
	if q.Temperature == nil {
		return defaultQATemperature
	}
	return *q.Temperature
}

// SectionTimeout returns the per-section bound used by the content aggregator.
func (q QAConfig) SectionTimeout() time.Duration { return seconds(float64(q.SectionTimeoutSecs)) }

// AgentsConfig configures the analysis agents.
type AgentsConfig struct {
	Temperature      float32            `yaml:"temperature"`
	Temperatures     map[string]float32 `yaml:"temperatures,omitempty"`
	MaxDocumentChars int                `yaml:"max_document_chars"`
}

// ProfileConfig points at the company profile sources.
type ProfileConfig struct {
	Path         string `yaml:"path"`
	ProposalPath string `yaml:"proposal_path"`
}

// FeedbackConfig configures the feedback audit log.
type FeedbackConfig struct {
	Path string `yaml:"path"`
}

// ProposalConfig configures generated proposal documents.
type ProposalConfig struct {
	OutputDir     string `yaml:"output_dir"`
	LicenseKeyEnv string `yaml:"license_key_env"`
}

// LicenseKey reads the document library key from the configured environment variable.
func (c ProposalConfig) LicenseKey() string { return os.Getenv(c.LicenseKeyEnv) }

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Gemini     GeminiConfig   `yaml:"gemini"`
	Embedder   EmbedderConfig `yaml:"embedder"`
	Chunker    ChunkerConfig  `yaml:"chunker"`
	Index      IndexConfig    `yaml:"index"`
	ModelRetry RetryConfig    `yaml:"model_retry"`
	QA         QAConfig       `yaml:"qa"`
	Agents     AgentsConfig   `yaml:"agents"`
	Profile    ProfileConfig  `yaml:"profile"`
	Feedback   FeedbackConfig `yaml:"feedback"`
	Proposal   ProposalConfig `yaml:"proposal"`
	Log        LogConfig      `yaml:"log"`
}

// CallTimeout bounds one resilient model call including its retries.
func (c *AppConfig) CallTimeout() time.Duration {
	return seconds(float64(c.Gemini.CallTimeoutSecs))
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
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

// LoadDefault tries ./config.yaml first, then ~/.config/rfpassist/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
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
	cfg := Default()
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
	return filepath.Join(home, ".config", "rfpassist", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	g := &cfg.Gemini
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if g.Model == "" {
		g.Model = "gemini-2.0-flash"
	}
	if g.EmbeddingModel == "" {
		g.EmbeddingModel = "models/embedding-001"
	}
	if g.RequestsPerMinute == 0 {
		g.RequestsPerMinute = 15
	}
	if g.CallTimeoutSecs == 0 {
		g.CallTimeoutSecs = 1800
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	splitDefaults(&cfg.Chunker.Analyzer, 1500, 100)
	splitDefaults(&cfg.Chunker.Index, 10000, 1000)

	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "faiss_index"
	}
	if cfg.Index.CacheSize == 0 {
		cfg.Index.CacheSize = 8
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 4
	}
	if cfg.Index.PreviewSentences == 0 {
		cfg.Index.PreviewSentences = 3
	}
	retryDefaults(&cfg.Index.BuildRetry, 3, 2)
	retryDefaults(&cfg.ModelRetry, 5, 40)

	if cfg.QA.Temperature == nil {
		t := float32(defaultQATemperature)
		cfg.QA.Temperature = &t
	}
	retryDefaults(&cfg.QA.Retry, 3, 2)

	if cfg.Agents.MaxDocumentChars == 0 {
		cfg.Agents.MaxDocumentChars = 3_000_000
	}
	if cfg.Profile.Path == "" {
		cfg.Profile.Path = filepath.Join("json", "company_data.json")
	}
	if cfg.Profile.ProposalPath == "" {
		cfg.Profile.ProposalPath = "data.csv"
	}
	if cfg.Feedback.Path == "" {
		cfg.Feedback.Path = filepath.Join("logs", "feedback_log.jsonl")
	}
	if cfg.Proposal.OutputDir == "" {
		cfg.Proposal.OutputDir = "."
	}
	if cfg.Proposal.LicenseKeyEnv == "" {
		cfg.Proposal.LicenseKeyEnv = "UNIDOC_LICENSE_API_KEY"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func splitDefaults(s *SplitConfig, size, overlap int) {
	if s.MaxSize == 0 {
		s.MaxSize = size
		if s.Overlap == 0 {
			s.Overlap = overlap
		}
	}
}

func retryDefaults(r *RetryConfig, attempts int, base float64) {
	if r.Attempts == 0 {
		r.Attempts = attempts
	}
	if r.BaseDelaySecs == 0 {
		r.BaseDelaySecs = base
	}
	if r.Multiplier == 0 {
		r.Multiplier = 2
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
