package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

// Config holds the full application configuration. It is constructed once at
// process start and passed by reference; no component reads ambient state.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Yahoo     YahooConfig     `yaml:"yahoo" mapstructure:"yahoo"`
	NHL       NHLConfig       `yaml:"nhl" mapstructure:"nhl"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Email     EmailConfig     `yaml:"email" mapstructure:"email"`
	League    LeagueConfig    `yaml:"league" mapstructure:"league"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings for the reasoning capability.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// YahooConfig holds roster provider settings.
type YahooConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
	LeagueKey   string `yaml:"league_key" mapstructure:"league_key"`
	TeamKey     string `yaml:"team_key" mapstructure:"team_key"`
}

// NHLConfig holds schedule provider settings.
type NHLConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// RetrievalConfig holds semantic-retrieval backend settings.
type RetrievalConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Key         string `yaml:"key" mapstructure:"key"`
	Collection  string `yaml:"collection" mapstructure:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
	To       string `yaml:"to" mapstructure:"to"`
}

// LeagueConfig holds the league constraints recognized by the engine.
type LeagueConfig struct {
	AcquisitionLimitPerWeek int  `yaml:"acquisition_limit_per_week" mapstructure:"acquisition_limit_per_week"`
	PlanningHorizonDays     int  `yaml:"planning_horizon_days" mapstructure:"planning_horizon_days"`
	MinGamesPlayedThreshold int  `yaml:"min_games_played_threshold" mapstructure:"min_games_played_threshold"`
	MaxOrchestrationRounds  int  `yaml:"max_orchestration_rounds" mapstructure:"max_orchestration_rounds"`
	HistoricalTopK          int  `yaml:"historical_top_k" mapstructure:"historical_top_k"`
	OutcomeDamping          bool `yaml:"outcome_damping" mapstructure:"outcome_damping"`
}

// Validate checks league constraints before any component runs.
func (l LeagueConfig) Validate() error {
	if l.AcquisitionLimitPerWeek < 0 {
		return resilience.NewConfigurationError("acquisition_limit_per_week must be >= 0")
	}
	if l.PlanningHorizonDays <= 0 {
		return resilience.NewConfigurationError("planning_horizon_days must be > 0")
	}
	if l.MinGamesPlayedThreshold < 0 {
		return resilience.NewConfigurationError("min_games_played_threshold must be >= 0")
	}
	if l.MaxOrchestrationRounds <= 0 {
		return resilience.NewConfigurationError("max_orchestration_rounds must be > 0")
	}
	if l.HistoricalTopK < 0 {
		return resilience.NewConfigurationError("historical_top_k must be >= 0")
	}
	return nil
}

// EngineConfig configures orchestration behavior.
type EngineConfig struct {
	CallTimeoutSecs    int  `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	MaxRetryAttempts   int  `yaml:"max_retry_attempts" mapstructure:"max_retry_attempts"`
	RecencyLimitDays   int  `yaml:"recency_limit_days" mapstructure:"recency_limit_days"`
	ParallelFanOut     bool `yaml:"parallel_fan_out" mapstructure:"parallel_fan_out"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STREAMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "streamer.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("yahoo.base_url", "https://fantasysports.yahooapis.com/fantasy/v2")
	v.SetDefault("nhl.base_url", "https://api-web.nhle.com/v1")
	v.SetDefault("nhl.requests_per_sec", 4)
	v.SetDefault("retrieval.collection", "recommendations_archive")
	v.SetDefault("retrieval.timeout_secs", 10)
	v.SetDefault("email.port", 587)
	v.SetDefault("league.acquisition_limit_per_week", 4)
	v.SetDefault("league.planning_horizon_days", 14)
	v.SetDefault("league.min_games_played_threshold", 3)
	v.SetDefault("league.max_orchestration_rounds", 3)
	v.SetDefault("league.historical_top_k", 5)
	v.SetDefault("league.outcome_damping", false)
	v.SetDefault("engine.call_timeout_secs", 60)
	v.SetDefault("engine.max_retry_attempts", 3)
	v.SetDefault("engine.recency_limit_days", 120)
	v.SetDefault("engine.parallel_fan_out", true)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.League.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
