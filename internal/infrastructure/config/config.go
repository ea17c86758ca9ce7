package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Legacy   LegacyConfig   `mapstructure:"legacy"`
	LLM      LLMConfig      `mapstructure:"llm"`
	UI       UIConfig       `mapstructure:"ui"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Pomodoro PomodoroConfig `mapstructure:"pomodoro"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Language    string `mapstructure:"language"`
}

// ServerConfig holds the loopback API server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// LegacyConfig locates the pre-migration JSON documents
type LegacyConfig struct {
	Dir string `mapstructure:"dir"`
}

// LLMConfig holds both chat backends' settings
type LLMConfig struct {
	APIURL          string        `mapstructure:"api_url"`
	Model           string        `mapstructure:"model"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	OpenAIURL       string        `mapstructure:"openai_url"`
	CloudModel      string        `mapstructure:"cloud_model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Temperature     float64       `mapstructure:"temperature"`
	NumPredict      int           `mapstructure:"num_predict"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	HistoryWindow   int           `mapstructure:"history_window"`
	SystemPrompt    string        `mapstructure:"system_prompt"`
	AvailableModels []string      `mapstructure:"available_models"`
}

// UIConfig carries defaults the presentation shell reads at startup
type UIConfig struct {
	WindowSize string `mapstructure:"window_size"`
	Theme      string `mapstructure:"theme"`
}

// WeatherConfig holds the weather widget defaults
type WeatherConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Location string        `mapstructure:"location"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PomodoroConfig holds timer lengths in minutes
type PomodoroConfig struct {
	WorkMinutes      int `mapstructure:"work_minutes"`
	BreakMinutes     int `mapstructure:"break_minutes"`
	LongBreakMinutes int `mapstructure:"long_break_minutes"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SecurityConfig holds API protection settings
type SecurityConfig struct {
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Placeholder values shipped in the sample .env; treated as "not configured".
const (
	placeholderOpenAIKey  = "your_openai_api_key_here"
	placeholderWeatherKey = "your_openweather_api_key_here"
)

// Load loads configuration from .env, the environment and defaults
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Персонален Асистент")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.language", "bg")

	// Server defaults
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "45s")
	v.SetDefault("server.idle_timeout", "120s")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/assistant.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")
	v.SetDefault("database.busy_timeout", "5s")

	// Legacy JSON defaults
	v.SetDefault("legacy.dir", "data")

	// LLM defaults
	v.SetDefault("llm.api_url", "http://localhost:11434/api")
	v.SetDefault("llm.model", "llama3.2")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openai_url", "https://api.openai.com/v1")
	v.SetDefault("llm.cloud_model", "gpt-3.5-turbo")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.num_predict", 1024)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.history_window", 5)
	v.SetDefault("llm.system_prompt", "Ти си полезен български асистент.")
	v.SetDefault("llm.available_models", []string{"llama3.2", "mistral", "phi3", "openai"})

	// UI defaults
	v.SetDefault("ui.window_size", "1200x800")
	v.SetDefault("ui.theme", "dark")

	// Weather defaults
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.location", "София,BG")
	v.SetDefault("weather.timeout", "10s")

	// Pomodoro defaults
	v.SetDefault("pomodoro.work_minutes", 25)
	v.SetDefault("pomodoro.break_minutes", 5)
	v.SetDefault("pomodoro.long_break_minutes", 15)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.filename", "logs/assistant.log")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 7)
	v.SetDefault("logger.max_age_days", 30)

	// Security defaults
	v.SetDefault("security.rate_limit_requests", 600)
	v.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.version", "APP_VERSION")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("app.language", "APP_LANGUAGE")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")

	// Database
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("database.dsn", "DB_DSN")
	v.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	v.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	v.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	v.BindEnv("database.conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")
	v.BindEnv("database.busy_timeout", "DB_BUSY_TIMEOUT")

	// Legacy
	v.BindEnv("legacy.dir", "JSON_DATA_DIR")

	// LLM
	v.BindEnv("llm.api_url", "OLLAMA_API_URL")
	v.BindEnv("llm.model", "LLM_MODEL")
	v.BindEnv("llm.openai_api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.openai_url", "OPENAI_API_URL")
	v.BindEnv("llm.cloud_model", "OPENAI_MODEL")
	v.BindEnv("llm.timeout", "API_TIMEOUT")
	v.BindEnv("llm.temperature", "LLM_TEMPERATURE")
	v.BindEnv("llm.num_predict", "LLM_NUM_PREDICT")
	v.BindEnv("llm.max_tokens", "LLM_MAX_TOKENS")
	v.BindEnv("llm.history_window", "LLM_HISTORY_WINDOW")
	v.BindEnv("llm.system_prompt", "LLM_SYSTEM_PROMPT")
	v.BindEnv("llm.available_models", "LLM_AVAILABLE_MODELS")

	// UI
	v.BindEnv("ui.window_size", "DEFAULT_WINDOW_SIZE")
	v.BindEnv("ui.theme", "DEFAULT_THEME")

	// Weather
	v.BindEnv("weather.api_key", "OPENWEATHER_API_KEY")
	v.BindEnv("weather.location", "DEFAULT_LOCATION")
	v.BindEnv("weather.timeout", "WEATHER_TIMEOUT")

	// Pomodoro
	v.BindEnv("pomodoro.work_minutes", "POMODORO_WORK_MINUTES")
	v.BindEnv("pomodoro.break_minutes", "POMODORO_BREAK_MINUTES")
	v.BindEnv("pomodoro.long_break_minutes", "POMODORO_LONG_BREAK_MINUTES")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")
	v.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	v.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")

	// Metrics
	v.BindEnv("metrics.enabled", "ENABLE_METRICS")
}

// Validate checks the values Load cannot default away
func (cfg *Config) Validate() error {
	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive")
	}

	if cfg.LLM.HistoryWindow < 1 {
		return fmt.Errorf("llm history window must be at least 1")
	}

	if cfg.Pomodoro.WorkMinutes <= 0 || cfg.Pomodoro.BreakMinutes <= 0 || cfg.Pomodoro.LongBreakMinutes <= 0 {
		return fmt.Errorf("pomodoro durations must be positive")
	}

	return nil
}

// HasCloudCredential reports whether a usable cloud API key is configured
func (cfg *LLMConfig) HasCloudCredential() bool {
	return isConfigured(cfg.OpenAIAPIKey, placeholderOpenAIKey)
}

// HasAPIKey reports whether a usable weather API key is configured
func (cfg *WeatherConfig) HasAPIKey() bool {
	return isConfigured(cfg.APIKey, placeholderWeatherKey)
}

// Addr returns host:port for the API server
func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// WorkDuration returns the focus length of one pomodoro
func (cfg *PomodoroConfig) WorkDuration() time.Duration {
	return time.Duration(cfg.WorkMinutes) * time.Minute
}

func isConfigured(value, placeholder string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != placeholder
}
