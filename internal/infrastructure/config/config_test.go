package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/assistant.db", cfg.Database.Path)
	assert.Equal(t, "http://localhost:11434/api", cfg.LLM.APIURL)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.CloudModel)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 5, cfg.LLM.HistoryWindow)
	assert.Equal(t, []string{"llama3.2", "mistral", "phi3", "openai"}, cfg.LLM.AvailableModels)
	assert.Equal(t, "1200x800", cfg.UI.WindowSize)
	assert.Equal(t, "София,BG", cfg.Weather.Location)
	assert.Equal(t, 25, cfg.Pomodoro.WorkMinutes)
	assert.Equal(t, 5, cfg.Pomodoro.BreakMinutes)
	assert.Equal(t, 15, cfg.Pomodoro.LongBreakMinutes)
	assert.Equal(t, 25*time.Minute, cfg.Pomodoro.WorkDuration())
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr())
	assert.Equal(t, 600, cfg.Security.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.Security.RateLimitWindow)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LLM_MODEL", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("LLM_AVAILABLE_MODELS", "mistral,openai")
	t.Setenv("POMODORO_WORK_MINUTES", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Model)
	assert.True(t, cfg.LLM.HasCloudCredential())
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"mistral", "openai"}, cfg.LLM.AvailableModels)
	assert.Equal(t, 50, cfg.Pomodoro.WorkMinutes)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown driver", key: "DB_DRIVER", val: "mysql"},
		{name: "postgres without dsn", key: "DB_DRIVER", val: "postgres"},
		{name: "port out of range", key: "SERVER_PORT", val: "70000"},
		{name: "zero history window", key: "LLM_HISTORY_WINDOW", val: "0"},
		{name: "zero pomodoro", key: "POMODORO_BREAK_MINUTES", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestCredentialPlaceholdersAreNotConfigured(t *testing.T) {
	llm := LLMConfig{OpenAIAPIKey: "your_openai_api_key_here"}
	assert.False(t, llm.HasCloudCredential())

	weather := WeatherConfig{APIKey: "  "}
	assert.False(t, weather.HasAPIKey())

	weather.APIKey = "abc"
	assert.True(t, weather.HasAPIKey())
}
