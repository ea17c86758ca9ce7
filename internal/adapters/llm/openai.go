package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// OpenAIClient speaks the cloud chat-completions protocol
type OpenAIClient struct {
	baseURL     string
	temperature float64
	maxTokens   int
	transport

	mu     sync.RWMutex
	apiKey string
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []ports.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAIClient creates a client for the cloud backend at cfg.OpenAIURL
func NewOpenAIClient(cfg config.LLMConfig, log *logger.Logger) *OpenAIClient {
	c := &OpenAIClient{
		baseURL:     strings.TrimRight(cfg.OpenAIURL, "/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		transport:   newTransport("openai", cfg.Timeout, log),
	}
	if cfg.HasCloudCredential() {
		c.apiKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	}
	return c
}

var _ ports.ChatBackend = (*OpenAIClient)(nil)

func (c *OpenAIClient) Name() string {
	return c.name
}

// SetAPIKey replaces the credential; an empty key disables the client
func (c *OpenAIClient) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = strings.TrimSpace(key)
}

// HasCredential reports whether an API key is set
func (c *OpenAIClient) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// Chat posts to /chat/completions and returns the first choice
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []ports.Message) (string, error) {
	c.mu.RLock()
	apiKey := c.apiKey
	c.mu.RUnlock()

	if apiKey == "" {
		return "", entities.ErrMissingCredential
	}

	payload := openAIChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/chat/completions", payload, headers, openAIErrorMessage)
	if err != nil {
		return "", err
	}

	var resp openAIChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", c.malformed(fmt.Errorf("failed to decode response: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", c.malformed(errors.New("no completion returned"))
	}

	return resp.Choices[0].Message.Content, nil
}

func openAIErrorMessage(body []byte) string {
	var e openAIError
	if err := json.Unmarshal(body, &e); err != nil || e.Error == nil {
		return ""
	}
	return e.Error.Message
}
