package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// OllamaClient speaks the local /chat protocol
type OllamaClient struct {
	baseURL     string
	temperature float64
	numPredict  int
	transport
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ports.Message `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChatResponse struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaClient creates a client for the local backend at cfg.APIURL
func NewOllamaClient(cfg config.LLMConfig, log *logger.Logger) *OllamaClient {
	return &OllamaClient{
		baseURL:     strings.TrimRight(cfg.APIURL, "/"),
		temperature: cfg.Temperature,
		numPredict:  cfg.NumPredict,
		transport:   newTransport("ollama", cfg.Timeout, log),
	}
}

var _ ports.ChatBackend = (*OllamaClient)(nil)

func (c *OllamaClient) Name() string {
	return c.name
}

// Chat sends a non-streaming chat request and returns the reply text
func (c *OllamaClient) Chat(ctx context.Context, model string, messages []ports.Message) (string, error) {
	payload := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: c.temperature,
			NumPredict:  c.numPredict,
		},
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/chat", payload, nil, ollamaErrorMessage)
	if err != nil {
		return "", err
	}

	var resp ollamaChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", c.malformed(fmt.Errorf("failed to decode response: %w", err))
	}
	if resp.Message == nil {
		return "", c.malformed(errors.New("response has no message"))
	}

	return resp.Message.Content, nil
}

// Ping asks the local server for its version
func (c *OllamaClient) Ping(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/version", nil, nil, ollamaErrorMessage)
	if err != nil {
		return "", err
	}

	var resp struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", c.malformed(fmt.Errorf("failed to decode version: %w", err))
	}

	return resp.Version, nil
}

func ollamaErrorMessage(body []byte) string {
	var e ollamaError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}
