package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

// Gateway routes a conversation to the local or the cloud backend
// depending on the selected model, and turns every failure into a
// displayable reply.
type Gateway struct {
	local   ports.LocalChatBackend
	cloud   ports.CloudChatBackend
	cfg     config.LLMConfig
	texts   texts
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	model     string
	available []string
}

// NewGateway creates a new LLM gateway
func NewGateway(local ports.LocalChatBackend, cloud ports.CloudChatBackend, cfg config.LLMConfig, language string, logger *logger.Logger, m *metrics.Metrics) *Gateway {
	available := slices.Clone(cfg.AvailableModels)
	if cfg.Model != "" && !slices.Contains(available, cfg.Model) {
		available = append(available, cfg.Model)
	}

	return &Gateway{
		local:     local,
		cloud:     cloud,
		cfg:       cfg,
		texts:     textsFor(language),
		logger:    logger.WithComponent("llm-gateway"),
		metrics:   m,
		model:     cfg.Model,
		available: available,
	}
}

var _ ports.LLMGateway = (*Gateway)(nil)

// Model returns the currently selected model name
func (g *Gateway) Model() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.model
}

// AvailableModels returns the names the shell offers for selection
func (g *Gateway) AvailableModels() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.available)
}

// ChangeModel selects the model for subsequent requests; requests already
// in flight keep the model they started with.
func (g *Gateway) ChangeModel(model string) bool {
	model = strings.TrimSpace(model)
	if model == "" {
		return false
	}

	g.mu.Lock()
	previous := g.model
	g.model = model
	if !slices.Contains(g.available, model) {
		g.available = append(g.available, model)
	}
	g.mu.Unlock()

	g.logger.Infow("Model changed", "from", previous, "to", model)
	return true
}

// SetAPIKey updates the cloud credential from the settings screen
func (g *Gateway) SetAPIKey(key string) {
	g.cloud.SetAPIKey(key)
}

// CloudConfigured reports whether the cloud backend has a credential
func (g *Gateway) CloudConfigured() bool {
	return g.cloud.HasCredential()
}

// Ping checks that the local backend answers
func (g *Gateway) Ping(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	return g.local.Ping(ctx)
}

// Respond sends userMessage with a window of history to the selected backend.
// It never fails: errors are carried in Reply.Err next to a displayable text.
func (g *Gateway) Respond(ctx context.Context, userMessage string, history []*entities.ChatMessage) ports.Reply {
	model := g.Model()

	var (
		backend   ports.ChatBackend
		wireModel string
		kind      BackendKind
	)
	if model == ports.CloudBackend {
		if !g.cloud.HasCredential() {
			g.logger.Warnw("Cloud model selected without API key")
			return ports.Reply{Text: g.texts.missingKey, Backend: g.cloud.Name(), Err: entities.ErrMissingCredential}
		}
		backend, wireModel, kind = g.cloud, g.cfg.CloudModel, BackendCloud
	} else {
		backend, wireModel, kind = g.local, model, BackendLocal
	}

	messages := AssembleContext(history, userMessage, kind, ContextOptions{
		Window:       g.cfg.HistoryWindow,
		SystemPrompt: g.cfg.SystemPrompt,
	})

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := backend.Chat(ctx, wireModel, messages)
	g.metrics.ObserveLLM(backend.Name(), err, time.Since(start))

	if err != nil {
		if errors.Is(err, entities.ErrMissingCredential) {
			return ports.Reply{Text: g.texts.missingKey, Backend: backend.Name(), Err: err}
		}
		g.logger.Errorw("Error calling LLM", "backend", backend.Name(), "model", wireModel, "error", err)
		return ports.Reply{Text: g.texts.failureText(err), Backend: backend.Name(), Err: err}
	}

	g.logger.Debugw("LLM replied", "backend", backend.Name(), "model", wireModel, "messages", len(messages))
	return ports.Reply{Text: text, Backend: backend.Name()}
}
