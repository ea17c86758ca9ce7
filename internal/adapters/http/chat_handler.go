package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// ModelResponse describes the selected model and the choices offered
type ModelResponse struct {
	Model           string   `json:"model"`
	AvailableModels []string `json:"available_models"`
}

// ChatHandler handles conversation and model selection requests
type ChatHandler struct {
	chatService *services.ChatService
	gateway     ports.LLMGateway
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService, gateway ports.LLMGateway, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		gateway:     gateway,
		logger:      logger,
	}
}

// History returns the conversation; ?limit=N keeps only the newest N messages
func (h *ChatHandler) History(c echo.Context) error {
	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		limit = n
	}

	messages, err := h.chatService.History(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messages)
}

// SendMessage asks the assistant and waits for its reply.
// A failed model call still answers 200 with failed=true and the error text as reply.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req ports.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result := h.chatService.SendAndWait(c.Request().Context(), req.Message)
	if result.Err != nil {
		if !errors.Is(result.Err, entities.ErrInvalidInput) {
			h.logger.Errorw("Chat reply was not stored", "error", result.Err, "reply", result.Reply.Text)
		}
		return result.Err
	}

	return c.JSON(http.StatusOK, ports.ChatResponse{
		UserMessageID:      result.UserMessage.ID,
		AssistantMessageID: result.AssistantMessage.ID,
		Reply:              result.Reply.Text,
		Backend:            result.Reply.Backend,
		Failed:             result.Reply.Failed(),
	})
}

// ClearHistory deletes the whole conversation
func (h *ChatHandler) ClearHistory(c echo.Context) error {
	count, err := h.chatService.Clear(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.CountResponse{Count: count})
}

// GetModel returns the selected model
func (h *ChatHandler) GetModel(c echo.Context) error {
	return c.JSON(http.StatusOK, ModelResponse{
		Model:           h.gateway.Model(),
		AvailableModels: h.gateway.AvailableModels(),
	})
}

// ChangeModel selects the model used from the next message on
func (h *ChatHandler) ChangeModel(c echo.Context) error {
	var req ports.ChangeModelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if !h.gateway.ChangeModel(req.Model) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid model name")
	}

	h.logger.Infow("Model changed", "model", req.Model)
	return h.GetModel(c)
}
