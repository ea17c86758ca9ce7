package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
)

// Replies larger than this are treated as a broken envelope
const maxResponseBytes = 4 << 20

// transport is the HTTP plumbing both protocols share
type transport struct {
	name       string
	httpClient *http.Client
	logger     *logger.Logger
}

func newTransport(name string, timeout time.Duration, log *logger.Logger) transport {
	return transport{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithComponent(name),
	}
}

// do sends one request and returns the body of a 200 response.
// Non-200 responses come back as *entities.ProtocolError with the
// message errorMessage extracts from the body.
func (t transport) do(ctx context.Context, method, url string, payload interface{}, headers map[string]string, errorMessage func([]byte) string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.LogAPICall(t.name, url, "error", msSince(start))
		return nil, &entities.NetworkError{Backend: t.name, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		t.logger.LogAPICall(t.name, url, "error", msSince(start))
		return nil, &entities.NetworkError{Backend: t.name, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	t.logger.LogAPICall(t.name, url, resp.Status, msSince(start))

	if resp.StatusCode != http.StatusOK {
		message := errorMessage(data)
		if message == "" {
			message = strings.TrimSpace(string(data))
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &entities.ProtocolError{Backend: t.name, StatusCode: resp.StatusCode, Message: message}
	}

	return data, nil
}

func (t transport) malformed(err error) error {
	return &entities.ProtocolError{Backend: t.name, StatusCode: http.StatusOK, Message: err.Error()}
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
