package services

import (
	"context"
	"strings"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// modelStatus is the part of the gateway the status report reads
type modelStatus interface {
	Model() string
	AvailableModels() []string
	CloudConfigured() bool
	Ping(ctx context.Context) (string, error)
}

// StatusService reports which integrations are configured
type StatusService struct {
	cfg     *config.Config
	gateway modelStatus
	texts   texts
	logger  *logger.Logger
}

// NewStatusService creates a new status service
func NewStatusService(cfg *config.Config, gateway modelStatus, logger *logger.Logger) *StatusService {
	return &StatusService{
		cfg:     cfg,
		gateway: gateway,
		texts:   textsFor(cfg.App.Language),
		logger:  logger.WithComponent("status"),
	}
}

// Status checks credentials and, when probe is set, pings the local backend
func (s *StatusService) Status(ctx context.Context, probe bool) ports.StatusReport {
	model := s.gateway.Model()
	report := ports.StatusReport{
		CloudConfigured:   s.gateway.CloudConfigured(),
		WeatherConfigured: s.cfg.Weather.HasAPIKey(),
		Model:             model,
		AvailableModels:   s.gateway.AvailableModels(),
		Issues:            []string{},
	}

	if !report.WeatherConfigured {
		report.Issues = append(report.Issues, s.texts.issueWeatherKey)
	}
	if model == ports.CloudBackend && !report.CloudConfigured {
		report.Issues = append(report.Issues, s.texts.issueCloudKey)
	}
	if strings.TrimSpace(s.cfg.LLM.APIURL) == "" {
		report.Issues = append(report.Issues, s.texts.issueLocalURL)
		return report
	}

	if probe {
		version, err := s.gateway.Ping(ctx)
		if err != nil {
			s.logger.WithError(err).Warnw("Local model server unreachable", "url", s.cfg.LLM.APIURL)
			if model != ports.CloudBackend {
				report.Issues = append(report.Issues, s.texts.issueLocalDown)
			}
		} else {
			report.LocalReachable = true
			report.LocalVersion = version
		}
	}

	return report
}
