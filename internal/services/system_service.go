package services

import (
	"context"
	"errors"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// SystemServiceDeps wires the dependency health collector.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
	Logger func(context.Context, string, map[string]any)
}

type systemService struct {
	health repositories.HealthRepository
	logger func(context.Context, string, map[string]any)
}

var _ SystemService = (*systemService)(nil)

// NewSystemService constructs the health reporting service.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &systemService{health: deps.Health, logger: logger}, nil
}

func (s *systemService) HealthReport(ctx context.Context) (SystemHealthReport, error) {
	report, err := s.health.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, err
	}
	if report.Status != domain.HealthStatusOK {
		s.logger(ctx, "system.health_degraded", map[string]any{"status": report.Status})
	}
	return report, nil
}
