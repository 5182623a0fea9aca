package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"parking-analytics-service/internal/model"
	"parking-analytics-service/internal/repository"
)

// StatusService ingests sensor state reports.
type StatusService struct {
	repo *repository.StatusRepository
	log  zerolog.Logger
}

func NewStatusService(repo *repository.StatusRepository, log zerolog.Logger) *StatusService {
	return &StatusService{repo: repo, log: log}
}

// Record persists one state report. An unknown sensor is the caller's
// error, not a reason to create one implicitly.
func (s *StatusService) Record(ctx context.Context, report model.StatusReport) (*model.StatusEvent, error) {
	event, err := s.repo.Record(ctx, report)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: sensor", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("record status: %w", err)
	}

	s.log.Debug().
		Str("sensor_id", event.SensorID.String()).
		Bool("state", event.State).
		Time("timestamp", event.Timestamp).
		Msg("status recorded")
	return event, nil
}
