package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/domain/audit"
	"github.com/quotagate/quotagate/internal/core/ports"
)

// AuditService appends decision records. Writes are log-and-continue: an
// audit failure must never block or fail the operation it records.
type AuditService struct {
	repo   ports.AuditRepository
	logger *logrus.Logger
}

func NewAuditService(repo ports.AuditRepository, logger *logrus.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record appends one decision entry, filling the id and timestamp when the
// caller left them zero.
func (s *AuditService) Record(ctx context.Context, rec *audit.Record) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"operation": rec.Operation,
				"allowed":   rec.Allowed,
				"reason":    rec.Reason,
			}).WithError(err).Error("failed to persist audit record")
		}
	}
}

// GetRecords returns matching records and the total count for reporting.
func (s *AuditService) GetRecords(ctx context.Context, filter *audit.Filter) ([]*audit.Record, int, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
