package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	"github.com/noah-isme/zyntra-exam-api/pkg/config"
	"github.com/noah-isme/zyntra-exam-api/pkg/jobs"
)

type auditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditService appends entries to the audit trail without ever blocking or
// failing the operation being audited. Writes go through a bounded background
// queue; when the buffer is full the write is attempted asynchronously and
// any storage failure is swallowed after logging.
type AuditService struct {
	repo   auditLogRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs the audit writer and its queue. Call Start
// before recording and Stop on shutdown.
func NewAuditService(repo auditLogRepository, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the background writers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// QueueDepth exposes the number of pending writes for metrics.
func (s *AuditService) QueueDepth() int {
	return s.queue.Depth()
}

// Record appends an audit entry. It never returns an error: audit-write
// failure must not affect the audited operation. The superadmin actor is
// stored with a NULL user_id.
func (s *AuditService) Record(actor models.Actor, action string, details interface{}) {
	payload, err := json.Marshal(details)
	if err != nil {
		s.logger.Warn("audit details not serialisable", zap.String("action", action), zap.Error(err))
		payload = nil
	}

	entry := &models.AuditLog{
		ID:      uuid.NewString(),
		UserID:  actor.ID,
		Role:    actor.Role,
		Action:  action,
		Details: payload,
	}

	if s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: action, Payload: entry}) {
		return
	}

	// Queue full or stopped: attempt the write off the request path anyway.
	s.logger.Warn("audit queue saturated, writing directly", zap.String("action", action))
	go func() {
		if err := s.repo.Create(context.Background(), entry); err != nil {
			s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
		}
	}()
}

// List returns the most recent audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	return s.repo.List(ctx, limit)
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Warn("audit job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, entry)
}
