package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
)

// AuditRepository persists the append-only audit trail. Rows are inserted and
// read, never updated or deleted.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, role, action, details, created_at)
		VALUES (:id, :user_id, :role, :action, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	const query = `SELECT id, user_id, role, action, details, created_at FROM audit_logs ORDER BY created_at DESC LIMIT $1`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
