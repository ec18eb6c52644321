package postgres

import (
	"context"
	"database/sql"

	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
)

type auditRepo struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) repository.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	query := `INSERT INTO audit_logs (actor_id, actor_email, action, target_id, details, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		log.ActorID, log.ActorEmail, log.Action, log.TargetID, log.Details, log.CreatedAt,
	).Scan(&log.ID)
}

func (r *auditRepo) GetRecent(ctx context.Context, limit int) ([]entity.AuditLog, error) {
	query := `SELECT id, actor_id, actor_email, action, target_id, details, created_at
	          FROM audit_logs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []entity.AuditLog{}
	for rows.Next() {
		var l entity.AuditLog
		if err := rows.Scan(&l.ID, &l.ActorID, &l.ActorEmail, &l.Action, &l.TargetID, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
