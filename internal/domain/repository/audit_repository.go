package repository

import (
	"context"

	"github.com/Kei-Shiro/road/internal/domain/entity"
)

type AuditRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	GetRecent(ctx context.Context, limit int) ([]entity.AuditLog, error)
}
