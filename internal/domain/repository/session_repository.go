package repository

import (
	"context"

	"github.com/Kei-Shiro/road/internal/domain/entity"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	GetByToken(ctx context.Context, token string) (*entity.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*entity.Session, error)
	Invalidate(ctx context.Context, id int64) error
}
