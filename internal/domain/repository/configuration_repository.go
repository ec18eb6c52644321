package repository

import (
	"context"

	"github.com/Kei-Shiro/road/internal/domain/entity"
)

type ConfigurationRepository interface {
	GetByKey(ctx context.Context, key string) (*entity.Configuration, error)
	GetAll(ctx context.Context) ([]entity.Configuration, error)
	Upsert(ctx context.Context, config *entity.Configuration) error
}
