package postgres

import (
	"context"
	"database/sql"

	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
)

type configurationRepo struct {
	db *sql.DB
}

func NewConfigurationRepository(db *sql.DB) repository.ConfigurationRepository {
	return &configurationRepo{db: db}
}

func (r *configurationRepo) GetByKey(ctx context.Context, key string) (*entity.Configuration, error) {
	query := `SELECT id, key, value, description, updated_at FROM configurations WHERE key = $1`
	c := &entity.Configuration{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&c.ID, &c.Key, &c.Value, &c.Description, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *configurationRepo) GetAll(ctx context.Context) ([]entity.Configuration, error) {
	query := `SELECT id, key, value, description, updated_at FROM configurations ORDER BY key`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := []entity.Configuration{}
	for rows.Next() {
		var c entity.Configuration
		if err := rows.Scan(&c.ID, &c.Key, &c.Value, &c.Description, &c.UpdatedAt); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

func (r *configurationRepo) Upsert(ctx context.Context, config *entity.Configuration) error {
	query := `INSERT INTO configurations (key, value, description)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (key) DO UPDATE SET
	              value = EXCLUDED.value,
	              description = EXCLUDED.description,
	              updated_at = NOW()
	          RETURNING id, updated_at`
	return r.db.QueryRowContext(ctx, query, config.Key, config.Value, config.Description).
		Scan(&config.ID, &config.UpdatedAt)
}
