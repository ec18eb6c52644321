package postgres

import (
	"context"
	"database/sql"

	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
)

const sessionColumns = `id, user_id, token, refresh_token, expires_at, refresh_expires_at,
	is_valid, ip_address, user_agent, created_at`

type sessionRepo struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *entity.Session) error {
	query := `INSERT INTO sessions (user_id, token, refresh_token, expires_at, refresh_expires_at, ip_address, user_agent)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		session.UserID,
		session.Token,
		session.RefreshToken,
		session.ExpiresAt,
		session.RefreshExpiresAt,
		session.IPAddress,
		session.UserAgent,
	).Scan(&session.ID, &session.CreatedAt)
}

func (r *sessionRepo) GetByToken(ctx context.Context, token string) (*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1 AND is_valid`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *sessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE refresh_token = $1 AND is_valid`
	return r.scanOne(r.db.QueryRowContext(ctx, query, refreshToken))
}

func (r *sessionRepo) Invalidate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET is_valid = FALSE WHERE id = $1`, id)
	return err
}

func (r *sessionRepo) scanOne(row *sql.Row) (*entity.Session, error) {
	s := &entity.Session{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.ExpiresAt, &s.RefreshExpiresAt,
		&s.IsValid, &s.IPAddress, &s.UserAgent, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
