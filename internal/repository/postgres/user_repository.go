package postgres

import (
	"context"
	"database/sql"

	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone, role,
	login_attempts, is_locked, locked_at, is_online, last_login, is_active, created_at, updated_at`

type userRepo struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (email, password_hash, first_name, last_name, phone, role)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *userRepo) GetAll(ctx context.Context) ([]entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []entity.User{}
	for rows.Next() {
		var u entity.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) Update(ctx context.Context, user *entity.User) error {
	query := `UPDATE users SET
		email = $1, password_hash = $2, first_name = $3, last_name = $4, phone = $5,
		role = $6, login_attempts = $7, is_locked = $8, locked_at = $9, is_online = $10,
		last_login = $11, is_active = $12, updated_at = NOW()
		WHERE id = $13`
	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Phone,
		user.Role, user.LoginAttempts, user.IsLocked, user.LockedAt, user.IsOnline,
		user.LastLogin, user.IsActive, user.ID,
	)
	return err
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// Delete désactive le compte. Les signalements référencent les utilisateurs,
// on ne supprime donc jamais physiquement.
func (r *userRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = FALSE, is_online = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *userRepo) scanOne(row *sql.Row) (*entity.User, error) {
	u := &entity.User{}
	err := scanUser(row, u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner, u *entity.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.Role,
		&u.LoginAttempts, &u.IsLocked, &u.LockedAt, &u.IsOnline, &u.LastLogin,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
}
