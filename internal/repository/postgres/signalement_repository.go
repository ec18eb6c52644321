package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
)

const signalementColumns = `id, title, description, latitude, longitude, address, h3_index,
	status, progress, surface_area, level, budget, company,
	start_date, expected_end_date, actual_end_date,
	date_new, date_in_progress, date_done,
	priority, type, photo_url, sync_id, is_synced, local_updated_at,
	created_by, updated_by, created_at, updated_at, is_active`

// dbtx couvre *sql.DB et *sql.Tx pour que les méthodes du repository
// fonctionnent à l'identique dans et hors transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type signalementRepo struct {
	db *sql.DB
	q  dbtx
}

func NewSignalementRepository(db *sql.DB) repository.SignalementRepository {
	return &signalementRepo{db: db, q: db}
}

func (r *signalementRepo) RunInTx(ctx context.Context, fn func(repository.SignalementRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&signalementRepo{db: r.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

func (r *signalementRepo) Create(ctx context.Context, s *entity.Signalement) error {
	query := `INSERT INTO signalements (
		title, description, latitude, longitude, address, h3_index,
		status, progress, surface_area, level, budget, company,
		start_date, expected_end_date, actual_end_date,
		date_new, date_in_progress, date_done,
		priority, type, photo_url, sync_id, is_synced, local_updated_at,
		created_by, is_active
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	          $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, TRUE)
	RETURNING id, created_at, updated_at`
	return r.q.QueryRowContext(ctx, query,
		s.Title, s.Description, s.Latitude, s.Longitude, s.Address, s.H3Index,
		s.Status, s.Progress, s.SurfaceArea, s.Level, s.Budget, s.Company,
		s.StartDate, s.ExpectedEndDate, s.ActualEndDate,
		s.DateNew, s.DateInProgress, s.DateDone,
		s.Priority, s.Type, s.PhotoURL, s.SyncID, s.IsSynced, s.LocalUpdatedAt,
		s.CreatedByID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *signalementRepo) Update(ctx context.Context, s *entity.Signalement) error {
	query := `UPDATE signalements SET
		title = $1, description = $2, latitude = $3, longitude = $4, address = $5, h3_index = $6,
		status = $7, progress = $8, surface_area = $9, level = $10, budget = $11, company = $12,
		start_date = $13, expected_end_date = $14, actual_end_date = $15,
		date_new = $16, date_in_progress = $17, date_done = $18,
		priority = $19, type = $20, photo_url = $21, is_synced = $22, local_updated_at = $23,
		updated_by = $24, is_active = $25, updated_at = NOW()
	WHERE id = $26
	RETURNING updated_at`
	return r.q.QueryRowContext(ctx, query,
		s.Title, s.Description, s.Latitude, s.Longitude, s.Address, s.H3Index,
		s.Status, s.Progress, s.SurfaceArea, s.Level, s.Budget, s.Company,
		s.StartDate, s.ExpectedEndDate, s.ActualEndDate,
		s.DateNew, s.DateInProgress, s.DateDone,
		s.Priority, s.Type, s.PhotoURL, s.IsSynced, s.LocalUpdatedAt,
		s.UpdatedByID, s.IsActive, s.ID,
	).Scan(&s.UpdatedAt)
}

func (r *signalementRepo) GetByID(ctx context.Context, id int64) (*entity.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalements WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

func (r *signalementRepo) GetBySyncID(ctx context.Context, syncID string) (*entity.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalements WHERE sync_id = $1 AND is_active`
	return r.scanOne(r.q.QueryRowContext(ctx, query, syncID))
}

func (r *signalementRepo) GetAllActive(ctx context.Context) ([]entity.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalements WHERE is_active ORDER BY created_at DESC`
	return r.queryList(ctx, query)
}

func (r *signalementRepo) GetByStatus(ctx context.Context, status entity.SignalementStatus) ([]entity.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalements WHERE status = $1 AND is_active ORDER BY created_at DESC`
	return r.queryList(ctx, query, status)
}

func (r *signalementRepo) GetByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]entity.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalements
	          WHERE is_active AND latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
	          ORDER BY created_at DESC`
	return r.queryList(ctx, query, minLat, maxLat, minLng, maxLng)
}

func (r *signalementRepo) GetModifiedSince(ctx context.Context, since time.Time) ([]entity.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalements
	          WHERE is_active AND updated_at > $1 ORDER BY updated_at ASC`
	return r.queryList(ctx, query, since)
}

func (r *signalementRepo) Aggregates(ctx context.Context) (*repository.SignalementAggregates, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'NEW'),
		COUNT(*) FILTER (WHERE status = 'IN_PROGRESS'),
		COUNT(*) FILTER (WHERE status = 'DONE'),
		COALESCE(SUM(surface_area), 0),
		COALESCE(SUM(budget), 0),
		COALESCE(AVG(progress), 0)
	FROM signalements WHERE is_active`

	agg := &repository.SignalementAggregates{}
	err := r.q.QueryRowContext(ctx, query).Scan(
		&agg.Total, &agg.CountNew, &agg.CountInProg, &agg.CountDone,
		&agg.TotalSurface, &agg.TotalBudget, &agg.AvgProgress,
	)
	if err != nil {
		return nil, err
	}
	return agg, nil
}

func (r *signalementRepo) CountByCompany(ctx context.Context) ([]repository.GroupCount, error) {
	query := `SELECT company, COUNT(*) FROM signalements
	          WHERE is_active AND company <> '' GROUP BY company ORDER BY COUNT(*) DESC`
	return r.queryGroupCounts(ctx, query)
}

func (r *signalementRepo) CountByZone(ctx context.Context) ([]repository.GroupCount, error) {
	query := `SELECT h3_index, COUNT(*) FROM signalements
	          WHERE is_active AND h3_index <> '' GROUP BY h3_index ORDER BY COUNT(*) DESC`
	return r.queryGroupCounts(ctx, query)
}

func (r *signalementRepo) ListMilestones(ctx context.Context) ([]repository.MilestonePair, error) {
	query := `SELECT date_new, date_in_progress, date_done FROM signalements WHERE is_active`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairs := []repository.MilestonePair{}
	for rows.Next() {
		var p repository.MilestonePair
		if err := rows.Scan(&p.DateNew, &p.DateInProgress, &p.DateDone); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (r *signalementRepo) queryList(ctx context.Context, query string, args ...interface{}) ([]entity.Signalement, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []entity.Signalement{}
	for rows.Next() {
		var s entity.Signalement
		if err := scanSignalement(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *signalementRepo) queryGroupCounts(ctx context.Context, query string) ([]repository.GroupCount, error) {
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []repository.GroupCount{}
	for rows.Next() {
		var c repository.GroupCount
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *signalementRepo) scanOne(row *sql.Row) (*entity.Signalement, error) {
	s := &entity.Signalement{}
	err := scanSignalement(row, s)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSignalement(row rowScanner, s *entity.Signalement) error {
	return row.Scan(
		&s.ID, &s.Title, &s.Description, &s.Latitude, &s.Longitude, &s.Address, &s.H3Index,
		&s.Status, &s.Progress, &s.SurfaceArea, &s.Level, &s.Budget, &s.Company,
		&s.StartDate, &s.ExpectedEndDate, &s.ActualEndDate,
		&s.DateNew, &s.DateInProgress, &s.DateDone,
		&s.Priority, &s.Type, &s.PhotoURL, &s.SyncID, &s.IsSynced, &s.LocalUpdatedAt,
		&s.CreatedByID, &s.UpdatedByID, &s.CreatedAt, &s.UpdatedAt, &s.IsActive,
	)
}
