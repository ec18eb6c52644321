package repository

import (
	"context"
	"time"

	"github.com/Kei-Shiro/road/internal/domain/entity"
)

// GroupCount est une ligne de comptage agrégé (entreprise, zone H3...).
type GroupCount struct {
	Key   string
	Count int64
}

// MilestonePair porte les jalons d'un signalement pour le calcul des temps
// moyens de traitement.
type MilestonePair struct {
	DateNew        *time.Time
	DateInProgress *time.Time
	DateDone       *time.Time
}

// SignalementAggregates regroupe les agrégats SQL calculés côté base.
type SignalementAggregates struct {
	Total        int64
	CountNew     int64
	CountInProg  int64
	CountDone    int64
	TotalSurface float64
	TotalBudget  float64
	AvgProgress  float64
}

type SignalementRepository interface {
	// RunInTx exécute fn dans une transaction; le repository passé à fn
	// partage la transaction.
	RunInTx(ctx context.Context, fn func(SignalementRepository) error) error

	Create(ctx context.Context, s *entity.Signalement) error
	Update(ctx context.Context, s *entity.Signalement) error
	GetByID(ctx context.Context, id int64) (*entity.Signalement, error)
	GetBySyncID(ctx context.Context, syncID string) (*entity.Signalement, error)
	GetAllActive(ctx context.Context) ([]entity.Signalement, error)
	GetByStatus(ctx context.Context, status entity.SignalementStatus) ([]entity.Signalement, error)
	GetByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]entity.Signalement, error)
	GetModifiedSince(ctx context.Context, since time.Time) ([]entity.Signalement, error)

	Aggregates(ctx context.Context) (*SignalementAggregates, error)
	CountByCompany(ctx context.Context) ([]GroupCount, error)
	CountByZone(ctx context.Context) ([]GroupCount, error)
	ListMilestones(ctx context.Context) ([]MilestonePair, error)
}
