// Package remote abstrait le magasin de documents distant qui sert de miroir
// au stockage local. Toutes les écritures locales sont répliquées ici en
// best-effort; toutes les lectures le consultent d'abord quand il est joignable.
package remote

import (
	"context"
	"time"
)

// SignalementDoc est la représentation document d'un signalement dans le
// magasin distant, clé = syncId. L'id numérique local n'y figure jamais.
type SignalementDoc struct {
	SyncID      string  `json:"sync_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address"`
	H3Index     string  `json:"h3_index"`

	Status   string `json:"status"`
	Progress int    `json:"progress"`

	SurfaceArea *float64 `json:"surface_area,omitempty"`
	Level       int      `json:"level"`
	Budget      float64  `json:"budget"`

	Company         string     `json:"company,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	ExpectedEndDate *time.Time `json:"expected_end_date,omitempty"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty"`

	DateNew        *time.Time `json:"date_new,omitempty"`
	DateInProgress *time.Time `json:"date_in_progress,omitempty"`
	DateDone       *time.Time `json:"date_done,omitempty"`

	Priority string `json:"priority,omitempty"`
	Type     string `json:"type,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`

	IsSynced       bool       `json:"is_synced"`
	LocalUpdatedAt *time.Time `json:"local_updated_at,omitempty"`

	CreatedByEmail string    `json:"created_by_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	IsActive       bool      `json:"is_active"`
}

// ConfigDoc est la représentation document d'une configuration.
type ConfigDoc struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserDoc est l'entrée de l'annuaire utilisateur distant. Le hash du mot de
// passe n'est jamais répliqué.
type UserDoc struct {
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	LoginAttempts int       `json:"login_attempts"`
	IsLocked      bool      `json:"is_locked"`
	IsOnline      bool      `json:"is_online"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store est l'interface de capacité vers le magasin distant. Probe teste la
// joignabilité réelle du magasin; tout le branchement online/offline passe
// par cette unique couture.
type Store interface {
	Probe(ctx context.Context) bool

	SaveSignalement(ctx context.Context, doc *SignalementDoc) error
	GetSignalement(ctx context.Context, syncID string) (*SignalementDoc, error)
	ListSignalements(ctx context.Context) ([]SignalementDoc, error)
	ListSignalementsByStatus(ctx context.Context, status string) ([]SignalementDoc, error)
	ListSignalementsByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]SignalementDoc, error)
	DeleteSignalement(ctx context.Context, syncID string) error

	SaveConfiguration(ctx context.Context, doc *ConfigDoc) error
	GetConfiguration(ctx context.Context, key string) (*ConfigDoc, error)
	ListConfigurations(ctx context.Context) ([]ConfigDoc, error)

	SaveUser(ctx context.Context, doc *UserDoc) error
	GetUser(ctx context.Context, email string) (*UserDoc, error)
	SetUserOnline(ctx context.Context, email string, online bool) error
	IncrementUserAttempts(ctx context.Context, email string) error
	UnlockUser(ctx context.Context, email string) error
}

// Noop retourne l'implémentation hors-ligne: Probe répond toujours false et
// toutes les opérations sont des no-ops.
func Noop() Store {
	return noopStore{}
}

type noopStore struct{}

func (noopStore) Probe(ctx context.Context) bool { return false }

func (noopStore) SaveSignalement(ctx context.Context, doc *SignalementDoc) error { return nil }
func (noopStore) GetSignalement(ctx context.Context, syncID string) (*SignalementDoc, error) {
	return nil, nil
}
func (noopStore) ListSignalements(ctx context.Context) ([]SignalementDoc, error) { return nil, nil }
func (noopStore) ListSignalementsByStatus(ctx context.Context, status string) ([]SignalementDoc, error) {
	return nil, nil
}
func (noopStore) ListSignalementsByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]SignalementDoc, error) {
	return nil, nil
}
func (noopStore) DeleteSignalement(ctx context.Context, syncID string) error { return nil }

func (noopStore) SaveConfiguration(ctx context.Context, doc *ConfigDoc) error { return nil }
func (noopStore) GetConfiguration(ctx context.Context, key string) (*ConfigDoc, error) {
	return nil, nil
}
func (noopStore) ListConfigurations(ctx context.Context) ([]ConfigDoc, error) { return nil, nil }

func (noopStore) SaveUser(ctx context.Context, doc *UserDoc) error          { return nil }
func (noopStore) GetUser(ctx context.Context, email string) (*UserDoc, error) { return nil, nil }
func (noopStore) SetUserOnline(ctx context.Context, email string, online bool) error { return nil }
func (noopStore) IncrementUserAttempts(ctx context.Context, email string) error      { return nil }
func (noopStore) UnlockUser(ctx context.Context, email string) error                 { return nil }
