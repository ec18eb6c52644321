package entity

import (
	"time"
)

// Définition des types ENUM pour garantir la sécurité du typage
type UserRole string
type SignalementStatus string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleUser    UserRole = "USER"
	RoleVisitor UserRole = "VISITOR"
)

const (
	StatusNew        SignalementStatus = "NEW"
	StatusInProgress SignalementStatus = "IN_PROGRESS"
	StatusDone       SignalementStatus = "DONE"
)

// ProgressForStatus retourne le pourcentage d'avancement dérivé du statut.
// NEW = 0%, IN_PROGRESS = 50%, DONE = 100%.
func ProgressForStatus(status SignalementStatus) int {
	switch status {
	case StatusInProgress:
		return 50
	case StatusDone:
		return 100
	default:
		return 0
	}
}

// ClampSeverityLevel borne le niveau de gravité dans [1, 10].
func ClampSeverityLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 10 {
		return 10
	}
	return level
}

// User définit l'utilisateur du système (Manager, Admin, agent terrain)
type User struct {
	ID            int64      `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"` // Le hash ne doit jamais sortir en JSON
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	Phone         string     `json:"phone" db:"phone"`
	Role          UserRole   `json:"role" db:"role"`
	LoginAttempts int        `json:"login_attempts" db:"login_attempts"`
	IsLocked      bool       `json:"is_locked" db:"is_locked"`
	LockedAt      *time.Time `json:"locked_at,omitempty" db:"locked_at"`
	IsOnline      bool       `json:"is_online" db:"is_online"`
	LastLogin     *time.Time `json:"last_login,omitempty" db:"last_login"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Lock verrouille le compte utilisateur.
func (u *User) Lock(now time.Time) {
	u.IsLocked = true
	u.LockedAt = &now
}

// Unlock déverrouille le compte et réinitialise les tentatives.
func (u *User) Unlock() {
	u.IsLocked = false
	u.LockedAt = nil
	u.LoginAttempts = 0
}

// Session représente une session utilisateur (access + refresh token)
type Session struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Token            string    `json:"-" db:"token"`
	RefreshToken     string    `json:"-" db:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at" db:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at" db:"refresh_expires_at"`
	IsValid          bool      `json:"is_valid" db:"is_valid"`
	IPAddress        string    `json:"ip_address" db:"ip_address"`
	UserAgent        string    `json:"user_agent" db:"user_agent"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Signalement représente un signalement d'incident routier (nid-de-poule,
// fissure, inondation...) suivi à travers son cycle de vie.
type Signalement struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Description string  `json:"description" db:"description"`
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`
	Address     string  `json:"address" db:"address"`
	// H3Index est l'index H3 (résolution 9) dérivé de latitude/longitude,
	// utilisé pour le regroupement par zone dans les statistiques.
	H3Index string `json:"h3_index" db:"h3_index"`

	Status   SignalementStatus `json:"status" db:"status"`
	Progress int               `json:"progress" db:"progress"`

	// Chiffrage: budget = prix_par_m2 * niveau * surface
	SurfaceArea *float64 `json:"surface_area,omitempty" db:"surface_area"` // en m²
	Level       int      `json:"level" db:"level"`                         // gravité, borné [1,10]
	Budget      float64  `json:"budget" db:"budget"`                       // en Ariary

	Company         string     `json:"company,omitempty" db:"company"`
	StartDate       *time.Time `json:"start_date,omitempty" db:"start_date"`
	ExpectedEndDate *time.Time `json:"expected_end_date,omitempty" db:"expected_end_date"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty" db:"actual_end_date"`

	// Jalons du cycle de vie, posés une seule fois chacun
	DateNew        *time.Time `json:"date_new,omitempty" db:"date_new"`
	DateInProgress *time.Time `json:"date_in_progress,omitempty" db:"date_in_progress"`
	DateDone       *time.Time `json:"date_done,omitempty" db:"date_done"`

	Priority string `json:"priority,omitempty" db:"priority"` // LOW, MEDIUM, HIGH, URGENT
	Type     string `json:"type,omitempty" db:"type"`         // POTHOLE, CRACK, FLOODING, ...
	PhotoURL string `json:"photo_url,omitempty" db:"photo_url"`

	// Comptabilité de synchronisation offline
	SyncID         string     `json:"sync_id" db:"sync_id"`
	IsSynced       bool       `json:"is_synced" db:"is_synced"`
	LocalUpdatedAt *time.Time `json:"local_updated_at,omitempty" db:"local_updated_at"`

	CreatedByID *int64    `json:"created_by_id,omitempty" db:"created_by"`
	UpdatedByID *int64    `json:"updated_by_id,omitempty" db:"updated_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// Configuration stocke une valeur de configuration globale (clé → valeur)
type Configuration struct {
	ID          int64     `json:"id" db:"id"`
	Key         string    `json:"key" db:"key"`
	Value       string    `json:"value" db:"value"`
	Description string    `json:"description,omitempty" db:"description"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Clé de configuration du prix forfaitaire par m² et sa valeur par défaut (Ariary)
const (
	ConfigKeyUnitPricePerM2 = "UNIT_PRICE_PER_M2"
	DefaultUnitPricePerM2   = 50000.0
)

// AuditLog représente une entrée du journal d'audit alimenté par le worker
type AuditLog struct {
	ID         int64     `json:"id" db:"id"`
	ActorID    *int64    `json:"actor_id,omitempty" db:"actor_id"`
	ActorEmail string    `json:"actor_email" db:"actor_email"`
	Action     string    `json:"action" db:"action"`
	TargetID   string    `json:"target_id" db:"target_id"`
	Details    string    `json:"details" db:"details"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
