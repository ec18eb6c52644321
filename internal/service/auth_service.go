package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kei-Shiro/road/internal/domain/apperr"
	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
	"github.com/Kei-Shiro/road/internal/platform/remote"
)

// Claims porte les revendications du jeton d'accès. Le sujet est l'email.
type Claims struct {
	Role entity.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

type CreateUserRequest struct {
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=6"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Phone     string          `json:"phone"`
	Role      entity.UserRole `json:"role" binding:"required"`
}

// LoginResult regroupe les jetons émis et le profil associé.
type LoginResult struct {
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token"`
	ExpiresAt        time.Time    `json:"expires_at"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             *entity.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	ValidateToken(tokenString string) (*Claims, error)

	GetProfile(ctx context.Context, userID int64) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*entity.User, error)

	ListUsers(ctx context.Context) ([]entity.User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*entity.User, error)
	GetUser(ctx context.Context, id int64) (*entity.User, error)
	DeleteUser(ctx context.Context, id int64) error
	UnlockUser(ctx context.Context, id int64) error
	UnlockByEmail(ctx context.Context, email string) error
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	remote      remote.Store
	log         *zap.SugaredLogger

	jwtSecret    []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	maxAttempts  int
	lockDuration time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	remoteStore remote.Store,
	log *zap.SugaredLogger,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
	maxAttempts int,
	lockDuration time.Duration,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		remote:       remoteStore,
		log:          log,
		jwtSecret:    []byte(jwtSecret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email %s: %w", req.Email, apperr.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        req.Email,
		PasswordHash: string(hashed),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         entity.RoleUser,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.mirrorUser(ctx, user)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, apperr.ErrUnauthorized
	}

	// L'annuaire distant fait autorité sur le statut de verrouillage et les
	// champs de profil quand il est joignable. Le mot de passe reste vérifié
	// localement dans tous les cas.
	if s.remote.Probe(ctx) {
		if doc, err := s.remote.GetUser(ctx, user.Email); err == nil && doc != nil {
			if doc.IsLocked && !user.IsLocked {
				now := time.Now()
				user.LoginAttempts = doc.LoginAttempts
				user.Lock(now)
				_ = s.userRepo.Update(ctx, user)
			}
			user.FirstName = doc.FirstName
			user.LastName = doc.LastName
			user.Phone = doc.Phone
		}
	}

	if user.IsLocked {
		if user.LockedAt != nil && time.Since(*user.LockedAt) >= s.lockDuration {
			// Déverrouillage automatique après expiration de la fenêtre
			user.Unlock()
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to unlock user: %w", err)
			}
			if err := s.remote.UnlockUser(ctx, user.Email); err != nil {
				s.log.Warnw("remote unlock failed", "email", user.Email, "error", err)
			}
		} else {
			return nil, fmt.Errorf("account %s: %w", user.Email, apperr.ErrLocked)
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.recordFailedAttempt(ctx, user)
	}

	user.LoginAttempts = 0
	user.IsOnline = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	_ = s.userRepo.UpdateLastLogin(ctx, user.ID)

	if err := s.remote.SetUserOnline(ctx, user.Email, true); err != nil {
		s.log.Warnw("remote online flag update failed", "email", user.Email, "error", err)
	}

	return s.issueSession(ctx, user, ip, userAgent)
}

// recordFailedAttempt incrémente le compteur d'échecs et verrouille le compte
// une fois le seuil atteint.
func (s *authService) recordFailedAttempt(ctx context.Context, user *entity.User) error {
	user.LoginAttempts++
	locked := user.LoginAttempts >= s.maxAttempts
	if locked {
		user.Lock(time.Now())
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Errorw("failed to record login attempt", "email", user.Email, "error", err)
	}
	if err := s.remote.IncrementUserAttempts(ctx, user.Email); err != nil {
		s.log.Warnw("remote attempt increment failed", "email", user.Email, "error", err)
	}
	if locked {
		return fmt.Errorf("account %s locked after %d attempts: %w", user.Email, user.LoginAttempts, apperr.ErrLocked)
	}
	return apperr.ErrUnauthorized
}

func (s *authService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*LoginResult, error) {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || time.Now().After(session.RefreshExpiresAt) {
		return nil, apperr.ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive || user.IsLocked {
		return nil, apperr.ErrUnauthorized
	}

	// Rotation: l'ancienne session est invalidée avant d'en émettre une neuve
	if err := s.sessionRepo.Invalidate(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to invalidate session: %w", err)
	}

	return s.issueSession(ctx, user, ip, userAgent)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil
	}
	if err := s.sessionRepo.Invalidate(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil
	}
	user.IsOnline = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Warnw("failed to clear online flag", "email", user.Email, "error", err)
	}
	if err := s.remote.SetUserOnline(ctx, user.Email, false); err != nil {
		s.log.Warnw("remote online flag update failed", "email", user.Email, "error", err)
	}
	return nil
}

func (s *authService) issueSession(ctx context.Context, user *entity.User, ip, userAgent string) (*LoginResult, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)
	refreshExpiresAt := now.Add(s.refreshTTL)

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	refreshToken := uuid.New().String()

	session := &entity.Session{
		UserID:           user.ID,
		Token:            accessToken,
		RefreshToken:     refreshToken,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		IsValid:          true,
		IPAddress:        ip,
		UserAgent:        userAgent,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		User:             user,
	}, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.ErrUnauthorized
	}
	return claims, nil
}

func (s *authService) GetProfile(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrNotFound
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*entity.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.mirrorUser(ctx, user)
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.userRepo.GetAll(ctx)
}

func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*entity.User, error) {
	user, err := s.Register(ctx, RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return nil, err
	}
	user.Role = req.Role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to set role: %w", err)
	}
	s.mirrorUser(ctx, user)
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	return s.GetProfile(ctx, id)
}

func (s *authService) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	user.IsActive = false
	s.mirrorUser(ctx, user)
	return nil
}

func (s *authService) UnlockUser(ctx context.Context, id int64) error {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	return s.unlock(ctx, user)
}

// UnlockByEmail sert l'endpoint public de déverrouillage utilisé par les
// agents terrain quand leur compte est bloqué.
func (s *authService) UnlockByEmail(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return apperr.ErrNotFound
	}
	return s.unlock(ctx, user)
}

func (s *authService) unlock(ctx context.Context, user *entity.User) error {
	user.Unlock()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to unlock user: %w", err)
	}
	if err := s.remote.UnlockUser(ctx, user.Email); err != nil {
		s.log.Warnw("remote unlock failed", "email", user.Email, "error", err)
	}
	return nil
}

// mirrorUser réplique le profil vers l'annuaire distant en best-effort.
// Le hash du mot de passe n'est jamais répliqué.
func (s *authService) mirrorUser(ctx context.Context, user *entity.User) {
	doc := &remote.UserDoc{
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Phone:         user.Phone,
		Role:          string(user.Role),
		LoginAttempts: user.LoginAttempts,
		IsLocked:      user.IsLocked,
		IsOnline:      user.IsOnline,
		IsActive:      user.IsActive,
		UpdatedAt:     time.Now(),
	}
	if err := s.remote.SaveUser(ctx, doc); err != nil {
		s.log.Warnw("remote user mirror failed", "email", user.Email, "error", err)
	}
}
