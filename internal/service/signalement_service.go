package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"

	"github.com/Kei-Shiro/road/internal/domain/apperr"
	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
	"github.com/Kei-Shiro/road/internal/platform/queue"
	"github.com/Kei-Shiro/road/internal/platform/remote"
)

// Résolution H3 utilisée pour le regroupement par zone
const h3Resolution = 9

// Actor identifie l'utilisateur à l'origine d'un appel. L'identité est passée
// explicitement à chaque opération, jamais lue depuis un contexte ambiant.
type Actor struct {
	ID    int64
	Email string
	Role  entity.UserRole
}

// SignalementRequest porte les champs d'un create/update. Tous les champs sont
// des pointeurs: un champ absent du JSON reste inchangé (sémantique PATCH).
type SignalementRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`

	Status *entity.SignalementStatus `json:"status"`

	SurfaceArea *float64 `json:"surface_area"`
	Level       *int     `json:"level"`

	Company         *string    `json:"company"`
	StartDate       *time.Time `json:"start_date"`
	ExpectedEndDate *time.Time `json:"expected_end_date"`
	ActualEndDate   *time.Time `json:"actual_end_date"`

	Priority *string `json:"priority"`
	Type     *string `json:"type"`
	PhotoURL *string `json:"photo_url"`

	SyncID         *string    `json:"sync_id"`
	LocalUpdatedAt *time.Time `json:"local_updated_at"`
}

// SyncRequest est la charge utile de l'endpoint de synchronisation offline.
type SyncRequest struct {
	LastSyncTime   *time.Time           `json:"last_sync_time"`
	Signalements   []SignalementRequest `json:"signalements"`
	DeletedSyncIDs []string             `json:"deleted_sync_ids"`
}

type SyncResponse struct {
	SyncTime          time.Time            `json:"sync_time"`
	Created           []entity.Signalement `json:"created"`
	Updated           []entity.Signalement `json:"updated"`
	Deleted           []string             `json:"deleted"`
	ServerChanges     []entity.Signalement `json:"server_changes"`
	ConflictsResolved int                  `json:"conflicts_resolved"`
}

// TransitionStats donne la durée moyenne, en heures, de chaque transition du
// cycle de vie. Seuls les enregistrements portant les deux jalons concernés
// entrent dans la moyenne correspondante.
type TransitionStats struct {
	NewToInProgressHours  float64 `json:"new_to_in_progress_hours"`
	InProgressToDoneHours float64 `json:"in_progress_to_done_hours"`
	NewToDoneHours        float64 `json:"new_to_done_hours"`
}

type StatsResponse struct {
	Total            int64                  `json:"total"`
	CountNew         int64                  `json:"count_new"`
	CountInProgress  int64                  `json:"count_in_progress"`
	CountDone        int64                  `json:"count_done"`
	TotalSurfaceArea float64                `json:"total_surface_area"`
	TotalBudget      float64                `json:"total_budget"`
	AverageProgress  float64                `json:"average_progress"`
	ByCompany        []repository.GroupCount `json:"by_company"`
	ByZone           []repository.GroupCount `json:"by_zone"`
	Transitions      TransitionStats        `json:"transitions"`
}

type SignalementService interface {
	Create(ctx context.Context, actor Actor, req SignalementRequest) (*entity.Signalement, error)
	Update(ctx context.Context, actor Actor, id int64, req SignalementRequest) (*entity.Signalement, error)
	Delete(ctx context.Context, actor Actor, id int64) error
	GetByID(ctx context.Context, id int64) (*entity.Signalement, error)
	List(ctx context.Context, status string) ([]entity.Signalement, error)
	ListByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]entity.Signalement, error)
	Sync(ctx context.Context, actor Actor, req SyncRequest) (*SyncResponse, error)
	Stats(ctx context.Context) (*StatsResponse, error)
}

type signalementService struct {
	repo       repository.SignalementRepository
	configRepo repository.ConfigurationRepository
	remote     remote.Store
	publisher  queue.Publisher
	log        *zap.SugaredLogger
}

func NewSignalementService(
	repo repository.SignalementRepository,
	configRepo repository.ConfigurationRepository,
	remoteStore remote.Store,
	publisher queue.Publisher,
	log *zap.SugaredLogger,
) SignalementService {
	return &signalementService{
		repo:       repo,
		configRepo: configRepo,
		remote:     remoteStore,
		publisher:  publisher,
		log:        log,
	}
}

// computeBudget calcule le chiffrage: 0 si la surface est absente ou nulle,
// sinon prix unitaire x niveau x surface.
func computeBudget(area *float64, level int, unitPrice float64) float64 {
	if area == nil || *area <= 0 {
		return 0
	}
	return unitPrice * float64(level) * (*area)
}

// applyStatusTransition pose le statut cible, dérive l'avancement et positionne
// les jalons manquants. Les jalons précédant le statut cible sont rétro-datés
// à la création de l'enregistrement, pas à maintenant, pour conserver le temps
// réellement écoulé dans les statistiques.
func applyStatusTransition(s *entity.Signalement, target entity.SignalementStatus, now time.Time) {
	s.Status = target
	s.Progress = entity.ProgressForStatus(target)

	switch target {
	case entity.StatusNew:
		if s.DateNew == nil {
			t := now
			s.DateNew = &t
		}
	case entity.StatusInProgress:
		if s.DateNew == nil {
			t := s.CreatedAt
			s.DateNew = &t
		}
		if s.DateInProgress == nil {
			t := now
			s.DateInProgress = &t
		}
	case entity.StatusDone:
		if s.DateNew == nil {
			t := s.CreatedAt
			s.DateNew = &t
		}
		if s.DateInProgress == nil {
			t := s.CreatedAt
			s.DateInProgress = &t
		}
		if s.DateDone == nil {
			t := now
			s.DateDone = &t
		}
	}
}

// unitPrice lit le prix par m2 depuis la configuration à chaque calcul, sans
// cache: changer le prix n'affecte que les budgets calculés ensuite.
func (s *signalementService) unitPrice(ctx context.Context) float64 {
	cfg, err := s.configRepo.GetByKey(ctx, entity.ConfigKeyUnitPricePerM2)
	if err != nil {
		s.log.Warnw("failed to read unit price, using default", "error", err)
		return entity.DefaultUnitPricePerM2
	}
	if cfg == nil {
		return entity.DefaultUnitPricePerM2
	}
	price, err := strconv.ParseFloat(cfg.Value, 64)
	if err != nil {
		s.log.Warnw("invalid unit price value, using default", "value", cfg.Value)
		return entity.DefaultUnitPricePerM2
	}
	return price
}

func (s *signalementService) Create(ctx context.Context, actor Actor, req SignalementRequest) (*entity.Signalement, error) {
	if req.Title == nil || *req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", apperr.ErrValidation)
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("latitude and longitude are required: %w", apperr.ErrValidation)
	}

	now := time.Now()
	sig := &entity.Signalement{
		Title:     *req.Title,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Status:    entity.StatusNew,
		Level:     1,
		SyncID:    uuid.New().String(),
		CreatedAt: now,
		IsActive:  true,
	}
	if actor.ID != 0 {
		id := actor.ID
		sig.CreatedByID = &id
	}
	if req.SyncID != nil && *req.SyncID != "" {
		sig.SyncID = *req.SyncID
	}

	applyFields(sig, req)
	sig.Level = entity.ClampSeverityLevel(sig.Level)
	sig.H3Index = h3IndexOf(sig.Latitude, sig.Longitude)

	status := entity.StatusNew
	if req.Status != nil {
		status = *req.Status
	}
	applyStatusTransition(sig, status, now)
	sig.Budget = computeBudget(sig.SurfaceArea, sig.Level, s.unitPrice(ctx))

	err := s.repo.RunInTx(ctx, func(tx repository.SignalementRepository) error {
		return tx.Create(ctx, sig)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create signalement: %w", err)
	}

	s.mirror(ctx, sig, actor)
	s.publishEvent("created", sig, actor)
	return sig, nil
}

func (s *signalementService) Update(ctx context.Context, actor Actor, id int64, req SignalementRequest) (*entity.Signalement, error) {
	sig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load signalement: %w", err)
	}
	if sig == nil || !sig.IsActive {
		return nil, fmt.Errorf("signalement %d: %w", id, apperr.ErrNotFound)
	}

	s.applyUpdate(ctx, sig, req, time.Now())
	if actor.ID != 0 {
		uid := actor.ID
		sig.UpdatedByID = &uid
	}

	err = s.repo.RunInTx(ctx, func(tx repository.SignalementRepository) error {
		return tx.Update(ctx, sig)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update signalement: %w", err)
	}

	s.mirror(ctx, sig, actor)
	s.publishEvent("updated", sig, actor)
	return sig, nil
}

// applyUpdate applique les champs présents de la requête, rejoue la transition
// de statut si besoin et recalcule budget et index de zone quand leurs entrées
// changent.
func (s *signalementService) applyUpdate(ctx context.Context, sig *entity.Signalement, req SignalementRequest, now time.Time) {
	prevLevel := sig.Level
	prevArea := sig.SurfaceArea

	applyFields(sig, req)
	sig.Level = entity.ClampSeverityLevel(sig.Level)

	if req.Latitude != nil || req.Longitude != nil {
		sig.H3Index = h3IndexOf(sig.Latitude, sig.Longitude)
	}
	if req.Status != nil && *req.Status != sig.Status {
		applyStatusTransition(sig, *req.Status, now)
	}

	levelChanged := sig.Level != prevLevel
	areaChanged := req.SurfaceArea != nil && !equalArea(prevArea, sig.SurfaceArea)
	if levelChanged || areaChanged {
		sig.Budget = computeBudget(sig.SurfaceArea, sig.Level, s.unitPrice(ctx))
	}
}

func equalArea(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// applyFields copie les champs non nuls de la requête vers l'entité. Le statut
// est traité à part par la transition du cycle de vie.
func applyFields(sig *entity.Signalement, req SignalementRequest) {
	if req.Title != nil {
		sig.Title = *req.Title
	}
	if req.Description != nil {
		sig.Description = *req.Description
	}
	if req.Latitude != nil {
		sig.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		sig.Longitude = *req.Longitude
	}
	if req.Address != nil {
		sig.Address = *req.Address
	}
	if req.SurfaceArea != nil {
		sig.SurfaceArea = req.SurfaceArea
	}
	if req.Level != nil {
		sig.Level = *req.Level
	}
	if req.Company != nil {
		sig.Company = *req.Company
	}
	if req.StartDate != nil {
		sig.StartDate = req.StartDate
	}
	if req.ExpectedEndDate != nil {
		sig.ExpectedEndDate = req.ExpectedEndDate
	}
	if req.ActualEndDate != nil {
		sig.ActualEndDate = req.ActualEndDate
	}
	if req.Priority != nil {
		sig.Priority = *req.Priority
	}
	if req.Type != nil {
		sig.Type = *req.Type
	}
	if req.PhotoURL != nil {
		sig.PhotoURL = *req.PhotoURL
	}
	if req.LocalUpdatedAt != nil {
		sig.LocalUpdatedAt = req.LocalUpdatedAt
	}
}

func (s *signalementService) Delete(ctx context.Context, actor Actor, id int64) error {
	sig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load signalement: %w", err)
	}
	if sig == nil || !sig.IsActive {
		return fmt.Errorf("signalement %d: %w", id, apperr.ErrNotFound)
	}

	sig.IsActive = false
	if actor.ID != 0 {
		uid := actor.ID
		sig.UpdatedByID = &uid
	}
	err = s.repo.RunInTx(ctx, func(tx repository.SignalementRepository) error {
		return tx.Update(ctx, sig)
	})
	if err != nil {
		return fmt.Errorf("failed to delete signalement: %w", err)
	}

	if s.remote.Probe(ctx) {
		if err := s.remote.DeleteSignalement(ctx, sig.SyncID); err != nil {
			s.log.Warnw("remote delete failed", "sync_id", sig.SyncID, "error", err)
		}
	}
	s.publishEvent("deleted", sig, actor)
	return nil
}

// GetByID sert la ligne locale, rafraîchie au préalable depuis le magasin
// distant quand il est joignable et que la copie distante est plus récente.
func (s *signalementService) GetByID(ctx context.Context, id int64) (*entity.Signalement, error) {
	sig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load signalement: %w", err)
	}
	if sig == nil || !sig.IsActive {
		return nil, fmt.Errorf("signalement %d: %w", id, apperr.ErrNotFound)
	}

	if sig.SyncID != "" && s.remote.Probe(ctx) {
		doc, err := s.remote.GetSignalement(ctx, sig.SyncID)
		if err != nil {
			s.log.Warnw("remote fetch failed, serving local copy", "sync_id", sig.SyncID, "error", err)
		} else if doc != nil && doc.UpdatedAt.After(sig.UpdatedAt) {
			refreshFromDoc(sig, doc)
			if err := s.repo.Update(ctx, sig); err != nil {
				s.log.Warnw("failed to persist remote refresh", "sync_id", sig.SyncID, "error", err)
			}
			if !sig.IsActive {
				return nil, fmt.Errorf("signalement %d: %w", id, apperr.ErrNotFound)
			}
		}
	}
	return sig, nil
}

// List retourne les signalements actifs, filtrés par statut si fourni. Le
// magasin distant est consulté d'abord quand il est joignable; la décision est
// prise à chaque appel, jamais mémorisée.
func (s *signalementService) List(ctx context.Context, status string) ([]entity.Signalement, error) {
	if s.remote.Probe(ctx) {
		var docs []remote.SignalementDoc
		var err error
		if status != "" {
			docs, err = s.remote.ListSignalementsByStatus(ctx, status)
		} else {
			docs, err = s.remote.ListSignalements(ctx)
		}
		if err != nil {
			s.log.Warnw("remote list failed, falling back to local", "error", err)
		} else if len(docs) > 0 {
			return fromDocs(docs), nil
		}
	}

	if status != "" {
		return s.repo.GetByStatus(ctx, entity.SignalementStatus(status))
	}
	return s.repo.GetAllActive(ctx)
}

func (s *signalementService) ListByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]entity.Signalement, error) {
	if s.remote.Probe(ctx) {
		docs, err := s.remote.ListSignalementsByBounds(ctx, minLat, maxLat, minLng, maxLng)
		if err != nil {
			s.log.Warnw("remote bounds query failed, falling back to local", "error", err)
		} else if len(docs) > 0 {
			return fromDocs(docs), nil
		}
	}
	return s.repo.GetByBounds(ctx, minLat, maxLat, minLng, maxLng)
}

// Sync traite un lot de modifications client hors-ligne en une transaction:
// dernière écriture gagnante par enregistrement, comparée sur localUpdatedAt
// côté client contre updatedAt côté serveur.
func (s *signalementService) Sync(ctx context.Context, actor Actor, req SyncRequest) (*SyncResponse, error) {
	now := time.Now()
	resp := &SyncResponse{
		SyncTime:      now,
		Created:       []entity.Signalement{},
		Updated:       []entity.Signalement{},
		Deleted:       []string{},
		ServerChanges: []entity.Signalement{},
	}

	err := s.repo.RunInTx(ctx, func(tx repository.SignalementRepository) error {
		for _, payload := range req.Signalements {
			if payload.SyncID == nil || *payload.SyncID == "" {
				continue
			}
			existing, err := tx.GetBySyncID(ctx, *payload.SyncID)
			if err != nil {
				return fmt.Errorf("failed to resolve sync id %s: %w", *payload.SyncID, err)
			}

			if existing == nil {
				created, err := s.createFromPayload(ctx, tx, actor, payload, now)
				if err != nil {
					return err
				}
				resp.Created = append(resp.Created, *created)
				continue
			}

			if payload.LocalUpdatedAt != nil && payload.LocalUpdatedAt.After(existing.UpdatedAt) {
				s.applyUpdate(ctx, existing, payload, now)
				existing.IsSynced = true
				if actor.ID != 0 {
					uid := actor.ID
					existing.UpdatedByID = &uid
				}
				if err := tx.Update(ctx, existing); err != nil {
					return fmt.Errorf("failed to apply sync update: %w", err)
				}
				resp.ConflictsResolved++
			}
			// Dans les deux cas la copie serveur, gagnante ou mise à jour,
			// est renvoyée au client
			resp.Updated = append(resp.Updated, *existing)
		}

		for _, syncID := range req.DeletedSyncIDs {
			existing, err := tx.GetBySyncID(ctx, syncID)
			if err != nil {
				return fmt.Errorf("failed to resolve deleted sync id %s: %w", syncID, err)
			}
			if existing == nil {
				continue
			}
			existing.IsActive = false
			if err := tx.Update(ctx, existing); err != nil {
				return fmt.Errorf("failed to apply sync delete: %w", err)
			}
			resp.Deleted = append(resp.Deleted, syncID)
		}

		// Pas de delta serveur sans borne: une première synchronisation ne
		// reçoit que le résultat du lot qu'elle a poussé.
		if req.LastSyncTime != nil {
			changes, err := tx.GetModifiedSince(ctx, *req.LastSyncTime)
			if err != nil {
				return fmt.Errorf("failed to collect server changes: %w", err)
			}
			resp.ServerChanges = changes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Miroir best-effort après commit, une seule sonde pour tout le lot
	if s.remote.Probe(ctx) {
		for i := range resp.Created {
			s.mirrorOne(ctx, &resp.Created[i], actor)
		}
		for i := range resp.Updated {
			s.mirrorOne(ctx, &resp.Updated[i], actor)
		}
		for _, syncID := range resp.Deleted {
			if err := s.remote.DeleteSignalement(ctx, syncID); err != nil {
				s.log.Warnw("remote delete failed", "sync_id", syncID, "error", err)
			}
		}
	}

	s.publishSyncEvent(resp, actor)
	return resp, nil
}

func (s *signalementService) createFromPayload(ctx context.Context, tx repository.SignalementRepository, actor Actor, payload SignalementRequest, now time.Time) (*entity.Signalement, error) {
	sig := &entity.Signalement{
		Status:    entity.StatusNew,
		Level:     1,
		SyncID:    *payload.SyncID,
		IsSynced:  true,
		CreatedAt: now,
		IsActive:  true,
	}
	if actor.ID != 0 {
		id := actor.ID
		sig.CreatedByID = &id
	}
	applyFields(sig, payload)
	sig.Level = entity.ClampSeverityLevel(sig.Level)
	sig.H3Index = h3IndexOf(sig.Latitude, sig.Longitude)

	status := entity.StatusNew
	if payload.Status != nil {
		status = *payload.Status
	}
	applyStatusTransition(sig, status, now)
	sig.Budget = computeBudget(sig.SurfaceArea, sig.Level, s.unitPrice(ctx))

	if err := tx.Create(ctx, sig); err != nil {
		return nil, fmt.Errorf("failed to create from sync payload: %w", err)
	}
	return sig, nil
}

func (s *signalementService) Stats(ctx context.Context) (*StatsResponse, error) {
	agg, err := s.repo.Aggregates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate: %w", err)
	}
	byCompany, err := s.repo.CountByCompany(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count by company: %w", err)
	}
	byZone, err := s.repo.CountByZone(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count by zone: %w", err)
	}
	milestones, err := s.repo.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}

	return &StatsResponse{
		Total:            agg.Total,
		CountNew:         agg.CountNew,
		CountInProgress:  agg.CountInProg,
		CountDone:        agg.CountDone,
		TotalSurfaceArea: agg.TotalSurface,
		TotalBudget:      agg.TotalBudget,
		AverageProgress:  agg.AvgProgress,
		ByCompany:        byCompany,
		ByZone:           byZone,
		Transitions:      meanTransitionHours(milestones),
	}, nil
}

// meanTransitionHours calcule la durée moyenne de chaque transition sur les
// seuls enregistrements portant les deux jalons concernés. Un enregistrement
// auquel il manque un jalon est exclu de cette moyenne, pas compté comme zéro.
func meanTransitionHours(pairs []repository.MilestonePair) TransitionStats {
	var stats TransitionStats
	var sumNewInProg, sumInProgDone, sumNewDone float64
	var nNewInProg, nInProgDone, nNewDone int

	for _, p := range pairs {
		if p.DateNew != nil && p.DateInProgress != nil {
			sumNewInProg += p.DateInProgress.Sub(*p.DateNew).Hours()
			nNewInProg++
		}
		if p.DateInProgress != nil && p.DateDone != nil {
			sumInProgDone += p.DateDone.Sub(*p.DateInProgress).Hours()
			nInProgDone++
		}
		if p.DateNew != nil && p.DateDone != nil {
			sumNewDone += p.DateDone.Sub(*p.DateNew).Hours()
			nNewDone++
		}
	}

	if nNewInProg > 0 {
		stats.NewToInProgressHours = sumNewInProg / float64(nNewInProg)
	}
	if nInProgDone > 0 {
		stats.InProgressToDoneHours = sumInProgDone / float64(nInProgDone)
	}
	if nNewDone > 0 {
		stats.NewToDoneHours = sumNewDone / float64(nNewDone)
	}
	return stats
}

// mirror réplique l'enregistrement vers le magasin distant et persiste le
// résultat dans isSynced. Un échec du miroir ne fait jamais échouer l'appel.
func (s *signalementService) mirror(ctx context.Context, sig *entity.Signalement, actor Actor) {
	synced := false
	if s.remote.Probe(ctx) {
		if err := s.remote.SaveSignalement(ctx, toDoc(sig, actor.Email)); err != nil {
			s.log.Warnw("remote mirror failed", "sync_id", sig.SyncID, "error", err)
		} else {
			synced = true
		}
	}
	if synced != sig.IsSynced {
		sig.IsSynced = synced
		if err := s.repo.Update(ctx, sig); err != nil {
			s.log.Warnw("failed to persist sync flag", "sync_id", sig.SyncID, "error", err)
		}
	}
}

// mirrorOne pousse sans re-sonder, pour les lots où Probe a déjà répondu.
func (s *signalementService) mirrorOne(ctx context.Context, sig *entity.Signalement, actor Actor) {
	if err := s.remote.SaveSignalement(ctx, toDoc(sig, actor.Email)); err != nil {
		s.log.Warnw("remote mirror failed", "sync_id", sig.SyncID, "error", err)
	}
}

func (s *signalementService) publishEvent(action string, sig *entity.Signalement, actor Actor) {
	if s.publisher == nil {
		return
	}
	event := queue.SignalementEvent{
		Action:     action,
		SyncID:     sig.SyncID,
		Title:      sig.Title,
		ActorEmail: actor.Email,
		OccurredAt: time.Now(),
	}
	if actor.ID != 0 {
		id := actor.ID
		event.ActorID = &id
	}
	go func() {
		// Contexte détaché pour ne pas être annulé par la requête HTTP
		if err := s.publisher.Publish(context.Background(), queue.SignalementEventsQueue, event); err != nil {
			s.log.Warnw("failed to publish event", "action", action, "sync_id", sig.SyncID, "error", err)
		}
	}()
}

func (s *signalementService) publishSyncEvent(resp *SyncResponse, actor Actor) {
	if s.publisher == nil {
		return
	}
	event := queue.SignalementEvent{
		Action: "synced",
		Details: fmt.Sprintf("created=%d updated=%d deleted=%d conflicts=%d",
			len(resp.Created), len(resp.Updated), len(resp.Deleted), resp.ConflictsResolved),
		ActorEmail: actor.Email,
		OccurredAt: time.Now(),
	}
	if actor.ID != 0 {
		id := actor.ID
		event.ActorID = &id
	}
	go func() {
		if err := s.publisher.Publish(context.Background(), queue.SignalementEventsQueue, event); err != nil {
			s.log.Warnw("failed to publish sync event", "error", err)
		}
	}()
}

func h3IndexOf(lat, lng float64) string {
	cell := h3.LatLngToCell(h3.NewLatLng(lat, lng), h3Resolution)
	return cell.String()
}

// toDoc convertit l'entité vers sa représentation document distante. L'id
// numérique local n'est jamais répliqué.
func toDoc(sig *entity.Signalement, actorEmail string) *remote.SignalementDoc {
	return &remote.SignalementDoc{
		SyncID:          sig.SyncID,
		Title:           sig.Title,
		Description:     sig.Description,
		Latitude:        sig.Latitude,
		Longitude:       sig.Longitude,
		Address:         sig.Address,
		H3Index:         sig.H3Index,
		Status:          string(sig.Status),
		Progress:        sig.Progress,
		SurfaceArea:     sig.SurfaceArea,
		Level:           sig.Level,
		Budget:          sig.Budget,
		Company:         sig.Company,
		StartDate:       sig.StartDate,
		ExpectedEndDate: sig.ExpectedEndDate,
		ActualEndDate:   sig.ActualEndDate,
		DateNew:         sig.DateNew,
		DateInProgress:  sig.DateInProgress,
		DateDone:        sig.DateDone,
		Priority:        sig.Priority,
		Type:            sig.Type,
		PhotoURL:        sig.PhotoURL,
		IsSynced:        true,
		LocalUpdatedAt:  sig.LocalUpdatedAt,
		CreatedByEmail:  actorEmail,
		CreatedAt:       sig.CreatedAt,
		UpdatedAt:       sig.UpdatedAt,
		IsActive:        sig.IsActive,
	}
}

// fromDoc reconvertit un document distant vers la forme locale. Les champs
// propres au magasin local, dont l'id numérique, restent à zéro.
func fromDoc(doc *remote.SignalementDoc) entity.Signalement {
	return entity.Signalement{
		Title:           doc.Title,
		Description:     doc.Description,
		Latitude:        doc.Latitude,
		Longitude:       doc.Longitude,
		Address:         doc.Address,
		H3Index:         doc.H3Index,
		Status:          entity.SignalementStatus(doc.Status),
		Progress:        doc.Progress,
		SurfaceArea:     doc.SurfaceArea,
		Level:           doc.Level,
		Budget:          doc.Budget,
		Company:         doc.Company,
		StartDate:       doc.StartDate,
		ExpectedEndDate: doc.ExpectedEndDate,
		ActualEndDate:   doc.ActualEndDate,
		DateNew:         doc.DateNew,
		DateInProgress:  doc.DateInProgress,
		DateDone:        doc.DateDone,
		Priority:        doc.Priority,
		Type:            doc.Type,
		PhotoURL:        doc.PhotoURL,
		SyncID:          doc.SyncID,
		IsSynced:        doc.IsSynced,
		LocalUpdatedAt:  doc.LocalUpdatedAt,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
		IsActive:        doc.IsActive,
	}
}

// refreshFromDoc rapatrie la copie distante dans la ligne locale. L'id
// numérique et les références utilisateurs restent locaux.
func refreshFromDoc(sig *entity.Signalement, doc *remote.SignalementDoc) {
	refreshed := fromDoc(doc)
	refreshed.ID = sig.ID
	refreshed.CreatedByID = sig.CreatedByID
	refreshed.UpdatedByID = sig.UpdatedByID
	refreshed.CreatedAt = sig.CreatedAt
	*sig = refreshed
}

func fromDocs(docs []remote.SignalementDoc) []entity.Signalement {
	list := make([]entity.Signalement, 0, len(docs))
	for i := range docs {
		list = append(list, fromDoc(&docs[i]))
	}
	return list
}
