package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Kei-Shiro/road/internal/domain/apperr"
	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
	"github.com/Kei-Shiro/road/internal/platform/remote"
)

// Mock de SignalementRepository pour les tests
type mockSignalementRepo struct {
	byID          map[int64]*entity.Signalement
	bySyncID      map[string]*entity.Signalement
	modifiedSince []entity.Signalement
	nextID        int64
}

func newMockSignalementRepo() *mockSignalementRepo {
	return &mockSignalementRepo{
		byID:     map[int64]*entity.Signalement{},
		bySyncID: map[string]*entity.Signalement{},
	}
}

func (m *mockSignalementRepo) put(s *entity.Signalement) {
	cp := *s
	m.byID[s.ID] = &cp
	m.bySyncID[s.SyncID] = &cp
}

func (m *mockSignalementRepo) RunInTx(ctx context.Context, fn func(repository.SignalementRepository) error) error {
	return fn(m)
}

func (m *mockSignalementRepo) Create(ctx context.Context, s *entity.Signalement) error {
	m.nextID++
	s.ID = m.nextID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()
	m.put(s)
	return nil
}

func (m *mockSignalementRepo) Update(ctx context.Context, s *entity.Signalement) error {
	s.UpdatedAt = time.Now()
	m.put(s)
	return nil
}

func (m *mockSignalementRepo) GetByID(ctx context.Context, id int64) (*entity.Signalement, error) {
	if s, ok := m.byID[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *mockSignalementRepo) GetBySyncID(ctx context.Context, syncID string) (*entity.Signalement, error) {
	if s, ok := m.bySyncID[syncID]; ok && s.IsActive {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *mockSignalementRepo) GetAllActive(ctx context.Context) ([]entity.Signalement, error) {
	var out []entity.Signalement
	for _, s := range m.byID {
		if s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSignalementRepo) GetByStatus(ctx context.Context, status entity.SignalementStatus) ([]entity.Signalement, error) {
	var out []entity.Signalement
	for _, s := range m.byID {
		if s.IsActive && s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSignalementRepo) GetByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]entity.Signalement, error) {
	var out []entity.Signalement
	for _, s := range m.byID {
		if s.IsActive && s.Latitude >= minLat && s.Latitude <= maxLat && s.Longitude >= minLng && s.Longitude <= maxLng {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSignalementRepo) GetModifiedSince(ctx context.Context, since time.Time) ([]entity.Signalement, error) {
	return m.modifiedSince, nil
}

func (m *mockSignalementRepo) Aggregates(ctx context.Context) (*repository.SignalementAggregates, error) {
	agg := &repository.SignalementAggregates{}
	for _, s := range m.byID {
		if !s.IsActive {
			continue
		}
		agg.Total++
		switch s.Status {
		case entity.StatusNew:
			agg.CountNew++
		case entity.StatusInProgress:
			agg.CountInProg++
		case entity.StatusDone:
			agg.CountDone++
		}
		if s.SurfaceArea != nil {
			agg.TotalSurface += *s.SurfaceArea
		}
		agg.TotalBudget += s.Budget
	}
	return agg, nil
}

func (m *mockSignalementRepo) CountByCompany(ctx context.Context) ([]repository.GroupCount, error) {
	return nil, nil
}

func (m *mockSignalementRepo) CountByZone(ctx context.Context) ([]repository.GroupCount, error) {
	return nil, nil
}

func (m *mockSignalementRepo) ListMilestones(ctx context.Context) ([]repository.MilestonePair, error) {
	var out []repository.MilestonePair
	for _, s := range m.byID {
		if s.IsActive {
			out = append(out, repository.MilestonePair{
				DateNew:        s.DateNew,
				DateInProgress: s.DateInProgress,
				DateDone:       s.DateDone,
			})
		}
	}
	return out, nil
}

// Mock de ConfigurationRepository retournant un prix unitaire fixe
type mockConfigRepo struct {
	price string
}

func (m *mockConfigRepo) GetByKey(ctx context.Context, key string) (*entity.Configuration, error) {
	if m.price == "" {
		return nil, nil
	}
	return &entity.Configuration{Key: key, Value: m.price}, nil
}

func (m *mockConfigRepo) GetAll(ctx context.Context) ([]entity.Configuration, error) { return nil, nil }
func (m *mockConfigRepo) Upsert(ctx context.Context, c *entity.Configuration) error  { return nil }

func newTestService(repo *mockSignalementRepo, price string) SignalementService {
	return NewSignalementService(repo, &mockConfigRepo{price: price}, remote.Noop(), nil, zap.NewNop().Sugar())
}

func strPtr(s string) *string        { return &s }
func f64Ptr(f float64) *float64      { return &f }
func intPtr(i int) *int              { return &i }
func timePtr(t time.Time) *time.Time { return &t }

func statusPtr(s entity.SignalementStatus) *entity.SignalementStatus { return &s }

func TestComputeBudget(t *testing.T) {
	if got := computeBudget(nil, 5, 50000); got != 0 {
		t.Errorf("budget sans surface devrait être 0, got %f", got)
	}
	if got := computeBudget(f64Ptr(0), 5, 50000); got != 0 {
		t.Errorf("budget avec surface nulle devrait être 0, got %f", got)
	}
	if got := computeBudget(f64Ptr(-10), 5, 50000); got != 0 {
		t.Errorf("budget avec surface négative devrait être 0, got %f", got)
	}
	if got := computeBudget(f64Ptr(100), 2, 50000); got != 10000000 {
		t.Errorf("budget = 50000*2*100 devrait être 10000000, got %f", got)
	}
}

func TestApplyStatusTransition(t *testing.T) {
	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("NEW vers IN_PROGRESS rétro-date dateNew à la création", func(t *testing.T) {
		s := &entity.Signalement{Status: entity.StatusNew, CreatedAt: created}
		applyStatusTransition(s, entity.StatusInProgress, now)

		if s.Progress != 50 {
			t.Errorf("progress = %d, want 50", s.Progress)
		}
		if s.DateNew == nil || !s.DateNew.Equal(created) {
			t.Errorf("dateNew devrait être rétro-datée à la création, got %v", s.DateNew)
		}
		if s.DateInProgress == nil || !s.DateInProgress.Equal(now) {
			t.Errorf("dateInProgress devrait être maintenant, got %v", s.DateInProgress)
		}
	})

	t.Run("saut direct NEW vers DONE rétro-date les deux jalons intermédiaires", func(t *testing.T) {
		s := &entity.Signalement{Status: entity.StatusNew, CreatedAt: created}
		applyStatusTransition(s, entity.StatusDone, now)

		if s.Progress != 100 {
			t.Errorf("progress = %d, want 100", s.Progress)
		}
		if s.DateNew == nil || !s.DateNew.Equal(created) {
			t.Errorf("dateNew devrait être rétro-datée, got %v", s.DateNew)
		}
		if s.DateInProgress == nil || !s.DateInProgress.Equal(created) {
			t.Errorf("dateInProgress devrait être rétro-datée, got %v", s.DateInProgress)
		}
		if s.DateDone == nil || !s.DateDone.Equal(now) {
			t.Errorf("dateDone devrait être maintenant, got %v", s.DateDone)
		}
	})

	t.Run("les jalons déjà posés ne sont jamais réécrits", func(t *testing.T) {
		dn := created.Add(time.Hour)
		dip := created.Add(2 * time.Hour)
		s := &entity.Signalement{
			Status: entity.StatusInProgress, CreatedAt: created,
			DateNew: &dn, DateInProgress: &dip,
		}
		applyStatusTransition(s, entity.StatusNew, now)
		applyStatusTransition(s, entity.StatusDone, now)

		if !s.DateNew.Equal(dn) || !s.DateInProgress.Equal(dip) {
			t.Errorf("jalons réécrits: dateNew=%v dateInProgress=%v", s.DateNew, s.DateInProgress)
		}
	})
}

func TestCreateSignalement(t *testing.T) {
	ctx := context.Background()
	repo := newMockSignalementRepo()
	s := newTestService(repo, "50000")
	actor := Actor{ID: 7, Email: "agent@ville.mg", Role: entity.RoleUser}

	t.Run("valeurs par défaut et chiffrage initial", func(t *testing.T) {
		sig, err := s.Create(ctx, actor, SignalementRequest{
			Title:       strPtr("Nid-de-poule avenue de l'Indépendance"),
			Latitude:    f64Ptr(-18.9101),
			Longitude:   f64Ptr(47.5255),
			SurfaceArea: f64Ptr(100),
			Level:       intPtr(2),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if sig.Status != entity.StatusNew || sig.Progress != 0 {
			t.Errorf("statut initial devrait être NEW/0, got %s/%d", sig.Status, sig.Progress)
		}
		if sig.SyncID == "" {
			t.Errorf("syncId devrait être généré")
		}
		if sig.Budget != 10000000 {
			t.Errorf("budget = %f, want 10000000", sig.Budget)
		}
		if sig.DateNew == nil {
			t.Errorf("dateNew devrait être posée à la création")
		}
		if sig.H3Index == "" {
			t.Errorf("h3Index devrait être calculé")
		}
		if sig.CreatedByID == nil || *sig.CreatedByID != 7 {
			t.Errorf("createdBy devrait être l'acteur")
		}
	})

	t.Run("le niveau est borné à la création", func(t *testing.T) {
		sig, err := s.Create(ctx, actor, SignalementRequest{
			Title:     strPtr("Fissure"),
			Latitude:  f64Ptr(-18.9),
			Longitude: f64Ptr(47.5),
			Level:     intPtr(15),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if sig.Level != 10 {
			t.Errorf("niveau 15 devrait être borné à 10, got %d", sig.Level)
		}
	})

	t.Run("titre manquant rejeté", func(t *testing.T) {
		_, err := s.Create(ctx, actor, SignalementRequest{Latitude: f64Ptr(0), Longitude: f64Ptr(0)})
		if err == nil {
			t.Fatalf("Create sans titre devrait échouer")
		}
	})
}

func TestUpdateRecomputesBudget(t *testing.T) {
	ctx := context.Background()
	repo := newMockSignalementRepo()
	s := newTestService(repo, "50000")
	actor := Actor{ID: 1, Email: "manager@ville.mg", Role: entity.RoleManager}

	sig, err := s.Create(ctx, actor, SignalementRequest{
		Title:       strPtr("Inondation"),
		Latitude:    f64Ptr(-18.9),
		Longitude:   f64Ptr(47.5),
		SurfaceArea: f64Ptr(100),
		Level:       intPtr(2),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sig.Budget != 10000000 {
		t.Fatalf("budget initial = %f, want 10000000", sig.Budget)
	}

	updated, err := s.Update(ctx, actor, sig.ID, SignalementRequest{Level: intPtr(5)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Budget != 25000000 {
		t.Errorf("budget recalculé = %f, want 25000000", updated.Budget)
	}
	if updated.SurfaceArea == nil || *updated.SurfaceArea != 100 {
		t.Errorf("surface ne devrait pas changer sur un PATCH partiel")
	}
}

func TestUpdateLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMockSignalementRepo()
	s := newTestService(repo, "50000")
	actor := Actor{ID: 1, Email: "manager@ville.mg", Role: entity.RoleManager}

	sig, err := s.Create(ctx, actor, SignalementRequest{
		Title:     strPtr("Nid-de-poule"),
		Latitude:  f64Ptr(-18.9),
		Longitude: f64Ptr(47.5),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := s.Update(ctx, actor, sig.ID, SignalementRequest{Status: statusPtr(entity.StatusInProgress)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != entity.StatusInProgress || updated.Progress != 50 {
		t.Errorf("transition vers IN_PROGRESS: got %s/%d", updated.Status, updated.Progress)
	}
	if updated.DateInProgress == nil {
		t.Errorf("dateInProgress devrait être posée")
	}
	if updated.DateNew == nil {
		t.Errorf("dateNew devrait rester posée")
	}

	_, err = s.Update(ctx, actor, 9999, SignalementRequest{Status: statusPtr(entity.StatusDone)})
	if err == nil {
		t.Errorf("update d'un id inconnu devrait échouer en NotFound")
	}
}

func TestDeleteHidesFromReads(t *testing.T) {
	ctx := context.Background()
	repo := newMockSignalementRepo()
	s := newTestService(repo, "50000")
	actor := Actor{ID: 1, Email: "manager@ville.mg", Role: entity.RoleManager}

	sig, err := s.Create(ctx, actor, SignalementRequest{
		Title:     strPtr("Fissure"),
		Latitude:  f64Ptr(-18.9),
		Longitude: f64Ptr(47.5),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.Delete(ctx, actor, sig.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := s.GetByID(ctx, sig.ID); err == nil {
		t.Errorf("un signalement supprimé ne devrait plus être lisible par id")
	}
	list, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("un signalement supprimé ne devrait plus apparaître en liste, got %d", len(list))
	}
}

func TestSyncScenarios(t *testing.T) {
	ctx := context.Background()
	actor := Actor{ID: 2, Email: "agent@ville.mg", Role: entity.RoleUser}

	t.Run("syncId inconnu crée un enregistrement et apparaît dans created", func(t *testing.T) {
		repo := newMockSignalementRepo()
		s := newTestService(repo, "50000")

		resp, err := s.Sync(ctx, actor, SyncRequest{
			Signalements: []SignalementRequest{{
				SyncID:    strPtr("client-uuid-1"),
				Title:     strPtr("Nouveau nid-de-poule"),
				Latitude:  f64Ptr(-18.9),
				Longitude: f64Ptr(47.5),
			}},
		})
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if len(resp.Created) != 1 || len(resp.Updated) != 0 {
			t.Fatalf("created=%d updated=%d, want 1/0", len(resp.Created), len(resp.Updated))
		}
		if resp.ConflictsResolved != 0 {
			t.Errorf("aucune résolution de conflit attendue, got %d", resp.ConflictsResolved)
		}
		if !resp.Created[0].IsSynced {
			t.Errorf("un enregistrement créé par sync devrait être marqué synchronisé")
		}
	})

	t.Run("dernière écriture gagnante: payload plus récent appliqué", func(t *testing.T) {
		repo := newMockSignalementRepo()
		s := newTestService(repo, "50000")

		existing := &entity.Signalement{
			ID: 1, SyncID: "client-uuid-2", Title: "Ancien titre",
			Status: entity.StatusNew, Level: 1, IsActive: true,
			CreatedAt: time.Now().Add(-48 * time.Hour),
			UpdatedAt: time.Now().Add(-24 * time.Hour),
		}
		repo.nextID = 1
		repo.put(existing)

		resp, err := s.Sync(ctx, actor, SyncRequest{
			Signalements: []SignalementRequest{{
				SyncID:         strPtr("client-uuid-2"),
				Title:          strPtr("Titre corrigé"),
				LocalUpdatedAt: timePtr(time.Now()),
			}},
		})
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if resp.ConflictsResolved != 1 {
			t.Fatalf("conflictsResolved = %d, want 1", resp.ConflictsResolved)
		}
		if len(resp.Updated) != 1 || resp.Updated[0].Title != "Titre corrigé" {
			t.Errorf("le payload plus récent devrait gagner, got %+v", resp.Updated)
		}
	})

	t.Run("dernière écriture gagnante: payload plus ancien écarté en silence", func(t *testing.T) {
		repo := newMockSignalementRepo()
		s := newTestService(repo, "50000")

		existing := &entity.Signalement{
			ID: 1, SyncID: "client-uuid-3", Title: "Titre serveur",
			Status: entity.StatusNew, Level: 1, IsActive: true,
			CreatedAt: time.Now().Add(-48 * time.Hour),
			UpdatedAt: time.Now(),
		}
		repo.nextID = 1
		repo.put(existing)

		resp, err := s.Sync(ctx, actor, SyncRequest{
			Signalements: []SignalementRequest{{
				SyncID:         strPtr("client-uuid-3"),
				Title:          strPtr("Titre périmé"),
				LocalUpdatedAt: timePtr(time.Now().Add(-12 * time.Hour)),
			}},
		})
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if resp.ConflictsResolved != 0 {
			t.Errorf("conflictsResolved = %d, want 0", resp.ConflictsResolved)
		}
		if len(resp.Updated) != 1 || resp.Updated[0].Title != "Titre serveur" {
			t.Errorf("la copie serveur devrait être renvoyée inchangée, got %+v", resp.Updated)
		}
	})

	t.Run("suppressions client appliquées en soft-delete", func(t *testing.T) {
		repo := newMockSignalementRepo()
		s := newTestService(repo, "50000")

		existing := &entity.Signalement{
			ID: 1, SyncID: "client-uuid-4", Title: "À supprimer",
			Status: entity.StatusNew, Level: 1, IsActive: true,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		repo.nextID = 1
		repo.put(existing)

		resp, err := s.Sync(ctx, actor, SyncRequest{
			DeletedSyncIDs: []string{"client-uuid-4", "jamais-vu"},
		})
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if len(resp.Deleted) != 1 || resp.Deleted[0] != "client-uuid-4" {
			t.Errorf("deleted = %v, want [client-uuid-4]", resp.Deleted)
		}
		if repo.bySyncID["client-uuid-4"].IsActive {
			t.Errorf("la suppression devrait être un soft-delete")
		}
	})

	t.Run("serverChanges renvoie les modifications postérieures à lastSyncTime", func(t *testing.T) {
		repo := newMockSignalementRepo()
		repo.modifiedSince = []entity.Signalement{{ID: 42, SyncID: "server-edit", Title: "Modifié côté serveur"}}
		s := newTestService(repo, "50000")

		last := time.Now().Add(-time.Hour)
		resp, err := s.Sync(ctx, actor, SyncRequest{LastSyncTime: &last})
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if len(resp.ServerChanges) != 1 || resp.ServerChanges[0].SyncID != "server-edit" {
			t.Errorf("serverChanges = %+v", resp.ServerChanges)
		}
		if resp.SyncTime.IsZero() {
			t.Errorf("syncTime devrait être l'heure serveur")
		}
	})

	t.Run("pas de delta serveur sans lastSyncTime", func(t *testing.T) {
		repo := newMockSignalementRepo()
		repo.modifiedSince = []entity.Signalement{{ID: 42, SyncID: "server-edit", Title: "Modifié côté serveur"}}
		s := newTestService(repo, "50000")

		resp, err := s.Sync(ctx, actor, SyncRequest{})
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if len(resp.ServerChanges) != 0 {
			t.Errorf("une première synchronisation ne doit pas recevoir de delta, got %+v", resp.ServerChanges)
		}
	})
}

func TestMeanTransitionHours(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t0.Add(2 * time.Hour)
	t6 := t0.Add(6 * time.Hour)

	pairs := []repository.MilestonePair{
		{DateNew: &t0, DateInProgress: &t2, DateDone: &t6},
		{DateNew: &t0, DateInProgress: nil, DateDone: nil}, // exclu des moyennes à deux jalons
		{DateNew: &t0, DateInProgress: &t6, DateDone: nil},
	}

	stats := meanTransitionHours(pairs)
	if stats.NewToInProgressHours != 4 { // (2 + 6) / 2
		t.Errorf("NewToInProgressHours = %f, want 4", stats.NewToInProgressHours)
	}
	if stats.InProgressToDoneHours != 4 { // seul le premier a les deux jalons
		t.Errorf("InProgressToDoneHours = %f, want 4", stats.InProgressToDoneHours)
	}
	if stats.NewToDoneHours != 6 {
		t.Errorf("NewToDoneHours = %f, want 6", stats.NewToDoneHours)
	}
}

func TestUnitPriceFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	repo := newMockSignalementRepo()
	// Aucune configuration en base: le prix par défaut s'applique
	s := newTestService(repo, "")
	actor := Actor{ID: 1, Email: "agent@ville.mg", Role: entity.RoleUser}

	sig, err := s.Create(ctx, actor, SignalementRequest{
		Title:       strPtr("Nid-de-poule"),
		Latitude:    f64Ptr(-18.9),
		Longitude:   f64Ptr(47.5),
		SurfaceArea: f64Ptr(10),
		Level:       intPtr(1),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sig.Budget != entity.DefaultUnitPricePerM2*10 {
		t.Errorf("budget = %f, want %f", sig.Budget, entity.DefaultUnitPricePerM2*10)
	}
}

// Faux magasin distant joignable pour les tests de lecture remote-first
type fakeRemoteStore struct {
	reachable bool
	sigs      map[string]*remote.SignalementDoc
	configs   map[string]*remote.ConfigDoc
	sigGets   int
	cfgGets   int
}

func newFakeRemoteStore() *fakeRemoteStore {
	return &fakeRemoteStore{
		reachable: true,
		sigs:      make(map[string]*remote.SignalementDoc),
		configs:   make(map[string]*remote.ConfigDoc),
	}
}

func (f *fakeRemoteStore) Probe(ctx context.Context) bool { return f.reachable }

func (f *fakeRemoteStore) SaveSignalement(ctx context.Context, doc *remote.SignalementDoc) error {
	cp := *doc
	f.sigs[doc.SyncID] = &cp
	return nil
}

func (f *fakeRemoteStore) GetSignalement(ctx context.Context, syncID string) (*remote.SignalementDoc, error) {
	f.sigGets++
	doc, ok := f.sigs[syncID]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeRemoteStore) ListSignalements(ctx context.Context) ([]remote.SignalementDoc, error) {
	var out []remote.SignalementDoc
	for _, d := range f.sigs {
		if d.IsActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeRemoteStore) ListSignalementsByStatus(ctx context.Context, status string) ([]remote.SignalementDoc, error) {
	docs, _ := f.ListSignalements(ctx)
	var out []remote.SignalementDoc
	for _, d := range docs {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRemoteStore) ListSignalementsByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]remote.SignalementDoc, error) {
	return f.ListSignalements(ctx)
}

func (f *fakeRemoteStore) DeleteSignalement(ctx context.Context, syncID string) error {
	if d, ok := f.sigs[syncID]; ok {
		d.IsActive = false
	}
	return nil
}

func (f *fakeRemoteStore) SaveConfiguration(ctx context.Context, doc *remote.ConfigDoc) error {
	cp := *doc
	f.configs[doc.Key] = &cp
	return nil
}

func (f *fakeRemoteStore) GetConfiguration(ctx context.Context, key string) (*remote.ConfigDoc, error) {
	f.cfgGets++
	doc, ok := f.configs[key]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeRemoteStore) ListConfigurations(ctx context.Context) ([]remote.ConfigDoc, error) {
	var out []remote.ConfigDoc
	for _, d := range f.configs {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeRemoteStore) SaveUser(ctx context.Context, doc *remote.UserDoc) error { return nil }
func (f *fakeRemoteStore) GetUser(ctx context.Context, email string) (*remote.UserDoc, error) {
	return nil, nil
}
func (f *fakeRemoteStore) SetUserOnline(ctx context.Context, email string, online bool) error {
	return nil
}
func (f *fakeRemoteStore) IncrementUserAttempts(ctx context.Context, email string) error { return nil }
func (f *fakeRemoteStore) UnlockUser(ctx context.Context, email string) error            { return nil }

func TestGetByIDRefreshesFromRemote(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("la copie distante plus récente est rapatriée puis servie", func(t *testing.T) {
		repo := newMockSignalementRepo()
		repo.nextID = 1
		creator := int64(7)
		repo.put(&entity.Signalement{
			ID: 1, SyncID: "sync-1", Title: "Titre local périmé",
			Status: entity.StatusNew, Progress: 0, Level: 1,
			CreatedByID: &creator, IsActive: true,
			CreatedAt: base, UpdatedAt: base,
		})

		rs := newFakeRemoteStore()
		rs.sigs["sync-1"] = &remote.SignalementDoc{
			SyncID: "sync-1", Title: "Titre rafraîchi",
			Status: string(entity.StatusInProgress), Progress: 50, Level: 1,
			IsActive: true, CreatedAt: base, UpdatedAt: base.Add(time.Hour),
		}

		s := NewSignalementService(repo, &mockConfigRepo{price: "50000"}, rs, nil, zap.NewNop().Sugar())

		sig, err := s.GetByID(ctx, 1)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if sig.Title != "Titre rafraîchi" || sig.Status != entity.StatusInProgress || sig.Progress != 50 {
			t.Errorf("copie servie = %q/%s/%d, want la version distante", sig.Title, sig.Status, sig.Progress)
		}
		if rs.sigGets != 1 {
			t.Errorf("le magasin distant devrait être consulté une fois, gets = %d", rs.sigGets)
		}
		if sig.CreatedByID == nil || *sig.CreatedByID != creator {
			t.Errorf("les références utilisateurs locales doivent survivre au rafraîchissement")
		}
		if repo.byID[1].Title != "Titre rafraîchi" {
			t.Errorf("la ligne locale devrait être persistée avec la copie distante")
		}
	})

	t.Run("la copie distante plus ancienne est ignorée", func(t *testing.T) {
		repo := newMockSignalementRepo()
		repo.nextID = 1
		repo.put(&entity.Signalement{
			ID: 1, SyncID: "sync-1", Title: "Titre local à jour",
			Status: entity.StatusNew, Level: 1, IsActive: true,
			CreatedAt: base, UpdatedAt: base.Add(2 * time.Hour),
		})

		rs := newFakeRemoteStore()
		rs.sigs["sync-1"] = &remote.SignalementDoc{
			SyncID: "sync-1", Title: "Vieille copie distante",
			Status: string(entity.StatusNew), Level: 1,
			IsActive: true, CreatedAt: base, UpdatedAt: base,
		}

		s := NewSignalementService(repo, &mockConfigRepo{price: "50000"}, rs, nil, zap.NewNop().Sugar())

		sig, err := s.GetByID(ctx, 1)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if sig.Title != "Titre local à jour" {
			t.Errorf("copie servie = %q, want la version locale", sig.Title)
		}
	})

	t.Run("magasin injoignable: lecture purement locale", func(t *testing.T) {
		repo := newMockSignalementRepo()
		repo.nextID = 1
		repo.put(&entity.Signalement{
			ID: 1, SyncID: "sync-1", Title: "Titre local",
			Status: entity.StatusNew, Level: 1, IsActive: true,
			CreatedAt: base, UpdatedAt: base,
		})

		rs := newFakeRemoteStore()
		rs.reachable = false

		s := NewSignalementService(repo, &mockConfigRepo{price: "50000"}, rs, nil, zap.NewNop().Sugar())

		if _, err := s.GetByID(ctx, 1); err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if rs.sigGets != 0 {
			t.Errorf("le magasin injoignable ne doit pas être consulté, gets = %d", rs.sigGets)
		}
	})

	t.Run("suppression distante propagée: le signalement disparaît", func(t *testing.T) {
		repo := newMockSignalementRepo()
		repo.nextID = 1
		repo.put(&entity.Signalement{
			ID: 1, SyncID: "sync-1", Title: "Supprimé ailleurs",
			Status: entity.StatusNew, Level: 1, IsActive: true,
			CreatedAt: base, UpdatedAt: base,
		})

		rs := newFakeRemoteStore()
		rs.sigs["sync-1"] = &remote.SignalementDoc{
			SyncID: "sync-1", Title: "Supprimé ailleurs",
			Status: string(entity.StatusNew), Level: 1,
			IsActive: false, CreatedAt: base, UpdatedAt: base.Add(time.Hour),
		}

		s := NewSignalementService(repo, &mockConfigRepo{price: "50000"}, rs, nil, zap.NewNop().Sugar())

		if _, err := s.GetByID(ctx, 1); !apperr.IsNotFound(err) {
			t.Errorf("err = %v, want not found", err)
		}
		if repo.byID[1].IsActive {
			t.Errorf("la suppression distante devrait être persistée localement")
		}
	})
}
