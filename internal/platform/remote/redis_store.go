package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	signalementKeyPrefix = "sig:"
	signalementIndexKey  = "sig:index"
	configKeyPrefix      = "cfg:"
	configIndexKey       = "cfg:index"
	userKeyPrefix        = "usr:"

	probeTimeout = 3 * time.Second
	callTimeout  = 15 * time.Second
)

type redisStore struct {
	log *zap.SugaredLogger
	rdb *goredis.Client
}

// NewRedisStore connecte le magasin distant Redis. La connexion est vérifiée
// une première fois au démarrage mais la joignabilité reste testée par appel
// via Probe.
func NewRedisStore(addr, password string, log *zap.SugaredLogger) (Store, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: probeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisStore{log: log, rdb: rdb}, nil
}

// Probe teste la joignabilité réelle du magasin par un PING court.
func (s *redisStore) Probe(ctx context.Context) bool {
	if s == nil || s.rdb == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.log.Debugw("remote store unreachable", "error", err)
		return false
	}
	return true
}

// ==================== SIGNALEMENTS ====================

func (s *redisStore) SaveSignalement(ctx context.Context, doc *SignalementDoc) error {
	if doc.SyncID == "" {
		return fmt.Errorf("sync_id required")
	}
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, signalementKeyPrefix+doc.SyncID, raw, 0)
	pipe.SAdd(ctx, signalementIndexKey, doc.SyncID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) GetSignalement(ctx context.Context, syncID string) (*SignalementDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := s.rdb.Get(ctx, signalementKeyPrefix+syncID).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc SignalementDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *redisStore) ListSignalements(ctx context.Context) ([]SignalementDoc, error) {
	docs, err := s.listAllSignalements(ctx)
	if err != nil {
		return nil, err
	}
	active := docs[:0]
	for _, d := range docs {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return active, nil
}

func (s *redisStore) ListSignalementsByStatus(ctx context.Context, status string) ([]SignalementDoc, error) {
	docs, err := s.ListSignalements(ctx)
	if err != nil {
		return nil, err
	}
	filtered := docs[:0]
	for _, d := range docs {
		if d.Status == status {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

func (s *redisStore) ListSignalementsByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]SignalementDoc, error) {
	docs, err := s.ListSignalements(ctx)
	if err != nil {
		return nil, err
	}
	filtered := docs[:0]
	for _, d := range docs {
		if d.Latitude >= minLat && d.Latitude <= maxLat && d.Longitude >= minLng && d.Longitude <= maxLng {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

// DeleteSignalement est une suppression logique: le document reste résolvable
// par syncId pour la synchronisation.
func (s *redisStore) DeleteSignalement(ctx context.Context, syncID string) error {
	doc, err := s.GetSignalement(ctx, syncID)
	if err != nil || doc == nil {
		return err
	}
	doc.IsActive = false
	doc.UpdatedAt = time.Now()
	return s.SaveSignalement(ctx, doc)
}

func (s *redisStore) listAllSignalements(ctx context.Context) ([]SignalementDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	ids, err := s.rdb.SMembers(ctx, signalementIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = signalementKeyPrefix + id
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]SignalementDoc, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var doc SignalementDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			s.log.Warnw("skipping malformed remote document", "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ==================== CONFIGURATIONS ====================

func (s *redisStore) SaveConfiguration(ctx context.Context, doc *ConfigDoc) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, configKeyPrefix+doc.Key, raw, 0)
	pipe.SAdd(ctx, configIndexKey, doc.Key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) GetConfiguration(ctx context.Context, key string) (*ConfigDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := s.rdb.Get(ctx, configKeyPrefix+key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc ConfigDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *redisStore) ListConfigurations(ctx context.Context) ([]ConfigDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	keys, err := s.rdb.SMembers(ctx, configIndexKey).Result()
	if err != nil || len(keys) == 0 {
		return nil, err
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = configKeyPrefix + k
	}
	values, err := s.rdb.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]ConfigDoc, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var doc ConfigDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ==================== ANNUAIRE UTILISATEUR ====================

func (s *redisStore) SaveUser(ctx context.Context, doc *UserDoc) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, userKeyPrefix+doc.Email, raw, 0).Err()
}

func (s *redisStore) GetUser(ctx context.Context, email string) (*UserDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := s.rdb.Get(ctx, userKeyPrefix+email).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc UserDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *redisStore) SetUserOnline(ctx context.Context, email string, online bool) error {
	doc, err := s.GetUser(ctx, email)
	if err != nil || doc == nil {
		return err
	}
	doc.IsOnline = online
	doc.UpdatedAt = time.Now()
	return s.SaveUser(ctx, doc)
}

func (s *redisStore) IncrementUserAttempts(ctx context.Context, email string) error {
	doc, err := s.GetUser(ctx, email)
	if err != nil || doc == nil {
		return err
	}
	doc.LoginAttempts++
	doc.UpdatedAt = time.Now()
	return s.SaveUser(ctx, doc)
}

func (s *redisStore) UnlockUser(ctx context.Context, email string) error {
	doc, err := s.GetUser(ctx, email)
	if err != nil || doc == nil {
		return err
	}
	doc.IsLocked = false
	doc.LoginAttempts = 0
	doc.UpdatedAt = time.Now()
	return s.SaveUser(ctx, doc)
}
