package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Kei-Shiro/road/internal/domain/apperr"
	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
	"github.com/Kei-Shiro/road/internal/platform/remote"
)

type ConfigService interface {
	List(ctx context.Context) ([]entity.Configuration, error)
	Get(ctx context.Context, key string) (*entity.Configuration, error)
	Set(ctx context.Context, key, value, description string) (*entity.Configuration, error)
}

type configService struct {
	repo   repository.ConfigurationRepository
	remote remote.Store
	log    *zap.SugaredLogger
}

func NewConfigService(repo repository.ConfigurationRepository, remoteStore remote.Store, log *zap.SugaredLogger) ConfigService {
	return &configService{repo: repo, remote: remoteStore, log: log}
}

// List consulte d'abord le magasin distant quand il est joignable, comme les
// lectures de signalements.
func (s *configService) List(ctx context.Context) ([]entity.Configuration, error) {
	if s.remote.Probe(ctx) {
		docs, err := s.remote.ListConfigurations(ctx)
		if err != nil {
			s.log.Warnw("remote config list failed, falling back to local", "error", err)
		} else if len(docs) > 0 {
			configs := make([]entity.Configuration, 0, len(docs))
			for _, d := range docs {
				configs = append(configs, entity.Configuration{
					Key:         d.Key,
					Value:       d.Value,
					Description: d.Description,
					UpdatedAt:   d.UpdatedAt,
				})
			}
			return configs, nil
		}
	}
	return s.repo.GetAll(ctx)
}

// Get consulte d'abord le magasin distant quand il est joignable, puis la
// base locale en repli.
func (s *configService) Get(ctx context.Context, key string) (*entity.Configuration, error) {
	if s.remote.Probe(ctx) {
		doc, err := s.remote.GetConfiguration(ctx, key)
		if err != nil {
			s.log.Warnw("remote config read failed, falling back to local", "key", key, "error", err)
		} else if doc != nil {
			return &entity.Configuration{
				Key:         doc.Key,
				Value:       doc.Value,
				Description: doc.Description,
				UpdatedAt:   doc.UpdatedAt,
			}, nil
		}
	}

	cfg, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration %s: %w", key, apperr.ErrNotFound)
	}
	return cfg, nil
}

func (s *configService) Set(ctx context.Context, key, value, description string) (*entity.Configuration, error) {
	if key == "" || value == "" {
		return nil, fmt.Errorf("key and value are required: %w", apperr.ErrValidation)
	}

	cfg := &entity.Configuration{Key: key, Value: value, Description: description}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	if err := s.remote.SaveConfiguration(ctx, &remote.ConfigDoc{
		Key:         cfg.Key,
		Value:       cfg.Value,
		Description: cfg.Description,
		UpdatedAt:   time.Now(),
	}); err != nil {
		s.log.Warnw("remote config mirror failed", "key", key, "error", err)
	}
	return cfg, nil
}
