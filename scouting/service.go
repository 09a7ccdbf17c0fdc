package scouting

import (
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/cache"
	"github.com/kafaat/sahool-scouting/config"
	"github.com/kafaat/sahool-scouting/offline"
	"github.com/kafaat/sahool-scouting/rest"
)

// Service wires the whole scouting stack from one configuration: HTTP
// adapter, offline store, query cache and facade. UI layers take a
// SessionManager per field from it.
type Service struct {
	Client  *Client
	Queries *Queries
	Cache   *cache.Cache
	Store   *offline.Store

	logger *zap.Logger
}

// NewService builds the stack. The cache backend is in-process memory unless
// the configuration names a Redis address; weather may be nil.
func NewService(cfg *config.Config, token rest.TokenSource, weather WeatherSource, logger *zap.Logger) (*Service, error) {
	store, err := offline.Open(cfg.Offline, logger)
	if err != nil {
		return nil, err
	}

	var backend cache.Backend = cache.NewMemoryBackend()
	if cfg.Cache.RedisAddr != "" {
		backend = cache.NewRedisBackend(redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}))
	}
	queryCache := cache.New(backend, logger)

	client := NewClient(rest.New(cfg.API, token, logger), store, weather, logger)
	queries := NewQueries(client, queryCache, cfg.Cache)

	return &Service{
		Client:  client,
		Queries: queries,
		Cache:   queryCache,
		Store:   store,
		logger:  logger,
	}, nil
}

// Manager returns the composite handle for one field.
func (s *Service) Manager(fieldID string) *SessionManager {
	return NewSessionManager(fieldID, s.Client, s.Queries, s.Cache, s.logger)
}

// Close releases the offline store.
func (s *Service) Close() error {
	return s.Store.Close()
}
