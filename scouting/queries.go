package scouting

import (
	"context"

	"github.com/kafaat/sahool-scouting/cache"
	"github.com/kafaat/sahool-scouting/config"
	"github.com/kafaat/sahool-scouting/domain"
)

// Queries is the read-side cache orchestration: every fetch goes through a
// keyed cache entry with an entity-tuned staleness window, and concurrent
// callers of the same key share one flight.
type Queries struct {
	client *Client
	cache  *cache.Cache
	ttl    config.CacheConfig
}

func NewQueries(client *Client, c *cache.Cache, ttl config.CacheConfig) *Queries {
	return &Queries{client: client, cache: c, ttl: ttl}
}

// ActiveSession resolves the field's active session, nil when idle. The short
// TTL keeps UI polling cheap without hiding a session ended elsewhere for
// long.
func (q *Queries) ActiveSession(ctx context.Context, fieldID string) *domain.ScoutingSession {
	session, _ := cache.Fetch(ctx, q.cache, activeSessionKey(fieldID), q.ttl.ActiveSessionTTL,
		func(ctx context.Context) (*domain.ScoutingSession, error) {
			return q.client.GetActiveSession(ctx, fieldID), nil
		})
	return session
}

// Session resolves one session by id.
func (q *Queries) Session(ctx context.Context, sessionID string) *domain.ScoutingSession {
	session, _ := cache.Fetch(ctx, q.cache, sessionKey(sessionID), q.ttl.SummaryTTL,
		func(ctx context.Context) (*domain.ScoutingSession, error) {
			return q.client.GetSession(ctx, sessionID), nil
		})
	return session
}

// Observations resolves a session's observation list, never nil.
func (q *Queries) Observations(ctx context.Context, sessionID string) []domain.Observation {
	observations, _ := cache.Fetch(ctx, q.cache, observationsKey(sessionID), q.ttl.ObservationsTTL,
		func(ctx context.Context) ([]domain.Observation, error) {
			return q.client.GetObservations(ctx, sessionID), nil
		})
	if observations == nil {
		observations = []domain.Observation{}
	}
	return observations
}

// Summary resolves a session's derived aggregates.
func (q *Queries) Summary(ctx context.Context, sessionID string) *domain.SessionSummary {
	summary, _ := cache.Fetch(ctx, q.cache, summaryKey(sessionID), q.ttl.SummaryTTL,
		func(ctx context.Context) (*domain.SessionSummary, error) {
			return q.client.GetSessionSummary(ctx, sessionID), nil
		})
	if summary == nil {
		summary = domain.EmptySummary(sessionID)
	}
	return summary
}

// Statistics resolves a field's aggregates; minutes-scale staleness.
func (q *Queries) Statistics(ctx context.Context, fieldID string) *domain.ScoutingStatistics {
	stats, _ := cache.Fetch(ctx, q.cache, statisticsKey(fieldID), q.ttl.StatisticsTTL,
		func(ctx context.Context) (*domain.ScoutingStatistics, error) {
			return q.client.GetStatistics(ctx, fieldID), nil
		})
	if stats == nil {
		stats = domain.ZeroStatistics(fieldID)
	}
	return stats
}

// History resolves a filtered session listing.
func (q *Queries) History(ctx context.Context, filter domain.HistoryFilter) []domain.ScoutingSession {
	key := historyKey(filter.Query().Encode())
	sessions, _ := cache.Fetch(ctx, q.cache, key, q.ttl.HistoryTTL,
		func(ctx context.Context) ([]domain.ScoutingSession, error) {
			return q.client.GetHistory(ctx, filter), nil
		})
	if sessions == nil {
		sessions = []domain.ScoutingSession{}
	}
	return sessions
}
