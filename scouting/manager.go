package scouting

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/cache"
	"github.com/kafaat/sahool-scouting/domain"
)

// Pending mirrors the per-action loading flags the UI renders.
type Pending struct {
	Starting bool
	Ending   bool
	Adding   bool
	Updating bool
	Deleting bool
}

// SessionManager is the single consumption point for one field's scouting UI:
// active session, observation list, summary, and the mutation methods.
//
// Every observation-scoped action is guarded: without an active session it
// rejects before any network call. Mutations against the session are
// serialized, one in flight at a time.
type SessionManager struct {
	fieldID string
	client  *Client
	queries *Queries
	cache   *cache.Cache
	logger  *zap.Logger

	mutationMu sync.Mutex

	mu      sync.RWMutex
	current *domain.ScoutingSession

	starting atomic.Bool
	ending   atomic.Bool
	adding   atomic.Bool
	updating atomic.Bool
	deleting atomic.Bool
}

func NewSessionManager(fieldID string, client *Client, queries *Queries, c *cache.Cache, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		fieldID: fieldID,
		client:  client,
		queries: queries,
		cache:   c,
		logger:  logger,
	}
}

// Pending reports which actions are in flight.
func (m *SessionManager) Pending() Pending {
	return Pending{
		Starting: m.starting.Load(),
		Ending:   m.ending.Load(),
		Adding:   m.adding.Load(),
		Updating: m.updating.Load(),
		Deleting: m.deleting.Load(),
	}
}

// ActiveSession resolves the field's active session through the query cache
// and remembers it for the offline guard. Nil means the field is idle.
func (m *SessionManager) ActiveSession(ctx context.Context) *domain.ScoutingSession {
	session := m.queries.ActiveSession(ctx, m.fieldID)
	m.mu.Lock()
	m.current = session
	m.mu.Unlock()
	return session
}

// Observations returns the active session's observation list, empty when no
// session is active.
func (m *SessionManager) Observations(ctx context.Context) []domain.Observation {
	session, err := m.activeOrErr(ctx)
	if err != nil {
		return []domain.Observation{}
	}
	return m.queries.Observations(ctx, session.ID)
}

// Summary returns the active session's derived aggregates, empty when no
// session is active.
func (m *SessionManager) Summary(ctx context.Context) *domain.SessionSummary {
	session, err := m.activeOrErr(ctx)
	if err != nil {
		return domain.EmptySummary("")
	}
	return m.queries.Summary(ctx, session.ID)
}

// StartSession opens a visit for the field. A second start while a session is
// active is rejected locally; the backend enforces the same invariant.
func (m *SessionManager) StartSession(ctx context.Context, scoutID string, notes domain.BilingualText) (*domain.ScoutingSession, error) {
	m.mutationMu.Lock()
	defer m.mutationMu.Unlock()
	m.starting.Store(true)
	defer m.starting.Store(false)

	if _, err := m.activeOrErr(ctx); err == nil {
		return nil, domain.NewUserError("scouting.startSession", "SESSION_ALREADY_ACTIVE",
			"a scouting session is already active for this field",
			"توجد جلسة استكشاف نشطة لهذا الحقل بالفعل", nil)
	}

	session, err := m.client.StartSession(ctx, m.fieldID, scoutID, notes)
	if err != nil {
		return nil, err
	}

	cache.Set(ctx, m.cache, activeSessionKey(m.fieldID), session, m.queries.ttl.ActiveSessionTTL)
	cache.Set(ctx, m.cache, sessionKey(session.ID), session, m.queries.ttl.SummaryTTL)
	m.mu.Lock()
	m.current = session
	m.mu.Unlock()
	return session, nil
}

// EndSession completes the active session. On success the session's cache
// entry is replaced with the completed value and the field's active-session
// and history entries are invalidated.
func (m *SessionManager) EndSession(ctx context.Context) (*domain.ScoutingSession, error) {
	m.mutationMu.Lock()
	defer m.mutationMu.Unlock()
	m.ending.Store(true)
	defer m.ending.Store(false)

	session, err := m.activeOrErr(ctx)
	if err != nil {
		return nil, err
	}

	ended, err := m.client.EndSession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	cache.Set(ctx, m.cache, sessionKey(ended.ID), ended, m.queries.ttl.SummaryTTL)
	m.cache.Invalidate(ctx, activeSessionKey(m.fieldID))
	m.cache.InvalidatePrefix(ctx, historyPrefix)
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return ended, nil
}

// AddObservation submits a new observation with an optimistic cache update:
// the record appears in the cached list before the request resolves and the
// prior list is restored if submission is rejected.
func (m *SessionManager) AddObservation(ctx context.Context, obs *domain.Observation) (*domain.Observation, error) {
	m.mutationMu.Lock()
	defer m.mutationMu.Unlock()
	m.adding.Store(true)
	defer m.adding.Store(false)

	session, err := m.activeOrErr(ctx)
	if err != nil {
		return nil, err
	}
	obs.SessionID = session.ID
	obs.FieldID = m.fieldID

	key := observationsKey(session.ID)
	snapshot, hadSnapshot := cache.Get[[]domain.Observation](ctx, m.cache, key)

	optimistic := *obs
	optimistic.ID = "optimistic-" + uuid.NewString()
	cache.Set(ctx, m.cache, key, append(append([]domain.Observation{}, snapshot...), optimistic), m.queries.ttl.ObservationsTTL)

	created, err := m.client.AddObservation(ctx, obs)
	if err != nil {
		// rollback to the exact pre-mutation list
		if hadSnapshot {
			cache.Set(ctx, m.cache, key, snapshot, m.queries.ttl.ObservationsTTL)
		} else {
			m.cache.Invalidate(ctx, key)
		}
		return nil, err
	}

	cache.Set(ctx, m.cache, key, append(append([]domain.Observation{}, snapshot...), *created), m.queries.ttl.ObservationsTTL)
	m.cache.Invalidate(ctx, sessionKey(session.ID), summaryKey(session.ID))
	return created, nil
}

// UpdateObservation edits an observation in the active session and refreshes
// the cached list in place.
func (m *SessionManager) UpdateObservation(ctx context.Context, observationID string, update *domain.ObservationUpdate) (*domain.Observation, error) {
	m.mutationMu.Lock()
	defer m.mutationMu.Unlock()
	m.updating.Store(true)
	defer m.updating.Store(false)

	session, err := m.activeOrErr(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := m.client.UpdateObservation(ctx, observationID, update)
	if err != nil {
		return nil, err
	}

	key := observationsKey(session.ID)
	if list, ok := cache.Get[[]domain.Observation](ctx, m.cache, key); ok {
		for i := range list {
			if list[i].ID == observationID {
				list[i] = *updated
				break
			}
		}
		cache.Set(ctx, m.cache, key, list, m.queries.ttl.ObservationsTTL)
	}
	m.cache.Invalidate(ctx, summaryKey(session.ID))
	return updated, nil
}

// DeleteObservation removes an observation from the active session and from
// the cached list.
func (m *SessionManager) DeleteObservation(ctx context.Context, observationID string) error {
	m.mutationMu.Lock()
	defer m.mutationMu.Unlock()
	m.deleting.Store(true)
	defer m.deleting.Store(false)

	session, err := m.activeOrErr(ctx)
	if err != nil {
		return err
	}

	if err := m.client.DeleteObservation(ctx, observationID); err != nil {
		return err
	}

	key := observationsKey(session.ID)
	if list, ok := cache.Get[[]domain.Observation](ctx, m.cache, key); ok {
		kept := make([]domain.Observation, 0, len(list))
		for _, o := range list {
			if o.ID != observationID {
				kept = append(kept, o)
			}
		}
		cache.Set(ctx, m.cache, key, kept, m.queries.ttl.ObservationsTTL)
	}
	m.cache.Invalidate(ctx, sessionKey(session.ID), summaryKey(session.ID))
	return nil
}

// activeOrErr is the state-machine guard: it consults only local state (the
// cached active-session entry, then the last session this manager saw) and
// never performs a network call.
func (m *SessionManager) activeOrErr(ctx context.Context) (*domain.ScoutingSession, error) {
	if session, ok := cache.Get[*domain.ScoutingSession](ctx, m.cache, activeSessionKey(m.fieldID)); ok {
		if session != nil && session.Status == domain.SessionActive {
			return session, nil
		}
		return nil, domain.ErrNoActiveSession
	}
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()
	if current != nil && current.Status == domain.SessionActive {
		return current, nil
	}
	return nil, domain.ErrNoActiveSession
}
