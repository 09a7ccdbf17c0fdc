package scouting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kafaat/sahool-scouting/cache"
	"github.com/kafaat/sahool-scouting/domain"
)

func TestManager_GuardRejectsWithoutActiveSession(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")
	ctx := context.Background()

	_, err := m.AddObservation(ctx, newObservation(""))
	require.ErrorIs(t, err, domain.ErrNoActiveSession)

	severity := 2
	_, err = m.UpdateObservation(ctx, "o1", &domain.ObservationUpdate{Severity: &severity})
	require.ErrorIs(t, err, domain.ErrNoActiveSession)

	err = m.DeleteObservation(ctx, "o1")
	require.ErrorIs(t, err, domain.ErrNoActiveSession)

	require.Zero(t, backend.requestCount(), "the guard must reject before any network call")
}

func TestManager_StartSessionCachesActiveSession(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")
	ctx := context.Background()

	session, err := m.StartSession(ctx, "scout-1", domain.BilingualText{})
	require.NoError(t, err)
	require.Equal(t, domain.SessionActive, session.Status)

	// second start is rejected locally
	_, err = m.StartSession(ctx, "scout-1", domain.BilingualText{})
	var berr *domain.BilingualError
	require.True(t, errors.As(err, &berr))
	require.Equal(t, "SESSION_ALREADY_ACTIVE", berr.Code)
}

func TestManager_OptimisticRollbackOnFailedAdd(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")
	ctx := context.Background()

	session, err := m.StartSession(ctx, "scout-1", domain.BilingualText{})
	require.NoError(t, err)

	// seed the cached list with one accepted observation
	first, err := m.AddObservation(ctx, newObservation(session.ID))
	require.NoError(t, err)
	before, ok := cache.Get[[]domain.Observation](ctx, svc.Cache, observationsKey(session.ID))
	require.True(t, ok)
	require.Len(t, before, 1)
	require.Equal(t, first.ID, before[0].ID)

	// invalid severity: the facade rejects before the network, the manager
	// must restore the exact prior list
	bad := newObservation(session.ID)
	bad.Severity = 0
	_, err = m.AddObservation(ctx, bad)
	require.Error(t, err)

	after, ok := cache.Get[[]domain.Observation](ctx, svc.Cache, observationsKey(session.ID))
	require.True(t, ok)
	require.Equal(t, before, after, "rollback must restore the snapshot")
}

func TestManager_AddObservationAppendsAndInvalidatesSummary(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")
	ctx := context.Background()

	session, err := m.StartSession(ctx, "scout-1", domain.BilingualText{})
	require.NoError(t, err)

	created, err := m.AddObservation(ctx, newObservation(session.ID))
	require.NoError(t, err)
	require.False(t, strings.HasPrefix(created.ID, "optimistic-"),
		"the optimistic placeholder is replaced by the server record")

	list := m.Observations(ctx)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)

	summary := m.Summary(ctx)
	require.Equal(t, 1, summary.ObservationsCount, "summary refetches after invalidation")
}

func TestManager_UpdateAndDeleteMaintainCachedList(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")
	ctx := context.Background()

	session, err := m.StartSession(ctx, "scout-1", domain.BilingualText{})
	require.NoError(t, err)

	first, err := m.AddObservation(ctx, newObservation(session.ID))
	require.NoError(t, err)
	second, err := m.AddObservation(ctx, newObservation(session.ID))
	require.NoError(t, err)

	severity := 5
	updated, err := m.UpdateObservation(ctx, first.ID, &domain.ObservationUpdate{Severity: &severity})
	require.NoError(t, err)
	require.Equal(t, 5, updated.Severity)

	list := m.Observations(ctx)
	require.Len(t, list, 2)
	for _, o := range list {
		if o.ID == first.ID {
			require.Equal(t, 5, o.Severity)
		}
	}

	require.NoError(t, m.DeleteObservation(ctx, second.ID))
	list = m.Observations(ctx)
	require.Len(t, list, 1)
	require.Equal(t, first.ID, list[0].ID)
}

// Full scenario: start, observe, check the summary, end, verify the field is
// idle again.
func TestManager_SessionLifecycle(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")
	ctx := context.Background()

	session, err := m.StartSession(ctx, "scout-1", domain.BilingualText{})
	require.NoError(t, err)

	obs := newObservation(session.ID)
	obs.Category = domain.CategoryPest
	obs.Severity = 4
	obs.Notes = domain.BilingualText{En: "Aphids on leaves"}
	_, err = m.AddObservation(ctx, obs)
	require.NoError(t, err)

	require.Equal(t, 1, m.Summary(ctx).ObservationsCount)

	ended, err := m.EndSession(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.SessionCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)

	require.Nil(t, m.ActiveSession(ctx), "the field has no active session after ending")

	_, err = m.AddObservation(ctx, newObservation(session.ID))
	require.ErrorIs(t, err, domain.ErrNoActiveSession)
}

// Offline from the first step: the session and its observations are
// synthesized locally and drained once the backend returns.
func TestManager_OfflineSessionLifecycle(t *testing.T) {
	backend := newFakeBackend()
	backend.setDown(true)
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")
	ctx := context.Background()

	session, err := m.StartSession(ctx, "scout-1", domain.BilingualText{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(session.ID, domain.OfflineSessionPrefix))

	created, err := m.AddObservation(ctx, newObservation(session.ID))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(created.ID, domain.OfflineObservationPrefix))
	require.Equal(t, 1, svc.Store.Len())

	backend.setDown(false)
	result := svc.Client.SyncOfflineData(ctx)
	require.Equal(t, SyncResult{Synced: 1, Failed: 0}, result)
	require.Zero(t, svc.Store.Len())
}

func TestManager_EndSessionInvalidatesHistory(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")
	ctx := context.Background()

	_, err := m.StartSession(ctx, "scout-1", domain.BilingualText{})
	require.NoError(t, err)

	// prime the history cache while the session is still active
	history := svc.Queries.History(ctx, domain.HistoryFilter{Status: domain.SessionCompleted})
	require.Empty(t, history)

	_, err = m.EndSession(ctx)
	require.NoError(t, err)

	history = svc.Queries.History(ctx, domain.HistoryFilter{Status: domain.SessionCompleted})
	require.Len(t, history, 1, "ending a session invalidates cached history listings")
}

func TestManager_PendingFlagsIdleByDefault(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend)
	m := svc.Manager("F1")

	require.Equal(t, Pending{}, m.Pending())
}
