package offline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/config"
	"github.com/kafaat/sahool-scouting/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.OfflineConfig{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func obs(id, sessionID string) *domain.Observation {
	return &domain.Observation{
		ID:        id,
		SessionID: sessionID,
		FieldID:   "f1",
		Category:  domain.CategoryPest,
		Severity:  2,
		Notes:     domain.BilingualText{En: "spotted"},
	}
}

func TestPutMarksAndLists(t *testing.T) {
	s := openTestStore(t)

	before := time.Now().UTC()
	s.Put(obs("offline-obs-1", "s1"))
	s.Put(obs("offline-obs-2", "s1"))
	s.Put(obs("offline-obs-3", "s2"))

	all := s.List()
	require.Len(t, all, 3)
	for _, o := range all {
		require.True(t, o.Offline, "record %s must carry the offline marker", o.ID)
		require.NotNil(t, o.CachedAt)
		require.False(t, o.CachedAt.Before(before))
	}

	require.Len(t, s.ListBySession("s1"), 2)
	require.Len(t, s.ListBySession("s2"), 1)
	require.Empty(t, s.ListBySession("s3"))
	require.Equal(t, 3, s.Len())
}

func TestPutDoesNotMutateOriginal(t *testing.T) {
	s := openTestStore(t)
	o := obs("offline-obs-1", "s1")
	s.Put(o)
	require.False(t, o.Offline)
	require.Nil(t, o.CachedAt)
}

func TestDeleteRemovesOneEntry(t *testing.T) {
	s := openTestStore(t)
	s.Put(obs("offline-obs-1", "s1"))
	s.Put(obs("offline-obs-2", "s1"))

	require.NoError(t, s.Delete("offline-obs-1"))
	remaining := s.List()
	require.Len(t, remaining, 1)
	require.Equal(t, "offline-obs-2", remaining[0].ID)

	// deleting a missing key is not an error
	require.NoError(t, s.Delete("offline-obs-404"))
}

func TestListOnEmptyStore(t *testing.T) {
	s := openTestStore(t)
	require.NotNil(t, s.List())
	require.Empty(t, s.List())
	require.Zero(t, s.Len())
}
