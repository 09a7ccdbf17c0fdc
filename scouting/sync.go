package scouting

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/domain"
	"github.com/kafaat/sahool-scouting/rest"
)

// SyncResult counts the outcome of one offline sync pass.
type SyncResult struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// SyncOfflineData resubmits every offline observation one at a time and
// removes only the entries that reached the backend; failed entries stay for
// the next pass. Passes are serialized, and a pass works on the key snapshot
// taken at its start, so an observation parked while a sync runs is never
// touched by that sync.
func (c *Client) SyncOfflineData(ctx context.Context) SyncResult {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	var result SyncResult
	for _, obs := range c.store.List() {
		if err := c.resubmit(ctx, obs); err != nil {
			c.logger.Warn("offline sync: resubmit failed",
				zap.String("observation_id", obs.ID), zap.Error(err))
			result.Failed++
			continue
		}
		if err := c.store.Delete(obs.ID); err != nil {
			c.logger.Warn("offline sync: delete after resubmit failed",
				zap.String("observation_id", obs.ID), zap.Error(err))
		}
		result.Synced++
	}

	c.logger.Info("offline sync finished",
		zap.Int("synced", result.Synced), zap.Int("failed", result.Failed))
	return result
}

func (c *Client) resubmit(ctx context.Context, obs domain.Observation) error {
	// the backend assigns the real id; the offline markers stay local
	obs.ID = ""
	obs.Offline = false
	obs.CachedAt = nil
	_, err := rest.Do[*domain.Observation](ctx, c.rest, http.MethodPost, "/api/v1/scouting/observations", &obs, nil)
	return err
}
