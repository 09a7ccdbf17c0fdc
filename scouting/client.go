// Package scouting is the client-side core of the SAHOOL field-scouting
// workflow: a typed facade over the backend API with offline fallbacks, a
// keyed query cache with optimistic mutations, and the session manager the UI
// consumes.
package scouting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/domain"
	"github.com/kafaat/sahool-scouting/offline"
	"github.com/kafaat/sahool-scouting/rest"
)

// WeatherSource supplies the field conditions stamped onto a new session.
// weather.Provider implements it; nil disables the stamp.
type WeatherSource interface {
	Snapshot(fieldID string) (*domain.WeatherSnapshot, bool)
}

// Client is the scouting API facade: one method per backend operation, each
// with its fallback policy. Reads and append-writes degrade to local state so
// field work continues without connectivity; operations that need
// authoritative server state surface a bilingual error instead.
type Client struct {
	rest    *rest.Client
	store   *offline.Store
	weather WeatherSource
	logger  *zap.Logger
	syncMu  sync.Mutex
}

func NewClient(restClient *rest.Client, store *offline.Store, weather WeatherSource, logger *zap.Logger) *Client {
	return &Client{rest: restClient, store: store, weather: weather, logger: logger}
}

type startSessionRequest struct {
	FieldID string                  `json:"fieldId"`
	ScoutID string                  `json:"scoutId"`
	Notes   domain.BilingualText    `json:"notes,omitempty"`
	Weather *domain.WeatherSnapshot `json:"weather,omitempty"`
}

// StartSession opens a visit for a field. When the backend is unreachable a
// locally synthesized active session is returned instead of an error; its
// observations are parked offline until the next sync.
func (c *Client) StartSession(ctx context.Context, fieldID, scoutID string, notes domain.BilingualText) (*domain.ScoutingSession, error) {
	req := startSessionRequest{FieldID: fieldID, ScoutID: scoutID, Notes: notes}
	if c.weather != nil {
		if snap, ok := c.weather.Snapshot(fieldID); ok {
			req.Weather = snap
		}
	}

	session, err := rest.Do[*domain.ScoutingSession](ctx, c.rest, http.MethodPost, "/api/v1/scouting/sessions", req, nil)
	if err == nil && session != nil {
		return session, nil
	}

	c.logger.Warn("start session failed, synthesizing offline session",
		zap.String("field_id", fieldID), zap.Error(err))
	return &domain.ScoutingSession{
		ID:        domain.OfflineSessionPrefix + uuid.NewString(),
		FieldID:   fieldID,
		ScoutID:   scoutID,
		Status:    domain.SessionActive,
		StartTime: time.Now().UTC(),
		Weather:   req.Weather,
		Notes:     notes,
	}, nil
}

// EndSession completes a session. Ending needs authoritative backend state,
// so there is no offline fallback.
func (c *Client) EndSession(ctx context.Context, sessionID string) (*domain.ScoutingSession, error) {
	path := fmt.Sprintf("/api/v1/scouting/sessions/%s/end", sessionID)
	session, err := rest.Do[*domain.ScoutingSession](ctx, c.rest, http.MethodPut, path, nil, nil)
	if err != nil {
		return nil, c.surfaced("scouting.endSession", err,
			"failed to end the scouting session",
			"فشل إنهاء جلسة الاستكشاف")
	}
	return session, nil
}

// GetSession fetches one session; on failure a placeholder carrying the
// requested id is returned and the error is only logged.
func (c *Client) GetSession(ctx context.Context, sessionID string) *domain.ScoutingSession {
	path := fmt.Sprintf("/api/v1/scouting/sessions/%s", sessionID)
	session, err := rest.Do[*domain.ScoutingSession](ctx, c.rest, http.MethodGet, path, nil, nil)
	if err != nil || session == nil {
		c.logger.Warn("get session failed, returning placeholder",
			zap.String("session_id", sessionID), zap.Error(err))
		return &domain.ScoutingSession{ID: sessionID, Status: domain.SessionActive, StartTime: time.Now().UTC()}
	}
	return session
}

// GetActiveSession fetches the field's active session; nil means none. On
// failure nil is returned so callers treat the field as idle rather than
// blocking on an error.
func (c *Client) GetActiveSession(ctx context.Context, fieldID string) *domain.ScoutingSession {
	q := url.Values{}
	q.Set("fieldId", fieldID)
	session, err := rest.Do[*domain.ScoutingSession](ctx, c.rest, http.MethodGet, "/api/v1/scouting/sessions/active", nil, q)
	if err != nil {
		c.logger.Warn("get active session failed", zap.String("field_id", fieldID), zap.Error(err))
		return nil
	}
	return session
}

// GetSessionSummary fetches the derived aggregates; zero-valued on failure.
func (c *Client) GetSessionSummary(ctx context.Context, sessionID string) *domain.SessionSummary {
	path := fmt.Sprintf("/api/v1/scouting/sessions/%s/summary", sessionID)
	summary, err := rest.Do[*domain.SessionSummary](ctx, c.rest, http.MethodGet, path, nil, nil)
	if err != nil || summary == nil {
		c.logger.Warn("get summary failed, returning empty summary",
			zap.String("session_id", sessionID), zap.Error(err))
		return domain.EmptySummary(sessionID)
	}
	return summary
}

// AddObservation validates and submits a new observation. Attached photos are
// uploaded first, each independently; a failed upload keeps the local
// reference and the submission proceeds. On submission failure the record is
// synthesized with an offline id, parked in the offline store, and returned
// without error.
func (c *Client) AddObservation(ctx context.Context, obs *domain.Observation) (*domain.Observation, error) {
	if err := domain.ValidateObservation(obs); err != nil {
		return nil, err
	}

	c.uploadPhotos(ctx, obs)

	created, err := rest.Do[*domain.Observation](ctx, c.rest, http.MethodPost, "/api/v1/scouting/observations", obs, nil)
	if err == nil && created != nil {
		return created, nil
	}

	c.logger.Warn("add observation failed, caching offline",
		zap.String("session_id", obs.SessionID), zap.Error(err))

	fallback := *obs
	fallback.ID = domain.OfflineObservationPrefix + uuid.NewString()
	now := time.Now().UTC()
	fallback.CreatedAt = now
	fallback.UpdatedAt = now
	c.store.Put(&fallback)
	return &fallback, nil
}

func (c *Client) uploadPhotos(ctx context.Context, obs *domain.Observation) {
	for i := range obs.Photos {
		photo := &obs.Photos[i]
		if photo.URL != "" || len(photo.Data) == 0 {
			continue
		}
		name := photo.ID
		if name == "" {
			name = uuid.NewString()
		}
		photoURL, err := c.rest.UploadPhoto(ctx, obs.SessionID, name+".jpg", photo.Data)
		if err != nil {
			c.logger.Warn("photo upload failed, keeping local reference",
				zap.String("photo_id", photo.ID), zap.Error(err))
			continue
		}
		photo.URL = photoURL
	}
}

// UpdateObservation edits an existing observation. No offline fallback: edits
// need the authoritative server copy.
func (c *Client) UpdateObservation(ctx context.Context, observationID string, update *domain.ObservationUpdate) (*domain.Observation, error) {
	if err := domain.ValidateUpdate(update); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/v1/scouting/observations/%s", observationID)
	obs, err := rest.Do[*domain.Observation](ctx, c.rest, http.MethodPut, path, update, nil)
	if err != nil {
		return nil, c.surfaced("scouting.updateObservation", err,
			"failed to update the observation",
			"فشل تحديث الرصد")
	}
	return obs, nil
}

// DeleteObservation removes an observation. No offline fallback.
func (c *Client) DeleteObservation(ctx context.Context, observationID string) error {
	path := fmt.Sprintf("/api/v1/scouting/observations/%s", observationID)
	if err := rest.DoNoContent(ctx, c.rest, http.MethodDelete, path, nil); err != nil {
		return c.surfaced("scouting.deleteObservation", err,
			"failed to delete the observation",
			"فشل حذف الرصد")
	}
	return nil
}

// GetObservations lists a session's observations. On failure the offline
// store's entries for the session are returned instead.
func (c *Client) GetObservations(ctx context.Context, sessionID string) []domain.Observation {
	path := fmt.Sprintf("/api/v1/scouting/sessions/%s/observations", sessionID)
	observations, err := rest.Do[[]domain.Observation](ctx, c.rest, http.MethodGet, path, nil, nil)
	if err != nil {
		c.logger.Warn("get observations failed, serving offline cache",
			zap.String("session_id", sessionID), zap.Error(err))
		return c.store.ListBySession(sessionID)
	}
	if observations == nil {
		observations = []domain.Observation{}
	}
	return observations
}

// GetHistory lists past sessions matching the filter; empty on failure.
func (c *Client) GetHistory(ctx context.Context, filter domain.HistoryFilter) []domain.ScoutingSession {
	sessions, err := rest.Do[[]domain.ScoutingSession](ctx, c.rest, http.MethodGet, "/api/v1/scouting/sessions", nil, filter.Query())
	if err != nil {
		c.logger.Warn("get history failed, returning empty list", zap.Error(err))
		return []domain.ScoutingSession{}
	}
	if sessions == nil {
		sessions = []domain.ScoutingSession{}
	}
	return sessions
}

// GetStatistics fetches a field's aggregates; zero-valued on failure.
func (c *Client) GetStatistics(ctx context.Context, fieldID string) *domain.ScoutingStatistics {
	q := url.Values{}
	q.Set("fieldId", fieldID)
	stats, err := rest.Do[*domain.ScoutingStatistics](ctx, c.rest, http.MethodGet, "/api/v1/scouting/statistics", nil, q)
	if err != nil || stats == nil {
		c.logger.Warn("get statistics failed, returning zero statistics",
			zap.String("field_id", fieldID), zap.Error(err))
		return domain.ZeroStatistics(fieldID)
	}
	return stats
}

// GenerateReport asks the backend to render a session report and returns the
// download URL.
func (c *Client) GenerateReport(ctx context.Context, sessionID string, cfg domain.ReportConfig) (*domain.ReportResult, error) {
	path := fmt.Sprintf("/api/v1/scouting/sessions/%s/report", sessionID)
	result, err := rest.Do[*domain.ReportResult](ctx, c.rest, http.MethodPost, path, cfg, nil)
	if err != nil {
		return nil, c.surfaced("scouting.generateReport", err,
			"failed to generate the session report",
			"فشل إنشاء تقرير الجلسة")
	}
	return result, nil
}

// surfaced converts an HTTP-layer failure into the facade's user-visible
// bilingual error, preferring message text the backend supplied.
func (c *Client) surfaced(op string, err error, msg, msgAr string) *domain.BilingualError {
	var apiErr *rest.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.MessageAr != "" {
		return domain.NewUserError(op, apiErr.Code, apiErr.Message, apiErr.MessageAr, err)
	}
	return domain.NewUserError(op, "", msg, msgAr, err)
}
