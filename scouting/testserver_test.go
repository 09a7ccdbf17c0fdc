package scouting

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/config"
	"github.com/kafaat/sahool-scouting/domain"
)

// fakeBackend is a stateful stand-in for the SAHOOL scouting API. Setting
// down makes every call fail, which drives the offline fallback paths.
type fakeBackend struct {
	mu           sync.Mutex
	down         bool
	requests     int32
	nextID       int
	sessions     map[string]*domain.ScoutingSession
	observations map[string][]domain.Observation
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sessions:     make(map[string]*domain.ScoutingSession),
		observations: make(map[string][]domain.Observation),
	}
}

func (b *fakeBackend) setDown(down bool) {
	b.mu.Lock()
	b.down = down
	b.mu.Unlock()
}

func (b *fakeBackend) requestCount() int32 { return atomic.LoadInt32(&b.requests) }

func writeOK(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeErr(w http.ResponseWriter, status int, code, msg, msgAr string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": msg, "messageAr": msgAr},
	})
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/scouting/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FieldID string                  `json:"fieldId"`
			ScoutID string                  `json:"scoutId"`
			Weather *domain.WeatherSnapshot `json:"weather"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.nextID++
		session := &domain.ScoutingSession{
			ID:        fmt.Sprintf("s%d", b.nextID),
			FieldID:   req.FieldID,
			ScoutID:   req.ScoutID,
			Status:    domain.SessionActive,
			StartTime: time.Now().UTC(),
			Weather:   req.Weather,
		}
		b.sessions[session.ID] = session
		b.mu.Unlock()
		writeOK(w, session)
	})

	mux.HandleFunc("GET /api/v1/scouting/sessions/active", func(w http.ResponseWriter, r *http.Request) {
		fieldID := r.URL.Query().Get("fieldId")
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, s := range b.sessions {
			if s.FieldID == fieldID && s.Status == domain.SessionActive {
				writeOK(w, s)
				return
			}
		}
		writeOK(w, nil)
	})

	mux.HandleFunc("GET /api/v1/scouting/sessions", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		out := []domain.ScoutingSession{}
		status := r.URL.Query().Get("status")
		for _, s := range b.sessions {
			if status != "" && string(s.Status) != status {
				continue
			}
			out = append(out, *s)
		}
		writeOK(w, out)
	})

	mux.HandleFunc("PUT /api/v1/scouting/sessions/{id}/end", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		s, ok := b.sessions[r.PathValue("id")]
		if !ok {
			writeErr(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", "الجلسة غير موجودة")
			return
		}
		now := time.Now().UTC()
		s.Status = domain.SessionCompleted
		s.EndTime = &now
		s.DurationMinutes = int(now.Sub(s.StartTime).Minutes())
		writeOK(w, s)
	})

	mux.HandleFunc("GET /api/v1/scouting/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		s, ok := b.sessions[r.PathValue("id")]
		if !ok {
			writeErr(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", "الجلسة غير موجودة")
			return
		}
		writeOK(w, s)
	})

	mux.HandleFunc("GET /api/v1/scouting/sessions/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := r.PathValue("id")
		s, ok := b.sessions[id]
		if !ok {
			writeErr(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", "الجلسة غير موجودة")
			return
		}
		writeOK(w, &domain.SessionSummary{
			SessionID:         id,
			FieldID:           s.FieldID,
			ObservationsCount: len(b.observations[id]),
		})
	})

	mux.HandleFunc("GET /api/v1/scouting/sessions/{id}/observations", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.observations[r.PathValue("id")]
		if list == nil {
			list = []domain.Observation{}
		}
		writeOK(w, list)
	})

	mux.HandleFunc("POST /api/v1/scouting/observations", func(w http.ResponseWriter, r *http.Request) {
		var obs domain.Observation
		_ = json.NewDecoder(r.Body).Decode(&obs)
		b.mu.Lock()
		b.nextID++
		obs.ID = fmt.Sprintf("o%d", b.nextID)
		obs.CreatedAt = time.Now().UTC()
		obs.UpdatedAt = obs.CreatedAt
		b.observations[obs.SessionID] = append(b.observations[obs.SessionID], obs)
		if s, ok := b.sessions[obs.SessionID]; ok {
			s.ObservationsCount = len(b.observations[obs.SessionID])
		}
		b.mu.Unlock()
		writeOK(w, &obs)
	})

	mux.HandleFunc("PUT /api/v1/scouting/observations/{id}", func(w http.ResponseWriter, r *http.Request) {
		var update domain.ObservationUpdate
		_ = json.NewDecoder(r.Body).Decode(&update)
		b.mu.Lock()
		defer b.mu.Unlock()
		id := r.PathValue("id")
		for sessionID, list := range b.observations {
			for i := range list {
				if list[i].ID != id {
					continue
				}
				if update.Severity != nil {
					list[i].Severity = *update.Severity
				}
				if update.Notes != nil {
					list[i].Notes = *update.Notes
				}
				if update.Category != nil {
					list[i].Category = *update.Category
				}
				list[i].UpdatedAt = time.Now().UTC()
				b.observations[sessionID] = list
				writeOK(w, &list[i])
				return
			}
		}
		writeErr(w, http.StatusNotFound, "OBSERVATION_NOT_FOUND", "observation not found", "الرصد غير موجود")
	})

	mux.HandleFunc("DELETE /api/v1/scouting/observations/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := r.PathValue("id")
		for sessionID, list := range b.observations {
			for i := range list {
				if list[i].ID == id {
					b.observations[sessionID] = append(list[:i], list[i+1:]...)
					writeOK(w, nil)
					return
				}
			}
		}
		writeErr(w, http.StatusNotFound, "OBSERVATION_NOT_FOUND", "observation not found", "الرصد غير موجود")
	})

	mux.HandleFunc("GET /api/v1/scouting/statistics", func(w http.ResponseWriter, r *http.Request) {
		fieldID := r.URL.Query().Get("fieldId")
		b.mu.Lock()
		defer b.mu.Unlock()
		stats := &domain.ScoutingStatistics{FieldID: fieldID}
		for _, s := range b.sessions {
			if s.FieldID == fieldID {
				stats.TotalSessions++
				stats.TotalObservations += len(b.observations[s.ID])
			}
		}
		writeOK(w, stats)
	})

	mux.HandleFunc("POST /api/v1/scouting/sessions/{id}/report", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, &domain.ReportResult{
			URL:         "https://cdn.sahool.app/reports/" + r.PathValue("id") + ".pdf",
			GeneratedAt: time.Now().UTC(),
		})
	})

	mux.HandleFunc("POST /api/v1/scouting/photos", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]string{"url": "https://cdn.sahool.app/photos/uploaded.jpg"})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.requests, 1)
		b.mu.Lock()
		down := b.down
		b.mu.Unlock()
		if down {
			writeErr(w, http.StatusServiceUnavailable, "UNAVAILABLE", "backend unavailable", "الخادم غير متاح")
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// newTestService builds the full stack against the fake backend, with an
// in-memory offline store and the in-process cache backend.
func newTestService(t *testing.T, backend *fakeBackend) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.API.BaseURL = server.URL
	cfg.API.RetryCount = 0
	cfg.API.Timeout = 2 * time.Second
	cfg.Offline.InMemory = true

	svc, err := NewService(cfg, nil, nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, server
}
