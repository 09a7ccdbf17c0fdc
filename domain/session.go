package domain

import "time"

// SessionStatus is the lifecycle state of a scouting visit.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// OfflineSessionPrefix marks ids of sessions synthesized locally when the
// backend could not be reached at start time.
const OfflineSessionPrefix = "offline-session-"

// ScoutingSession is one timed field-inspection visit. At most one session per
// field is active at a time; the backend enforces this, the client only ever
// reads and writes a single active session per field.
type ScoutingSession struct {
	ID                string        `json:"id"`
	FieldID           string        `json:"fieldId"`
	Status            SessionStatus `json:"status"`
	StartTime         time.Time     `json:"startTime"`
	EndTime           *time.Time    `json:"endTime,omitempty"`
	DurationMinutes   int           `json:"duration,omitempty"`
	ScoutID           string        `json:"scoutId"`
	ObservationsCount int           `json:"observationsCount"`

	// Aggregates are backend-derived and absent on a fresh session.
	CategoryCounts       map[Category]int `json:"categoryCounts,omitempty"`
	SeverityDistribution map[string]int   `json:"severityDistribution,omitempty"`
	AverageSeverity      float64          `json:"averageSeverity,omitempty"`

	Weather *WeatherSnapshot `json:"weather,omitempty"`
	Notes   BilingualText    `json:"notes,omitempty"`
}

// Completed reports whether the session left the active state. Completed and
// cancelled sessions never transition back to active.
func (s *ScoutingSession) Completed() bool {
	return s.Status != SessionActive
}

// WeatherSnapshot is the field conditions captured when a session starts,
// sourced from the field's IoT sensors.
type WeatherSnapshot struct {
	TemperatureC float64   `json:"temperatureC"`
	Humidity     float64   `json:"humidity"`
	WindKph      float64   `json:"windKph"`
	Condition    string    `json:"condition,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// SessionSummary is a read-only aggregate fetched from the backend. The client
// never computes it; on fetch failure a zero-valued summary is substituted.
type SessionSummary struct {
	SessionID            string           `json:"sessionId"`
	FieldID              string           `json:"fieldId"`
	ObservationsCount    int              `json:"observationsCount"`
	CategoryCounts       map[Category]int `json:"categoryCounts,omitempty"`
	SeverityDistribution map[string]int   `json:"severityDistribution,omitempty"`
	AverageSeverity      float64          `json:"averageSeverity"`
	DurationMinutes      int              `json:"duration"`
}

// EmptySummary is the read-path fallback for GetSessionSummary.
func EmptySummary(sessionID string) *SessionSummary {
	return &SessionSummary{SessionID: sessionID}
}
