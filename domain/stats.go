package domain

import (
	"net/url"
	"strconv"
	"time"
)

// ScoutingStatistics is the backend aggregate over a field's sessions. Like
// SessionSummary it is never computed client-side; ZeroStatistics is the
// read-path fallback.
type ScoutingStatistics struct {
	FieldID           string           `json:"fieldId"`
	TotalSessions     int              `json:"totalSessions"`
	TotalObservations int              `json:"totalObservations"`
	CategoryCounts    map[Category]int `json:"categoryCounts,omitempty"`
	AverageSeverity   float64          `json:"averageSeverity"`
	LastSessionAt     *time.Time       `json:"lastSessionAt,omitempty"`
}

// ZeroStatistics returns the zero-valued fallback served when the fetch fails.
func ZeroStatistics(fieldID string) *ScoutingStatistics {
	return &ScoutingStatistics{FieldID: fieldID}
}

// HistoryFilter narrows the session history listing.
type HistoryFilter struct {
	FieldID     string
	ScoutID     string
	Category    Category
	MinSeverity int
	StartDate   *time.Time
	EndDate     *time.Time
	Status      SessionStatus
}

// Query renders the filter as the backend's query parameters. Zero fields are
// omitted.
func (f HistoryFilter) Query() url.Values {
	q := url.Values{}
	if f.FieldID != "" {
		q.Set("fieldId", f.FieldID)
	}
	if f.ScoutID != "" {
		q.Set("scoutId", f.ScoutID)
	}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.MinSeverity > 0 {
		q.Set("minSeverity", strconv.Itoa(f.MinSeverity))
	}
	if f.StartDate != nil {
		q.Set("startDate", f.StartDate.Format(time.RFC3339))
	}
	if f.EndDate != nil {
		q.Set("endDate", f.EndDate.Format(time.RFC3339))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	return q
}

// ReportLanguage / ReportFormat are the accepted report generation options.
type (
	ReportLanguage string
	ReportFormat   string
)

const (
	ReportEnglish ReportLanguage = "en"
	ReportArabic  ReportLanguage = "ar"
	ReportBoth    ReportLanguage = "both"

	ReportPDF   ReportFormat = "pdf"
	ReportExcel ReportFormat = "excel"
)

// ReportConfig configures backend report generation for a session.
type ReportConfig struct {
	IncludePhotos bool           `json:"includePhotos"`
	IncludeMap    bool           `json:"includeMap"`
	Language      ReportLanguage `json:"language" validate:"omitempty,oneof=en ar both"`
	Format        ReportFormat   `json:"format" validate:"omitempty,oneof=pdf excel"`
}

// ReportResult is the backend's answer: a URL the client downloads from.
type ReportResult struct {
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generatedAt"`
}
