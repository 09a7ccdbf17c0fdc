package domain

import "time"

// Category classifies the issue recorded during scouting.
type Category string

const (
	CategoryPest     Category = "pest"
	CategoryDisease  Category = "disease"
	CategoryWeed     Category = "weed"
	CategoryNutrient Category = "nutrient"
	CategoryWater    Category = "water"
	CategoryOther    Category = "other"
)

// OfflineObservationPrefix marks ids of observations synthesized locally when
// the create request failed and the record was parked in the offline store.
const OfflineObservationPrefix = "offline-obs-"

// BilingualText carries the Arabic/English pair used across the product.
type BilingualText struct {
	En string `json:"en,omitempty"`
	Ar string `json:"ar,omitempty"`
}

// Empty reports whether neither language is set.
func (t BilingualText) Empty() bool { return t.En == "" && t.Ar == "" }

// In returns the text for lang ("ar" or "en"), falling back to the other
// language when the requested one is missing.
func (t BilingualText) In(lang string) string {
	if lang == "ar" {
		if t.Ar != "" {
			return t.Ar
		}
		return t.En
	}
	if t.En != "" {
		return t.En
	}
	return t.Ar
}

// GeoPoint is a geographic coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// Observation is one recorded issue within a scouting session.
//
// Severity is always within 1..5 and notes must carry at least one language at
// creation time; both are enforced client-side before submission.
type Observation struct {
	ID           string           `json:"id"`
	SessionID    string           `json:"sessionId" validate:"required"`
	FieldID      string           `json:"fieldId" validate:"required"`
	Location     GeoPoint         `json:"location"`
	LocationName *BilingualText   `json:"locationName,omitempty"`
	Category     Category         `json:"category" validate:"required,oneof=pest disease weed nutrient water other"`
	Subcategory  string           `json:"subcategory,omitempty"`
	Severity     int              `json:"severity" validate:"min=1,max=5"`
	Notes        BilingualText    `json:"notes"`
	Photos       []AnnotatedPhoto `json:"photos,omitempty" validate:"dive"`
	TaskID       string           `json:"taskId,omitempty"`
	ObservedBy   string           `json:"observedBy,omitempty"`
	CreatedAt    time.Time        `json:"createdAt,omitempty"`
	UpdatedAt    time.Time        `json:"updatedAt,omitempty"`

	// Offline marker fields, set only on records synthesized after a failed
	// create and parked in the local store until the next sync.
	Offline  bool       `json:"_offline,omitempty"`
	CachedAt *time.Time `json:"_cachedAt,omitempty"`
}

// ObservationUpdate is the mutable subset accepted by UpdateObservation.
type ObservationUpdate struct {
	Category    *Category      `json:"category,omitempty" validate:"omitempty,oneof=pest disease weed nutrient water other"`
	Subcategory *string        `json:"subcategory,omitempty"`
	Severity    *int           `json:"severity,omitempty" validate:"omitempty,min=1,max=5"`
	Notes       *BilingualText `json:"notes,omitempty"`
	TaskID      *string        `json:"taskId,omitempty"`
}
