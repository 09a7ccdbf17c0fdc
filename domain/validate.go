package domain

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateObservation enforces the submission invariants: severity in 1..5,
// notes non-empty in at least one language, annotation coordinates in [0,1].
// Returns a user-visible bilingual error so forms can render it directly.
func ValidateObservation(o *Observation) error {
	if o.Notes.Empty() {
		return NewUserError("scouting.validate", "NOTES_REQUIRED",
			"observation notes are required",
			"ملاحظات الرصد مطلوبة", nil)
	}
	if err := validate.Struct(o); err != nil {
		return invalidObservation(err)
	}
	return nil
}

// ValidateUpdate enforces the same bounds on a partial update.
func ValidateUpdate(u *ObservationUpdate) error {
	if u.Notes != nil && u.Notes.Empty() {
		return NewUserError("scouting.validate", "NOTES_REQUIRED",
			"observation notes cannot be cleared",
			"لا يمكن مسح ملاحظات الرصد", nil)
	}
	if err := validate.Struct(u); err != nil {
		return invalidObservation(err)
	}
	return nil
}

func invalidObservation(err error) error {
	if verr, ok := err.(validator.ValidationErrors); ok && len(verr) > 0 {
		f := verr[0]
		switch f.Field() {
		case "Severity":
			return NewUserError("scouting.validate", "SEVERITY_OUT_OF_RANGE",
				"severity must be between 1 and 5",
				"يجب أن تكون الشدة بين 1 و 5", err)
		case "X", "Y", "StartX", "StartY", "EndX", "EndY":
			return NewUserError("scouting.validate", "ANNOTATION_OUT_OF_RANGE",
				"annotation coordinates must be within the image",
				"يجب أن تكون إحداثيات التعليق داخل الصورة", err)
		}
	}
	return NewUserError("scouting.validate", "INVALID_OBSERVATION",
		"observation failed validation",
		"فشل التحقق من بيانات الرصد", err)
}
