package domain

import "fmt"

// Visibility classifies a facade error: silent errors are logged and absorbed
// by a fallback, user-visible errors are surfaced for direct rendering.
type Visibility string

const (
	Silent      Visibility = "silent"
	UserVisible Visibility = "userVisible"
)

// BilingualError is the single error type crossing the facade boundary. Both
// message languages are always present so the UI renders in the user's
// language without a second lookup.
type BilingualError struct {
	Op         string
	Code       string
	Message    string
	MessageAr  string
	Visibility Visibility
	Err        error
}

func (e *BilingualError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *BilingualError) Unwrap() error { return e.Err }

// Localized returns the message for lang ("ar" or "en").
func (e *BilingualError) Localized(lang string) string {
	if lang == "ar" && e.MessageAr != "" {
		return e.MessageAr
	}
	return e.Message
}

// NewUserError builds a surfaced error with both languages set.
func NewUserError(op, code, msg, msgAr string, cause error) *BilingualError {
	return &BilingualError{
		Op:         op,
		Code:       code,
		Message:    msg,
		MessageAr:  msgAr,
		Visibility: UserVisible,
		Err:        cause,
	}
}

// NewSilentError builds a log-only error for read-path fallbacks.
func NewSilentError(op string, cause error) *BilingualError {
	return &BilingualError{
		Op:         op,
		Message:    "operation failed, local fallback applied",
		MessageAr:  "فشلت العملية، تم استخدام البيانات المحلية",
		Visibility: Silent,
		Err:        cause,
	}
}

// ErrNoActiveSession guards observation mutations issued without an active
// session; it is raised before any network call is made.
var ErrNoActiveSession = &BilingualError{
	Op:         "scouting.guard",
	Code:       "NO_ACTIVE_SESSION",
	Message:    "no active scouting session for this field",
	MessageAr:  "لا توجد جلسة استكشاف نشطة لهذا الحقل",
	Visibility: UserVisible,
}
