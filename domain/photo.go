package domain

// AnnotationShape names the overlay shapes drawn on observation photos.
type AnnotationShape string

const (
	AnnotationCircle    AnnotationShape = "circle"
	AnnotationArrow     AnnotationShape = "arrow"
	AnnotationText      AnnotationShape = "text"
	AnnotationRectangle AnnotationShape = "rectangle"
)

// PhotoAnnotation is a user-drawn overlay on a photo. All positional values
// are fractions of the image dimensions in [0,1], never pixel-absolute.
type PhotoAnnotation struct {
	ID    string          `json:"id"`
	Shape AnnotationShape `json:"shape" validate:"required,oneof=circle arrow text rectangle"`
	X     float64         `json:"x" validate:"min=0,max=1"`
	Y     float64         `json:"y" validate:"min=0,max=1"`

	// Arrow endpoints and rectangle extents, when the shape needs them.
	StartX *float64 `json:"startX,omitempty" validate:"omitempty,min=0,max=1"`
	StartY *float64 `json:"startY,omitempty" validate:"omitempty,min=0,max=1"`
	EndX   *float64 `json:"endX,omitempty" validate:"omitempty,min=0,max=1"`
	EndY   *float64 `json:"endY,omitempty" validate:"omitempty,min=0,max=1"`

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`
}

// AnnotatedPhoto is a photo attached to an observation. URL is the remote
// location after upload; LocalRef keeps the device-side reference so a record
// stays renderable when the upload failed or has not happened yet.
type AnnotatedPhoto struct {
	ID          string            `json:"id"`
	URL         string            `json:"url,omitempty"`
	LocalRef    string            `json:"localRef,omitempty"`
	Annotations []PhotoAnnotation `json:"annotations,omitempty" validate:"dive"`
	Data        []byte            `json:"-"`
}
