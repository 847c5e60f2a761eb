package identifier

import "errors"

// Parse failures indicate a corrupt staging path, not a transient
// condition. Callers retrying the same path will fail the same way until
// the staging row itself changes.
var (
	// ErrInvalidComponents is returned when a path has neither 6 nor 9
	// slash-separated components.
	ErrInvalidComponents = errors.New("identifier has invalid number of components")

	// ErrRevisionNotFound is returned when the fifth component is not
	// the literal "revision".
	ErrRevisionNotFound = errors.New("identifier has no revision component at expected place")

	// ErrNoJSONExtension is returned when the path does not end in ".json".
	ErrNoJSONExtension = errors.New("identifier has no .json extension")

	// ErrToolNotFound is returned when the seventh component of a
	// harvest path is not the literal "tool".
	ErrToolNotFound = errors.New("identifier has no tool component at expected place")

	// ErrToolNotSupported is returned when a harvest path names an
	// unknown tool.
	ErrToolNotSupported = errors.New("identifier names an unsupported tool")
)
