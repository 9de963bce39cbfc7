package weather

import "fmt"

// SetupError reports missing configuration. Title and Subtitle are shown to
// the user as-is and should name the command that fixes the problem.
type SetupError struct {
	Title    string
	Subtitle string
}

func (e *SetupError) Error() string {
	return e.Title
}

// UpstreamError is an error payload returned by a weather or geocoding
// service. Description is surfaced directly to the user.
type UpstreamError struct {
	Service     string
	Description string
	// Detail holds the raw upstream error payload, if any.
	Detail string
}

func (e *UpstreamError) Error() string {
	return e.Description
}

// ParseError reports a response that is missing an expected field.
type ParseError struct {
	Service string
	Field   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unexpected response: missing %s", e.Service, e.Field)
}
