package model

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RelayErrorResponse is returned by the relay when an upstream call fails.
// Details carries the upstream body for non-2xx answers; Raw carries an
// unparseable success body.
type RelayErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Raw     string `json:"raw,omitempty"`
}
