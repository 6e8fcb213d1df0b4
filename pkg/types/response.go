package types

import "time"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Error carries the HTTP reason
// phrase for the status.
type APIError struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
