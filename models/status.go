package models

// Codes returned by the status server.
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeNoSession    = "NO_ACTIVE_RUN"
)

// ErrorDetail is the JSON error body of the status server.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an ErrorDetail.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Running string `json:"running,omitempty"` // "harvest", "enrich" or empty
	Version string `json:"version"`
}
