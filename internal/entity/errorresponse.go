package entity

// ServerError is the body of every non-2xx API response, wrapped as
// {"error": {...}}.
type ServerError struct {
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	StatusCode int    `json:"statusCode"`
}

// ErrorResponse is the envelope around ServerError.
type ErrorResponse struct {
	Error ServerError `json:"error"`
}
