package models

// ErrorResponse is the uniform JSON error body returned by every handler.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// NewErrorResponse builds the standard error body. Success is always false.
func NewErrorResponse(statusCode int, message string) ErrorResponse {
	return ErrorResponse{StatusCode: statusCode, Message: message, Success: false}
}
