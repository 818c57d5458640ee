// Package dto defines the HTTP boundary's request and response shapes.
package dto

import "time"

// Response status values
const (
	// StatusSuccess marks a fulfilled request
	StatusSuccess = "success"
	// StatusFail marks a request rejected for caller-side reasons
	StatusFail = "fail"
	// StatusError marks a server-side or downstream failure
	StatusError = "error"
)

// Response is the standard API envelope.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      *ErrorInfo  `json:"error,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// RequestID correlates the error with server logs
	RequestID string `json:"request_id,omitempty"`
}

// NewSuccessResponse creates a success envelope.
func NewSuccessResponse(statusCode int, message string, data interface{}) Response {
	return Response{
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
		Timestamp:  time.Now().UTC(),
	}
}

// NewFailResponse creates a caller-fault envelope. Partial registration
// failure also uses this shape with a 207 status code.
func NewFailResponse(statusCode int, message string, data interface{}) Response {
	return Response{
		Status:     StatusFail,
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
		Timestamp:  time.Now().UTC(),
	}
}

// NewErrorResponse creates a server-fault envelope.
func NewErrorResponse(statusCode int, code, message, requestID string) Response {
	return Response{
		Status:     StatusError,
		StatusCode: statusCode,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorResponseWithData creates a server-fault envelope that still
// carries a payload, e.g. the per-target breakdown of a failed dispatch.
func NewErrorResponseWithData(statusCode int, code, message, requestID string, data interface{}) Response {
	resp := NewErrorResponse(statusCode, code, message, requestID)
	resp.Data = data
	return resp
}
