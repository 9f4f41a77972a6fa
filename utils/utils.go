package utils

import "time"

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// ErrorResponse keeps the human-readable message at the top level; clients display it as is.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

func CreateErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: message,
		Code:    code,
	}
}

func CreateErrorResponseWithDetail(code, message, detail string) ErrorResponse {
	resp := CreateErrorResponse(code, message)
	resp.Error = detail
	return resp
}

func CreateSuccessResponse(message string, data any) SuccessResponse {
	return SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta: &Meta{
			Timestamp: time.Now(),
		},
	}
}
