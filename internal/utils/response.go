package utils

import "time"

// APIResponse is the JSON envelope every marketplace endpoint writes. Data
// carries the payload on success; Error carries the detail string on failure.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return envelope(true, message, data, "")
}

func ErrorResponse(message, detail string) APIResponse {
	return envelope(false, message, nil, detail)
}

func envelope(ok bool, message string, data interface{}, detail string) APIResponse {
	return APIResponse{
		Success:   ok,
		Message:   message,
		Data:      data,
		Error:     detail,
		Timestamp: time.Now().UTC(),
	}
}
