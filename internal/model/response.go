package model

// APIResponse is the envelope every endpoint returns. Success responses carry
// Data; failures carry Error plus a stable machine-readable Code.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func OK(data any) APIResponse {
	return APIResponse{Success: true, Data: data}
}

func Fail(message, code string) APIResponse {
	return APIResponse{Success: false, Error: message, Code: code}
}

type StatusResponse struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
