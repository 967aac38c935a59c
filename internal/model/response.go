package model

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError is one entry in a validation failure list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func OK(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

func ValidationFailed(errs []FieldError) Response {
	return Response{Success: false, Message: "Validation failed", Errors: errs}
}

type HealthResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Database    string `json:"database"`
	Environment string `json:"environment"`
}

type WelcomeResponse struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	Version       string            `json:"version"`
	Documentation string            `json:"documentation"`
	Endpoints     map[string]string `json:"endpoints"`
}
