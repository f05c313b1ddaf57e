package models

// Outcome is the response envelope handed to callers
type Outcome struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Succeeded wraps a successful result
func Succeeded(data interface{}) Outcome {
	return Outcome{Success: true, Data: data}
}

// Failed wraps an error message
func Failed(code, message string) Outcome {
	return Outcome{Success: false, Code: code, Error: message}
}
