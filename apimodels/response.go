package apimodels

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the health check body.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the body of GET /user.
type UserResponse struct {
	Message string                 `json:"message"`
	User    map[string]interface{} `json:"user"`
}
