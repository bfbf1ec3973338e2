// Package session contains HTTP request DTOs for session endpoints.
package session

// InitializeSessionRequest is the optional body of the initialize endpoint.
type InitializeSessionRequest struct {
	// ForceRecreate destroys any existing session first. Defaults to true.
	ForceRecreate *bool `json:"force_recreate,omitempty" example:"true"`
}

// Force resolves ForceRecreate with its default.
func (r InitializeSessionRequest) Force() bool {
	if r.ForceRecreate == nil {
		return true
	}
	return *r.ForceRecreate
}

// SendMessageRequest is the body of the send endpoint.
type SendMessageRequest struct {
	// To is a phone number or a chat id ending in @c.us.
	To      string `json:"to" binding:"required" example:"5511988888888"`
	Message string `json:"message" binding:"required" example:"Hello from the API"`
}
