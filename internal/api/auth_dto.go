package api

// LoginRequest is the payload for POST /api/auth/login. TOTP and client id
// are optional; Remember persists encrypted credentials for the scheduler.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTP     string `json:"totp"`
	ClientID string `json:"clientId"`
	Remember bool   `json:"remember"`
}

// StatusResponse is the response for GET /api/auth/status.
type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
}
