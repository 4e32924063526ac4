package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

// LoginRequest carries form-encoded credentials for token issuance.
type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"required,min=1,max=64"`
	Password string `form:"password" json:"password" validate:"required,min=1,max=128"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// PredictRequest names the instrument to forecast.
type PredictRequest struct {
	Instrument string `json:"instrument" validate:"required,min=1,max=32"`
}
