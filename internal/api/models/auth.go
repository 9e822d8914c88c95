package models

// TokenResponse is returned by the development token endpoint.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   Timestamp `json:"expiresAt"`
	UserID      string    `json:"userId"`
}

// DevTokenRequest optionally names the user to issue a token for.
type DevTokenRequest struct {
	UserID string `json:"userId,omitempty"`
}
