package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/api/response"
	"github.com/airsight/airsight/internal/auth"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID string) (string, time.Time, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	issuer TokenIssuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// DevToken handles POST /v1/auth/dev - development-only authentication.
// This endpoint is only routed when AUTH_DEV_MODE=true. It issues a token for
// the requested user ID, or for a new user when none is given.
func (h *AuthHandler) DevToken(w http.ResponseWriter, r *http.Request) {
	var req models.DevTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = auth.NewUserID()
	}

	token, expiresAt, err := h.issuer.GenerateAccessToken(userID)
	if err != nil {
		response.InternalError(w, r, "dev authentication failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   models.Timestamp(expiresAt),
		UserID:      userID,
	})
}
