package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/airsight/airsight/internal/api/middleware"
	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/api/response"
	"github.com/airsight/airsight/internal/favorites"
)

// FavoritesHandler handles saved location endpoints.
type FavoritesHandler struct {
	service *favorites.Service
}

// NewFavoritesHandler creates a new FavoritesHandler.
func NewFavoritesHandler(service *favorites.Service) *FavoritesHandler {
	return &FavoritesHandler{service: service}
}

// currentUser returns the caller's user ID, answering 401 when the route was
// mounted without Auth in front of it.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return "", false
	}
	return userID, true
}

// ListFavorites handles GET /v1/me/favorites.
func (h *FavoritesHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, r, "failed to list favorites")
		return
	}

	response.JSON(w, r, http.StatusOK, list)
}

// AddFavorite handles POST /v1/me/favorites.
func (h *FavoritesHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input models.FavoriteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	favorite, err := h.service.Add(r.Context(), userID, &input)
	if err != nil {
		var validationErr *favorites.ValidationError
		switch {
		case errors.As(err, &validationErr):
			response.BadRequest(w, r, "validation error", validationErr.Errors)
		case errors.Is(err, favorites.ErrDuplicateFavorite):
			response.Conflict(w, r, "this location is already saved")
		case errors.Is(err, favorites.ErrFavoriteLimit):
			response.UnprocessableEntity(w, r, fmt.Sprintf("at most %d locations can be saved", favorites.MaxPerUser))
		default:
			response.InternalError(w, r, "failed to save favorite")
		}
		return
	}

	location := fmt.Sprintf("/v1/me/favorites/%s", favorite.ID)
	response.Created(w, r, location, favorite)
}

// RemoveFavorite handles DELETE /v1/me/favorites/{favoriteId}.
func (h *FavoritesHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	favoriteID := chi.URLParam(r, "favoriteId")
	if favoriteID == "" {
		response.BadRequest(w, r, "favoriteId is required", nil)
		return
	}

	if err := h.service.Remove(r.Context(), userID, favoriteID); err != nil {
		if errors.Is(err, favorites.ErrFavoriteNotFound) {
			response.NotFound(w, r, "favorite not found")
			return
		}
		response.InternalError(w, r, "failed to delete favorite")
		return
	}

	response.NoContent(w, r)
}
