package favorites

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/weather"
)

// MaxNameLength is the longest accepted favorite name.
const MaxNameLength = 80

// Service provides favorite operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new favorites service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns a user's favorites.
func (s *Service) List(ctx context.Context, userID string) (*models.FavoriteList, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Favorite, 0, len(items))
	for _, f := range items {
		out = append(out, toAPIFavorite(f))
	}
	return &models.FavoriteList{Items: out, Limit: MaxPerUser}, nil
}

// Add saves a location for a user.
func (s *Service) Add(ctx context.Context, userID string, input *models.FavoriteCreateRequest) (*models.Favorite, error) {
	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	f := &Favorite{
		ID:        "fav_" + uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(input.Name),
		Lat:       input.Point.Lat,
		Lon:       input.Point.Lon,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	result := toAPIFavorite(f)
	return &result, nil
}

// Remove deletes a user's favorite.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// AllLocations returns every saved location, deduplicated by coordinates.
func (s *Service) AllLocations(ctx context.Context) ([]*Favorite, error) {
	all, err := s.repo.AllLocations(ctx)
	if err != nil {
		return nil, err
	}

	type point struct{ lat, lon float64 }
	seen := make(map[point]bool, len(all))
	out := make([]*Favorite, 0, len(all))
	for _, f := range all {
		p := point{f.Lat, f.Lon}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, f)
	}
	return out, nil
}

func validateCreateInput(input *models.FavoriteCreateRequest) []models.FieldError {
	var errs []models.FieldError

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if utf8.RuneCountInString(name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 80 characters"})
	}

	if input.Point == nil {
		errs = append(errs, models.FieldError{Field: "point", Message: "is required"})
		return errs
	}

	if input.Point.Lat < -90 || input.Point.Lat > 90 {
		errs = append(errs, models.FieldError{Field: "point.lat", Message: "must be between -90 and 90"})
	}
	if input.Point.Lon < -180 || input.Point.Lon > 180 {
		errs = append(errs, models.FieldError{Field: "point.lon", Message: "must be between -180 and 180"})
	}
	if len(errs) == 0 && weather.ValidateCoordinates(input.Point.Lat, input.Point.Lon) != nil {
		errs = append(errs, models.FieldError{Field: "point", Message: "must be finite"})
	}

	return errs
}

func toAPIFavorite(f *Favorite) models.Favorite {
	return models.Favorite{
		ID:        f.ID,
		Name:      f.Name,
		Point:     models.Point{Lat: f.Lat, Lon: f.Lon},
		CreatedAt: models.Timestamp(f.CreatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Unwrap lets callers match ErrInvalidFavorite.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidFavorite
}
