package favorites

import "context"

// Repository defines the interface for favorite persistence.
type Repository interface {
	// List returns a user's favorites, oldest first.
	List(ctx context.Context, userID string) ([]*Favorite, error)

	// Create stores a favorite. It enforces MaxPerUser and rejects a second
	// favorite at the same coordinates with ErrFavoriteLimit and
	// ErrDuplicateFavorite.
	Create(ctx context.Context, f *Favorite) error

	// Delete removes a user's favorite. Returns ErrFavoriteNotFound if it
	// doesn't exist or belongs to someone else.
	Delete(ctx context.Context, userID, id string) error

	// AllLocations returns every saved location across users.
	AllLocations(ctx context.Context) ([]*Favorite, error)
}
