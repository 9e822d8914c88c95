package favorites

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository. Items
// keep insertion order. Intended for testing and local runs without a
// database.
type InMemoryRepository struct {
	mu        sync.RWMutex
	favorites []*Favorite
}

// NewInMemoryRepository creates a new in-memory favorites repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// List returns a user's favorites, oldest first.
func (r *InMemoryRepository) List(_ context.Context, userID string) ([]*Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.listLocked(userID), nil
}

func (r *InMemoryRepository) listLocked(userID string) []*Favorite {
	var out []*Favorite
	for _, f := range r.favorites {
		if f.UserID == userID {
			cpy := *f
			out = append(out, &cpy)
		}
	}
	return out
}

// Create stores a favorite.
func (r *InMemoryRepository) Create(_ context.Context, f *Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.listLocked(f.UserID)
	for _, e := range existing {
		if e.SameLocation(f.Lat, f.Lon) {
			return ErrDuplicateFavorite
		}
	}
	if len(existing) >= MaxPerUser {
		return ErrFavoriteLimit
	}

	cpy := *f
	r.favorites = append(r.favorites, &cpy)
	return nil
}

// Delete removes a user's favorite.
func (r *InMemoryRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, f := range r.favorites {
		if f.ID == id && f.UserID == userID {
			r.favorites = append(r.favorites[:i], r.favorites[i+1:]...)
			return nil
		}
	}
	return ErrFavoriteNotFound
}

// AllLocations returns every saved location.
func (r *InMemoryRepository) AllLocations(_ context.Context) ([]*Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Favorite, 0, len(r.favorites))
	for _, f := range r.favorites {
		cpy := *f
		out = append(out, &cpy)
	}
	return out, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
