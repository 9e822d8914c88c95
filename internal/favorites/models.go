// Package favorites stores the locations a user saved on the dashboard.
package favorites

import (
	"errors"
	"time"
)

// MaxPerUser is the number of favorites a user may keep.
const MaxPerUser = 8

// Favorite errors.
var (
	ErrFavoriteNotFound  = errors.New("favorite not found")
	ErrDuplicateFavorite = errors.New("location already saved")
	ErrFavoriteLimit     = errors.New("favorite limit reached")
	ErrInvalidFavorite   = errors.New("invalid favorite")
)

// Favorite is a saved location.
type Favorite struct {
	ID        string
	UserID    string
	Name      string
	Lat       float64
	Lon       float64
	CreatedAt time.Time
}

// SameLocation reports whether f sits at lat, lon.
func (f *Favorite) SameLocation(lat, lon float64) bool {
	return f.Lat == lat && f.Lon == lon
}
