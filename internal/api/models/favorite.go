package models

// Favorite is a saved location.
type Favorite struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Point     Point     `json:"point"`
	CreatedAt Timestamp `json:"createdAt"`
}

// FavoriteCreateRequest is the request body for saving a location.
type FavoriteCreateRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=80"`
	Point *Point `json:"point" validate:"required"`
}

// FavoriteList is the list of a user's saved locations.
type FavoriteList struct {
	Items []Favorite `json:"items"`
	Limit int        `json:"limit"`
}
