package models

// Place is a geocoding result.
type Place struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Point       Point  `json:"point"`
	Country     string `json:"country,omitempty"`
	State       string `json:"state,omitempty"`
}

// PlaceList is the result of a location search.
type PlaceList struct {
	Items []Place `json:"items"`
}

// PresetList is the set of locations offered to every user.
type PresetList struct {
	Items   []Location `json:"items"`
	Default Location   `json:"default"`
}
