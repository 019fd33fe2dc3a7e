package models

// Location is a geographic point, optionally with a display address.
// Once a commitment references a location it is treated as immutable.
type Location struct {
	ID        string  `bson:"id" json:"id"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
}

// IsZero reports whether the location carries no coordinates.
func (l Location) IsZero() bool {
	return l.Latitude == 0 && l.Longitude == 0 && l.ID == ""
}
