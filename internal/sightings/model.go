package sightings

import "time"

// MaxPictures bounds the number of photos attached to one sighting.
const MaxPictures = 3

// Sighting is a single species observation with optional photos.
type Sighting struct {
	ID           int64
	SightingCode string
	Species      string
	SightingDate time.Time
	Notes        string
	Pictures     []string
	Longitude    float64
	Latitude     float64
	CreatedBy    string
	CreatedAt    time.Time
}
