package domain

import "fmt"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultCoordinates is where the map opens when nothing else is known (Chennai).
var DefaultCoordinates = Coordinates{Lat: 13.0827, Lng: 80.2707}

func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", c.Lng)
	}
	return nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// PersistedLocation is the last delivery location used on this instance.
// There is exactly one slot; the last writer wins.
type PersistedLocation struct {
	Text        string
	Coordinates Coordinates
}

func (p PersistedLocation) IsZero() bool {
	return p.Text == ""
}
