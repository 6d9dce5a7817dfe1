package port

import (
	"context"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

// PositionProvider answers a one-shot "where am I" request.
type PositionProvider interface {
	// CurrentPosition fails with domain.ErrLocationUnavailable when the fix is
	// denied or cannot be obtained.
	CurrentPosition(ctx context.Context) (domain.Coordinates, error)
}

// Geocoder turns a point into a human readable address.
type Geocoder interface {
	// ReverseGeocode fails with domain.ErrGeocodeFailed; it never returns an
	// empty address with a nil error.
	ReverseGeocode(ctx context.Context, coords domain.Coordinates) (string, error)
}
