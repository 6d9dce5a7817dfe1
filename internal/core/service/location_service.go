package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/port"
)

// LocationService fronts the position source and the reverse geocoder and
// normalizes their failures to the domain sentinels.
type LocationService struct {
	position port.PositionProvider
	geocoder port.Geocoder
	logger   *slog.Logger
}

func NewLocationService(position port.PositionProvider, geocoder port.Geocoder, logger *slog.Logger) *LocationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationService{position: position, geocoder: geocoder, logger: logger}
}

func (s *LocationService) CurrentPosition(ctx context.Context) (domain.Coordinates, error) {
	if s.position == nil {
		return domain.Coordinates{}, domain.ErrLocationUnavailable
	}

	coords, err := s.position.CurrentPosition(ctx)
	if err != nil {
		s.logger.Error("geolocation error", "error", err)
		if errors.Is(err, domain.ErrLocationUnavailable) {
			return domain.Coordinates{}, err
		}
		return domain.Coordinates{}, errors.Join(domain.ErrLocationUnavailable, err)
	}
	if err := coords.Validate(); err != nil {
		s.logger.Error("geolocation returned an invalid fix", "error", err)
		return domain.Coordinates{}, errors.Join(domain.ErrLocationUnavailable, err)
	}

	return coords, nil
}

func (s *LocationService) ReverseGeocode(ctx context.Context, coords domain.Coordinates) (string, error) {
	text, err := s.geocoder.ReverseGeocode(ctx, coords)
	if err != nil {
		s.logger.Error("reverse geocoding failed", "coords", coords.String(), "error", err)
		if errors.Is(err, domain.ErrGeocodeFailed) {
			return "", err
		}
		return "", errors.Join(domain.ErrGeocodeFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Error("reverse geocoding returned no address", "coords", coords.String())
		return "", fmt.Errorf("%w: empty address", domain.ErrGeocodeFailed)
	}

	return text, nil
}
