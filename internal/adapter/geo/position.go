package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

// DefaultIPAPIURL answers with the approximate location of the caller's IP.
const DefaultIPAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// StaticPosition always reports the same fix. A nil point behaves like a
// device where the user denied location access.
type StaticPosition struct {
	At *domain.Coordinates
}

func (p StaticPosition) CurrentPosition(ctx context.Context) (domain.Coordinates, error) {
	if p.At == nil {
		return domain.Coordinates{}, domain.ErrLocationUnavailable
	}
	return *p.At, nil
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPLocator approximates the position from the public IP address.
type IPLocator struct {
	url    string
	client *http.Client
}

func NewIPLocator(url string, client *http.Client) *IPLocator {
	if url == "" {
		url = DefaultIPAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &IPLocator{url: url, client: client}
}

func (l *IPLocator) CurrentPosition(ctx context.Context) (domain.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return domain.Coordinates{}, errors.Join(domain.ErrLocationUnavailable, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return domain.Coordinates{}, errors.Join(domain.ErrLocationUnavailable, fmt.Errorf("client.Do: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("%w: status %d", domain.ErrLocationUnavailable, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return domain.Coordinates{}, errors.Join(domain.ErrLocationUnavailable, fmt.Errorf("json.Decode: %w", err))
	}
	if body.Status != "success" {
		return domain.Coordinates{}, fmt.Errorf("%w: %s", domain.ErrLocationUnavailable, body.Message)
	}

	return domain.Coordinates{Lat: body.Lat, Lng: body.Lon}, nil
}
