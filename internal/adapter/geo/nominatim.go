package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap geocoder.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies this service to Nominatim, which requires one.
	DefaultUserAgent = "order-desk/1.0"
)

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Nominatim resolves coordinates to an address with the /reverse endpoint.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewNominatim(baseURL, userAgent string, client *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

func (n *Nominatim) ReverseGeocode(ctx context.Context, at domain.Coordinates) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lng, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Join(domain.ErrGeocodeFailed, err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", errors.Join(domain.ErrGeocodeFailed, fmt.Errorf("client.Do: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrGeocodeFailed, resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", errors.Join(domain.ErrGeocodeFailed, fmt.Errorf("json.Decode: %w", err))
	}
	if body.Error != "" {
		return "", fmt.Errorf("%w: %s", domain.ErrGeocodeFailed, body.Error)
	}
	if strings.TrimSpace(body.DisplayName) == "" {
		return "", fmt.Errorf("%w: no display_name", domain.ErrGeocodeFailed)
	}

	return body.DisplayName, nil
}
