package service

import "github.com/authenticindia/order-desk/internal/core/domain"

const (
	// SelectionZoom is the zoom level used after picking a point.
	SelectionZoom = 18
	// TileURL is the OpenStreetMap tile template the map is drawn with.
	TileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	// TileAttribution must be shown next to the tiles.
	TileAttribution = "© OpenStreetMap contributors"
)

// MapView is what a client needs to draw the map.
type MapView struct {
	Marker      domain.Coordinates `json:"marker"`
	Center      domain.Coordinates `json:"center"`
	Zoom        int                `json:"zoom"`
	Visible     bool               `json:"visible"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Generation  uint64             `json:"generation"`
	TileURL     string             `json:"tile_url"`
	Attribution string             `json:"attribution"`
}

// MapSurface tracks the marker and viewport of the delivery map. It starts
// hidden with no size; map renderers miscompute their size when laid out
// while hidden, so every Show after a hidden state re-measures and bumps
// Generation to force a redraw. Not safe for concurrent use on its own.
type MapSurface struct {
	marker     domain.Coordinates
	center     domain.Coordinates
	zoom       int
	visible    bool
	width      int
	height     int
	generation uint64
}

func NewMapSurface(at domain.Coordinates) *MapSurface {
	return &MapSurface{marker: at, center: at, zoom: SelectionZoom}
}

// Click moves the marker to the picked point and re-centers on it.
func (m *MapSurface) Click(at domain.Coordinates) {
	m.marker = at
	m.center = at
	m.zoom = SelectionZoom
}

// Show makes the surface visible at the given size and reports whether the
// viewport was re-measured.
func (m *MapSurface) Show(width, height int) bool {
	if m.visible && width == m.width && height == m.height {
		return false
	}

	m.visible = true
	m.width = width
	m.height = height
	m.generation++
	return true
}

func (m *MapSurface) Hide() {
	m.visible = false
}

func (m *MapSurface) Marker() domain.Coordinates {
	return m.marker
}

func (m *MapSurface) View() MapView {
	return MapView{
		Marker:      m.marker,
		Center:      m.center,
		Zoom:        m.zoom,
		Visible:     m.visible,
		Width:       m.width,
		Height:      m.height,
		Generation:  m.generation,
		TileURL:     TileURL,
		Attribution: TileAttribution,
	}
}
