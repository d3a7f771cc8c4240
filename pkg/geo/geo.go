// Package geo convierte contornos de campos y lotes entre GeoJSON y orb, y calcula superficies.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/shopspring/decimal"
)

// ErrNotPolygon la geometría recibida no es un Polygon.
var ErrNotPolygon = errors.New("la geometría debe ser de tipo Polygon")

const squareMetersPerHectare = 10000

// ParsePolygon decodifica una geometría GeoJSON. Acepta también un Feature con geometría Polygon.
// Entrada vacía o "null" devuelve nil, nil.
func ParsePolygon(raw json.RawMessage) (orb.Polygon, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}
	var g orb.Geometry
	if head.Type == "Feature" {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("geojson feature: %w", err)
		}
		g = f.Geometry
	} else {
		gg, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, fmt.Errorf("geojson geometry: %w", err)
		}
		g = gg.Geometry()
	}
	poly, ok := g.(orb.Polygon)
	if !ok {
		return nil, ErrNotPolygon
	}
	if len(poly) == 0 || len(poly[0]) < 4 {
		return nil, fmt.Errorf("%w: el anillo exterior necesita al menos 4 puntos", ErrNotPolygon)
	}
	return poly, nil
}

// MarshalPolygon codifica el contorno como geometría GeoJSON; nil para contornos vacíos.
func MarshalPolygon(p orb.Polygon) json.RawMessage {
	if len(p) == 0 {
		return nil
	}
	b, err := json.Marshal(geojson.NewGeometry(p))
	if err != nil {
		return nil
	}
	return b
}

// AreaHectares superficie geodésica aproximada del contorno (lon/lat WGS84), redondeada a 2 decimales.
func AreaHectares(p orb.Polygon) decimal.Decimal {
	if len(p) == 0 {
		return decimal.Zero
	}
	m2 := geo.Area(p)
	if m2 < 0 {
		m2 = -m2
	}
	return decimal.NewFromFloat(m2 / squareMetersPerHectare).Round(2)
}
