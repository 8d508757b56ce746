package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// SRID is WGS84, the only reference system stored.
const SRID = 4326

// EncodePoint returns the little-endian EWKB of a WGS84 point, suitable for
// ST_GeomFromEWKB. Coordinates are stored as (lon, lat) per the OGC axis order.
func EncodePoint(lat, lon float64) ([]byte, error) {
	if !ValidCoordinate(lat, lon) {
		return nil, eris.Errorf("geo: invalid coordinate (%f, %f)", lat, lon)
	}
	p := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(SRID)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode point")
	}
	return data, nil
}

// DecodePoint parses EWKB produced by PostGIS (or EncodePoint) back into lat/lon.
func DecodePoint(data []byte) (lat, lon float64, err error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return 0, 0, eris.Wrap(err, "geo: decode point")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, eris.Errorf("geo: expected point, got %T", g)
	}
	return p.Y(), p.X(), nil
}
