package geo

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/golang/geo/r2"
	geojson "github.com/paulmach/go.geojson"

	"vistoria/models"
)

// Zone is one management zone from the dataset: a Quadra or Canteiro with
// one or more polygon outer rings in planar lon/lat coordinates.
type Zone struct {
	Kind  models.ZoneKind
	ID    string
	Sigla string

	rings []ring
	bbox  r2.Rect
}

type ring []r2.Point

// Index holds all zones in dataset order. It is immutable after Load.
type Index struct {
	zones []Zone
}

// Load reads a GeoJSON FeatureCollection of zones. Malformed features are
// skipped with a warning; a dataset that yields no usable zone is an error.
func Load(path string) (*Index, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("zones file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse zones file: %w", err)
	}

	idx := &Index{}
	for i, feature := range fc.Features {
		zone, err := zoneFromFeature(feature)
		if err != nil {
			log.Warnf("Skipping zone feature %d: %v", i, err)
			continue
		}
		idx.zones = append(idx.zones, zone)
	}

	if len(idx.zones) == 0 {
		return nil, fmt.Errorf("zones file %s contains no usable zones", path)
	}

	log.Infof("Loaded %d zones from %s", len(idx.zones), path)
	return idx, nil
}

// Len returns the number of zones in the index.
func (idx *Index) Len() int {
	return len(idx.zones)
}

func zoneFromFeature(feature *geojson.Feature) (Zone, error) {
	zone := Zone{Kind: models.ZoneUnknown, Sigla: models.UnknownSigla}

	if v, ok := feature.Properties["Quadra"]; ok {
		zone.Kind = models.ZoneQuadra
		zone.ID = propString(v)
	} else if v, ok := feature.Properties["Canteiro"]; ok {
		zone.Kind = models.ZoneCanteiro
		zone.ID = propString(v)
	}
	if zone.ID == "" {
		return zone, fmt.Errorf("feature has neither Quadra nor Canteiro property")
	}

	if v, ok := feature.Properties["Sigla"]; ok {
		zone.Sigla = NormalizeSigla(propString(v))
	}

	if feature.Geometry == nil {
		return zone, fmt.Errorf("feature has no geometry")
	}
	switch {
	case feature.Geometry.IsPolygon():
		if r, ok := outerRing(feature.Geometry.Polygon); ok {
			zone.rings = append(zone.rings, r)
		}
	case feature.Geometry.IsMultiPolygon():
		for _, poly := range feature.Geometry.MultiPolygon {
			if r, ok := outerRing(poly); ok {
				zone.rings = append(zone.rings, r)
			}
		}
	default:
		return zone, fmt.Errorf("unsupported geometry type %s", feature.Geometry.Type)
	}
	if len(zone.rings) == 0 {
		return zone, fmt.Errorf("feature has no usable polygon ring")
	}

	pts := make([]r2.Point, 0)
	for _, r := range zone.rings {
		pts = append(pts, r...)
	}
	zone.bbox = r2.RectFromPoints(pts...)

	return zone, nil
}

// outerRing converts the outer ring of a GeoJSON polygon. Rings with fewer
// than three vertices are unusable.
func outerRing(poly [][][]float64) (ring, bool) {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return nil, false
	}
	r := make(ring, 0, len(poly[0]))
	for _, coord := range poly[0] {
		if len(coord) < 2 {
			return nil, false
		}
		r = append(r, r2.Point{X: coord[0], Y: coord[1]})
	}
	return r, true
}

func propString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// NormalizeSigla collapses missing-sigla spellings to the Unknown sentinel.
func NormalizeSigla(sigla string) string {
	s := strings.TrimSpace(sigla)
	switch strings.ToLower(s) {
	case "", "sem sigla", "desconhecida":
		return models.UnknownSigla
	}
	return s
}

// Classify finds the zone for a point. Zones are tested for containment in
// dataset order and the first hit wins with distance 0. When no zone
// contains the point, the zone with the smallest planar distance to its
// boundary wins; ties keep the first-encountered zone.
func (idx *Index) Classify(lat, lon float64) (models.ZoneKind, string, string, float64) {
	p := r2.Point{X: lon, Y: lat}

	for i := range idx.zones {
		zone := &idx.zones[i]
		if !zone.bbox.ContainsPoint(p) {
			continue
		}
		for _, r := range zone.rings {
			if pointInRing(p, r) {
				return zone.Kind, zone.ID, zone.Sigla, 0
			}
		}
	}

	best := -1
	bestDist := math.Inf(1)
	for i := range idx.zones {
		d := idx.zones[i].distance(p)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return models.ZoneUnknown, models.UnknownSigla, models.UnknownSigla, math.Inf(1)
	}
	zone := &idx.zones[best]
	return zone.Kind, zone.ID, zone.Sigla, bestDist
}

func (z *Zone) distance(p r2.Point) float64 {
	min := math.Inf(1)
	for _, r := range z.rings {
		for i := range r {
			j := (i + 1) % len(r)
			if d := distanceToSegment(p, r[i], r[j]); d < min {
				min = d
			}
		}
	}
	return min
}

// pointInRing is a standard ray-casting test in the plane.
func pointInRing(p r2.Point, r ring) bool {
	inside := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := r[i], r[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

func distanceToSegment(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	ap := p.Sub(a)
	abLen2 := ab.X*ab.X + ab.Y*ab.Y
	if abLen2 == 0 {
		return ap.Norm()
	}
	t := (ap.X*ab.X + ap.Y*ab.Y) / abLen2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := r2.Point{X: a.X + t*ab.X, Y: a.Y + t*ab.Y}
	return p.Sub(closest).Norm()
}
