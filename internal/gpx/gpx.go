// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gpx serializes GeoJSON feature collections as GPX 1.1 documents.
//
// Points become waypoints; line strings, multi line strings, and polygon
// rings become track segments. Per-coordinate times come from a caller
// supplied CoordTimesFunc and are embedded verbatim.
package gpx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
)

const (
	namespace      = "http://www.topografix.com/GPX/1/1"
	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "http://www.topografix.com/GPX/1/1 http://www.topografix.com/GPX/1/1/gpx.xsd"
	version        = "1.1"

	// DefaultCreator is written when Options.Creator is empty.
	DefaultCreator = "breeze-gpx"
)

var (
	// ErrTimeCount is returned when a feature's time series does not line
	// up with its coordinates.
	ErrTimeCount = errors.New("time count does not match coordinate count")

	// ErrCoordinate is returned for positions with fewer than two values.
	ErrCoordinate = errors.New("invalid coordinate")
)

// CoordTimesFunc returns one timestamp string per coordinate of f, in
// coordinate order. A nil slice with a nil error means f has no times.
type CoordTimesFunc func(f *geojson.Feature) ([]string, error)

// Options controls serialization.
type Options struct {
	// Creator is the GPX creator attribute.
	Creator string

	// Name, when set, is written to the metadata name element.
	Name string

	// CoordTimes supplies per-coordinate times. Nil omits time elements.
	CoordTimes CoordTimesFunc
}

type document struct {
	XMLName        xml.Name  `xml:"gpx"`
	Xmlns          string    `xml:"xmlns,attr"`
	XmlnsXsi       string    `xml:"xmlns:xsi,attr"`
	SchemaLocation string    `xml:"xsi:schemaLocation,attr"`
	Version        string    `xml:"version,attr"`
	Creator        string    `xml:"creator,attr"`
	Metadata       *metadata `xml:"metadata,omitempty"`
	Waypoints      []point   `xml:"wpt"`
	Tracks         []track   `xml:"trk"`
}

type metadata struct {
	Name string `xml:"name,omitempty"`
}

type point struct {
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Ele  string `xml:"ele,omitempty"`
	Time string `xml:"time,omitempty"`
	Name string `xml:"name,omitempty"`
	Desc string `xml:"desc,omitempty"`
	Type string `xml:"type,omitempty"`
}

type track struct {
	Name     string    `xml:"name,omitempty"`
	Desc     string    `xml:"desc,omitempty"`
	Type     string    `xml:"type,omitempty"`
	Segments []segment `xml:"trkseg"`
}

type segment struct {
	Points []point `xml:"trkpt"`
}

// Serialize renders fc as an indented GPX 1.1 document. Features without a
// geometry, and geometry collections, are skipped.
func Serialize(fc *geojson.FeatureCollection, opts Options) ([]byte, error) {
	doc := document{
		Xmlns:          namespace,
		XmlnsXsi:       xsiNamespace,
		SchemaLocation: schemaLocation,
		Version:        version,
		Creator:        opts.Creator,
	}
	if doc.Creator == "" {
		doc.Creator = DefaultCreator
	}
	if opts.Name != "" {
		doc.Metadata = &metadata{Name: opts.Name}
	}

	if fc != nil {
		for i, f := range fc.Features {
			if err := addFeature(&doc, f, opts.CoordTimes); err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding GPX: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func addFeature(doc *document, f *geojson.Feature, coordTimes CoordTimesFunc) error {
	if f == nil || f.Geometry == nil {
		return nil
	}

	g := f.Geometry
	var (
		waypoints [][]float64
		segments  [][][]float64
	)
	switch g.Type {
	case geojson.GeometryPoint:
		waypoints = [][]float64{g.Point}
	case geojson.GeometryMultiPoint:
		waypoints = g.MultiPoint
	case geojson.GeometryLineString:
		segments = [][][]float64{g.LineString}
	case geojson.GeometryMultiLineString:
		segments = g.MultiLineString
	case geojson.GeometryPolygon:
		segments = g.Polygon
	case geojson.GeometryMultiPolygon:
		for _, poly := range g.MultiPolygon {
			segments = append(segments, poly...)
		}
	default:
		return nil
	}

	var times []string
	if coordTimes != nil {
		var err error
		if times, err = coordTimes(f); err != nil {
			return err
		}
	}
	if times != nil {
		n := len(waypoints)
		for _, seg := range segments {
			n += len(seg)
		}
		if len(times) != n {
			return fmt.Errorf("%w: %d times for %d coordinates", ErrTimeCount, len(times), n)
		}
	}

	name := stringProp(f, "name", "title")
	desc := stringProp(f, "description", "desc")
	kind := stringProp(f, "activityType", "type")

	next := 0
	take := func(pos []float64) (point, error) {
		p, err := newPoint(pos)
		if err != nil {
			return p, err
		}
		if times != nil {
			p.Time = times[next]
		}
		next++
		return p, nil
	}

	for _, pos := range waypoints {
		p, err := take(pos)
		if err != nil {
			return err
		}
		p.Name, p.Desc, p.Type = name, desc, kind
		doc.Waypoints = append(doc.Waypoints, p)
	}

	if len(segments) == 0 {
		return nil
	}
	trk := track{Name: name, Desc: desc, Type: kind}
	for _, seg := range segments {
		var s segment
		for _, pos := range seg {
			p, err := take(pos)
			if err != nil {
				return err
			}
			s.Points = append(s.Points, p)
		}
		trk.Segments = append(trk.Segments, s)
	}
	doc.Tracks = append(doc.Tracks, trk)
	return nil
}

// newPoint maps a GeoJSON position [lon, lat, ele?] to a GPX point.
func newPoint(pos []float64) (point, error) {
	if len(pos) < 2 {
		return point{}, fmt.Errorf("%w: %v", ErrCoordinate, pos)
	}
	p := point{
		Lat: formatFloat(pos[1]),
		Lon: formatFloat(pos[0]),
	}
	if len(pos) > 2 {
		p.Ele = formatFloat(pos[2])
	}
	return p, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// stringProp returns the first non-empty string property among keys.
func stringProp(f *geojson.Feature, keys ...string) string {
	for _, k := range keys {
		if s, ok := f.Properties[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
