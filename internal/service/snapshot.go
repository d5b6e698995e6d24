package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"bus-tracker/internal/model"
)

const (
	FeatureKindBus     = "bus"
	FeatureKindRoute   = "route"
	FeatureKindStop    = "stop"
	FeatureKindStudent = "student"

	ErrorCodeBusNotFound         = "bus_not_found"
	ErrorCodeSnapshotUnavailable = "snapshot_unavailable"

	typeFeatureCollection = "FeatureCollection"
	typeFeature           = "Feature"
	geometryPoint         = "Point"
	geometryLineString    = "LineString"
)

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

func (f Feature) Kind() string {
	kind, _ := f.Properties["kind"].(string)
	return kind
}

type BusSummary struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Number string `json:"number"`
	Status string `json:"status"`
	BusID  string `json:"bus_id"`
}

type TripSummary struct {
	ID        int64   `json:"id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	RouteName *string `json:"route_name"`
}

type Counts struct {
	RoutePoints int `json:"route_points"`
	Students    int `json:"students"`
}

type Meta struct {
	Bus    BusSummary   `json:"bus"`
	Trip   *TripSummary `json:"trip"`
	Counts Counts       `json:"counts"`
}

// Snapshot is a GeoJSON FeatureCollection describing one bus at the moment
// it was built. Treat it as read-only once returned.
type Snapshot struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Meta     *Meta     `json:"meta,omitempty"`
	Error    string    `json:"error,omitempty"`

	builtAt time.Time

	encodeOnce sync.Once
	encoded    []byte
	encodeErr  error
}

// BuiltAt is the wall-clock time the snapshot was composed.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Encode returns the JSON document. The bytes are computed once and shared,
// callers must not modify them.
func (s *Snapshot) Encode() ([]byte, error) {
	s.encodeOnce.Do(func() {
		s.encoded, s.encodeErr = json.Marshal(s)
	})
	return s.encoded, s.encodeErr
}

// ErrorDocument is an empty collection carrying an error code, sent in place
// of a snapshot.
func ErrorDocument(code string) *Snapshot {
	return &Snapshot{
		Type:     typeFeatureCollection,
		Features: []Feature{},
		Error:    code,
		builtAt:  time.Now(),
	}
}

func NotFoundDocument() *Snapshot {
	return ErrorDocument(ErrorCodeBusNotFound)
}

type PositionReader interface {
	GetLatestByBusID(ctx context.Context, busID int64) (*model.PositionSample, error)
}

type Resolver interface {
	Resolve(ctx context.Context, busID int64, at time.Time) (*Resolution, error)
}

type SnapshotBuilder struct {
	busRepo      BusGetter
	positionRepo PositionReader
	resolver     Resolver
	now          func() time.Time
}

func NewSnapshotBuilder(busRepo BusGetter, positionRepo PositionReader, resolver Resolver) *SnapshotBuilder {
	return &SnapshotBuilder{
		busRepo:      busRepo,
		positionRepo: positionRepo,
		resolver:     resolver,
		now:          time.Now,
	}
}

// Build composes the live document for a bus. ErrBusNotFound is returned for
// an unknown bus; missing position, route or roster only leave parts out.
func (b *SnapshotBuilder) Build(ctx context.Context, busID int64) (*Snapshot, error) {
	bus, err := b.busRepo.GetByID(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("load bus %d: %w", busID, err)
	}
	if bus == nil {
		return nil, ErrBusNotFound
	}

	latest, err := b.positionRepo.GetLatestByBusID(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("load latest position: %w", err)
	}

	now := b.now()
	res, err := b.resolver.Resolve(ctx, busID, now)
	if err != nil {
		return nil, fmt.Errorf("resolve trip: %w", err)
	}

	features := make([]Feature, 0, 2+len(res.Stops)+len(res.Roster))

	if latest != nil {
		if coords, ok := parsePoint(&latest.Latitude, &latest.Longitude); ok {
			features = append(features, pointFeature(coords, map[string]any{
				"kind":      FeatureKindBus,
				"bus_id":    bus.ID,
				"title":     bus.Title,
				"number":    bus.Number,
				"timestamp": isoTimestamp(latest.Timestamp),
			}))
		}
	}

	features = append(features, routeFeatures(res.Route, res.Stops)...)

	for i := range res.Roster {
		s := &res.Roster[i]
		coords, ok := parsePoint(s.Latitude, s.Longitude)
		if !ok {
			continue
		}
		features = append(features, pointFeature(coords, map[string]any{
			"kind":              FeatureKindStudent,
			"id":                s.ID,
			"name":              s.FullName(),
			"registration_code": s.RegistrationCode,
		}))
	}

	return &Snapshot{
		Type:     typeFeatureCollection,
		Features: features,
		Meta: &Meta{
			Bus: BusSummary{
				ID:     bus.ID,
				Title:  bus.Title,
				Number: bus.Number,
				Status: bus.Status,
				BusID:  bus.BusID,
			},
			Trip: tripSummary(res.Trip, res.Route),
			Counts: Counts{
				RoutePoints: len(res.Stops),
				Students:    len(res.Roster),
			},
		},
		builtAt: now,
	}, nil
}

// IsBusNotFound reports whether err means the bus does not exist.
func IsBusNotFound(err error) bool {
	return errors.Is(err, ErrBusNotFound)
}

func routeFeatures(route *model.Route, stops []model.RoutePoint) []Feature {
	if len(stops) == 0 {
		return nil
	}

	line := make([][2]float64, 0, len(stops))
	points := make([]Feature, 0, len(stops))
	for i := range stops {
		p := &stops[i]
		coords, ok := parsePoint(p.Latitude, p.Longitude)
		if !ok {
			continue
		}
		line = append(line, coords)
		points = append(points, pointFeature(coords, map[string]any{
			"kind":          FeatureKindStop,
			"order":         p.Order,
			"location_name": p.LocationName,
		}))
	}
	if len(line) == 0 {
		return nil
	}

	var routeName *string
	if route != nil {
		name := route.RouteName
		routeName = &name
	}

	out := make([]Feature, 0, len(points)+1)
	out = append(out, Feature{
		Type: typeFeature,
		Geometry: Geometry{
			Type:        geometryLineString,
			Coordinates: line,
		},
		Properties: map[string]any{
			"kind":       FeatureKindRoute,
			"route_name": routeName,
		},
	})
	return append(out, points...)
}

func tripSummary(trip *model.Trip, route *model.Route) *TripSummary {
	if trip == nil {
		return nil
	}
	summary := &TripSummary{
		ID:        trip.ID,
		Date:      time.Time(trip.Date).Format(time.DateOnly),
		StartTime: trip.StartTime.String(),
		EndTime:   trip.EndTime.String(),
	}
	if route != nil {
		name := route.RouteName
		summary.RouteName = &name
	}
	return summary
}

// isoTimestamp renders t with a numeric UTC offset and microseconds only
// when present, e.g. 2024-09-02T08:15:00+00:00.
func isoTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format("2006-01-02T15:04:05-07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000-07:00")
}

func pointFeature(coords [2]float64, props map[string]any) Feature {
	return Feature{
		Type: typeFeature,
		Geometry: Geometry{
			Type:        geometryPoint,
			Coordinates: coords,
		},
		Properties: props,
	}
}
