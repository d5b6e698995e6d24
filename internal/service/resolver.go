package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gorm.io/datatypes"

	"bus-tracker/internal/model"
)

type TripFinder interface {
	FindActive(ctx context.Context, busID int64, date time.Time, clock datatypes.Time) (*model.Trip, error)
	FindLatestAtOrBefore(ctx context.Context, busID int64, date time.Time, clock datatypes.Time) (*model.Trip, error)
}

type RouteReader interface {
	GetByID(ctx context.Context, id int64) (*model.Route, error)
	GetLatestByBusID(ctx context.Context, busID int64) (*model.Route, error)
	ListPoints(ctx context.Context, routeID int64) ([]model.RoutePoint, error)
}

type RosterReader interface {
	ListByTrip(ctx context.Context, tripID int64) ([]model.Student, error)
	ListAssignedToBus(ctx context.Context, busID int64) ([]model.Student, error)
}

// Resolution is what a bus is doing at a point in time: its trip (if any),
// the route it follows, the ordered stops and the students that matter.
type Resolution struct {
	Trip   *model.Trip
	Route  *model.Route
	Stops  []model.RoutePoint
	Roster []model.Student
}

type TripResolver struct {
	tripRepo    TripFinder
	routeRepo   RouteReader
	studentRepo RosterReader
	loc         *time.Location
}

func NewTripResolver(tripRepo TripFinder, routeRepo RouteReader, studentRepo RosterReader, loc *time.Location) *TripResolver {
	if loc == nil {
		loc = time.Local
	}
	return &TripResolver{
		tripRepo:    tripRepo,
		routeRepo:   routeRepo,
		studentRepo: studentRepo,
		loc:         loc,
	}
}

// Resolve never fails for an unknown bus; it simply finds nothing. Errors
// come from storage only.
func (r *TripResolver) Resolve(ctx context.Context, busID int64, at time.Time) (*Resolution, error) {
	local := at.In(r.loc)
	clock := datatypes.NewTime(local.Hour(), local.Minute(), local.Second(), 0)

	trip, err := r.tripRepo.FindActive(ctx, busID, local, clock)
	if err != nil {
		return nil, fmt.Errorf("find active trip: %w", err)
	}
	if trip == nil {
		trip, err = r.tripRepo.FindLatestAtOrBefore(ctx, busID, local, clock)
		if err != nil {
			return nil, fmt.Errorf("find latest trip: %w", err)
		}
	}

	route, err := r.routeFor(ctx, busID, trip)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Trip: trip, Route: route}

	if route != nil {
		stops, err := r.routeRepo.ListPoints(ctx, route.ID)
		if err != nil {
			return nil, fmt.Errorf("list route points: %w", err)
		}
		slices.SortStableFunc(stops, func(a, b model.RoutePoint) int {
			return a.Order - b.Order
		})
		res.Stops = stops
	}

	var roster []model.Student
	if trip != nil {
		roster, err = r.studentRepo.ListByTrip(ctx, trip.ID)
	} else {
		roster, err = r.studentRepo.ListAssignedToBus(ctx, busID)
	}
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	res.Roster = uniqueStudents(roster)

	return res, nil
}

func (r *TripResolver) routeFor(ctx context.Context, busID int64, trip *model.Trip) (*model.Route, error) {
	if trip != nil {
		if trip.Route != nil {
			return trip.Route, nil
		}
		route, err := r.routeRepo.GetByID(ctx, trip.RouteID)
		if err != nil {
			return nil, fmt.Errorf("load trip route: %w", err)
		}
		return route, nil
	}

	route, err := r.routeRepo.GetLatestByBusID(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("load latest route: %w", err)
	}
	return route, nil
}

func uniqueStudents(students []model.Student) []model.Student {
	seen := make(map[int64]struct{}, len(students))
	out := make([]model.Student, 0, len(students))
	for _, s := range students {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
