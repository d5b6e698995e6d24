package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"bus-tracker/internal/model"
	"bus-tracker/internal/utils"
)

// memStore backs the repository fakes below with plain slices.
type memStore struct {
	mu sync.Mutex

	buses        map[int64]model.Bus
	positions    []model.PositionSample
	routes       []model.Route
	points       []model.RoutePoint
	trips        []model.Trip
	tripStudents []model.TripStudent
	assignments  []model.BusAssignment
	students     map[int64]model.Student

	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		buses:    make(map[int64]model.Bus),
		students: make(map[int64]model.Student),
	}
}

func (m *memStore) addBus(b model.Bus) {
	m.buses[b.ID] = b
}

func (m *memStore) addPosition(busID int64, lat, lon string, ts time.Time) {
	m.positions = append(m.positions, model.PositionSample{
		ID:        int64(len(m.positions) + 1),
		BusID:     busID,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: ts,
	})
}

func (m *memStore) addRoute(r model.Route, points ...model.RoutePoint) {
	m.routes = append(m.routes, r)
	for _, p := range points {
		p.RouteID = r.ID
		p.ID = int64(len(m.points) + 1)
		m.points = append(m.points, p)
	}
}

func (m *memStore) addTrip(t model.Trip, studentIDs ...int64) {
	m.trips = append(m.trips, t)
	for _, id := range studentIDs {
		m.tripStudents = append(m.tripStudents, model.TripStudent{TripID: t.ID, StudentID: id})
	}
}

func (m *memStore) addStudent(s model.Student, busIDs ...int64) {
	m.students[s.ID] = s
	for _, busID := range busIDs {
		m.assignments = append(m.assignments, model.BusAssignment{BusID: busID, StudentID: s.ID})
	}
}

func (m *memStore) routeByID(id int64) *model.Route {
	for i := range m.routes {
		if m.routes[i].ID == id {
			r := m.routes[i]
			return &r
		}
	}
	return nil
}

type fakeBusRepo struct{ *memStore }

func (f fakeBusRepo) GetByID(_ context.Context, id int64) (*model.Bus, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	b, ok := f.buses[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f fakeBusRepo) GetByCode(_ context.Context, code string) (*model.Bus, error) {
	for _, b := range f.buses {
		if utils.NormalizeBusCode(b.BusID) == code {
			bus := b
			return &bus, nil
		}
	}
	return nil, nil
}

type fakePositionRepo struct{ *memStore }

func (f fakePositionRepo) Create(_ context.Context, sample *model.PositionSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sample.ID = int64(len(f.positions) + 1)
	f.positions = append(f.positions, *sample)
	return nil
}

func (f fakePositionRepo) GetLatestByBusID(_ context.Context, busID int64) (*model.PositionSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.PositionSample
	for i := range f.positions {
		p := f.positions[i]
		if p.BusID != busID {
			continue
		}
		if latest == nil || !p.Timestamp.Before(latest.Timestamp) {
			latest = &p
		}
	}
	return latest, nil
}

type fakeRouteRepo struct{ *memStore }

func (f fakeRouteRepo) GetByID(_ context.Context, id int64) (*model.Route, error) {
	return f.routeByID(id), nil
}

func (f fakeRouteRepo) GetLatestByBusID(_ context.Context, busID int64) (*model.Route, error) {
	var latest *model.Route
	for i := range f.routes {
		r := f.routes[i]
		if r.BusID == busID && (latest == nil || r.ID > latest.ID) {
			latest = &r
		}
	}
	return latest, nil
}

// ListPoints deliberately returns insertion order; ordering is the
// resolver's job too.
func (f fakeRouteRepo) ListPoints(_ context.Context, routeID int64) ([]model.RoutePoint, error) {
	var out []model.RoutePoint
	for _, p := range f.points {
		if p.RouteID == routeID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeTripRepo struct{ *memStore }

func (f fakeTripRepo) FindActive(_ context.Context, busID int64, date time.Time, clock datatypes.Time) (*model.Trip, error) {
	day := date.Format(time.DateOnly)
	var candidates []model.Trip
	for _, t := range f.trips {
		if t.BusID != busID || time.Time(t.Date).Format(time.DateOnly) != day {
			continue
		}
		if t.StartTime <= clock && t.EndTime >= clock {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].StartTime != candidates[j].StartTime {
			return candidates[i].StartTime < candidates[j].StartTime
		}
		return candidates[i].ID < candidates[j].ID
	})
	return f.withRoute(candidates[0]), nil
}

func (f fakeTripRepo) FindLatestAtOrBefore(_ context.Context, busID int64, date time.Time, clock datatypes.Time) (*model.Trip, error) {
	day := date.Format(time.DateOnly)
	var best *model.Trip
	for i := range f.trips {
		t := f.trips[i]
		if t.BusID != busID {
			continue
		}
		tripDay := time.Time(t.Date).Format(time.DateOnly)
		if tripDay > day || (tripDay == day && t.StartTime > clock) {
			continue
		}
		if best == nil || later(t, *best) {
			best = &t
		}
	}
	if best == nil {
		return nil, nil
	}
	return f.withRoute(*best), nil
}

func (f fakeTripRepo) withRoute(t model.Trip) *model.Trip {
	t.Route = f.routeByID(t.RouteID)
	return &t
}

func later(a, b model.Trip) bool {
	ad, bd := time.Time(a.Date).Format(time.DateOnly), time.Time(b.Date).Format(time.DateOnly)
	if ad != bd {
		return ad > bd
	}
	if a.StartTime != b.StartTime {
		return a.StartTime > b.StartTime
	}
	return a.ID > b.ID
}

type fakeStudentRepo struct{ *memStore }

// ListByTrip keeps join duplicates so de-duplication is exercised.
func (f fakeStudentRepo) ListByTrip(_ context.Context, tripID int64) ([]model.Student, error) {
	var out []model.Student
	for _, ts := range f.tripStudents {
		if ts.TripID == tripID {
			out = append(out, f.students[ts.StudentID])
		}
	}
	return out, nil
}

func (f fakeStudentRepo) ListAssignedToBus(_ context.Context, busID int64) ([]model.Student, error) {
	var out []model.Student
	for _, a := range f.assignments {
		if a.BusID == busID {
			out = append(out, f.students[a.StudentID])
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []int64
}

func (n *recordingNotifier) Notify(_ context.Context, busID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, busID)
}

func (n *recordingNotifier) Calls() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int64(nil), n.calls...)
}

func strPtr(s string) *string {
	return &s
}

func day(year int, month time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(year, month, d, 0, 0, 0, 0, time.UTC))
}

func clock(h, m int) datatypes.Time {
	return datatypes.NewTime(h, m, 0, 0)
}

func newTestResolver(store *memStore) *TripResolver {
	return NewTripResolver(fakeTripRepo{store}, fakeRouteRepo{store}, fakeStudentRepo{store}, time.UTC)
}

func newTestBuilder(store *memStore, now time.Time) *SnapshotBuilder {
	b := NewSnapshotBuilder(fakeBusRepo{store}, fakePositionRepo{store}, newTestResolver(store))
	b.now = func() time.Time { return now }
	return b
}
