package http

import (
	"context"
	"sync"
	"time"

	"bus-tracker/internal/model"
	"bus-tracker/internal/service"
)

// world is a tiny in-memory fleet backing the real services.
type world struct {
	mu         sync.Mutex
	buses      map[int64]model.Bus
	positions  []model.PositionSample
	resolution map[int64]*service.Resolution
}

func newWorld() *world {
	return &world{
		buses:      map[int64]model.Bus{},
		resolution: map[int64]*service.Resolution{},
	}
}

func (w *world) GetByID(_ context.Context, id int64) (*model.Bus, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.buses[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (w *world) GetByCode(_ context.Context, code string) (*model.Bus, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.buses {
		if b.BusID == code {
			return &b, nil
		}
	}
	return nil, nil
}

func (w *world) Create(_ context.Context, sample *model.PositionSample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	sample.ID = int64(len(w.positions) + 1)
	w.positions = append(w.positions, *sample)
	return nil
}

func (w *world) GetLatestByBusID(_ context.Context, busID int64) (*model.PositionSample, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := len(w.positions) - 1; i >= 0; i-- {
		if w.positions[i].BusID == busID {
			p := w.positions[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (w *world) Resolve(_ context.Context, busID int64, _ time.Time) (*service.Resolution, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if res, ok := w.resolution[busID]; ok {
		return res, nil
	}
	return &service.Resolution{}, nil
}

func strPtr(s string) *string { return &s }

// seedScenario stores bus 7 at (20, 10) on a two-stop route with no roster.
func seedScenario(w *world) {
	w.buses[7] = model.Bus{ID: 7, BusID: "AB12", Title: "Morning", Number: "12", Status: model.BusStatusActive}
	w.positions = append(w.positions, model.PositionSample{
		ID: 1, BusID: 7, Latitude: "20", Longitude: "10",
		Timestamp: time.Date(2026, 10, 1, 7, 30, 0, 0, time.UTC),
	})
	w.resolution[7] = &service.Resolution{
		Route: &model.Route{ID: 3, BusID: 7, RouteName: "North"},
		Stops: []model.RoutePoint{
			{ID: 1, RouteID: 3, LocationName: "A", Latitude: strPtr("1"), Longitude: strPtr("2"), Order: 1},
			{ID: 2, RouteID: 3, LocationName: "B", Latitude: strPtr("3"), Longitude: strPtr("4"), Order: 2},
		},
	}
}
