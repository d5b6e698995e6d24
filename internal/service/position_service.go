package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"bus-tracker/internal/model"
	"bus-tracker/internal/utils"
)

type BusGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Bus, error)
}

type BusReader interface {
	BusGetter
	GetByCode(ctx context.Context, code string) (*model.Bus, error)
}

type PositionStore interface {
	Create(ctx context.Context, sample *model.PositionSample) error
	GetLatestByBusID(ctx context.Context, busID int64) (*model.PositionSample, error)
}

// Notifier is told about every bus whose position changed. Implementations
// must tolerate duplicates.
type Notifier interface {
	Notify(ctx context.Context, busID int64)
}

type PositionService struct {
	busRepo      BusReader
	positionRepo PositionStore
	notifier     Notifier
	now          func() time.Time
}

func NewPositionService(busRepo BusReader, positionRepo PositionStore, notifier Notifier) *PositionService {
	return &PositionService{
		busRepo:      busRepo,
		positionRepo: positionRepo,
		notifier:     notifier,
		now:          time.Now,
	}
}

// SetNotifier swaps the notifier once the dispatcher side is wired.
func (s *PositionService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *PositionService) Record(ctx context.Context, busID int64, lat, lon float64) (*model.PositionSample, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	bus, err := s.busRepo.GetByID(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("load bus %d: %w", busID, err)
	}
	if bus == nil {
		return nil, ErrBusNotFound
	}

	return s.record(ctx, bus, lat, lon)
}

// RecordByCode stores a fix reported by a device that knows the bus only by
// its external code.
func (s *PositionService) RecordByCode(ctx context.Context, code string, lat, lon float64) (*model.PositionSample, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	normalized := utils.NormalizeBusCode(code)
	if normalized == "" {
		return nil, ErrInvalidInput
	}

	bus, err := s.busRepo.GetByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("load bus %q: %w", normalized, err)
	}
	if bus == nil {
		return nil, ErrBusNotFound
	}

	return s.record(ctx, bus, lat, lon)
}

func (s *PositionService) Latest(ctx context.Context, busID int64) (*model.PositionSample, error) {
	return s.positionRepo.GetLatestByBusID(ctx, busID)
}

func (s *PositionService) record(ctx context.Context, bus *model.Bus, lat, lon float64) (*model.PositionSample, error) {
	sample := &model.PositionSample{
		BusID:     bus.ID,
		Latitude:  strconv.FormatFloat(lat, 'f', 8, 64),
		Longitude: strconv.FormatFloat(lon, 'f', 8, 64),
		Timestamp: s.now().UTC(),
	}
	if err := s.positionRepo.Create(ctx, sample); err != nil {
		return nil, fmt.Errorf("store position: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, bus.ID)
	}
	return sample, nil
}

func validateCoordinates(lat, lon float64) error {
	if !isFinite(lat) || !isFinite(lon) {
		return ErrInvalidInput
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidInput
	}
	return nil
}
