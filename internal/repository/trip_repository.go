package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bus-tracker/internal/model"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

// FindActive returns a trip of the bus scheduled on date whose
// [start_time, end_time] window contains clock. Overlapping schedules are
// not expected; the earliest start wins if they exist.
func (r *TripRepository) FindActive(ctx context.Context, busID int64, date time.Time, clock datatypes.Time) (*model.Trip, error) {
	var trip model.Trip
	err := r.db.WithContext(ctx).
		Preload("Route").
		Where("bus_id = ? AND date = ? AND start_time <= ? AND end_time >= ?",
			busID, date.Format(time.DateOnly), clock.String(), clock.String()).
		Order("start_time ASC").
		Order("id ASC").
		First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trip, nil
}

// FindLatestAtOrBefore returns the trip with the greatest (date, start_time)
// that is not later than date/clock.
func (r *TripRepository) FindLatestAtOrBefore(ctx context.Context, busID int64, date time.Time, clock datatypes.Time) (*model.Trip, error) {
	day := date.Format(time.DateOnly)
	var trip model.Trip
	err := r.db.WithContext(ctx).
		Preload("Route").
		Where("bus_id = ?", busID).
		Where("date < ? OR (date = ? AND start_time <= ?)", day, day, clock.String()).
		Order("date DESC").
		Order("start_time DESC").
		Order("id DESC").
		First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trip, nil
}
