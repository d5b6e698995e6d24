package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bus-tracker/internal/model"
)

type BusRepository struct {
	db *gorm.DB
}

func NewBusRepository(db *gorm.DB) *BusRepository {
	return &BusRepository{db: db}
}

func (r *BusRepository) GetByID(ctx context.Context, id int64) (*model.Bus, error) {
	var bus model.Bus
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&bus).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bus, nil
}

// GetByCode looks a bus up by its external bus_id code.
func (r *BusRepository) GetByCode(ctx context.Context, code string) (*model.Bus, error) {
	if code == "" {
		return nil, nil
	}
	var bus model.Bus
	err := r.db.WithContext(ctx).
		Where("UPPER(REPLACE(REPLACE(bus_id, ' ', ''), '-', '')) = ?", code).
		First(&bus).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bus, nil
}
