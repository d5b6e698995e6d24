package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bus-tracker/internal/model"
)

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Create(ctx context.Context, sample *model.PositionSample) error {
	return r.db.WithContext(ctx).Create(sample).Error
}

func (r *PositionRepository) GetLatestByBusID(ctx context.Context, busID int64) (*model.PositionSample, error) {
	var sample model.PositionSample
	err := r.db.WithContext(ctx).
		Where("bus_id = ?", busID).
		Order("timestamp DESC").
		Order("id DESC").
		First(&sample).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sample, nil
}
