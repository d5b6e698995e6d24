package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bus-tracker/internal/model"
)

type RouteRepository struct {
	db *gorm.DB
}

func NewRouteRepository(db *gorm.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

func (r *RouteRepository) GetByID(ctx context.Context, id int64) (*model.Route, error) {
	var route model.Route
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&route).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &route, nil
}

// GetLatestByBusID returns the most recently created route of a bus.
func (r *RouteRepository) GetLatestByBusID(ctx context.Context, busID int64) (*model.Route, error) {
	var route model.Route
	err := r.db.WithContext(ctx).
		Where("bus_id = ?", busID).
		Order("id DESC").
		First(&route).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &route, nil
}

func (r *RouteRepository) ListPoints(ctx context.Context, routeID int64) ([]model.RoutePoint, error) {
	var points []model.RoutePoint
	err := r.db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Order("id ASC").
		Find(&points).Error
	return points, err
}
