package model

import (
	"gorm.io/datatypes"
)

// Trip is one scheduled run of a bus along a route on a service date.
type Trip struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	BusID     int64          `gorm:"column:bus_id;not null;index" json:"bus_id"`
	RouteID   int64          `gorm:"column:route_id;not null;index" json:"route_id"`
	Route     *Route         `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	Date      datatypes.Date `gorm:"not null;index" json:"date"`
	StartTime datatypes.Time `gorm:"column:start_time;not null" json:"start_time"`
	EndTime   datatypes.Time `gorm:"column:end_time;not null" json:"end_time"`
}

func (Trip) TableName() string {
	return "trips"
}

type TripStudent struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	TripID    int64 `gorm:"column:trip_id;not null;index" json:"trip_id"`
	StudentID int64 `gorm:"column:student_id;not null;index" json:"student_id"`
}

func (TripStudent) TableName() string {
	return "trip_students"
}
