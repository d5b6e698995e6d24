package model

import (
	"time"

	"gorm.io/gorm"
)

// PositionSample is one GPS fix of a bus. Rows are only ever inserted.
type PositionSample struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	BusID     int64     `gorm:"column:bus_id;not null;index:idx_gps_tracking_bus_ts,priority:1" json:"bus_id"`
	Latitude  string    `gorm:"type:numeric(10,8);not null" json:"latitude"`
	Longitude string    `gorm:"type:numeric(11,8);not null" json:"longitude"`
	Timestamp time.Time `gorm:"not null;index:idx_gps_tracking_bus_ts,priority:2" json:"timestamp"`
}

func (PositionSample) TableName() string {
	return "gps_tracking"
}

func (p *PositionSample) BeforeCreate(tx *gorm.DB) error {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	return nil
}
