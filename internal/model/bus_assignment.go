package model

import "time"

// BusAssignment is the static link between a student and the bus that
// normally carries them.
type BusAssignment struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	BusID        int64     `gorm:"column:bus_id;not null;index" json:"bus_id"`
	StudentID    int64     `gorm:"column:student_id;not null;index" json:"student_id"`
	AssignedDate time.Time `gorm:"column:assigned_date;type:date;not null" json:"assigned_date"`
}

func (BusAssignment) TableName() string {
	return "bus_assignments"
}
