package repository

import (
	"context"

	"gorm.io/gorm"

	"bus-tracker/internal/model"
)

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByTrip returns the roster of a trip.
func (r *StudentRepository) ListByTrip(ctx context.Context, tripID int64) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Distinct("students.*").
		Joins("JOIN trip_students ON trip_students.student_id = students.id").
		Where("trip_students.trip_id = ?", tripID).
		Order("students.id ASC").
		Find(&students).Error
	return students, err
}

// ListAssignedToBus returns every student statically assigned to the bus.
func (r *StudentRepository) ListAssignedToBus(ctx context.Context, busID int64) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Distinct("students.*").
		Joins("JOIN bus_assignments ON bus_assignments.student_id = students.id").
		Where("bus_assignments.bus_id = ?", busID).
		Order("students.id ASC").
		Find(&students).Error
	return students, err
}
