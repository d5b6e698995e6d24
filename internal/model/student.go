package model

import (
	"strings"
)

type Student struct {
	ID               int64   `gorm:"primaryKey" json:"id"`
	FirstName        string  `gorm:"column:fname;type:varchar(30);not null;default:''" json:"fname"`
	LastName         string  `gorm:"column:lname;type:varchar(30);not null;default:''" json:"lname"`
	RegistrationCode string  `gorm:"column:registration_code;type:varchar(50);not null;default:''" json:"registration_code"`
	Latitude         *string `gorm:"type:numeric(10,8)" json:"latitude"`
	Longitude        *string `gorm:"type:numeric(11,8)" json:"longitude"`
}

func (Student) TableName() string {
	return "students"
}

func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
