package model

const BusStatusActive = "active"

type Bus struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	BusID    string `gorm:"column:bus_id;type:varchar(20);uniqueIndex;not null" json:"bus_id"`
	Title    string `gorm:"type:varchar(100);not null" json:"title"`
	Number   string `gorm:"type:varchar(20);not null" json:"number"`
	Capacity int    `gorm:"not null" json:"capacity"`
	Status   string `gorm:"type:varchar(20);not null;default:active" json:"status"`
}

func (Bus) TableName() string {
	return "buses"
}
