package model

type Route struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	BusID     int64  `gorm:"column:bus_id;not null;index" json:"bus_id"`
	RouteName string `gorm:"column:route_name;type:varchar(100);not null" json:"route_name"`
}

func (Route) TableName() string {
	return "bus_routes"
}

// RoutePoint is a stop on a route. Order defines the drawing sequence,
// ties fall back to insertion (id) order.
type RoutePoint struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	RouteID      int64   `gorm:"column:route_id;not null;index" json:"route_id"`
	LocationName string  `gorm:"column:location_name;type:varchar(100);not null" json:"location_name"`
	Latitude     *string `gorm:"type:numeric(10,8)" json:"latitude"`
	Longitude    *string `gorm:"type:numeric(11,8)" json:"longitude"`
	Order        int     `gorm:"column:order;not null;default:0" json:"order"`
}

func (RoutePoint) TableName() string {
	return "bus_route_points"
}
