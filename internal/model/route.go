package model

// RouteStop is one stop on a route. ArrivalTimes holds wall-clock
// "HH:MM:SS" strings; ShiftIDs is aligned to it by index, so the arrival
// time for a given shift is ArrivalTimes[i] where ShiftIDs[i] matches.
type RouteStop struct {
	StopID       string   `json:"stop_id"`
	Order        string   `json:"order"`
	ArrivalTimes []string `json:"arrival_times"`
	ShiftIDs     []string `json:"shift_ids"`
}

// Route is operator-managed route data. This service only reads it; the
// fleet side maintains it.
type Route struct {
	RouteID   string      `gorm:"primaryKey;size:64" json:"route_id"`
	RouteName string      `gorm:"size:128;not null" json:"route_name"`
	Stops     []RouteStop `gorm:"serializer:json" json:"stops"`
	Fare      string      `gorm:"size:32" json:"fare"`
	Schedule  string      `gorm:"size:128" json:"schedule"`
	Start     string      `gorm:"size:128" json:"start"`
	End       string      `gorm:"size:128" json:"end"`
}
