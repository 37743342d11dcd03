package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "Reserved"
	ReservationCompleted ReservationStatus = "Completed"
	ReservationCancelled ReservationStatus = "Cancelled"
)

// PaymentStatus tracks the payment axis independently of the lifecycle.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)

// Reservation is a booked seat on a route for a future departure.
// Rows are never deleted; cancelled and completed reservations stay
// as trip history.
type Reservation struct {
	ReservationID     string            `gorm:"primaryKey;size:64" json:"reservation_id"`
	UserID            string            `gorm:"index;size:64;not null" json:"user_id"`
	RouteID           string            `gorm:"size:64;not null" json:"route_id"`
	ShiftID           string            `gorm:"size:64" json:"shift_id"`
	Date              time.Time         `gorm:"index;not null" json:"date"`
	PickupLocation    string            `gorm:"size:128;not null" json:"pickup_location"`
	DropoffLocation   string            `gorm:"size:128;not null" json:"dropoff_location"`
	Seat              int               `gorm:"not null" json:"seat"`
	ReservationStatus ReservationStatus `gorm:"size:16;index;not null" json:"reservation_status"`
	PaymentStatus     PaymentStatus     `gorm:"size:16;not null" json:"payment_status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
