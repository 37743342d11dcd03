package model

import "time"

// NotificationType identifies which reminder a notification row carries.
type NotificationType string

const (
	TypeReservationReminder    NotificationType = "ReservationReminder"
	TypeAllocatedShiftReminder NotificationType = "AllocatedShiftReminder"
	TypeReservedSeatReminder   NotificationType = "ReservedSeatReminder"
)

// NotificationStatus is the delivery state. Sent and Failed are terminal;
// a notification is never re-enqueued.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "Pending"
	NotificationSent    NotificationStatus = "Sent"
	NotificationFailed  NotificationStatus = "Failed"
)

// Notification is a scheduled reminder for a reservation. The message text
// and send time are fixed at generation time and never recomputed, even if
// the underlying reservation changes afterward.
type Notification struct {
	ID            int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	ReservationID string             `gorm:"index;size:64;not null" json:"reservation_id"`
	UserID        string             `gorm:"index;size:64;not null" json:"user_id"`
	Message       string             `gorm:"not null" json:"message"`
	SendTime      time.Time          `gorm:"index;not null" json:"send_time"`
	Type          NotificationType   `gorm:"size:32;not null" json:"type"`
	Status        NotificationStatus `gorm:"size:16;index;not null" json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
