package model

import "time"

// UserSettings are the notification preferences a user controls from the
// app. ReservedSeatReminderBeforeMinutes is a request, not a promise: the
// generator caps it server-side.
type UserSettings struct {
	NotificationsEnabled              bool `json:"notificationsEnabled"`
	ReservationReminder               bool `json:"reservationReminder"`
	ReservedSeatReminder              bool `json:"reservedSeatReminder"`
	AllocatedShiftReminder            bool `json:"allocatedShiftReminder"`
	ReservedSeatReminderBeforeMinutes int  `json:"reservedSeatReminderBeforeMinutes"`
}

// User holds the rider profile fields this service needs: preference
// toggles and the web-push subscription used as the delivery token. A user
// with an empty PushEndpoint cannot receive push delivery.
type User struct {
	UserID       string       `gorm:"primaryKey;size:64" json:"user_id"`
	Name         string       `gorm:"size:128" json:"name"`
	Email        string       `gorm:"size:256" json:"email"`
	Phone        string       `gorm:"size:32" json:"phone"`
	Settings     UserSettings `gorm:"serializer:json" json:"settings"`
	PushEndpoint string       `gorm:"size:512" json:"-"`
	PushP256DH   string       `gorm:"column:push_p256dh;size:256" json:"-"`
	PushAuth     string       `gorm:"size:256" json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// HasPushSubscription reports whether the user stored a usable delivery token.
func (u *User) HasPushSubscription() bool {
	return u.PushEndpoint != ""
}
