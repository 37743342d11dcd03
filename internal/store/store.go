package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"minibus-reservation-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, reservationID string) (*model.Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]model.Reservation, error)
	SetShift(ctx context.Context, reservationID, shiftID string) error
	// TransitionReservation moves a reservation from one status to another
	// and reports how many rows changed, so callers can detect a lost race
	// against a concurrent transition.
	TransitionReservation(ctx context.Context, reservationID string, from, to model.ReservationStatus) (int64, error)
	// CompleteDueReservations promotes every Reserved reservation whose
	// departure is before now to Completed. Idempotent.
	CompleteDueReservations(ctx context.Context, now time.Time) (int64, error)

	CreateNotifications(ctx context.Context, batch []model.Notification) error
	DueNotifications(ctx context.Context, now time.Time) ([]model.Notification, error)
	SetNotificationStatus(ctx context.Context, id int64, status model.NotificationStatus) error
	HasNotificationOfType(ctx context.Context, reservationID string, t model.NotificationType) (bool, error)

	GetRoute(ctx context.Context, routeID string) (*model.Route, error)
	ListRoutes(ctx context.Context) ([]model.Route, error)

	GetUser(ctx context.Context, userID string) (*model.User, error)
	SavePushSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) error
	ClearPushSubscription(ctx context.Context, userID string) error
}

// ReservationFilter narrows a reservation listing. UserID is always set;
// the rest are optional.
type ReservationFilter struct {
	UserID  string
	Status  model.ReservationStatus
	DateGTE *time.Time
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create reservation %s: %w", r.ReservationID, err)
	}
	return nil
}

func (s *gormStore) GetReservation(ctx context.Context, reservationID string) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, "reservation_id = ?", reservationID).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) ListReservations(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.Status != "" {
		q = q.Where("reservation_status = ?", f.Status)
	}
	if f.DateGTE != nil {
		q = q.Where("date >= ?", *f.DateGTE)
	}

	var out []model.Reservation
	if err := q.Order("date ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations for user %s: %w", f.UserID, err)
	}
	return out, nil
}

func (s *gormStore) SetShift(ctx context.Context, reservationID, shiftID string) error {
	res := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservation_id = ?", reservationID).
		Update("shift_id", shiftID)
	if res.Error != nil {
		return fmt.Errorf("failed to assign shift to reservation %s: %w", reservationID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) TransitionReservation(ctx context.Context, reservationID string, from, to model.ReservationStatus) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservation_id = ? AND reservation_status = ?", reservationID, from).
		Update("reservation_status", to)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to transition reservation %s to %s: %w", reservationID, to, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) CompleteDueReservations(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservation_status = ? AND date < ?", model.ReservationReserved, now).
		Update("reservation_status", model.ReservationCompleted)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to auto-complete due reservations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) CreateNotifications(ctx context.Context, batch []model.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&batch).Error; err != nil {
		return fmt.Errorf("failed to create notification batch: %w", err)
	}
	return nil
}

func (s *gormStore) DueNotifications(ctx context.Context, now time.Time) ([]model.Notification, error) {
	var out []model.Notification
	err := s.db.WithContext(ctx).
		Where("status = ? AND send_time <= ?", model.NotificationPending, now).
		Order("send_time ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query due notifications: %w", err)
	}
	return out, nil
}

func (s *gormStore) SetNotificationStatus(ctx context.Context, id int64, status model.NotificationStatus) error {
	res := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification %d %s: %w", id, status, res.Error)
	}
	return nil
}

func (s *gormStore) HasNotificationOfType(ctx context.Context, reservationID string, t model.NotificationType) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("reservation_id = ? AND type = ?", reservationID, t).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check notifications for reservation %s: %w", reservationID, err)
	}
	return count > 0, nil
}

func (s *gormStore) GetRoute(ctx context.Context, routeID string) (*model.Route, error) {
	var r model.Route
	if err := s.db.WithContext(ctx).First(&r, "route_id = ?", routeID).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) ListRoutes(ctx context.Context) ([]model.Route, error) {
	var out []model.Route
	if err := s.db.WithContext(ctx).Order("route_id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) SavePushSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) error {
	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"push_endpoint": endpoint,
			"push_p256dh":   p256dh,
			"push_auth":     auth,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to save push subscription for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) ClearPushSubscription(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"push_endpoint": "",
			"push_p256dh":   "",
			"push_auth":     "",
		})
	if res.Error != nil {
		return fmt.Errorf("failed to clear push subscription for user %s: %w", userID, res.Error)
	}
	return nil
}
