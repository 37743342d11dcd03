package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"minibus-reservation-backend/internal/model"
)

// A helper to create an isolated in-memory database per test.
func newTestStore(t *testing.T) Store {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Reservation{},
		&model.Notification{},
		&model.Route{},
		&model.User{},
	))

	return NewGormStore(db)
}

func seedReservation(t *testing.T, s Store, id, userID string, date time.Time, status model.ReservationStatus) {
	t.Helper()
	require.NoError(t, s.CreateReservation(context.Background(), &model.Reservation{
		ReservationID:     id,
		UserID:            userID,
		RouteID:           "R1",
		Date:              date,
		PickupLocation:    "stop-a",
		DropoffLocation:   "stop-b",
		Seat:              1,
		ReservationStatus: status,
		PaymentStatus:     model.PaymentPending,
	}))
}

func TestListReservationsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seedReservation(t, s, "res-1", "u1", now.Add(1*time.Hour), model.ReservationReserved)
	seedReservation(t, s, "res-2", "u1", now.Add(-2*time.Hour), model.ReservationCancelled)
	seedReservation(t, s, "res-3", "u2", now.Add(1*time.Hour), model.ReservationReserved)

	all, err := s.ListReservations(ctx, ReservationFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled, err := s.ListReservations(ctx, ReservationFilter{UserID: "u1", Status: model.ReservationCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "res-2", cancelled[0].ReservationID)

	upcoming, err := s.ListReservations(ctx, ReservationFilter{UserID: "u1", DateGTE: &now})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "res-1", upcoming[0].ReservationID)

	none, err := s.ListReservations(ctx, ReservationFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransitionReservationGuardsCurrentStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedReservation(t, s, "res-1", "u1", time.Now().Add(time.Hour), model.ReservationReserved)

	n, err := s.TransitionReservation(ctx, "res-1", model.ReservationReserved, model.ReservationCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Second transition loses the guard: the row is no longer Reserved.
	n, err = s.TransitionReservation(ctx, "res-1", model.ReservationReserved, model.ReservationCompleted)
	require.NoError(t, err)
	assert.Zero(t, n)

	r, err := s.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, r.ReservationStatus)
}

func TestCompleteDueReservationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedReservation(t, s, "past", "u1", now.Add(-time.Hour), model.ReservationReserved)
	seedReservation(t, s, "future", "u1", now.Add(time.Hour), model.ReservationReserved)
	seedReservation(t, s, "cancelled", "u1", now.Add(-time.Hour), model.ReservationCancelled)

	n, err := s.CompleteDueReservations(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.CompleteDueReservations(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	past, err := s.GetReservation(ctx, "past")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCompleted, past.ReservationStatus)

	future, err := s.GetReservation(ctx, "future")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReserved, future.ReservationStatus)

	cancelled, err := s.GetReservation(ctx, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, cancelled.ReservationStatus)
}

func TestDueNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := []model.Notification{
		{ReservationID: "res-1", UserID: "u1", Message: "due", SendTime: now.Add(-time.Minute), Type: model.TypeReservationReminder, Status: model.NotificationPending},
		{ReservationID: "res-1", UserID: "u1", Message: "future", SendTime: now.Add(time.Hour), Type: model.TypeReservationReminder, Status: model.NotificationPending},
		{ReservationID: "res-2", UserID: "u2", Message: "already sent", SendTime: now.Add(-time.Hour), Type: model.TypeAllocatedShiftReminder, Status: model.NotificationSent},
	}
	require.NoError(t, s.CreateNotifications(ctx, batch))

	due, err := s.DueNotifications(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].Message)

	require.NoError(t, s.SetNotificationStatus(ctx, due[0].ID, model.NotificationSent))

	due, err = s.DueNotifications(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestHasNotificationOfType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNotifications(ctx, []model.Notification{
		{ReservationID: "res-1", UserID: "u1", Message: "m", SendTime: time.Now(), Type: model.TypeAllocatedShiftReminder, Status: model.NotificationPending},
	}))

	has, err := s.HasNotificationOfType(ctx, "res-1", model.TypeAllocatedShiftReminder)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasNotificationOfType(ctx, "res-1", model.TypeReservedSeatReminder)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPushSubscriptionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DB().Create(&model.User{UserID: "u1", Name: "Aileen"}).Error)

	require.NoError(t, s.SavePushSubscription(ctx, "u1", "https://push.example/ep", "p256dh-key", "auth-secret"))

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.HasPushSubscription())
	assert.Equal(t, "https://push.example/ep", u.PushEndpoint)

	require.NoError(t, s.ClearPushSubscription(ctx, "u1"))
	u, err = s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, u.HasPushSubscription())

	err = s.SavePushSubscription(ctx, "missing", "ep", "k", "a")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
