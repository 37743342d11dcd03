// Package notification computes scheduled reminder rows for reservations
// and later sweeps the due ones out over web push.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"minibus-reservation-backend/internal/hktime"
	"minibus-reservation-backend/internal/model"
)

// MaxSeatReminderLead caps reservedSeatReminderBeforeMinutes server-side.
// The stored preference can shorten the lead, never lengthen it past this.
const MaxSeatReminderLead = 15 * time.Minute

// reservationReminderLead is the fixed offset of the departure reminder.
const reservationReminderLead = 15 * time.Minute

// RouteLookup supplies route data with stop arrival times. Route data is
// maintained externally and may be stale or absent; callers treat a miss
// as a skip, not a failure.
type RouteLookup interface {
	GetRoute(ctx context.Context, routeID string) (*model.Route, error)
}

// UserLookup supplies rider preference and delivery-token data.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// GeneratorStore is the slice of the store the generator writes through.
type GeneratorStore interface {
	CreateNotifications(ctx context.Context, batch []model.Notification) error
	HasNotificationOfType(ctx context.Context, reservationID string, t model.NotificationType) (bool, error)
}

// Generator turns lifecycle events into notification rows. It never
// mutates the reservation itself; each trigger appends at most the
// reminder types that trigger is responsible for, so the same reminder is
// not produced twice across the creation and shift-assignment paths.
type Generator struct {
	store  GeneratorStore
	routes RouteLookup
	users  UserLookup
	log    *logrus.Entry
	now    func() time.Time
}

// NewGenerator creates a reminder generator.
func NewGenerator(s GeneratorStore, routes RouteLookup, users UserLookup, log *logrus.Logger) *Generator {
	return &Generator{
		store:  s,
		routes: routes,
		users:  users,
		log:    log.WithField("component", "generator"),
		now:    hktime.Now,
	}
}

// WithNow overrides the generator's clock for tests.
func (g *Generator) WithNow(now func() time.Time) *Generator {
	g.now = now
	return g
}

// ReservationCreated schedules the departure reminder for a new
// reservation. No shift exists yet, so the shift-bound reminders are not
// considered here.
func (g *Generator) ReservationCreated(ctx context.Context, r *model.Reservation) error {
	settings, ok, err := g.loadSettings(ctx, r.UserID)
	if err != nil || !ok {
		return err
	}

	if !settings.ReservationReminder {
		return nil
	}

	batch := []model.Notification{{
		ReservationID: r.ReservationID,
		UserID:        r.UserID,
		Message: fmt.Sprintf("Reminder: your minibus on route %s departs from %s at %s.",
			r.RouteID, r.PickupLocation, r.Date.In(hktime.Zone).Format("15:04")),
		SendTime: r.Date.Add(-reservationReminderLead),
		Type:     model.TypeReservationReminder,
		Status:   model.NotificationPending,
	}}
	return g.store.CreateNotifications(ctx, batch)
}

// ShiftAssigned schedules the shift-bound reminders: the immediate
// allocation notice and, when the route data allows it, the seat reminder
// ahead of the pickup stop's arrival time. Either reminder is skipped if a
// row of its type already exists for the reservation, so reassigning a
// shift does not pile up duplicates.
func (g *Generator) ShiftAssigned(ctx context.Context, r *model.Reservation) error {
	if r.ShiftID == "" {
		return nil
	}

	settings, ok, err := g.loadSettings(ctx, r.UserID)
	if err != nil || !ok {
		return err
	}

	var batch []model.Notification

	if settings.AllocatedShiftReminder {
		fresh, err := g.isFirstOfType(ctx, r.ReservationID, model.TypeAllocatedShiftReminder)
		if err != nil {
			return err
		}
		if fresh {
			batch = append(batch, model.Notification{
				ReservationID: r.ReservationID,
				UserID:        r.UserID,
				Message: fmt.Sprintf("A shift has been allocated to your reservation on route %s.",
					r.RouteID),
				SendTime: g.now(),
				Type:     model.TypeAllocatedShiftReminder,
				Status:   model.NotificationPending,
			})
		}
	}

	if settings.ReservedSeatReminder {
		fresh, err := g.isFirstOfType(ctx, r.ReservationID, model.TypeReservedSeatReminder)
		if err != nil {
			return err
		}
		if fresh {
			if n, ok := g.seatReminder(ctx, r, settings); ok {
				batch = append(batch, n)
			}
		}
	}

	return g.store.CreateNotifications(ctx, batch)
}

// loadSettings fetches the user's preferences. The second return is false
// when no notifications should be generated at all, either because the
// user disabled them or because the lookup failed.
func (g *Generator) loadSettings(ctx context.Context, userID string) (model.UserSettings, bool, error) {
	u, err := g.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			g.log.WithField("user_id", userID).Debug("user not found, skipping reminders")
			return model.UserSettings{}, false, nil
		}
		return model.UserSettings{}, false, fmt.Errorf("failed to load settings for user %s: %w", userID, err)
	}
	if !u.Settings.NotificationsEnabled {
		return model.UserSettings{}, false, nil
	}
	return u.Settings, true, nil
}

func (g *Generator) isFirstOfType(ctx context.Context, reservationID string, t model.NotificationType) (bool, error) {
	has, err := g.store.HasNotificationOfType(ctx, reservationID, t)
	if err != nil {
		return false, err
	}
	return !has, nil
}

// seatReminder resolves the pickup stop's arrival time for the assigned
// shift and schedules a reminder ahead of it. Route data gaps are
// non-fatal: a missing route, stop or arrival entry just skips the
// reminder.
func (g *Generator) seatReminder(ctx context.Context, r *model.Reservation, settings model.UserSettings) (model.Notification, bool) {
	route, err := g.routes.GetRoute(ctx, r.RouteID)
	if err != nil {
		g.log.WithError(err).WithFields(logrus.Fields{
			"reservation_id": r.ReservationID,
			"route_id":       r.RouteID,
		}).Debug("route lookup failed, skipping seat reminder")
		return model.Notification{}, false
	}

	arrivalClock, ok := arrivalForShift(route, r.PickupLocation, r.ShiftID)
	if !ok {
		g.log.WithFields(logrus.Fields{
			"reservation_id": r.ReservationID,
			"pickup":         r.PickupLocation,
			"shift_id":       r.ShiftID,
		}).Debug("no arrival time for pickup stop and shift, skipping seat reminder")
		return model.Notification{}, false
	}

	arrival, err := hktime.CombineClock(r.Date, arrivalClock)
	if err != nil {
		g.log.WithError(err).WithField("reservation_id", r.ReservationID).
			Debug("unparsable arrival time, skipping seat reminder")
		return model.Notification{}, false
	}

	lead := time.Duration(settings.ReservedSeatReminderBeforeMinutes) * time.Minute
	if lead > MaxSeatReminderLead {
		lead = MaxSeatReminderLead
	}
	if lead < 0 {
		lead = 0
	}

	return model.Notification{
		ReservationID: r.ReservationID,
		UserID:        r.UserID,
		Message: fmt.Sprintf("Your minibus arrives at %s at %s. Your seat is reserved.",
			r.PickupLocation, arrival.Format("15:04")),
		SendTime: arrival.Add(-lead),
		Type:     model.TypeReservedSeatReminder,
		Status:   model.NotificationPending,
	}, true
}

// arrivalForShift finds the arrival-time entry for shiftID at the given
// stop. ShiftIDs is aligned to ArrivalTimes by index.
func arrivalForShift(route *model.Route, stopID, shiftID string) (string, bool) {
	for _, stop := range route.Stops {
		if stop.StopID != stopID {
			continue
		}
		for i, id := range stop.ShiftIDs {
			if id == shiftID && i < len(stop.ArrivalTimes) {
				return stop.ArrivalTimes[i], true
			}
		}
		return "", false
	}
	return "", false
}
