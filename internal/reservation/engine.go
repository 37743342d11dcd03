package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"minibus-reservation-backend/internal/hktime"
	"minibus-reservation-backend/internal/model"
	"minibus-reservation-backend/internal/store"
)

// CancellationWindow is the cutoff before departure: a reservation may be
// cancelled iff at least this much time remains. Exactly at the boundary
// cancellation still succeeds.
const CancellationWindow = 15 * time.Minute

// Notifier receives lifecycle events and schedules reminder notifications
// for them. Generation failures must not fail the triggering operation,
// so implementations degrade gracefully and the engine only logs errors.
type Notifier interface {
	ReservationCreated(ctx context.Context, r *model.Reservation) error
	ShiftAssigned(ctx context.Context, r *model.Reservation) error
}

// Engine owns every reservation state transition. Create is the single
// path that brings a reservation into existence.
type Engine struct {
	store    store.Store
	notifier Notifier
	log      *logrus.Entry
	now      func() time.Time
}

// NewEngine creates a lifecycle engine. notifier may be nil (no reminders).
func NewEngine(s store.Store, notifier Notifier, log *logrus.Logger) *Engine {
	return &Engine{
		store:    s,
		notifier: notifier,
		log:      log.WithField("component", "reservation"),
		now:      hktime.Now,
	}
}

// WithNow overrides the engine's clock. Tests use it to pin the instant
// the cancellation window is evaluated against.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CreateParams are the raw fields of a reservation request. Date is a
// calendar day ("2006-01-02") and Time a wall clock ("15:04"), both
// interpreted in the operator's fixed offset.
type CreateParams struct {
	RouteID         string `json:"route_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Seat            int    `json:"seat"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
	UserID          string `json:"user_id"`
}

func (p CreateParams) validate() error {
	switch {
	case p.RouteID == "":
		return fmt.Errorf("%w: route_id is required", ErrValidation)
	case p.Date == "":
		return fmt.Errorf("%w: date is required", ErrValidation)
	case p.Time == "":
		return fmt.Errorf("%w: time is required", ErrValidation)
	case p.Seat <= 0:
		return fmt.Errorf("%w: seat must be a positive count", ErrValidation)
	case p.PickupLocation == "":
		return fmt.Errorf("%w: pickup_location is required", ErrValidation)
	case p.DropoffLocation == "":
		return fmt.Errorf("%w: dropoff_location is required", ErrValidation)
	case p.UserID == "":
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return nil
}

// Create validates the request, combines date and time into a single
// departure instant, persists the reservation as Reserved/Pending and
// triggers reminder generation. Returns the stored record including its id.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*model.Reservation, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	departure, err := hktime.Combine(p.Date, p.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	r := &model.Reservation{
		ReservationID:     uuid.NewString(),
		UserID:            p.UserID,
		RouteID:           p.RouteID,
		Date:              departure,
		PickupLocation:    p.PickupLocation,
		DropoffLocation:   p.DropoffLocation,
		Seat:              p.Seat,
		ReservationStatus: model.ReservationReserved,
		PaymentStatus:     model.PaymentPending,
	}
	if err := e.store.CreateReservation(ctx, r); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"reservation_id": r.ReservationID,
		"user_id":        r.UserID,
		"date":           r.Date,
	}).Info("reservation created")

	if e.notifier != nil {
		if err := e.notifier.ReservationCreated(ctx, r); err != nil {
			e.log.WithError(err).WithField("reservation_id", r.ReservationID).
				Warn("reminder generation failed after create")
		}
	}
	return r, nil
}

// QueryParams filter a reservation listing. UserID is required; Status and
// DateGTE ("2006-01-02" or RFC3339) are optional.
type QueryParams struct {
	UserID  string
	Status  string
	DateGTE string
}

// Query lists a user's reservations. It runs the auto-complete sweep first
// so results reflect up-to-date statuses. An empty result is a normal
// empty slice.
func (e *Engine) Query(ctx context.Context, p QueryParams) ([]model.Reservation, error) {
	if p.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}

	f := store.ReservationFilter{UserID: p.UserID}
	if p.Status != "" {
		f.Status = model.ReservationStatus(p.Status)
	}
	if p.DateGTE != "" {
		lower, err := parseDateBound(p.DateGTE)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.DateGTE = &lower
	}

	if err := e.AutoCompleteSweep(ctx); err != nil {
		// Stale statuses are preferable to a failed listing.
		e.log.WithError(err).Warn("auto-complete sweep before query failed")
	}

	return e.store.ListReservations(ctx, f)
}

func parseDateBound(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return hktime.Combine(s, "00:00")
}

// AssignShift sets the operational shift on a reservation and triggers the
// shift-related reminders. Repeat assignment is allowed; the generator
// deduplicates reminder rows per type.
func (e *Engine) AssignShift(ctx context.Context, reservationID, shiftID string) (*model.Reservation, error) {
	if shiftID == "" {
		return nil, fmt.Errorf("%w: shift_id is required", ErrValidation)
	}

	if err := e.store.SetShift(ctx, reservationID, shiftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r, err := e.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"reservation_id": reservationID,
		"shift_id":       shiftID,
	}).Info("shift assigned")

	if e.notifier != nil {
		if err := e.notifier.ShiftAssigned(ctx, r); err != nil {
			e.log.WithError(err).WithField("reservation_id", reservationID).
				Warn("reminder generation failed after shift assignment")
		}
	}
	return r, nil
}

// Cancel moves a Reserved reservation to Cancelled, provided the request
// arrives at least CancellationWindow before departure. Payment status is
// untouched; refunds are handled elsewhere.
func (e *Engine) Cancel(ctx context.Context, reservationID string) (*model.Reservation, error) {
	r, err := e.store.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if r.ReservationStatus != model.ReservationReserved {
		return nil, fmt.Errorf("%w: status is %s", ErrState, r.ReservationStatus)
	}

	if r.Date.Sub(e.now()) < CancellationWindow {
		return nil, ErrCancellationWindow
	}

	n, err := e.store.TransitionReservation(ctx, reservationID, model.ReservationReserved, model.ReservationCancelled)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Lost a race against the sweep or another cancel.
		return nil, fmt.Errorf("%w: reservation was finalized concurrently", ErrState)
	}

	r.ReservationStatus = model.ReservationCancelled
	e.log.WithField("reservation_id", reservationID).Info("reservation cancelled")
	return r, nil
}

// AutoCompleteSweep promotes every Reserved reservation with a departure
// before now to Completed. Idempotent; safe to run concurrently with
// request handlers.
func (e *Engine) AutoCompleteSweep(ctx context.Context) error {
	n, err := e.store.CompleteDueReservations(ctx, e.now())
	if err != nil {
		return err
	}
	if n > 0 {
		e.log.WithField("count", n).Info("auto-completed past reservations")
	}
	return nil
}
