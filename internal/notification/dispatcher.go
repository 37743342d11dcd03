package notification

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"minibus-reservation-backend/internal/hktime"
	"minibus-reservation-backend/internal/model"
)

// DispatchStore is the slice of the store the dispatcher works against.
type DispatchStore interface {
	DueNotifications(ctx context.Context, now time.Time) ([]model.Notification, error)
	SetNotificationStatus(ctx context.Context, id int64, status model.NotificationStatus) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ClearPushSubscription(ctx context.Context, userID string) error
}

// Dispatcher delivers due pending notifications over web push. Delivery is
// best effort: a notification ends up Sent or Failed exactly once and is
// never re-enqueued. Failures of one row never abort the rest of the pass.
type Dispatcher struct {
	store   DispatchStore
	sender  Sender
	webpush *webpush.Options
	workers int
	log     *logrus.Entry
	now     func() time.Time
}

// NewDispatcher creates a dispatcher fanning deliveries out over the given
// number of workers.
func NewDispatcher(s DispatchStore, webpushOptions *webpush.Options, workers int, log *logrus.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		store:   s,
		sender:  &WebPushSender{},
		webpush: webpushOptions,
		workers: workers,
		log:     log.WithField("component", "dispatcher"),
		now:     hktime.Now,
	}
}

// WithSender replaces the delivery transport. Tests use it to observe
// payloads without real push endpoints.
func (d *Dispatcher) WithSender(s Sender) *Dispatcher {
	d.sender = s
	return d
}

// WithNow overrides the dispatcher's clock for tests.
func (d *Dispatcher) WithNow(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// DispatchDue performs one sweep pass: every Pending notification whose
// send time has arrived gets exactly one delivery attempt. The pass
// returns once all rows are settled.
func (d *Dispatcher) DispatchDue(ctx context.Context) error {
	due, err := d.store.DueNotifications(ctx, d.now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	d.log.WithField("count", len(due)).Info("dispatching due notifications")

	jobs := make(chan model.Notification)
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				d.deliver(ctx, n)
			}
		}()
	}
	for _, n := range due {
		jobs <- n
	}
	close(jobs)
	wg.Wait()
	return nil
}

// deliver attempts a single notification and settles its status. A missing
// delivery token and a transport error are both terminal failures.
func (d *Dispatcher) deliver(ctx context.Context, n model.Notification) {
	log := d.log.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"type":            n.Type,
		"user_id":         n.UserID,
	})

	user, err := d.store.GetUser(ctx, n.UserID)
	if err != nil || !user.HasPushSubscription() {
		log.Debug("no delivery token, marking failed")
		d.settle(ctx, n.ID, model.NotificationFailed, log)
		return
	}

	sub := &webpush.Subscription{
		Endpoint: user.PushEndpoint,
		Keys: webpush.Keys{
			P256dh: user.PushP256DH,
			Auth:   user.PushAuth,
		},
	}

	resp, err := d.sender.Send([]byte(n.Message), sub, d.webpush)
	if err != nil {
		log.WithError(err).Warn("push delivery failed")
		d.settle(ctx, n.ID, model.NotificationFailed, log)
		return
	}
	defer resp.Body.Close()

	// An expired subscription is useless for every later reminder too.
	if resp.StatusCode == http.StatusGone {
		log.Info("subscription expired, clearing delivery token")
		if err := d.store.ClearPushSubscription(ctx, n.UserID); err != nil {
			log.WithError(err).Warn("failed to clear expired subscription")
		}
		d.settle(ctx, n.ID, model.NotificationFailed, log)
		return
	}

	d.settle(ctx, n.ID, model.NotificationSent, log)
}

func (d *Dispatcher) settle(ctx context.Context, id int64, status model.NotificationStatus, log *logrus.Entry) {
	if err := d.store.SetNotificationStatus(ctx, id, status); err != nil {
		log.WithError(err).Error("failed to settle notification status")
	}
}
