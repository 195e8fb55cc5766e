package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	defaultQueueSize   = 256
	defaultSendTimeout = 10 * time.Second
)

// TokenResolver looks up a user's push token. An empty token means the user
// never registered for push notifications.
type TokenResolver interface {
	FCMToken(ctx context.Context, userID uuid.UUID) (string, error)
}

// Sender delivers one push notification, typically over FCM.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

type notification struct {
	userID uuid.UUID
	title  string
	body   string
}

// Dispatcher fans out push notifications from a bounded queue. Enqueueing
// never blocks; when the queue is full the notification is dropped and
// logged. Delivery failures are logged and never surfaced to the caller.
type Dispatcher struct {
	tokens TokenResolver
	sender Sender
	queue  chan notification
	done   chan struct{}
	once   sync.Once
}

func NewDispatcher(tokens TokenResolver, sender Sender) *Dispatcher {
	return &Dispatcher{
		tokens: tokens,
		sender: sender,
		queue:  make(chan notification, defaultQueueSize),
		done:   make(chan struct{}),
	}
}

// Run drains the queue until Close is called.
func (d *Dispatcher) Run() {
	for n := range d.queue {
		d.dispatch(n)
	}
	close(d.done)
}

// Notify enqueues a notification for delivery. Fire and forget.
func (d *Dispatcher) Notify(userID uuid.UUID, title, body string) {
	select {
	case d.queue <- notification{userID: userID, title: title, body: body}:
	default:
		log.Printf("notification queue full, dropping %q for user %s", title, userID)
	}
}

// Close stops accepting notifications and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	<-d.done
}

func (d *Dispatcher) dispatch(n notification) {
	if d.sender == nil {
		// Push delivery not configured.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSendTimeout)
	defer cancel()

	token, err := d.tokens.FCMToken(ctx, n.userID)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			log.Printf("error resolving push token for user %s: %v", n.userID, err)
		}
		return
	}
	if token == "" {
		// User never registered for push. Expected, not an error.
		return
	}

	if err := d.sender.Send(ctx, token, n.title, n.body); err != nil {
		log.Printf("error sending notification to user %s: %v", n.userID, err)
	}
}
