package service

import (
	"context"
	"log"
	"time"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
)

// MeetingDuration is the fixed window after a meeting's start time after
// which the sweep marks it finished.
const MeetingDuration = 2 * time.Hour

// FinisherStore is the slice of the meeting store the sweep needs.
type FinisherStore interface {
	UnfinishedMeetings(ctx context.Context) ([]model.Meeting, error)
	MarkFinished(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Finisher periodically moves meetings into the finished state once their
// end threshold has passed. The sweep is idempotent; it must run on a single
// instance of the service.
type Finisher struct {
	store    FinisherStore
	interval time.Duration
	now      func() time.Time
}

func NewFinisher(store FinisherStore, interval time.Duration) *Finisher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Finisher{store: store, interval: interval, now: time.Now}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (f *Finisher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("meeting finisher stopped")
			return
		case <-ticker.C:
			updated, err := f.Sweep(ctx)
			if err != nil {
				log.Printf("error checking meetings: %v", err)
				continue
			}
			if updated > 0 {
				log.Printf("marked %d meetings as finished", updated)
			}
		}
	}
}

// Sweep marks every unfinished meeting whose end threshold has passed as
// finished, in one bulk update. Returns the number of meetings updated.
func (f *Finisher) Sweep(ctx context.Context) (int64, error) {
	meetings, err := f.store.UnfinishedMeetings(ctx)
	if err != nil {
		return 0, err
	}

	now := f.now()
	var expired []uuid.UUID
	for _, meeting := range meetings {
		if !now.Before(meeting.Date.Add(MeetingDuration)) {
			expired = append(expired, meeting.ID)
		}
	}

	if len(expired) == 0 {
		return 0, nil
	}
	return f.store.MarkFinished(ctx, expired)
}
