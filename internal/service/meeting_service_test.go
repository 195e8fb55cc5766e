package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMeetingStore struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*model.Meeting
}

func newFakeMeetingStore() *fakeMeetingStore {
	return &fakeMeetingStore{meetings: make(map[uuid.UUID]*model.Meeting)}
}

func (s *fakeMeetingStore) Create(_ context.Context, meeting model.Meeting) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting.ID = uuid.New()
	meeting.Attendees = []model.UserSummary{{ID: meeting.AdminID}}
	meeting.CreatedAt = time.Now()
	meeting.UpdatedAt = meeting.CreatedAt
	stored := meeting
	s.meetings[meeting.ID] = &stored
	return copyMeeting(&stored), nil
}

func (s *fakeMeetingStore) GetByID(_ context.Context, id uuid.UUID) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, exists := s.meetings[id]
	if !exists {
		return model.Meeting{}, model.ErrMeetingNotFound
	}
	return copyMeeting(meeting), nil
}

func (s *fakeMeetingStore) AddAttendee(_ context.Context, meetingID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting := s.meetings[meetingID]
	if !meeting.HasAttendee(userID) {
		meeting.Attendees = append(meeting.Attendees, model.UserSummary{ID: userID})
	}
	return nil
}

func (s *fakeMeetingStore) RemoveAttendee(_ context.Context, meetingID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting := s.meetings[meetingID]
	kept := meeting.Attendees[:0]
	for _, attendee := range meeting.Attendees {
		if attendee.ID != userID {
			kept = append(kept, attendee)
		}
	}
	meeting.Attendees = kept
	return nil
}

func (s *fakeMeetingStore) UpdateAdmin(_ context.Context, meetingID, newAdminID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meetings[meetingID].AdminID = newAdminID
	return nil
}

func (s *fakeMeetingStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.meetings, id)
	return nil
}

func copyMeeting(meeting *model.Meeting) model.Meeting {
	out := *meeting
	out.Attendees = append([]model.UserSummary(nil), meeting.Attendees...)
	return out
}

type sentNote struct {
	userID uuid.UUID
	title  string
	body   string
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []sentNote
}

func (n *fakeNotifier) Notify(userID uuid.UUID, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, sentNote{userID: userID, title: title, body: body})
}

func (n *fakeNotifier) sent() []sentNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNote(nil), n.notes...)
}

type fakeUsers struct {
	users map[uuid.UUID]model.UserSummary
}

func (u *fakeUsers) GetSummary(_ context.Context, id uuid.UUID) (model.UserSummary, error) {
	summary, exists := u.users[id]
	if !exists {
		return model.UserSummary{}, model.ErrUserNotFound
	}
	return summary, nil
}

func newTestService() (*MeetingService, *fakeMeetingStore, *fakeNotifier, *fakeUsers) {
	store := newFakeMeetingStore()
	notifier := &fakeNotifier{}
	users := &fakeUsers{users: make(map[uuid.UUID]model.UserSummary)}
	return NewMeetingService(store, users, notifier), store, notifier, users
}

func validCreateRequest() model.CreateMeetingRequest {
	lat, lon := 35.1856, 33.3823
	return model.CreateMeetingRequest{
		Title:     "Coffee downtown",
		Date:      time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		Latitude:  &lat,
		Longitude: &lon,
	}
}

// requireInvariant checks admin membership and a non-empty attendee set.
func requireInvariant(t *testing.T, store *fakeMeetingStore, meetingID uuid.UUID) {
	t.Helper()
	meeting, err := store.GetByID(context.Background(), meetingID)
	require.NoError(t, err)
	require.NotEmpty(t, meeting.Attendees)
	require.True(t, meeting.HasAttendee(meeting.AdminID), "admin must be an attendee")
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	admin := uuid.New()

	t.Run("missing title", func(t *testing.T) {
		req := validCreateRequest()
		req.Title = ""
		_, err := svc.Create(ctx, admin, req)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("missing coordinates", func(t *testing.T) {
		req := validCreateRequest()
		req.Latitude = nil
		_, err := svc.Create(ctx, admin, req)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("out of range latitude", func(t *testing.T) {
		req := validCreateRequest()
		bad := 123.0
		req.Latitude = &bad
		_, err := svc.Create(ctx, admin, req)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("unparseable date", func(t *testing.T) {
		req := validCreateRequest()
		req.Date = "next tuesday"
		_, err := svc.Create(ctx, admin, req)
		assert.Equal(t, KindValidation, KindOf(err))
	})
}

func TestCreateMakesCallerAdminAndSoleAttendee(t *testing.T) {
	svc, store, _, _ := newTestService()
	admin := uuid.New()

	meeting, err := svc.Create(context.Background(), admin, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, admin, meeting.AdminID)
	assert.Len(t, meeting.Attendees, 1)
	assert.True(t, meeting.HasAttendee(admin))
	requireInvariant(t, store, meeting.ID)
}

func TestJoin(t *testing.T) {
	ctx := context.Background()

	t.Run("meeting not found", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		_, err := svc.Join(ctx, uuid.New(), uuid.New())
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("duplicate join conflicts", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		admin, joiner := uuid.New(), uuid.New()
		meeting, err := svc.Create(ctx, admin, validCreateRequest())
		require.NoError(t, err)

		updated, err := svc.Join(ctx, meeting.ID, joiner)
		require.NoError(t, err)
		assert.Len(t, updated.Attendees, 2)

		_, err = svc.Join(ctx, meeting.ID, joiner)
		assert.Equal(t, KindConflict, KindOf(err))

		// Still exactly one membership record for the joiner.
		final, err := svc.Join(ctx, meeting.ID, uuid.New())
		require.NoError(t, err)
		count := 0
		for _, attendee := range final.Attendees {
			if attendee.ID == joiner {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("finished meeting rejects join", func(t *testing.T) {
		svc, store, _, _ := newTestService()
		admin := uuid.New()
		meeting, err := svc.Create(ctx, admin, validCreateRequest())
		require.NoError(t, err)
		store.meetings[meeting.ID].IsFinished = true

		_, err = svc.Join(ctx, meeting.ID, uuid.New())
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("notifies existing attendees only", func(t *testing.T) {
		svc, _, notifier, users := newTestService()
		admin, joiner := uuid.New(), uuid.New()
		users.users[joiner] = model.UserSummary{ID: joiner, Name: "Deniz"}

		meeting, err := svc.Create(ctx, admin, validCreateRequest())
		require.NoError(t, err)

		_, err = svc.Join(ctx, meeting.ID, joiner)
		require.NoError(t, err)

		notes := notifier.sent()
		require.Len(t, notes, 1)
		assert.Equal(t, admin, notes[0].userID)
		assert.Equal(t, "New participant!", notes[0].title)
		assert.Contains(t, notes[0].body, "Deniz")
		assert.Contains(t, notes[0].body, meeting.Title)
	})
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()
	admin, member := uuid.New(), uuid.New()

	meeting, err := svc.Create(ctx, admin, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.Join(ctx, meeting.ID, member)
	require.NoError(t, err)

	t.Run("admin cannot leave", func(t *testing.T) {
		err := svc.Leave(ctx, meeting.ID, admin)
		assert.Equal(t, KindForbidden, KindOf(err))
		requireInvariant(t, store, meeting.ID)
	})

	t.Run("non-member conflicts", func(t *testing.T) {
		err := svc.Leave(ctx, meeting.ID, uuid.New())
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("member leaves", func(t *testing.T) {
		require.NoError(t, svc.Leave(ctx, meeting.ID, member))
		updated, err := store.GetByID(ctx, meeting.ID)
		require.NoError(t, err)
		assert.False(t, updated.HasAttendee(member))
		requireInvariant(t, store, meeting.ID)
	})
}

func TestKick(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier, _ := newTestService()
	admin, member := uuid.New(), uuid.New()

	meeting, err := svc.Create(ctx, admin, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.Join(ctx, meeting.ID, member)
	require.NoError(t, err)

	t.Run("non-admin forbidden", func(t *testing.T) {
		_, err := svc.Kick(ctx, meeting.ID, member, admin)
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("target not a member", func(t *testing.T) {
		_, err := svc.Kick(ctx, meeting.ID, admin, uuid.New())
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("admin cannot self-kick", func(t *testing.T) {
		_, err := svc.Kick(ctx, meeting.ID, admin, admin)
		assert.Equal(t, KindConflict, KindOf(err))
		requireInvariant(t, store, meeting.ID)
	})

	t.Run("kick removes and notifies target", func(t *testing.T) {
		updated, err := svc.Kick(ctx, meeting.ID, admin, member)
		require.NoError(t, err)
		assert.False(t, updated.HasAttendee(member))
		requireInvariant(t, store, meeting.ID)

		notes := notifier.sent()
		var kicked []sentNote
		for _, note := range notes {
			if note.title == "You were kicked" {
				kicked = append(kicked, note)
			}
		}
		require.Len(t, kicked, 1)
		assert.Equal(t, member, kicked[0].userID)
	})
}

func TestTransferAdmin(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()
	admin, member := uuid.New(), uuid.New()

	meeting, err := svc.Create(ctx, admin, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.Join(ctx, meeting.ID, member)
	require.NoError(t, err)

	t.Run("non-admin forbidden", func(t *testing.T) {
		err := svc.TransferAdmin(ctx, meeting.ID, member, member)
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("target must be a member", func(t *testing.T) {
		err := svc.TransferAdmin(ctx, meeting.ID, admin, uuid.New())
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("transfer reassigns admin", func(t *testing.T) {
		require.NoError(t, svc.TransferAdmin(ctx, meeting.ID, admin, member))
		updated, err := store.GetByID(ctx, meeting.ID)
		require.NoError(t, err)
		assert.Equal(t, member, updated.AdminID)
		// Attendee set unchanged by the transfer.
		assert.Len(t, updated.Attendees, 2)
		requireInvariant(t, store, meeting.ID)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier, _ := newTestService()
	admin, member := uuid.New(), uuid.New()

	meeting, err := svc.Create(ctx, admin, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.Join(ctx, meeting.ID, member)
	require.NoError(t, err)

	t.Run("non-admin forbidden", func(t *testing.T) {
		err := svc.Cancel(ctx, meeting.ID, member)
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("cancel deletes and notifies attendees", func(t *testing.T) {
		require.NoError(t, svc.Cancel(ctx, meeting.ID, admin))

		_, err := store.GetByID(ctx, meeting.ID)
		assert.ErrorIs(t, err, model.ErrMeetingNotFound)

		notified := map[uuid.UUID]bool{}
		for _, note := range notifier.sent() {
			if note.title == "Meeting cancelled" {
				notified[note.userID] = true
			}
		}
		assert.True(t, notified[admin])
		assert.True(t, notified[member])
	})
}

// Full lifecycle: B joins, A fails to act as non-admin after transfer,
// admin rights move A->B, A leaves, B cancels.
func TestMembershipLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()
	userA, userB := uuid.New(), uuid.New()

	meeting, err := svc.Create(ctx, userA, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Join(ctx, meeting.ID, userB)
	require.NoError(t, err)

	// B is not admin, so B cannot kick.
	_, err = svc.Kick(ctx, meeting.ID, userB, userA)
	require.Equal(t, KindForbidden, KindOf(err))

	require.NoError(t, svc.TransferAdmin(ctx, meeting.ID, userA, userB))
	requireInvariant(t, store, meeting.ID)

	// A is no longer admin and may leave.
	require.NoError(t, svc.Leave(ctx, meeting.ID, userA))
	requireInvariant(t, store, meeting.ID)

	require.NoError(t, svc.Cancel(ctx, meeting.ID, userB))
	_, err = svc.Join(ctx, meeting.ID, userA)
	assert.Equal(t, KindNotFound, KindOf(err))
}
