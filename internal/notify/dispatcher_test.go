package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	tokens map[uuid.UUID]string
}

func (f *fakeTokens) FCMToken(_ context.Context, userID uuid.UUID) (string, error) {
	token, exists := f.tokens[userID]
	if !exists {
		return "", model.ErrUserNotFound
	}
	return token, nil
}

type sentPush struct {
	token string
	title string
	body  string
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []sentPush
}

func (f *fakeSender) Send(_ context.Context, token, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentPush{token: token, title: title, body: body})
	return nil
}

func (f *fakeSender) delivered() []sentPush {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentPush(nil), f.sent...)
}

func TestDispatcherDelivers(t *testing.T) {
	userID := uuid.New()
	tokens := &fakeTokens{tokens: map[uuid.UUID]string{userID: "device-token"}}
	sender := &fakeSender{}

	dispatcher := NewDispatcher(tokens, sender)
	go dispatcher.Run()

	dispatcher.Notify(userID, "New message", "see you there")
	dispatcher.Close()

	sent := sender.delivered()
	require.Len(t, sent, 1)
	assert.Equal(t, "device-token", sent[0].token)
	assert.Equal(t, "New message", sent[0].title)
	assert.Equal(t, "see you there", sent[0].body)
}

func TestDispatcherSkipsUsersWithoutTokens(t *testing.T) {
	registered := uuid.New()
	unregistered := uuid.New()
	tokens := &fakeTokens{tokens: map[uuid.UUID]string{
		registered:   "device-token",
		unregistered: "",
	}}
	sender := &fakeSender{}

	dispatcher := NewDispatcher(tokens, sender)
	go dispatcher.Run()

	dispatcher.Notify(unregistered, "New participant!", "ignored")
	dispatcher.Notify(uuid.New(), "New participant!", "unknown user, ignored")
	dispatcher.Notify(registered, "New participant!", "delivered")
	dispatcher.Close()

	sent := sender.delivered()
	require.Len(t, sent, 1)
	assert.Equal(t, "device-token", sent[0].token)
}

func TestDispatcherSwallowsSendErrors(t *testing.T) {
	userID := uuid.New()
	tokens := &fakeTokens{tokens: map[uuid.UUID]string{userID: "device-token"}}
	sender := &fakeSender{err: errors.New("fcm unavailable")}

	dispatcher := NewDispatcher(tokens, sender)
	go dispatcher.Run()

	// Must not panic or block the caller.
	dispatcher.Notify(userID, "Meeting cancelled", "body")
	dispatcher.Close()

	assert.Empty(t, sender.delivered())
}

func TestDispatcherWithoutSender(t *testing.T) {
	userID := uuid.New()
	tokens := &fakeTokens{tokens: map[uuid.UUID]string{userID: "device-token"}}

	dispatcher := NewDispatcher(tokens, nil)
	go dispatcher.Run()

	dispatcher.Notify(userID, "New message", "body")
	dispatcher.Close()
}

func TestNotifyNeverBlocks(t *testing.T) {
	tokens := &fakeTokens{tokens: map[uuid.UUID]string{}}
	dispatcher := NewDispatcher(tokens, &fakeSender{})
	// Run is intentionally not started; the queue fills up and overflow
	// notifications are dropped instead of blocking the caller.
	for i := 0; i < defaultQueueSize+10; i++ {
		dispatcher.Notify(uuid.New(), "New message", "body")
	}
}
