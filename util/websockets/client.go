package websockets

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ayilmaz/meetspot/util"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	eventTimeout   = 10 * time.Second
)

// Client is one live WebSocket connection with an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID uuid.UUID
}

// detach hands the connection back to the hub. When the hub has already shut
// down there is no receiver on the unregister channel, so detach must not
// block on it.
func (c *Client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var event InboundEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Println("Invalid JSON:", err)
			continue
		}

		switch event.Event {
		case EventJoinRoom:
			c.handleJoinRoom(event)
		case EventSendMessage:
			c.handleSendMessage(event)
		}
	}
}

func (c *Client) handleJoinRoom(event InboundEvent) {
	meetingID, err := uuid.Parse(event.MeetingID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if err := c.hub.chat.CanJoinRoom(ctx, meetingID, c.UserID); err != nil {
		log.Printf("user %s denied chat room %s: %v", c.UserID, meetingID, err)
		return
	}
	c.hub.join <- subscription{client: c, room: event.MeetingID}
}

func (c *Client) handleSendMessage(event InboundEvent) {
	// Blank messages are dropped without an error, same as blank input in
	// the meeting forms.
	if !util.NotBlank(event.Text) {
		return
	}

	meetingID, err := uuid.Parse(event.MeetingID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	message, err := c.hub.chat.SaveMessage(ctx, meetingID, c.UserID, event.Text)
	if err != nil {
		log.Printf("error saving chat message from %s: %v", c.UserID, err)
		return
	}

	data, err := json.Marshal(OutboundEvent{Event: EventNewMessage, Message: &message})
	if err != nil {
		log.Printf("error marshalling chat message: %v", err)
		return
	}
	c.hub.broadcast <- RoomMessage{Room: event.MeetingID, Data: data}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
