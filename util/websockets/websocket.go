package websockets

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub is the room registry for meeting chats: one room per meeting id,
// holding the live connections of that meeting's open chat windows. All room
// mutation and broadcasting happens on the Run loop, so every member of a
// room observes messages in the same order.
type Hub struct {
	chat ChatService
	auth AuthFunc

	clients map[*Client]map[string]bool
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	join       chan subscription
	broadcast  chan RoomMessage
	done       chan struct{}
}

// NewHub initializes a Hub
func NewHub(chat ChatService, auth AuthFunc) *Hub {
	return &Hub{
		chat:       chat,
		auth:       auth,
		clients:    make(map[*Client]map[string]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan subscription),
		broadcast:  make(chan RoomMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop and serves it until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = make(map[string]bool)

		case client := <-h.unregister:
			h.dropClient(client)

		case sub := <-h.join:
			if _, exists := h.clients[sub.client]; !exists {
				continue
			}
			room, exists := h.rooms[sub.room]
			if !exists {
				room = make(map[*Client]bool)
				h.rooms[sub.room] = room
			}
			room[sub.client] = true
			h.clients[sub.client][sub.room] = true

		case message := <-h.broadcast:
			for client := range h.rooms[message.Room] {
				select {
				case client.send <- message.Data:
				default:
					// Slow consumer, cut it loose.
					h.dropClient(client)
				}
			}
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	joined, exists := h.clients[client]
	if !exists {
		return
	}
	for room := range joined {
		delete(h.rooms[room], client)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.clients, client)
	close(client.send)
}

// HandleConnections upgrades HTTP requests to WebSocket connections. The
// connection authenticates with a token query parameter before upgrade.
func (h *Hub) HandleConnections(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket Upgrade Error:", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 32),
		UserID: userID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
