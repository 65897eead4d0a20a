package main

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSMessage represents a message from the client
type WSMessage struct {
	Action string `json:"action"` // say, join
	Room   string `json:"room,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Client represents a websocket connection of a logged-in account
type Client struct {
	id        string // connection id
	conn      *websocket.Conn
	accountID int64
	name      string
	isAdmin   bool
	room      string     // guarded by Hub.mu
	writeMu   sync.Mutex // Serialize writes to WebSocket (required by gorilla/websocket)
}

// ID is the normalized user id used by the game
func (c *Client) ID() string { return toID(c.name) }

// Name is the account's display name
func (c *Client) Name() string { return c.name }

// Can reports whether the account holds a permission
func (c *Client) Can(permission string) bool {
	return permission == PermissionGames && c.isAdmin
}

func (c *Client) write(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

type roomMessage struct {
	room string
	data []byte
}

// Hub fans room messages out to the websocket clients subscribed to that room
type Hub struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan roomMessage
	register   chan *Client
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	done       chan struct{}
	wg         sync.WaitGroup
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan roomMessage),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn, 64),
		done:       make(chan struct{}),
	}
}

// stop signals the hub goroutine to exit and waits for it to finish
func (h *Hub) stop() {
	close(h.done)
	h.wg.Wait()
}

var hub = newHub()

func newClient(conn *websocket.Conn, account Account, room string) *Client {
	return &Client{
		id:        uuid.NewString(),
		conn:      conn,
		accountID: account.ID,
		name:      account.Name,
		isAdmin:   account.IsAdmin,
		room:      room,
	}
}

// sendToRoom queues a message for every client in room
func (h *Hub) sendToRoom(room string, message []byte) {
	select {
	case h.broadcast <- roomMessage{room: room, data: message}:
	case <-h.done:
	}
}

// sendToClient writes a message to a single connection
func (h *Hub) sendToClient(client *Client, message []byte) {
	LogWSMessage("OUT", client.name, string(message))
	if err := client.write(message); err != nil {
		log.Printf("WebSocket write error to %s (%s): %v", client.name, client.id, err)
	}
}

// roomOf returns the room a client is subscribed to
func (h *Hub) roomOf(client *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.room
}

// moveClient subscribes a client to another room
func (h *Hub) moveClient(client *Client, room string) {
	h.mu.Lock()
	client.room = room
	h.mu.Unlock()
	DebugLog("hub.move", "'%s' (%s) moved to room %s", client.name, client.id, room)
}

// roomSize returns the number of connections subscribed to room
func (h *Hub) roomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.room == room {
			n++
		}
	}
	return n
}

// start runs the hub loop in its own goroutine; stop waits for it
func (h *Hub) start() {
	h.wg.Add(1)
	go h.run()
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client connected (%s: %s, room %s). Total: %d", client.id, client.name, client.room, total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				DebugLog("hub.unregister", "'%s' (%s) disconnected", client.name, client.id)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected. Total: %d", total)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn, client := range h.clients {
				if client.room != msg.room {
					continue
				}
				if err := client.write(msg.data); err != nil {
					log.Printf("WebSocket write error: %v", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}
