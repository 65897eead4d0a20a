package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// rooms is the server's room registry
var rooms *RoomRegistry

func handleWSMessage(client *Client, message []byte) {
	var msg WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("WebSocket unmarshal error for %s: %v", client.name, err)
		return
	}

	LogWSMessage("IN", client.name, string(message))

	switch msg.Action {
	case "join":
		room := rooms.Get(msg.Room)
		hub.moveClient(client, room.ID())
		hub.sendToClient(client, []byte(renderToast("info", "You joined "+room.ID())))
	case "say":
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return
		}
		room := rooms.Get(hub.roomOf(client))
		if strings.HasPrefix(text, "/") {
			hub.sendToClient(client, []byte(room.Command(client, text)))
			return
		}
		if err := room.Say(client, text); err != nil {
			hub.sendToClient(client, []byte(errorReply(err)))
		}
	default:
		log.Printf("Unknown action: %s from %s (%s)", msg.Action, client.name, client.id)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	account, err := getAccountFromSession(r)
	if err != nil {
		DebugLog("handleWebSocket", "Rejected WebSocket connection - not logged in")
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	room := rooms.Get(r.URL.Query().Get("room"))
	DebugLog("handleWebSocket", "'%s' (ID: %d) initiating WebSocket connection to room %s", account.Name, account.ID, room.ID())

	var upgrader = websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error for %s: %v", account.Name, err)
		return
	}

	h := hub
	client := newClient(conn, account, room.ID())
	h.register <- client

	go func() {
		defer func() {
			h.unregister <- conn
		}()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}
			handleWSMessage(client, message)
		}
	}()
}
