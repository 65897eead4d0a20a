package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect signs up name and opens a websocket into room
func (tc *TestContext) connect(name, room string) *websocket.Conn {
	tc.t.Helper()
	c, resp := tc.signup(name)
	resp.Body.Close()
	require.Equal(tc.t, http.StatusCreated, resp.StatusCode)

	u, err := url.Parse(tc.server.URL)
	require.NoError(tc.t, err)
	header := http.Header{}
	for _, cookie := range c.Jar.Cookies(u) {
		header.Add("Cookie", cookie.String())
	}

	wsURL := "ws" + strings.TrimPrefix(tc.server.URL, "http") + "/ws?room=" + room
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(tc.t, err)
	tc.t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// readUntil reads messages until one contains text
func readUntil(t *testing.T, conn *websocket.Conn, text string) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", text)
		if strings.Contains(string(data), text) {
			return string(data)
		}
	}
}

func TestWebSocketRequiresLogin(t *testing.T) {
	tc := newTestContext(t)
	wsURL := "ws" + strings.TrimPrefix(tc.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCommandsOverWebSocket(t *testing.T) {
	tc := newTestContext(t)
	admin := tc.connect("Admin", "mafia")
	bob := tc.connect("Bob", "mafia")

	send(t, bob, WSMessage{Action: "say", Text: "/mafiahelp"})
	readUntil(t, bob, "/joinmafia")

	send(t, bob, WSMessage{Action: "say", Text: "/startmafia"})
	readUntil(t, bob, "Access denied.")

	send(t, admin, WSMessage{Action: "say", Text: "/startmafia"})
	readUntil(t, bob, "A new mafia game has been started!")
	readUntil(t, admin, "Mafia signups are open.")

	send(t, bob, WSMessage{Action: "say", Text: "/joinmafia"})
	readUntil(t, admin, "Bob has joined! Total players: 1")

	resp, err := http.Get(tc.server.URL + "/rooms/mafia/game")
	require.NoError(t, err)
	defer resp.Body.Close()
	var state GameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, PhaseSignup, state.Phase)
	assert.Equal(t, []string{"Bob"}, state.Players)
}

func TestCommandsOutsideGameRoom(t *testing.T) {
	tc := newTestContext(t)
	carol := tc.connect("Carol", "lobby")

	send(t, carol, WSMessage{Action: "say", Text: "/joinmafia"})
	readUntil(t, carol, "This command can only be used in a mafia room.")

	send(t, carol, WSMessage{Action: "join", Room: "mafia"})
	readUntil(t, carol, "You joined mafia")
	send(t, carol, WSMessage{Action: "say", Text: "/players"})
	readUntil(t, carol, "a mafia game hasn&#39;t started yet")

	resp, err := http.Get(tc.server.URL + "/rooms/lobby/game")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestModeratedChat(t *testing.T) {
	tc := newTestContext(t)
	admin := tc.connect("Admin", "mafia")
	bob := tc.connect("Bob", "mafia")

	send(t, bob, WSMessage{Action: "say", Text: "evening all"})
	readUntil(t, admin, "evening all")

	room := rooms.Get("mafia")
	room.mu.Lock()
	room.SetModchat(ModchatVoice)
	room.mu.Unlock()

	send(t, bob, WSMessage{Action: "say", Text: "psst"})
	readUntil(t, bob, "the room is moderated")

	send(t, admin, WSMessage{Action: "say", Text: "quiet please"})
	readUntil(t, bob, "quiet please")

	resp, err := http.Get(tc.server.URL + "/rooms/mafia/history?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	var history HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))

	require.Len(t, history.Messages, 2, "the rejected line is not recorded")
	assert.Equal(t, "Bob", history.Messages[0].Author)
	assert.Contains(t, history.Messages[0].HTML, "evening all")
	assert.Equal(t, "Admin", history.Messages[1].Author)
	assert.Equal(t, MessageChat, history.Messages[1].Kind)
}

func TestHistoryLimit(t *testing.T) {
	tc := newTestContext(t)
	resp, err := http.Get(tc.server.URL + "/rooms/mafia/history?limit=zero")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	room := rooms.Get("mafia")
	for i := 0; i < 3; i++ {
		room.Broadcast(renderBroadcast("announcement"))
	}
	resp, err = http.Get(tc.server.URL + "/rooms/mafia/history?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	var history HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	assert.Equal(t, "mafia", history.Room)
	assert.Len(t, history.Messages, 2)
	assert.Equal(t, MessageBroadcast, history.Messages[0].Kind)
}
