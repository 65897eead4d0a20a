package main

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// recordingRoom is a RoomContext that keeps everything sent to it
type recordingRoom struct {
	id         string
	modchat    string
	broadcasts []string
}

func newRecordingRoom() *recordingRoom {
	return &recordingRoom{id: "mafia"}
}

func (r *recordingRoom) ID() string              { return r.id }
func (r *recordingRoom) SetModchat(level string) { r.modchat = level }
func (r *recordingRoom) Broadcast(html string)   { r.broadcasts = append(r.broadcasts, html) }

// saw reports whether any broadcast contains text
func (r *recordingRoom) saw(text string) bool {
	for _, b := range r.broadcasts {
		if strings.Contains(b, text) {
			return true
		}
	}
	return false
}

// testUser is a UserContext for dispatch tests
type testUser struct {
	name  string
	admin bool
}

func (u testUser) ID() string   { return toID(u.name) }
func (u testUser) Name() string { return u.name }
func (u testUser) Can(permission string) bool {
	return permission == PermissionGames && u.admin
}

// identityShuffle keeps join order, so the i-th player gets the i-th cycle role
func identityShuffle(int, func(i, j int)) {}

// newTestSession starts a game whose players get roles[i] in join order and
// are named p0, p1, ...
func newTestSession(t *testing.T, roles ...string) (*GameSession, *recordingRoom) {
	t.Helper()
	room := newRecordingRoom()
	s := NewGameSession(room, NewRoleCatalog(roleDefinitions, roles))
	s.shuffle = identityShuffle

	require.NoError(t, s.Start())
	for i := range roles {
		name := fmt.Sprintf("p%d", i)
		require.NoError(t, s.Join(toID(name), name))
	}
	require.NoError(t, s.EndSignups())
	return s, room
}

// newTestRoster builds a roster of players p0, p1, ... holding roles in order
func newTestRoster(t *testing.T, roles ...string) (*Roster, *RoleCatalog) {
	t.Helper()
	catalog := NewRoleCatalog(roleDefinitions, roles)
	r := newRoster()
	for i := range roles {
		name := fmt.Sprintf("p%d", i)
		require.NoError(t, r.Add(toID(name), name))
	}
	_, err := r.AssignRoles(catalog, identityShuffle)
	require.NoError(t, err)
	return r, catalog
}

// TestContext holds an isolated server: its own database, hub and rooms
type TestContext struct {
	t      *testing.T
	server *httptest.Server
	db     *sqlx.DB
	hub    *Hub
}

// newTestDB opens a private in-memory database and installs it as the global db
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	testDB, err := sqlx.Connect("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	testDB.SetMaxOpenConns(1)

	db = testDB
	require.NoError(t, initDB())
	t.Cleanup(func() {
		testDB.Close()
		db = nil
	})
	return testDB
}

// newTestContext starts a server with "mafia" as game room and "admin" as moderator
func newTestContext(t *testing.T) *TestContext {
	t.Helper()

	testDB := newTestDB(t)
	appConfig = defaultConfig()
	appConfig.Admins = []string{"admin"}

	testHub := newHub()
	testHub.start()
	hub = testHub
	rooms = newRoomRegistry(testHub, []string{"mafia"}, DefaultCatalog(), nil)

	server := httptest.NewServer(newRouter(nil))
	t.Cleanup(func() {
		server.Close()
		testHub.stop()
	})
	return &TestContext{t: t, server: server, db: testDB, hub: testHub}
}

// client returns an HTTP client with its own cookie jar
func (tc *TestContext) client() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(tc.t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// signup creates an account and returns a logged-in client
func (tc *TestContext) signup(name string) (*http.Client, *http.Response) {
	c := tc.client()
	resp, err := c.PostForm(tc.server.URL+"/signup", url.Values{"name": {name}})
	require.NoError(tc.t, err)
	return c, resp
}
