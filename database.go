package main

import (
	"log"
	"time"
)

// Account is a registered chat user
type Account struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	UserID     string `db:"userid"` // toID(Name), the identity the game sees
	SecretHash string `db:"secret_hash"`
	IsAdmin    bool   `db:"is_admin"`
}

// RoomMessage is one transcript line of a room
type RoomMessage struct {
	ID        string    `db:"id" json:"id"`
	Room      string    `db:"room" json:"room"`
	Kind      string    `db:"kind" json:"kind"` // chat, broadcast
	Author    string    `db:"author" json:"author,omitempty"`
	HTML      string    `db:"html" json:"html"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Transcript message kinds
const (
	MessageChat      = "chat"
	MessageBroadcast = "broadcast"
)

// getAccountByName finds the account whose normalized id matches name
func getAccountByName(name string) (Account, error) {
	var a Account
	err := db.Get(&a, "SELECT rowid as id, name, userid, secret_hash, is_admin FROM player WHERE userid = ?", toID(name))
	return a, err
}

func getAccountByID(id int64) (Account, error) {
	var a Account
	err := db.Get(&a, "SELECT rowid as id, name, userid, secret_hash, is_admin FROM player WHERE rowid = ?", id)
	return a, err
}

func createAccount(name, secretHash string, isAdmin bool) (int64, error) {
	result, err := db.Exec("INSERT INTO player (name, userid, secret_hash, is_admin) VALUES (?, ?, ?, ?)",
		name, toID(name), secretHash, isAdmin)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func createSession(token, accountID int64) error {
	_, err := db.Exec("INSERT INTO session (token, player_id) VALUES (?, ?)", token, accountID)
	return err
}

func getAccountIDBySession(token int64) (int64, error) {
	var id int64
	err := db.Get(&id, "SELECT player_id FROM session WHERE token = ?", token)
	return id, err
}

func deleteSession(token int64) error {
	_, err := db.Exec("DELETE FROM session WHERE token = ?", token)
	return err
}

func insertRoomMessage(m RoomMessage) error {
	_, err := db.NamedExec(`INSERT INTO room_message (id, room, kind, author, html, created_at)
		VALUES (:id, :room, :kind, :author, :html, :created_at)`, m)
	return err
}

// getRoomHistory returns the latest limit messages of a room, oldest first
func getRoomHistory(room string, limit int) ([]RoomMessage, error) {
	var msgs []RoomMessage
	err := db.Select(&msgs, `
		SELECT id, room, kind, author, html, created_at FROM (
			SELECT rowid as seq, id, room, kind, author, html, created_at
			FROM room_message
			WHERE room = ?
			ORDER BY rowid DESC
			LIMIT ?
		) ORDER BY seq ASC`, room, limit)
	return msgs, err
}

func initDB() error {
	schema := `
	PRAGMA journal_mode=WAL;

	CREATE TABLE IF NOT EXISTS player (
		name TEXT UNIQUE NOT NULL,
		userid TEXT UNIQUE NOT NULL,
		secret_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS session (
		token INTEGER PRIMARY KEY,
		player_id INTEGER NOT NULL,
		FOREIGN KEY (player_id) REFERENCES player(rowid)
	);
	CREATE TABLE IF NOT EXISTS room_message (
		id TEXT PRIMARY KEY,
		room TEXT NOT NULL,
		kind TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		html TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_room_message_room ON room_message(room);
	`
	_, err := db.Exec(schema)
	if err != nil {
		log.Printf("initDB error: %v", err)
		return err
	}
	return nil
}
