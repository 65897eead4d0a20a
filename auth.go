package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"math/big"
	"net/http"
	"strconv"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookieName = "mafia_session"

// AuthResponse is returned by signup and login. SecretCode is only set on signup.
type AuthResponse struct {
	Name       string `json:"name"`
	IsAdmin    bool   `json:"is_admin"`
	SecretCode string `json:"secret_code,omitempty"`
}

func generateSecretCode() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func setSessionCookie(w http.ResponseWriter, accountID int64) error {
	tokenBig, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return err
	}
	token := tokenBig.Int64()

	if err := createSession(token, accountID); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    strconv.FormatInt(token, 10),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func sessionToken(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return -1, err
	}
	return strconv.ParseInt(cookie.Value, 10, 64)
}

func getAccountFromSession(r *http.Request) (Account, error) {
	token, err := sessionToken(r)
	if err != nil {
		return Account{}, err
	}
	id, err := getAccountIDBySession(token)
	if err != nil {
		return Account{}, err
	}
	return getAccountByID(id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func handleSignup(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if name == "" || toID(name) == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	_, err := getAccountByName(name)
	if err == nil {
		http.Error(w, "Name already taken. Use login with secret code if this is you.", http.StatusConflict)
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logError("handleSignup: getAccountByName", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	secretCode, err := generateSecretCode()
	if err != nil {
		logError("handleSignup: generateSecretCode", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secretCode), bcrypt.DefaultCost)
	if err != nil {
		logError("handleSignup: bcrypt", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	isAdmin := appConfig.isAdmin(name)
	accountID, err := createAccount(name, string(hash), isAdmin)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		http.Error(w, "Name already taken. Use login with secret code if this is you.", http.StatusConflict)
		return
	}
	if err != nil {
		logError("handleSignup: createAccount", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	log.Printf("New account created: name='%s', id=%d, admin=%v", name, accountID, isAdmin)
	DebugLog("handleSignup", "Account '%s' signed up with ID %d", name, accountID)
	LogDBState("after signup: " + name)

	if err := setSessionCookie(w, accountID); err != nil {
		logError("handleSignup: setSessionCookie", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{Name: name, IsAdmin: isAdmin, SecretCode: secretCode})
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	secretCode := r.FormValue("secret_code")

	if name == "" || secretCode == "" {
		http.Error(w, "Name and secret code are required", http.StatusBadRequest)
		return
	}

	account, err := getAccountByName(name)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Invalid name or secret code", http.StatusUnauthorized)
		return
	}
	if err != nil {
		logError("handleLogin: getAccountByName", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(secretCode)); err != nil {
		http.Error(w, "Invalid name or secret code", http.StatusUnauthorized)
		return
	}

	log.Printf("Account logged in: name='%s', id=%d", name, account.ID)
	DebugLog("handleLogin", "Account '%s' logged in with ID %d", name, account.ID)
	if err := setSessionCookie(w, account.ID); err != nil {
		logError("handleLogin: setSessionCookie", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Name: account.Name, IsAdmin: account.IsAdmin})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, err := sessionToken(r); err == nil {
		if err := deleteSession(token); err != nil {
			logError("handleLogout: deleteSession", err)
		}
		DebugLog("handleLogout", "Session %d logged out", token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
