// Package auth carries the session identity for API requests. The Wisp
// client authenticates against its hosted identity provider; this server
// only needs to know which user a request belongs to, so the session cookie
// stores the already-authenticated user id and display name.
package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "wisp-session"
	keyUserID   = "user_id"
	keyUsername = "username"
)

type Sessions struct {
	store *sessions.CookieStore
}

func New(secret string) *Sessions {
	return &Sessions{store: sessions.NewCookieStore([]byte(secret))}
}

// Identity pulls the user id and display name off the request's session.
// An empty user id means the request is unauthenticated.
func (s *Sessions) Identity(r *http.Request) (userID, username string) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return "", ""
	}
	userID, _ = session.Values[keyUserID].(string)
	username, _ = session.Values[keyUsername].(string)
	return userID, username
}

// BeginHandler starts a session for an externally-authenticated user.
func (s *Sessions) BeginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, _ := s.store.Get(r, sessionName)
	session.Values[keyUserID] = req.UserID
	session.Values[keyUsername] = req.Username
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndHandler clears the session. onEnd runs with the departing user id so
// callers can release per-session state.
func (s *Sessions) EndHandler(onEnd func(userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.store.Get(r, sessionName)
		userID, _ := session.Values[keyUserID].(string)

		session.Options.MaxAge = -1
		_ = session.Save(r, w)

		if userID != "" && onEnd != nil {
			onEnd(userID)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RequireUser rejects requests without a session identity.
func (s *Sessions) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, _ := s.Identity(r); userID == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
