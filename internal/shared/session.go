package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionManager keeps staff sessions in Redis under "session:<id>". The
// browser only ever holds the id, in an HttpOnly SameSite=Strict cookie.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// Session is the decoded state of one browser session. Mutations are held
// in memory until the manager commits them.
type Session struct {
	ID      string
	values  map[string]string
	staffID string

	// previous is the id replaced by Renew; Commit deletes it.
	previous  string
	stored    bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	Values map[string]string `json:"values"`
	UserID string            `json:"user_id"`
}

// NewSessionManager constructs a SessionManager. The secret is accepted for
// configuration symmetry with the CSRF manager; session ids are random and
// never derived from it.
func NewSessionManager(client *redis.Client, cookieName string, _ string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// Load returns the session named by the request cookie. A missing cookie or
// an expired id yields a fresh anonymous session with a new id.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && cookie.Value == "") {
		return newSession(), nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := sm.client.Get(ctx, sessionKeyPrefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return newSession(), nil
	}
	if err != nil {
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	if stored.Values == nil {
		stored.Values = make(map[string]string)
	}
	return &Session{ID: cookie.Value, values: stored.Values, staffID: stored.UserID, stored: true}, nil
}

// Commit writes pending changes to Redis and refreshes the cookie.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, _ *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}
	if sess.previous != "" {
		if err := sm.client.Del(ctx, sessionKeyPrefix+sess.previous).Err(); err != nil {
			return err
		}
		sess.previous = ""
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sessionKeyPrefix+sess.ID).Err(); err != nil {
			return err
		}
		http.SetCookie(w, sm.cookie("", -1))
		return nil
	}

	if sess.dirty || !sess.stored {
		data, err := json.Marshal(sessionPayload{Values: sess.values, UserID: sess.staffID})
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sessionKeyPrefix+sess.ID, data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
		sess.stored = true
	}

	http.SetCookie(w, sm.cookie(sess.ID, int(sm.ttl/time.Second)))
	return nil
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Destroy marks the session for deletion on commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess != nil {
		sess.destroyed = true
	}
}

// TTL is the idle lifetime of a session.
func (sm *SessionManager) TTL() time.Duration { return sm.ttl }

// CookieName returns the session cookie name.
func (sm *SessionManager) CookieName() string { return sm.cookieName }

// Set stores a value.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get returns a value or "".
func (s *Session) Get(key string) string {
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// SetUser binds the session to a staff id.
func (s *Session) SetUser(id string) {
	s.staffID = id
	s.dirty = true
}

// User returns the bound staff id, or "" for anonymous sessions.
func (s *Session) User() string {
	return s.staffID
}

// StaffID parses the bound staff id.
func (s *Session) StaffID() (int64, bool) {
	if s == nil || s.staffID == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s.staffID, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Renew moves the session to a new id, keeping its values. Called on
// login so a pre-authentication id never becomes an authenticated one.
func (s *Session) Renew() {
	if s.stored && s.previous == "" {
		s.previous = s.ID
	}
	s.ID = newSessionID()
	s.stored = false
	s.dirty = true
}

func newSession() *Session {
	return &Session{ID: newSessionID(), values: make(map[string]string), dirty: true}
}

func newSessionID() string {
	return uuid.NewString()
}
