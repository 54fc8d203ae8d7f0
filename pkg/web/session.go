package web

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
)

const sessionExpiry = time.Hour

type Session struct {
	Token      string
	Expiration time.Time
}

type sessionStore struct {
	mu       sync.Mutex
	sessions []Session
	now      func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{now: time.Now}
}

func getBearerToken(r *http.Request) (bool, string) {
	authHeader := r.Header.Get("authorization")

	if authHeader == "" {
		return false, ""
	}

	authPart := strings.Split(authHeader, " ")

	if len(authPart) != 2 || !strings.EqualFold(authPart[0], "bearer") {
		return false, ""
	}

	return true, authPart[1]
}

// browsers cannot set headers on a websocket upgrade
func getQueryToken(r *http.Request) (bool, string) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return false, ""
	}
	return true, token
}

func (s *sessionStore) get(r *http.Request, tokenExtractor func(r *http.Request) (bool, string)) (Session, bool) {
	tokenOK, token := tokenExtractor(r)
	if !tokenOK || token == "" {
		return Session{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, session := range s.sessions {
		if session.Token == token {

			if s.now().After(session.Expiration) {
				// Expired.
				s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
				return Session{}, false
			}

			return session, true
		}
	}

	return Session{}, false
}

func (s *sessionStore) create() Session {
	tokenBytes := securecookie.GenerateRandomKey(32)
	tokenHex := make([]byte, hex.EncodedLen(len(tokenBytes)))
	hex.Encode(tokenHex, tokenBytes)

	s.mu.Lock()
	defer s.mu.Unlock()

	session := Session{
		Token:      string(tokenHex),
		Expiration: s.now().Add(sessionExpiry),
	}
	s.sessions = append(s.sessions, session)
	return session
}

func (s *sessionStore) remove(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, session := range s.sessions {
		if session.Token == token {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return
		}
	}
}

func authReq(sessions *sessionStore, route string, next http.HandlerFunc) http.HandlerFunc {
	if route == "POST /authenticate" {
		return next
	}

	tokenExtractor := getBearerToken

	// Handle Websocket request authentication separately.
	if strings.HasPrefix(route, "/ws/") {
		tokenExtractor = getQueryToken
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sessions.get(r, tokenExtractor); !ok {
			sendErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		next.ServeHTTP(w, r)
	}
}

type AuthenticateRequestBody struct {
	Password string `json:"password"`
}

func (t api) authenticate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.sendError(w, http.StatusBadRequest, "Error reading request body")
		return
	}
	defer r.Body.Close()

	var requestBody AuthenticateRequestBody
	if err := json.Unmarshal(body, &requestBody); err != nil {
		t.sendError(w, http.StatusBadRequest, "Error parsing payload")
		return
	}

	if t.config.Password == "" ||
		subtle.ConstantTimeCompare([]byte(requestBody.Password), []byte(t.config.Password)) != 1 {
		t.log.WithField("origin", getOriginIP(r)).Warn("failed login")
		sendErrorResponse(w, http.StatusForbidden, "Invalid password")
		return
	}

	session := t.sessions.create()

	sendResponse(w, map[string]any{
		"success": true,
		"token":   session.Token,
	})
}

func (t api) logout(w http.ResponseWriter, r *http.Request) {
	_, token := getBearerToken(r)
	t.sessions.remove(token)

	sendResponse(w, map[string]any{
		"success": true,
	})
}
