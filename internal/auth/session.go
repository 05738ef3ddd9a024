package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSessionTTL bounds how long a login stays valid
const DefaultSessionTTL = 24 * time.Hour

type session struct {
	username  string
	expiresAt time.Time
}

// Sessions issues bearer tokens after a successful lookup.
// A nil directory disables authentication.
type Sessions struct {
	mu        sync.Mutex
	sessions  map[string]session
	directory Directory
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewSessions(directory Directory, ttl time.Duration, logger *zap.Logger) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		sessions:  make(map[string]session),
		directory: directory,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Enabled reports whether logins are checked
func (s *Sessions) Enabled() bool {
	return s.directory != nil
}

// Login checks c and returns a new session token
func (s *Sessions) Login(ctx context.Context, c Credentials) (string, error) {
	c.Username = strings.TrimSpace(c.Username)
	c.InviteCode = strings.TrimSpace(c.InviteCode)
	if c.Username == "" || c.InviteCode == "" {
		return "", ErrInvalidCredentials
	}

	username := c.Username
	if s.Enabled() {
		var err error
		if username, err = s.directory.Lookup(ctx, c); err != nil {
			return "", err
		}
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = session{username: username, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	s.logger.Info("User logged in", zap.String("username", username))
	return token, nil
}

// Logout drops the session for token
func (s *Sessions) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Username returns the user of a live session
func (s *Sessions) Username(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return "", false
	}
	if !s.now().Before(sess.expiresAt) {
		delete(s.sessions, token)
		return "", false
	}
	return sess.username, true
}

// BearerToken extracts the token from the Authorization header
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without a live session, except for public paths.
// It passes everything through when authentication is disabled.
func (s *Sessions) Middleware(next http.Handler, public ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Enabled() || r.Method == http.MethodOptions || isPublic(r.URL.Path, public) {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := s.Username(BearerToken(r)); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(model.ErrorResponse{Error: "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if strings.HasSuffix(p, "/") && strings.HasPrefix(path, p) {
			return true
		}
		if path == p {
			return true
		}
	}
	return false
}
