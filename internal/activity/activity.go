// Package activity keeps the rolling log buffer and the auto-dismissing
// toasts shown by the desk.
package activity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/common"

	"github.com/google/uuid"
)

const (
	MaxEntries      = 200
	ToastTTL        = 3 * time.Second
	maxToastMessage = 100
)

// Kind classifies log entries and toasts
type Kind string

const (
	KindSuccess  Kind = "success"
	KindError    Kind = "error"
	KindInfo     Kind = "info"
	KindWarning  Kind = "warning"
	KindContract Kind = "contract" // toast only
)

// Entry is one log line
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      Kind              `json:"type"`
	Action    string            `json:"action"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// Toast is a short-lived notification
type Toast struct {
	ID        string    `json:"id"`
	Type      Kind      `json:"type"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Actions with special toast handling
const (
	ActionTokenLaunch  = "Token Launch"
	ActionBundleLaunch = "Bundle Launch"
	ActionTrade        = "Trade Action"
)

// Feed is the log buffer plus toasts. Safe for concurrent use.
type Feed struct {
	mu      sync.Mutex
	entries []Entry // newest first
	toasts  []Toast
	now     func() time.Time
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{now: time.Now}
}

// Log prepends an entry, trims the buffer to MaxEntries and raises a toast.
// details["mint"] on a successful launch turns the toast into a contract toast.
func (f *Feed) Log(kind Kind, action, message string, details map[string]string) Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := Entry{
		ID:        uuid.NewString(),
		Timestamp: f.now().UTC(),
		Type:      kind,
		Action:    action,
		Message:   message,
		Details:   details,
	}
	f.entries = append([]Entry{e}, f.entries...)
	if len(f.entries) > MaxEntries {
		f.entries = f.entries[:MaxEntries]
	}

	switch {
	case kind == KindSuccess && details["mint"] != "" && (strings.Contains(action, ActionTokenLaunch) || strings.Contains(action, ActionBundleLaunch)):
		f.addToastLocked(KindContract, fmt.Sprintf("CA: %s", details["mint"]))
	case kind == KindSuccess && strings.Contains(strings.ToLower(action), strings.ToLower(ActionTrade)):
		f.addToastLocked(KindSuccess, "Trade successful!")
	default:
		f.addToastLocked(kind, common.Truncate(message, maxToastMessage))
	}
	return e
}

// Toast raises a toast without a log entry
func (f *Feed) Toast(kind Kind, message string) Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addToastLocked(kind, message)
}

func (f *Feed) addToastLocked(kind Kind, message string) Toast {
	t := Toast{
		ID:        uuid.NewString(),
		Type:      kind,
		Message:   message,
		ExpiresAt: f.now().Add(ToastTTL),
	}
	f.pruneLocked()
	f.toasts = append(f.toasts, t)
	return t
}

// Entries returns up to limit entries, newest first. limit <= 0 means all.
func (f *Feed) Entries(limit int) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, f.entries[:n])
	return out
}

// Active returns toasts that have not expired, oldest first
func (f *Feed) Active() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pruneLocked()
	out := make([]Toast, len(f.toasts))
	copy(out, f.toasts)
	return out
}

// Dismiss removes a toast; it reports whether the toast was still active
func (f *Feed) Dismiss(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pruneLocked()
	for i, t := range f.toasts {
		if t.ID == id {
			f.toasts = append(f.toasts[:i], f.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the log buffer
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
}

func (f *Feed) pruneLocked() {
	now := f.now()
	kept := f.toasts[:0]
	for _, t := range f.toasts {
		if now.Before(t.ExpiresAt) {
			kept = append(kept, t)
		}
	}
	f.toasts = kept
}
