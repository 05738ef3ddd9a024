// Package auth gates the desk API behind an invite-code login checked
// against the allowed_users table of a Supabase project.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned when no allowed user matches
var ErrInvalidCredentials = errors.New("invalid username or invite code")

// Credentials are the login form fields
type Credentials struct {
	Username   string `json:"username" binding:"required"`
	InviteCode string `json:"inviteCode" binding:"required"`
}

// Directory checks credentials against the allowed users
type Directory interface {
	Lookup(ctx context.Context, c Credentials) (string, error)
}

// SupabaseDirectory queries the allowed_users table over PostgREST
type SupabaseDirectory struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSupabaseDirectory creates a directory for the project at baseURL
func NewSupabaseDirectory(baseURL, apiKey string, timeout time.Duration) *SupabaseDirectory {
	return &SupabaseDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type allowedUser struct {
	Username string `json:"username"`
}

// Lookup returns the matching username or ErrInvalidCredentials
func (d *SupabaseDirectory) Lookup(ctx context.Context, c Credentials) (string, error) {
	q := url.Values{}
	q.Set("select", "username")
	q.Set("username", "eq."+c.Username)
	q.Set("invite_code", "eq."+c.InviteCode)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/rest/v1/allowed_users?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", d.apiKey)
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query allowed users: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth API returned status %d: %s", resp.StatusCode, string(body))
	}

	var users []allowedUser
	if err := json.Unmarshal(body, &users); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(users) == 0 {
		return "", ErrInvalidCredentials
	}
	return users[0].Username, nil
}
