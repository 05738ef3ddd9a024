package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/activity"
	"github.com/AlexZinkM/pump-desk/internal/auth"
	"github.com/AlexZinkM/pump-desk/internal/model"
	"github.com/AlexZinkM/pump-desk/internal/settings"

	"go.uber.org/zap"
)

// History reads the outcome journal
type History interface {
	Query(ctx context.Context, req *model.HistoryRequest) (*model.HistoryResponse, error)
}

// LoginResponse represents response for POST /auth/login
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// DeskHandler serves settings, the activity feed, history and login
type DeskHandler struct {
	settings *settings.Manager
	feed     *activity.Feed
	history  History
	sessions *auth.Sessions
	logger   *zap.Logger
}

func NewDeskHandler(manager *settings.Manager, feed *activity.Feed, history History, sessions *auth.Sessions, logger *zap.Logger) *DeskHandler {
	return &DeskHandler{
		settings: manager,
		feed:     feed,
		history:  history,
		sessions: sessions,
		logger:   logger,
	}
}

// Login handles POST /auth/login
// @Summary      Log in
// @Description  Checks username and invite code against the allowed users and returns a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      auth.Credentials  true  "Credentials"
// @Success      200      {object}  LoginResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /auth/login [post]
func (h *DeskHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req auth.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.sessions.Login(r.Context(), req)
	if err != nil {
		h.logger.Warn("Login failed", zap.String("username", req.Username), zap.Error(err))
		writeErr(w, err)
		return
	}
	username, _ := h.sessions.Username(token)
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Username: username})
}

// Logout handles POST /auth/logout
// @Summary      Log out
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *DeskHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	h.sessions.Logout(auth.BearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

// Settings handles GET and PUT /settings
// @Summary      Get or replace settings
// @Description  Settings are one flat object; PUT replaces it as a whole
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      settings.Settings  false  "Settings (PUT)"
// @Success      200      {object}  settings.Settings
// @Failure      400      {object}  model.ErrorResponse
// @Router       /settings [get]
// @Router       /settings [put]
func (h *DeskHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPut) {
		return
	}
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, h.settings.Get())
		return
	}

	next := settings.Default()
	if !decodeJSON(w, r, &next) {
		return
	}
	if err := next.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.settings.Replace(next); err != nil {
		h.logger.Error("Failed to save settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.settings.Get())
}

// Logs handles GET and DELETE /logs
// @Summary      Activity log
// @Description  GET returns entries newest first. DELETE clears the log
// @Tags         activity
// @Produce      json
// @Param        limit  query  int  false  "Max entries"
// @Success      200    {array}  activity.Entry
// @Success      204
// @Router       /logs [get]
// @Router       /logs [delete]
func (h *DeskHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodDelete) {
		return
	}
	if r.Method == http.MethodDelete {
		h.feed.Clear()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = v
	}
	writeJSON(w, http.StatusOK, h.feed.Entries(limit))
}

// Toasts handles GET /toasts
// @Summary      Active toasts
// @Tags         activity
// @Produce      json
// @Success      200  {array}  activity.Toast
// @Router       /toasts [get]
func (h *DeskHandler) Toasts(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.feed.Active())
}

// DismissToast handles DELETE /toasts/{id}
// @Summary      Dismiss toast
// @Tags         activity
// @Param        id   path  string  true  "Toast ID"
// @Success      204
// @Failure      404  {object}  model.ErrorResponse
// @Router       /toasts/{id} [delete]
func (h *DeskHandler) DismissToast(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodDelete) {
		return
	}
	if !h.feed.Dismiss(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "toast not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /history
// @Summary      Outcome history
// @Description  Returns journaled flow outcomes, newest first, with optional filters
// @Tags         activity
// @Produce      json
// @Param        action     query     string  false  "create, buy or sell"
// @Param        status     query     string  false  "success or error"
// @Param        walletId   query     string  false  "Wallet ID"
// @Param        mint       query     string  false  "Token mint"
// @Param        from       query     string  false  "RFC3339 lower bound"
// @Param        to         query     string  false  "RFC3339 upper bound"
// @Param        minAmount  query     string  false  "Min SOL amount"
// @Param        maxAmount  query     string  false  "Max SOL amount"
// @Param        limit      query     int     false  "Max records (default 100)"
// @Success      200        {object}  model.HistoryResponse
// @Failure      400        {object}  model.ErrorResponse
// @Router       /history [get]
func (h *DeskHandler) History(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	req, err := parseHistoryRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.history.Query(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to query history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseHistoryRequest(r *http.Request) (*model.HistoryRequest, error) {
	q := r.URL.Query()
	req := &model.HistoryRequest{}

	optional := func(key string) *string {
		if v := q.Get(key); v != "" {
			return &v
		}
		return nil
	}
	req.Action = optional("action")
	req.WalletID = optional("walletId")
	req.Mint = optional("mint")
	req.MinAmount = optional("minAmount")
	req.MaxAmount = optional("maxAmount")
	if v := q.Get("status"); v != "" {
		status := model.Status(v)
		req.Status = &status
	}

	for key, dst := range map[string]**time.Time{"from": &req.From, "to": &req.To} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, err
			}
			*dst = &t
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		req.Limit = limit
	}
	return req, nil
}
