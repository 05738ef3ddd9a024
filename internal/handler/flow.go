package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/AlexZinkM/pump-desk/internal/model"
	"github.com/AlexZinkM/pump-desk/internal/settings"
	"github.com/AlexZinkM/pump-desk/solana"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxImageBytes = 16 << 20

// GroupTradeRequest represents request for POST /groups/{id}/{action}.
// An empty mint falls back to the saved group trade mint.
type GroupTradeRequest struct {
	Mint string `json:"mint"`
}

// RandomizeRequest represents request for POST /groups/{id}/randomize
type RandomizeRequest struct {
	Kind string `json:"kind" binding:"required"` // buy or sell
	Min  string `json:"min" binding:"required"`
	Max  string `json:"max" binding:"required"`
}

// FlowHandler runs trades and launches
type FlowHandler struct {
	flows    *solana.Service
	settings *settings.Manager
	rnd      *rand.Rand // guarded by the settings manager lock
	logger   *zap.Logger
}

func NewFlowHandler(flows *solana.Service, manager *settings.Manager, logger *zap.Logger) *FlowHandler {
	return &FlowHandler{
		flows:    flows,
		settings: manager,
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:   logger,
	}
}

func (h *FlowHandler) params(w http.ResponseWriter) (model.TradeParams, bool) {
	params, err := h.settings.Get().TradeParams()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("invalid trade settings: %s", err))
		return model.TradeParams{}, false
	}
	return params, true
}

// Trade handles POST /trade
// @Summary      Buy or sell a token
// @Description  Buys (SOL amount) or sells (percentage) a token from every selected wallet in order. Per-wallet failures are reported in the outcomes
// @Tags         flows
// @Accept       json
// @Produce      json
// @Param        request  body      model.TradeRequest  true  "Trade"
// @Success      200      {object}  model.FlowResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /trade [post]
func (h *FlowHandler) Trade(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req model.TradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, ok := h.params(w)
	if !ok {
		return
	}

	resp, err := h.flows.Trade(r.Context(), req, params)
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.settings.Update(func(s *settings.Settings) error {
		s.TradeForm.Mint = resp.Mint
		s.TradeWalletIDs = append([]string(nil), req.WalletIDs...)
		if req.Action == model.ActionBuy {
			s.TradeForm.Amount = req.AmountSOL
		} else {
			s.TradeForm.SellPercentage = req.SellPercentage
		}
		return nil
	}); err != nil {
		h.logger.Warn("Failed to save trade form", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Launch handles POST /launch
// @Summary      Launch a token
// @Description  Uploads metadata and creates a token with a fresh mint and an initial buy by the creator wallet
// @Tags         flows
// @Accept       multipart/form-data
// @Produce      json
// @Param        creatorWalletId  formData  string  true   "Creator wallet ID"
// @Param        name             formData  string  true   "Token name"
// @Param        symbol           formData  string  false  "Token symbol (defaults to name when quick=true)"
// @Param        description      formData  string  false  "Description"
// @Param        twitter          formData  string  false  "Twitter"
// @Param        telegram         formData  string  false  "Telegram"
// @Param        website          formData  string  false  "Website"
// @Param        amount           formData  string  true   "Initial buy in SOL"
// @Param        quick            formData  bool    false  "Quick launch"
// @Param        image            formData  file    true   "Token image"
// @Success      200  {object}  model.FlowResponse
// @Failure      400  {object}  model.ErrorResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /launch [post]
func (h *FlowHandler) Launch(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	token, image, err := parseTokenForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quick, _ := strconv.ParseBool(r.FormValue("quick"))
	req := model.LaunchRequest{
		CreatorWalletID: r.FormValue("creatorWalletId"),
		Token:           token,
		AmountSOL:       r.FormValue("amount"),
		Image:           image,
		Quick:           quick,
	}

	params, ok := h.params(w)
	if !ok {
		return
	}
	resp, err := h.flows.Launch(r.Context(), req, params)
	if err != nil {
		writeErr(w, err)
		return
	}
	if resp.Success {
		h.rememberMint(resp.Mint)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Bundle handles POST /bundle
// @Summary      Launch a token as a bundle
// @Description  Creates a token and buys it from up to 4 wallets in one bundle. buyers is a JSON array of {walletId, amount}
// @Tags         flows
// @Accept       multipart/form-data
// @Produce      json
// @Param        creatorWalletId  formData  string  true   "Creator wallet ID"
// @Param        name             formData  string  true   "Token name"
// @Param        symbol           formData  string  true   "Token symbol"
// @Param        description      formData  string  false  "Description"
// @Param        amount           formData  string  true   "Creator buy in SOL"
// @Param        buyers           formData  string  false  "Buyer legs as JSON"
// @Param        image            formData  file    true   "Token image"
// @Success      200  {object}  model.FlowResponse
// @Failure      400  {object}  model.ErrorResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /bundle [post]
func (h *FlowHandler) Bundle(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	token, image, err := parseTokenForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := model.BundleRequest{
		CreatorWalletID: r.FormValue("creatorWalletId"),
		Token:           token,
		AmountSOL:       r.FormValue("amount"),
		Image:           image,
	}
	if raw := strings.TrimSpace(r.FormValue("buyers")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Buyers); err != nil {
			writeError(w, http.StatusBadRequest, "invalid buyers: "+err.Error())
			return
		}
	}

	params, ok := h.params(w)
	if !ok {
		return
	}
	resp, err := h.flows.Bundle(r.Context(), req, params)
	if err != nil {
		writeErr(w, err)
		return
	}
	if resp.Success {
		h.rememberMint(resp.Mint)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *FlowHandler) rememberMint(mint string) {
	if err := h.settings.Update(func(s *settings.Settings) error {
		s.LastCreatedMint = mint
		s.TradeForm.Mint = mint
		return nil
	}); err != nil {
		h.logger.Warn("Failed to save created mint", zap.String("mint", mint), zap.Error(err))
	}
}

// Group handles POST /groups/{id}/{action}
// @Summary      Trade from a wallet group
// @Description  buy and sell use the group's active wallets with their own amounts; dump sells 100% from every wallet; randomize fills amounts in [min, max]
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id       path      string             true   "Group ID"
// @Param        action   path      string             true   "buy, sell, dump or randomize"
// @Param        request  body      GroupTradeRequest  false  "Mint (trade actions)"
// @Success      200      {object}  model.FlowResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /groups/{id}/{action} [post]
func (h *FlowHandler) Group(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	id := r.PathValue("id")
	action := r.PathValue("action")
	if action == "randomize" {
		h.randomize(w, r, id)
		return
	}

	kind := solana.GroupAction(action)
	switch kind {
	case solana.GroupBuy, solana.GroupSell, solana.GroupDump:
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown group action %q", action))
		return
	}

	var req GroupTradeRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	current := h.settings.Get()
	group, ok := current.Group(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("group %s not found", id))
		return
	}
	mint := strings.TrimSpace(req.Mint)
	if mint == "" {
		mint = current.AdvancedTradeMint
	}

	params, ok := h.params(w)
	if !ok {
		return
	}
	resp, err := h.flows.GroupTrade(r.Context(), group, kind, mint, params)
	if err != nil {
		writeErr(w, err)
		return
	}

	if mint != current.AdvancedTradeMint {
		if err := h.settings.Update(func(s *settings.Settings) error {
			s.AdvancedTradeMint = resp.Mint
			return nil
		}); err != nil {
			h.logger.Warn("Failed to save group trade mint", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

var errGroupNotFound = errors.New("group not found")

func (h *FlowHandler) randomize(w http.ResponseWriter, r *http.Request, id string) {
	var req RandomizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	minV, err := decimal.NewFromString(strings.TrimSpace(req.Min))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please enter valid min and max values")
		return
	}
	maxV, err := decimal.NewFromString(strings.TrimSpace(req.Max))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please enter valid min and max values")
		return
	}

	var updated settings.Group
	err = h.settings.Update(func(s *settings.Settings) error {
		for i := range s.Groups {
			if s.Groups[i].ID != id {
				continue
			}
			if err := s.Groups[i].Randomize(req.Kind, minV, maxV, h.rnd); err != nil {
				return &solana.ValidationError{Message: err.Error()}
			}
			updated = s.Groups[i]
			return nil
		}
		return errGroupNotFound
	})
	switch {
	case errors.Is(err, errGroupNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("group %s not found", id))
	case err != nil:
		writeErr(w, err)
	default:
		writeJSON(w, http.StatusOK, updated)
	}
}

// parseTokenForm reads the token fields and the image of a launch form
func parseTokenForm(r *http.Request) (model.TokenInfo, model.Image, error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return model.TokenInfo{}, model.Image{}, fmt.Errorf("invalid form: %w", err)
	}

	token := model.TokenInfo{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Symbol:      strings.TrimSpace(r.FormValue("symbol")),
		Description: r.FormValue("description"),
		Twitter:     r.FormValue("twitter"),
		Telegram:    r.FormValue("telegram"),
		Website:     r.FormValue("website"),
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return token, model.Image{}, nil
	}
	if err != nil {
		return model.TokenInfo{}, model.Image{}, fmt.Errorf("invalid image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		return model.TokenInfo{}, model.Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	return token, model.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
