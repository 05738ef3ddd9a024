package handler

import (
	"net/http"

	"github.com/AlexZinkM/pump-desk/internal/model"
	"github.com/AlexZinkM/pump-desk/internal/wallet"

	"go.uber.org/zap"
)

// WalletHandler serves the wallet manager
type WalletHandler struct {
	store   *wallet.Store
	tracker *wallet.Tracker
	logger  *zap.Logger
}

func NewWalletHandler(store *wallet.Store, tracker *wallet.Tracker, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{store: store, tracker: tracker, logger: logger}
}

// Wallets handles GET and POST /wallets
// @Summary      List or generate wallets
// @Description  GET lists wallets without private keys. POST generates a new wallet and returns it with a QR code of its address
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request  body      model.GenerateRequest  false  "Wallet name"
// @Success      200      {array}   model.WalletView
// @Success      201      {object}  model.GenerateResponse
// @Router       /wallets [get]
// @Router       /wallets [post]
func (h *WalletHandler) Wallets(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, h.store.List())
		return
	}

	var req model.GenerateRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.store.Generate(req.Name)
	if err != nil {
		h.logger.Error("Failed to generate wallet", zap.Error(err))
		writeErr(w, err)
		return
	}

	qr, err := wallet.QRCode(view.PublicKey)
	if err != nil {
		h.logger.Warn("Failed to render QR code", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, model.GenerateResponse{
		Success: true,
		Message: "Wallet generated successfully",
		Wallet:  view,
		QR:      qr,
	})
}

// Import handles POST /wallets/import
// @Summary      Import wallet
// @Description  Imports a wallet from a base58 private key
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportRequest  true  "Name and private key"
// @Success      201      {object}  model.WalletView
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /wallets/import [post]
func (h *WalletHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req model.ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.store.Import(req.Name, req.PrivateKey)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// ImportBatch handles POST /wallets/import-batch
// @Summary      Import wallets in bulk
// @Description  Imports one "Name,PrivateKey" record per line and reports each line
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportBatchRequest  true  "Records"
// @Success      200      {object}  model.ImportBatchResponse
// @Router       /wallets/import-batch [post]
func (h *WalletHandler) ImportBatch(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req model.ImportBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.store.ImportBatch(req.Text)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Wallet handles PATCH and DELETE /wallets/{id}
// @Summary      Rename or delete wallet
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        id       path      string               true   "Wallet ID"
// @Param        request  body      model.RenameRequest  false  "New name (PATCH)"
// @Success      200      {object}  model.WalletView
// @Success      204
// @Failure      404      {object}  model.ErrorResponse
// @Router       /wallets/{id} [patch]
// @Router       /wallets/{id} [delete]
func (h *WalletHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPatch, http.MethodDelete) {
		return
	}
	id := r.PathValue("id")

	if r.Method == http.MethodDelete {
		if err := h.store.Delete(id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req model.RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.store.Rename(id, req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Export handles GET /wallets/{id}/export
// @Summary      Export private key
// @Description  Returns the wallet keypair with the private key in base58
// @Tags         wallets
// @Produce      json
// @Param        id   path      string  true  "Wallet ID"
// @Success      200  {object}  model.ExportResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallets/{id}/export [get]
func (h *WalletHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	resp, err := h.store.Export(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	h.logger.Info("Private key exported", zap.String("publicKey", resp.PublicKey))
	writeJSON(w, http.StatusOK, resp)
}

// Balances handles GET /wallets/balances
// @Summary      Get wallet balances
// @Description  Returns the last SOL balance snapshot, the total and its USD value. refresh=true fetches now
// @Tags         wallets
// @Produce      json
// @Param        refresh  query     bool  false  "Fetch balances now"
// @Success      200      {object}  model.BalancesResponse
// @Router       /wallets/balances [get]
func (h *WalletHandler) Balances(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		writeJSON(w, http.StatusOK, h.tracker.Refresh(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}
