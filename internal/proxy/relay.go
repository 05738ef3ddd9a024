// Package proxy relays desk requests to the metadata, trade-building and
// bundle services. It adds no retries and no auth.
package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"go.uber.org/zap"
)

const (
	RouteIPFS  = "/proxy/ipfs"
	RouteTrade = "/proxy/trade"
	RouteJito  = "/proxy/jito"
)

// Config holds the upstream endpoints and limits
type Config struct {
	IPFSURL      string
	TradeURL     string
	JitoURL      string
	MaxBodyBytes int64
	Timeout      time.Duration
}

// Relay forwards the three relay routes to their fixed upstreams
type Relay struct {
	cfg     Config
	client  *http.Client
	logger  *zap.Logger
	metrics *Metrics
}

// NewRelay creates a relay. A zero Timeout means no client timeout.
func NewRelay(cfg Config, logger *zap.Logger, metrics *Metrics) *Relay {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}
	return &Relay{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// IPFS handles POST /proxy/ipfs
// @Summary      Upload token metadata
// @Description  Relays a multipart upload (file + text fields) to the metadata service; metadataUri is exposed as uri
// @Tags         proxy
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  model.UploadResult
// @Failure      500  {object}  model.RelayErrorResponse
// @Router       /proxy/ipfs [post]
func (rl *Relay) IPFS(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	if r.ContentLength > rl.cfg.MaxBodyBytes {
		writeTooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rl.cfg.MaxBodyBytes)

	if err := r.ParseMultipartForm(rl.cfg.MaxBodyBytes); err != nil {
		if isTooLarge(err) {
			writeTooLarge(w)
			return
		}
		writeRelayError(w, http.StatusBadRequest, model.RelayErrorResponse{Error: fmt.Sprintf("invalid multipart body: %v", err)})
		return
	}
	defer r.MultipartForm.RemoveAll()

	body, contentType, err := rebuildMultipart(r.MultipartForm)
	if err != nil {
		rl.internalError(w, RouteIPFS, err)
		return
	}

	status, respBody, _, err := rl.forward(r, rl.cfg.IPFSURL, contentType, body)
	if err != nil {
		rl.internalError(w, RouteIPFS, err)
		return
	}
	if !isSuccess(status) {
		rl.upstreamError(w, "Pump.fun API", status, respBody)
		return
	}

	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err != nil {
		writeRelayError(w, http.StatusInternalServerError, model.RelayErrorResponse{
			Error: "failed to parse JSON response from metadata service",
			Raw:   string(respBody),
		})
		return
	}

	if uri, ok := data["metadataUri"]; ok && data["uri"] == nil {
		data["uri"] = uri
	}
	if data["uri"] == nil {
		rl.logger.Warn("Metadata response has no uri", zap.ByteString("body", respBody))
	}

	writeJSON(w, status, data)
}

// Trade handles POST /proxy/trade
// @Summary      Build unsigned transaction(s)
// @Description  Relays trade args to the trade builder. A single request returns a binary transaction; an array returns base58 transactions as JSON
// @Tags         proxy
// @Accept       json
// @Produce      octet-stream
// @Success      200
// @Failure      500  {object}  model.RelayErrorResponse
// @Router       /proxy/trade [post]
func (rl *Relay) Trade(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	payload, ok := rl.readJSON(w, r)
	if !ok {
		return
	}

	status, respBody, contentType, err := rl.forward(r, rl.cfg.TradeURL, "application/json", payload)
	if err != nil {
		rl.internalError(w, RouteTrade, err)
		return
	}
	if !isSuccess(status) {
		rl.upstreamError(w, "PumpPortal API", status, respBody)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(respBody)
}

// Jito handles POST /proxy/jito
// @Summary      Submit bundle
// @Description  Relays a sendBundle JSON-RPC request to the block engine
// @Tags         proxy
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      500  {object}  model.RelayErrorResponse
// @Router       /proxy/jito [post]
func (rl *Relay) Jito(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	payload, ok := rl.readJSON(w, r)
	if !ok {
		return
	}

	status, respBody, _, err := rl.forward(r, rl.cfg.JitoURL, "application/json", payload)
	if err != nil {
		rl.internalError(w, RouteJito, err)
		return
	}
	if !isSuccess(status) {
		rl.upstreamError(w, "Jito API", status, respBody)
		return
	}
	if !json.Valid(respBody) {
		writeRelayError(w, http.StatusInternalServerError, model.RelayErrorResponse{
			Error: "failed to parse JSON response from bundle service",
			Raw:   string(respBody),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(respBody)
}

func (rl *Relay) readJSON(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, rl.cfg.MaxBodyBytes))
	if err != nil {
		if isTooLarge(err) {
			writeTooLarge(w)
			return nil, false
		}
		writeRelayError(w, http.StatusBadRequest, model.RelayErrorResponse{Error: fmt.Sprintf("failed to read body: %v", err)})
		return nil, false
	}
	if !json.Valid(payload) {
		writeRelayError(w, http.StatusBadRequest, model.RelayErrorResponse{Error: "request body must be JSON"})
		return nil, false
	}
	return payload, true
}

// forward posts body to upstream and returns status, body and content type
func (rl *Relay) forward(r *http.Request, upstream, contentType string, body []byte) (int, []byte, string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, upstream, bytes.NewReader(body))
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := rl.client.Do(req)
	if err != nil {
		return 0, nil, "", fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed to read upstream response: %w", err)
	}
	return resp.StatusCode, respBody, resp.Header.Get("Content-Type"), nil
}

func (rl *Relay) upstreamError(w http.ResponseWriter, service string, status int, body []byte) {
	rl.logger.Warn("Upstream returned error",
		zap.String("service", service),
		zap.Int("status", status),
		zap.ByteString("body", body),
	)
	writeRelayError(w, status, model.RelayErrorResponse{
		Error:   fmt.Sprintf("%s error: %d", service, status),
		Details: string(body),
	})
}

func (rl *Relay) internalError(w http.ResponseWriter, route string, err error) {
	rl.logger.Error("Relay failed", zap.String("route", route), zap.Error(err))
	writeRelayError(w, http.StatusInternalServerError, model.RelayErrorResponse{
		Error: fmt.Sprintf("Internal proxy error: %v", err),
	})
}

// rebuildMultipart re-encodes the parsed form: file part first, then text
// fields in name order.
func rebuildMultipart(form *multipart.Form) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	if files := form.File["file"]; len(files) > 0 {
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open uploaded file: %w", err)
		}
		defer f.Close()

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fh.Filename))
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("failed to copy file: %w", err)
		}
	}

	keys := make([]string, 0, len(form.Value))
	for k := range form.Value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range form.Value[k] {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func allowPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeRelayError(w, http.StatusMethodNotAllowed, model.RelayErrorResponse{Error: "Method not allowed. Should be POST"})
		return false
	}
	return true
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

func writeRelayError(w http.ResponseWriter, status int, body model.RelayErrorResponse) {
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Register mounts the relay routes and /metrics on mux
func (rl *Relay) Register(mux *http.ServeMux) {
	mux.HandleFunc(RouteIPFS, rl.instrument(RouteIPFS, rl.IPFS))
	mux.HandleFunc(RouteTrade, rl.instrument(RouteTrade, rl.Trade))
	mux.HandleFunc(RouteJito, rl.instrument(RouteJito, rl.Jito))
	mux.Handle("/metrics", rl.metrics.Handler())
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func writeTooLarge(w http.ResponseWriter) {
	writeRelayError(w, http.StatusRequestEntityTooLarge, model.RelayErrorResponse{Error: "request body too large"})
}
