package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/model"
)

const maxResponseBytes = 8 << 20

// UpstreamError is a non-2xx answer from the relay
type UpstreamError struct {
	Status  int
	Message string
	Details string
}

func (e *UpstreamError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// IsUpstreamError checks if error is UpstreamError
func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// ProxyClient calls the relay routes on behalf of the desk flows
type ProxyClient struct {
	baseURL string
	client  *http.Client
}

// NewProxyClient creates a relay client for baseURL (e.g. http://localhost:3000)
func NewProxyClient(baseURL string, timeout time.Duration) *ProxyClient {
	return &ProxyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// UploadMetadata uploads the token image and metadata, returning the metadata URI
func (c *ProxyClient) UploadMetadata(ctx context.Context, token model.TokenInfo, image model.Image) (*model.UploadResult, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fields := []struct{ name, value string }{
		{"name", token.Name},
		{"symbol", token.Symbol},
		{"description", token.Description},
		{"twitter", token.Twitter},
		{"telegram", token.Telegram},
		{"website", token.Website},
		{"showName", "true"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	filename := image.Filename
	if filename == "" {
		filename = "image.png"
	}
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	respBody, _, err := c.post(ctx, "/proxy/ipfs", mw.FormDataContentType(), body)
	if err != nil {
		return nil, err
	}

	var result model.UploadResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.URI == "" {
		return nil, errors.New("upload response has no metadata uri")
	}
	return &result, nil
}

// BuildTransaction requests one unsigned serialized transaction
func (c *ProxyClient) BuildTransaction(ctx context.Context, args model.TradeArgs) ([]byte, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trade args: %w", err)
	}

	respBody, contentType, err := c.post(ctx, "/proxy/trade", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(contentType, "application/json") {
		return nil, fmt.Errorf("expected binary transaction, got JSON: %s", truncateBody(respBody))
	}
	if len(respBody) == 0 {
		return nil, errors.New("empty transaction response")
	}
	return respBody, nil
}

// BuildBundle requests one unsigned transaction per args entry, base58 encoded, in request order
func (c *ProxyClient) BuildBundle(ctx context.Context, args []model.TradeArgs) ([]string, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trade args: %w", err)
	}

	respBody, _, err := c.post(ctx, "/proxy/trade", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var txs []string
	if err := json.Unmarshal(respBody, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode bundle transactions: %w", err)
	}
	if len(txs) != len(args) {
		return nil, fmt.Errorf("expected %d transactions, got %d", len(args), len(txs))
	}
	return txs, nil
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendBundle submits base58 signed transactions as one bundle and returns the bundle id
func (c *ProxyClient) SendBundle(ctx context.Context, encoded []string) (string, error) {
	payload, err := json.Marshal(jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendBundle",
		Params:  []any{encoded},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal bundle: %w", err)
	}

	respBody, _, err := c.post(ctx, "/proxy/jito", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	var resp jsonRPCResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode bundle response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("bundle rejected (%d): %s", resp.Error.Code, resp.Error.Message)
	}

	var bundleID string
	if err := json.Unmarshal(resp.Result, &bundleID); err != nil {
		return string(resp.Result), nil
	}
	return bundleID, nil
}

func (c *ProxyClient) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := &UpstreamError{Status: resp.StatusCode, Message: fmt.Sprintf("status %d", resp.StatusCode)}
		var envelope struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != "" {
			upstreamErr.Message = envelope.Error
			upstreamErr.Details = envelope.Details
		} else {
			upstreamErr.Details = truncateBody(respBody)
		}
		return nil, "", upstreamErr
	}

	return respBody, resp.Header.Get("Content-Type"), nil
}

func truncateBody(b []byte) string {
	const limit = 300
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
