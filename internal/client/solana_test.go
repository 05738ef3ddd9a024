package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// fakeRPC answers JSON-RPC calls with result(method).
func fakeRPC(t *testing.T, result func(method string) any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result(req.Method),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewSolanaClientCommitment(t *testing.T) {
	assert.Equal(t, "finalized", string(NewSolanaClient("http://rpc", "finalized").commitment))
	assert.Equal(t, "confirmed", string(NewSolanaClient("http://rpc", "bogus").commitment))
}

func TestGetBalance(t *testing.T) {
	srv := fakeRPC(t, func(method string) any {
		assert.Equal(t, "getBalance", method)
		return map[string]any{"context": map[string]any{"slot": 1}, "value": 1_500_000_000}
	})
	c := NewSolanaClient(srv.URL, "confirmed")

	lamports, err := c.GetBalance(context.Background(), solana.NewWallet().PublicKey().String())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)

	_, err = c.GetBalance(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func statusResult(confirmation string, txErr any) map[string]any {
	return map[string]any{
		"context": map[string]any{"slot": 10},
		"value": []any{map[string]any{
			"slot":               10,
			"confirmations":      nil,
			"err":                txErr,
			"confirmationStatus": confirmation,
		}},
	}
}

func TestConfirmTransaction(t *testing.T) {
	var calls atomic.Int32
	srv := fakeRPC(t, func(method string) any {
		if calls.Add(1) == 1 {
			return statusResult("processed", nil)
		}
		return statusResult("confirmed", nil)
	})
	c := NewSolanaClient(srv.URL, "confirmed")
	c.pollInterval = 10 * time.Millisecond

	sig := solana.Signature{1, 2, 3}
	require.NoError(t, c.ConfirmTransaction(context.Background(), sig.String(), time.Second))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestConfirmTransactionFailedOnChain(t *testing.T) {
	srv := fakeRPC(t, func(string) any {
		return statusResult("confirmed", map[string]any{"InstructionError": []any{0, "Custom"}})
	})
	c := NewSolanaClient(srv.URL, "confirmed")

	err := c.ConfirmTransaction(context.Background(), solana.Signature{9}.String(), time.Second)
	assert.True(t, IsTransactionFailedError(err))
}

func TestConfirmTransactionTimeout(t *testing.T) {
	srv := fakeRPC(t, func(string) any {
		return map[string]any{"context": map[string]any{"slot": 1}, "value": []any{nil}}
	})
	c := NewSolanaClient(srv.URL, "confirmed")
	c.pollInterval = 5 * time.Millisecond

	err := c.ConfirmTransaction(context.Background(), solana.Signature{7}.String(), 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrConfirmTimeout)
}

func TestGetSOLtoUSDRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`{"solana":{"usd":142.5}}`))
	}))
	defer srv.Close()

	rate, err := NewCoinGeckoClient(srv.URL).GetSOLtoUSDRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "142.50", rate)
}
