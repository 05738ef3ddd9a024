package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRelay(t *testing.T, upstream http.HandlerFunc) (*httptest.Server, *Metrics) {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	metrics := NewMetrics()
	rl := NewRelay(Config{
		IPFSURL:  up.URL + "/api/ipfs",
		TradeURL: up.URL + "/api/trade-local",
		JitoURL:  up.URL + "/api/v1/bundles",
	}, zap.NewNop(), metrics)

	mux := http.NewServeMux()
	rl.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, metrics
}

func multipartBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("name", "Doge"))
	require.NoError(t, mw.WriteField("symbol", "DOGE"))
	fw, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func decodeEnvelope(t *testing.T, resp *http.Response) model.RelayErrorResponse {
	t.Helper()
	var env model.RelayErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestIPFSMapsMetadataURI(t *testing.T) {
	srv, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "DOGE", r.FormValue("symbol"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "logo.png", hdr.Filename)
		assert.Equal(t, "png-bytes", string(data))
		_, _ = w.Write([]byte(`{"metadata":{"name":"Doge","symbol":"DOGE"},"metadataUri":"https://ipfs.io/ipfs/Qm"}`))
	})

	body, ct := multipartBody(t)
	resp, err := http.Post(srv.URL+RouteIPFS, ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "https://ipfs.io/ipfs/Qm", out["uri"])
}

func TestIPFSUnparseableSuccessBody(t *testing.T) {
	srv, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	body, ct := multipartBody(t)
	resp, err := http.Post(srv.URL+RouteIPFS, ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "<html>oops</html>", decodeEnvelope(t, resp).Raw)
}

func TestTradeRelaysBinary(t *testing.T) {
	srv, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		var args map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&args))
		assert.Equal(t, "buy", args["action"])
		_, _ = w.Write([]byte{0xde, 0xad})
	})

	resp, err := http.Post(srv.URL+RouteTrade, "application/json", strings.NewReader(`{"action":"buy"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, []byte{0xde, 0xad}, data)
}

func TestTradeRejectsNonJSON(t *testing.T) {
	var hits int
	srv, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) { hits++ })

	resp, err := http.Post(srv.URL+RouteTrade, "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, hits)
}

func TestUpstream502RelayedOnAllRoutes(t *testing.T) {
	srv, metrics := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	})

	send := map[string]func() (*http.Response, error){
		RouteIPFS: func() (*http.Response, error) {
			body, ct := multipartBody(t)
			return http.Post(srv.URL+RouteIPFS, ct, body)
		},
		RouteTrade: func() (*http.Response, error) {
			return http.Post(srv.URL+RouteTrade, "application/json", strings.NewReader(`{"action":"sell"}`))
		},
		RouteJito: func() (*http.Response, error) {
			return http.Post(srv.URL+RouteJito, "application/json", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"sendBundle","params":[[]]}`))
		},
	}

	for route, do := range send {
		t.Run(route, func(t *testing.T) {
			resp, err := do()
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			env := decodeEnvelope(t, resp)
			assert.Equal(t, "upstream exploded", env.Details)
			assert.Contains(t, env.Error, "502")
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues(route, "502")))
		})
	}
}

func TestNetworkFailureIs500(t *testing.T) {
	metrics := NewMetrics()
	rl := NewRelay(Config{JitoURL: "http://127.0.0.1:1/unreachable"}, zap.NewNop(), metrics)

	req := httptest.NewRequest(http.MethodPost, RouteJito, strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	rl.Jito(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal proxy error")
}

func TestNonPostIs405(t *testing.T) {
	rl := NewRelay(Config{}, zap.NewNop(), NewMetrics())
	for _, h := range []http.HandlerFunc{rl.IPFS, rl.Trade, rl.Jito} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	rl := NewRelay(Config{MaxBodyBytes: 8, TradeURL: "http://127.0.0.1:1"}, zap.NewNop(), NewMetrics())
	rec := httptest.NewRecorder()
	rl.Trade(rec, httptest.NewRequest(http.MethodPost, RouteTrade, strings.NewReader(`{"action":"buy-lots"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMultipartBodyLimit(t *testing.T) {
	rl := NewRelay(Config{MaxBodyBytes: 64, IPFSURL: "http://127.0.0.1:1"}, zap.NewNop(), NewMetrics())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, _ = fw.Write(bytes.Repeat([]byte{0xff}, 256))
	require.NoError(t, mw.Close())

	for _, sized := range []bool{true, false} {
		req := httptest.NewRequest(http.MethodPost, RouteIPFS, bytes.NewReader(body.Bytes()))
		req.Header.Set("Content-Type", mw.FormDataContentType())
		if !sized {
			req.ContentLength = -1
		}
		rec := httptest.NewRecorder()
		rl.IPFS(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, "known length %v", sized)
		assert.Contains(t, rec.Body.String(), "request body too large")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"id"}`))
	})
	resp, err := http.Post(srv.URL+RouteJito, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), `relay_requests_total{route="/proxy/jito",status="200"} 1`)
}
