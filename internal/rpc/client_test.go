package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_portfolio/internal/metrics"
)

func TestDo_SendsHeadersAndCountsRequests(t *testing.T) {
	var gotKey, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotAccept = r.Header.Get("Accept")
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down\n"))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("test-do", srv.URL+"/", time.Second, map[string]string{"x-api-key": "k"})
	ok := metrics.UpstreamRequestsTotal.WithLabelValues("test-do", "success")
	failed := metrics.UpstreamRequestsTotal.WithLabelValues("test-do", "failed")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	body, err := c.Do(context.Background(), http.MethodGet, "/ok", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "k", gotKey)
	assert.Equal(t, "application/json", gotAccept)

	_, err = c.Do(context.Background(), http.MethodGet, "/fail", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Contains(t, err.Error(), "upstream down")

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestCallRPC(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		w.Header().Set("Content-Type", "application/json")
		if req.Method == "bad_method" {
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "error": map[string]any{"code": -32601, "message": "method not found"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "0x1"})
	}))
	defer srv.Close()

	c := NewClient("test-rpc", srv.URL, time.Second, nil)
	res, err := c.CallRPC(context.Background(), "eth_blockNumber", []any{})
	require.NoError(t, err)
	assert.Equal(t, `"0x1"`, string(res))

	_, err = c.CallRPC(context.Background(), "bad_method", nil)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}
