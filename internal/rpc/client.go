// Package rpc is the HTTP transport shared by the balance and price clients.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"wallet_portfolio/internal/metrics"
)

// Request is a JSON-RPC 2.0 request
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// Error is the error member of a JSON-RPC response
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Response is a JSON-RPC 2.0 response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

// Client sends JSON requests to one base URL. Name labels its metrics.
type Client struct {
	name    string
	http    *http.Client
	baseURL string
	headers map[string]string
	rpcID   atomic.Int64
}

func NewClient(name, baseURL string, timeout time.Duration, headers map[string]string) *Client {
	return &Client{
		name:    name,
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: headers,
	}
}

// Do sends an HTTP request and returns the body of a 2xx response
func (c *Client) Do(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	start := time.Now()
	data, err := c.do(ctx, method, endpoint, body)
	metrics.RecordUpstreamRequest(c.name, err == nil, time.Since(start).Seconds())
	return data, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"client":  c.name,
		"url":     url,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start),
	}).Debug("HTTP request completed")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return data, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, c.name, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// CallRPC performs a single JSON-RPC call against the base URL
func (c *Client) CallRPC(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := &Request{JSONRPC: "2.0", ID: c.rpcID.Add(1), Method: method, Params: params}
	raw, err := c.Do(ctx, http.MethodPost, "", req)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal RPC response: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}
