// Package ui serves the claim form and forwards each submission to the
// inference API.
package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fraudguard/claim"
	"fraudguard/inference"
)

// ErrUnavailable means the API could not be reached at all.
var ErrUnavailable = errors.New("Cannot connect to API. Make sure the backend is running.")

// APIError is a non-200 answer other than a validation failure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API Error: %d (%s)", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API Error: %d", e.StatusCode)
}

// Client 推理服务客户端。每次预测只发送一次请求，不重试
type Client struct {
	baseURL       string
	httpClient    *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
}

func NewClient(baseURL string, timeout, healthTimeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if healthTimeout <= 0 {
		healthTimeout = 2 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		timeout:       timeout,
		healthTimeout: healthTimeout,
	}
}

// Health reports whether GET /health answered 200.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Predict sends one claim. A 422 answer comes back as *claim.ValidationError.
func (c *Client) Predict(ctx context.Context, record claim.Record) (inference.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(record)
	if err != nil {
		return inference.Result{}, fmt.Errorf("encode claim: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/predict", body)
	if err != nil {
		return inference.Result{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result inference.Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return inference.Result{}, fmt.Errorf("decode result: %w", err)
		}
		return result, nil
	case http.StatusUnprocessableEntity:
		verr := &claim.ValidationError{}
		if err := json.NewDecoder(resp.Body).Decode(verr); err != nil || len(verr.Fields) == 0 {
			return inference.Result{}, &APIError{StatusCode: resp.StatusCode}
		}
		return inference.Result{}, verr
	default:
		return inference.Result{}, decodeAPIError(resp)
	}
}

// Info fetches GET /info.
func (c *Client) Info(ctx context.Context) (inference.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/info", nil)
	if err != nil {
		return inference.Info{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return inference.Info{}, decodeAPIError(resp)
	}
	var info inference.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return inference.Info{}, fmt.Errorf("decode info: %w", err)
	}
	return info, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}
