// Package api is the JSON-over-HTTP transport to the order backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookorder/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// RequestIDHeader carries a per-request id that the backend echoes.
const RequestIDHeader = "X-Request-ID"

// Client calls the order backend endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "api-client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initiate sends the draft and asks the backend to issue a code.
func (c *Client) Initiate(ctx context.Context, req model.InitiateRequest) (*model.InitiateResponse, error) {
	var resp model.InitiateResponse
	if err := c.do(ctx, "initiate", http.MethodPost, "/orders/initiate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify submits the code for a session and returns the confirmed order.
func (c *Client) Verify(ctx context.Context, req model.VerifyRequest) (*model.ConfirmedOrder, error) {
	var order model.ConfirmedOrder
	if err := c.do(ctx, "verify", http.MethodPost, "/orders/verify", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ResendCode asks for a fresh code on an existing session.
func (c *Client) ResendCode(ctx context.Context, sessionToken string) (*model.ResendResponse, error) {
	var resp model.ResendResponse
	body := model.ResendRequest{SessionToken: sessionToken}
	if err := c.do(ctx, "resend", http.MethodPost, "/orders/resend-code", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOrders returns confirmed orders, filtered by phone number when given.
func (c *Client) ListOrders(ctx context.Context, phoneNumber string) ([]model.ConfirmedOrder, error) {
	path := "/orders/"
	if phoneNumber != "" {
		path += "?" + url.Values{"phone_number": {phoneNumber}}.Encode()
	}

	var orders []model.ConfirmedOrder
	if err := c.do(ctx, "list", http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.ConfirmedOrder{}
	}
	return orders, nil
}

// GetOrder returns a single confirmed order.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*model.ConfirmedOrder, error) {
	var order model.ConfirmedOrder
	path := "/orders/" + strconv.FormatInt(orderID, 10)
	if err := c.do(ctx, "get", http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// do performs one request. Network failures and undecodable bodies become
// TransportErrors; any non-2xx becomes a BackendRejection regardless of code.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &model.TransportError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &model.TransportError{Op: op, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.With().
		Str("op", op).
		Str("request_id", requestID).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("request failed")
		return &model.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("failed to read response")
		return &model.TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp model.ErrorResponse
		detail := ""
		if json.Unmarshal(data, &errResp) == nil {
			detail = errResp.Message()
		}
		if detail == "" {
			detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		logger.Info().Int("status", resp.StatusCode).Str("detail", detail).Msg("request rejected")
		return &model.BackendRejection{Status: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn().Err(err).Msg("malformed response body")
		return &model.TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
