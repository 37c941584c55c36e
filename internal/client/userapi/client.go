// Package userapi is the HTTP client for the user service, which owns user
// accounts, wallet balances, and delivery addresses.
package userapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platemate/order-api/internal/domain/user"
)

// Compile-time check ensuring Client satisfies the domain contract.
var _ user.Client = (*Client)(nil)

// Client calls the user service over HTTP. Every request carries the caller's
// context and the client-wide timeout; there are no retries.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the user service at baseURL. The transport is
// OpenTelemetry-instrumented so outbound calls show up in traces.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type userJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Role          string          `json:"role"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
}

type addressJSON struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
}

type debitJSON struct {
	Amount decimal.Decimal `json:"amount"`
}

// GetByID fetches a user by ID. A 404 maps to user.ErrNotFound.
func (c *Client) GetByID(ctx context.Context, userID string) (*user.User, error) {
	var payload userJSON
	if err := c.get(ctx, "/users/"+url.PathEscape(userID), &payload); err != nil {
		return nil, err
	}
	return &user.User{
		ID:            payload.ID,
		Name:          payload.Name,
		Role:          user.Role(payload.Role),
		WalletBalance: payload.WalletBalance,
	}, nil
}

// DebitWallet decreases the user's wallet balance by amount. The user service
// expects a signed delta, so the amount is negated on the wire.
func (c *Client) DebitWallet(ctx context.Context, userID string, amount decimal.Decimal) error {
	body, err := json.Marshal(debitJSON{Amount: amount.Neg()})
	if err != nil {
		return errors.Wrap(err, "marshal debit request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/users/"+url.PathEscape(userID)+"/wallet", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "call user service")
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return user.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errors.Errorf("debit wallet: user service returned %d", resp.StatusCode)
	}
	return nil
}

// GetAddressByID fetches a delivery address by ID. A 404 maps to
// user.ErrNotFound.
func (c *Client) GetAddressByID(ctx context.Context, addressID string) (*user.Address, error) {
	var payload addressJSON
	if err := c.get(ctx, "/addresses/"+url.PathEscape(addressID), &payload); err != nil {
		return nil, err
	}
	return &user.Address{
		ID:      payload.ID,
		UserID:  payload.UserID,
		Street:  payload.Street,
		City:    payload.City,
		ZipCode: payload.ZipCode,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "call user service")
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return user.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return errors.Errorf("user service returned %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// drainAndClose consumes the remaining body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
