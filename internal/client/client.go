// Package client is a typed HTTP client for the storefront API. Error
// responses come back as *apperr.Error values carrying the server's kind, so
// callers can match them with errors.Is.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/cart"
	"github.com/matheusmosca/storefront/internal/httpx"
)

type Client struct {
	http *resty.Client
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	// carry the caller's trace into the service
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		otel.GetTextMapPropagator().Inject(r.Context(), propagation.HeaderCarrier(r.Header))
		return nil
	})

	return &Client{http: rc}
}

// Message is the body of the mutating cart endpoints.
type Message struct {
	Message string `json:"message"`
}

// AddResult reports the outcome of an add-to-cart call.
type AddResult struct {
	Message string
	Created bool
}

// CheckoutResult is the body of a successful checkout.
type CheckoutResult struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
	Total   string `json:"total"`
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).SetError(&httpx.ErrorBody{}).Get("/health")
	return check(resp, err)
}

func (c *Client) AddToCart(ctx context.Context, userID, productID int64, qty int) (*AddResult, error) {
	var out Message
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"userId": userID, "productId": productID, "quantity": qty}).
		SetResult(&out).
		SetError(&httpx.ErrorBody{}).
		Post("/cart/add")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &AddResult{Message: out.Message, Created: resp.StatusCode() == http.StatusCreated}, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, userID, productID int64) (string, error) {
	var out Message
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"userId": userID, "productId": productID}).
		SetResult(&out).
		SetError(&httpx.ErrorBody{}).
		Delete("/cart/remove")
	if err := check(resp, err); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) GetCart(ctx context.Context, userID int64) ([]cart.LineResponse, error) {
	var out []cart.LineResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&httpx.ErrorBody{}).
		Get("/cart/" + strconv.FormatInt(userID, 10))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Checkout places an order for the user's cart. shippingAddressID may be nil.
func (c *Client) Checkout(ctx context.Context, userID int64, shippingAddressID *int64) (*CheckoutResult, error) {
	body := map[string]any{"userId": userID}
	if shippingAddressID != nil {
		body["shippingAddressId"] = *shippingAddressID
	}

	var out CheckoutResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&httpx.ErrorBody{}).
		Post("/cart/checkout")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	if body, ok := resp.Error().(*httpx.ErrorBody); ok && body.Error != "" {
		return apperr.New(apperr.Kind(body.Error), body.Message, nil)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
}
