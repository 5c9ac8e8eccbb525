// Package storefront is the kiosk's client for the storefront HTTP API.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/citi94/order-coffee/internal/api"
	"github.com/citi94/order-coffee/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodySize = 4 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Error is a non-2xx answer carrying the server's message.
type Error struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("storefront %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return domain.ErrRejected
	}
	return domain.ErrCollaboratorUnavailable
}

func (c *Client) GetMenu(ctx context.Context) ([]domain.Product, error) {
	var resp api.MenuResponse
	if err := c.call(ctx, http.MethodGet, api.PathMenu, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != api.StatusSuccess {
		return nil, malformed(api.PathMenu, "status %q", resp.Status)
	}
	return resp.Products, nil
}

func (c *Client) CreateOrder(ctx context.Context, order domain.Order) (domain.OrderReceipt, error) {
	var resp api.CreateOrderResponse
	if err := c.call(ctx, http.MethodPost, api.PathCreateOrder, api.OrderRequestFrom(order), &resp); err != nil {
		return domain.OrderReceipt{}, err
	}
	if resp.Status != api.StatusSuccess || resp.OrderID == "" {
		return domain.OrderReceipt{}, malformed(api.PathCreateOrder, "missing orderId")
	}
	return domain.OrderReceipt{OrderID: resp.OrderID, OrderNumber: resp.OrderNumber}, nil
}

func (c *Client) InitiatePayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentSession, error) {
	var resp api.InitiatePaymentResponse
	body := api.InitiatePaymentRequest{OrderID: req.OrderID, Amount: req.Amount}
	if err := c.call(ctx, http.MethodPost, api.PathInitiatePayment, body, &resp); err != nil {
		return domain.PaymentSession{}, err
	}
	if resp.Status != api.StatusSuccess || resp.PaymentID == "" {
		return domain.PaymentSession{}, malformed(api.PathInitiatePayment, "missing paymentId")
	}
	return domain.PaymentSession{PaymentID: resp.PaymentID, PaymentURL: resp.PaymentURL}, nil
}

func (c *Client) PaymentStatus(ctx context.Context, paymentID string) (domain.PaymentState, error) {
	path := api.PathPaymentStatus + "?paymentId=" + url.QueryEscape(paymentID)
	var resp api.PaymentStatusResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return domain.PaymentState{}, err
	}
	switch resp.Status {
	case domain.PaymentStatusPending, domain.PaymentStatusCompleted, domain.PaymentStatusFailed:
	default:
		return domain.PaymentState{}, malformed(api.PathPaymentStatus, "unknown status %q", resp.Status)
	}
	return domain.PaymentState{Status: resp.Status, OrderID: resp.OrderID, OrderNumber: resp.OrderNumber}, nil
}

func (c *Client) ConfirmOrder(ctx context.Context, orderID, paymentID string) error {
	body := api.UpdateOrderStatusRequest{
		OrderID:   orderID,
		PaymentID: paymentID,
		Status:    string(domain.PaymentStatusCompleted),
	}
	var resp api.StatusResponse
	if err := c.call(ctx, http.MethodPost, api.PathUpdateOrderStatus, body, &resp); err != nil {
		return err
	}
	if resp.Status != api.StatusSuccess {
		return malformed(api.PathUpdateOrderStatus, "status %q", resp.Status)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request failed: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request failed: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storefront %s: %w: %w", path, domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("storefront %s: %w: %w", path, domain.ErrCollaboratorUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Path: path, StatusCode: resp.StatusCode}
		var e api.ErrorResponse
		if json.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return malformed(path, "%v", err)
	}
	return nil
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("storefront %s: %w: %s", path, domain.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// Message returns the server's message for a rejected request, if any.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
