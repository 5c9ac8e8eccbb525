package zettle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/citi94/order-coffee/internal/domain"
)

type PaymentRequest struct {
	PurchaseUUID string `json:"purchaseUUID"`
	Amount       Money  `json:"amount"`
	Reference    string `json:"reference"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
}

type PaymentResult struct {
	PaymentUUID string `json:"paymentUUID"`
	PaymentURL  string `json:"paymentUrl"`
}

type Payment struct {
	PaymentUUID  string `json:"paymentUUID"`
	PurchaseUUID string `json:"purchaseUUID"`
	Status       string `json:"status"`
}

func (p Payment) MappedStatus() domain.PaymentStatus {
	return domain.PaymentStatusFromVendor(p.Status)
}

func (c *Client) paymentsURL() string {
	return strings.TrimRight(c.cfg.PurchaseURL, "/") + "/payments"
}

// CreatePayment starts a payment for a purchase. It is never retried: a
// second attempt could charge twice.
func (c *Client) CreatePayment(ctx context.Context, purchaseUUID string, amount int64) (*PaymentResult, error) {
	req := PaymentRequest{
		PurchaseUUID: purchaseUUID,
		Amount:       Money{Amount: amount, CurrencyID: c.cfg.Currency},
		Reference:    "order-" + purchaseUUID,
		RedirectURL:  c.cfg.RedirectURL,
	}
	body, err := c.do(ctx, request{
		op:     "create payment",
		method: http.MethodPost,
		url:    c.paymentsURL(),
		body:   req,
	})
	if err != nil {
		return nil, err
	}

	var result PaymentResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, malformed("create payment", err)
	}
	if result.PaymentUUID == "" {
		return nil, malformed("create payment", errors.New("missing paymentUUID"))
	}
	return &result, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentUUID string) (*Payment, error) {
	body, err := c.do(ctx, request{
		op:         "get payment",
		method:     http.MethodGet,
		url:        c.paymentsURL() + "/" + url.PathEscape(paymentUUID),
		idempotent: true,
	})
	if err != nil {
		return nil, err
	}

	var p Payment
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, malformed("get payment", err)
	}
	if p.PaymentUUID == "" {
		p.PaymentUUID = paymentUUID
	}
	return &p, nil
}
