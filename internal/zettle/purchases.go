package zettle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/google/uuid"
)

const purchaseSource = "ONLINE_ORDER"

type Money struct {
	Amount     int64  `json:"amount"`
	CurrencyID string `json:"currencyId"`
}

type Purchase struct {
	PurchaseUUID string            `json:"purchaseUUID"`
	ClientUUID   string            `json:"clientUUID"`
	Source       string            `json:"source"`
	Products     []PurchaseProduct `json:"products"`
	Metadata     PurchaseMetadata  `json:"metadata"`
}

type PurchaseProduct struct {
	ProductUUID string `json:"productUuid"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unitPrice"`
	Comment     string `json:"comment,omitempty"`
}

type PurchaseMetadata struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	OrderComment  string `json:"orderComment,omitempty"`
}

// NewPurchase maps an order onto the purchase payload. Options become the
// per-product comment so the barista sees them.
func NewPurchase(order domain.Order, currency string) Purchase {
	p := Purchase{
		PurchaseUUID: uuid.NewString(),
		ClientUUID:   uuid.NewString(),
		Source:       purchaseSource,
		Products:     make([]PurchaseProduct, 0, len(order.Items)),
		Metadata: PurchaseMetadata{
			CustomerName:  order.CustomerName,
			CustomerEmail: order.CustomerEmail,
			OrderComment:  order.Comment,
		},
	}
	for _, item := range order.Items {
		p.Products = append(p.Products, PurchaseProduct{
			ProductUUID: item.ID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   Money{Amount: item.UnitPrice, CurrencyID: currency},
			Comment:     domain.OptionsComment(item.Options),
		})
	}
	return p
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type PurchaseResult struct {
	PurchaseUUID   string            `json:"purchaseUUID"`
	PurchaseNumber flexString        `json:"purchaseNumber"`
	Products       []PurchaseProduct `json:"products"`
	Metadata       PurchaseMetadata  `json:"metadata"`
}

func (p PurchaseResult) OrderNumber() string {
	return domain.DisplayNumber(string(p.PurchaseNumber), p.PurchaseUUID)
}

func (c *Client) CreatePurchase(ctx context.Context, purchase Purchase) (*PurchaseResult, error) {
	body, err := c.do(ctx, request{
		op:     "create purchase",
		method: http.MethodPost,
		url:    c.cfg.PurchaseURL,
		body:   purchase,
	})
	if err != nil {
		return nil, err
	}
	return decodePurchase("create purchase", body)
}

func (c *Client) GetPurchase(ctx context.Context, purchaseUUID string) (*PurchaseResult, error) {
	body, err := c.do(ctx, request{
		op:         "get purchase",
		method:     http.MethodGet,
		url:        strings.TrimRight(c.cfg.PurchaseURL, "/") + "/" + url.PathEscape(purchaseUUID),
		idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	return decodePurchase("get purchase", body)
}

func decodePurchase(op string, body []byte) (*PurchaseResult, error) {
	var result PurchaseResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, malformed(op, err)
	}
	if result.PurchaseUUID == "" {
		return nil, malformed(op, errors.New("missing purchaseUUID"))
	}
	return &result, nil
}
