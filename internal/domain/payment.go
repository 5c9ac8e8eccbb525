package domain

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentStatusFromVendor maps the vendor payment state onto PaymentStatus.
// Anything that is neither paid nor failed is still pending.
func PaymentStatusFromVendor(vendor string) PaymentStatus {
	switch vendor {
	case "PAID", "COMPLETED":
		return PaymentStatusCompleted
	case "FAILED", "CANCELLED", "CANCELED":
		return PaymentStatusFailed
	default:
		return PaymentStatusPending
	}
}

type PaymentRequest struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

// PaymentSession is a payment initiated for an order. PaymentURL is set when
// the payer must complete the payment on an external page.
type PaymentSession struct {
	PaymentID  string `json:"paymentId"`
	PaymentURL string `json:"paymentUrl,omitempty"`
}

type PaymentState struct {
	Status      PaymentStatus `json:"status"`
	OrderID     string        `json:"orderId,omitempty"`
	OrderNumber string        `json:"orderNumber,omitempty"`
}
