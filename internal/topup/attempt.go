package topup

import "time"

// AttemptState tracks how far a topup attempt progressed.
type AttemptState string

const (
	// StateCreated means the order exists upstream but no invoice address is
	// known yet.
	StateCreated AttemptState = "created"
	// StateAddressResolved means the relay returned a payment address.
	StateAddressResolved AttemptState = "address_resolved"
	// StatePaymentRequested means the wallet was asked to pay.
	StatePaymentRequested AttemptState = "payment_requested"
	// StateConfirmed means the wallet reported the payment complete.
	StateConfirmed AttemptState = "confirmed"
	// StateFailed is terminal for this run but resumable: the populated
	// fields tell Resume where to pick up, so a retry never creates a
	// duplicate order.
	StateFailed AttemptState = "failed"
)

// Attempt is the explicit transaction record for one topup run. It outlives
// the run so a failure after order creation never leaves the user with an
// invisible dangling order.
type Attempt struct {
	ID             string       `json:"id"`
	CardID         string       `json:"card_id"`
	AmountUSD      string       `json:"amount_usd"`
	OrderID        string       `json:"order_id,omitempty"`
	InvoiceAddress string       `json:"invoice_address,omitempty"`
	PaymentHash    string       `json:"payment_hash,omitempty"`
	State          AttemptState `json:"state"`
	FailureReason  string       `json:"failure_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Resumable reports whether the attempt can be picked up again.
func (a Attempt) Resumable() bool {
	return a.State == StateFailed
}
