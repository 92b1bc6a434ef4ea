package wallet

import (
	"context"
	"errors"
	"sync"
)

// ErrPaymentRejected indicates the wallet backend refused or failed the
// payment (including the user cancelling it in their wallet).
var ErrPaymentRejected = errors.New("payment rejected by wallet")

// Payment is the wallet's proof of a completed payment.
type Payment struct {
	PaymentHash string `json:"payment_hash"`
	Preimage    string `json:"preimage,omitempty"`
}

// Provider is a connected Lightning wallet backend. Everything beyond the
// label is an optional capability discovered by type assertion: a provider
// may implement PaymentSender, BalanceReader, both, or neither.
type Provider interface {
	// Info returns a short human-readable label for the wallet backend.
	Info() string
}

// PaymentSender is the capability to pay a BOLT11 payment request.
type PaymentSender interface {
	SendPayment(ctx context.Context, paymentRequest string) (Payment, error)
}

// BalanceReader is the capability to report the wallet balance in satoshis.
type BalanceReader interface {
	Balance(ctx context.Context) (int64, error)
}

// EventEmitter is implemented by providers that push lifecycle events, for
// example when the remote wallet drops the session. Subscribers receive every
// event emitted after they subscribe.
type EventEmitter interface {
	Subscribe(fn func(Event)) (unsubscribe func())
}

// EventKind enumerates provider lifecycle events.
type EventKind string

const (
	EventConnecting   EventKind = "connecting"
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
)

// Event is a provider lifecycle notification.
type Event struct {
	Kind EventKind
}

// StaticProvider simulates a wallet that approves every payment. It records
// payments and implements both optional capabilities plus event emission.
type StaticProvider struct {
	mu       sync.Mutex
	balance  int64
	payments []string
	payErr   error
	subs     map[int]func(Event)
	nextSub  int
}

// NewStaticProvider creates a stub wallet holding the given balance.
func NewStaticProvider(balance int64) *StaticProvider {
	return &StaticProvider{balance: balance, subs: make(map[int]func(Event))}
}

// Info identifies the stub backend.
func (p *StaticProvider) Info() string { return "static" }

// FailPayments makes every subsequent SendPayment return err.
func (p *StaticProvider) FailPayments(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payErr = err
}

// SendPayment records the payment request and approves it.
func (p *StaticProvider) SendPayment(_ context.Context, paymentRequest string) (Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.payErr != nil {
		return Payment{}, p.payErr
	}
	p.payments = append(p.payments, paymentRequest)
	return Payment{PaymentHash: "static-hash", Preimage: "static-preimage"}, nil
}

// Balance returns the configured stub balance.
func (p *StaticProvider) Balance(_ context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance, nil
}

// Payments returns the payment requests sent so far.
func (p *StaticProvider) Payments() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.payments))
	copy(out, p.payments)
	return out
}

// Subscribe registers a lifecycle event callback.
func (p *StaticProvider) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Emit delivers an event to all current subscribers.
func (p *StaticProvider) Emit(ev Event) {
	p.mu.Lock()
	fns := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// SubscriberCount reports the number of live subscriptions.
func (p *StaticProvider) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
