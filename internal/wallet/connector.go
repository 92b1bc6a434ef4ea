package wallet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// State describes the connector's position in its lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// ErrNotConnected indicates an operation that requires a connected wallet.
var ErrNotConnected = errors.New("no wallet connected")

// Connector owns the wallet connection lifecycle. It holds at most one
// provider at a time, subscribes to the provider's lifecycle events exactly
// once per connection and releases that subscription exactly once on
// disconnect.
type Connector struct {
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	provider Provider
	balance  *int64
	unsub    func()
}

// NewConnector creates a connector in the disconnected state.
func NewConnector(logger *slog.Logger) *Connector {
	return &Connector{logger: logger, state: StateDisconnected}
}

// Connect attaches a provider. The connector transitions through connecting,
// reads the balance when the provider supports it, and lands in connected.
// Connecting while already connected replaces the previous provider after
// releasing its subscription.
func (c *Connector) Connect(ctx context.Context, provider Provider) error {
	c.mu.Lock()
	c.release()
	c.state = StateConnecting
	c.provider = nil
	c.balance = nil
	c.mu.Unlock()

	var balance *int64
	if reader, ok := provider.(BalanceReader); ok {
		amount, err := reader.Balance(ctx)
		if err != nil {
			c.mu.Lock()
			c.state = StateDisconnected
			c.mu.Unlock()
			return err
		}
		balance = &amount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if emitter, ok := provider.(EventEmitter); ok {
		c.unsub = emitter.Subscribe(c.handleEvent)
	}
	c.state = StateConnected
	c.provider = provider
	c.balance = balance

	c.logger.Info("wallet connected", "provider", provider.Info())
	return nil
}

// Disconnect drops the current provider and releases its event subscription.
// Disconnecting an already-disconnected connector is a no-op.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
	c.state = StateDisconnected
	c.provider = nil
	c.balance = nil
}

// release cancels the event subscription if one is held. Callers must hold mu.
func (c *Connector) release() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

func (c *Connector) handleEvent(ev Event) {
	switch ev.Kind {
	case EventConnecting:
		c.mu.Lock()
		c.state = StateConnecting
		c.mu.Unlock()
	case EventDisconnected:
		c.logger.Info("wallet disconnected by provider")
		c.Disconnect()
	case EventConnected:
		c.mu.Lock()
		if c.provider != nil {
			c.state = StateConnected
		}
		c.mu.Unlock()
	}
}

// Provider returns the connected provider, if any.
func (c *Connector) Provider() (Provider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.provider == nil {
		return nil, false
	}
	return c.provider, true
}

// Snapshot reports the current state, balance (nil when unknown or the
// provider cannot read it) and provider label.
func (c *Connector) Snapshot() (State, *int64, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := ""
	if c.provider != nil {
		info = c.provider.Info()
	}
	return c.state, c.balance, info
}

// RefreshBalance re-reads the balance from a balance-capable provider.
func (c *Connector) RefreshBalance(ctx context.Context) error {
	provider, ok := c.Provider()
	if !ok {
		return ErrNotConnected
	}
	reader, ok := provider.(BalanceReader)
	if !ok {
		return nil
	}
	amount, err := reader.Balance(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.provider == provider {
		c.balance = &amount
	}
	c.mu.Unlock()
	return nil
}
