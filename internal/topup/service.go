package topup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rolznz/2fiat-topup/internal/card"
	"github.com/rolznz/2fiat-topup/internal/invoice"
	"github.com/rolznz/2fiat-topup/internal/notification"
	"github.com/rolznz/2fiat-topup/internal/prefs"
	"github.com/rolznz/2fiat-topup/internal/wallet"
)

// CardAPI is the slice of the external card API the orchestrator needs.
type CardAPI interface {
	Details(ctx context.Context, ref card.Reference) (card.Details, error)
	CreateTopup(ctx context.Context, ref card.Reference, amountUSD string) (card.TopupOrder, error)
}

// InvoiceResolver resolves an order id into a payment address via the relay.
type InvoiceResolver interface {
	Status(ctx context.Context, invoiceID string) (invoice.Status, error)
}

// Service runs the topup sequence: create order, resolve the invoice through
// the relay, request payment from the connected wallet. Every run is tracked
// as an Attempt so a failure mid-sequence leaves a visible, resumable record
// instead of a silently dangling order.
type Service struct {
	cards     CardAPI
	invoices  InvoiceResolver
	connector *wallet.Connector
	attempts  Repository
	store     prefs.Store
	notifier  notification.Notifier
	logger    *slog.Logger

	// inFlight is the single advisory guard: one topup sequence at a time,
	// concurrent requests are rejected, never queued.
	inFlight atomic.Bool
}

// NewService wires the orchestrator's collaborators.
func NewService(cards CardAPI, invoices InvoiceResolver, connector *wallet.Connector,
	attempts Repository, store prefs.Store, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		cards:     cards,
		invoices:  invoices,
		connector: connector,
		attempts:  attempts,
		store:     store,
		notifier:  notifier,
		logger:    logger,
	}
}

// Topup runs one full topup sequence for the saved card. An empty amount is
// the user-abort path: it returns ErrAmountRequired before anything is
// contacted and without touching the in-flight flag.
func (s *Service) Topup(ctx context.Context, amountUSD string) (Attempt, error) {
	amountUSD = strings.TrimSpace(amountUSD)
	if amountUSD == "" {
		return Attempt{}, ErrAmountRequired
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return Attempt{}, ErrTopupInFlight
	}
	defer s.inFlight.Store(false)

	ref, err := s.cardReference(ctx)
	if err != nil {
		return Attempt{}, err
	}

	sender, err := s.paymentSender()
	if err != nil {
		return Attempt{}, err
	}

	now := time.Now().UTC()
	attempt := Attempt{
		ID:        uuid.NewString(),
		CardID:    ref.CardID,
		AmountUSD: amountUSD,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.run(ctx, attempt, ref, sender, false)
}

// Resume picks a failed attempt up from where it stopped: an attempt with a
// known order id skips order creation, one with a known address goes straight
// to payment. This is what prevents a retry from creating a duplicate order.
func (s *Service) Resume(ctx context.Context, attemptID string) (Attempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if !attempt.Resumable() {
		return attempt, ErrAttemptNotResumable
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return attempt, ErrTopupInFlight
	}
	defer s.inFlight.Store(false)

	ref, err := s.cardReference(ctx)
	if err != nil {
		return attempt, err
	}
	if ref.CardID != attempt.CardID {
		return attempt, fmt.Errorf("attempt belongs to card %s: %w", attempt.CardID, ErrAttemptNotResumable)
	}

	sender, err := s.paymentSender()
	if err != nil {
		return attempt, err
	}

	attempt.FailureReason = ""
	return s.run(ctx, attempt, ref, sender, true)
}

// run advances an attempt through the remaining stages. Each stage transition
// is persisted before the next network call so the record always reflects how
// far the sequence got.
func (s *Service) run(ctx context.Context, attempt Attempt, ref card.Reference,
	sender wallet.PaymentSender, update bool) (Attempt, error) {

	persist := func(a *Attempt) error {
		a.UpdatedAt = time.Now().UTC()
		if update {
			return s.attempts.Update(ctx, *a)
		}
		update = true
		return s.attempts.Save(ctx, *a)
	}

	fail := func(a Attempt, cause error) (Attempt, error) {
		a.State = StateFailed
		a.FailureReason = cause.Error()
		if err := persist(&a); err != nil {
			s.logger.Error("persist failed attempt", "attempt_id", a.ID, "error", err)
		}
		s.notify(ctx, notification.KindTopupFailed, a.ID, "Failed to topup :( "+cause.Error())
		return a, cause
	}

	if attempt.OrderID == "" {
		order, err := s.cards.CreateTopup(ctx, ref, attempt.AmountUSD)
		if err != nil {
			return fail(attempt, fmt.Errorf("create topup order: %w", err))
		}
		attempt.OrderID = order.ID
		attempt.State = StateCreated
		if err := persist(&attempt); err != nil {
			return attempt, err
		}
	}

	if attempt.InvoiceAddress == "" {
		status, err := s.invoices.Status(ctx, attempt.OrderID)
		if err != nil {
			return fail(attempt, fmt.Errorf("resolve invoice: %w", err))
		}
		if status.Address == "" {
			return fail(attempt, ErrNoInvoiceAddress)
		}
		attempt.InvoiceAddress = status.Address
		attempt.State = StateAddressResolved
		if err := persist(&attempt); err != nil {
			return attempt, err
		}
	}

	attempt.State = StatePaymentRequested
	if err := persist(&attempt); err != nil {
		return attempt, err
	}

	payment, err := sender.SendPayment(ctx, attempt.InvoiceAddress)
	if err != nil {
		return fail(attempt, fmt.Errorf("send payment: %w", err))
	}

	attempt.PaymentHash = payment.PaymentHash
	attempt.State = StateConfirmed
	if err := persist(&attempt); err != nil {
		return attempt, err
	}

	s.notify(ctx, notification.KindTopupSucceeded, attempt.ID, "Topped up 🎉🎊")
	s.logger.Info("topup confirmed", "attempt_id", attempt.ID, "order_id", attempt.OrderID)

	if err := s.connector.RefreshBalance(ctx); err != nil {
		s.logger.Warn("refresh wallet balance", "error", err)
	}

	return attempt, nil
}

// CardDetails fetches the saved card's balance.
func (s *Service) CardDetails(ctx context.Context) (card.Details, error) {
	ref, err := s.cardReference(ctx)
	if err != nil {
		return card.Details{}, err
	}
	return s.cards.Details(ctx, ref)
}

// Attempt returns one attempt record.
func (s *Service) Attempt(ctx context.Context, id string) (Attempt, error) {
	return s.attempts.Get(ctx, id)
}

// Attempts lists attempt records, newest first.
func (s *Service) Attempts(ctx context.Context) ([]Attempt, error) {
	return s.attempts.List(ctx)
}

// InFlight reports whether a topup sequence is currently running.
func (s *Service) InFlight() bool {
	return s.inFlight.Load()
}

func (s *Service) cardReference(ctx context.Context) (card.Reference, error) {
	cardURL, err := s.store.Get(ctx, prefs.KeyCardURL)
	if err != nil {
		return card.Reference{}, err
	}
	if cardURL == "" {
		return card.Reference{}, ErrNoCard
	}
	ref, err := card.ParseReference(cardURL)
	if err != nil {
		return card.Reference{}, fmt.Errorf("%w: %s", ErrNoCard, err)
	}
	return ref, nil
}

func (s *Service) paymentSender() (wallet.PaymentSender, error) {
	provider, ok := s.connector.Provider()
	if !ok {
		return nil, wallet.ErrNotConnected
	}
	sender, ok := provider.(wallet.PaymentSender)
	if !ok {
		return nil, ErrPaymentUnsupported
	}
	return sender, nil
}

func (s *Service) notify(ctx context.Context, kind, attemptID, body string) {
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, AttemptID: attemptID, Body: body}); err != nil {
		s.logger.Warn("send notification", "kind", kind, "error", err)
	}
}
