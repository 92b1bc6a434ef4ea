package topup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rolznz/2fiat-topup/internal/card"
	"github.com/rolznz/2fiat-topup/internal/invoice"
	"github.com/rolznz/2fiat-topup/internal/logging"
	"github.com/rolznz/2fiat-topup/internal/notification"
	"github.com/rolznz/2fiat-topup/internal/prefs"
	"github.com/rolznz/2fiat-topup/internal/wallet"
)

const testCardURL = "https://2fiat.com/wallet/tok123/card-details/card456"

type fakeCardAPI struct {
	detailsCalls atomic.Int64
	topupCalls   atomic.Int64
	topupErr     error
	orderID      string
	lastAmount   string
}

func (f *fakeCardAPI) Details(_ context.Context, _ card.Reference) (card.Details, error) {
	f.detailsCalls.Add(1)
	return card.Details{CardBal: "42.50"}, nil
}

func (f *fakeCardAPI) CreateTopup(_ context.Context, _ card.Reference, amountUSD string) (card.TopupOrder, error) {
	f.topupCalls.Add(1)
	f.lastAmount = amountUSD
	if f.topupErr != nil {
		return card.TopupOrder{}, f.topupErr
	}
	return card.TopupOrder{ID: f.orderID}, nil
}

type fakeResolver struct {
	calls     atomic.Int64
	address   string
	statusErr error
	lastID    string
}

func (f *fakeResolver) Status(_ context.Context, invoiceID string) (invoice.Status, error) {
	f.calls.Add(1)
	f.lastID = invoiceID
	if f.statusErr != nil {
		return invoice.Status{}, f.statusErr
	}
	return invoice.Status{Address: f.address}, nil
}

type fixture struct {
	service   *Service
	cards     *fakeCardAPI
	resolver  *fakeResolver
	provider  *wallet.StaticProvider
	connector *wallet.Connector
	attempts  Repository
	store     prefs.Store
}

func newFixture(t *testing.T, connectWallet bool) *fixture {
	t.Helper()
	ctx := context.Background()

	cards := &fakeCardAPI{orderID: "order789"}
	resolver := &fakeResolver{address: "lnbc1..."}
	connector := wallet.NewConnector(logging.Discard())
	provider := wallet.NewStaticProvider(100_000)
	if connectWallet {
		if err := connector.Connect(ctx, provider); err != nil {
			t.Fatalf("connect wallet: %v", err)
		}
	}

	store := prefs.NewMemoryStore()
	if err := store.Set(ctx, prefs.KeyCardURL, testCardURL); err != nil {
		t.Fatalf("seed card url: %v", err)
	}

	attempts := NewMemoryRepository()
	notifier := notification.NewLoggerNotifier(logging.Discard())
	service := NewService(cards, resolver, connector, attempts, store, notifier, logging.Discard())

	return &fixture{
		service:   service,
		cards:     cards,
		resolver:  resolver,
		provider:  provider,
		connector: connector,
		attempts:  attempts,
		store:     store,
	}
}

func TestTopupSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	attempt, err := f.service.Topup(ctx, "25")
	if err != nil {
		t.Fatalf("topup: %v", err)
	}

	if attempt.State != StateConfirmed {
		t.Fatalf("expected confirmed got %s", attempt.State)
	}
	if attempt.OrderID != "order789" {
		t.Fatalf("expected order id order789 got %s", attempt.OrderID)
	}
	if f.cards.lastAmount != "25" {
		t.Fatalf("expected amount 25 got %s", f.cards.lastAmount)
	}
	if f.resolver.lastID != "order789" {
		t.Fatalf("relay queried with %s, expected order789", f.resolver.lastID)
	}
	if payments := f.provider.Payments(); len(payments) != 1 || payments[0] != "lnbc1..." {
		t.Fatalf("unexpected payments: %v", payments)
	}

	stored, err := f.attempts.Get(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get stored attempt: %v", err)
	}
	if stored.State != StateConfirmed {
		t.Fatalf("expected stored state confirmed got %s", stored.State)
	}
	if f.service.InFlight() {
		t.Fatal("in-flight flag not reset")
	}
}

func TestTopupEmptyAmountIsSilentNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	_, err := f.service.Topup(ctx, "  ")
	if !errors.Is(err, ErrAmountRequired) {
		t.Fatalf("expected ErrAmountRequired got %v", err)
	}

	if f.cards.topupCalls.Load() != 0 || f.resolver.calls.Load() != 0 {
		t.Fatal("expected no network calls")
	}
	if len(f.provider.Payments()) != 0 {
		t.Fatal("expected no payments")
	}
	if f.service.InFlight() {
		t.Fatal("in-flight flag must remain false")
	}
	attempts, _ := f.attempts.List(ctx)
	if len(attempts) != 0 {
		t.Fatalf("expected no attempt records, got %d", len(attempts))
	}
}

func TestTopupOrderCreationFailureSkipsRelay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.cards.topupErr = errors.New("card api 422: minimum topup is $10")

	attempt, err := f.service.Topup(ctx, "1")
	if err == nil {
		t.Fatal("expected error")
	}

	if f.resolver.calls.Load() != 0 {
		t.Fatal("relay must not be called when order creation fails")
	}
	if len(f.provider.Payments()) != 0 {
		t.Fatal("wallet must not be asked to pay")
	}
	if attempt.State != StateFailed {
		t.Fatalf("expected failed got %s", attempt.State)
	}
	if attempt.OrderID != "" {
		t.Fatalf("expected no order id got %s", attempt.OrderID)
	}
	if f.service.InFlight() {
		t.Fatal("in-flight flag not reset")
	}
}

func TestTopupMissingAddressSkipsPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.resolver.address = ""

	attempt, err := f.service.Topup(ctx, "25")
	if !errors.Is(err, ErrNoInvoiceAddress) {
		t.Fatalf("expected ErrNoInvoiceAddress got %v", err)
	}

	if len(f.provider.Payments()) != 0 {
		t.Fatal("wallet must not be asked to pay without an address")
	}
	if attempt.State != StateFailed {
		t.Fatalf("expected failed got %s", attempt.State)
	}
	// The order was created; the record must say so for later resumption.
	if attempt.OrderID != "order789" {
		t.Fatalf("expected order id recorded, got %q", attempt.OrderID)
	}
}

func TestTopupPaymentFailureLeavesResumableAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.provider.FailPayments(errors.New("user cancelled"))

	attempt, err := f.service.Topup(ctx, "25")
	if err == nil {
		t.Fatal("expected error")
	}
	if !attempt.Resumable() {
		t.Fatalf("expected resumable attempt, state %s", attempt.State)
	}
	if attempt.InvoiceAddress != "lnbc1..." {
		t.Fatalf("expected address recorded got %q", attempt.InvoiceAddress)
	}
}

func TestResumeSkipsCompletedStages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.provider.FailPayments(errors.New("user cancelled"))

	attempt, err := f.service.Topup(ctx, "25")
	if err == nil {
		t.Fatal("expected first run to fail")
	}

	ordersBefore := f.cards.topupCalls.Load()
	statusBefore := f.resolver.calls.Load()

	f.provider.FailPayments(nil)
	resumed, err := f.service.Resume(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}

	if resumed.State != StateConfirmed {
		t.Fatalf("expected confirmed got %s", resumed.State)
	}
	if f.cards.topupCalls.Load() != ordersBefore {
		t.Fatal("resume must not create a second order")
	}
	if f.resolver.calls.Load() != statusBefore {
		t.Fatal("resume must not re-resolve a known address")
	}
	if resumed.OrderID != attempt.OrderID {
		t.Fatalf("order id changed across resume: %s vs %s", resumed.OrderID, attempt.OrderID)
	}
}

func TestResumeRejectsConfirmedAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	attempt, err := f.service.Topup(ctx, "25")
	if err != nil {
		t.Fatalf("topup: %v", err)
	}

	if _, err := f.service.Resume(ctx, attempt.ID); !errors.Is(err, ErrAttemptNotResumable) {
		t.Fatalf("expected ErrAttemptNotResumable got %v", err)
	}
}

func TestTopupRejectsConcurrentRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	f.service.inFlight.Store(true)
	if _, err := f.service.Topup(ctx, "25"); !errors.Is(err, ErrTopupInFlight) {
		t.Fatalf("expected ErrTopupInFlight got %v", err)
	}
	if f.cards.topupCalls.Load() != 0 {
		t.Fatal("expected no order creation while in flight")
	}
}

func TestTopupRequiresWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	if _, err := f.service.Topup(ctx, "25"); !errors.Is(err, wallet.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected got %v", err)
	}
	if f.cards.topupCalls.Load() != 0 {
		t.Fatal("expected no order creation without a wallet")
	}
}

func TestTopupRequiresCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	if err := f.store.Delete(ctx, prefs.KeyCardURL); err != nil {
		t.Fatalf("delete card url: %v", err)
	}

	if _, err := f.service.Topup(ctx, "25"); !errors.Is(err, ErrNoCard) {
		t.Fatalf("expected ErrNoCard got %v", err)
	}
}

type viewOnlyProvider struct{}

func (viewOnlyProvider) Info() string { return "view-only" }

func (viewOnlyProvider) Balance(context.Context) (int64, error) { return 0, nil }

func TestTopupRequiresPaymentCapability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	if err := f.connector.Connect(ctx, viewOnlyProvider{}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := f.service.Topup(ctx, "25"); !errors.Is(err, ErrPaymentUnsupported) {
		t.Fatalf("expected ErrPaymentUnsupported got %v", err)
	}
}

func TestCardDetails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	details, err := f.service.CardDetails(ctx)
	if err != nil {
		t.Fatalf("card details: %v", err)
	}
	if details.CardBal != "42.50" {
		t.Fatalf("expected 42.50 got %s", details.CardBal)
	}
}
