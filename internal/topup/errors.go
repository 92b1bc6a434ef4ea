package topup

import "errors"

var (
	// ErrAmountRequired signals an empty amount. This is the user-abort path:
	// the caller treats it as a no-op and nothing is contacted.
	ErrAmountRequired = errors.New("topup amount is required")

	// ErrTopupInFlight rejects a topup while another one is still running.
	ErrTopupInFlight = errors.New("a topup is already in flight")

	// ErrNoCard indicates no saved card reference.
	ErrNoCard = errors.New("no card connected")

	// ErrPaymentUnsupported indicates the connected wallet lacks the
	// send-payment capability.
	ErrPaymentUnsupported = errors.New("wallet cannot send payments")

	// ErrNoInvoiceAddress indicates an invoice status without a payment
	// address; the wallet is never asked to pay in that case.
	ErrNoInvoiceAddress = errors.New("no address in invoice status")

	// ErrAttemptNotFound indicates an unknown attempt id.
	ErrAttemptNotFound = errors.New("topup attempt not found")

	// ErrAttemptNotResumable rejects resuming an attempt that has not failed.
	ErrAttemptNotResumable = errors.New("topup attempt is not resumable")
)
