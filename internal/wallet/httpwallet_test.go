package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPProviderBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/balance" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %s", got)
		}
		_ = json.NewEncoder(w).Encode(balanceResponse{Balance: 12_345})
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, "tok")
	balance, err := provider.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 12_345 {
		t.Fatalf("expected 12345 got %d", balance)
	}
}

func TestHTTPProviderSendPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req payInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.PayRequest != "lnbc1..." {
			t.Errorf("unexpected pay_req %s", req.PayRequest)
		}
		_ = json.NewEncoder(w).Encode(Payment{PaymentHash: "hash", Preimage: "pre"})
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, "tok")
	payment, err := provider.SendPayment(context.Background(), "lnbc1...")
	if err != nil {
		t.Fatalf("send payment: %v", err)
	}
	if payment.PaymentHash != "hash" || payment.Preimage != "pre" {
		t.Fatalf("unexpected payment %+v", payment)
	}
}

func TestHTTPProviderSendPaymentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient balance", http.StatusBadRequest)
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, "tok")
	_, err := provider.SendPayment(context.Background(), "lnbc1...")
	if !errors.Is(err, ErrPaymentRejected) {
		t.Fatalf("expected ErrPaymentRejected got %v", err)
	}
}
