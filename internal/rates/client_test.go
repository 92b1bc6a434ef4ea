package rates

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rateServer(t *testing.T, rates map[string]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for currency, rate := range rates {
			if r.URL.Path == "/rates/"+currency+".json" {
				fmt.Fprintf(w, `{"currency":%q,"rate_float":%v}`, currency, rate)
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBtcRate(t *testing.T) {
	srv := rateServer(t, map[string]float64{"usd": 100_000})

	client := NewClient(srv.URL)
	rate, err := client.BtcRate(context.Background(), "USD")
	if err != nil {
		t.Fatalf("btc rate: %v", err)
	}
	if rate != 100_000 {
		t.Fatalf("expected 100000 got %v", rate)
	}
}

func TestFiatValue(t *testing.T) {
	srv := rateServer(t, map[string]float64{"usd": 100_000})

	client := NewClient(srv.URL)
	value, err := client.FiatValue(context.Background(), 50_000, "USD")
	if err != nil {
		t.Fatalf("fiat value: %v", err)
	}
	// 50k sats at $100k/BTC is $50.
	if math.Abs(value-50) > 1e-9 {
		t.Fatalf("expected 50 got %v", value)
	}
}

func TestConvertUSD(t *testing.T) {
	srv := rateServer(t, map[string]float64{"usd": 100_000, "eur": 90_000})

	client := NewClient(srv.URL)
	value, err := client.ConvertUSD(context.Background(), 10, "EUR")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if math.Abs(value-9) > 1e-9 {
		t.Fatalf("expected 9 got %v", value)
	}
}

func TestBtcRateUnknownCurrency(t *testing.T) {
	srv := rateServer(t, map[string]float64{"usd": 100_000})

	client := NewClient(srv.URL)
	if _, err := client.BtcRate(context.Background(), "XXX"); err == nil {
		t.Fatal("expected error for unknown currency")
	}
}
