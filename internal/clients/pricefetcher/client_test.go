package pricefetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

func TestQuotes_ParsesResponse(t *testing.T) {
	var capturedPath, capturedSymbols string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedSymbols = r.URL.Query().Get("symbols")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"AAPL":{"last":187.12345678,"close":185.5,"ts":1700000000},"SAP":{"last":"142.10"}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quotes, err := client.Quotes(context.Background(), []string{"AAPL", "SAP", "AAPL", " "})
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}

	if capturedPath != "/v1/quotes" {
		t.Errorf("expected path /v1/quotes, got %s", capturedPath)
	}
	if capturedSymbols != "AAPL,SAP" {
		t.Errorf("expected symbols AAPL,SAP, got %s", capturedSymbols)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}

	aapl := quotes["AAPL"]
	if aapl.Last.String() != "187.12345678" {
		t.Errorf("expected last 187.12345678 without float rounding, got %s", aapl.Last)
	}
	if aapl.Close == nil || aapl.Close.String() != "185.5" {
		t.Errorf("expected close 185.5, got %v", aapl.Close)
	}
	if aapl.TS == nil || *aapl.TS != 1700000000 {
		t.Errorf("expected ts 1700000000, got %v", aapl.TS)
	}
	if aapl.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", aapl.Symbol)
	}

	sap := quotes["SAP"]
	if sap.Last.String() != "142.1" {
		t.Errorf("expected quoted last to decode, got %s", sap.Last)
	}
	if sap.Close != nil || sap.TS != nil {
		t.Errorf("expected optional fields to stay nil, got close=%v ts=%v", sap.Close, sap.TS)
	}
}

func TestQuotes_UnknownSymbolsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AAPL":{"last":1}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quotes, err := client.Quotes(context.Background(), []string{"AAPL", "NOPE"})
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}
	if _, ok := quotes["NOPE"]; ok {
		t.Error("expected unknown symbol to be absent")
	}
}

func TestQuotes_MissingLastIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AAPL":{"close":1}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Quotes(context.Background(), []string{"AAPL"})
	if err == nil {
		t.Fatal("expected error for quote without last price")
	}
	if errors.Is(err, models.ErrDependencyUnavailable) {
		t.Errorf("decode errors should not be classified as unavailable: %v", err)
	}
}

func TestEmptyInput_NoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	quotes, err := client.Quotes(context.Background(), nil)
	if err != nil || len(quotes) != 0 {
		t.Errorf("expected empty quotes and no error, got %v, %v", quotes, err)
	}
	rates, err := client.FX(context.Background(), []string{})
	if err != nil || len(rates) != 0 {
		t.Errorf("expected empty rates and no error, got %v, %v", rates, err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("expected no HTTP calls, got %d", n)
	}
}

func TestFX_ParsesResponse(t *testing.T) {
	var capturedPath, capturedPairs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedPairs = r.URL.Query().Get("pairs")
		w.Write([]byte(`{"EURUSD":1.1065,"GBPUSD":1.27}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL + "/"))
	rates, err := client.FX(context.Background(), []string{"EURUSD", "GBPUSD"})
	if err != nil {
		t.Fatalf("FX failed: %v", err)
	}
	if capturedPath != "/v1/fx" {
		t.Errorf("expected path /v1/fx, got %s", capturedPath)
	}
	if capturedPairs != "EURUSD,GBPUSD" {
		t.Errorf("expected pairs EURUSD,GBPUSD, got %s", capturedPairs)
	}
	if rates["EURUSD"].String() != "1.1065" {
		t.Errorf("expected EURUSD 1.1065, got %s", rates["EURUSD"])
	}
	if rates["GBPUSD"].String() != "1.27" {
		t.Errorf("expected GBPUSD 1.27, got %s", rates["GBPUSD"])
	}
}

func TestFX_Non2xxIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FX(context.Background(), []string{"EURUSD"})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/v1/fx" {
		t.Errorf("expected endpoint /v1/fx, got %s", apiErr.Endpoint)
	}
	if apiErr.Message != "upstream down" {
		t.Errorf("expected body in message, got %q", apiErr.Message)
	}
	if !errors.Is(err, models.ErrDependencyUnavailable) {
		t.Error("expected APIError to wrap ErrDependencyUnavailable")
	}
}

func TestQuotes_TimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond))
	_, err := client.Quotes(context.Background(), []string{"AAPL"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, models.ErrDependencyUnavailable) {
		t.Errorf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestWithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"EURUSD":1.1}`))
	}))
	defer srv.Close()

	hc := srv.Client()
	client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(hc), WithRateLimit(0))
	if client.httpClient != hc {
		t.Fatal("expected custom HTTP client to be used")
	}
	if _, err := client.FX(context.Background(), []string{"EURUSD"}); err != nil {
		t.Fatalf("FX failed: %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient()
	if client.baseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %s", client.baseURL)
	}
	if client.httpClient.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, client.httpClient.Timeout)
	}
}
