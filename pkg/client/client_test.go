package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_UnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want Bearer tok-123", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"coins":500,"rank":"premium"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	c.SetToken("tok-123")

	var u User
	if err := c.doRequest(context.Background(), http.MethodGet, "/api/v1/ledger", nil, &u); err != nil {
		t.Fatalf("doRequest() error = %v", err)
	}
	if u.Coins != 500 || u.Rank != "premium" {
		t.Errorf("user = %+v", u)
	}
}

func TestClient_ParsesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"error":{"code":"INSUFFICIENT_FUNDS","message":"not enough coins"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	err := c.doRequest(context.Background(), http.MethodPost, "/api/v1/shop/purchase", map[string]any{"resource": "memory"}, nil)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("doRequest() error = %T %v, want *APIError", err, err)
	}
	if apiErr.Code != "INSUFFICIENT_FUNDS" || apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !apiErr.IsRejectedPurchase() {
		t.Error("IsRejectedPurchase() = false for INSUFFICIENT_FUNDS")
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream proxy error"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	err := c.doRequest(context.Background(), http.MethodGet, "/api/v1/ledger", nil, nil)
	if err == nil {
		t.Fatal("doRequest() returned nil for a 502")
	}
	if _, ok := err.(*APIError); ok {
		t.Error("doRequest() fabricated an APIError from a non-JSON body")
	}
}
