package gasprice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmath "cosmossdk.io/math"
)

func TestRPCSourceLatestGasPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		// 30 gwei
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x6fc23ac00"}`))
	}))
	defer srv.Close()

	src := NewRPCSource(srv.URL, "")
	got, err := src.LatestGasPrice(context.Background())
	if err != nil {
		t.Fatalf("LatestGasPrice: %v", err)
	}
	want := sdkmath.NewInt(30_000_000_000)
	if !got.Equal(want) {
		t.Errorf("gas price = %s, want %s", got, want)
	}
}

func TestRPCSourceErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	}))
	defer srv.Close()

	src := NewRPCSource(srv.URL, "")
	if _, err := src.LatestGasPrice(context.Background()); err == nil {
		t.Fatal("expected rpc error, got nil")
	}
}

func TestStaticSource(t *testing.T) {
	s := NewStatic(sdkmath.NewInt(1_000_000_000))
	got, err := s.LatestGasPrice(context.Background())
	if err != nil {
		t.Fatalf("LatestGasPrice: %v", err)
	}
	if !got.Equal(sdkmath.NewInt(1_000_000_000)) {
		t.Errorf("gas price = %s", got)
	}

	s.Set(sdkmath.NewInt(2_000_000_000))
	got, _ = s.LatestGasPrice(context.Background())
	if !got.Equal(sdkmath.NewInt(2_000_000_000)) {
		t.Errorf("gas price after Set = %s", got)
	}
}
