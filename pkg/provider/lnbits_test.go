package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newLNbitsServer(t *testing.T, paid bool) (*LNbits, *[]map[string]any) {
	t.Helper()
	var payments []map[string]any

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("X-Api-Key") != "admin-key" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Invalid key"}`))
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/v1/wallet", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"w1","name":"main","balance":100000}`))
	})
	r.Post("/api/v1/payments", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)
		payments = append(payments, body)
		if body["out"] == true {
			_, _ = w.Write([]byte(`{"payment_hash":"hash1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"payment_hash":"hash2","payment_request":"lnbc250u1invoice"}`))
	})
	r.Get("/api/v1/payments/{hash}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "hash") != "hash1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if paid {
			_, _ = w.Write([]byte(`{"paid":true,"preimage":"00ff"}`))
			return
		}
		_, _ = w.Write([]byte(`{"paid":false}`))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	l, err := NewLNbits(srv.URL, "admin-key", "lnswap", srv.Client(), quietLogger())
	require.NoError(t, err)
	return l, &payments
}

func TestLNbits_EnableAndInvoice(t *testing.T) {
	l, payments := newLNbitsServer(t, true)

	require.NoError(t, l.Enable(context.Background()))

	inv, err := l.MakeInvoice(context.Background(), 25000)
	require.NoError(t, err)
	require.Equal(t, "lnbc250u1invoice", inv.PaymentRequest)
	require.Equal(t, []map[string]any{{"out": false, "amount": float64(25000), "memo": "lnswap"}}, *payments)
}

func TestLNbits_SendPayment(t *testing.T) {
	l, payments := newLNbitsServer(t, true)

	res, err := l.SendPayment(context.Background(), "lnbc1pay")
	require.NoError(t, err)
	require.Equal(t, "00ff", res.Preimage)
	require.Equal(t, "lnbc1pay", (*payments)[0]["bolt11"])
}

func TestLNbits_UnpaidHasNoPreimage(t *testing.T) {
	l, _ := newLNbitsServer(t, false)

	res, err := l.SendPayment(context.Background(), "lnbc1pay")
	require.NoError(t, err)
	require.Empty(t, res.Preimage)
}

func TestLNbits_BadKey(t *testing.T) {
	l, _ := newLNbitsServer(t, true)
	l.apiKey = "wrong"

	err := l.Enable(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid key")
}
