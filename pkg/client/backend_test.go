package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"lnswap/pkg/types"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, r http.Handler) *BackendClient {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := NewBackendClient(srv.URL+"/api", srv.Client(), testLogger())
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func TestNewBackendClient_ValidatesURL(t *testing.T) {
	_, err := NewBackendClient("://bad", nil, nil)
	require.Error(t, err)

	_, err = NewBackendClient("/relative", nil, nil)
	require.Error(t, err)
}

func TestListCurrencies(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/currencies", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"code":0,"msg":"OK","data":[
			{"code":"USDCETH","coin":"USDC","network":"ETH","send":1,"recv":1},
			{"code":"BTC","coin":"BTC","network":"BTC","send":0,"recv":1},
			{"code":"XMR","send":"1","recv":0}
		]}`)
	})
	c := newTestClient(t, r)

	list, err := c.ListCurrencies(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, types.Currency{Code: "USDCETH", Coin: "USDC", Network: "ETH", Send: true, Recv: true}, list[0])

	send := EligibleCurrencies(list, types.ToRecipient)
	require.Equal(t, []string{"USDCETH", "XMR"}, codes(send))

	recv := EligibleCurrencies(list, types.FromRecipient)
	require.Equal(t, []string{"BTC", "USDCETH"}, codes(recv))
}

func TestListCurrencies_TransportAndLogicFailures(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/currencies", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"upstream down"}`, http.StatusBadGateway)
	})
	c := newTestClient(t, r)

	_, err := c.ListCurrencies(context.Background())
	require.ErrorIs(t, err, types.ErrTransport)
	require.Contains(t, err.Error(), "upstream down")

	r2 := chi.NewRouter()
	r2.Get("/api/currencies", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"code":301,"msg":"Invalid API key","data":null}`)
	})
	c2 := newTestClient(t, r2)

	_, err = c2.ListCurrencies(context.Background())
	require.ErrorIs(t, err, types.ErrBackendLogic)
	require.Contains(t, err.Error(), "Invalid API key")

	r3 := chi.NewRouter()
	r3.Get("/api/currencies", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{`)
	})
	c3 := newTestClient(t, r3)

	_, err = c3.ListCurrencies(context.Background())
	require.ErrorIs(t, err, types.ErrTransport)
}

func TestGetQuote(t *testing.T) {
	var got map[string]string
	r := chi.NewRouter()
	r.Post("/api/exchange-rate", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		writeJSON(w, `{"code":0,"data":{"from":{"amount":"10","coin":"USDC"},"to":{"amount":"0.00025","coin":"BTC"},"errors":[]}}`)
	})
	c := newTestClient(t, r)

	q, err := c.GetQuote(context.Background(), "USDCETH", "10")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"direction": "from", "ccy": "USDCETH", "amount": "10"}, got)
	require.Equal(t, "0.00025", q.ToAmount.String())
	require.Equal(t, "10", q.FromAmount.String())
	require.Equal(t, "BTC", q.ToCoin)
}

func TestGetQuote_BackendErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/exchange-rate", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"code":0,"data":{"from":{"amount":"10"},"to":{"amount":"0.00025"},"errors":["LIMIT_MIN"]}}`)
	})
	c := newTestClient(t, r)

	_, err := c.GetQuote(context.Background(), "USDCETH", "10")
	require.ErrorIs(t, err, types.ErrBackendLogic)
	require.Contains(t, err.Error(), "LIMIT_MIN")

	r2 := chi.NewRouter()
	r2.Post("/api/exchange-rate", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"data":{"to":{}}}`)
	})
	c2 := newTestClient(t, r2)

	_, err = c2.GetQuote(context.Background(), "USDCETH", "10")
	require.ErrorIs(t, err, types.ErrBackendLogic)
}

func TestCreateOrder_PayloadPerDirection(t *testing.T) {
	var bodies []map[string]any
	r := chi.NewRouter()
	r.Post("/api/create-order", func(w http.ResponseWriter, req *http.Request) {
		var b map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&b))
		bodies = append(bodies, b)
		writeJSON(w, `{"code":0,"data":{"id":"ORD1","token":"tok","status":"NEW",
			"from":{"code":"BTCLN","coin":"BTC","amount":"0.001","address":"lnbc1invoice"},
			"to":{"code":"USDCETH","address":"0xabc"}}}`)
	})
	c := newTestClient(t, r)

	order, err := c.CreateOrder(context.Background(), types.OrderRequest{
		Direction: types.ToRecipient, Currency: "USDCETH", Amount: "10", ToAddress: "0xabc",
	})
	require.NoError(t, err)
	require.Equal(t, types.OrderRef{ID: "ORD1", Token: "tok"}, order.Ref)
	require.Equal(t, "lnbc1invoice", order.From.Address)

	_, err = c.CreateOrder(context.Background(), types.OrderRequest{
		Direction: types.FromRecipient, Currency: "USDCETH", Amount: "0.00025", ToAddress: "lnbc25u1",
	})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	require.Equal(t, map[string]any{"direction": "to", "ccy": "USDCETH", "amount": "10", "toAddress": "0xabc"}, bodies[0])
	require.Equal(t, map[string]any{"direction": "from", "ccy": "USDCETH", "amount": "0.00025", "toAddress": "lnbc25u1"}, bodies[1])
}

func TestCreateOrder_RequiresAddressToSend(t *testing.T) {
	var calls int32
	r := chi.NewRouter()
	r.Post("/api/create-order", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	c := newTestClient(t, r)

	_, err := c.CreateOrder(context.Background(), types.OrderRequest{Direction: types.ToRecipient, Currency: "USDCETH", Amount: "1"})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestCreateOrder_TransportFailureIsUnconfirmed(t *testing.T) {
	var calls int32
	r := chi.NewRouter()
	r.Post("/api/create-order", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, r)

	_, err := c.CreateOrder(context.Background(), types.OrderRequest{
		Direction: types.ToRecipient, Currency: "USDCETH", Amount: "1", ToAddress: "0xabc",
	})
	require.ErrorIs(t, err, types.ErrOrderUnconfirmed)
	require.ErrorIs(t, err, types.ErrTransport)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "create-order must not be retried")
}

func TestCreateOrder_MissingCredentials(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/create-order", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"code":0,"data":{"id":"ORD1","from":{"address":"lnbc1"}}}`)
	})
	c := newTestClient(t, r)

	_, err := c.CreateOrder(context.Background(), types.OrderRequest{
		Direction: types.ToRecipient, Currency: "USDCETH", Amount: "1", ToAddress: "0xabc",
	})
	require.ErrorIs(t, err, types.ErrBackendLogic)
	require.NotErrorIs(t, err, types.ErrOrderUnconfirmed)
}

func TestOrderStatus(t *testing.T) {
	var got map[string]string
	r := chi.NewRouter()
	r.Post("/api/order-details", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		writeJSON(w, `{"code":0,"data":{"status":"completed"}}`)
	})
	c := newTestClient(t, r)

	status, err := c.OrderStatus(context.Background(), types.OrderRef{ID: "ORD1", Token: "tok"})
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, status)
	require.Equal(t, map[string]string{"id": "ORD1", "token": "tok"}, got)
}

func TestQRCode(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/qrcode", func(w http.ResponseWriter, req *http.Request) {
		var b map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&b))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<svg>" + b["data"] + "</svg>"))
	})
	c := newTestClient(t, r)

	svg, err := c.QRCode(context.Background(), "ethereum:0xabc")
	require.NoError(t, err)
	require.Equal(t, "<svg>ethereum:0xabc</svg>", svg)
}

func codes(list []types.Currency) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Code)
	}
	return out
}
