package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"lnswap/pkg/types"
)

// DefaultTimeout bounds a single backend call when no http.Client is supplied
const DefaultTimeout = 30 * time.Second

// BackendClient talks to the exchange backend HTTP API
type BackendClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logrus.FieldLogger
}

// envelope is the {code, msg, data} wrapper every backend answer comes in
type envelope struct {
	Code *int            `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type currencyDTO struct {
	Code    string   `json:"code"`
	Coin    string   `json:"coin"`
	Network string   `json:"network"`
	Name    string   `json:"name"`
	Send    flagBool `json:"send"`
	Recv    flagBool `json:"recv"`
}

type assetDTO struct {
	Code    string `json:"code"`
	Coin    string `json:"coin"`
	Network string `json:"network"`
	Amount  string `json:"amount"`
	Address string `json:"address"`
}

type quoteDTO struct {
	From   assetDTO `json:"from"`
	To     assetDTO `json:"to"`
	Errors []string `json:"errors"`
}

type orderDTO struct {
	ID     string   `json:"id"`
	Token  string   `json:"token"`
	Status string   `json:"status"`
	From   assetDTO `json:"from"`
	To     assetDTO `json:"to"`
}

type statusDTO struct {
	Status string `json:"status"`
}

type quoteRequest struct {
	Direction string `json:"direction"`
	Ccy       string `json:"ccy"`
	Amount    string `json:"amount"`
}

type createOrderRequest struct {
	Direction string `json:"direction"`
	Ccy       string `json:"ccy"`
	Amount    string `json:"amount"`
	ToAddress string `json:"toAddress,omitempty"`
}

type orderDetailsRequest struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type qrRequest struct {
	Data string `json:"data"`
}

// flagBool decodes the 0|1 flags of the currency listing; booleans and strings are accepted too
type flagBool bool

func (f *flagBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(strings.TrimSpace(string(b)), `"`) {
	case "1", "true":
		*f = true
	case "0", "false", "null", "":
		*f = false
	default:
		return fmt.Errorf("unexpected flag value %s", string(b))
	}
	return nil
}

// NewBackendClient creates a client for the backend rooted at baseURL (e.g. http://localhost:8080/api)
func NewBackendClient(baseURL string, httpClient *http.Client, log logrus.FieldLogger) (*BackendClient, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("backend url must be absolute: %s", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &BackendClient{
		baseURL: parsed,
		http:    httpClient,
		log:     log,
	}, nil
}

// ListCurrencies retrieves all tradable currencies
func (c *BackendClient) ListCurrencies(ctx context.Context) ([]types.Currency, error) {
	var dtos []currencyDTO
	if err := c.call(ctx, http.MethodGet, "currencies", nil, &dtos); err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}

	currencies := make([]types.Currency, 0, len(dtos))
	for _, d := range dtos {
		if d.Code == "" {
			continue
		}
		currencies = append(currencies, types.Currency{
			Code:    d.Code,
			Coin:    d.Coin,
			Network: d.Network,
			Name:    d.Name,
			Send:    bool(d.Send),
			Recv:    bool(d.Recv),
		})
	}

	return currencies, nil
}

// GetQuote asks the backend how much BTC the given amount of ccy is worth in the receive direction
func (c *BackendClient) GetQuote(ctx context.Context, ccy, amount string) (*types.Quote, error) {
	req := quoteRequest{
		Direction: types.FromRecipient.WireValue(),
		Ccy:       ccy,
		Amount:    amount,
	}

	var dto quoteDTO
	if err := c.call(ctx, http.MethodPost, "exchange-rate", req, &dto); err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	if len(dto.Errors) > 0 {
		return nil, fmt.Errorf("%w: quote rejected: %s", types.ErrBackendLogic, strings.Join(dto.Errors, ", "))
	}

	toAmount, err := decimal.NewFromString(dto.To.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed quote amount %q", types.ErrBackendLogic, dto.To.Amount)
	}

	// the source amount is informational; an absent one does not invalidate the quote
	fromAmount, _ := decimal.NewFromString(dto.From.Amount)

	return &types.Quote{
		Currency:   ccy,
		FromAmount: fromAmount,
		ToAmount:   toAmount,
		ToCoin:     dto.To.Coin,
	}, nil
}

// CreateOrder creates an order on the backend. It is never retried: a transport
// failure is reported as ErrOrderUnconfirmed because the order may already exist.
func (c *BackendClient) CreateOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error) {
	if !req.Direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction", types.ErrInvalidRequest)
	}
	if req.Direction == types.ToRecipient && req.ToAddress == "" {
		return nil, fmt.Errorf("%w: destination address is required to send", types.ErrInvalidRequest)
	}

	body := createOrderRequest{
		Direction: req.Direction.WireValue(),
		Ccy:       req.Currency,
		Amount:    req.Amount,
		ToAddress: req.ToAddress,
	}

	var dto orderDTO
	if err := c.call(ctx, http.MethodPost, "create-order", body, &dto); err != nil {
		if errors.Is(err, types.ErrTransport) {
			return nil, fmt.Errorf("%w: %w", types.ErrOrderUnconfirmed, err)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if dto.ID == "" || dto.Token == "" {
		return nil, fmt.Errorf("%w: order response is missing id or token", types.ErrBackendLogic)
	}
	if req.Direction == types.ToRecipient && dto.From.Address == "" {
		return nil, fmt.Errorf("%w: order %s has no invoice to pay", types.ErrBackendLogic, dto.ID)
	}

	return &types.Order{
		Ref:    types.OrderRef{ID: dto.ID, Token: dto.Token},
		Status: dto.Status,
		From:   toSide(dto.From),
		To:     toSide(dto.To),
	}, nil
}

// OrderStatus returns the current status of an order
func (c *BackendClient) OrderStatus(ctx context.Context, ref types.OrderRef) (string, error) {
	req := orderDetailsRequest{ID: ref.ID, Token: ref.Token}

	var dto statusDTO
	if err := c.call(ctx, http.MethodPost, "order-details", req, &dto); err != nil {
		return "", fmt.Errorf("failed to get order %s status: %w", ref.ID, err)
	}

	if dto.Status == "" {
		return "", fmt.Errorf("%w: order %s status is empty", types.ErrBackendLogic, ref.ID)
	}

	return dto.Status, nil
}

// QRCode asks the backend to render data as QR markup
func (c *BackendClient) QRCode(ctx context.Context, data string) (string, error) {
	payload, err := json.Marshal(qrRequest{Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to encode qr request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "qrcode", payload)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read qr body: %v", types.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: qrcode returned status code %d", types.ErrTransport, resp.StatusCode)
	}

	return string(body), nil
}

// EligibleCurrencies returns the currencies usable in a direction, sorted by code
func EligibleCurrencies(all []types.Currency, d types.Direction) []types.Currency {
	eligible := make([]types.Currency, 0, len(all))
	for _, c := range all {
		if c.EligibleFor(d) {
			eligible = append(eligible, c)
		}
	}

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].Code < eligible[j].Code })
	return eligible
}

func toSide(a assetDTO) types.OrderSide {
	return types.OrderSide{
		Code:    a.Code,
		Coin:    a.Coin,
		Network: a.Network,
		Amount:  a.Amount,
		Address: a.Address,
	}
}

// call sends a JSON request and decodes the data field of the envelope into out
func (c *BackendClient) call(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	c.log.WithFields(logrus.Fields{"method": method, "path": path}).Debugf("backend request: %s", string(payload))

	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", types.ErrTransport, err)
	}

	c.log.WithFields(logrus.Fields{"path": path, "status": resp.StatusCode}).Debugf("backend response: %s", string(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status code %d: %s", types.ErrTransport, path, resp.StatusCode, apiMessage(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", types.ErrTransport, path, err)
	}

	if env.Code != nil && *env.Code != 0 {
		return fmt.Errorf("%w: %s (code %d)", types.ErrBackendLogic, env.Msg, *env.Code)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: %s response has no data", types.ErrBackendLogic, path)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: malformed %s data: %v", types.ErrBackendLogic, path, err)
	}

	return nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + "/" + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrTransport, path, err)
	}
	return resp, nil
}

// apiMessage extracts a readable message from an error body
func apiMessage(body []byte) string {
	var errorResp map[string]interface{}
	if err := json.Unmarshal(body, &errorResp); err == nil {
		for _, key := range []string{"message", "msg", "error"} {
			if message, ok := errorResp[key].(string); ok && message != "" {
				return message
			}
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strings.TrimSpace(string(body))
}
