package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LNbits is a Provider backed by an LNbits wallet over its REST API
type LNbits struct {
	baseURL *url.URL
	apiKey  string
	memo    string
	client  *http.Client
	log     logrus.FieldLogger
}

var _ Provider = (*LNbits)(nil)

type lnbitsWallet struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type lnbitsInvoiceRequest struct {
	Out    bool   `json:"out"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo,omitempty"`
}

type lnbitsPayRequest struct {
	Out    bool   `json:"out"`
	Bolt11 string `json:"bolt11"`
}

type lnbitsPaymentResponse struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
	Bolt11         string `json:"bolt11"`
}

type lnbitsPaymentStatus struct {
	Paid     bool   `json:"paid"`
	Preimage string `json:"preimage"`
	Details  struct {
		Preimage string `json:"preimage"`
	} `json:"details"`
}

type lnbitsError struct {
	Detail string `json:"detail"`
}

// NewLNbits creates an LNbits provider. apiKey must be an admin key to pay invoices.
func NewLNbits(baseURL, apiKey, memo string, httpClient *http.Client, log logrus.FieldLogger) (*LNbits, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse lnbits url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("lnbits url must be absolute: %s", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &LNbits{
		baseURL: parsed,
		apiKey:  apiKey,
		memo:    memo,
		client:  httpClient,
		log:     log,
	}, nil
}

// Enable checks the key against the wallet endpoint
func (l *LNbits) Enable(ctx context.Context) error {
	var w lnbitsWallet
	if err := l.call(ctx, http.MethodGet, "/api/v1/wallet", nil, &w); err != nil {
		return fmt.Errorf("wallet check failed: %w", err)
	}

	l.log.WithFields(logrus.Fields{"wallet": w.Name, "balance_msat": w.Balance}).Debug("LNbits wallet reachable")
	return nil
}

// MakeInvoice creates an incoming invoice
func (l *LNbits) MakeInvoice(ctx context.Context, amountSats int64) (Invoice, error) {
	req := lnbitsInvoiceRequest{Out: false, Amount: amountSats, Memo: l.memo}

	var resp lnbitsPaymentResponse
	if err := l.call(ctx, http.MethodPost, "/api/v1/payments", req, &resp); err != nil {
		return Invoice{}, fmt.Errorf("create invoice failed: %w", err)
	}

	pr := resp.PaymentRequest
	if pr == "" {
		pr = resp.Bolt11
	}
	return Invoice{PaymentRequest: pr}, nil
}

// SendPayment pays invoice and looks up the preimage of the resulting payment
func (l *LNbits) SendPayment(ctx context.Context, invoice string) (PaymentResult, error) {
	req := lnbitsPayRequest{Out: true, Bolt11: invoice}

	var resp lnbitsPaymentResponse
	if err := l.call(ctx, http.MethodPost, "/api/v1/payments", req, &resp); err != nil {
		return PaymentResult{}, fmt.Errorf("pay invoice failed: %w", err)
	}
	if resp.PaymentHash == "" {
		return PaymentResult{}, nil
	}

	var status lnbitsPaymentStatus
	if err := l.call(ctx, http.MethodGet, "/api/v1/payments/"+url.PathEscape(resp.PaymentHash), nil, &status); err != nil {
		return PaymentResult{}, fmt.Errorf("payment %s lookup failed: %w", resp.PaymentHash, err)
	}
	if !status.Paid {
		return PaymentResult{}, nil
	}

	preimage := status.Preimage
	if preimage == "" {
		preimage = status.Details.Preimage
	}
	return PaymentResult{Preimage: preimage}, nil
}

func (l *LNbits) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	endpoint := *l.baseURL
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", l.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call lnbits: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e lnbitsError
		if json.Unmarshal(respBody, &e) == nil && e.Detail != "" {
			return fmt.Errorf("lnbits error (status %d): %s", resp.StatusCode, e.Detail)
		}
		return fmt.Errorf("lnbits returned status code %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse lnbits response: %w", err)
	}
	return nil
}
