package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Provider is a Lightning payment capability (a WebLN-like wallet)
type Provider interface {
	// Enable asks the wallet for permission; required once before any other call
	Enable(ctx context.Context) error
	// MakeInvoice creates an invoice for the given amount of satoshis
	MakeInvoice(ctx context.Context, amountSats int64) (Invoice, error)
	// SendPayment pays a BOLT11 invoice
	SendPayment(ctx context.Context, invoice string) (PaymentResult, error)
}

// Invoice is a payment request issued by the provider
type Invoice struct {
	PaymentRequest string
}

// PaymentResult carries the proof of payment
type PaymentResult struct {
	Preimage string
}

// Capability is the outcome of probing for a provider: Available or Unavailable
type Capability interface {
	capability()
}

// Available carries a usable provider
type Available struct {
	Provider Provider
}

// Unavailable explains why no provider can be used
type Unavailable struct {
	Reason string
}

func (Available) capability()   {}
func (Unavailable) capability() {}

// Config selects and configures the provider implementation
type Config struct {
	Kind   string
	URL    string
	APIKey string
	Memo   string
}

// Detector resolves the payment capability for a flow
type Detector func(ctx context.Context) Capability

// NewDetector returns a Detector for cfg. Configuration is resolved on every call
// so each flow gets a fresh provider instance.
func NewDetector(cfg Config, httpClient *http.Client, log logrus.FieldLogger) Detector {
	return func(ctx context.Context) Capability {
		return Detect(cfg, httpClient, log)
	}
}

// Detect probes the configuration for a provider
func Detect(cfg Config, httpClient *http.Client, log logrus.FieldLogger) Capability {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", "none":
		return Unavailable{Reason: "no Lightning payment provider configured (set provider.kind)"}
	case "lnbits":
		if cfg.URL == "" || cfg.APIKey == "" {
			return Unavailable{Reason: "lnbits provider requires provider.url and provider.api_key"}
		}
		p, err := NewLNbits(cfg.URL, cfg.APIKey, cfg.Memo, httpClient, log)
		if err != nil {
			return Unavailable{Reason: err.Error()}
		}
		return Available{Provider: p}
	default:
		return Unavailable{Reason: "unsupported payment provider: " + cfg.Kind}
	}
}

// Static returns a Detector that always yields c
func Static(c Capability) Detector {
	return func(context.Context) Capability { return c }
}
