package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"lnswap/pkg/types"
)

// Adapter wraps a Provider and normalizes its outcomes into the error taxonomy.
// It enforces Enable before use and treats a missing preimage as a failed payment.
type Adapter struct {
	provider Provider
	enabled  bool
	log      logrus.FieldLogger
}

// NewAdapter creates an adapter around p
func NewAdapter(p Provider, log logrus.FieldLogger) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Adapter{provider: p, log: log}
}

// Enable activates the provider
func (a *Adapter) Enable(ctx context.Context) error {
	if a.enabled {
		return nil
	}
	if err := a.provider.Enable(ctx); err != nil {
		return fmt.Errorf("%w: enable: %w", types.ErrProviderRejected, err)
	}
	a.enabled = true
	a.log.Debug("Payment provider enabled")
	return nil
}

// CreateInvoice requests an invoice for a positive number of satoshis
func (a *Adapter) CreateInvoice(ctx context.Context, amountSats int64) (string, error) {
	if !a.enabled {
		return "", types.ErrProviderNotEnabled
	}
	if amountSats <= 0 {
		return "", fmt.Errorf("%w: invoice amount must be a positive number of satoshis, got %d", types.ErrInvalidRequest, amountSats)
	}

	inv, err := a.provider.MakeInvoice(ctx, amountSats)
	if err != nil {
		return "", fmt.Errorf("%w: make invoice: %w", types.ErrProviderRejected, err)
	}

	pr := strings.TrimSpace(inv.PaymentRequest)
	if pr == "" {
		return "", fmt.Errorf("%w: provider returned an empty invoice", types.ErrProviderRejected)
	}

	a.log.WithField("amount_sats", amountSats).Debug("Invoice created")
	return pr, nil
}

// SendPayment pays invoice and returns the preimage
func (a *Adapter) SendPayment(ctx context.Context, invoice string) (string, error) {
	if !a.enabled {
		return "", types.ErrProviderNotEnabled
	}
	if strings.TrimSpace(invoice) == "" {
		return "", fmt.Errorf("%w: no invoice to pay", types.ErrBackendLogic)
	}

	res, err := a.provider.SendPayment(ctx, invoice)
	if err != nil {
		return "", fmt.Errorf("%w: send payment: %w", types.ErrProviderRejected, err)
	}
	if strings.TrimSpace(res.Preimage) == "" {
		return "", types.ErrPaymentUnconfirmed
	}

	a.log.Debug("Payment settled")
	return res.Preimage, nil
}
