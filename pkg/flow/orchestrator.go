package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lnswap/pkg/address"
	"lnswap/pkg/amount"
	"lnswap/pkg/poller"
	"lnswap/pkg/provider"
	"lnswap/pkg/types"
)

// ExactAmountWarning is shown with receive instructions
const ExactAmountWarning = "Pay EXACTLY the amount shown. Underpaying or overpaying the quoted amount forfeits the funds."

// Backend is the part of the backend client a flow needs
type Backend interface {
	GetQuote(ctx context.Context, ccy, amount string) (*types.Quote, error)
	CreateOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error)
}

// Catalog resolves eligible currencies
type Catalog interface {
	Lookup(ctx context.Context, d types.Direction, code string) (types.Currency, error)
}

// Poller starts order status polling
type Poller interface {
	Start(ctx context.Context, ref types.OrderRef, onUpdate func(status string)) (poller.Handle, error)
}

// Request is a single form submission
type Request struct {
	Direction   types.Direction
	Currency    string
	Amount      string
	Destination string
}

// Result describes what a flow produced. Handle is set once polling started,
// which can happen even when the flow failed after its order was created.
type Result struct {
	ID           string
	Direction    types.Direction
	Order        *types.Order
	Quote        *types.Quote
	Satoshis     int64
	Invoice      string
	Preimage     string
	Instructions *types.Instructions
	Handle       poller.Handle
}

// Orchestrator runs send and receive flows. It holds the state of the current flow
// and owns the single active poller handle.
type Orchestrator struct {
	backend  Backend
	catalog  Catalog
	poller   Poller
	detect   provider.Detector
	observer Observer
	log      logrus.FieldLogger

	mu     sync.Mutex
	flowID string
	state  State
	handle poller.Handle
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(backend Backend, catalog Catalog, p Poller, detect provider.Detector, observer Observer, log logrus.FieldLogger) *Orchestrator {
	if observer == nil {
		observer = NopObserver{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		backend:  backend,
		catalog:  catalog,
		poller:   p,
		detect:   detect,
		observer: observer,
		log:      log,
	}
}

// State returns the state of the current flow
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs one flow up to the point where polling has started.
// A non-nil error means the flow failed; the result may still carry an order and a handle.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Result, error) {
	id, err := o.begin()
	if err != nil {
		return nil, err
	}

	log := o.log.WithFields(logrus.Fields{
		"flow_id":   id,
		"direction": req.Direction.String(),
		"currency":  req.Currency,
	})
	log.Info("Flow started")

	res := &Result{ID: id, Direction: req.Direction}
	switch req.Direction {
	case types.ToRecipient:
		err = o.send(ctx, id, req, res, log)
	case types.FromRecipient:
		err = o.receive(ctx, id, req, res, log)
	default:
		err = fmt.Errorf("%w: unknown direction", types.ErrInvalidRequest)
	}

	if err != nil {
		o.setState(id, Failed)
		log.WithError(err).Warn("Flow failed")
		return res, err
	}
	return res, nil
}

// Cancel stops polling of the current flow, if any
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	h := o.handle
	o.handle = nil
	o.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
}

// Await blocks until polling behind h stops or ctx is done and returns the final state
func (o *Orchestrator) Await(ctx context.Context, h poller.Handle) (State, error) {
	if h == nil {
		return o.State(), nil
	}
	select {
	case <-h.Done():
		return o.State(), nil
	case <-ctx.Done():
		return o.State(), ctx.Err()
	}
}

func (o *Orchestrator) begin() (string, error) {
	o.mu.Lock()
	if o.state.Loading() {
		o.mu.Unlock()
		return "", types.ErrFlowInProgress
	}
	prev := o.handle
	o.handle = nil
	id := uuid.NewString()
	o.flowID = id
	o.state = Validating
	o.mu.Unlock()

	// Shutdown waits for a running tick which may need the lock
	if prev != nil {
		prev.Cancel()
	}

	o.observer.StateChanged(id, Validating)
	return id, nil
}

func (o *Orchestrator) setState(id string, s State) {
	o.mu.Lock()
	if o.flowID != id || o.state == s || o.state.Terminal() {
		o.mu.Unlock()
		return
	}
	o.state = s
	o.mu.Unlock()

	o.observer.StateChanged(id, s)
}

func (o *Orchestrator) validate(ctx context.Context, req Request) (types.Currency, string, error) {
	amt, err := amount.ParsePositive(req.Amount)
	if err != nil {
		return types.Currency{}, "", err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	if code == "" {
		return types.Currency{}, "", fmt.Errorf("%w: currency is required", types.ErrInvalidRequest)
	}

	ccy, err := o.catalog.Lookup(ctx, req.Direction, code)
	if err != nil {
		return types.Currency{}, "", err
	}

	if req.Direction == types.ToRecipient {
		if err := address.Validate(address.NetworkOf(ccy), strings.TrimSpace(req.Destination)); err != nil {
			return types.Currency{}, "", err
		}
	}

	return ccy, amt.String(), nil
}

func (o *Orchestrator) enable(ctx context.Context, id string, p provider.Provider, log logrus.FieldLogger) (*provider.Adapter, error) {
	o.setState(id, Enabling)
	a := provider.NewAdapter(p, log)
	if err := a.Enable(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (o *Orchestrator) send(ctx context.Context, id string, req Request, res *Result, log logrus.FieldLogger) error {
	ccy, amt, err := o.validate(ctx, req)
	if err != nil {
		return err
	}

	p, err := o.probe(ctx, id)
	if err != nil {
		return err
	}

	wallet, err := o.enable(ctx, id, p, log)
	if err != nil {
		return err
	}

	o.setState(id, CreatingOrder)
	order, err := o.backend.CreateOrder(ctx, types.OrderRequest{
		Direction: types.ToRecipient,
		Currency:  ccy.Code,
		Amount:    amt,
		ToAddress: strings.TrimSpace(req.Destination),
	})
	if err != nil {
		return err
	}
	res.Order = order
	o.observer.OrderCreated(id, *order)
	log = log.WithField("order_id", order.Ref.ID)
	log.Info("Order created")

	o.setState(id, Paying)
	preimage, payErr := wallet.SendPayment(ctx, order.From.Address)
	res.Preimage = preimage

	// the order exists now, so it is tracked whatever the payment outcome
	h, pollErr := o.startPolling(ctx, id, order.Ref)
	res.Handle = h

	if payErr != nil {
		return payErr
	}
	if pollErr != nil {
		return pollErr
	}
	log.Info("Payment sent")
	o.setState(id, Polling)
	return nil
}

func (o *Orchestrator) receive(ctx context.Context, id string, req Request, res *Result, log logrus.FieldLogger) error {
	ccy, amt, err := o.validate(ctx, req)
	if err != nil {
		return err
	}

	p, err := o.probe(ctx, id)
	if err != nil {
		return err
	}

	o.setState(id, Quoting)
	quote, err := o.backend.GetQuote(ctx, ccy.Code, amt)
	if err != nil {
		return err
	}
	res.Quote = quote

	sats, err := amount.ToSatoshis(quote.ToAmount)
	if err != nil {
		return err
	}
	res.Satoshis = sats

	wallet, err := o.enable(ctx, id, p, log)
	if err != nil {
		return err
	}

	o.setState(id, Invoicing)
	invoice, err := wallet.CreateInvoice(ctx, sats)
	if err != nil {
		return err
	}
	res.Invoice = invoice

	o.setState(id, CreatingOrder)
	order, err := o.backend.CreateOrder(ctx, types.OrderRequest{
		Direction: types.FromRecipient,
		Currency:  ccy.Code,
		Amount:    amount.FormatBTC(amount.FromSatoshis(sats)),
		ToAddress: invoice,
	})
	if err != nil {
		return err
	}
	res.Order = order
	o.observer.OrderCreated(id, *order)
	log.WithFields(logrus.Fields{"order_id": order.Ref.ID, "amount_sats": sats}).Info("Order created")

	in := types.Instructions{
		Order:   order.Ref,
		Amount:  order.From.Amount,
		Coin:    order.From.Coin,
		Network: order.From.Network,
		Address: order.From.Address,
		URI:     address.PaymentURI(order.From),
		Warning: ExactAmountWarning,
	}
	res.Instructions = &in
	o.observer.Instructions(id, in)

	h, err := o.startPolling(ctx, id, order.Ref)
	res.Handle = h
	if err != nil {
		return err
	}
	o.setState(id, Polling)
	return nil
}

// probe resolves the capability without enabling it, so the receive path can quote first
func (o *Orchestrator) probe(ctx context.Context, id string) (provider.Provider, error) {
	switch c := o.detect(ctx).(type) {
	case provider.Available:
		return c.Provider, nil
	case provider.Unavailable:
		o.observer.ProviderUnavailable(id, c.Reason)
		return nil, fmt.Errorf("%w: %s", types.ErrProviderUnavailable, c.Reason)
	default:
		return nil, types.ErrProviderUnavailable
	}
}

func (o *Orchestrator) startPolling(ctx context.Context, id string, ref types.OrderRef) (poller.Handle, error) {
	// polling outlives the submission, so it is not bound to the request context
	h, err := o.poller.Start(context.WithoutCancel(ctx), ref, func(status string) {
		o.observer.StatusUpdated(id, status)
		if status == types.StatusCompleted {
			o.setState(id, Done)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("start polling order %s: %w", ref.ID, err)
	}

	o.mu.Lock()
	if o.flowID != id {
		o.mu.Unlock()
		h.Cancel()
		return nil, errors.New("flow superseded")
	}
	o.handle = h
	o.mu.Unlock()
	return h, nil
}
