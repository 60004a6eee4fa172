package types

import "errors"

var (
	// ErrTransport is a network or HTTP failure talking to the backend
	ErrTransport = errors.New("backend transport failure")
	// ErrBackendLogic is a well-formed backend answer that cannot satisfy the request
	ErrBackendLogic = errors.New("backend could not satisfy request")
	// ErrProviderUnavailable means no payment provider is present
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrProviderRejected means the provider or the user declined enable, invoice or payment
	ErrProviderRejected = errors.New("payment provider rejected request")
	// ErrProviderNotEnabled is returned when the provider is used before Enable succeeded
	ErrProviderNotEnabled = errors.New("payment provider not enabled")
	// ErrPaymentUnconfirmed means the payment call returned without a preimage
	ErrPaymentUnconfirmed = errors.New("payment returned no preimage")
	// ErrOrderUnconfirmed means create-order failed in transport; the order may exist
	ErrOrderUnconfirmed = errors.New("order creation outcome unknown")
	// ErrInvalidRequest is a user input problem caught before any backend call
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCurrencyNotEligible means the currency is not tradable in the chosen direction
	ErrCurrencyNotEligible = errors.New("currency not eligible for direction")
	// ErrFlowInProgress is returned when a flow is submitted while another one is still loading
	ErrFlowInProgress = errors.New("another flow is in progress")
)
