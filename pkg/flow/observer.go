package flow

import "lnswap/pkg/types"

// Observer receives progress of a flow. Calls for one flow are made in order,
// status updates arrive from the poller goroutine.
type Observer interface {
	StateChanged(flowID string, state State)
	ProviderUnavailable(flowID, reason string)
	OrderCreated(flowID string, order types.Order)
	Instructions(flowID string, in types.Instructions)
	StatusUpdated(flowID, status string)
}

// NopObserver ignores everything
type NopObserver struct{}

func (NopObserver) StateChanged(string, State) {}
func (NopObserver) ProviderUnavailable(string, string) {}
func (NopObserver) OrderCreated(string, types.Order) {}
func (NopObserver) Instructions(string, types.Instructions) {}
func (NopObserver) StatusUpdated(string, string) {}
