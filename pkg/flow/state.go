package flow

// State is the stage a flow has reached
type State int

const (
	Idle State = iota
	Validating
	Quoting
	Enabling
	Invoicing
	CreatingOrder
	Paying
	Polling
	Done
	Failed
)

var stateNames = map[State]string{
	Idle:          "idle",
	Validating:    "validating",
	Quoting:       "quoting",
	Enabling:      "enabling provider",
	Invoicing:     "creating invoice",
	CreatingOrder: "creating order",
	Paying:        "paying",
	Polling:       "waiting for completion",
	Done:          "done",
	Failed:        "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Loading reports whether the flow is still working towards its order.
// A second submission is refused in these states.
func (s State) Loading() bool {
	return s >= Validating && s <= Paying
}
