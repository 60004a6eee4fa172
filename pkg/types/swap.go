package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Direction tells whether a flow sends funds out or receives funds in
type Direction int

const (
	// ToRecipient pays out to an external address; the Lightning leg is paid by us
	ToRecipient Direction = iota + 1
	// FromRecipient receives via a provider invoice; the counter asset is deposited by the user
	FromRecipient
)

// StatusCompleted is the only order status treated as terminal
const StatusCompleted = "completed"

// WireValue returns the value sent to the backend in the "direction" field
func (d Direction) WireValue() string {
	switch d {
	case ToRecipient:
		return "to"
	case FromRecipient:
		return "from"
	default:
		return ""
	}
}

func (d Direction) String() string {
	switch d {
	case ToRecipient:
		return "send"
	case FromRecipient:
		return "receive"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the known directions
func (d Direction) Valid() bool {
	return d == ToRecipient || d == FromRecipient
}

// ParseDirection accepts the user-facing names ("send"/"receive") and the wire names ("to"/"from")
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "send", "to":
		return ToRecipient, nil
	case "receive", "recv", "from":
		return FromRecipient, nil
	default:
		return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidRequest, s)
	}
}

// Currency is a tradable asset as listed by the backend
type Currency struct {
	Code    string
	Coin    string
	Network string
	Name    string
	Send    bool
	Recv    bool
}

// EligibleFor reports whether the currency can be used in the given direction
func (c Currency) EligibleFor(d Direction) bool {
	switch d {
	case ToRecipient:
		return c.Send
	case FromRecipient:
		return c.Recv
	default:
		return false
	}
}

// Quote is the backend exchange result for the receive direction.
// ToAmount is denominated in BTC.
type Quote struct {
	Currency   string
	FromAmount decimal.Decimal
	ToAmount   decimal.Decimal
	ToCoin     string
}

// OrderRequest is the payload of a create-order call
type OrderRequest struct {
	Direction Direction
	Currency  string
	Amount    string
	ToAddress string
}

// OrderRef identifies an order. The token is the capability needed to read it,
// so the two always travel together.
type OrderRef struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// OrderSide is one leg of an order as reported by the backend
type OrderSide struct {
	Code    string
	Coin    string
	Network string
	Amount  string
	Address string
}

// Order is an order created by the backend
type Order struct {
	Ref    OrderRef
	Status string
	From   OrderSide
	To     OrderSide
}

// Instructions tell the user what to pay to complete a receive flow
type Instructions struct {
	Order   OrderRef `json:"order"`
	Amount  string   `json:"amount"`
	Coin    string   `json:"coin"`
	Network string   `json:"network,omitempty"`
	Address string   `json:"address"`
	URI     string   `json:"uri"`
	Warning string   `json:"warning"`
}
