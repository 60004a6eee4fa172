package parser

import (
	"fmt"
	"regexp"
	"strings"

	"lnswap/pkg/types"
)

// Command is a parsed swap command
type Command struct {
	Direction   types.Direction
	Amount      string
	Currency    string
	Destination string
}

var (
	sendPattern    = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+(\S+)$`)
	receivePattern = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s+([A-Z0-9]+)$`)

	// bare coin names map to their default network
	currencyAliases = map[string]string{
		"USDC":  "USDCETH",
		"USDT":  "USDTETH",
		"USDCE": "USDCETH",
	}
)

// ParseCommand parses a natural language swap command
// Examples:
//   - "send 10 USDCETH to 0x52908400098527886E0F7030069857D2E4169EE7"
//   - "receive 10 USDCETH"
//   - "25.5 USDTSOL to 7EcDhSYGxXyscszYEp35KHN8vvw3svAuLKTzXwCFLtV"
func ParseCommand(command string) (*Command, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", types.ErrInvalidRequest)
	}

	// Leading verb is optional for send, the destination implies it
	var dir types.Direction
	if d, err := types.ParseDirection(fields[0]); err == nil {
		dir = d
		fields = fields[1:]
	}
	rest := strings.Join(fields, " ")

	if m := sendPattern.FindStringSubmatch(rest); m != nil {
		if dir == types.FromRecipient {
			return nil, fmt.Errorf("%w: receive takes no destination address", types.ErrInvalidRequest)
		}
		return &Command{
			Direction:   types.ToRecipient,
			Amount:      m[1],
			Currency:    NormalizeCurrencyCode(m[2]),
			Destination: m[3],
		}, nil
	}

	if m := receivePattern.FindStringSubmatch(rest); m != nil {
		if dir == types.ToRecipient {
			return nil, fmt.Errorf("%w: send needs a destination: 'send <amount> <currency> to <address>'", types.ErrInvalidRequest)
		}
		return &Command{
			Direction: types.FromRecipient,
			Amount:    m[1],
			Currency:  NormalizeCurrencyCode(m[2]),
		}, nil
	}

	return nil, fmt.Errorf("%w: expected 'send <amount> <currency> to <address>' or 'receive <amount> <currency>'", types.ErrInvalidRequest)
}

// ValidateCommand validates that a command has all required fields
func ValidateCommand(cmd *Command) error {
	if cmd.Amount == "" {
		return fmt.Errorf("%w: amount is required", types.ErrInvalidRequest)
	}
	if cmd.Currency == "" {
		return fmt.Errorf("%w: currency is required", types.ErrInvalidRequest)
	}
	if !cmd.Direction.Valid() {
		return fmt.Errorf("%w: direction is required", types.ErrInvalidRequest)
	}
	if cmd.Direction == types.ToRecipient && cmd.Destination == "" {
		return fmt.Errorf("%w: destination address is required", types.ErrInvalidRequest)
	}
	return nil
}

// NormalizeCurrencyCode normalizes currency codes to the backend format
func NormalizeCurrencyCode(code string) string {
	code = strings.TrimSpace(strings.ToUpper(code))

	if normalized, exists := currencyAliases[code]; exists {
		return normalized
	}

	return code
}
