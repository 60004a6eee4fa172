package address

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"lnswap/pkg/types"
)

// evmNetworks are networks whose addresses are 20-byte hex accounts
var evmNetworks = map[string]bool{
	"ETH":      true,
	"BSC":      true,
	"MATIC":    true,
	"POLYGON":  true,
	"ARBITRUM": true,
	"ARB":      true,
	"OP":       true,
	"OPTIMISM": true,
	"BASE":     true,
	"AVAXC":    true,
}

// codeSuffixes maps currency code suffixes to networks, longest first
var codeSuffixes = []struct {
	suffix  string
	network string
}{
	{"MATIC", "MATIC"},
	{"BSC", "BSC"},
	{"ARB", "ARBITRUM"},
	{"ETH", "ETH"},
	{"SOL", "SOL"},
	{"TRC", "TRX"},
}

// NetworkOf returns the network of a currency, falling back to its code suffix
func NetworkOf(c types.Currency) string {
	if c.Network != "" {
		return strings.ToUpper(c.Network)
	}

	code := strings.ToUpper(c.Code)
	for _, s := range codeSuffixes {
		if strings.HasSuffix(code, s.suffix) && len(code) > len(s.suffix) {
			return s.network
		}
	}
	return ""
}

// IsEVM reports whether network uses EVM hex addresses
func IsEVM(network string) bool {
	return evmNetworks[strings.ToUpper(network)]
}

// Validate checks a payout address against the rules of its network.
// Unknown networks only require a non-empty address; the backend has the final word.
func Validate(network, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("%w: destination address is required", types.ErrInvalidRequest)
	}

	network = strings.ToUpper(network)
	switch {
	case IsEVM(network):
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%w: invalid %s address: %s", types.ErrInvalidRequest, network, addr)
		}
	case network == "SOL":
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return fmt.Errorf("%w: invalid SOL address: %v", types.ErrInvalidRequest, err)
		}
	}

	return nil
}

// PaymentURI builds the URI the user pays to on the deposit side of an order.
// EVM deposits get an ethereum: URI carrying amount and token, anything else is the bare address.
func PaymentURI(side types.OrderSide) string {
	if !common.IsHexAddress(side.Address) {
		return side.Address
	}

	q := url.Values{}
	if side.Amount != "" {
		q.Set("value", side.Amount)
	}
	if side.Coin != "" {
		q.Set("token", side.Coin)
	}

	uri := "ethereum:" + common.HexToAddress(side.Address).Hex()
	if len(q) > 0 {
		uri += "?" + q.Encode()
	}
	return uri
}
