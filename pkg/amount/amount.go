package amount

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"lnswap/pkg/types"
)

// SatoshisPerBTC is the number of satoshis in one bitcoin
const SatoshisPerBTC = 100_000_000

// MaxBTC is the bitcoin supply cap; no quote can legitimately exceed it
const MaxBTC = 21_000_000

// btcDecimals is the exponent between BTC and satoshis
const btcDecimals = 8

var maxSatoshis = decimal.NewFromInt(MaxBTC * SatoshisPerBTC)

// ParsePositive parses a user supplied decimal amount and requires it to be greater than zero
func ParsePositive(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", types.ErrInvalidRequest)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", types.ErrInvalidRequest, s)
	}

	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be greater than 0", types.ErrInvalidRequest)
	}

	return d, nil
}

// ToSatoshis converts a BTC amount to satoshis.
// Sub-satoshi precision is truncated (floor), so an invoice never asks for more than quoted.
func ToSatoshis(btc decimal.Decimal) (int64, error) {
	if !btc.IsPositive() {
		return 0, fmt.Errorf("%w: bitcoin amount must be greater than 0, got %s", types.ErrBackendLogic, btc.String())
	}

	sats := btc.Mul(decimal.NewFromInt(SatoshisPerBTC)).Floor()
	if !sats.IsPositive() {
		return 0, fmt.Errorf("%w: bitcoin amount %s is below one satoshi", types.ErrBackendLogic, btc.String())
	}
	if sats.GreaterThan(maxSatoshis) {
		return 0, fmt.Errorf("%w: bitcoin amount %s exceeds the %d BTC supply", types.ErrBackendLogic, btc.String(), MaxBTC)
	}

	return sats.IntPart(), nil
}

// FromSatoshis converts satoshis back to a BTC decimal
func FromSatoshis(sats int64) decimal.Decimal {
	return decimal.New(sats, -btcDecimals)
}

// FormatBTC renders a BTC amount without trailing zeros
func FormatBTC(btc decimal.Decimal) string {
	return btc.Truncate(btcDecimals).String()
}
