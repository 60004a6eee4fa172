package address

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lnswap/pkg/types"
)

const (
	usdcContract = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	solAddress   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

func TestNetworkOf(t *testing.T) {
	require.Equal(t, "ETH", NetworkOf(types.Currency{Code: "USDCETH"}))
	require.Equal(t, "SOL", NetworkOf(types.Currency{Code: "USDCSOL"}))
	require.Equal(t, "TRX", NetworkOf(types.Currency{Code: "USDTTRC"}))
	require.Equal(t, "BSC", NetworkOf(types.Currency{Code: "USDTBSC", Network: "bsc"}))
	require.Equal(t, "", NetworkOf(types.Currency{Code: "ETH"}))
	require.Equal(t, "", NetworkOf(types.Currency{Code: "XMR"}))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("ETH", usdcContract))
	require.NoError(t, Validate("SOL", solAddress))
	require.NoError(t, Validate("TRX", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"))

	require.ErrorIs(t, Validate("ETH", "0x1234"), types.ErrInvalidRequest)
	require.ErrorIs(t, Validate("SOL", "0OIl"), types.ErrInvalidRequest)
	require.ErrorIs(t, Validate("TRX", "  "), types.ErrInvalidRequest)
}

func TestPaymentURI(t *testing.T) {
	uri := PaymentURI(types.OrderSide{Address: usdcContract, Amount: "10.5", Coin: "USDC"})
	require.Equal(t, "ethereum:"+usdcContract+"?token=USDC&value=10.5", uri)

	require.Equal(t, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
		PaymentURI(types.OrderSide{Address: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", Amount: "1"}))
}
