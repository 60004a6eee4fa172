package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"lnswap/pkg/types"
)

func TestToSatoshis_Exact(t *testing.T) {
	cases := map[string]int64{
		"0.001":      100000,
		"1.23456789": 123456789,
		"0.00025":    25000,
		"1":          100000000,
		"21000000":   2100000000000000,
		"0.00000001": 1,
	}

	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := ToSatoshis(decimal.RequireFromString(in))
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestToSatoshis_TruncatesSubSatoshi(t *testing.T) {
	got, err := ToSatoshis(decimal.RequireFromString("0.123456789"))
	require.NoError(t, err)
	require.Equal(t, int64(12345678), got)
}

func TestToSatoshis_RejectsNonPositive(t *testing.T) {
	for _, in := range []string{"0", "-0.1", "0.000000009"} {
		_, err := ToSatoshis(decimal.RequireFromString(in))
		require.ErrorIs(t, err, types.ErrBackendLogic, in)
	}
}

func TestToSatoshis_RejectsAboveSupply(t *testing.T) {
	for _, in := range []string{"21000000.00000001", "100000000000", "92233720368.54775808"} {
		_, err := ToSatoshis(decimal.RequireFromString(in))
		require.ErrorIs(t, err, types.ErrBackendLogic, in)
	}

	got, err := ToSatoshis(decimal.NewFromInt(MaxBTC))
	require.NoError(t, err)
	require.Equal(t, int64(MaxBTC*SatoshisPerBTC), got)
}

func TestParsePositive(t *testing.T) {
	d, err := ParsePositive(" 10.5 ")
	require.NoError(t, err)
	require.Equal(t, "10.5", d.String())

	for _, in := range []string{"", "abc", "0", "-1"} {
		_, err := ParsePositive(in)
		require.ErrorIs(t, err, types.ErrInvalidRequest, in)
	}
}

func TestFromSatoshisRoundTrip(t *testing.T) {
	btc := FromSatoshis(123456789)
	require.Equal(t, "1.23456789", FormatBTC(btc))

	sats, err := ToSatoshis(btc)
	require.NoError(t, err)
	require.Equal(t, int64(123456789), sats)
}
