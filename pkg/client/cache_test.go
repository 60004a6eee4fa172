package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lnswap/pkg/types"
)

type fakeLister struct {
	list  []types.Currency
	err   error
	calls int
}

func (f *fakeLister) ListCurrencies(context.Context) ([]types.Currency, error) {
	f.calls++
	return f.list, f.err
}

func TestCatalog_CachesListing(t *testing.T) {
	lister := &fakeLister{list: []types.Currency{
		{Code: "USDTTRC", Send: true, Recv: false},
		{Code: "USDCETH", Send: true, Recv: true},
	}}
	c, err := NewCatalog(lister, time.Minute, []string{"USDCETH"}, testLogger())
	require.NoError(t, err)
	defer c.Close()

	first := c.Eligible(context.Background(), types.ToRecipient)
	for i := 0; i < 4; i++ {
		require.Equal(t, first, c.Eligible(context.Background(), types.ToRecipient))
	}
	require.Equal(t, []string{"USDCETH", "USDTTRC"}, codes(first))
	require.Equal(t, 1, lister.calls)

	c.Invalidate()
	_ = c.Eligible(context.Background(), types.FromRecipient)
	require.Equal(t, 2, lister.calls)
}

func TestCatalog_NoTTLAlwaysLists(t *testing.T) {
	lister := &fakeLister{list: []types.Currency{{Code: "USDCETH", Send: true, Recv: true}}}
	c, err := NewCatalog(lister, 0, nil, testLogger())
	require.NoError(t, err)
	defer c.Close()

	a := c.Eligible(context.Background(), types.FromRecipient)
	b := c.Eligible(context.Background(), types.FromRecipient)
	require.Equal(t, a, b)
	require.Equal(t, 2, lister.calls)
}

func TestCatalog_FallsBackWhenListingFails(t *testing.T) {
	lister := &fakeLister{err: errors.New("boom")}
	c, err := NewCatalog(lister, time.Minute, []string{"usdceth"}, testLogger())
	require.NoError(t, err)
	defer c.Close()

	got := c.Eligible(context.Background(), types.FromRecipient)
	require.Equal(t, []string{"USDCETH"}, codes(got))

	cur, err := c.Lookup(context.Background(), types.ToRecipient, "usdceth")
	require.NoError(t, err)
	require.Equal(t, "USDCETH", cur.Code)
	// failures are not cached
	require.Equal(t, 2, lister.calls)
}

func TestCatalog_LookupNotEligible(t *testing.T) {
	lister := &fakeLister{list: []types.Currency{{Code: "USDTTRC", Send: true, Recv: false}}}
	c, err := NewCatalog(lister, time.Minute, nil, testLogger())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Lookup(context.Background(), types.FromRecipient, "USDTTRC")
	require.ErrorIs(t, err, types.ErrCurrencyNotEligible)
}

func TestCatalog_LookupRefreshesStaleListing(t *testing.T) {
	lister := &fakeLister{list: []types.Currency{{Code: "USDCETH", Send: true, Recv: true}}}
	c, err := NewCatalog(lister, time.Hour, nil, testLogger())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Lookup(context.Background(), types.ToRecipient, "USDCETH")
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), types.ToRecipient, "usdceth")
	require.NoError(t, err)
	require.Equal(t, 1, lister.calls)

	lister.list = append(lister.list, types.Currency{Code: "USDTSOL", Send: true})
	cur, err := c.Lookup(context.Background(), types.ToRecipient, "USDTSOL")
	require.NoError(t, err)
	require.Equal(t, "USDTSOL", cur.Code)
	require.Equal(t, 2, lister.calls)

	_, err = c.Lookup(context.Background(), types.ToRecipient, "USDTSOL")
	require.NoError(t, err)
	require.Equal(t, 2, lister.calls)
}
