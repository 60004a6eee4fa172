package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/sirupsen/logrus"

	"lnswap/pkg/types"
)

const currenciesKey = "currencies"

// CurrencyLister lists tradable currencies
type CurrencyLister interface {
	ListCurrencies(ctx context.Context) ([]types.Currency, error)
}

// Catalog answers which currencies are eligible per direction. Listings are
// cached for a TTL; when the backend listing fails the configured fallback set is used.
type Catalog struct {
	lister   CurrencyLister
	cache    *ristretto.Cache
	ttl      time.Duration
	fallback []types.Currency
	log      logrus.FieldLogger
}

// NewCatalog creates a catalog. fallback codes are treated as eligible in both directions.
func NewCatalog(lister CurrencyLister, ttl time.Duration, fallback []string, log logrus.FieldLogger) (*Catalog, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        100,
		MaxCost:            10,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create currency cache failed: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	fb := make([]types.Currency, 0, len(fallback))
	for _, code := range fallback {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		fb = append(fb, types.Currency{Code: code, Send: true, Recv: true})
	}

	return &Catalog{
		lister:   lister,
		cache:    c,
		ttl:      ttl,
		fallback: fb,
		log:      log,
	}, nil
}

// Eligible returns the currencies usable in direction d. It never fails.
func (c *Catalog) Eligible(ctx context.Context, d types.Direction) []types.Currency {
	return EligibleCurrencies(c.currencies(ctx), d)
}

// Lookup finds code among the currencies eligible for d
func (c *Catalog) Lookup(ctx context.Context, d types.Direction, code string) (types.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if cur, ok := findCode(c.Eligible(ctx, d), code); ok {
		return cur, nil
	}

	// the cached listing may predate the currency being enabled
	if _, cached := c.cache.Get(currenciesKey); cached {
		c.Invalidate()
		if cur, ok := findCode(c.Eligible(ctx, d), code); ok {
			return cur, nil
		}
	}
	return types.Currency{}, fmt.Errorf("%w: %s cannot be used to %s", types.ErrCurrencyNotEligible, code, d)
}

func findCode(list []types.Currency, code string) (types.Currency, bool) {
	for _, cur := range list {
		if strings.ToUpper(cur.Code) == code {
			return cur, true
		}
	}
	return types.Currency{}, false
}

// Invalidate drops the cached listing
func (c *Catalog) Invalidate() {
	c.cache.Del(currenciesKey)
	c.cache.Wait()
}

// Close releases the cache
func (c *Catalog) Close() { c.cache.Close() }

func (c *Catalog) currencies(ctx context.Context) []types.Currency {
	if v, ok := c.cache.Get(currenciesKey); ok {
		if list, ok := v.([]types.Currency); ok {
			return list
		}
	}

	list, err := c.lister.ListCurrencies(ctx)
	if err != nil || len(list) == 0 {
		if err == nil {
			err = fmt.Errorf("%w: empty currency list", types.ErrBackendLogic)
		}
		c.log.WithError(err).Warn("Currency listing unavailable, using fallback set")
		return c.fallback
	}

	if c.ttl > 0 {
		c.cache.SetWithTTL(currenciesKey, list, 1, c.ttl)
		c.cache.Wait()
	}
	return list
}
