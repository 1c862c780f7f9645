// Package pricefeed abstracts the oracle reads the engine needs: the native
// token price for gas-cost estimates and per-asset prices for deposit-safety
// simulation.
package pricefeed

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
)

// Price is an oracle reading paired with its decimal scale.
type Price struct {
	Value    sdkmath.Int
	Decimals uint8
}

// Consumer reads latest prices. Implementations must be safe for concurrent
// use.
type Consumer interface {
	NativeTokenLatestPriceAndDecimals(ctx context.Context) (Price, error)
	LatestPriceAndDecimals(ctx context.Context, oracle common.Address) (Price, error)
}

// StaticConsumer serves prices from an in-memory table. It backs tests and
// configuration-driven deployments without a live oracle.
type StaticConsumer struct {
	mu     sync.RWMutex
	native Price
	prices map[common.Address]Price
}

func NewStaticConsumer(native Price) *StaticConsumer {
	return &StaticConsumer{
		native: native,
		prices: make(map[common.Address]Price),
	}
}

// SetPrice installs or replaces the reading served for oracle.
func (c *StaticConsumer) SetPrice(oracle common.Address, p Price) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[oracle] = p
}

func (c *StaticConsumer) NativeTokenLatestPriceAndDecimals(context.Context) (Price, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.native.Value.IsNil() || !c.native.Value.IsPositive() {
		return Price{}, fmt.Errorf("%w: no native token price configured", model.ErrInvalidParameters)
	}
	return c.native, nil
}

func (c *StaticConsumer) LatestPriceAndDecimals(_ context.Context, oracle common.Address) (Price, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[oracle]
	if !ok {
		return Price{}, fmt.Errorf("%w: no price for oracle %s", model.ErrInvalidParameters, oracle)
	}
	return p, nil
}
