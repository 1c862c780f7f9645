// Package dex abstracts the swap collaborator that converts deposit-asset
// amounts into buy assets during periodic actions.
package dex

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
)

// Router quotes and executes swaps along a known path. Implementations must
// be safe for concurrent use.
type Router interface {
	// PathExists reports whether from can be routed to to.
	PathExists(from, to common.Address) bool
	// AmountsOut quotes the output of swapping amountIn of from into to.
	AmountsOut(ctx context.Context, amountIn sdkmath.Int, from, to common.Address) (sdkmath.Int, error)
	// SwapExactIn swaps amountIn of from into to, failing if the output
	// would land below minOut.
	SwapExactIn(ctx context.Context, amountIn, minOut sdkmath.Int, from, to common.Address) (sdkmath.Int, error)
}

// PairRegistry tracks the tradable pairs of an exchange and builds swap paths
// through the chain's main wrapped token when no direct pair exists.
type PairRegistry struct {
	mu        sync.RWMutex
	mainToken common.Address
	pairs     map[[2]common.Address]struct{}
}

func NewPairRegistry(mainToken common.Address) *PairRegistry {
	return &PairRegistry{
		mainToken: mainToken,
		pairs:     make(map[[2]common.Address]struct{}),
	}
}

// AddPair registers a direct tradable pair. Order does not matter.
func (r *PairRegistry) AddPair(a, b common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[pairKey(a, b)] = struct{}{}
}

func (r *PairRegistry) hasPair(a, b common.Address) bool {
	_, ok := r.pairs[pairKey(a, b)]
	return ok
}

func pairKey(a, b common.Address) [2]common.Address {
	if b.Cmp(a) < 0 {
		a, b = b, a
	}
	return [2]common.Address{a, b}
}

// BuildPath returns the hop sequence from from to to: the direct pair when
// one exists, otherwise a two-hop route through the main token.
func (r *PairRegistry) BuildPath(from, to common.Address) ([]common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if from == to {
		return nil, fmt.Errorf("%w: %s to itself", model.ErrSwapPathNotFound, from)
	}
	if r.hasPair(from, to) {
		return []common.Address{from, to}, nil
	}
	if r.hasPair(from, r.mainToken) && r.hasPair(r.mainToken, to) {
		return []common.Address{from, r.mainToken, to}, nil
	}
	return nil, fmt.Errorf("%w: %s -> %s", model.ErrSwapPathNotFound, from, to)
}

// rate is a fixed exchange price expressed as a fraction out/in.
type rate struct {
	num sdkmath.Int
	den sdkmath.Int
}

// SimRouter executes swaps against fixed per-pair rates. It backs tests and
// dry-run deployments where no live exchange is reachable.
type SimRouter struct {
	mu       sync.RWMutex
	registry *PairRegistry
	rates    map[[2]common.Address]rate
}

func NewSimRouter(registry *PairRegistry) *SimRouter {
	return &SimRouter{
		registry: registry,
		rates:    make(map[[2]common.Address]rate),
	}
}

// SetRate fixes the price for swapping from into to at num/den output units
// per input unit. The reverse direction gets the inverted rate.
func (s *SimRouter) SetRate(from, to common.Address, num, den sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[[2]common.Address{from, to}] = rate{num: num, den: den}
	s.rates[[2]common.Address{to, from}] = rate{num: den, den: num}
}

func (s *SimRouter) PathExists(from, to common.Address) bool {
	_, err := s.registry.BuildPath(from, to)
	return err == nil
}

func (s *SimRouter) AmountsOut(_ context.Context, amountIn sdkmath.Int, from, to common.Address) (sdkmath.Int, error) {
	if amountIn.IsNil() || amountIn.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: negative swap input", model.ErrOverflow)
	}
	path, err := s.registry.BuildPath(from, to)
	if err != nil {
		return sdkmath.Int{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := amountIn
	for i := 0; i+1 < len(path); i++ {
		r, ok := s.rates[[2]common.Address{path[i], path[i+1]}]
		if !ok {
			return sdkmath.Int{}, fmt.Errorf("%w: no rate for %s -> %s", model.ErrSwapPathNotFound, path[i], path[i+1])
		}
		out = out.Mul(r.num).Quo(r.den)
	}
	return out, nil
}

func (s *SimRouter) SwapExactIn(ctx context.Context, amountIn, minOut sdkmath.Int, from, to common.Address) (sdkmath.Int, error) {
	out, err := s.AmountsOut(ctx, amountIn, from, to)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if out.LT(minOut) {
		return sdkmath.Int{}, fmt.Errorf("%w: output %s below minimum %s", model.ErrUpdateConditionsNotMet, out, minOut)
	}
	return out, nil
}
