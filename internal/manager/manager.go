// Package manager holds the protocol-level strategy configuration: the asset
// whitelist, the per-frequency action limits and the safety-factor tables
// consumed by the deposit simulator.
package manager

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
	"AutoVault/internal/pricefeed"
)

// Span buckets for safety-factor lookups. A strategy spanning more time needs
// a bigger cushion against gas and price drift.
const (
	spanBucket30Days = iota
	spanBucket90Days
	spanBucket180Days
	spanBucketLonger

	numSpanBuckets = 4
)

const day = int64(86_400)

// Manager is the owner-gated strategy configuration store. It implements the
// action-bound guard used by vaults and the minimum-deposit simulator.
type Manager struct {
	mu    sync.Mutex
	owner common.Address
	feeds pricefeed.Consumer

	whitelist      map[common.Address]model.WhitelistedAsset
	whitelistOrder []common.Address

	maxExpectedGasUnits sdkmath.Int
	maxActions          map[model.BuyFrequency]int64
	gasFactors          [numSpanBuckets]int64
	priceFactors        map[model.RiskCategory][numSpanBuckets]int64
}

// New builds a manager with the protocol defaults. The owner is the only
// address allowed to mutate configuration.
func New(owner common.Address, feeds pricefeed.Consumer) (*Manager, error) {
	if owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero owner address", model.ErrInvalidParameters)
	}
	if feeds == nil {
		return nil, fmt.Errorf("%w: nil price feed consumer", model.ErrInvalidParameters)
	}
	return &Manager{
		owner:               owner,
		feeds:               feeds,
		whitelist:           make(map[common.Address]model.WhitelistedAsset),
		maxExpectedGasUnits: sdkmath.NewInt(2_000_000),
		maxActions: map[model.BuyFrequency]int64{
			model.FrequencyDaily:    365,
			model.FrequencyWeekly:   104,
			model.FrequencyBiWeekly: 52,
			model.FrequencyMonthly:  24,
		},
		gasFactors: [numSpanBuckets]int64{150, 200, 250, 300},
		priceFactors: map[model.RiskCategory][numSpanBuckets]int64{
			model.RiskStable:   {99, 97, 95, 90},
			model.RiskEthBtc:   {90, 85, 80, 70},
			model.RiskBlueChip: {85, 75, 65, 50},
		},
	}, nil
}

func (m *Manager) requireOwner(caller common.Address) error {
	if caller != m.owner {
		return fmt.Errorf("%w: %s is not the manager owner", model.ErrUnauthorizedAccount, caller)
	}
	return nil
}

// AddWhitelistedAsset registers asset as an accepted deposit asset, or updates
// its risk category and oracle in place if the address is already present.
// The enumerable address list never gains duplicates.
func (m *Manager) AddWhitelistedAsset(caller common.Address, asset model.WhitelistedAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	if asset.Address == (common.Address{}) {
		return fmt.Errorf("%w: zero asset address", model.ErrInvalidParameters)
	}
	if !asset.Risk.Valid() {
		return fmt.Errorf("%w: unknown risk category %d", model.ErrInvalidParameters, asset.Risk)
	}
	if _, ok := m.whitelist[asset.Address]; !ok {
		m.whitelistOrder = append(m.whitelistOrder, asset.Address)
	}
	asset.Active = true
	m.whitelist[asset.Address] = asset
	return nil
}

// DeactivateWhitelistedAsset soft-disables the asset. The entry stays
// queryable but deposits against it are rejected.
func (m *Manager) DeactivateWhitelistedAsset(caller, assetID common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	asset, ok := m.whitelist[assetID]
	if !ok {
		return fmt.Errorf("%w: asset %s is not whitelisted", model.ErrInvalidParameters, assetID)
	}
	asset.Active = false
	m.whitelist[assetID] = asset
	return nil
}

// IsAcceptableAsset reports whether assetID is whitelisted and active.
func (m *Manager) IsAcceptableAsset(assetID common.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.whitelist[assetID]
	return ok && a.Active
}

// GetWhitelistedAsset returns the entry for assetID, if any.
func (m *Manager) GetWhitelistedAsset(assetID common.Address) (model.WhitelistedAsset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.whitelist[assetID]
	return a, ok
}

// GetWhitelistedAssets returns all entries in insertion order, inactive ones
// included.
func (m *Manager) GetWhitelistedAssets() []model.WhitelistedAsset {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.WhitelistedAsset, 0, len(m.whitelistOrder))
	for _, id := range m.whitelistOrder {
		out = append(out, m.whitelist[id])
	}
	return out
}

// SetMaxExpectedGasUnits replaces the worst-case gas estimate for a single
// periodic action.
func (m *Manager) SetMaxExpectedGasUnits(caller common.Address, units sdkmath.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	if !units.IsPositive() {
		return fmt.Errorf("%w: gas units must be positive, got %s", model.ErrInvalidParameters, units)
	}
	m.maxExpectedGasUnits = units
	return nil
}

// MaxExpectedGasUnits returns the configured worst-case gas units per action.
func (m *Manager) MaxExpectedGasUnits() sdkmath.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxExpectedGasUnits
}

// SetMaxNumberOfActionsPerFrequency replaces the action limit for f.
func (m *Manager) SetMaxNumberOfActionsPerFrequency(caller common.Address, f model.BuyFrequency, limit int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	if !f.Valid() {
		return fmt.Errorf("%w: unknown frequency %d", model.ErrInvalidParameters, f)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: action limit must be positive, got %d", model.ErrInvalidParameters, limit)
	}
	m.maxActions[f] = limit
	return nil
}

// MaxNumberOfActionsPerFrequency returns the action limit for f, 0 if f is
// unknown.
func (m *Manager) MaxNumberOfActionsPerFrequency(f model.BuyFrequency) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActions[f]
}

// spanBucket maps the total strategy span (actions x interval) to a
// safety-factor bucket.
func spanBucket(actions int64, f model.BuyFrequency) int {
	span := actions * f.Seconds()
	switch {
	case span <= 30*day:
		return spanBucket30Days
	case span <= 90*day:
		return spanBucket90Days
	case span <= 180*day:
		return spanBucket180Days
	default:
		return spanBucketLonger
	}
}

// SetGasCostSafetyFactor replaces the gas multiplier for one span bucket.
// Values are percent, e.g. 150 means 1.5x.
func (m *Manager) SetGasCostSafetyFactor(caller common.Address, bucket int, factor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	if bucket < 0 || bucket >= numSpanBuckets {
		return fmt.Errorf("%w: span bucket %d out of range", model.ErrInvalidParameters, bucket)
	}
	if factor <= 0 {
		return fmt.Errorf("%w: gas safety factor must be positive, got %d", model.ErrInvalidParameters, factor)
	}
	m.gasFactors[bucket] = factor
	return nil
}

// GasCostSafetyFactor returns the gas multiplier, in percent, for a strategy
// of actions periodic buys at frequency f.
func (m *Manager) GasCostSafetyFactor(actions int64, f model.BuyFrequency) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gasFactors[spanBucket(actions, f)]
}

// SetPriceSafetyFactor replaces the price haircut for one risk category and
// span bucket. Values are percent, e.g. 90 means prices discounted to 0.9x.
func (m *Manager) SetPriceSafetyFactor(caller common.Address, risk model.RiskCategory, bucket int, factor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	if !risk.Valid() {
		return fmt.Errorf("%w: unknown risk category %d", model.ErrInvalidParameters, risk)
	}
	if bucket < 0 || bucket >= numSpanBuckets {
		return fmt.Errorf("%w: span bucket %d out of range", model.ErrInvalidParameters, bucket)
	}
	if factor <= 0 || factor > 100 {
		return fmt.Errorf("%w: price safety factor must be in (0, 100], got %d", model.ErrInvalidParameters, factor)
	}
	factors := m.priceFactors[risk]
	factors[bucket] = factor
	m.priceFactors[risk] = factors
	return nil
}

// PriceSafetyFactor returns the price haircut, in percent, for risk at a
// strategy of actions periodic buys at frequency f.
func (m *Manager) PriceSafetyFactor(risk model.RiskCategory, actions int64, f model.BuyFrequency) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.priceFactors[risk][spanBucket(actions, f)]
}

// SimulateMinDepositValue estimates the smallest deposit, in deposit-asset
// units, for which executing maxActions periodic buys stays economically
// rational under worst-case gas cost and discounted prices. The estimate is
// reduced by previousBalance and floored at zero when the existing balance
// already covers it. Read-only.
func (m *Manager) SimulateMinDepositValue(
	ctx context.Context,
	asset model.WhitelistedAsset,
	maxActions int64,
	f model.BuyFrequency,
	treasuryFeeBps int64,
	tokenDecimals uint8,
	previousBalance sdkmath.Int,
	gasPrice sdkmath.Int,
) (sdkmath.Int, error) {
	if maxActions <= 0 {
		return sdkmath.Int{}, fmt.Errorf("%w: max actions must be positive, got %d", model.ErrInvalidParameters, maxActions)
	}
	if !f.Valid() {
		return sdkmath.Int{}, fmt.Errorf("%w: unknown frequency %d", model.ErrInvalidParameters, f)
	}
	if treasuryFeeBps <= 0 {
		return sdkmath.Int{}, fmt.Errorf("%w: treasury fee must be positive, got %d bps", model.ErrInvalidParameters, treasuryFeeBps)
	}
	if gasPrice.IsNil() || gasPrice.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: negative gas price", model.ErrOverflow)
	}
	if previousBalance.IsNil() || previousBalance.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: negative previous balance", model.ErrOverflow)
	}

	native, err := m.feeds.NativeTokenLatestPriceAndDecimals(ctx)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("native token price: %w", err)
	}
	token, err := m.feeds.LatestPriceAndDecimals(ctx, asset.Oracle)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("deposit asset price: %w", err)
	}
	if !token.Value.IsPositive() {
		return sdkmath.Int{}, fmt.Errorf("%w: non-positive asset price %s", model.ErrInvalidParameters, token.Value)
	}

	gasFactor := m.GasCostSafetyFactor(maxActions, f)
	priceFactor := m.PriceSafetyFactor(asset.Risk, maxActions, f)

	// The gas and price factors are both percent scaled, so the two
	// hundredths cancel and the raw values divide directly.
	num := new(big.Int).Set(native.Value.BigInt())
	num.Mul(num, big.NewInt(10_000))
	num.Mul(num, m.MaxExpectedGasUnits().BigInt())
	num.Mul(num, big.NewInt(maxActions))
	num.Mul(num, gasPrice.BigInt())
	num.Mul(num, big.NewInt(gasFactor))
	num.Mul(num, pow10(int(token.Decimals)+int(tokenDecimals)))

	den := new(big.Int).Set(token.Value.BigInt())
	den.Mul(den, big.NewInt(treasuryFeeBps))
	den.Mul(den, big.NewInt(priceFactor))
	den.Mul(den, pow10(18+int(native.Decimals)))

	min := new(big.Int).Quo(num, den)
	min.Sub(min, previousBalance.BigInt())
	if min.Sign() < 0 {
		return sdkmath.ZeroInt(), nil
	}
	if min.BitLen() > 256 {
		return sdkmath.Int{}, fmt.Errorf("%w: simulated minimum deposit out of range", model.ErrOverflow)
	}
	return sdkmath.NewIntFromBigInt(min), nil
}

func pow10(exp int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
