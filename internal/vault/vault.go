// Package vault implements the automated multi-asset vault ledger: share
// accounting per depositor, the depositor registry with its buy-amount
// schedules, and the worker-gated periodic action commit.
package vault

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
	"AutoVault/internal/pmath"
)

// StrategyGuard bounds the number of periodic actions a depositor's balance
// may imply. The strategy manager implements it.
type StrategyGuard interface {
	MaxNumberOfActionsPerFrequency(f model.BuyFrequency) int64
}

// Params fix a vault's identity and fee schedule at creation.
type Params struct {
	Address        common.Address
	Name           string
	Symbol         string
	Treasury       common.Address
	Creator        common.Address
	Factory        common.Address
	DepositAsset   common.Address
	BuyAssets      []common.Address
	CreatorFeeBps  int64
	TreasuryFeeBps int64
	Strategy       model.StrategyParams
}

// InitParams is the queryable creation-parameter tuple.
type InitParams struct {
	Name           string
	Symbol         string
	Treasury       common.Address
	Creator        common.Address
	Factory        common.Address
	IsActive       bool
	DepositAsset   common.Address
	BuyAssets      []common.Address
	CreatorFeeBps  int64
	TreasuryFeeBps int64
}

// depositor is the per-address registry entry. Entries are never removed;
// a fully withdrawn depositor leaves a residual entry with zero balance.
type depositor struct {
	initialDepositBalance sdkmath.Int
	buyAmounts            []sdkmath.Int
	lastUpdate            int64
}

// Vault is an in-process multi-asset vault ledger. All public operations are
// atomic: they either apply fully or leave the state untouched.
type Vault struct {
	mu     sync.Mutex
	params Params
	active bool

	totalShares sdkmath.Int
	totalAssets sdkmath.Int

	balances       map[common.Address]sdkmath.Int
	allowances     map[common.Address]map[common.Address]sdkmath.Int
	depositors     map[common.Address]*depositor
	depositorOrder []common.Address

	feesAccruedByCreator sdkmath.Int

	guard StrategyGuard
}

// New instantiates a vault on behalf of the factory. Direct instantiation by
// any other caller is rejected.
func New(caller common.Address, p Params, guard StrategyGuard) (*Vault, error) {
	if caller != p.Factory {
		return nil, fmt.Errorf("%w: not factory", model.ErrForbidden)
	}
	if guard == nil {
		return nil, fmt.Errorf("%w: nil strategy guard", model.ErrInvalidParameters)
	}
	if len(p.BuyAssets) != len(p.Strategy.BuyPercentagesBps) {
		return nil, fmt.Errorf("%w: %d buy assets, %d percentages",
			model.ErrInvalidParameters, len(p.BuyAssets), len(p.Strategy.BuyPercentagesBps))
	}
	return &Vault{
		params:               p,
		totalShares:          sdkmath.ZeroInt(),
		totalAssets:          sdkmath.ZeroInt(),
		balances:             make(map[common.Address]sdkmath.Int),
		allowances:           make(map[common.Address]map[common.Address]sdkmath.Int),
		depositors:           make(map[common.Address]*depositor),
		feesAccruedByCreator: sdkmath.ZeroInt(),
		guard:                guard,
	}, nil
}

// Address returns the vault's identity assigned by the factory.
func (v *Vault) Address() common.Address { return v.params.Address }

// Worker returns the strategy worker authorized to commit periodic actions.
func (v *Vault) Worker() common.Address { return v.params.Strategy.Worker }

// Creator returns the vault creator.
func (v *Vault) Creator() common.Address { return v.params.Creator }

// DepositAsset returns the deposit asset id.
func (v *Vault) DepositAsset() common.Address { return v.params.DepositAsset }

// Frequency returns the configured buy cadence.
func (v *Vault) Frequency() model.BuyFrequency { return v.params.Strategy.Frequency }

// TreasuryFeeBps returns the treasury fee charged on periodic actions.
func (v *Vault) TreasuryFeeBps() int64 { return v.params.TreasuryFeeBps }

// BuyAssetAddresses returns the ordered buy-asset list.
func (v *Vault) BuyAssetAddresses() []common.Address {
	out := make([]common.Address, len(v.params.BuyAssets))
	copy(out, v.params.BuyAssets)
	return out
}

// BuyAssetsLength returns the number of configured buy assets.
func (v *Vault) BuyAssetsLength() int { return len(v.params.BuyAssets) }

// GetInitMultiAssetVaultParams returns the creation-parameter tuple.
func (v *Vault) GetInitMultiAssetVaultParams() InitParams {
	v.mu.Lock()
	defer v.mu.Unlock()
	return InitParams{
		Name:           v.params.Name,
		Symbol:         v.params.Symbol,
		Treasury:       v.params.Treasury,
		Creator:        v.params.Creator,
		Factory:        v.params.Factory,
		IsActive:       v.active,
		DepositAsset:   v.params.DepositAsset,
		BuyAssets:      v.BuyAssetAddresses(),
		CreatorFeeBps:  v.params.CreatorFeeBps,
		TreasuryFeeBps: v.params.TreasuryFeeBps,
	}
}

// GetStrategyParams returns the configured strategy parameters.
func (v *Vault) GetStrategyParams() model.StrategyParams {
	pcts := make([]int64, len(v.params.Strategy.BuyPercentagesBps))
	copy(pcts, v.params.Strategy.BuyPercentagesBps)
	return model.StrategyParams{
		BuyPercentagesBps: pcts,
		Frequency:         v.params.Strategy.Frequency,
		Worker:            v.params.Strategy.Worker,
	}
}

// IsActive reports whether the vault has received its first nonzero deposit.
// The flag is monotone: it never flips back to false.
func (v *Vault) IsActive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// TotalShares returns the share supply.
func (v *Vault) TotalShares() sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalShares
}

// TotalAssets returns the deposit-asset total held by the ledger.
func (v *Vault) TotalAssets() sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalAssets
}

// BalanceOf returns addr's share balance.
func (v *Vault) BalanceOf(addr common.Address) sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balanceOf(addr)
}

func (v *Vault) balanceOf(addr common.Address) sdkmath.Int {
	if b, ok := v.balances[addr]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

// MaxWithdraw returns the deposit-asset amount addr's shares redeem for.
func (v *Vault) MaxWithdraw(addr common.Address) (sdkmath.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return pmath.ConvertToAssets(v.balanceOf(addr), v.totalShares, v.totalAssets, pmath.RoundDown)
}

// FeesAccruedByCreator returns the cumulative creator fee, in deposit-asset
// units, collected from non-creator deposits.
func (v *Vault) FeesAccruedByCreator() sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.feesAccruedByCreator
}

// Deposit credits caller with shares for amount, charging the creator fee on
// deposits not made by the creator. A zero amount is a legal no-op.
func (v *Vault) Deposit(caller common.Address, amount sdkmath.Int) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: negative deposit %s", model.ErrOverflow, amount)
	}
	if amount.IsZero() {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	creatorFee := sdkmath.ZeroInt()
	if caller != v.params.Creator {
		fee, err := pmath.PercentageMul(amount, v.params.CreatorFeeBps)
		if err != nil {
			return err
		}
		creatorFee = fee
	}
	net := amount.Sub(creatorFee)

	// All minting in one call happens at the pre-deposit exchange rate.
	callerShares, err := pmath.ConvertToShares(net, v.totalShares, v.totalAssets, pmath.RoundDown)
	if err != nil {
		return err
	}
	creatorShares := sdkmath.ZeroInt()
	if creatorFee.IsPositive() {
		creatorShares, err = pmath.ConvertToShares(creatorFee, v.totalShares, v.totalAssets, pmath.RoundDown)
		if err != nil {
			return err
		}
	}

	if err := v.checkActionBound(caller, net); err != nil {
		return err
	}

	// Schedules are derived before any state is touched, so an error here
	// cannot leave a partial mint behind.
	callerSchedule, err := v.scheduleFor(net)
	if err != nil {
		return err
	}
	var creatorSchedule []sdkmath.Int
	if creatorFee.IsPositive() {
		if creatorSchedule, err = v.scheduleFor(creatorFee); err != nil {
			return err
		}
	}

	v.credit(caller, callerShares, net, callerSchedule)
	if creatorFee.IsPositive() {
		v.credit(v.params.Creator, creatorShares, creatorFee, creatorSchedule)
		v.feesAccruedByCreator = v.feesAccruedByCreator.Add(creatorFee)
	}
	v.totalShares = v.totalShares.Add(callerShares).Add(creatorShares)
	v.totalAssets = v.totalAssets.Add(amount)
	v.active = true
	return nil
}

// checkActionBound rejects a follow-up deposit that would stretch the
// depositor's accrued balance over more periodic actions than the protocol
// allows. First deposits and re-entries are bounded at creation time by the
// percentage schedule instead.
func (v *Vault) checkActionBound(caller common.Address, net sdkmath.Int) error {
	d, ok := v.depositors[caller]
	if !ok || !v.balanceOf(caller).IsPositive() {
		return nil
	}
	total := sdkmath.ZeroInt()
	for _, a := range d.buyAmounts {
		total = total.Add(a)
	}
	if !total.IsPositive() {
		return nil
	}
	prevAssets, err := pmath.ConvertToAssets(v.balanceOf(caller), v.totalShares, v.totalAssets, pmath.RoundDown)
	if err != nil {
		return err
	}
	implied := prevAssets.Add(net).Quo(total)
	limit := v.guard.MaxNumberOfActionsPerFrequency(v.params.Strategy.Frequency)
	if implied.GT(sdkmath.NewInt(limit)) {
		return fmt.Errorf("%w: max number of actions exceeds the limit (%s > %d)",
			model.ErrInvalidParameters, implied, limit)
	}
	return nil
}

// scheduleFor derives the per-asset buy amounts the percentage schedule
// implies for a deposit of amount.
func (v *Vault) scheduleFor(amount sdkmath.Int) ([]sdkmath.Int, error) {
	out := make([]sdkmath.Int, len(v.params.Strategy.BuyPercentagesBps))
	for i, pct := range v.params.Strategy.BuyPercentagesBps {
		amt, err := pmath.PercentageMul(amount, pct)
		if err != nil {
			return nil, err
		}
		out[i] = amt
	}
	return out, nil
}

// credit mints shares to addr and maintains its registry entry. The
// buy-amount schedule applies only when the previous balance was zero:
// re-entry resets the schedule, follow-up deposits leave it untouched.
func (v *Vault) credit(addr common.Address, shares, assetAmount sdkmath.Int, schedule []sdkmath.Int) {
	prev := v.balanceOf(addr)
	v.balances[addr] = prev.Add(shares)

	d, ok := v.depositors[addr]
	if !ok {
		d = &depositor{initialDepositBalance: sdkmath.ZeroInt()}
		v.depositors[addr] = d
		v.depositorOrder = append(v.depositorOrder, addr)
	}
	if prev.IsZero() {
		d.initialDepositBalance = assetAmount
		d.buyAmounts = schedule
	}
}

// Withdraw redeems assets for caller, burning ceil-rounded shares so the
// burn never undercuts the value extracted. A zero amount is a legal no-op.
func (v *Vault) Withdraw(caller common.Address, assets sdkmath.Int) error {
	if assets.IsNegative() {
		return fmt.Errorf("%w: negative withdraw %s", model.ErrOverflow, assets)
	}
	if assets.IsZero() {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	shares, err := pmath.ConvertToShares(assets, v.totalShares, v.totalAssets, pmath.RoundUp)
	if err != nil {
		return err
	}
	bal := v.balanceOf(caller)
	if shares.GT(bal) {
		return fmt.Errorf("%w: withdraw %s exceeds max for %s", model.ErrInvalidParameters, assets, caller)
	}
	v.balances[caller] = bal.Sub(shares)
	v.totalShares = v.totalShares.Sub(shares)
	v.totalAssets = v.totalAssets.Sub(assets)
	return nil
}

// Transfer moves shares between holders. It never touches totals, buy-amount
// schedules, or initial deposit balances. A zero amount is a legal no-op.
func (v *Vault) Transfer(from, to common.Address, shares sdkmath.Int) error {
	if shares.IsNegative() {
		return fmt.Errorf("%w: negative transfer %s", model.ErrOverflow, shares)
	}
	if shares.IsZero() {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	bal := v.balanceOf(from)
	if shares.GT(bal) {
		return fmt.Errorf("%w: transfer %s exceeds balance of %s", model.ErrInvalidParameters, shares, from)
	}
	v.balances[from] = bal.Sub(shares)
	v.balances[to] = v.balanceOf(to).Add(shares)
	return nil
}

// Approve lets spender burn up to shares of owner's balance during periodic
// actions.
func (v *Vault) Approve(owner, spender common.Address, shares sdkmath.Int) error {
	if shares.IsNegative() {
		return fmt.Errorf("%w: negative allowance %s", model.ErrOverflow, shares)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	m, ok := v.allowances[owner]
	if !ok {
		m = make(map[common.Address]sdkmath.Int)
		v.allowances[owner] = m
	}
	m[spender] = shares
	return nil
}

// Allowance returns the remaining spender allowance granted by owner.
func (v *Vault) Allowance(owner, spender common.Address) sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.allowance(owner, spender)
}

func (v *Vault) allowance(owner, spender common.Address) sdkmath.Int {
	if m, ok := v.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return sdkmath.ZeroInt()
}
