package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
	"AutoVault/internal/pmath"
)

// ActionPlan is the ledger view a worker needs before executing a periodic
// action: the per-asset buy amounts and the shares the commit will burn.
type ActionPlan struct {
	BuyAmounts  []sdkmath.Int
	TotalAmount sdkmath.Int
	BurnShares  sdkmath.Int
}

// PlanStrategyAction validates eligibility for a periodic action at time now
// without mutating anything. It reports UpdateConditionsNotMet while the
// frequency interval has not elapsed or balance/allowance cannot cover the
// burn, and ZeroOrNegativeVaultWithdrawAmount for a depositor with no buy
// amount.
func (v *Vault) PlanStrategyAction(caller, depositorAddr common.Address, now int64) (*ActionPlan, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.planLocked(caller, depositorAddr, now)
}

func (v *Vault) planLocked(caller, depositorAddr common.Address, now int64) (*ActionPlan, error) {
	if caller != v.params.Strategy.Worker {
		return nil, fmt.Errorf("%w: caller %s is not the strategy worker", model.ErrForbidden, caller)
	}

	total := v.totalBuyAmount(depositorAddr)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: depositor %s", model.ErrZeroOrNegativeAmount, depositorAddr)
	}

	d := v.depositors[depositorAddr]
	interval := v.params.Strategy.Frequency.Seconds()
	if d.lastUpdate != 0 && now-d.lastUpdate < interval {
		return nil, fmt.Errorf("%w: next action at %d, now %d",
			model.ErrUpdateConditionsNotMet, d.lastUpdate+interval, now)
	}

	// Burning rounds up so the shares destroyed never undercut the assets
	// withdrawn for the buys.
	shares, err := pmath.ConvertToShares(total, v.totalShares, v.totalAssets, pmath.RoundUp)
	if err != nil {
		return nil, err
	}
	if v.balanceOf(depositorAddr).LT(shares) {
		return nil, fmt.Errorf("%w: share balance below %s", model.ErrUpdateConditionsNotMet, shares)
	}
	if v.allowance(depositorAddr, v.params.Strategy.Worker).LT(shares) {
		return nil, fmt.Errorf("%w: worker allowance below %s", model.ErrUpdateConditionsNotMet, shares)
	}

	buy := make([]sdkmath.Int, len(d.buyAmounts))
	copy(buy, d.buyAmounts)
	return &ActionPlan{BuyAmounts: buy, TotalAmount: total, BurnShares: shares}, nil
}

// CommitStrategyAction re-validates the plan under the vault lock and applies
// it: burns the depositor's shares, consumes worker allowance, removes the
// buy amount from total assets and advances the depositor's last-update
// timestamp. Only the configured worker may commit.
func (v *Vault) CommitStrategyAction(caller, depositorAddr common.Address, now int64) (*ActionPlan, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	plan, err := v.planLocked(caller, depositorAddr, now)
	if err != nil {
		return nil, err
	}

	d := v.depositors[depositorAddr]
	v.balances[depositorAddr] = v.balanceOf(depositorAddr).Sub(plan.BurnShares)
	v.allowances[depositorAddr][caller] = v.allowance(depositorAddr, caller).Sub(plan.BurnShares)
	v.totalShares = v.totalShares.Sub(plan.BurnShares)
	v.totalAssets = v.totalAssets.Sub(plan.TotalAmount)
	d.lastUpdate = now
	return plan, nil
}
