// Package executor is the off-ledger automation layer: the resolver scans the
// tracked vaults for eligible periodic actions and the executor fires them
// through the controller on a cron cadence.
package executor

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/factory"
	"AutoVault/internal/vault"
)

// TriggerPayload identifies one executable periodic action.
type TriggerPayload struct {
	Vault     common.Address
	Depositor common.Address
}

// Resolver finds eligible periodic actions across the factory's vaults.
type Resolver struct {
	factory *factory.Factory
	worker  common.Address
}

func NewResolver(f *factory.Factory, worker common.Address) *Resolver {
	return &Resolver{factory: f, worker: worker}
}

// Checker scans vaults in creation order and returns the first depositor
// whose periodic action can execute at now. Returns ok=false when nothing is
// eligible.
func (r *Resolver) Checker(now time.Time) (TriggerPayload, bool) {
	for _, v := range r.factory.GetAllVaultsPerStrategyWorker(r.worker) {
		if payload, ok := r.checkVault(v, now); ok {
			return payload, true
		}
	}
	return TriggerPayload{}, false
}

// CheckAll returns every eligible action, for batch executors.
func (r *Resolver) CheckAll(now time.Time) []TriggerPayload {
	var out []TriggerPayload
	for _, v := range r.factory.GetAllVaultsPerStrategyWorker(r.worker) {
		n := v.AllDepositorsLength()
		if n == 0 {
			continue
		}
		depositors, err := v.GetBatchDepositorAddresses(n, 0)
		if err != nil {
			continue
		}
		for _, d := range depositors {
			if r.eligible(v, d, now) {
				out = append(out, TriggerPayload{Vault: v.Address(), Depositor: d})
			}
		}
	}
	return out
}

func (r *Resolver) checkVault(v *vault.Vault, now time.Time) (TriggerPayload, bool) {
	n := v.AllDepositorsLength()
	if n == 0 {
		return TriggerPayload{}, false
	}
	depositors, err := v.GetBatchDepositorAddresses(n, 0)
	if err != nil {
		return TriggerPayload{}, false
	}
	for _, d := range depositors {
		if r.eligible(v, d, now) {
			return TriggerPayload{Vault: v.Address(), Depositor: d}, true
		}
	}
	return TriggerPayload{}, false
}

// eligible dry-runs the action plan. Gating errors (interval not elapsed, no
// buy amount, missing allowance) simply mean "skip"; the depositor stays in
// place for the next scan.
func (r *Resolver) eligible(v *vault.Vault, depositor common.Address, now time.Time) bool {
	_, err := v.PlanStrategyAction(r.worker, depositor, now.Unix())
	return err == nil
}
