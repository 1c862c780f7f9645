package vault

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
)

// AllDepositorsLength returns the number of addresses ever registered,
// including fully withdrawn ones.
func (v *Vault) AllDepositorsLength() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.depositorOrder)
}

// GetBatchDepositorAddresses returns up to limit depositor addresses in
// insertion order starting at index startAfter. An out-of-range start fails;
// an over-long limit truncates.
func (v *Vault) GetBatchDepositorAddresses(limit, startAfter int) ([]common.Address, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	lo, hi, err := model.BatchRange(len(v.depositorOrder), limit, startAfter)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, hi-lo)
	copy(out, v.depositorOrder[lo:hi])
	return out, nil
}

// GetInitialDepositBalance returns the first nonzero deposit amount, net of
// fee, recorded for addr. Zero for unknown addresses.
func (v *Vault) GetInitialDepositBalance(addr common.Address) sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d, ok := v.depositors[addr]; ok {
		return d.initialDepositBalance
	}
	return sdkmath.ZeroInt()
}

// GetDepositorBuyAmounts returns addr's per-buy-asset schedule. Empty for
// addresses that never deposited.
func (v *Vault) GetDepositorBuyAmounts(addr common.Address) []sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	d, ok := v.depositors[addr]
	if !ok {
		return nil
	}
	out := make([]sdkmath.Int, len(d.buyAmounts))
	copy(out, d.buyAmounts)
	return out
}

// GetDepositorTotalPeriodicBuyAmount returns the sum of addr's buy amounts.
func (v *Vault) GetDepositorTotalPeriodicBuyAmount(addr common.Address) sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalBuyAmount(addr)
}

func (v *Vault) totalBuyAmount(addr common.Address) sdkmath.Int {
	total := sdkmath.ZeroInt()
	if d, ok := v.depositors[addr]; ok {
		for _, a := range d.buyAmounts {
			total = total.Add(a)
		}
	}
	return total
}

// LastUpdateOf returns the unix time of addr's last periodic action, 0 if
// none has executed yet.
func (v *Vault) LastUpdateOf(addr common.Address) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d, ok := v.depositors[addr]; ok {
		return d.lastUpdate
	}
	return 0
}
