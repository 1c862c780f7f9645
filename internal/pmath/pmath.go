// Package pmath implements the exact integer math used by the vault ledger:
// half-up basis-point percentages and share/asset conversion with virtual
// offsets that harden the exchange rate against first-depositor inflation
// attacks.
package pmath

import (
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"

	"AutoVault/internal/model"
)

// PercentageFactor is the basis-point scale: 10000 bps = 100%.
const PercentageFactor = 10_000

// maxBits bounds every intermediate product; anything wider is rejected
// before division rather than silently wrapped.
const maxBits = 256

// Virtual offsets applied to totals in all share conversions. VirtualAssets
// is one base unit of the deposit asset; VirtualShares fixes the neutral
// exchange rate at 1 asset unit = 1e18 shares.
var (
	VirtualShares = sdkmath.NewIntWithDecimal(1, 18)
	VirtualAssets = sdkmath.OneInt()
)

// Rounding selects the direction of the final division. Deposits and mints
// round down, withdrawal share burns round up: both favor the ledger.
type Rounding uint8

const (
	RoundDown Rounding = iota
	RoundUp
)

// PercentageMul computes floor((value*bps + 5000) / 10000), the half-up
// percentage used for every fee in the protocol. Negative inputs are out of
// the safe range.
func PercentageMul(value sdkmath.Int, bps int64) (sdkmath.Int, error) {
	if value.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: negative value %s", model.ErrOverflow, value)
	}
	if bps < 0 {
		return sdkmath.Int{}, fmt.Errorf("%w: negative percentage %d", model.ErrOverflow, bps)
	}
	num := new(big.Int).Mul(value.BigInt(), big.NewInt(bps))
	num.Add(num, big.NewInt(PercentageFactor/2))
	if num.BitLen() > maxBits {
		return sdkmath.Int{}, fmt.Errorf("%w: %s * %d bps exceeds 256 bits", model.ErrOverflow, value, bps)
	}
	num.Quo(num, big.NewInt(PercentageFactor))
	return sdkmath.NewIntFromBigInt(num), nil
}

// ConvertToShares converts a deposit-asset amount into shares at the current
// exchange rate: amount * (totalShares + VirtualShares) / (totalAssets +
// VirtualAssets), rounded per the call site.
func ConvertToShares(assets, totalShares, totalAssets sdkmath.Int, r Rounding) (sdkmath.Int, error) {
	if err := checkNonNegative(assets, totalShares, totalAssets); err != nil {
		return sdkmath.Int{}, err
	}
	num := totalShares.Add(VirtualShares)
	den := totalAssets.Add(VirtualAssets)
	return mulDiv(assets, num, den, r)
}

// ConvertToAssets is the inverse conversion: shares * (totalAssets +
// VirtualAssets) / (totalShares + VirtualShares).
func ConvertToAssets(shares, totalShares, totalAssets sdkmath.Int, r Rounding) (sdkmath.Int, error) {
	if err := checkNonNegative(shares, totalShares, totalAssets); err != nil {
		return sdkmath.Int{}, err
	}
	num := totalAssets.Add(VirtualAssets)
	den := totalShares.Add(VirtualShares)
	return mulDiv(shares, num, den, r)
}

// mulDiv computes a*b/den with the requested rounding, rejecting any
// intermediate product wider than 256 bits.
func mulDiv(a, b, den sdkmath.Int, r Rounding) (sdkmath.Int, error) {
	prod := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if prod.BitLen() > maxBits {
		return sdkmath.Int{}, fmt.Errorf("%w: %s * %s exceeds 256 bits", model.ErrOverflow, a, b)
	}
	d := den.BigInt()
	q, rem := new(big.Int).QuoRem(prod, d, new(big.Int))
	if r == RoundUp && rem.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return sdkmath.NewIntFromBigInt(q), nil
}

func checkNonNegative(vals ...sdkmath.Int) error {
	for _, v := range vals {
		if v.IsNegative() {
			return fmt.Errorf("%w: negative amount %s", model.ErrOverflow, v)
		}
	}
	return nil
}
