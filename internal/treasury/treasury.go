// Package treasury accumulates protocol fees: vault creation fees in native
// currency and per-action treasury fees in deposit-asset terms.
package treasury

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
)

// Vault is the protocol fee sink. Only the owner may withdraw.
type Vault struct {
	mu       sync.Mutex
	owner    common.Address
	filePath string

	native sdkmath.Int
	tokens map[common.Address]sdkmath.Int
}

// New creates a treasury vault, loading any persisted state from filePath.
// An empty filePath disables persistence.
func New(owner common.Address, filePath string) (*Vault, error) {
	if owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero owner address", model.ErrInvalidParameters)
	}
	state, err := loadState(filePath)
	if err != nil {
		return nil, err
	}
	return &Vault{
		owner:    owner,
		filePath: filePath,
		native:   state.nativeBalance(),
		tokens:   state.tokenBalances(),
	}, nil
}

// Owner returns the withdrawal-authorized address.
func (t *Vault) Owner() common.Address { return t.owner }

// NativeBalance returns the accumulated native-currency balance.
func (t *Vault) NativeBalance() sdkmath.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.native
}

// TokenBalance returns the accumulated balance for asset.
func (t *Vault) TokenBalance(asset common.Address) sdkmath.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.tokens[asset]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

// DepositNative credits native currency. A zero amount is a legal no-op.
func (t *Vault) DepositNative(amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: negative native deposit", model.ErrOverflow)
	}
	if amount.IsZero() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.native
	t.native = t.native.Add(amount)
	if err := t.save(); err != nil {
		t.native = prev
		return fmt.Errorf("persist treasury state: %w", err)
	}
	return nil
}

// DepositToken credits asset. A zero amount is a legal no-op.
func (t *Vault) DepositToken(asset common.Address, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: negative token deposit", model.ErrOverflow)
	}
	if amount.IsZero() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, had := t.tokens[asset]
	if had {
		t.tokens[asset] = prev.Add(amount)
	} else {
		t.tokens[asset] = amount
	}
	if err := t.save(); err != nil {
		if had {
			t.tokens[asset] = prev
		} else {
			delete(t.tokens, asset)
		}
		return fmt.Errorf("persist treasury state: %w", err)
	}
	return nil
}

// RefundToken hands back a fee credited for an action that subsequently
// failed. It is not owner-gated like the withdrawals: it can only undo a
// prior deposit, never exceed the held balance.
func (t *Vault) RefundToken(asset common.Address, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: negative token refund", model.ErrOverflow)
	}
	if amount.IsZero() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bal, ok := t.tokens[asset]
	if !ok || amount.GT(bal) {
		return fmt.Errorf("%w: refund %s exceeds %s balance", model.ErrInvalidParameters, amount, asset)
	}
	t.tokens[asset] = bal.Sub(amount)
	if err := t.save(); err != nil {
		t.tokens[asset] = bal
		return fmt.Errorf("persist treasury state: %w", err)
	}
	return nil
}

// WithdrawNative moves native balance out on behalf of the owner.
func (t *Vault) WithdrawNative(caller common.Address, amount sdkmath.Int) error {
	if caller != t.owner {
		return fmt.Errorf("%w: %s is not the treasury owner", model.ErrUnauthorizedAccount, caller)
	}
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: negative native withdrawal", model.ErrOverflow)
	}
	if amount.IsZero() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount.GT(t.native) {
		return fmt.Errorf("%w: withdrawal %s exceeds native balance %s", model.ErrInvalidParameters, amount, t.native)
	}
	prev := t.native
	t.native = t.native.Sub(amount)
	if err := t.save(); err != nil {
		t.native = prev
		return fmt.Errorf("persist treasury state: %w", err)
	}
	return nil
}

// WithdrawToken moves asset balance out on behalf of the owner.
func (t *Vault) WithdrawToken(caller, asset common.Address, amount sdkmath.Int) error {
	if caller != t.owner {
		return fmt.Errorf("%w: %s is not the treasury owner", model.ErrUnauthorizedAccount, caller)
	}
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: negative token withdrawal", model.ErrOverflow)
	}
	if amount.IsZero() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bal := sdkmath.ZeroInt()
	if b, ok := t.tokens[asset]; ok {
		bal = b
	}
	if amount.GT(bal) {
		return fmt.Errorf("%w: withdrawal %s exceeds %s balance %s", model.ErrInvalidParameters, amount, asset, bal)
	}
	t.tokens[asset] = bal.Sub(amount)
	if err := t.save(); err != nil {
		t.tokens[asset] = bal
		return fmt.Errorf("persist treasury state: %w", err)
	}
	return nil
}
