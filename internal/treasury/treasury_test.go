package treasury

import (
	"errors"
	"path/filepath"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
)

var (
	owner = common.HexToAddress("0x0000000000000000000000000000000000000001")
	other = common.HexToAddress("0x0000000000000000000000000000000000000002")
	usdc  = common.HexToAddress("0x0000000000000000000000000000000000000c01")
)

func TestDepositAndWithdraw(t *testing.T) {
	tv, err := New(owner, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := tv.DepositNative(sdkmath.NewInt(100)); err != nil {
		t.Fatalf("DepositNative: %v", err)
	}
	if err := tv.DepositToken(usdc, sdkmath.NewInt(42)); err != nil {
		t.Fatalf("DepositToken: %v", err)
	}
	if got := tv.NativeBalance(); !got.Equal(sdkmath.NewInt(100)) {
		t.Errorf("native balance = %s, want 100", got)
	}
	if got := tv.TokenBalance(usdc); !got.Equal(sdkmath.NewInt(42)) {
		t.Errorf("token balance = %s, want 42", got)
	}

	if err := tv.WithdrawNative(owner, sdkmath.NewInt(60)); err != nil {
		t.Fatalf("WithdrawNative: %v", err)
	}
	if got := tv.NativeBalance(); !got.Equal(sdkmath.NewInt(40)) {
		t.Errorf("native balance after withdrawal = %s, want 40", got)
	}

	if err := tv.WithdrawNative(owner, sdkmath.NewInt(41)); !errors.Is(err, model.ErrInvalidParameters) {
		t.Errorf("over-withdrawal error = %v, want InvalidParameters", err)
	}
	if err := tv.WithdrawToken(other, usdc, sdkmath.NewInt(1)); !errors.Is(err, model.ErrUnauthorizedAccount) {
		t.Errorf("non-owner withdrawal error = %v, want UnauthorizedAccount", err)
	}
}

func TestZeroAmountsAreNoOps(t *testing.T) {
	tv, err := New(owner, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	zero := sdkmath.ZeroInt()
	if err := tv.DepositNative(zero); err != nil {
		t.Errorf("zero native deposit: %v", err)
	}
	if err := tv.DepositToken(usdc, zero); err != nil {
		t.Errorf("zero token deposit: %v", err)
	}
	if err := tv.WithdrawNative(owner, zero); err != nil {
		t.Errorf("zero native withdrawal: %v", err)
	}
	if !tv.NativeBalance().IsZero() || !tv.TokenBalance(usdc).IsZero() {
		t.Error("zero amounts must not change balances")
	}
}

func TestNegativeAmountsRejected(t *testing.T) {
	tv, _ := New(owner, "")
	neg := sdkmath.NewInt(-1)
	if err := tv.DepositNative(neg); !errors.Is(err, model.ErrOverflow) {
		t.Errorf("negative native deposit error = %v, want Overflow", err)
	}
	if err := tv.WithdrawToken(owner, usdc, neg); !errors.Is(err, model.ErrOverflow) {
		t.Errorf("negative token withdrawal error = %v, want Overflow", err)
	}
}

func TestRefundToken(t *testing.T) {
	tv, err := New(owner, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tv.DepositToken(usdc, sdkmath.NewInt(42)); err != nil {
		t.Fatalf("DepositToken: %v", err)
	}
	if err := tv.RefundToken(usdc, sdkmath.NewInt(42)); err != nil {
		t.Fatalf("RefundToken: %v", err)
	}
	if got := tv.TokenBalance(usdc); !got.IsZero() {
		t.Errorf("token balance after refund = %s, want 0", got)
	}
	if err := tv.RefundToken(usdc, sdkmath.NewInt(1)); !errors.Is(err, model.ErrInvalidParameters) {
		t.Errorf("over-refund error = %v, want InvalidParameters", err)
	}
}

func TestFailedSaveRollsBackBalances(t *testing.T) {
	// The parent directory does not exist, so every save fails.
	tv, err := New(owner, filepath.Join(t.TempDir(), "missing", "treasury.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := tv.DepositNative(sdkmath.NewInt(100)); err == nil {
		t.Fatal("native deposit with unwritable state file must fail")
	}
	if got := tv.NativeBalance(); !got.IsZero() {
		t.Errorf("native balance after failed deposit = %s, want 0", got)
	}
	if err := tv.DepositToken(usdc, sdkmath.NewInt(42)); err == nil {
		t.Fatal("token deposit with unwritable state file must fail")
	}
	if got := tv.TokenBalance(usdc); !got.IsZero() {
		t.Errorf("token balance after failed deposit = %s, want 0", got)
	}
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treasury.json")

	tv, err := New(owner, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tv.DepositNative(sdkmath.NewInt(1_000)); err != nil {
		t.Fatalf("DepositNative: %v", err)
	}
	if err := tv.DepositToken(usdc, sdkmath.NewInt(77)); err != nil {
		t.Fatalf("DepositToken: %v", err)
	}

	reopened, err := New(owner, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.NativeBalance(); !got.Equal(sdkmath.NewInt(1_000)) {
		t.Errorf("restored native balance = %s, want 1000", got)
	}
	if got := reopened.TokenBalance(usdc); !got.Equal(sdkmath.NewInt(77)) {
		t.Errorf("restored token balance = %s, want 77", got)
	}
}
