// Package worker executes periodic buy actions: it plans the ledger movement,
// routes the treasury fee, performs the swaps with a slippage bound and
// commits the share burn.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/dex"
	"AutoVault/internal/model"
	"AutoVault/internal/pmath"
	"AutoVault/internal/recorder"
	"AutoVault/internal/treasury"
	"AutoVault/internal/vault"
)

// Clock supplies the execution timestamp. Tests inject a fake.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// VaultSource resolves vault addresses. The factory implements it.
type VaultSource interface {
	GetVault(addr common.Address) (*vault.Vault, error)
}

// Worker is the strategy executor for the vaults assigned to its address.
type Worker struct {
	addr           common.Address
	vaults         VaultSource
	router         dex.Router
	treasury       *treasury.Vault
	rec            recorder.Recorder
	clock          Clock
	maxSlippageBps int64

	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex
}

type lockKey struct {
	vault     common.Address
	depositor common.Address
}

// Config wires a worker's collaborators.
type Config struct {
	Address        common.Address
	Vaults         VaultSource
	Router         dex.Router
	Treasury       *treasury.Vault
	Recorder       recorder.Recorder
	Clock          Clock
	MaxSlippageBps int64
}

func New(cfg Config) (*Worker, error) {
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero worker address", model.ErrInvalidParameters)
	}
	if cfg.Vaults == nil || cfg.Router == nil || cfg.Treasury == nil {
		return nil, fmt.Errorf("%w: nil collaborator", model.ErrInvalidParameters)
	}
	if cfg.MaxSlippageBps < 0 || cfg.MaxSlippageBps >= pmath.PercentageFactor {
		return nil, fmt.Errorf("%w: slippage %d bps out of range", model.ErrInvalidParameters, cfg.MaxSlippageBps)
	}
	if cfg.Recorder == nil {
		cfg.Recorder = recorder.NewNoopRecorder()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	return &Worker{
		addr:           cfg.Address,
		vaults:         cfg.Vaults,
		router:         cfg.Router,
		treasury:       cfg.Treasury,
		rec:            cfg.Recorder,
		clock:          cfg.Clock,
		maxSlippageBps: cfg.MaxSlippageBps,
		locks:          make(map[lockKey]*sync.Mutex),
	}, nil
}

// Address returns the worker identity vaults are configured with.
func (w *Worker) Address() common.Address { return w.addr }

// pairLock serializes triggers per (vault, depositor) so racing callers
// cannot double-execute an action between plan and commit.
func (w *Worker) pairLock(v, d common.Address) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := lockKey{vault: v, depositor: d}
	l, ok := w.locks[key]
	if !ok {
		l = &sync.Mutex{}
		w.locks[key] = l
	}
	return l
}

// TriggerStrategyAction runs one periodic action for depositorAddr in the
// vault at vaultAddr. The treasury fee is routed first, then the swaps
// resolve, then the ledger commits; a failure at any step unwinds the fee
// and leaves the vault untouched.
func (w *Worker) TriggerStrategyAction(ctx context.Context, vaultAddr, depositorAddr common.Address) error {
	v, err := w.vaults.GetVault(vaultAddr)
	if err != nil {
		return err
	}
	if v.Worker() != w.addr {
		return fmt.Errorf("%w: vault %s is not assigned to this worker", model.ErrForbidden, vaultAddr)
	}

	l := w.pairLock(vaultAddr, depositorAddr)
	l.Lock()
	defer l.Unlock()

	now := w.clock.Now()
	plan, err := v.PlanStrategyAction(w.addr, depositorAddr, now.Unix())
	if err != nil {
		return err
	}

	depositAsset := v.DepositAsset()
	buyAssets := v.BuyAssetAddresses()
	feeBps := v.TreasuryFeeBps()

	// Fees come off every buy amount up front; only the remainder is swapped.
	fees := make([]sdkmath.Int, len(plan.BuyAmounts))
	totalFee := sdkmath.ZeroInt()
	for i, buyAmount := range plan.BuyAmounts {
		fees[i] = sdkmath.ZeroInt()
		if !buyAmount.IsPositive() {
			continue
		}
		fee, err := pmath.PercentageMul(buyAmount, feeBps)
		if err != nil {
			return err
		}
		fees[i] = fee
		totalFee = totalFee.Add(fee)
	}

	// The summed fee is routed before the swaps; any later failure hands it
	// back so the action applies fully or not at all.
	if err := w.treasury.DepositToken(depositAsset, totalFee); err != nil {
		return fmt.Errorf("route treasury fee: %w", err)
	}
	unwindFee := func() {
		if err := w.treasury.RefundToken(depositAsset, totalFee); err != nil {
			log.Printf("[ERROR] worker: refund treasury fee %s: %v", totalFee, err)
		}
	}

	for i, buyAmount := range plan.BuyAmounts {
		swapAmount := buyAmount.Sub(fees[i])
		if !swapAmount.IsPositive() {
			continue
		}
		quote, err := w.router.AmountsOut(ctx, swapAmount, depositAsset, buyAssets[i])
		if err != nil {
			unwindFee()
			return fmt.Errorf("quote %s -> %s: %w", depositAsset, buyAssets[i], err)
		}
		minOut, err := pmath.PercentageMul(quote, pmath.PercentageFactor-w.maxSlippageBps)
		if err != nil {
			unwindFee()
			return err
		}
		if _, err := w.router.SwapExactIn(ctx, swapAmount, minOut, depositAsset, buyAssets[i]); err != nil {
			unwindFee()
			return fmt.Errorf("swap %s -> %s: %w", depositAsset, buyAssets[i], err)
		}
	}

	// Re-validates under the vault lock; the pair lock above guarantees no
	// competing trigger slipped in since the plan.
	committed, err := v.CommitStrategyAction(w.addr, depositorAddr, now.Unix())
	if err != nil {
		unwindFee()
		return fmt.Errorf("commit strategy action: %w", err)
	}

	if err := w.rec.RecordStrategyAction(&recorder.StrategyActionEvent{
		Vault:       vaultAddr.Hex(),
		Depositor:   depositorAddr.Hex(),
		TotalAmount: committed.TotalAmount.String(),
		TreasuryFee: totalFee.String(),
		ExecutedAt:  now,
	}); err != nil {
		log.Printf("[WARN] worker: record strategy action: %v", err)
	}

	log.Printf("[INFO] worker: executed action for %s in vault %s (amount=%s fee=%s)",
		depositorAddr, vaultAddr, committed.TotalAmount, totalFee)
	return nil
}
