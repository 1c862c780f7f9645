// Package factory creates and indexes vaults. It owns creation-time
// validation, collects the native creation fee and is the only caller allowed
// to instantiate a vault.
package factory

import (
	"fmt"
	"log"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"AutoVault/internal/dex"
	"AutoVault/internal/model"
	"AutoVault/internal/pmath"
	"AutoVault/internal/treasury"
	"AutoVault/internal/vault"
)

// StrategyConfig is the protocol configuration the factory validates against.
// The strategy manager implements it.
type StrategyConfig interface {
	vault.StrategyGuard
	IsAcceptableAsset(assetID common.Address) bool
}

// VaultCreated is emitted exactly once per successful creation.
type VaultCreated struct {
	Vault   common.Address
	Creator common.Address
}

// Config fixes the factory's identity and fee schedule.
type Config struct {
	Address        common.Address
	Treasury       common.Address
	CreationFee    sdkmath.Int
	MaxBuyAssets   int
	CreatorFeeBps  int64
	TreasuryFeeBps int64
}

// Factory creates vaults and serves the protocol-wide vault indexes.
type Factory struct {
	mu  sync.Mutex
	cfg Config

	strategyCfg StrategyConfig
	router      dex.Router
	treasury    *treasury.Vault

	vaults    []*vault.Vault
	byAddress map[common.Address]*vault.Vault
	byWorker  map[common.Address][]*vault.Vault
	byUser    map[common.Address][]*vault.Vault

	events chan VaultCreated
}

func New(cfg Config, strategyCfg StrategyConfig, router dex.Router, treas *treasury.Vault) (*Factory, error) {
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero factory address", model.ErrInvalidParameters)
	}
	if cfg.CreationFee.IsNil() || cfg.CreationFee.IsNegative() {
		return nil, fmt.Errorf("%w: negative creation fee", model.ErrInvalidParameters)
	}
	if cfg.MaxBuyAssets <= 0 {
		return nil, fmt.Errorf("%w: max buy assets must be positive", model.ErrInvalidParameters)
	}
	if strategyCfg == nil || router == nil || treas == nil {
		return nil, fmt.Errorf("%w: nil collaborator", model.ErrInvalidParameters)
	}
	return &Factory{
		cfg:         cfg,
		strategyCfg: strategyCfg,
		router:      router,
		treasury:    treas,
		byAddress:   make(map[common.Address]*vault.Vault),
		byWorker:    make(map[common.Address][]*vault.Vault),
		byUser:      make(map[common.Address][]*vault.Vault),
		events:      make(chan VaultCreated, 128),
	}, nil
}

// Events returns the creation event stream. Events are dropped, with a log
// line, if no consumer keeps up.
func (f *Factory) Events() <-chan VaultCreated { return f.events }

// CreateVault validates the creation input, collects the creation fee and
// instantiates a new vault under the caller.
func (f *Factory) CreateVault(
	caller common.Address,
	init model.VaultInitParams,
	strat model.StrategyParams,
	feePaid sdkmath.Int,
) (*vault.Vault, error) {
	if err := f.validateCreation(caller, init, strat, feePaid); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	addr := f.deriveVaultAddress(caller, len(f.vaults))
	v, err := vault.New(f.cfg.Address, vault.Params{
		Address:        addr,
		Name:           init.Name,
		Symbol:         init.Symbol,
		Treasury:       f.cfg.Treasury,
		Creator:        caller,
		Factory:        f.cfg.Address,
		DepositAsset:   init.DepositAsset,
		BuyAssets:      init.BuyAssets,
		CreatorFeeBps:  f.cfg.CreatorFeeBps,
		TreasuryFeeBps: f.cfg.TreasuryFeeBps,
		Strategy:       strat,
	}, f.strategyCfg)
	if err != nil {
		return nil, err
	}

	if err := f.treasury.DepositNative(feePaid); err != nil {
		return nil, fmt.Errorf("route creation fee: %w", err)
	}

	f.vaults = append(f.vaults, v)
	f.byAddress[addr] = v
	f.byWorker[strat.Worker] = append(f.byWorker[strat.Worker], v)
	f.byUser[caller] = append(f.byUser[caller], v)

	select {
	case f.events <- VaultCreated{Vault: addr, Creator: caller}:
	default:
		log.Printf("[WARN] factory: event buffer full, dropping VaultCreated for %s", addr)
	}
	log.Printf("[INFO] factory: created vault %s (%s) for %s", addr, init.Symbol, caller)
	return v, nil
}

func (f *Factory) validateCreation(
	caller common.Address,
	init model.VaultInitParams,
	strat model.StrategyParams,
	feePaid sdkmath.Int,
) error {
	if feePaid.IsNil() || feePaid.LT(f.cfg.CreationFee) {
		return fmt.Errorf("%w: creation fee %s below required %s", model.ErrInvalidParameters, feePaid, f.cfg.CreationFee)
	}
	if caller == (common.Address{}) {
		return fmt.Errorf("%w: zero creator address", model.ErrInvalidParameters)
	}
	if init.DepositAsset == (common.Address{}) {
		return fmt.Errorf("%w: zero deposit asset", model.ErrInvalidParameters)
	}
	if len(init.BuyAssets) == 0 {
		return fmt.Errorf("%w: no buy assets", model.ErrInvalidParameters)
	}
	if len(init.BuyAssets) > f.cfg.MaxBuyAssets {
		return fmt.Errorf("%w: %d buy assets exceeds maximum %d", model.ErrInvalidParameters, len(init.BuyAssets), f.cfg.MaxBuyAssets)
	}
	if len(strat.BuyPercentagesBps) != len(init.BuyAssets) {
		return fmt.Errorf("%w: %d percentages for %d buy assets", model.ErrInvalidParameters, len(strat.BuyPercentagesBps), len(init.BuyAssets))
	}

	for _, asset := range init.BuyAssets {
		if asset == init.DepositAsset {
			return fmt.Errorf("%w: buy asset equals deposit asset %s", model.ErrInvalidParameters, asset)
		}
		if asset == (common.Address{}) {
			return fmt.Errorf("%w: zero buy asset", model.ErrSwapPathNotFound)
		}
	}

	var sum, minPct int64
	for _, pct := range strat.BuyPercentagesBps {
		if pct < 0 {
			return fmt.Errorf("%w: negative buy percentage %d", model.ErrOverflow, pct)
		}
		if pct == 0 || pct > pmath.PercentageFactor {
			return fmt.Errorf("%w: buy percentage %d out of (0, %d]", model.ErrInvalidParameters, pct, pmath.PercentageFactor)
		}
		sum += pct
		if minPct == 0 || pct < minPct {
			minPct = pct
		}
	}
	if sum > pmath.PercentageFactor {
		return fmt.Errorf("%w: buy percentages sum %d exceeds %d", model.ErrInvalidParameters, sum, pmath.PercentageFactor)
	}

	if !strat.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %d", model.ErrInvalidParameters, strat.Frequency)
	}
	if strat.Worker == (common.Address{}) {
		return fmt.Errorf("%w: zero worker address", model.ErrInvalidParameters)
	}

	if !f.strategyCfg.IsAcceptableAsset(init.DepositAsset) {
		return fmt.Errorf("%w: deposit asset %s not whitelisted", model.ErrInvalidParameters, init.DepositAsset)
	}
	for _, asset := range init.BuyAssets {
		if !f.router.PathExists(init.DepositAsset, asset) {
			return fmt.Errorf("%w: %s -> %s", model.ErrSwapPathNotFound, init.DepositAsset, asset)
		}
	}

	// The smallest percentage implies the longest schedule a single deposit
	// can stretch over.
	implied := (pmath.PercentageFactor + minPct - 1) / minPct
	if limit := f.strategyCfg.MaxNumberOfActionsPerFrequency(strat.Frequency); implied > limit {
		return fmt.Errorf("%w: implied %d actions exceeds limit %d for %s",
			model.ErrInvalidParameters, implied, limit, strat.Frequency)
	}
	return nil
}

// deriveVaultAddress synthesizes a deterministic vault identity from the
// factory, the creator and the creation ordinal.
func (f *Factory) deriveVaultAddress(creator common.Address, ordinal int) common.Address {
	buf := make([]byte, 0, 2*common.AddressLength+8)
	buf = append(buf, f.cfg.Address.Bytes()...)
	buf = append(buf, creator.Bytes()...)
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(ordinal>>(8*(7-i))))
	}
	return common.BytesToAddress(crypto.Keccak256(buf)[12:])
}

// Deposit routes a deposit into the vault at vaultAddr, enforcing that its
// deposit asset is still whitelisted and active, and indexes caller as one of
// the vault's users.
func (f *Factory) Deposit(vaultAddr, caller common.Address, amount sdkmath.Int) error {
	v, err := f.GetVault(vaultAddr)
	if err != nil {
		return err
	}
	if !f.strategyCfg.IsAcceptableAsset(v.DepositAsset()) {
		return fmt.Errorf("%w: deposit asset %s no longer accepted", model.ErrInvalidParameters, v.DepositAsset())
	}
	if err := v.Deposit(caller, amount); err != nil {
		return err
	}
	if amount.IsPositive() {
		f.indexUser(caller, v)
	}
	return nil
}

func (f *Factory) indexUser(user common.Address, v *vault.Vault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byUser[user] {
		if existing == v {
			return
		}
	}
	f.byUser[user] = append(f.byUser[user], v)
}

// VaultCount returns the number of vaults ever created.
func (f *Factory) VaultCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.vaults)
}

// GetVault returns the vault at addr.
func (f *Factory) GetVault(addr common.Address) (*vault.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byAddress[addr]
	if !ok {
		return nil, fmt.Errorf("%w: unknown vault %s", model.ErrInvalidParameters, addr)
	}
	return v, nil
}

// GetBatchVaults returns up to limit vaults in creation order starting at
// index startAfter. An out-of-range start fails; an over-long limit
// truncates.
func (f *Factory) GetBatchVaults(limit, startAfter int) ([]*vault.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi, err := model.BatchRange(len(f.vaults), limit, startAfter)
	if err != nil {
		return nil, err
	}
	out := make([]*vault.Vault, hi-lo)
	copy(out, f.vaults[lo:hi])
	return out, nil
}

// GetUserVaults returns the vaults user created or deposited into.
func (f *Factory) GetUserVaults(user common.Address) []*vault.Vault {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*vault.Vault, len(f.byUser[user]))
	copy(out, f.byUser[user])
	return out
}

// GetAllVaultsPerStrategyWorker returns the vaults assigned to worker.
func (f *Factory) GetAllVaultsPerStrategyWorker(worker common.Address) []*vault.Vault {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*vault.Vault, len(f.byWorker[worker]))
	copy(out, f.byWorker[worker])
	return out
}
