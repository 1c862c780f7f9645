package factory

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"AutoVault/internal/dex"
	"AutoVault/internal/manager"
	"AutoVault/internal/model"
	"AutoVault/internal/pricefeed"
	"AutoVault/internal/treasury"
)

var (
	ownerAddr    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	factoryAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	treasuryAddr = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	workerAddr   = common.HexToAddress("0x0000000000000000000000000000000000000101")
	creatorAddr  = common.HexToAddress("0x0000000000000000000000000000000000000aa1")
	wallet2Addr  = common.HexToAddress("0x0000000000000000000000000000000000000aa2")
	usdcAddr     = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	wethAddr     = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	wbtcAddr     = common.HexToAddress("0x0000000000000000000000000000000000000c03")
	oracleAddr   = common.HexToAddress("0x0000000000000000000000000000000000000d01")
)

var creationFee = sdkmath.NewInt(100_000_000_000_000)

func newTestFactory(t *testing.T) (*Factory, *manager.Manager, *treasury.Vault) {
	t.Helper()

	feeds := pricefeed.NewStaticConsumer(pricefeed.Price{Value: sdkmath.NewInt(2_000_00000000), Decimals: 8})
	m, err := manager.New(ownerAddr, feeds)
	require.NoError(t, err)
	require.NoError(t, m.AddWhitelistedAsset(ownerAddr, model.WhitelistedAsset{
		Address: usdcAddr, Risk: model.RiskStable, Oracle: oracleAddr,
	}))

	pairs := dex.NewPairRegistry(wethAddr)
	pairs.AddPair(usdcAddr, wethAddr)
	pairs.AddPair(wethAddr, wbtcAddr)
	router := dex.NewSimRouter(pairs)

	treas, err := treasury.New(ownerAddr, "")
	require.NoError(t, err)

	f, err := New(Config{
		Address:        factoryAddr,
		Treasury:       treasuryAddr,
		CreationFee:    creationFee,
		MaxBuyAssets:   5,
		CreatorFeeBps:  25,
		TreasuryFeeBps: 25,
	}, m, router, treas)
	require.NoError(t, err)
	return f, m, treas
}

func validInit() model.VaultInitParams {
	return model.VaultInitParams{
		Name:         "weth vault",
		Symbol:       "WETH-DCA",
		DepositAsset: usdcAddr,
		BuyAssets:    []common.Address{wethAddr},
	}
}

func validStrategy() model.StrategyParams {
	return model.StrategyParams{
		BuyPercentagesBps: []int64{8_330},
		Frequency:         model.FrequencyWeekly,
		Worker:            workerAddr,
	}
}

func TestCreateVault(t *testing.T) {
	f, _, treas := newTestFactory(t)

	v, err := f.CreateVault(creatorAddr, validInit(), validStrategy(), creationFee)
	require.NoError(t, err)
	require.Equal(t, 1, f.VaultCount())
	require.Equal(t, creationFee, treas.NativeBalance())

	params := v.GetInitMultiAssetVaultParams()
	require.Equal(t, "weth vault", params.Name)
	require.Equal(t, creatorAddr, params.Creator)
	require.Equal(t, factoryAddr, params.Factory)
	require.Equal(t, treasuryAddr, params.Treasury)
	require.Equal(t, int64(25), params.CreatorFeeBps)
	require.False(t, params.IsActive)

	got, err := f.GetVault(v.Address())
	require.NoError(t, err)
	require.Same(t, v, got)
	workerVaults := f.GetAllVaultsPerStrategyWorker(workerAddr)
	require.Len(t, workerVaults, 1)
	require.Same(t, v, workerVaults[0])
	require.Len(t, f.GetUserVaults(creatorAddr), 1)

	select {
	case ev := <-f.Events():
		require.Equal(t, v.Address(), ev.Vault)
		require.Equal(t, creatorAddr, ev.Creator)
	default:
		t.Fatal("expected a VaultCreated event")
	}
}

func TestCreateVaultValidation(t *testing.T) {
	f, _, _ := newTestFactory(t)

	cases := []struct {
		name    string
		mutate  func(*model.VaultInitParams, *model.StrategyParams, *sdkmath.Int)
		wantErr error
	}{
		{"insufficient fee", func(_ *model.VaultInitParams, _ *model.StrategyParams, fee *sdkmath.Int) {
			*fee = creationFee.Sub(sdkmath.OneInt())
		}, model.ErrInvalidParameters},
		{"zero deposit asset", func(init *model.VaultInitParams, _ *model.StrategyParams, _ *sdkmath.Int) {
			init.DepositAsset = common.Address{}
		}, model.ErrInvalidParameters},
		{"no buy assets", func(init *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			init.BuyAssets = nil
			strat.BuyPercentagesBps = nil
		}, model.ErrInvalidParameters},
		{"too many buy assets", func(init *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			init.BuyAssets = make([]common.Address, 6)
			strat.BuyPercentagesBps = []int64{1, 1, 1, 1, 1, 1}
			for i := range init.BuyAssets {
				init.BuyAssets[i] = common.BigToAddress(sdkmath.NewInt(int64(i + 0x1000)).BigInt())
			}
		}, model.ErrInvalidParameters},
		{"length mismatch", func(_ *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			strat.BuyPercentagesBps = []int64{5_000, 3_000}
		}, model.ErrInvalidParameters},
		{"buy asset equals deposit asset", func(init *model.VaultInitParams, _ *model.StrategyParams, _ *sdkmath.Int) {
			init.BuyAssets = []common.Address{usdcAddr}
		}, model.ErrInvalidParameters},
		{"zero buy asset", func(init *model.VaultInitParams, _ *model.StrategyParams, _ *sdkmath.Int) {
			init.BuyAssets = []common.Address{{}}
		}, model.ErrSwapPathNotFound},
		{"zero percentage", func(_ *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			strat.BuyPercentagesBps = []int64{0}
		}, model.ErrInvalidParameters},
		{"negative percentage", func(_ *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			strat.BuyPercentagesBps = []int64{-1}
		}, model.ErrOverflow},
		{"percentage above scale", func(_ *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			strat.BuyPercentagesBps = []int64{10_001}
		}, model.ErrInvalidParameters},
		{"sum above scale", func(init *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			init.BuyAssets = []common.Address{wethAddr, wbtcAddr}
			strat.BuyPercentagesBps = []int64{6_000, 6_000}
		}, model.ErrInvalidParameters},
		{"unknown frequency", func(_ *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			strat.Frequency = model.BuyFrequency(9)
		}, model.ErrInvalidParameters},
		{"zero worker", func(_ *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			strat.Worker = common.Address{}
		}, model.ErrInvalidParameters},
		{"deposit asset not whitelisted", func(init *model.VaultInitParams, _ *model.StrategyParams, _ *sdkmath.Int) {
			init.DepositAsset = wbtcAddr
		}, model.ErrInvalidParameters},
		{"action bound exceeded", func(_ *model.VaultInitParams, strat *model.StrategyParams, _ *sdkmath.Int) {
			strat.BuyPercentagesBps = []int64{1} // implies 10000 actions
		}, model.ErrInvalidParameters},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			init, strat, fee := validInit(), validStrategy(), creationFee
			tc.mutate(&init, &strat, &fee)
			_, err := f.CreateVault(creatorAddr, init, strat, fee)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
	require.Equal(t, 0, f.VaultCount(), "failed creations must not register vaults")
}

func TestCreateVaultMissingSwapPath(t *testing.T) {
	f, _, _ := newTestFactory(t)

	init := validInit()
	// No pair reaches this asset, not even through the main token.
	orphan := common.HexToAddress("0x0000000000000000000000000000000000000c09")
	init.BuyAssets = []common.Address{orphan}

	_, err := f.CreateVault(creatorAddr, init, validStrategy(), creationFee)
	require.ErrorIs(t, err, model.ErrSwapPathNotFound)
}

func TestGetBatchVaults(t *testing.T) {
	f, _, _ := newTestFactory(t)

	// Empty index: a no-op regardless of bounds.
	batch, err := f.GetBatchVaults(3, 0)
	require.NoError(t, err)
	require.Empty(t, batch)

	_, err = f.CreateVault(creatorAddr, validInit(), validStrategy(), creationFee)
	require.NoError(t, err)
	init := validInit()
	init.Symbol = "WBTC-DCA"
	init.BuyAssets = []common.Address{wbtcAddr}
	_, err = f.CreateVault(wallet2Addr, init, validStrategy(), creationFee)
	require.NoError(t, err)

	all, err := f.GetBatchVaults(2, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	truncated, err := f.GetBatchVaults(3, 1)
	require.NoError(t, err)
	require.Len(t, truncated, 1)

	_, err = f.GetBatchVaults(1, 2)
	require.ErrorIs(t, err, model.ErrStartAfterOutOfRange)
}

func TestFactoryDeposit(t *testing.T) {
	f, m, _ := newTestFactory(t)

	v, err := f.CreateVault(creatorAddr, validInit(), validStrategy(), creationFee)
	require.NoError(t, err)

	require.NoError(t, f.Deposit(v.Address(), wallet2Addr, sdkmath.NewInt(20_000)))
	require.Len(t, f.GetUserVaults(wallet2Addr), 1)
	require.Equal(t, sdkmath.NewInt(20_000), v.TotalAssets())

	// Deactivating the deposit asset blocks further deposits.
	require.NoError(t, m.DeactivateWhitelistedAsset(ownerAddr, usdcAddr))
	err = f.Deposit(v.Address(), wallet2Addr, sdkmath.NewInt(1_000))
	require.ErrorIs(t, err, model.ErrInvalidParameters)

	// Unknown vault address.
	err = f.Deposit(wbtcAddr, wallet2Addr, sdkmath.NewInt(1))
	require.ErrorIs(t, err, model.ErrInvalidParameters)
}
