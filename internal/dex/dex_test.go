package dex

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"AutoVault/internal/model"
)

var (
	usdcAddr = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	wethAddr = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	wbtcAddr = common.HexToAddress("0x0000000000000000000000000000000000000c03")
	daiAddr  = common.HexToAddress("0x0000000000000000000000000000000000000c04")
)

func newRegistry() *PairRegistry {
	r := NewPairRegistry(wethAddr)
	r.AddPair(usdcAddr, wethAddr)
	r.AddPair(wethAddr, wbtcAddr)
	return r
}

func TestBuildPath(t *testing.T) {
	r := newRegistry()

	direct, err := r.BuildPath(usdcAddr, wethAddr)
	require.NoError(t, err)
	require.Equal(t, []common.Address{usdcAddr, wethAddr}, direct)

	// No direct pair: route through the main token.
	hop, err := r.BuildPath(usdcAddr, wbtcAddr)
	require.NoError(t, err)
	require.Equal(t, []common.Address{usdcAddr, wethAddr, wbtcAddr}, hop)

	_, err = r.BuildPath(usdcAddr, daiAddr)
	require.ErrorIs(t, err, model.ErrSwapPathNotFound)

	_, err = r.BuildPath(usdcAddr, usdcAddr)
	require.ErrorIs(t, err, model.ErrSwapPathNotFound)
}

func TestSimRouterQuotesAlongPath(t *testing.T) {
	router := NewSimRouter(newRegistry())
	// 1 USDC = 0.5 WETH, 1 WETH = 0.1 WBTC.
	router.SetRate(usdcAddr, wethAddr, sdkmath.OneInt(), sdkmath.NewInt(2))
	router.SetRate(wethAddr, wbtcAddr, sdkmath.OneInt(), sdkmath.NewInt(10))

	out, err := router.AmountsOut(context.Background(), sdkmath.NewInt(1_000), usdcAddr, wethAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), out)

	// Two hops compound.
	out, err = router.AmountsOut(context.Background(), sdkmath.NewInt(1_000), usdcAddr, wbtcAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(50), out)

	require.True(t, router.PathExists(usdcAddr, wbtcAddr))
	require.False(t, router.PathExists(usdcAddr, daiAddr))
}

func TestSimRouterSwapHonorsMinOut(t *testing.T) {
	router := NewSimRouter(newRegistry())
	router.SetRate(usdcAddr, wethAddr, sdkmath.OneInt(), sdkmath.NewInt(2))

	out, err := router.SwapExactIn(context.Background(), sdkmath.NewInt(1_000), sdkmath.NewInt(500), usdcAddr, wethAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), out)

	_, err = router.SwapExactIn(context.Background(), sdkmath.NewInt(1_000), sdkmath.NewInt(501), usdcAddr, wethAddr)
	require.ErrorIs(t, err, model.ErrUpdateConditionsNotMet)
}

func TestAmountsOutRejectsNegativeInput(t *testing.T) {
	router := NewSimRouter(newRegistry())
	_, err := router.AmountsOut(context.Background(), sdkmath.NewInt(-1), usdcAddr, wethAddr)
	require.ErrorIs(t, err, model.ErrOverflow)
}
