package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/config"
	"AutoVault/internal/controller"
	"AutoVault/internal/dex"
	"AutoVault/internal/executor"
	"AutoVault/internal/factory"
	"AutoVault/internal/gasprice"
	"AutoVault/internal/manager"
	"AutoVault/internal/pricefeed"
	"AutoVault/internal/recorder"
	"AutoVault/internal/treasury"
	"AutoVault/internal/worker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] AutoVault starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	admin := common.HexToAddress(cfg.Protocol.AdminAddress)
	workerAddr := common.HexToAddress(cfg.Protocol.WorkerAddress)

	// Init price feeds. The static consumer is seeded from config; a live
	// oracle can replace it behind the same interface.
	feeds := pricefeed.NewStaticConsumer(pricefeed.Price{Value: sdkmath.NewInt(1), Decimals: 0})

	// Init strategy manager with the configured whitelist
	mgr, err := manager.New(admin, feeds)
	if err != nil {
		log.Fatalf("[FATAL] init strategy manager: %v", err)
	}
	for _, ac := range cfg.Assets {
		asset, err := ac.Whitelisted()
		if err != nil {
			log.Fatalf("[FATAL] whitelist config: %v", err)
		}
		if err := mgr.AddWhitelistedAsset(admin, asset); err != nil {
			log.Fatalf("[FATAL] whitelist %s: %v", asset.Address, err)
		}
	}
	if cfg.Protocol.MaxExpectedGasUnits > 0 {
		if err := mgr.SetMaxExpectedGasUnits(admin, sdkmath.NewInt(cfg.Protocol.MaxExpectedGasUnits)); err != nil {
			log.Fatalf("[FATAL] set gas units: %v", err)
		}
	}

	// Init swap routing from the configured pair list
	pairs := dex.NewPairRegistry(common.HexToAddress(cfg.Chain.MainToken))
	for _, p := range cfg.Pairs {
		pairs.AddPair(common.HexToAddress(p.TokenA), common.HexToAddress(p.TokenB))
	}
	router := dex.NewSimRouter(pairs)

	// Init treasury
	treas, err := treasury.New(admin, cfg.Treasury.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] init treasury: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init factory
	creationFee, ok := sdkmath.NewIntFromString(cfg.Protocol.CreationFeeWei)
	if !ok {
		log.Fatalf("[FATAL] invalid creation fee: %s", cfg.Protocol.CreationFeeWei)
	}
	fac, err := factory.New(factory.Config{
		Address:        common.HexToAddress(cfg.Protocol.FactoryAddress),
		Treasury:       common.HexToAddress(cfg.Protocol.TreasuryAddress),
		CreationFee:    creationFee,
		MaxBuyAssets:   cfg.Protocol.MaxBuyAssets,
		CreatorFeeBps:  cfg.Protocol.CreatorFeeBps,
		TreasuryFeeBps: cfg.Protocol.TreasuryFeeBps,
	}, mgr, router, treas)
	if err != nil {
		log.Fatalf("[FATAL] init factory: %v", err)
	}

	// Init gas price source for deposit simulations
	if cfg.Chain.RPCURL != "" {
		gas := gasprice.NewRPCSource(cfg.Chain.RPCURL, cfg.Proxy)
		if price, err := gas.LatestGasPrice(context.Background()); err != nil {
			log.Printf("[WARN] initial gas price read: %v", err)
		} else {
			log.Printf("[INFO] gas price: %s wei", price)
		}
	}

	// Init worker and controller
	wrk, err := worker.New(worker.Config{
		Address:        workerAddr,
		Vaults:         fac,
		Router:         router,
		Treasury:       treas,
		Recorder:       rec,
		MaxSlippageBps: cfg.Protocol.MaxSlippageBps,
	})
	if err != nil {
		log.Fatalf("[FATAL] init worker: %v", err)
	}
	ctrl, err := controller.New(admin, wrk)
	if err != nil {
		log.Fatalf("[FATAL] init controller: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init executor
	exec := executor.New(ctx, executor.NewResolver(fac, workerAddr), ctrl, admin, fac, rec)
	if err := exec.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	exec.Start()
	defer exec.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing scan now")
		go exec.RunScanNow()
	}

	log.Println("[INFO] AutoVault is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] AutoVault stopped")
}
