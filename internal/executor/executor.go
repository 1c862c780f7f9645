package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"

	"AutoVault/internal/controller"
	"AutoVault/internal/factory"
	"AutoVault/internal/recorder"
)

// Executor drives the protocol off-ledger: it drains factory creation events
// into the recorder and fires eligible periodic actions through the
// controller on a cron cadence.
type Executor struct {
	cron       *cron.Cron
	resolver   *Resolver
	controller *controller.Controller
	caller     common.Address
	factory    *factory.Factory
	rec        recorder.Recorder
	ctx        context.Context
}

func New(ctx context.Context, r *Resolver, c *controller.Controller, caller common.Address, f *factory.Factory, rec recorder.Recorder) *Executor {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Executor{
		cron:       cron.New(cron.WithSeconds()),
		resolver:   r,
		controller: c,
		caller:     caller,
		factory:    f,
		rec:        rec,
		ctx:        ctx,
	}
}

// Register installs the scan task at scanCron and the event drain.
func (e *Executor) Register(scanCron string) error {
	if _, err := e.cron.AddFunc(scanCron, e.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	// Drain creation events every 10 seconds.
	if _, err := e.cron.AddFunc("*/10 * * * * *", e.drainEvents); err != nil {
		return fmt.Errorf("register event drain: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (e *Executor) Start() {
	e.cron.Start()
	log.Println("[INFO] executor started")
}

// Stop stops the cron loop gracefully.
func (e *Executor) Stop() {
	e.cron.Stop()
	log.Println("[INFO] executor stopped")
}

// RunScanNow executes the scan task immediately (for manual trigger).
func (e *Executor) RunScanNow() {
	e.scanTask()
}

func (e *Executor) scanTask() {
	now := time.Now()
	payloads := e.resolver.CheckAll(now)
	if len(payloads) == 0 {
		return
	}
	log.Printf("[INFO] executor: %d eligible actions", len(payloads))
	for _, p := range payloads {
		if err := e.controller.TriggerStrategyAction(e.ctx, e.caller, p.Vault, p.Depositor); err != nil {
			log.Printf("[ERROR] executor: trigger %s/%s: %v", p.Vault, p.Depositor, err)
		}
	}
}

func (e *Executor) drainEvents() {
	for {
		select {
		case ev := <-e.factory.Events():
			v, err := e.factory.GetVault(ev.Vault)
			if err != nil {
				log.Printf("[ERROR] executor: resolve created vault %s: %v", ev.Vault, err)
				continue
			}
			params := v.GetInitMultiAssetVaultParams()
			if err := e.rec.RecordVaultCreated(&recorder.VaultCreatedEvent{
				Vault:     ev.Vault.Hex(),
				Creator:   ev.Creator.Hex(),
				Symbol:    params.Symbol,
				CreatedAt: time.Now(),
			}); err != nil {
				log.Printf("[WARN] executor: record vault created: %v", err)
			}
			log.Printf("[INFO] executor: tracking new vault %s (%s)", ev.Vault, params.Symbol)
		default:
			return
		}
	}
}
