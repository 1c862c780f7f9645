package config

import (
	"os"
	"path/filepath"
	"testing"

	"AutoVault/internal/model"
)

const sampleYAML = `
chain:
  rpc_url: "http://localhost:8545"
  main_token: "0x0000000000000000000000000000000000000c02"
protocol:
  admin_address: "0x0000000000000000000000000000000000000001"
  factory_address: "0x00000000000000000000000000000000000000f1"
  treasury_address: "0x00000000000000000000000000000000000000e1"
  worker_address: "0x0000000000000000000000000000000000000101"
  creator_fee_bps: 25
  treasury_fee_bps: 25
assets:
  - address: "0x0000000000000000000000000000000000000c01"
    risk: stable
    oracle: "0x0000000000000000000000000000000000000d01"
pairs:
  - token_a: "0x0000000000000000000000000000000000000c01"
    token_b: "0x0000000000000000000000000000000000000c02"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Protocol.CreationFeeWei != "100000000000000" {
		t.Errorf("creation fee default = %s", cfg.Protocol.CreationFeeWei)
	}
	if cfg.Protocol.MaxBuyAssets != 5 {
		t.Errorf("max buy assets default = %d", cfg.Protocol.MaxBuyAssets)
	}
	if cfg.Protocol.MaxSlippageBps != 200 {
		t.Errorf("max slippage default = %d", cfg.Protocol.MaxSlippageBps)
	}
	if cfg.Protocol.MaxExpectedGasUnits != 2_000_000 {
		t.Errorf("gas units default = %d", cfg.Protocol.MaxExpectedGasUnits)
	}
	if cfg.Schedule.ScanCron != "0 * * * * *" {
		t.Errorf("scan cron default = %s", cfg.Schedule.ScanCron)
	}
	if len(cfg.Assets) != 1 || len(cfg.Pairs) != 1 {
		t.Fatalf("assets/pairs = %d/%d, want 1/1", len(cfg.Assets), len(cfg.Pairs))
	}

	asset, err := cfg.Assets[0].Whitelisted()
	if err != nil {
		t.Fatalf("Whitelisted: %v", err)
	}
	if asset.Risk != model.RiskStable || !asset.Active {
		t.Errorf("asset = %+v", asset)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CRON_SCAN", "30 * * * * *")
	t.Setenv("SQLITE_PATH", "/tmp/override.db")
	t.Setenv("MAX_EXPECTED_GAS_UNITS", "3000000")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.ScanCron != "30 * * * * *" {
		t.Errorf("scan cron = %s", cfg.Schedule.ScanCron)
	}
	if cfg.Database.SQLitePath != "/tmp/override.db" {
		t.Errorf("sqlite path = %s", cfg.Database.SQLitePath)
	}
	if cfg.Protocol.MaxExpectedGasUnits != 3_000_000 {
		t.Errorf("gas units = %d", cfg.Protocol.MaxExpectedGasUnits)
	}
}

func TestValidateRejectsMissingAddresses(t *testing.T) {
	cfg, err := Load(writeConfig(t, "protocol:\n  creator_fee_bps: 25\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing addresses")
	}
}

func TestParseRisk(t *testing.T) {
	cases := map[string]model.RiskCategory{
		"stable":    model.RiskStable,
		"eth_btc":   model.RiskEthBtc,
		"BLUE_CHIP": model.RiskBlueChip,
	}
	for in, want := range cases {
		got, err := ParseRisk(in)
		if err != nil {
			t.Errorf("ParseRisk(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseRisk(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseRisk("degenerate"); err == nil {
		t.Error("expected error for unknown risk category")
	}
}
