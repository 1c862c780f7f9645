package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"AutoVault/internal/model"
)

// AssetConfig describes one whitelisted deposit asset.
type AssetConfig struct {
	Address string `yaml:"address"`
	Risk    string `yaml:"risk"` // stable | eth_btc | blue_chip
	Oracle  string `yaml:"oracle"`
}

// PairConfig describes one tradable pair on the exchange.
type PairConfig struct {
	TokenA string `yaml:"token_a"`
	TokenB string `yaml:"token_b"`
}

// Config holds all application configuration.
type Config struct {
	Chain struct {
		RPCURL    string `yaml:"rpc_url"`
		MainToken string `yaml:"main_token"`
	} `yaml:"chain"`
	Protocol struct {
		AdminAddress        string `yaml:"admin_address"`
		FactoryAddress      string `yaml:"factory_address"`
		TreasuryAddress     string `yaml:"treasury_address"`
		WorkerAddress       string `yaml:"worker_address"`
		CreationFeeWei      string `yaml:"creation_fee_wei"`
		CreatorFeeBps       int64  `yaml:"creator_fee_bps"`
		TreasuryFeeBps      int64  `yaml:"treasury_fee_bps"`
		MaxBuyAssets        int    `yaml:"max_buy_assets"`
		MaxSlippageBps      int64  `yaml:"max_slippage_bps"`
		MaxExpectedGasUnits int64  `yaml:"max_expected_gas_units"`
	} `yaml:"protocol"`
	Assets []AssetConfig `yaml:"assets"`
	Pairs  []PairConfig  `yaml:"pairs"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Treasury struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"treasury"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("ADMIN_ADDRESS"); v != "" {
		cfg.Protocol.AdminAddress = v
	}
	if v := os.Getenv("WORKER_ADDRESS"); v != "" {
		cfg.Protocol.WorkerAddress = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("MAX_EXPECTED_GAS_UNITS"); v != "" {
		if units, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Protocol.MaxExpectedGasUnits = units
		}
	}

	// Defaults
	if cfg.Protocol.CreationFeeWei == "" {
		cfg.Protocol.CreationFeeWei = "100000000000000"
	}
	if cfg.Protocol.CreatorFeeBps == 0 {
		cfg.Protocol.CreatorFeeBps = 25
	}
	if cfg.Protocol.TreasuryFeeBps == 0 {
		cfg.Protocol.TreasuryFeeBps = 25
	}
	if cfg.Protocol.MaxBuyAssets == 0 {
		cfg.Protocol.MaxBuyAssets = 5
	}
	if cfg.Protocol.MaxSlippageBps == 0 {
		cfg.Protocol.MaxSlippageBps = 200
	}
	if cfg.Protocol.MaxExpectedGasUnits == 0 {
		cfg.Protocol.MaxExpectedGasUnits = 2_000_000
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 * * * * *"
	}
	if cfg.Treasury.StateFile == "" {
		cfg.Treasury.StateFile = "data/treasury_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/autovault.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Protocol.AdminAddress) {
		return fmt.Errorf("protocol.admin_address is required")
	}
	if !common.IsHexAddress(c.Protocol.FactoryAddress) {
		return fmt.Errorf("protocol.factory_address is required")
	}
	if !common.IsHexAddress(c.Protocol.TreasuryAddress) {
		return fmt.Errorf("protocol.treasury_address is required")
	}
	if !common.IsHexAddress(c.Protocol.WorkerAddress) {
		return fmt.Errorf("protocol.worker_address is required")
	}
	if !common.IsHexAddress(c.Chain.MainToken) {
		return fmt.Errorf("chain.main_token is required")
	}
	if c.Protocol.CreatorFeeBps < 0 || c.Protocol.CreatorFeeBps > 10_000 {
		return fmt.Errorf("protocol.creator_fee_bps out of range: %d", c.Protocol.CreatorFeeBps)
	}
	if c.Protocol.TreasuryFeeBps <= 0 || c.Protocol.TreasuryFeeBps > 10_000 {
		return fmt.Errorf("protocol.treasury_fee_bps out of range: %d", c.Protocol.TreasuryFeeBps)
	}
	if c.Protocol.MaxSlippageBps < 0 || c.Protocol.MaxSlippageBps >= 10_000 {
		return fmt.Errorf("protocol.max_slippage_bps out of range: %d", c.Protocol.MaxSlippageBps)
	}
	for i, a := range c.Assets {
		if _, err := a.Whitelisted(); err != nil {
			return fmt.Errorf("assets[%d]: %w", i, err)
		}
	}
	return nil
}

// Whitelisted converts the entry to its model form.
func (a AssetConfig) Whitelisted() (model.WhitelistedAsset, error) {
	if !common.IsHexAddress(a.Address) {
		return model.WhitelistedAsset{}, fmt.Errorf("invalid asset address %q", a.Address)
	}
	risk, err := ParseRisk(a.Risk)
	if err != nil {
		return model.WhitelistedAsset{}, err
	}
	var oracle common.Address
	if a.Oracle != "" {
		if !common.IsHexAddress(a.Oracle) {
			return model.WhitelistedAsset{}, fmt.Errorf("invalid oracle address %q", a.Oracle)
		}
		oracle = common.HexToAddress(a.Oracle)
	}
	return model.WhitelistedAsset{
		Address: common.HexToAddress(a.Address),
		Risk:    risk,
		Oracle:  oracle,
		Active:  true,
	}, nil
}

// ParseRisk maps the config spelling of a risk category to its enum value.
func ParseRisk(s string) (model.RiskCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stable":
		return model.RiskStable, nil
	case "eth_btc":
		return model.RiskEthBtc, nil
	case "blue_chip":
		return model.RiskBlueChip, nil
	}
	return 0, fmt.Errorf("unknown risk category %q", s)
}
