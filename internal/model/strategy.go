package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// BuyFrequency is the configured cadence for periodic buy actions.
type BuyFrequency uint8

const (
	FrequencyDaily BuyFrequency = iota
	FrequencyWeekly
	FrequencyBiWeekly
	FrequencyMonthly
)

// frequencySeconds maps each cadence to a fixed second count.
// Monthly assumes an average of 30.44 days per month.
var frequencySeconds = map[BuyFrequency]int64{
	FrequencyDaily:    86_400,
	FrequencyWeekly:   604_800,
	FrequencyBiWeekly: 1_209_600,
	FrequencyMonthly:  2_630_016,
}

// Seconds returns the trigger interval for the frequency, or 0 if invalid.
func (f BuyFrequency) Seconds() int64 { return frequencySeconds[f] }

// Valid reports whether f is a known cadence.
func (f BuyFrequency) Valid() bool {
	_, ok := frequencySeconds[f]
	return ok
}

func (f BuyFrequency) String() string {
	switch f {
	case FrequencyDaily:
		return "DAILY"
	case FrequencyWeekly:
		return "WEEKLY"
	case FrequencyBiWeekly:
		return "BI_WEEKLY"
	case FrequencyMonthly:
		return "MONTHLY"
	}
	return "UNKNOWN"
}

// RiskCategory classifies a whitelisted deposit asset for safety-factor lookups.
type RiskCategory uint8

const (
	RiskStable RiskCategory = iota
	RiskEthBtc
	RiskBlueChip
)

// Valid reports whether c is a known category.
func (c RiskCategory) Valid() bool { return c <= RiskBlueChip }

func (c RiskCategory) String() string {
	switch c {
	case RiskStable:
		return "STABLE"
	case RiskEthBtc:
		return "ETH_BTC"
	case RiskBlueChip:
		return "BLUE_CHIP"
	}
	return "UNKNOWN"
}

// WhitelistedAsset is a deposit asset accepted by the protocol.
type WhitelistedAsset struct {
	Address common.Address
	Risk    RiskCategory
	Oracle  common.Address
	Active  bool
}

// VaultInitParams are the caller-supplied parameters for vault creation.
type VaultInitParams struct {
	Name         string
	Symbol       string
	DepositAsset common.Address
	BuyAssets    []common.Address
}

// StrategyParams configure the periodic buy strategy of a vault.
// BuyPercentagesBps must match BuyAssets in length; values are basis points.
type StrategyParams struct {
	BuyPercentagesBps []int64
	Frequency         BuyFrequency
	Worker            common.Address
}
