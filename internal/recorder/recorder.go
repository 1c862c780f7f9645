package recorder

import "time"

// VaultCreatedEvent records one successful vault creation.
type VaultCreatedEvent struct {
	Vault     string
	Creator   string
	Symbol    string
	CreatedAt time.Time
}

// StrategyActionEvent records one executed periodic buy action. Amounts are
// decimal strings in deposit-asset units.
type StrategyActionEvent struct {
	Vault       string
	Depositor   string
	TotalAmount string
	TreasuryFee string
	ExecutedAt  time.Time
}

// Recorder persists protocol history for analysis.
type Recorder interface {
	RecordVaultCreated(evt *VaultCreatedEvent) error
	RecordStrategyAction(evt *StrategyActionEvent) error
	Close() error
}
