package recorder

// NoopRecorder discards all records. Used when persistence is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordVaultCreated(*VaultCreatedEvent) error     { return nil }
func (n *NoopRecorder) RecordStrategyAction(*StrategyActionEvent) error { return nil }
func (n *NoopRecorder) Close() error                                    { return nil }
