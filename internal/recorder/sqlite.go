package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists protocol history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vaults_created (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			vault     TEXT NOT NULL,
			creator   TEXT NOT NULL,
			symbol    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vaults_ts ON vaults_created(timestamp)`,

		`CREATE TABLE IF NOT EXISTS strategy_actions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			vault        TEXT NOT NULL,
			depositor    TEXT NOT NULL,
			total_amount TEXT,
			treasury_fee TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_ts ON strategy_actions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_vault ON strategy_actions(vault)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordVaultCreated(evt *VaultCreatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(
		`INSERT INTO vaults_created (timestamp, vault, creator, symbol) VALUES (?, ?, ?, ?)`,
		evt.CreatedAt.Unix(), evt.Vault, evt.Creator, evt.Symbol,
	)
	if err != nil {
		return fmt.Errorf("record vault created: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordStrategyAction(evt *StrategyActionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(
		`INSERT INTO strategy_actions (timestamp, vault, depositor, total_amount, treasury_fee) VALUES (?, ?, ?, ?, ?)`,
		evt.ExecutedAt.Unix(), evt.Vault, evt.Depositor, evt.TotalAmount, evt.TreasuryFee,
	)
	if err != nil {
		return fmt.Errorf("record strategy action: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
