package treasury

import (
	"encoding/json"
	"os"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// state is the on-disk snapshot of the treasury balances. Amounts are decimal
// strings so arbitrarily large values survive the round trip.
type state struct {
	Native    string            `json:"native"`
	Tokens    map[string]string `json:"tokens"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (s *state) nativeBalance() sdkmath.Int {
	if v, ok := sdkmath.NewIntFromString(s.Native); ok {
		return v
	}
	return sdkmath.ZeroInt()
}

func (s *state) tokenBalances() map[common.Address]sdkmath.Int {
	out := make(map[common.Address]sdkmath.Int, len(s.Tokens))
	for addr, raw := range s.Tokens {
		if v, ok := sdkmath.NewIntFromString(raw); ok {
			out[common.HexToAddress(addr)] = v
		}
	}
	return out
}

// loadState reads the treasury state from a JSON file. Returns a zero state
// if the path is empty or the file doesn't exist.
func loadState(filePath string) (*state, error) {
	if filePath == "" {
		return &state{Tokens: map[string]string{}}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &state{Tokens: map[string]string{}}, nil
		}
		return nil, err
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Tokens == nil {
		s.Tokens = map[string]string{}
	}
	return &s, nil
}

// save writes the current balances to disk. Caller holds the lock.
func (t *Vault) save() error {
	if t.filePath == "" {
		return nil
	}
	s := state{
		Native:    t.native.String(),
		Tokens:    make(map[string]string, len(t.tokens)),
		UpdatedAt: time.Now(),
	}
	for addr, bal := range t.tokens {
		s.Tokens[addr.Hex()] = bal.String()
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}
