// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time `json:"date"`       // Fixed date stamped into block zero so every node agrees on it.
	ChainName  string    `json:"chain_name"` // A unique name for this running instance.
	Difficulty uint      `json:"difficulty"` // Number of leading zero hex characters required of a block hash.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
