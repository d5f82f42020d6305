package state

import (
	"errors"
	"fmt"

	"github.com/textchain/blockchain/foundation/blockchain/database"
)

// ErrSystemTx is returned when a caller tries to submit a transaction
// carrying the reserved system sender.
var ErrSystemTx = errors.New("system transactions cannot be submitted")

// SubmitTransaction validates the transaction's signature and, if it
// passes, adds it to the mempool. A transaction that fails validation
// never touches shared state.
func (s *State) SubmitTransaction(tx database.Tx) error {
	s.evHandler("state: SubmitTransaction: validate tx[%s]", tx)

	// The system sender is minted by the miner only.
	if tx.IsReward() {
		return ErrSystemTx
	}

	if err := tx.Verify(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	n := s.mempool.Upsert(tx)
	s.evHandler("state: SubmitTransaction: added tx[%s]: pending[%d]", tx, n)

	return nil
}
