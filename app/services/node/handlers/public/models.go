package public

import (
	"github.com/textchain/blockchain/business/web/validate"
	"github.com/textchain/blockchain/foundation/blockchain/database"
)

// newTx is the payload for submitting an already signed transaction.
// Keys and signatures are lowercase unprefixed hex.
type newTx struct {
	Sender    string `json:"sender" validate:"required,hexadecimal,len=128"`
	Recipient string `json:"recipient" validate:"required,hexadecimal,len=128"`
	Message   string `json:"message" validate:"required"`
	Signature string `json:"signature" validate:"required,hexadecimal,len=128"`
}

// Validate checks the payload against its declared tags.
func (t newTx) Validate() error {
	return validate.Check(t)
}

// newTxWithKey is the original demo payload where the caller hands over
// its private key and the node signs on its behalf. Only honored when
// dev signing is enabled.
type newTxWithKey struct {
	Sender     string `json:"sender" validate:"required,hexadecimal,len=128"`
	Recipient  string `json:"recipient" validate:"required,hexadecimal,len=128"`
	Message    string `json:"message" validate:"required"`
	PrivateKey string `json:"private_key" validate:"required,hexadecimal,len=64"`
}

// Validate checks the payload against its declared tags.
func (t newTxWithKey) Validate() error {
	return validate.Check(t)
}

// mineRequest is the payload for mining the next block.
type mineRequest struct {
	MinerAddress string `json:"miner_address" validate:"required,hexadecimal,len=128"`
}

// Validate checks the payload against its declared tags.
func (m mineRequest) Validate() error {
	return validate.Check(m)
}

// =============================================================================

// chainInfo is the response for the full chain query.
type chainInfo struct {
	Length int              `json:"length"`
	Chain  []database.Block `json:"chain"`
	Valid  bool             `json:"valid"`
}

// txInfo is the response for an accepted transaction.
type txInfo struct {
	Status      string      `json:"status"`
	Transaction database.Tx `json:"transaction"`
}

// blockInfo is the response for a mined block.
type blockInfo struct {
	Status string         `json:"status"`
	Block  database.Block `json:"block"`
}

// validInfo is the response for the explicit chain consistency check.
type validInfo struct {
	Valid bool `json:"valid"`
}
