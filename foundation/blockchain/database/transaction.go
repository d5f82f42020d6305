package database

import (
	"errors"
	"fmt"

	"github.com/textchain/blockchain/foundation/blockchain/digest"
	"github.com/textchain/blockchain/foundation/blockchain/signature"
)

// SystemSender is the sentinel sender used for block reward transactions.
// Reward transactions are minted by the node itself, no wallet signs them.
const SystemSender = "SYSTEM"

// =============================================================================

// Tx is a signed statement that a sender sends a text message to a
// recipient. A transaction has no identity beyond its content.
type Tx struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	Signature string `json:"signature,omitempty"`
}

// NewTx constructs an unsigned transaction.
func NewTx(sender string, recipient string, message string) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Message:   message,
	}
}

// NewRewardTx constructs the reward transaction credited to the account
// that mined a block.
func NewRewardTx(minerAddress string) Tx {
	return Tx{
		Sender:    SystemSender,
		Recipient: minerAddress,
		Message:   fmt.Sprintf("Block reward to %s", minerAddress),
	}
}

// SignBytes returns the canonical byte encoding that is signed and
// verified. The sender and recipient are hex strings so the separator
// can't occur before the message, which keeps the encoding unambiguous.
func (tx Tx) SignBytes() []byte {
	return []byte(fmt.Sprintf("%s|%s|%s", tx.Sender, tx.Recipient, tx.Message))
}

// Sign produces a copy of the transaction carrying a signature made with
// the specified hex encoded private key.
func (tx Tx) Sign(privHex string) (Tx, error) {
	sig, err := signature.Sign(privHex, tx.SignBytes())
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	return tx, nil
}

// IsReward reports whether this is a block reward transaction.
func (tx Tx) IsReward() bool {
	return tx.Sender == SystemSender
}

// Verify checks the transaction's signature against the sender's public
// key and the canonical sign bytes. Reward transactions carry no
// signature and always pass.
func (tx Tx) Verify() error {
	if tx.IsReward() {
		return nil
	}

	if tx.Signature == "" {
		return errors.New("transaction is missing a signature")
	}

	if !signature.Verify(tx.Sender, tx.SignBytes(), tx.Signature) {
		return errors.New("signature did not verify against the sender")
	}

	return nil
}

// Hash returns the content digest of the transaction. The mempool keys
// transactions by this value.
func (tx Tx) Hash() string {
	return digest.Hash(tx)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	const short = 8

	from := tx.Sender
	if len(from) > short {
		from = from[:short]
	}
	to := tx.Recipient
	if len(to) > short {
		to = to[:short]
	}

	return fmt.Sprintf("%s->%s", from, to)
}
