// Package signature provides wallet key pair generation and the signing and
// verification support needed to authenticate transactions.
package signature

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Lengths of the raw serialized forms. Keys and signatures travel as
// lowercase unprefixed hex of these byte lengths.
const (
	PrivateKeyLength = 32 // Curve scalar.
	PublicKeyLength  = 64 // X and Y coordinates, no encoding prefix.
	SignatureLength  = 64 // R and S values.
)

// KeyPair represents a generated wallet in its serialized form. The node
// never holds on to one of these, it only hands them to the caller.
type KeyPair struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// Generate creates a new key pair on the secp256k1 curve using the
// system's secure entropy source.
func Generate() (KeyPair, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating key: %w", err)
	}

	kp := KeyPair{
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(privateKey)),
		PublicKey:  PublicKeyHex(&privateKey.PublicKey),
	}

	return kp, nil
}

// PublicKeyHex serializes a public key to its raw 64 byte hex form.
func PublicKeyHex(pub *ecdsa.PublicKey) string {

	// FromECDSAPub produces the 65 byte uncompressed encoding with a 0x04
	// marker byte. The wire form drops the marker.
	return hex.EncodeToString(crypto.FromECDSAPub(pub)[1:])
}

// ToPrivateKey parses a hex encoded private key.
func ToPrivateKey(privHex string) (*ecdsa.PrivateKey, error) {
	privateKey, err := crypto.HexToECDSA(privHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return privateKey, nil
}

// Sign signs the message bytes with the specified hex encoded private
// key and returns the signature as hex.
func Sign(privHex string, msg []byte) (string, error) {
	privateKey, err := ToPrivateKey(privHex)
	if err != nil {
		return "", err
	}

	return SignWithKey(privateKey, msg)
}

// SignWithKey signs the message bytes with an already parsed private key.
func SignWithKey(privateKey *ecdsa.PrivateKey, msg []byte) (string, error) {

	// The curve signs a 32 byte digest, not the raw message.
	sig, err := crypto.Sign(stamp(msg), privateKey)
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}

	// Drop the recovery id, the verifier is always handed the public key.
	return hex.EncodeToString(sig[:SignatureLength]), nil
}

// Verify reports whether the signature was produced over the message bytes
// by the holder of the specified public key. Malformed keys or signatures
// report false, they never panic or error out.
func Verify(pubHex string, msg []byte, sigHex string) bool {
	pub, err := toPublicKeyBytes(pubHex)
	if err != nil {
		return false
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != SignatureLength {
		return false
	}

	return crypto.VerifySignature(pub, stamp(msg), sig)
}

// =============================================================================

// toPublicKeyBytes converts the raw 64 byte hex form back into the 65 byte
// uncompressed encoding the curve library expects.
func toPublicKeyBytes(pubHex string) ([]byte, error) {
	raw, err := hex.DecodeString(pubHex)
	if err != nil {
		return nil, err
	}
	if len(raw) != PublicKeyLength {
		return nil, errors.New("invalid public key length")
	}

	pub := make([]byte, 0, PublicKeyLength+1)
	pub = append(pub, 0x04)
	pub = append(pub, raw...)

	// Reject points that are not on the curve up front.
	if _, err := crypto.UnmarshalPubkey(pub); err != nil {
		return nil, err
	}

	return pub, nil
}

// stamp reduces the message bytes to the 32 byte digest the curve
// operations work over.
func stamp(msg []byte) []byte {
	return crypto.Keccak256(msg)
}
