// Package nameservice reads the accounts folder and creates a name
// service lookup for wallet public keys.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/textchain/blockchain/foundation/blockchain/signature"
)

// NameService maintains a map of wallet public keys for name lookup.
type NameService struct {
	names map[string]string
}

// New constructs a name service from the .ecdsa key files found under
// the specified folder. The file name becomes the display name for the
// wallet's public key.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		pub := signature.PublicKeyHex(&privateKey.PublicKey)
		ns.names[pub] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified public key.
func (ns *NameService) Lookup(publicKey string) string {
	name, exists := ns.names[publicKey]
	if !exists {
		return publicKey
	}
	return name
}

// Copy returns a copy of the map of names and public keys.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for pub, name := range ns.names {
		cpy[pub] = name
	}
	return cpy
}
