package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs EVM transactions for an unlocked signing wallet.
type Signer struct {
	wallet *Wallet
	key    *ecdsa.PrivateKey
}

// Unlock retrieves the wallet's key from ks and returns a signer holding it.
// Keystore failures are returned as-is; a key that does not parse or does
// not match the wallet address wraps ErrInvalidKey.
func Unlock(w *Wallet, ks KeyStore) (*Signer, error) {
	if !w.CanSign() {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign", w.Name)
	}

	hexKey, err := ks.Retrieve(w.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}

	key, err := crypto.HexToECDSA(stripHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	if got := crypto.PubkeyToAddress(key.PublicKey); got != common.HexToAddress(w.Address) {
		return nil, fmt.Errorf("%w: key belongs to %s, wallet %q is %s", ErrInvalidKey, got.Hex(), w.Name, w.Address)
	}

	return &Signer{wallet: w, key: key}, nil
}

// SignTx signs tx for chainID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if chainID == nil {
		return nil, fmt.Errorf("signing transaction: missing chain id")
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// Address returns the signing account.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Wallet returns the wallet this signer was unlocked from.
func (s *Signer) Wallet() *Wallet { return s.wallet }
