package common

import (
	"crypto/ed25519"
	"fmt"

	"github.com/blocto/solana-go-sdk/pkg/hdwallet"
	"github.com/cosmos/go-bip39"
	"github.com/gagliardetto/solana-go"
)

type MnemonicSigner struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

var _ Signer = &MnemonicSigner{}

func SolanaPrivateKeyFromMnemonic(mnemonic string, path string) (solana.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, DefaultBIP39Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create seed: %w", err)
	}

	// SLIP-10 ed25519, hardened segments only
	derived, err := hdwallet.Derived(path, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key for path %q: %w", path, err)
	}

	return solana.PrivateKey(ed25519.NewKeyFromSeed(derived.PrivateKey)), nil
}

// NewMnemonicSigner derives the authority key the way Phantom and
// solana-keygen --derivation-path do.
func NewMnemonicSigner(mnemonic string) (*MnemonicSigner, error) {
	privateKey, err := SolanaPrivateKeyFromMnemonic(mnemonic, DefaultSolanaHDPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create solana private key: %w", err)
	}

	return &MnemonicSigner{
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
	}, nil
}

func (s *MnemonicSigner) Destroy() {
	// nothing to do
}

func (s *MnemonicSigner) Sign(message []byte) (solana.Signature, error) {
	return s.privateKey.Sign(message)
}

func (s *MnemonicSigner) PublicKey() solana.PublicKey {
	return s.publicKey
}
