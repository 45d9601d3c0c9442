package common

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

type KeypairSigner struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

var _ Signer = &KeypairSigner{}

// NewKeypairSigner accepts either a base58 secret key or the JSON byte array
// written by solana-keygen.
func NewKeypairSigner(secret string) (*KeypairSigner, error) {
	privateKey, err := ParsePrivateKey(secret)
	if err != nil {
		return nil, err
	}
	return &KeypairSigner{
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
	}, nil
}

func ParsePrivateKey(secret string) (solana.PrivateKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("empty private key")
	}

	var raw []byte
	if strings.HasPrefix(secret, "[") {
		var bytes []int
		if err := json.Unmarshal([]byte(secret), &bytes); err != nil {
			return nil, fmt.Errorf("failed to parse private key byte array: %w", err)
		}
		raw = make([]byte, len(bytes))
		for i, b := range bytes {
			if b < 0 || b > 255 {
				return nil, fmt.Errorf("private key byte %d out of range", i)
			}
			raw[i] = byte(b)
		}
	} else {
		key, err := solana.PrivateKeyFromBase58(secret)
		if err != nil {
			return nil, fmt.Errorf("failed to parse base58 private key: %w", err)
		}
		raw = key
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length %d", len(raw))
	}

	// the trailing half must be the public key of the leading seed
	expected := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !ed25519.PrivateKey(raw).Equal(expected) {
		return nil, fmt.Errorf("private key does not match its public key")
	}

	return solana.PrivateKey(raw), nil
}

func (s *KeypairSigner) Sign(message []byte) (solana.Signature, error) {
	return s.privateKey.Sign(message)
}

func (s *KeypairSigner) PublicKey() solana.PublicKey {
	return s.publicKey
}

func (s *KeypairSigner) Destroy() {
	// nothing to do
}
