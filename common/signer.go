package common

import (
	"github.com/gagliardetto/solana-go"
)

// Signer signs Solana transaction messages for the settlement authority.
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(message []byte) (solana.Signature, error)
	Destroy()
}
