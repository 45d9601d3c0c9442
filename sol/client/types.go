package client

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

type AccountInfo struct {
	Owner    solana.PublicKey
	Lamports uint64
	DataLen  int
}

type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// SignatureStatus is nil when the cluster does not know the signature.
type SignatureStatus struct {
	Slot               uint64
	Err                interface{}
	ConfirmationStatus string
}

func (s *SignatureStatus) Succeeded() bool {
	return s != nil && s.Err == nil
}

// Committed reports whether the status reached at least the confirmed level.
func (s *SignatureStatus) Committed() bool {
	return s != nil && (s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized")
}

type SignatureInfo struct {
	Signature solana.Signature
	Slot      uint64
	Memo      string
	Err       interface{}
}
