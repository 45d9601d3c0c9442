package util

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/turtle-syndicate/bridge-settler/common"
)

const (
	splTokenTransferInstruction = 3
	ataCreateIdempotent         = 1
)

// TransferInstruction moves amount base units between two token accounts of the same mint.
func TransferInstruction(source, destination, owner solana.PublicKey, amount uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = splTokenTransferInstruction
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		solana.TokenProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(source, true, false),
			solana.NewAccountMeta(destination, true, false),
			solana.NewAccountMeta(owner, false, true),
		},
		data,
	)
}

// CreateAssociatedTokenAccountIdempotentInstruction succeeds as a no-op when
// the account already exists.
func CreateAssociatedTokenAccountIdempotentInstruction(payer, owner, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	instruction := solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(payer, true, true),
			solana.NewAccountMeta(ata, true, false),
			solana.NewAccountMeta(owner, false, false),
			solana.NewAccountMeta(mint, false, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
		},
		[]byte{ataCreateIdempotent},
	)
	return instruction, ata, nil
}

func MemoInstruction(signer solana.PublicKey, memo string) solana.Instruction {
	return solana.NewInstruction(
		solana.MemoProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(signer, false, true),
		},
		[]byte(memo),
	)
}

// BuildSignedTransaction returns the wire bytes of a transaction paid and
// signed by signer, with its signature.
func BuildSignedTransaction(signer common.Signer, instructions []solana.Instruction, blockhash solana.Hash) ([]byte, solana.Signature, error) {
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(signer.PublicKey()))
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("error building transaction: %w", err)
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("error encoding message: %w", err)
	}

	signature, err := signer.Sign(message)
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("error signing message: %w", err)
	}
	tx.Signatures = []solana.Signature{signature}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("error encoding transaction: %w", err)
	}
	return raw, signature, nil
}

// IdempotencyKey is stable for a request so every attempt carries the same memo.
func IdempotencyKey(requestId string, sourceTxHash string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("bridge-request:"+requestId+":"+sourceTxHash)).String()
}

// MemoContains matches a key against the memo field of a signature listing,
// which the cluster renders as "[len] text" joined by "; ".
func MemoContains(memo string, key string) bool {
	return key != "" && strings.Contains(memo, key)
}

// ParseDestination accepts any 32 byte base58 key other than the zero key.
// Owners off the curve are valid ATA owners.
func ParseDestination(address string) (solana.PublicKey, error) {
	owner, err := solana.PublicKeyFromBase58(strings.TrimSpace(address))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid destination address %q: %w", address, err)
	}
	if owner == (solana.PublicKey{}) {
		return solana.PublicKey{}, fmt.Errorf("invalid destination address %q: zero key", address)
	}
	return owner, nil
}
