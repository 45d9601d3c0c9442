package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/turtle-syndicate/bridge-settler/common"
)

var (
	newKeypairSigner  = func(secret string) (common.Signer, error) { return common.NewKeypairSigner(secret) }
	newMnemonicSigner = func(mnemonic string) (common.Signer, error) { return common.NewMnemonicSigner(mnemonic) }
	newGcpKmsSigner   = func(keyName string) (common.Signer, error) { return common.NewGcpKmsSigner(keyName) }
)

// CreateAuthoritySigner builds the settlement authority signer from whichever
// key source is configured.
func CreateAuthoritySigner() (common.Signer, error) {
	config := Config.Solana

	var signer common.Signer
	var err error
	switch {
	case config.PrivateKey != "":
		signer, err = newKeypairSigner(config.PrivateKey)
	case config.Mnemonic != "":
		signer, err = newMnemonicSigner(config.Mnemonic)
	case config.GcpKmsKeyName != "":
		signer, err = newGcpKmsSigner(config.GcpKmsKeyName)
	default:
		return nil, fmt.Errorf("no authority key configured")
	}
	if err != nil {
		return nil, fmt.Errorf("error initializing authority signer: %w", err)
	}

	log.Info("[SIGNER] Settlement authority: ", signer.PublicKey().String())
	return signer, nil
}
