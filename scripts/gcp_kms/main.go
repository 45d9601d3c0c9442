package main

import (
	"fmt"
	"log"
	"os"

	"github.com/turtle-syndicate/bridge-settler/common"
)

// Main Function
func main() {
	GoogleKeyName := os.Getenv("GCP_KMS_KEY_NAME")

	fmt.Println("Google KMS Key Name: ", GoogleKeyName)
	if GoogleKeyName == "" {
		log.Fatalf("GCP KMS Key Name not set")
	}

	signer, err := common.NewGcpKmsSigner(GoogleKeyName)
	if err != nil {
		log.Fatalf("failed to create GCP KMS signer: %v", err)
	}
	defer signer.Destroy()

	fmt.Println("Solana Address: ", signer.PublicKey().String())

	message := []byte("example transaction message")

	signature, err := signer.Sign(message)
	if err != nil {
		log.Fatalf("failed to sign message: %v", err)
	}
	fmt.Println("Signature: ", signature.String())
	fmt.Println("Verified: ", signer.PublicKey().Verify(message, signature))
}
