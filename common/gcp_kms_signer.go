package common

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/gagliardetto/solana-go"

	gax "github.com/googleapis/gax-go/v2"
)

type GCPKeyManagementClient interface {
	Close() error
	GetPublicKey(ctx context.Context, req *kmspb.GetPublicKeyRequest, opts ...gax.CallOption) (*kmspb.PublicKey, error)
	AsymmetricSign(ctx context.Context, req *kmspb.AsymmetricSignRequest, opts ...gax.CallOption) (*kmspb.AsymmetricSignResponse, error)
	GetCryptoKeyVersion(ctx context.Context, req *kmspb.GetCryptoKeyVersionRequest, opts ...gax.CallOption) (*kmspb.CryptoKeyVersion, error)
}

// Struct Definition
type GcpKmsSigner struct {
	client    GCPKeyManagementClient
	keyName   string
	publicKey solana.PublicKey
}

var _ Signer = &GcpKmsSigner{}

var NewGCPKeyManagementClient = func(ctx context.Context) (GCPKeyManagementClient, error) {
	return kms.NewKeyManagementClient(ctx)
}

// NewGcpKmsSigner wraps a KMS key version with algorithm EC_SIGN_ED25519.
// keyName is the full cryptoKeyVersions resource name.
func NewGcpKmsSigner(keyName string) (*GcpKmsSigner, error) {
	client, err := NewGCPKeyManagementClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create KMS client: %w", err)
	}

	// verify key algorithm
	keyVersionDetails, err := resolveKeyVersionDetails(client, keyName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get key version details: %w", err)
	}

	if keyVersionDetails.Algorithm != kmspb.CryptoKeyVersion_EC_SIGN_ED25519 {
		client.Close()
		return nil, fmt.Errorf("key algorithm is not EC_SIGN_ED25519")
	}

	// resolve public key
	pubKey, err := resolvePubKey(client, keyName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to resolve public key: %w", err)
	}

	return &GcpKmsSigner{
		client:    client,
		keyName:   keyName,
		publicKey: solana.PublicKeyFromBytes(pubKey),
	}, nil
}

// Destructor Function
func (s *GcpKmsSigner) Destroy() {
	s.client.Close()
}

// Sign sends the raw message to KMS; ed25519 keys sign data, not digests.
func (s *GcpKmsSigner) Sign(message []byte) (solana.Signature, error) {
	req := &kmspb.AsymmetricSignRequest{
		Name: s.keyName,
		Data: message,
	}

	resp, err := s.client.AsymmetricSign(context.Background(), req)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("asymmetric sign operation: %w", err)
	}

	if len(resp.Signature) != SolanaSignatureLength {
		return solana.Signature{}, fmt.Errorf("asymmetric signature has invalid length %d", len(resp.Signature))
	}

	if !ed25519.Verify(ed25519.PublicKey(s.publicKey.Bytes()), message, resp.Signature) {
		return solana.Signature{}, fmt.Errorf("signature verification failed")
	}

	var signature solana.Signature
	copy(signature[:], resp.Signature)
	return signature, nil
}

func (s *GcpKmsSigner) PublicKey() solana.PublicKey {
	return s.publicKey
}

func resolvePubKey(client GCPKeyManagementClient, keyName string) (ed25519.PublicKey, error) {
	publicKeyResp, err := client.GetPublicKey(context.Background(), &kmspb.GetPublicKeyRequest{Name: keyName})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	publicKeyPem := publicKeyResp.Pem

	block, _ := pem.Decode([]byte(publicKeyPem))
	if block == nil {
		return nil, fmt.Errorf("public key %q PEM empty: %.130q", keyName, publicKeyPem)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("public key %q PEM block %q: %w", keyName, block.Type, err)
	}

	pubKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key %q is %T instead of ed25519", keyName, parsed)
	}

	return pubKey, nil
}

func resolveKeyVersionDetails(client GCPKeyManagementClient, keyName string) (*kmspb.CryptoKeyVersion, error) {
	// Request the key version details
	req := &kmspb.GetCryptoKeyVersionRequest{
		Name: keyName,
	}

	resp, err := client.GetCryptoKeyVersion(context.Background(), req)
	if err != nil {
		return nil, fmt.Errorf("failed to get key version details: %w", err)
	}

	return resp, nil
}
