package app

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gax "github.com/googleapis/gax-go/v2"
	log "github.com/sirupsen/logrus"
)

type SecretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

var NewSecretManagerClient = func(ctx context.Context) (SecretManagerClient, error) {
	return secretmanager.NewClient(ctx)
}

func accessSecretVersion(client SecretManagerClient, name string) (string, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", Config.GoogleSecretManager.ProjectId, name),
	}

	result, err := client.AccessSecretVersion(context.Background(), req)
	if err != nil {
		return "", err
	}

	return string(result.Payload.Data), nil
}

// readSecret fills target from the named secret unless it is already set.
func readSecret(client SecretManagerClient, label string, secretName string, target *string) {
	if *target != "" || secretName == "" {
		return
	}
	log.Debugf("[GSM] Reading %s", label)
	value, err := accessSecretVersion(client, secretName)
	if err != nil {
		log.Fatalf("[GSM] Failed to access %s: %v", label, err)
	}
	*target = value
	log.Infof("[GSM] Successfully read %s", label)
}

func readKeysFromGSM() {
	if !Config.GoogleSecretManager.Enabled {
		log.Debug("[GSM] Google Secret Manager is disabled")
		return
	}

	if Config.GoogleSecretManager.ProjectId == "" {
		log.Fatalf("[GSM] ProjectId is empty")
	}

	client, err := NewSecretManagerClient(context.Background())
	if err != nil {
		log.Fatalf("[GSM] Failed to create secretmanager client: %v", err)
	}
	defer client.Close()

	gsm := Config.GoogleSecretManager
	readSecret(client, "mongo uri", gsm.MongoSecretName, &Config.MongoDB.URI)
	readSecret(client, "cron secret", gsm.CronSecretName, &Config.HTTP.CronSecret)

	// only one authority key source may be configured
	if Config.Solana.PrivateKey == "" && Config.Solana.Mnemonic == "" && Config.Solana.GcpKmsKeyName == "" {
		if gsm.PrivateKeySecretName == "" && gsm.MnemonicSecretName == "" {
			log.Fatalf("[GSM] No solana authority secret name configured")
		}
		if gsm.PrivateKeySecretName != "" {
			readSecret(client, "solana private key", gsm.PrivateKeySecretName, &Config.Solana.PrivateKey)
		} else {
			readSecret(client, "solana mnemonic", gsm.MnemonicSecretName, &Config.Solana.Mnemonic)
		}
	}
}
