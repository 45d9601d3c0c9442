package app

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func readInt64FromENV(key string, target *int64) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Warnf("[ENV] Error parsing %s: %s", key, err.Error())
		return
	}
	*target = parsed
}

func readBoolFromENV(key string, target *bool) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Warnf("[ENV] Error parsing %s: %s", key, err.Error())
		return
	}
	*target = parsed
}

func readStringFromENV(key string, target *string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func readConfigFromENV(envFile string) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil {
			log.Warn("[ENV] Error loading .env file: ", err.Error())
		}
	}

	// mongodb
	readStringFromENV("MONGODB_URI", &Config.MongoDB.URI)
	readStringFromENV("MONGODB_DATABASE", &Config.MongoDB.Database)
	readInt64FromENV("MONGODB_TIMEOUT_MS", &Config.MongoDB.TimeoutMillis)

	// solana
	readStringFromENV("SOL_RPC_URL", &Config.Solana.RPCURL)
	readStringFromENV("SOL_NET", &Config.Solana.Network)
	readInt64FromENV("SOL_RPC_TIMEOUT_MS", &Config.Solana.RPCTimeoutMillis)
	readStringFromENV("SOL_COMMITMENT", &Config.Solana.Commitment)
	readStringFromENV("SOL_TOKEN_ID", &Config.Solana.TokenMint)
	readStringFromENV("SOL_APP_SECRET_KEY", &Config.Solana.PrivateKey)
	readStringFromENV("SOL_MNEMONIC", &Config.Solana.Mnemonic)
	readStringFromENV("SOL_GCP_KMS_KEY_NAME", &Config.Solana.GcpKmsKeyName)
	if os.Getenv("SOL_RPS") != "" {
		rps, err := strconv.ParseFloat(os.Getenv("SOL_RPS"), 64)
		if err != nil {
			log.Warn("[ENV] Error parsing SOL_RPS: ", err.Error())
		} else {
			Config.Solana.RPS = rps
		}
	}
	if os.Getenv("SOL_BURST") != "" {
		burst, err := strconv.Atoi(os.Getenv("SOL_BURST"))
		if err != nil {
			log.Warn("[ENV] Error parsing SOL_BURST: ", err.Error())
		} else {
			Config.Solana.Burst = burst
		}
	}

	// bridge
	readStringFromENV("BRIDGE_COLLECTION", &Config.Bridge.Collection)
	readInt64FromENV("BRIDGE_MAX_DURATION_SECS", &Config.Bridge.MaxDurationSecs)
	readInt64FromENV("BRIDGE_LEASE_TTL_SECS", &Config.Bridge.LeaseTTLSecs)
	readInt64FromENV("BRIDGE_MAX_RETRIES", &Config.Bridge.MaxRetries)
	readInt64FromENV("BRIDGE_BACKOFF_INITIAL_MS", &Config.Bridge.BackoffInitialMs)
	readInt64FromENV("BRIDGE_BACKOFF_MAX_MS", &Config.Bridge.BackoffMaxMs)
	readInt64FromENV("BRIDGE_MAX_REQUEST_ATTEMPTS", &Config.Bridge.MaxRequestAttempts)
	readInt64FromENV("BRIDGE_CONFIRM_TIMEOUT_SECS", &Config.Bridge.ConfirmTimeoutSecs)
	readInt64FromENV("BRIDGE_CONFIRM_POLL_MS", &Config.Bridge.ConfirmPollMs)
	if os.Getenv("BRIDGE_HISTORY_SCAN_LIMIT") != "" {
		limit, err := strconv.Atoi(os.Getenv("BRIDGE_HISTORY_SCAN_LIMIT"))
		if err != nil {
			log.Warn("[ENV] Error parsing BRIDGE_HISTORY_SCAN_LIMIT: ", err.Error())
		} else {
			Config.Bridge.HistoryScanLimit = limit
		}
	}

	// http trigger
	readBoolFromENV("HTTP_ENABLED", &Config.HTTP.Enabled)
	readStringFromENV("HTTP_ADDRESS", &Config.HTTP.Address)
	readStringFromENV("HTTP_CRON_PATH", &Config.HTTP.CronPath)
	readStringFromENV("CRON_SECRET", &Config.HTTP.CronSecret)

	// bridge settler
	readBoolFromENV("BRIDGE_SETTLER_ENABLED", &Config.BridgeSettler.Enabled)
	readInt64FromENV("BRIDGE_SETTLER_INTERVAL_MS", &Config.BridgeSettler.IntervalMillis)

	// health check
	readInt64FromENV("HEALTH_CHECK_INTERVAL_MS", &Config.HealthCheck.IntervalMillis)
	readBoolFromENV("HEALTH_CHECK_READ_LAST_HEALTH", &Config.HealthCheck.ReadLastHealth)

	// logging
	if Config.Logger.Level == "" {
		logLevel := os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			log.Warn("[ENV] Setting LogLevel to info")
			Config.Logger.Level = "info"
		} else {
			Config.Logger.Level = logLevel
		}
	}

	readStringFromENV("LOG_FORMAT", &Config.Logger.Format)

	// google secret manager
	readBoolFromENV("GOOGLE_SECRET_MANAGER_ENABLED", &Config.GoogleSecretManager.Enabled)
	readStringFromENV("GOOGLE_PROJECT_ID", &Config.GoogleSecretManager.ProjectId)
	readStringFromENV("GOOGLE_MONGO_SECRET_NAME", &Config.GoogleSecretManager.MongoSecretName)
	readStringFromENV("GOOGLE_PRIVATE_KEY_SECRET_NAME", &Config.GoogleSecretManager.PrivateKeySecretName)
	readStringFromENV("GOOGLE_MNEMONIC_SECRET_NAME", &Config.GoogleSecretManager.MnemonicSecretName)
	readStringFromENV("GOOGLE_CRON_SECRET_NAME", &Config.GoogleSecretManager.CronSecretName)
}
