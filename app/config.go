package app

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/turtle-syndicate/bridge-settler/models"
	"gopkg.in/yaml.v2"
)

var (
	Config models.Config
)

const (
	DefaultCollection         = "trtlBridgeToSolana"
	DefaultCronPath           = "/api/bridge/cardano-to-solana/cron"
	DefaultHTTPAddress        = ":8080"
	DefaultMaxDurationSecs    = 300
	DefaultLeaseTTLSecs       = 330
	DefaultMaxRetries         = 5
	DefaultBackoffInitialMs   = 500
	DefaultBackoffMaxMs       = 8000
	DefaultMaxRequestAttempts = 10
	DefaultConfirmTimeoutSecs = 60
	DefaultConfirmPollMs      = 1000
	DefaultHistoryScanLimit   = 200
	DefaultMongoTimeoutMillis = 5000
	DefaultRPCTimeoutMillis   = 30000
	DefaultCommitment         = "confirmed"
)

func InitConfig(configFile string, envFile string) {
	log.Debug("[CONFIG] Initializing config")
	readConfigFromConfigFile(configFile)
	readConfigFromENV(envFile)
	readKeysFromGSM()
	setDefaults()
	validateConfig()
	log.Info("[CONFIG] Config initialized")
}

func readConfigFromConfigFile(configFile string) bool {
	if configFile == "" {
		log.Debug("[CONFIG] No config file provided")
		return false
	}

	log.Debug("[CONFIG] Reading config file: ", configFile)
	yamlFile, err := os.ReadFile(configFile)
	if err != nil {
		log.Fatalf("[CONFIG] Error reading config file %q: %s\n", configFile, err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &Config)
	if err != nil {
		log.Fatalf("[CONFIG] Error unmarshalling config file %q: %s\n", configFile, err.Error())
	}
	log.Debug("[CONFIG] Config loaded from file")
	return true
}

func setDefaults() {
	if Config.MongoDB.TimeoutMillis == 0 {
		Config.MongoDB.TimeoutMillis = DefaultMongoTimeoutMillis
	}
	if Config.Solana.RPCTimeoutMillis == 0 {
		Config.Solana.RPCTimeoutMillis = DefaultRPCTimeoutMillis
	}
	if Config.Solana.Commitment == "" {
		Config.Solana.Commitment = DefaultCommitment
	}
	if Config.Bridge.Collection == "" {
		Config.Bridge.Collection = DefaultCollection
	}
	if Config.Bridge.MaxDurationSecs == 0 {
		Config.Bridge.MaxDurationSecs = DefaultMaxDurationSecs
	}
	if Config.Bridge.LeaseTTLSecs == 0 {
		Config.Bridge.LeaseTTLSecs = DefaultLeaseTTLSecs
	}
	if Config.Bridge.MaxRetries == 0 {
		Config.Bridge.MaxRetries = DefaultMaxRetries
	}
	if Config.Bridge.BackoffInitialMs == 0 {
		Config.Bridge.BackoffInitialMs = DefaultBackoffInitialMs
	}
	if Config.Bridge.BackoffMaxMs == 0 {
		Config.Bridge.BackoffMaxMs = DefaultBackoffMaxMs
	}
	if Config.Bridge.MaxRequestAttempts == 0 {
		Config.Bridge.MaxRequestAttempts = DefaultMaxRequestAttempts
	}
	if Config.Bridge.ConfirmTimeoutSecs == 0 {
		Config.Bridge.ConfirmTimeoutSecs = DefaultConfirmTimeoutSecs
	}
	if Config.Bridge.ConfirmPollMs == 0 {
		Config.Bridge.ConfirmPollMs = DefaultConfirmPollMs
	}
	if Config.Bridge.HistoryScanLimit == 0 {
		Config.Bridge.HistoryScanLimit = DefaultHistoryScanLimit
	}
	if Config.HTTP.Address == "" {
		Config.HTTP.Address = DefaultHTTPAddress
	}
	if Config.HTTP.CronPath == "" {
		Config.HTTP.CronPath = DefaultCronPath
	}
}

func validateConfig() {
	log.Debug("[CONFIG] Validating config")
	// mongodb
	if Config.MongoDB.URI == "" {
		log.Fatal("[CONFIG] MongoDB.URI is required")
	}
	if Config.MongoDB.Database == "" {
		log.Fatal("[CONFIG] MongoDB.Database is required")
	}

	// solana
	if Config.Solana.RPCURL == "" {
		log.Fatal("[CONFIG] Solana.RPCURL is required")
	}
	if Config.Solana.Network == "" {
		log.Fatal("[CONFIG] Solana.Network is required")
	}
	if Config.Solana.TokenMint == "" {
		log.Fatal("[CONFIG] Solana.TokenMint is required")
	}
	keySources := 0
	for _, k := range []string{Config.Solana.PrivateKey, Config.Solana.Mnemonic, Config.Solana.GcpKmsKeyName} {
		if strings.TrimSpace(k) != "" {
			keySources++
		}
	}
	if keySources != 1 {
		log.Fatal("[CONFIG] Exactly one of Solana.PrivateKey, Solana.Mnemonic or Solana.GcpKmsKeyName is required")
	}

	// bridge
	if Config.Bridge.LeaseTTLSecs <= Config.Bridge.MaxDurationSecs {
		log.Fatal("[CONFIG] Bridge.LeaseTTLSecs must be greater than Bridge.MaxDurationSecs")
	}
	if Config.Bridge.MaxRetries < 1 {
		log.Fatal("[CONFIG] Bridge.MaxRetries must be at least 1")
	}
	if Config.Bridge.BackoffMaxMs < Config.Bridge.BackoffInitialMs {
		log.Fatal("[CONFIG] Bridge.BackoffMaxMs must not be less than Bridge.BackoffInitialMs")
	}

	// services
	if !Config.HTTP.Enabled && !Config.BridgeSettler.Enabled {
		log.Fatal("[CONFIG] At least one of HTTP.Enabled or BridgeSettler.Enabled is required")
	}
	if Config.HealthCheck.IntervalMillis <= 0 {
		log.Fatal("[CONFIG] HealthCheck.IntervalMillis is required")
	}
	if Config.BridgeSettler.Enabled && Config.BridgeSettler.IntervalMillis <= 0 {
		log.Fatal("[CONFIG] BridgeSettler.IntervalMillis is required")
	}
	if !strings.HasPrefix(Config.HTTP.CronPath, "/") {
		log.Fatal("[CONFIG] HTTP.CronPath must start with /")
	}
	log.Debug("[CONFIG] Config validated")
}
