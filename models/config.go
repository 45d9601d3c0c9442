package models

type Config struct {
	GoogleSecretManager GoogleSecretManagerConfig `yaml:"google_secret_manager" json:"google_secret_manager"`
	HealthCheck         HealthCheckConfig         `yaml:"health_check" json:"health_check"`
	Logger              LoggerConfig              `yaml:"logger" json:"logger"`
	MongoDB             MongoConfig               `yaml:"mongodb" json:"mongo_db"`
	Solana              SolanaConfig              `yaml:"solana" json:"solana"`
	Bridge              BridgeConfig              `yaml:"bridge" json:"bridge"`
	HTTP                HTTPConfig                `yaml:"http" json:"http"`
	BridgeSettler       ServiceConfig             `yaml:"bridge_settler" json:"bridge_settler"`
}

type GoogleSecretManagerConfig struct {
	Enabled              bool   `yaml:"enabled" json:"enabled"`
	ProjectId            string `yaml:"project_id" json:"project_id"`
	MongoSecretName      string `yaml:"mongo_secret_name" json:"mongo_secret_name"`
	PrivateKeySecretName string `yaml:"private_key_secret_name" json:"private_key_secret_name"`
	MnemonicSecretName   string `yaml:"mnemonic_secret_name" json:"mnemonic_secret_name"`
	CronSecretName       string `yaml:"cron_secret_name" json:"cron_secret_name"`
}

type HealthCheckConfig struct {
	IntervalMillis int64 `yaml:"interval_ms" json:"interval_ms"`
	ReadLastHealth bool  `yaml:"read_last_health" json:"read_last_health"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type MongoConfig struct {
	URI           string `yaml:"uri" json:"uri"`
	Database      string `yaml:"database" json:"database"`
	TimeoutMillis int64  `yaml:"timeout_ms" json:"timeout_ms"`
}

// SolanaConfig holds the destination chain constants. Exactly one of
// PrivateKey, Mnemonic or GcpKmsKeyName identifies the settlement authority.
type SolanaConfig struct {
	RPCURL           string  `yaml:"rpc_url" json:"rpc_url"`
	Network          string  `yaml:"network" json:"network"`
	RPCTimeoutMillis int64   `yaml:"rpc_timeout_ms" json:"rpc_timeout_ms"`
	RPS              float64 `yaml:"rps" json:"rps"`
	Burst            int     `yaml:"burst" json:"burst"`
	Commitment       string  `yaml:"commitment" json:"commitment"`
	TokenMint        string  `yaml:"token_mint" json:"token_mint"`
	PrivateKey       string  `yaml:"private_key" json:"private_key"`
	Mnemonic         string  `yaml:"mnemonic" json:"mnemonic"`
	GcpKmsKeyName    string  `yaml:"gcp_kms_key_name" json:"gcp_kms_key_name"`
}

type BridgeConfig struct {
	Collection         string `yaml:"collection" json:"collection"`
	MaxDurationSecs    int64  `yaml:"max_duration_secs" json:"max_duration_secs"`
	LeaseTTLSecs       int64  `yaml:"lease_ttl_secs" json:"lease_ttl_secs"`
	MaxRetries         int64  `yaml:"max_retries" json:"max_retries"`
	BackoffInitialMs   int64  `yaml:"backoff_initial_ms" json:"backoff_initial_ms"`
	BackoffMaxMs       int64  `yaml:"backoff_max_ms" json:"backoff_max_ms"`
	MaxRequestAttempts int64  `yaml:"max_request_attempts" json:"max_request_attempts"`
	ConfirmTimeoutSecs int64  `yaml:"confirm_timeout_secs" json:"confirm_timeout_secs"`
	ConfirmPollMs      int64  `yaml:"confirm_poll_ms" json:"confirm_poll_ms"`
	HistoryScanLimit   int    `yaml:"history_scan_limit" json:"history_scan_limit"`
}

type HTTPConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Address    string `yaml:"address" json:"address"`
	CronPath   string `yaml:"cron_path" json:"cron_path"`
	CronSecret string `yaml:"cron_secret" json:"cron_secret"`
}

type ServiceConfig struct {
	Enabled        bool  `yaml:"enabled" json:"enabled"`
	IntervalMillis int64 `yaml:"interval_ms" json:"interval_ms"`
}
