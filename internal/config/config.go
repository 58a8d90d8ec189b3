package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	SMS      SMSConfig
	Ledger   LedgerConfig
	PIN      PINConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// StorageConfig selects the backing store ("mongodb" or "memory")
type StorageConfig struct {
	Driver string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds the event stream connection
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// SMSConfig holds SMS gateway-specific configuration
type SMSConfig struct {
	Mock     bool
	BaseURL  string
	APIKey   string
	SenderID string
}

// LedgerConfig holds the money movement rules and the designated Admin account.
// Amounts are in minor currency units; rates are decimal strings.
type LedgerConfig struct {
	AdminAccountID        string
	MinimumTransfer       int64
	MaximumTransfer       int64
	SendMoneyFee          int64
	SendMoneyFeeThreshold int64
	CashOutFeeRate        string
	CashOutPlatformRate   string
	UserOpeningBalance    int64
	AgentOpeningBalance   int64
}

// PINConfig holds the bcrypt cost used for PIN hashes
type PINConfig struct {
	Cost int
}

// Load loads configuration from a .env file, an optional config.yaml in path and environment variables
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "5100")
	v.SetDefault("Server.AllowedOrigins", []string{"http://localhost:5173"})
	v.SetDefault("Storage.Driver", "mongodb")
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MongoDB.Database", "mcashDB")
	v.SetDefault("Redis.Enabled", false)
	v.SetDefault("Redis.Addr", "localhost:6379")
	v.SetDefault("Redis.Password", "")
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("Redis.Stream", "mcash.events")
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 60*60) // 1 hour
	v.SetDefault("SMS.Mock", true)
	v.SetDefault("SMS.BaseURL", "")
	v.SetDefault("SMS.APIKey", "")
	v.SetDefault("SMS.SenderID", "mCash")
	v.SetDefault("Ledger.AdminAccountID", "")
	v.SetDefault("Ledger.MinimumTransfer", 50)
	v.SetDefault("Ledger.MaximumTransfer", 10000000)
	v.SetDefault("Ledger.SendMoneyFee", 5)
	v.SetDefault("Ledger.SendMoneyFeeThreshold", 100)
	v.SetDefault("Ledger.CashOutFeeRate", "0.015")
	v.SetDefault("Ledger.CashOutPlatformRate", "0.005")
	v.SetDefault("Ledger.UserOpeningBalance", 40)
	v.SetDefault("Ledger.AgentOpeningBalance", 100000)
	v.SetDefault("PIN.Cost", 10)
	v.SetDefault("LogLevel", "info")
}
