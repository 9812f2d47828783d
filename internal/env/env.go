package env

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// RefundLockMargin is the time a refund needs beyond the bank call to read the
// balance and write the ledger entry while it holds the refund lock.
const RefundLockMargin = 5 * time.Second

type EnvironmentVariables struct {
	Environment     string
	Port            string
	GrpcAddr        string
	LogLevel        string
	LedgerBackend   string
	BoltPath        string
	RedisAddr       string
	DatabaseUrl     string
	FraudOracleUrl  string
	BankOracleUrl   string
	OracleTimeout   time.Duration
	FraudFailClosed bool
	RefundLockTTL   time.Duration
	HealthInterval  time.Duration
}

// Load reads the configuration from the process environment. When CONFIG_FILE is
// set, that file supplies values the environment does not.
func Load() (*EnvironmentVariables, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("[env] failed to read config file %s: %w", file, err)
		}
	}

	env := &EnvironmentVariables{
		Environment:     v.GetString("environment"),
		Port:            v.GetString("port"),
		GrpcAddr:        v.GetString("grpc_addr"),
		LogLevel:        v.GetString("log_level"),
		LedgerBackend:   strings.ToLower(v.GetString("ledger_backend")),
		BoltPath:        v.GetString("bolt_path"),
		RedisAddr:       v.GetString("redis_addr"),
		DatabaseUrl:     v.GetString("database_url"),
		FraudOracleUrl:  strings.TrimRight(v.GetString("fraud_oracle_url"), "/"),
		BankOracleUrl:   strings.TrimRight(v.GetString("bank_oracle_url"), "/"),
		OracleTimeout:   v.GetDuration("oracle_timeout"),
		FraudFailClosed: v.GetBool("fraud_fail_closed"),
		RefundLockTTL:   v.GetDuration("refund_lock_ttl"),
		HealthInterval:  v.GetDuration("health_interval"),
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config_file", "")
	v.SetDefault("environment", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("grpc_addr", ":9090")
	v.SetDefault("log_level", "info")
	v.SetDefault("ledger_backend", BackendMemory)
	v.SetDefault("bolt_path", "ledger.db")
	v.SetDefault("redis_addr", "")
	v.SetDefault("database_url", "")
	v.SetDefault("fraud_oracle_url", "http://localhost:8081/api/mock/antifraud")
	v.SetDefault("bank_oracle_url", "http://localhost:8081/api/mock/bank")
	v.SetDefault("oracle_timeout", 5*time.Second)
	v.SetDefault("fraud_fail_closed", false)
	v.SetDefault("refund_lock_ttl", 30*time.Second)
	v.SetDefault("health_interval", 10*time.Second)
}

func (e *EnvironmentVariables) validate() error {
	var errs []error
	switch e.LedgerBackend {
	case BackendMemory:
	case BackendBolt:
		if e.BoltPath == "" {
			errs = append(errs, errors.New("BOLT_PATH is required for the bolt ledger"))
		}
	case BackendRedis:
		if e.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis ledger"))
		}
	case BackendPostgres:
		if e.DatabaseUrl == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres ledger"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_BACKEND %q", e.LedgerBackend))
	}
	if e.FraudOracleUrl == "" {
		errs = append(errs, errors.New("FRAUD_ORACLE_URL is required"))
	}
	if e.BankOracleUrl == "" {
		errs = append(errs, errors.New("BANK_ORACLE_URL is required"))
	}
	if e.OracleTimeout <= 0 {
		errs = append(errs, errors.New("ORACLE_TIMEOUT must be > 0"))
	}
	if e.RefundLockTTL <= 0 {
		errs = append(errs, errors.New("REFUND_LOCK_TTL must be > 0"))
	} else if e.RefundLockTTL <= e.OracleTimeout+RefundLockMargin {
		errs = append(errs, fmt.Errorf("REFUND_LOCK_TTL (%s) must exceed ORACLE_TIMEOUT (%s) by more than %s", e.RefundLockTTL, e.OracleTimeout, RefundLockMargin))
	}
	if e.HealthInterval <= 0 {
		errs = append(errs, errors.New("HEALTH_INTERVAL must be > 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("[env] invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (e *EnvironmentVariables) IsProduction() bool {
	return e.Environment == "production"
}

func (e *EnvironmentVariables) IsDevelopment() bool {
	return !e.IsProduction()
}
