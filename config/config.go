// Package config loads host configuration for the infrastructure layer.
//
// Values come from an optional file (YAML, JSON or TOML) and are overridden by
// environment variables prefixed with APP_, with "." replaced by "_":
//
//	APP_CONNECTIONSTRINGS_CLEANARCHITECTUREDB=postgres://...
//	APP_CACHE_ENABLED=true
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/infracache/codec"
	"github.com/unkn0wn-root/infracache/database"
)

const (
	EnvPrefix = "APP"

	// DBConnectionName is the connection string the database handle requires.
	DBConnectionName = "CleanArchitectureDb"
	// DefaultInstanceName prefixes every cache key.
	DefaultInstanceName = "CleanArchitecture"
	DefaultRedis        = "localhost:6379"
)

// CacheBackend names the store behind the cache facade.
type CacheBackend string

const (
	BackendRedis     CacheBackend = "redis"
	BackendRistretto CacheBackend = "ristretto"
	BackendBigcache  CacheBackend = "bigcache"
	BackendBolt      CacheBackend = "bolt"
)

func (b CacheBackend) Valid() bool {
	switch b {
	case BackendRedis, BackendRistretto, BackendBigcache, BackendBolt:
		return true
	}
	return false
}

type Config struct {
	ConnectionStrings ConnectionStrings `mapstructure:"connectionstrings"`
	Database          Database          `mapstructure:"database"`
	Cache             Cache             `mapstructure:"cache"`
	Identity          Identity          `mapstructure:"identity"`
	Log               Log               `mapstructure:"log"`
	Telemetry         Telemetry         `mapstructure:"telemetry"`
}

type ConnectionStrings struct {
	CleanArchitectureDb string `mapstructure:"cleanarchitecturedb"`
	Redis               string `mapstructure:"redis"`
}

type Database struct {
	Provider        database.Provider `mapstructure:"provider"`
	MaxOpenConns    int               `mapstructure:"maxopenconns"`
	MaxIdleConns    int               `mapstructure:"maxidleconns"`
	ConnMaxLifetime time.Duration     `mapstructure:"connmaxlifetime"`
	ConnMaxIdleTime time.Duration     `mapstructure:"connmaxidletime"`
	PingTimeout     time.Duration     `mapstructure:"pingtimeout"`
	LogQueries      bool              `mapstructure:"logqueries"`
}

// Options converts the pool settings for database.Open.
func (d Database) Options() database.Options {
	return database.Options{
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
		PingTimeout:     d.PingTimeout,
	}
}

type Cache struct {
	Enabled      bool          `mapstructure:"enabled"`
	Backend      CacheBackend  `mapstructure:"backend"`
	InstanceName string        `mapstructure:"instancename"`
	Format       codec.Format  `mapstructure:"format"`
	DefaultTTL   time.Duration `mapstructure:"defaultttl"`
	MaxPayload   int           `mapstructure:"maxpayload"`
	BoltPath     string        `mapstructure:"boltpath"`
	// MaxCostMB bounds the in-process backends (ristretto, bigcache).
	MaxCostMB int `mapstructure:"maxcostmb"`
	// LifeWindow is the longest any bigcache entry lives, "no expiry" included.
	LifeWindow time.Duration `mapstructure:"lifewindow"`
}

type Identity struct {
	TokenKey      string        `mapstructure:"tokenkey"`
	TokenLifetime time.Duration `mapstructure:"tokenlifetime"`
	// SeedAdministrator creates administrator@localhost on startup when absent.
	SeedAdministrator     bool   `mapstructure:"seedadministrator"`
	AdministratorPassword string `mapstructure:"administratorpassword"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type Telemetry struct {
	Tracing bool `mapstructure:"tracing"`
	Metrics bool `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("connectionstrings.cleanarchitecturedb", "")
	v.SetDefault("connectionstrings.redis", DefaultRedis)
	v.SetDefault("database.provider", string(database.SQLServer))
	v.SetDefault("database.maxopenconns", 0)
	v.SetDefault("database.maxidleconns", 0)
	v.SetDefault("database.connmaxlifetime", time.Duration(0))
	v.SetDefault("database.connmaxidletime", time.Duration(0))
	v.SetDefault("database.pingtimeout", 5*time.Second)
	v.SetDefault("database.logqueries", false)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", string(BackendRedis))
	v.SetDefault("cache.instancename", DefaultInstanceName)
	v.SetDefault("cache.format", string(codec.FormatJSON))
	v.SetDefault("cache.defaultttl", time.Duration(0))
	v.SetDefault("cache.maxpayload", 0)
	v.SetDefault("cache.boltpath", "")
	v.SetDefault("cache.maxcostmb", 64)
	v.SetDefault("cache.lifewindow", 24*time.Hour)
	v.SetDefault("identity.tokenkey", "")
	v.SetDefault("identity.tokenlifetime", time.Hour)
	v.SetDefault("identity.seedadministrator", true)
	v.SetDefault("identity.administratorpassword", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("telemetry.tracing", false)
	v.SetDefault("telemetry.metrics", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if not empty) and applies environment overrides. The
// result is not validated; call Validate.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return decode(v)
}

// LoadReader is Load for an in-memory document; format is "yaml", "json" or
// "toml".
func LoadReader(r io.Reader, format string) (Config, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", format, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}
