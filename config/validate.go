package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Validate validates config values and reports every issue at once.
func Validate(cfg Config) error {
	var issues []string

	if strings.TrimSpace(cfg.ConnectionStrings.CleanArchitectureDb) == "" {
		issues = append(issues, fmt.Sprintf("connection string '%s' not found", DBConnectionName))
	}
	if !cfg.Database.Provider.Valid() {
		issues = append(issues, "database.provider must be one of postgres|sqlite|sqlserver")
	}
	if cfg.Database.MaxOpenConns < 0 || cfg.Database.MaxIdleConns < 0 {
		issues = append(issues, "database pool sizes must be >= 0")
	}
	if cfg.Database.ConnMaxLifetime < 0 || cfg.Database.ConnMaxIdleTime < 0 || cfg.Database.PingTimeout < 0 {
		issues = append(issues, "database durations must be >= 0")
	}

	if cfg.Cache.Enabled {
		if !cfg.Cache.Backend.Valid() {
			issues = append(issues, "cache.backend must be one of redis|ristretto|bigcache|bolt")
		}
		if cfg.Cache.Format != "" && !cfg.Cache.Format.Valid() {
			issues = append(issues, "cache.format must be one of json|msgpack|cbor")
		}
		if cfg.Cache.DefaultTTL < 0 {
			issues = append(issues, "cache.defaultttl must be >= 0")
		}
		if cfg.Cache.MaxPayload < 0 {
			issues = append(issues, "cache.maxpayload must be >= 0")
		}
		if cfg.Cache.MaxCostMB < 0 {
			issues = append(issues, "cache.maxcostmb must be >= 0")
		}
		if cfg.Cache.Backend == BackendRedis && strings.TrimSpace(cfg.ConnectionStrings.Redis) == "" {
			issues = append(issues, "connection string 'Redis' is required by the redis cache backend")
		}
		if cfg.Cache.LifeWindow < 0 {
			issues = append(issues, "cache.lifewindow must be >= 0")
		}
		if cfg.Cache.Backend == BackendBigcache && cfg.Cache.LifeWindow > 0 && cfg.Cache.DefaultTTL > cfg.Cache.LifeWindow {
			issues = append(issues, "cache.defaultttl must not exceed cache.lifewindow for the bigcache backend")
		}
		if cfg.Cache.Backend == BackendBolt && cfg.Cache.BoltPath == "" {
			issues = append(issues, "cache.boltpath is required by the bolt cache backend")
		}
	}

	if len(cfg.Identity.TokenKey) < 32 {
		issues = append(issues, "identity.tokenkey must be at least 32 bytes")
	}
	if cfg.Identity.TokenLifetime <= 0 {
		issues = append(issues, "identity.tokenlifetime must be > 0")
	}

	if cfg.Log.Level != "" {
		if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
			issues = append(issues, "log.level must be one of debug|info|warn|error")
		}
	}
	if cfg.Log.Format != "" && !validLogFormat(cfg.Log.Format) {
		issues = append(issues, "log.format must be one of json|console")
	}

	if len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(issues, "; "))
	}
	return nil
}

func validLogFormat(format string) bool {
	switch strings.ToLower(format) {
	case "json", "console":
		return true
	default:
		return false
	}
}
