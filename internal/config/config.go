// Package config loads ClaimGuard configuration from tier defaults, an
// optional YAML file and CLAIMGUARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "CLAIMGUARD"

// ErrInvalidConfig is returned when a loaded configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load builds the configuration. Precedence, highest first: environment
// variables, the file at path (skipped when path is empty), then the
// defaults of the selected tier.
func Load(path string) (*domain.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	base := domain.DefaultConfig()
	if domain.Tier(strings.ToLower(v.GetString("tier"))) == domain.TierPro {
		base = domain.ProConfig()
	}
	setDefaults(v, "", reflect.ValueOf(*base))

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyAPIKeys(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every leaf of the default config with viper so
// AutomaticEnv can resolve overrides for keys absent from the file.
func setDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		key := strings.ToLower(field.Name)
		if prefix != "" {
			key = prefix + "." + key
		}

		fv := val.Field(i)
		if fv.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			setDefaults(v, key, fv)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}

// applyAPIKeys falls back to OPENAI_API_KEY for OpenAI-backed providers
// that have no key of their own.
func applyAPIKeys(cfg *domain.Config) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return
	}
	for _, p := range []*domain.ProviderConfig{&cfg.Extraction, &cfg.Review} {
		if p.Provider == "openai" && p.APIKey == "" {
			p.APIKey = key
		}
	}
}

// Validate checks the settings the server cannot start without.
func Validate(cfg *domain.Config) error {
	var errs []error

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", cfg.Server.Port))
	}
	if cfg.Policy.RulesPath == "" {
		errs = append(errs, errors.New("policy.rulesPath is required"))
	}
	if cfg.Tier != domain.TierCommunity && cfg.Tier != domain.TierPro {
		errs = append(errs, fmt.Errorf("unknown tier %q", cfg.Tier))
	}

	switch cfg.Repository.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported repository driver %q", cfg.Repository.Driver))
	}
	switch cfg.Cache.Type {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported cache type %q", cfg.Cache.Type))
	}
	switch cfg.EventBus.Type {
	case "channel", "nats":
	default:
		errs = append(errs, fmt.Errorf("unsupported event bus type %q", cfg.EventBus.Type))
	}

	switch cfg.Extraction.Provider {
	case "openai", "file", "mock", "":
	default:
		errs = append(errs, fmt.Errorf("unsupported extraction provider %q", cfg.Extraction.Provider))
	}
	switch cfg.Review.Provider {
	case "openai", "mock", "":
	default:
		errs = append(errs, fmt.Errorf("unsupported review provider %q", cfg.Review.Provider))
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.ExporterType {
		case "", "none":
		case "otlp":
			if cfg.Tracing.Endpoint == "" {
				errs = append(errs, errors.New("tracing.endpoint is required for the otlp exporter"))
			}
		default:
			errs = append(errs, fmt.Errorf("unsupported trace exporter %q", cfg.Tracing.ExporterType))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
