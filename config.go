package astrolog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lixenwraith/config"
)

// Config holds all logger configuration values.
type Config struct {
	// Identity and formatting
	Name     string `toml:"name" validate:"required"`
	Template string `toml:"template" validate:"required"`

	// File destinations
	FilePrefix       string `toml:"file_prefix"`
	LogsDirectory    string `toml:"logs_directory" validate:"required"`
	CrashesDirectory string `toml:"crashes_directory" validate:"required"`

	// Filtering and routing
	MinSeverity   string `toml:"min_severity" validate:"required"`
	EnableConsole bool   `toml:"enable_console"`
	ConsoleTarget string `toml:"console_target" validate:"oneof=stdout stderr"`
	EnableFile    bool   `toml:"enable_file"`

	// Asynchronous dispatch
	Async            bool  `toml:"async"`
	QueueSize        int64 `toml:"queue_size" validate:"gt=0"`
	EnqueueWaitMs    int64 `toml:"enqueue_wait_ms" validate:"gte=0"`
	MaxRecordsPerSec int64 `toml:"max_records_per_sec" validate:"gte=0"`

	// Shared file access
	WriteTimeoutMs int64 `toml:"write_timeout_ms" validate:"gte=0"`

	// Rotation limits, 0 disables the policy
	MaxLogFiles   int64 `toml:"max_log_files" validate:"gte=0"`
	MaxCrashFiles int64 `toml:"max_crash_files" validate:"gte=0"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Name:     "astro",
	Template: DefaultTemplate,

	FilePrefix:       DefaultFilePrefix,
	LogsDirectory:    "./logs",
	CrashesDirectory: "./crashes",

	MinSeverity:   "Info",
	EnableConsole: true,
	ConsoleTarget: "stdout",
	EnableFile:    true,

	Async:            true,
	QueueSize:        1024,
	EnqueueWaitMs:    50,
	MaxRecordsPerSec: 0,

	WriteTimeoutMs: 250,

	MaxLogFiles:   10,
	MaxCrashFiles: 10,

	InternalErrorsToStderr: false,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// Validate checks struct rules plus the cross-field constraints the tag
// language cannot express. An invalid or empty file prefix is not an error:
// it falls back to the default literal at use sites.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}
	if _, err := ParseSeverity(c.MinSeverity); err != nil {
		return err
	}
	if !c.EnableConsole && !c.EnableFile {
		return fmtErrorf("no destinations enabled (enable_console and enable_file both false)")
	}
	return nil
}

// minSeverity resolves the configured severity floor. Validate has already
// rejected unparseable values.
func (c *Config) minSeverity() Severity {
	severity, err := ParseSeverity(c.MinSeverity)
	if err != nil {
		return SeverityInfo
	}
	return severity
}

// destinations builds the destination mask from the enable flags.
func (c *Config) destinations() Destination {
	var d Destination
	if c.EnableConsole {
		d |= DestConsole
	}
	if c.EnableFile {
		d |= DestFile
	}
	return d
}

// NewConfigFromFile loads configuration from a TOML file and returns a
// validated Config. Missing files yield the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct("astrolog.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}
	if err := extractConfig(loader, "astrolog.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig copies loaded values into the Config struct by toml tag.
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}
		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}
		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// applyConfigField applies a single "key=value" style override by toml tag.
func applyConfigField(cfg *Config, key, value string) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") != key {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(value)
		case reflect.Int64:
			var parsed int64
			if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil {
				return fmtErrorf("invalid value for %s: '%s'", key, value)
			}
			field.SetInt(parsed)
		case reflect.Bool:
			switch strings.ToLower(value) {
			case "true":
				field.SetBool(true)
			case "false":
				field.SetBool(false)
			default:
				return fmtErrorf("invalid boolean for %s: '%s'", key, value)
			}
		}
		return nil
	}
	return fmtErrorf("unknown config key: %s", key)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// NewConfigFromDefaults creates a Config from the defaults with "key=value"
// overrides applied on top.
func NewConfigFromDefaults(overrides ...string) (*Config, error) {
	cfg := DefaultConfig()
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			return nil, err
		}
		if err := applyConfigField(cfg, key, value); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
