package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key     string
	EnvVar  string
	Value   string
	Default string
}

// Changed reports whether the effective value differs from the built-in
// default.
func (k KeyInfo) Changed() bool { return k.Value != k.Default }

// ShowAll returns every config key with its effective and default value.
func ShowAll(cfg Config) []KeyInfo {
	def := defaults()
	result := make([]KeyInfo, 0, len(specs))
	for _, s := range specs {
		result = append(result, KeyInfo{
			Key:     s.key,
			EnvVar:  s.env,
			Value:   fmt.Sprintf("%v", s.extract(cfg)),
			Default: fmt.Sprintf("%v", s.extract(def)),
		})
	}
	return result
}

// SetKey validates value against the key's type and writes it to the
// platform backend.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), key, value)
}

// UnsetKey removes a key from the platform backend so the default (or the
// environment) applies again.
func UnsetKey(key string) error {
	return unsetKeyWith(newPlatformBackend(), key)
}

func lookupSpec(key string) (keySpec, error) {
	for _, s := range specs {
		if s.key == key {
			return s, nil
		}
	}
	return keySpec{}, fmt.Errorf("unknown config key: %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
}

func setKeyWith(b ConfigBackend, key, value string) error {
	s, err := lookupSpec(key)
	if err != nil {
		return err
	}

	switch s.typ {
	case kInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		if key == "server.port" && (i <= 0 || i > 65535) {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", i)
		}
		return b.SetInt(key, i)
	case kBool:
		bv, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", key, err)
		}
		return b.SetString(key, strconv.FormatBool(bv))
	default:
		if key == "log.level" && !slices.Contains(logLevels, strings.ToLower(value)) {
			return fmt.Errorf("invalid log.level %q: want one of %s", value, strings.Join(logLevels, ", "))
		}
		if key == "storage.data_dir" && value == "" {
			return fmt.Errorf("storage.data_dir must not be empty")
		}
		return b.SetString(key, value)
	}
}

func unsetKeyWith(b ConfigBackend, key string) error {
	if _, err := lookupSpec(key); err != nil {
		return err
	}
	return b.Delete(key)
}

// ValidKeys returns the list of valid config key names.
func ValidKeys() []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}
