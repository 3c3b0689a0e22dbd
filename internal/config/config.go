package config

import "fmt"

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Seed    SeedConfig
}

type ServerConfig struct {
	Host       string
	Port       int
	CORSOrigin string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type SeedConfig struct {
	OnStart bool
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL returns the URL a local client uses to reach the server.
func (s ServerConfig) BaseURL() string {
	host := s.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:       "127.0.0.1",
			Port:       3001,
			CORSOrigin: "http://localhost:3000",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file and environment
// variables.
//
// The file lives at $XDG_CONFIG_HOME/folio/config.json on Linux and under
// ~/Library/Application Support/folio on macOS. Environment variables
// (FOLIO_*) override file values; PORT and CORS_ORIGIN are honored when
// the FOLIO_ variant is unset.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}
	if cfg.Storage.DataDir == "" {
		return Config{}, fmt.Errorf("missing required config: storage.data_dir")
	}

	return cfg, nil
}
