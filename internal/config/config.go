package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SyncConfig
	StoreConfig
	EventsConfig
}

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetListenAddress() string
	GetLogLevel() string
	GetProxyURL() string
	GetRedirectOrigin() string
	GetHTTPTimeout() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type StoreConfig interface {
	GetStoreBackend() string
	GetDataFolder() string
}

type EventsConfig interface {
	GetEventRate() float64
	GetEventBurst() int
}

// Settings holds fully resolved configuration values.
type Settings struct {
	Env            string        `validate:"required,oneof=DEV TEST PROD"`
	AppName        string        `validate:"required"`
	ListenAddress  string        `validate:"required,hostname_port"`
	LogLevel       string        `validate:"oneof=trace debug info warn error"`
	ProxyURL       string        `validate:"required,url"`
	RedirectOrigin string        `validate:"required,url"`
	HTTPTimeout    time.Duration `validate:"gt=0"`
	StoreBackend   string        `validate:"oneof=badger memory"`
	DataFolder     string        `validate:"required_if=StoreBackend badger"`
	SyncSchedule   string
	SyncOnStartup  bool
	GitHubClientID string
	JiraClientID   string
	JiraScopes     []string
	JiraRedirect   string  `validate:"omitempty,url"`
	AllowedOrigins []string
	EventRate      float64 `validate:"gt=0"`
	EventBurst     int     `validate:"gt=0"`
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Sync
	Store
	Events
}

// Load resolves configuration from an optional TOML file, environment
// variables and defaults, in that order of precedence: env > file > default.
func Load(path string) (Config, error) {
	f, err := readFile(path)
	if err != nil {
		return nil, err
	}
	s, err := resolve(f)
	if err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return fromSettings(s), nil
}

// Validate checks resolved settings.
func Validate(s Settings) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func fromSettings(s Settings) Config {
	return mainConfig{
		EnvVars: EnvVars{s: s},
		Cors:    newCors(s.AllowedOrigins),
		OAuth:   OAuth{s: s},
		Sync:    Sync{s: s},
		Store:   Store{s: s},
		Events:  Events{s: s},
	}
}

// FromSettings builds a Config from explicit settings, mostly for tests.
func FromSettings(s Settings) (Config, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	return fromSettings(s), nil
}
