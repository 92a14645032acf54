package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// File is the on-disk TOML layout. Every field is optional.
type File struct {
	Env           string `toml:"env"`
	AppName       string `toml:"app_name"`
	ListenAddress string `toml:"listen_address"`
	LogLevel      string `toml:"log_level"`

	Proxy struct {
		URL     string `toml:"url"`
		Timeout string `toml:"timeout"`
	} `toml:"proxy"`

	Redirect struct {
		Origin string `toml:"origin"`
	} `toml:"redirect"`

	Store struct {
		Backend string `toml:"backend"`
		Folder  string `toml:"folder"`
	} `toml:"store"`

	Sync struct {
		Schedule  string `toml:"schedule"`
		OnStartup *bool  `toml:"on_startup"`
	} `toml:"sync"`

	GitHub struct {
		ClientID string `toml:"client_id"`
	} `toml:"github"`

	Jira struct {
		ClientID    string   `toml:"client_id"`
		Scopes      []string `toml:"scopes"`
		RedirectURI string   `toml:"redirect_uri"`
	} `toml:"jira"`

	Cors struct {
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"cors"`

	Events struct {
		Rate  float64 `toml:"rate"`
		Burst int     `toml:"burst"`
	} `toml:"events"`
}

func readFile(path string) (File, error) {
	var f File
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return f, nil
}

func or(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolve(f File) (Settings, error) {
	s := Settings{
		Env:            strings.ToUpper(GetEnv(envVar, or(f.Env, defaultEnv))),
		AppName:        GetEnv(appNameVar, or(f.AppName, defaultAppName)),
		ListenAddress:  GetEnv(listenAddrVar, or(f.ListenAddress, defaultListenAddress)),
		LogLevel:       strings.ToLower(GetEnv(logLevelVar, or(f.LogLevel, defaultLogLevel))),
		ProxyURL:       GetEnv(proxyURLVar, or(f.Proxy.URL, defaultProxyURL)),
		RedirectOrigin: GetEnv(redirectOriginVar, or(f.Redirect.Origin, defaultRedirectOrigin)),
		StoreBackend:   strings.ToLower(GetEnv(storeBackendVar, or(f.Store.Backend, defaultStoreBackend))),
		DataFolder:     GetEnv(folderEnvVar, or(f.Store.Folder, defaultDataFolder)),
		SyncSchedule:   GetEnv(syncScheduleVar, or(f.Sync.Schedule, defaultSyncSchedule)),
		GitHubClientID: GetEnv(githubClientVar, f.GitHub.ClientID),
		JiraClientID:   GetEnv(jiraClientVar, f.Jira.ClientID),
		JiraRedirect:   GetEnv(jiraRedirectVar, f.Jira.RedirectURI),
		JiraScopes:     getEnvList(jiraScopesVar, f.Jira.Scopes),
		AllowedOrigins: getEnvList(allowedOriginsVar, f.Cors.AllowedOrigins),
		EventRate:      f.Events.Rate,
		EventBurst:     f.Events.Burst,
		HTTPTimeout:    defaultHTTPTimeout,
	}

	if len(s.JiraScopes) == 0 {
		s.JiraScopes = defaultJiraScopes
	}

	onStartup := true
	if f.Sync.OnStartup != nil {
		onStartup = *f.Sync.OnStartup
	}
	s.SyncOnStartup = getEnvBool(syncOnStartupVar, onStartup)

	if timeout := GetEnv(httpTimeoutVar, f.Proxy.Timeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return s, fmt.Errorf("invalid http timeout %q: %w", timeout, err)
		}
		s.HTTPTimeout = d
	}

	if v := os.Getenv(eventRateVar); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("invalid %s %q: %w", eventRateVar, v, err)
		}
		s.EventRate = rate
	}
	if v := os.Getenv(eventBurstVar); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("invalid %s %q: %w", eventBurstVar, v, err)
		}
		s.EventBurst = burst
	}
	if s.EventRate == 0 {
		s.EventRate = defaultEventRate
	}
	if s.EventBurst == 0 {
		s.EventBurst = defaultEventBurst
	}

	return s, nil
}
