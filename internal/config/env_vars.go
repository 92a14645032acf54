package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envVar            = "ENV"
	appNameVar        = "APP_NAME"
	listenAddrVar     = "LISTEN_ADDRESS"
	logLevelVar       = "LOG_LEVEL"
	proxyURLVar       = "PROXY_URL"
	redirectOriginVar = "REDIRECT_ORIGIN"
	httpTimeoutVar    = "HTTP_TIMEOUT"
	storeBackendVar   = "STORE_BACKEND"
	folderEnvVar      = "FOLDER"
	syncScheduleVar   = "SYNC_SCHEDULE"
	syncOnStartupVar  = "SYNC_ON_STARTUP"
	githubClientVar   = "GITHUB_CLIENT_ID"
	jiraClientVar     = "JIRA_CLIENT_ID"
	jiraScopesVar     = "JIRA_SCOPES"
	jiraRedirectVar   = "JIRA_REDIRECT_URI"
	allowedOriginsVar = "ALLOWED_ORIGINS"
	eventRateVar      = "EVENT_RATE"
	eventBurstVar     = "EVENT_BURST"
)

const (
	defaultEnv            = "DEV"
	defaultAppName        = "Viserion"
	defaultListenAddress  = "127.0.0.1:9090"
	defaultLogLevel       = "info"
	defaultProxyURL       = "http://localhost:8080"
	defaultRedirectOrigin = "http://localhost:8080"
	defaultHTTPTimeout    = 30 * time.Second
	defaultStoreBackend   = "badger"
	defaultDataFolder     = "./data"
	defaultSyncSchedule   = "@every 30m"
	defaultEventRate      = 5
	defaultEventBurst     = 10
)

var defaultJiraScopes = []string{"read:jira-work", "read:jira-user"}

type EnvVars struct {
	s Settings
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetEnv() string {
	return e.s.Env
}

func (e EnvVars) GetAppName() string {
	return e.s.AppName
}

func (e EnvVars) GetListenAddress() string {
	return e.s.ListenAddress
}

func (e EnvVars) GetLogLevel() string {
	return e.s.LogLevel
}

// GetProxyURL returns the base URL of the proxy API that exchanges codes and
// serves provider resources (e.g., "http://localhost:8080").
func (e EnvVars) GetProxyURL() string {
	return strings.TrimRight(e.s.ProxyURL, "/")
}

// GetRedirectOrigin returns the fixed origin every OAuth redirect lands on.
func (e EnvVars) GetRedirectOrigin() string {
	return strings.TrimRight(e.s.RedirectOrigin, "/")
}

func (e EnvVars) GetHTTPTimeout() time.Duration {
	return e.s.HTTPTimeout
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvList(envVar string, defaultValue []string) []string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvBool(envVar string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return b
}
