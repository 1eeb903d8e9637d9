package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "quote-engine", Version: "1.0.0", Environment: "local"},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  DefaultMaxRequestSize,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Client: ClientConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      2.0,
				JitterFactor:    0.25,
			},
			CircuitBreaker: CircuitBreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenLimit: 3},
			Transport:      TransportConfig{MaxIdleConns: 100, MaxIdleConnsPerHost: 10, IdleConnTimeout: 90 * time.Second},
		},
		Services: ServicesConfig{
			Accounts: ServiceEndpointConfig{BaseURL: "https://crm.example.com", Name: "account-service"},
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "quotes.db", MaxOpenConns: 10, MaxIdleConns: 5},
		Serializers: SerializersConfig{
			Aliases: map[string]string{"spots": "broadcast-pattern"},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "memory store needs no dsn", mutate: func(c *Config) { c.Database.Driver = "memory"; c.Database.DSN = "" }},
		{name: "accounts directory optional", mutate: func(c *Config) { c.Services.Accounts.BaseURL = "" }},
		{
			name: "telemetry enabled with endpoint",
			mutate: func(c *Config) {
				c.Telemetry = TelemetryConfig{Enabled: true, Endpoint: "http://collector:4317", ServiceName: "q", SamplingRate: 0.5}
			},
		},
		{
			name:   "auth enabled with headers",
			mutate: func(c *Config) { c.Auth = AuthConfig{Enabled: true, SubjectHeader: "X-User-ID", RolesHeader: "X-User-Roles"} },
		},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: "app.name is required"},
		{name: "bad environment", mutate: func(c *Config) { c.App.Environment = "staging" }, wantErr: "app.environment must be one of"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port must be at most 65535"},
		{name: "short read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = time.Millisecond }, wantErr: "server.readtimeout must be at least"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level must be one of"},
		{
			name:    "log file without path",
			mutate:  func(c *Config) { c.Log.File = LogFileConfig{Enabled: true} },
			wantErr: "log.file.path is required when",
		},
		{
			name:    "telemetry without endpoint",
			mutate:  func(c *Config) { c.Telemetry = TelemetryConfig{Enabled: true, ServiceName: "q"} },
			wantErr: "telemetry.endpoint is required when",
		},
		{name: "sampling rate", mutate: func(c *Config) { c.Telemetry.SamplingRate = 1.5 }, wantErr: "telemetry.samplingrate must be at most 1"},
		{
			name:    "auth without subject header",
			mutate:  func(c *Config) { c.Auth = AuthConfig{Enabled: true, RolesHeader: "X-User-Roles"} },
			wantErr: "auth.subjectheader is required when",
		},
		{name: "retry attempts", mutate: func(c *Config) { c.Client.Retry.MaxAttempts = 11 }, wantErr: "client.retry.maxattempts must be at most 10"},
		{name: "retry multiplier", mutate: func(c *Config) { c.Client.Retry.Multiplier = 1 }, wantErr: "client.retry.multiplier must be at least 1.1"},
		{name: "jitter", mutate: func(c *Config) { c.Client.Retry.JitterFactor = 2 }, wantErr: "client.retry.jitterfactor must be at most 1"},
		{
			name:    "breaker failures",
			mutate:  func(c *Config) { c.Client.CircuitBreaker.MaxFailures = 0 },
			wantErr: "client.circuitbreaker.maxfailures is required",
		},
		{name: "accounts url", mutate: func(c *Config) { c.Services.Accounts.BaseURL = "not a url" }, wantErr: "services.accounts.baseurl must be a valid URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver must be one of: memory sqlite postgres"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: "database.dsn is required unless"},
		{
			name:    "idle pool larger than open pool",
			mutate:  func(c *Config) { c.Database.MaxIdleConns = 20 },
			wantErr: "database.maxidleconns must not exceed maxopenconns",
		},
		{
			name:    "blank serializer alias target",
			mutate:  func(c *Config) { c.Serializers.Aliases["flighting"] = " " },
			wantErr: "serializers.aliases has an empty alias or target",
		},
		{name: "connect retries", mutate: func(c *Config) { c.Database.ConnectRetries = 50 }, wantErr: "database.connectretries must be at most 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_ReportsAllFailures(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	cfg.Server.Port = 0
	cfg.Database.Driver = ""

	err := cfg.Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "app.name")
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "database.driver")
}

func TestFormatFieldPath(t *testing.T) {
	assert.Equal(t, "server.port", formatFieldPath("Config.Server.Port"))
	assert.Equal(t, "client.retry.maxattempts", formatFieldPath("Config.Client.Retry.MaxAttempts"))
	assert.Equal(t, "name", formatFieldPath("Name"))
}
