// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config // import "lettre.app/internal/config"

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"
	"time"
)

const defaultDatabaseURL = "user=postgres password=postgres dbname=lettre " +
	"sslmode=disable"

// Option contains a key to value map of a single option. It may be used to
// output debug strings.
type Option struct {
	Key   string
	Value any
}

// Options contains configuration options.
type Options struct {
	// Newsletters are optional bootstrap subscriptions loaded from the YAML
	// configuration file. They are upserted into the database at daemon
	// startup.
	Newsletters []NewsletterSeed `yaml:"newsletters" validate:"dive"`

	env EnvOptions
}

// NewsletterSeed declares a newsletter subscription in the YAML
// configuration file.
type NewsletterSeed struct {
	Name            string `yaml:"name"              validate:"required"`
	LabelID         string `yaml:"label_id"          validate:"required"`
	LabelName       string `yaml:"label_name"`
	IntervalMinutes int    `yaml:"interval_minutes"  validate:"omitempty,min=1"`
	AutoFetch       bool   `yaml:"auto_fetch"`
}

type EnvOptions struct {
	LogFile          string `env:"LOG_FILE" validate:"required"`
	LogDateTime      bool   `env:"LOG_DATE_TIME"`
	LogFormat        string `env:"LOG_FORMAT" validate:"required,oneof=human json text"`
	LogLevel         string `env:"LOG_LEVEL" validate:"required,oneof=debug info warning error"`
	Logging          []Log  `envPrefix:"LOG" validate:"dive,required"`
	DatabaseURL      string `env:"DATABASE_URL" validate:"required"`
	DatabaseURLFile  *string `env:"DATABASE_URL_FILE,file"`
	DatabaseMaxConns int    `env:"DATABASE_MAX_CONNS" validate:"min=1"`
	DatabaseMinConns int    `env:"DATABASE_MIN_CONNS" validate:"min=0"`
	DatabaseConnectionLifetime int `env:"DATABASE_CONNECTION_LIFETIME" validate:"gt=0"`
	RunMigrations    bool   `env:"RUN_MIGRATIONS"`

	DisableHttpService bool   `env:"DISABLE_HTTP_SERVICE"`
	DisableScheduler   bool   `env:"DISABLE_SCHEDULER_SERVICE"`
	ListenAddr         string `env:"LISTEN_ADDR" validate:"required,hostname|hostname_port"`
	Port               string `env:"PORT"`
	HttpServerTimeout  int    `env:"HTTP_SERVER_TIMEOUT" validate:"min=1"`

	FetchQueueDelay      int `env:"FETCH_QUEUE_DELAY" validate:"min=0"`
	DefaultFetchInterval int `env:"DEFAULT_FETCH_INTERVAL" validate:"min=1"`
	MisfireGraceTime     int `env:"MISFIRE_GRACE_TIME" validate:"min=0"`
	BatchSize            int `env:"BATCH_SIZE" validate:"min=1"`

	GmailClientID         string  `env:"GMAIL_CLIENT_ID"`
	GmailClientIDFile     *string `env:"GMAIL_CLIENT_ID_FILE,file"`
	GmailClientSecret     string  `env:"GMAIL_CLIENT_SECRET"`
	GmailClientSecretFile *string `env:"GMAIL_CLIENT_SECRET_FILE,file"`
	GmailClientTimeout    int     `env:"GMAIL_CLIENT_TIMEOUT" validate:"min=1"`
	GmailRateLimit        float64 `env:"GMAIL_RATE_LIMIT" validate:"min=0"`

	CredentialsKey     string  `env:"CREDENTIALS_KEY"`
	CredentialsKeyFile *string `env:"CREDENTIALS_KEY_FILE,file"`

	MetricsCollector       bool     `env:"METRICS_COLLECTOR"`
	MetricsRefreshInterval int      `env:"METRICS_REFRESH_INTERVAL" validate:"min=1"`
	MetricsAllowedNetworks []string `env:"METRICS_ALLOWED_NETWORKS" validate:"dive,required"`
}

type Log struct {
	LogFile     string `env:"FILE" validate:"required"`
	LogDateTime bool   `env:"DATE_TIME"`
	LogFormat   string `env:"FORMAT" validate:"required,oneof=human json text"`
	LogLevel    string `env:"LEVEL" validate:"required,oneof=debug info warning error"`
}

// NewOptions returns Options with default values.
func NewOptions() *Options {
	maxConns := max(4, runtime.GOMAXPROCS(0))

	return &Options{
		env: EnvOptions{
			LogFile:                    "stderr",
			LogFormat:                  "text",
			LogLevel:                   "info",
			DatabaseURL:                defaultDatabaseURL,
			DatabaseMaxConns:           maxConns,
			DatabaseMinConns:           0,
			DatabaseConnectionLifetime: 60,
			ListenAddr:                 "127.0.0.1:8080",
			HttpServerTimeout:          300,
			FetchQueueDelay:            5,
			DefaultFetchInterval:       1440,
			MisfireGraceTime:           5,
			BatchSize:                  100,
			GmailClientTimeout:         30,
			GmailRateLimit:             5,
			MetricsRefreshInterval:     60,
			MetricsAllowedNetworks:     []string{"127.0.0.1/8"},
		},
	}
}

func (o *Options) init() error {
	env := &o.env
	for _, s := range []*string{
		env.DatabaseURLFile,
		env.GmailClientIDFile,
		env.GmailClientSecretFile,
		env.CredentialsKeyFile,
	} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}

	if env.DatabaseURLFile != nil {
		env.DatabaseURL = *env.DatabaseURLFile
	}
	if env.GmailClientIDFile != nil {
		env.GmailClientID = *env.GmailClientIDFile
	}
	if env.GmailClientSecretFile != nil {
		env.GmailClientSecret = *env.GmailClientSecretFile
	}
	if env.CredentialsKeyFile != nil {
		env.CredentialsKey = *env.CredentialsKeyFile
	}

	if len(env.Logging) == 0 {
		env.Logging = []Log{{
			LogFile:     env.LogFile,
			LogDateTime: env.LogDateTime,
			LogFormat:   env.LogFormat,
			LogLevel:    env.LogLevel,
		}}
	}

	for i := range o.Newsletters {
		seed := &o.Newsletters[i]
		if seed.IntervalMinutes == 0 {
			seed.IntervalMinutes = env.DefaultFetchInterval
		}
		if seed.LabelName == "" {
			seed.LabelName = seed.Name
		}
	}
	return o.Validate()
}

func (o *Options) Validate() error {
	// The env field is unexported, the validator can't descend into it on
	// its own.
	if err := Validator().Struct(&o.env); err != nil {
		return fmt.Errorf("config: failed validate: %w", err)
	}
	if err := Validator().Struct(o); err != nil {
		return fmt.Errorf("config: failed validate: %w", err)
	}
	return nil
}

func (o *Options) Logging() []Log { return o.env.Logging }

// SetLogLevel sets the log level of every configured log output.
func (o *Options) SetLogLevel(level string) {
	o.env.LogLevel = level
	for i := range o.env.Logging {
		o.env.Logging[i].LogLevel = level
	}
}

func (o *Options) LogFile() string { return o.env.Logging[0].LogFile }

// LogDateTime returns true if the date/time should be displayed in log
// messages.
func (o *Options) LogDateTime() bool { return o.env.Logging[0].LogDateTime }

// LogFormat returns the log format.
func (o *Options) LogFormat() string { return o.env.Logging[0].LogFormat }

// LogLevel returns the log level.
func (o *Options) LogLevel() string { return o.env.Logging[0].LogLevel }

// DatabaseURL returns the database URL.
func (o *Options) DatabaseURL() string { return o.env.DatabaseURL }

// DatabaseMaxConns returns the maximum number of database connections.
func (o *Options) DatabaseMaxConns() int { return o.env.DatabaseMaxConns }

// DatabaseMinConns returns the minimum number of database connections.
func (o *Options) DatabaseMinConns() int { return o.env.DatabaseMinConns }

// DatabaseConnectionLifetime returns the maximum amount of time a connection
// may be reused.
func (o *Options) DatabaseConnectionLifetime() time.Duration {
	return time.Duration(o.env.DatabaseConnectionLifetime) * time.Minute
}

// RunMigrations returns true if the SQL migrations should be executed at
// startup.
func (o *Options) RunMigrations() bool { return o.env.RunMigrations }

// HasHTTPService returns true if the HTTP API is enabled.
func (o *Options) HasHTTPService() bool { return !o.env.DisableHttpService }

// HasSchedulerService returns true if the scheduler is enabled.
func (o *Options) HasSchedulerService() bool { return !o.env.DisableScheduler }

// ListenAddr returns the listen address for the HTTP server.
func (o *Options) ListenAddr() string {
	if o.env.Port != "" {
		// Fly.io, Heroku and similar.
		return ":" + o.env.Port
	}
	return o.env.ListenAddr
}

// HTTPServerTimeout returns the time limit for reading and writing HTTP
// requests.
func (o *Options) HTTPServerTimeout() time.Duration {
	return time.Duration(o.env.HttpServerTimeout) * time.Second
}

// FetchQueueDelay returns the cool-down between two consecutive newsletter
// fetches.
func (o *Options) FetchQueueDelay() time.Duration {
	return time.Duration(o.env.FetchQueueDelay) * time.Second
}

// DefaultFetchInterval returns the default auto-fetch interval for a
// newsletter.
func (o *Options) DefaultFetchInterval() int {
	return o.env.DefaultFetchInterval
}

// MisfireGraceTime returns how late a scheduled fetch may fire before it's
// considered missed and skipped.
func (o *Options) MisfireGraceTime() time.Duration {
	return time.Duration(o.env.MisfireGraceTime) * time.Minute
}

// BatchSize returns the maximum number of messages fetched from Gmail per
// refresh.
func (o *Options) BatchSize() int { return o.env.BatchSize }

// GmailClientID returns the OAuth2 client ID for the Gmail API.
func (o *Options) GmailClientID() string { return o.env.GmailClientID }

// GmailClientSecret returns the OAuth2 client secret for the Gmail API.
func (o *Options) GmailClientSecret() string { return o.env.GmailClientSecret }

// GmailClientTimeout returns the time limit for requests to the Gmail API.
func (o *Options) GmailClientTimeout() time.Duration {
	return time.Duration(o.env.GmailClientTimeout) * time.Second
}

// GmailRateLimit returns the maximum number of Gmail API requests per second.
func (o *Options) GmailRateLimit() float64 { return o.env.GmailRateLimit }

// CredentialsKey returns the key used to encrypt OAuth tokens at rest.
func (o *Options) CredentialsKey() []byte {
	return []byte(o.env.CredentialsKey)
}

// HasMetricsCollector returns true if metrics collection is enabled.
func (o *Options) HasMetricsCollector() bool { return o.env.MetricsCollector }

// MetricsRefreshInterval returns the refresh interval for database metrics.
func (o *Options) MetricsRefreshInterval() time.Duration {
	return time.Duration(o.env.MetricsRefreshInterval) * time.Second
}

// MetricsAllowedNetworks returns the list of networks allowed to access the
// metrics endpoint.
func (o *Options) MetricsAllowedNetworks() []string {
	return o.env.MetricsAllowedNetworks
}

// NewsletterSeeds returns newsletters declared in the YAML configuration
// file.
func (o *Options) NewsletterSeeds() []NewsletterSeed { return o.Newsletters }

// SortedOptions returns a slice of Option pairs, sorted by keys.
func (o *Options) SortedOptions(redactSecret bool) []Option {
	keyValues := map[string]any{
		"BATCH_SIZE":                   o.env.BatchSize,
		"CREDENTIALS_KEY":              secretValue(o.env.CredentialsKey, redactSecret),
		"DATABASE_CONNECTION_LIFETIME": o.env.DatabaseConnectionLifetime,
		"DATABASE_MAX_CONNS":           o.env.DatabaseMaxConns,
		"DATABASE_MIN_CONNS":           o.env.DatabaseMinConns,
		"DATABASE_URL":                 secretValue(o.env.DatabaseURL, redactSecret),
		"DEFAULT_FETCH_INTERVAL":       o.env.DefaultFetchInterval,
		"DISABLE_HTTP_SERVICE":         o.env.DisableHttpService,
		"DISABLE_SCHEDULER_SERVICE":    o.env.DisableScheduler,
		"FETCH_QUEUE_DELAY":            o.env.FetchQueueDelay,
		"GMAIL_CLIENT_ID":              o.env.GmailClientID,
		"GMAIL_CLIENT_SECRET":          secretValue(o.env.GmailClientSecret, redactSecret),
		"GMAIL_CLIENT_TIMEOUT":         o.env.GmailClientTimeout,
		"GMAIL_RATE_LIMIT":             o.env.GmailRateLimit,
		"HTTP_SERVER_TIMEOUT":          o.env.HttpServerTimeout,
		"LISTEN_ADDR":                  o.env.ListenAddr,
		"LOG_DATE_TIME":                o.LogDateTime(),
		"LOG_FILE":                     o.LogFile(),
		"LOG_FORMAT":                   o.LogFormat(),
		"LOG_LEVEL":                    o.LogLevel(),
		"METRICS_ALLOWED_NETWORKS":     strings.Join(o.env.MetricsAllowedNetworks, ","),
		"METRICS_COLLECTOR":            o.env.MetricsCollector,
		"METRICS_REFRESH_INTERVAL":     o.env.MetricsRefreshInterval,
		"MISFIRE_GRACE_TIME":           o.env.MisfireGraceTime,
		"PORT":                         o.env.Port,
		"RUN_MIGRATIONS":               o.env.RunMigrations,
	}

	sortedKeys := slices.Sorted(maps.Keys(keyValues))
	sortedOptions := make([]Option, len(sortedKeys))
	for i, key := range sortedKeys {
		sortedOptions[i] = Option{Key: key, Value: keyValues[key]}
	}
	return sortedOptions
}

func secretValue(value string, redact bool) string {
	if redact && value != "" {
		return "******"
	}
	return value
}

func (o *Options) String() string {
	var builder strings.Builder
	for _, option := range o.SortedOptions(false) {
		fmt.Fprintf(&builder, "%s: %v\n", option.Key, option.Value)
	}
	return builder.String()
}
