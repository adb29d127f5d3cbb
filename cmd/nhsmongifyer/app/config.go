package app

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. NHS_OUTPUT_DIR.
const EnvPrefix = "NHS"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Storage
	OutputDir string

	// Remote APIs
	NFZAPIURL   string
	GeoAPIURL   string
	APIVersion  string
	GeoapifyKey string
	HTTPTimeout time.Duration

	// Pagination and pacing
	PageLimit       int
	StartPage       int
	MaxPageAttempts int
	LookupDelay     time.Duration

	// Dedupe switches the geo and agreement collections to upserts
	Dedupe bool

	// MetricsFile receives a Prometheus textfile on shutdown
	MetricsFile string

	Elasticsearch ElasticsearchConfig
	Postgres      PostgresConfig
	Serve         ServeConfig
	Schedule      ScheduleConfig

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// ElasticsearchConfig enables the Elasticsearch loader when Addresses is set.
type ElasticsearchConfig struct {
	Addresses   []string
	IndexPrefix string
}

// PostgresConfig enables the PostgreSQL loader when DSN is set.
type PostgresConfig struct {
	DSN string
}

// ServeConfig configures the collections API.
type ServeConfig struct {
	Addr string
}

// ScheduleConfig holds the cron expression for scheduled runs.
type ScheduleConfig struct {
	Cron string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (NHS_*, GEOAPIFY_KEY)
// 3. .env files
// 4. Config file (configFile, or .nhsmongifyer.yaml in $HOME or .)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("geoapify_key", constants.GeoapifyKeyEnv); err != nil {
		return nil, errors.NewConfigError("env", "bind "+constants.GeoapifyKeyEnv, err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "read "+v.ConfigFileUsed(), err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		OutputDir: v.GetString("output_dir"),

		NFZAPIURL:   v.GetString("nfz_api_url"),
		GeoAPIURL:   v.GetString("geo_api_url"),
		APIVersion:  v.GetString("api_version"),
		GeoapifyKey: v.GetString("geoapify_key"),
		HTTPTimeout: v.GetDuration("http_timeout"),

		PageLimit:       v.GetInt("page_limit"),
		StartPage:       v.GetInt("start_page"),
		MaxPageAttempts: v.GetInt("max_page_attempts"),
		LookupDelay:     v.GetDuration("lookup_delay"),

		Dedupe:      v.GetBool("dedupe"),
		MetricsFile: v.GetString("metrics_file"),

		Elasticsearch: ElasticsearchConfig{
			Addresses:   splitList(v.GetStringSlice("elasticsearch.addresses")),
			IndexPrefix: v.GetString("elasticsearch.index_prefix"),
		},
		Postgres: PostgresConfig{DSN: v.GetString("postgres.dsn")},
		Serve:    ServeConfig{Addr: v.GetString("serve.addr")},
		Schedule: ScheduleConfig{Cron: v.GetString("schedule.cron")},

		// An empty level lets the -v/-q shortcuts apply.
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", constants.DefaultOutputDir)
	v.SetDefault("nfz_api_url", constants.NFZBaseURL)
	v.SetDefault("geo_api_url", constants.GeoapifyBaseURL)
	v.SetDefault("api_version", constants.NFZAPIVersion)
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("page_limit", constants.DefaultPageLimit)
	v.SetDefault("start_page", constants.DefaultStartPage)
	v.SetDefault("max_page_attempts", constants.DefaultMaxPageAttempts)
	v.SetDefault("lookup_delay", constants.DefaultLookupDelay)
	v.SetDefault("elasticsearch.index_prefix", constants.DefaultIndexPrefix)
	v.SetDefault("serve.addr", constants.DefaultServeAddr)
}

// UpdateFromFlags applies the persistent flags parsed by cobra so they take
// precedence over the config file and environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, outputDir string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if outputDir != "" {
		c.OutputDir = outputDir
	}
}

// Validate checks the values that cannot be checked by the components
// they configure.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.NewConfigError("output_dir", "must not be empty", nil))
	}
	for key, raw := range map[string]string{"nfz_api_url": c.NFZAPIURL, "geo_api_url": c.GeoAPIURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, errors.NewConfigError(key, "must be an absolute URL, got "+raw, err))
		}
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.NewConfigError("http_timeout", "must be positive", nil))
	}
	for _, addr := range c.Elasticsearch.Addresses {
		if u, err := url.Parse(addr); err != nil || u.Scheme == "" {
			errs = append(errs, errors.NewConfigError("elasticsearch.addresses", "invalid address "+addr, err))
		}
	}
	return errors.Join(errs...)
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are not overridden.
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// splitList flattens comma-separated entries, as env values arrive as one string.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
