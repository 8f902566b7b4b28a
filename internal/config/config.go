package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       App       `mapstructure:"app"`
	Database  Database  `mapstructure:"database"`
	Redis     Redis     `mapstructure:"redis"`
	Queue     Queue     `mapstructure:"queue"`
	Scrape    Scrape    `mapstructure:"scrape"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	ML        ML        `mapstructure:"ml"`
	API       API       `mapstructure:"api"`
	Cache     Cache     `mapstructure:"cache"`
}

// App holds general application configuration
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// Database holds the Postgres connection configuration
type Database struct {
	URL            string `mapstructure:"url"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
	Timeout        string `mapstructure:"timeout"`
}

// Redis holds Redis connection configuration. BrokerURL and ResultBackend
// fall back to URL when unset, matching the single-instance deployment.
type Redis struct {
	URL           string `mapstructure:"url"`
	BrokerURL     string `mapstructure:"broker_url"`
	ResultBackend string `mapstructure:"result_backend"`
}

// Queue holds task queue configuration
type Queue struct {
	TaskList   string `mapstructure:"task_list"`
	ResultTTL  string `mapstructure:"result_ttl"`
	Workers    int    `mapstructure:"workers"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// Scrape holds scraping configuration and feature flags
type Scrape struct {
	MaxArticles           int    `mapstructure:"max_articles"`
	FetchTimeout          string `mapstructure:"fetch_timeout"`
	MinDelay              string `mapstructure:"min_delay"`
	MaxDelay              string `mapstructure:"max_delay"`
	UseAdvHeaders         bool   `mapstructure:"use_adv_headers"`
	UseHumanDelay         bool   `mapstructure:"use_human_delay"`
	UseURLFilter          bool   `mapstructure:"use_url_filter"`
	RapplerLatestMaxPages int    `mapstructure:"rappler_latest_max_pages"`
}

// Scheduler holds per-source scrape intervals. Intervals are deliberately
// staggered so sources do not fire on the same tick.
type Scheduler struct {
	Intervals map[string]string `mapstructure:"intervals"`
}

// ML holds analysis configuration
type ML struct {
	UseEntityFunds     bool   `mapstructure:"use_entity_funds"`
	UseEntityAnalytics bool   `mapstructure:"use_entity_analytics"`
	LexiconPath        string `mapstructure:"lexicon_path"`
}

// API holds HTTP server configuration
type API struct {
	Addr       string `mapstructure:"addr"`
	AdminToken string `mapstructure:"admin_token"`
}

// Cache holds the read-endpoint Redis cache configuration
type Cache struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".pheye")
		viper.SetConfigType("yaml")
	}

	// Set defaults
	setDefaults()

	// Bind environment variables
	bindEnvironmentVariables()

	// Enable automatic environment variable reading
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal into struct
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Apply post-processing
	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	// Database defaults
	viper.SetDefault("database.timeout", "5s")

	// Redis defaults
	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	// Queue defaults
	viper.SetDefault("queue.task_list", "pheye:tasks")
	viper.SetDefault("queue.result_ttl", "1h")
	viper.SetDefault("queue.workers", 4)
	viper.SetDefault("queue.max_retries", 3)

	// Scrape defaults
	viper.SetDefault("scrape.max_articles", 3)
	viper.SetDefault("scrape.fetch_timeout", "30s")
	viper.SetDefault("scrape.min_delay", "12s")
	viper.SetDefault("scrape.max_delay", "25s")
	viper.SetDefault("scrape.use_adv_headers", false)
	viper.SetDefault("scrape.use_human_delay", false)
	viper.SetDefault("scrape.use_url_filter", false)
	viper.SetDefault("scrape.rappler_latest_max_pages", 1)

	// Scheduler defaults: staggered so no two sources share a tick boundary
	viper.SetDefault("scheduler.intervals", map[string]string{
		"rappler":         "60m",
		"gma":             "65m",
		"philstar":        "70m",
		"inquirer":        "75m",
		"manila_bulletin": "80m",
		"manila_times":    "85m",
		"sunstar":         "90m",
	})

	// ML defaults
	viper.SetDefault("ml.use_entity_funds", false)
	viper.SetDefault("ml.use_entity_analytics", false)

	// API defaults
	viper.SetDefault("api.addr", ":8000")

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", "5m")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Postgres connection - support Supabase-era names
	bindEnvKeys("database.url", []string{
		"DATABASE_URL",
		"SUPABASE_DB_URL",
		"SUPABASE_URL",
	})

	bindEnvKeys("database.service_role_key", []string{
		"SUPABASE_SERVICE_ROLE_KEY",
	})

	// Redis: broker and result backend default to the main URL
	bindEnvKeys("redis.url", []string{
		"REDIS_URL",
	})

	bindEnvKeys("redis.broker_url", []string{
		"CELERY_BROKER_URL",
		"BROKER_URL",
	})

	bindEnvKeys("redis.result_backend", []string{
		"CELERY_RESULT_BACKEND",
		"RESULT_BACKEND",
	})

	// API admin auth
	bindEnvKeys("api.admin_token", []string{
		"ADMIN_TOKEN",
	})

	bindEnvKeys("api.addr", []string{
		"API_ADDR",
	})

	// Scrape feature flags
	bindEnvKeys("scrape.use_adv_headers", []string{
		"USE_ADV_HEADERS",
	})

	bindEnvKeys("scrape.use_human_delay", []string{
		"USE_HUMAN_DELAY",
	})

	bindEnvKeys("scrape.use_url_filter", []string{
		"USE_URL_FILTER",
	})

	bindEnvKeys("scrape.rappler_latest_max_pages", []string{
		"RAPPLER_LATEST_MAX_PAGES",
	})

	// ML feature flags
	bindEnvKeys("ml.use_entity_funds", []string{
		"USE_SPACY_FUNDS",
	})

	bindEnvKeys("ml.use_entity_analytics", []string{
		"USE_SPACY_ANALYTICS",
	})

	bindEnvKeys("ml.lexicon_path", []string{
		"LEXICON_PATH",
	})

	// General settings
	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"PHEYE_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.Redis.BrokerURL == "" {
		config.Redis.BrokerURL = config.Redis.URL
	}
	if config.Redis.ResultBackend == "" {
		config.Redis.ResultBackend = config.Redis.BrokerURL
	}

	// Validate durations
	durations := map[string]string{
		"database.timeout":     config.Database.Timeout,
		"queue.result_ttl":     config.Queue.ResultTTL,
		"scrape.fetch_timeout": config.Scrape.FetchTimeout,
		"scrape.min_delay":     config.Scrape.MinDelay,
		"scrape.max_delay":     config.Scrape.MaxDelay,
		"cache.ttl":            config.Cache.TTL,
	}
	for source, interval := range config.Scheduler.Intervals {
		durations["scheduler.intervals."+source] = interval
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	if config.Database.URL == "" {
		errors = append(errors, "database URL is required. Set DATABASE_URL (or SUPABASE_DB_URL) or database.url in the config file")
	}

	if config.Queue.Workers < 1 {
		errors = append(errors, fmt.Sprintf("queue.workers must be at least 1, got %d", config.Queue.Workers))
	}

	if config.Scrape.MinDelay != "" && config.Scrape.MaxDelay != "" {
		minD, errMin := time.ParseDuration(config.Scrape.MinDelay)
		maxD, errMax := time.ParseDuration(config.Scrape.MaxDelay)
		if errMin == nil && errMax == nil {
			if minD <= 0 {
				errors = append(errors, "scrape.min_delay must be positive")
			}
			if maxD < minD {
				errors = append(errors, "scrape.max_delay must not be less than scrape.min_delay")
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Convenience getters for commonly used configuration values
func GetApp() App             { return Get().App }
func GetDatabase() Database   { return Get().Database }
func GetRedis() Redis         { return Get().Redis }
func GetQueue() Queue         { return Get().Queue }
func GetScrape() Scrape       { return Get().Scrape }
func GetScheduler() Scheduler { return Get().Scheduler }
func GetML() ML               { return Get().ML }
func GetAPI() API             { return Get().API }
func GetCacheConfig() Cache   { return Get().Cache }

// Specific convenience getters for frequently accessed values
func GetDatabaseURL() string { return Get().Database.URL }
func GetRedisURL() string    { return Get().Redis.URL }
func GetAdminToken() string  { return Get().API.AdminToken }
func IsDebugMode() bool      { return Get().App.Debug }

// CacheTTL returns the parsed read-cache TTL, falling back to five minutes.
func CacheTTL() time.Duration {
	ttl, err := time.ParseDuration(Get().Cache.TTL)
	if err != nil || ttl <= 0 {
		return 5 * time.Minute
	}
	return ttl
}

// SourceInterval returns the scrape interval configured for a source, or
// zero when the source is not scheduled.
func SourceInterval(source string) time.Duration {
	raw, ok := Get().Scheduler.Intervals[source]
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
