package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the sync service
type Config struct {
	Logging       LoggingConfig       `mapstructure:"logging"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Jobs          []JobConfig         `mapstructure:"jobs" validate:"dive"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig holds cache configuration. Backend selects the store
// implementation: "file" (default) or "redis".
type CacheConfig struct {
	Backend string      `mapstructure:"backend" validate:"omitempty,oneof=file redis"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings for the redis cache backend
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MetricsConfig holds metrics exposition configuration
type MetricsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listen_address"`
}

// NotificationsConfig holds error-threshold notification settings
type NotificationsConfig struct {
	ErrorThreshold int      `mapstructure:"error_threshold"`
	SMTPHost       string   `mapstructure:"smtp_host"`
	SMTPPort       int      `mapstructure:"smtp_port"`
	SMTPUsername   string   `mapstructure:"smtp_username"`
	SMTPPassword   string   `mapstructure:"smtp_password"`
	From           string   `mapstructure:"from"`
	To             []string `mapstructure:"to"`
}

// JobConfig describes one directory sync job: where to read users from
// and which output streams to write them to.
type JobConfig struct {
	Name              string            `mapstructure:"name" validate:"required"`
	Domain            string            `mapstructure:"domain" validate:"required"`
	Ou                string            `mapstructure:"ou"`
	LdapQuery         string            `mapstructure:"ldap_query"`
	Username          string            `mapstructure:"username"`
	Password          string            `mapstructure:"password"`
	IntervalSeconds   int               `mapstructure:"interval_seconds"`
	RemoveGroupPrefix string            `mapstructure:"remove_group_prefix"`
	AllowedGroups     []string          `mapstructure:"allowed_groups"`
	Attributes        []AttributeConfig `mapstructure:"attributes"`
	OutputStreams     []StreamConfig    `mapstructure:"output_streams" validate:"min=1,dive"`
}

// AttributeConfig describes one directory attribute to read for each user
type AttributeConfig struct {
	Name           string `mapstructure:"name" validate:"required"`
	Alias          string `mapstructure:"alias"`
	Filter         string `mapstructure:"filter"`
	IncludeInQuery *bool  `mapstructure:"include_in_query"`
}

// StreamConfig describes one output stream of a job: the registered stream
// type, its settings bag and the ordered field mapping rules.
type StreamConfig struct {
	Name     string            `mapstructure:"name" validate:"required"`
	Settings map[string]string `mapstructure:"settings"`
	Mapping  []MappingRule     `mapstructure:"mapping" validate:"dive"`
}

// MappingRule maps a directory attribute template to a destination field
type MappingRule struct {
	From string `mapstructure:"from" validate:"required"`
	To   string `mapstructure:"to" validate:"required"`
	Type string `mapstructure:"type"`
}

// ConfigurationError indicates the loaded configuration cannot support a run
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Setting returns the named stream setting or the supplied default when the
// setting is absent or empty.
func (s *StreamConfig) Setting(name, def string) string {
	if v, ok := s.Settings[name]; ok && v != "" {
		return v
	}
	return def
}

// QueryAttributes returns the attribute names that should be requested from
// the directory. Attributes explicitly excluded from the query are skipped.
func (j *JobConfig) QueryAttributes() []string {
	var names []string
	for _, attr := range j.Attributes {
		if attr.IncludeInQuery != nil && !*attr.IncludeInQuery {
			continue
		}
		names = append(names, attr.Name)
	}
	return names
}

// SetConfigFile points the loader at an explicit configuration file
// instead of the default search paths
func SetConfigFile(path string) {
	viper.SetConfigFile(path)
}

// LoadConfig loads configuration from environment and config files
func LoadConfig() (*Config, error) {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("cache.backend", "file")
	viper.SetDefault("cache.dir", ".")
	viper.SetDefault("cache.redis.host", "localhost")
	viper.SetDefault("cache.redis.port", 6379)
	viper.SetDefault("cache.redis.db", 0)
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen_address", ":9184")
	viper.SetDefault("notifications.error_threshold", 0)
	viper.SetDefault("notifications.smtp_port", 25)

	// SetConfigName clears any file registered via SetConfigFile, so the
	// default search paths apply only when no explicit file was given.
	if viper.ConfigFileUsed() == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for structural errors that would make a
// run impossible; a job with no output streams is rejected up front.
func Validate(config *Config) error {
	for _, job := range config.Jobs {
		if len(job.OutputStreams) == 0 {
			return &ConfigurationError{
				Message: fmt.Sprintf("job %s must have at least one output stream defined", job.Name),
			}
		}
	}
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return &ConfigurationError{Message: err.Error()}
	}
	return nil
}
