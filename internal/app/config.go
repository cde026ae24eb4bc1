package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath 为未显式指定时读取的配置文件，不存在时使用默认值。
const DefaultConfigPath = "configs/config.yaml"

// DefaultEnvFile 为默认的凭据覆盖文件，不存在时忽略。
const DefaultEnvFile = ".env"

type NewRelic struct {
	Endpoint          string  `yaml:"endpoint"`
	AccountID         int     `yaml:"account_id"`
	APIKey            string  `yaml:"api_key"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type Retry struct {
	Attempts       int `yaml:"attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
}

type Sync struct {
	MaxPages      int    `yaml:"max_pages"`
	ParallelFetch bool   `yaml:"parallel_fetch"`
	Retry         Retry  `yaml:"retry"`
	JobCron       string `yaml:"cron"`
	InitialExport bool   `yaml:"initial_export"`
}

type Output struct {
	Dir             string `yaml:"dir"`
	MetricsTextfile string `yaml:"metrics_textfile"`
	PushgatewayURL  string `yaml:"pushgateway_url"`
}

type Neo4j struct {
	URI                  string `yaml:"uri"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	Database             string `yaml:"database"`
	MaxConnectionPool    int    `yaml:"max_connections"`
	ConnectTimeoutSecond int    `yaml:"connect_timeout_second"`
	BatchSize            int    `yaml:"batch_size"`
}

type HTTP struct {
	Listen string `yaml:"listen"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	NewRelic NewRelic `yaml:"newrelic"`
	Sync     Sync     `yaml:"sync"`
	Output   Output   `yaml:"output"`
	Neo4j    Neo4j    `yaml:"neo4j"`
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
}

// DefaultConfig 返回所有字段的默认值。
func DefaultConfig() Config {
	return Config{
		NewRelic: NewRelic{
			Endpoint:          "https://api.newrelic.com/graphql",
			TimeoutSeconds:    30,
			RequestsPerSecond: 5,
		},
		Sync: Sync{
			MaxPages:      1000,
			ParallelFetch: true,
			Retry:         Retry{Attempts: 3, BackoffSeconds: 1},
			JobCron:       "0 7 * * *",
		},
		Output: Output{Dir: "."},
		Neo4j:  Neo4j{BatchSize: 100},
		HTTP:   HTTP{Listen: ":8080"},
		Log:    Log{Level: "info", Format: "console"},
	}
}

// ConfigurationError 表示缺失或非法的配置项，在任何网络请求之前返回。
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// LoadConfig 读取 yaml 配置并叠加环境变量/.env 中的凭据。
// path 为空时读取 DefaultConfigPath，文件不存在视为使用默认值；显式指定的文件必须存在。
// envFile 规则相同。LoadConfig 不做校验，调用方按需调用 Validate。
func LoadConfig(path, envFile string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(envFile); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv 使用 viper 读取 .env 与进程环境变量，非空值覆盖文件配置，环境变量优先于 .env。
func (c *Config) applyEnv(envFile string) error {
	v := viper.New()
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if explicit {
			return fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}
	v.AutomaticEnv()

	overlay := func(key string, dst *string) {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			*dst = s
		}
	}
	overlay("NEW_RELIC_API_KEY", &c.NewRelic.APIKey)
	overlay("NEW_RELIC_ENDPOINT", &c.NewRelic.Endpoint)
	overlay("NEO4J_URI", &c.Neo4j.URI)
	overlay("NEO4J_USERNAME", &c.Neo4j.Username)
	overlay("NEO4J_PASSWORD", &c.Neo4j.Password)

	if s := strings.TrimSpace(v.GetString("NEW_RELIC_ACCOUNT_ID")); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return &ConfigurationError{Field: "NEW_RELIC_ACCOUNT_ID", Reason: fmt.Sprintf("not an integer: %q", s)}
		}
		c.NewRelic.AccountID = id
	}
	return nil
}

// Validate 校验导出所需的配置，返回的错误可用 errors.As 取出 *ConfigurationError。
func (c Config) Validate() error {
	var errs []error
	add := func(field, reason string) {
		errs = append(errs, &ConfigurationError{Field: field, Reason: reason})
	}

	if strings.TrimSpace(c.NewRelic.APIKey) == "" {
		add("newrelic.api_key", "required (set NEW_RELIC_API_KEY)")
	}
	if c.NewRelic.AccountID <= 0 {
		add("newrelic.account_id", "must be a positive integer (set NEW_RELIC_ACCOUNT_ID)")
	}
	if u, err := url.Parse(c.NewRelic.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("newrelic.endpoint", fmt.Sprintf("not an http(s) URL: %q", c.NewRelic.Endpoint))
	}
	if c.NewRelic.RequestsPerSecond < 0 {
		add("newrelic.requests_per_second", "must not be negative")
	}
	if c.Sync.MaxPages <= 0 {
		add("sync.max_pages", "must be positive")
	}
	if c.Sync.Retry.Attempts <= 0 {
		add("sync.retry.attempts", "must be positive")
	}
	if c.Sync.Retry.BackoffSeconds < 0 {
		add("sync.retry.backoff_seconds", "must not be negative")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		add("output.dir", "required")
	}
	return errors.Join(errs...)
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.NewRelic.TimeoutSeconds) * time.Second
}

func (c Config) Backoff() time.Duration {
	return time.Duration(c.Sync.Retry.BackoffSeconds) * time.Second
}

// GraphEnabled 表示是否配置了 Neo4j。
func (c Config) GraphEnabled() bool {
	return strings.TrimSpace(c.Neo4j.URI) != ""
}
