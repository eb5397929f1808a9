package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

// Config 应用配置结构
type Config struct {
	SSH       SSHConfig       `mapstructure:"ssh"`
	Detect    DetectConfig    `mapstructure:"detect"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Report    ReportConfig    `mapstructure:"report"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// SSHConfig 远程连接默认参数
type SSHConfig struct {
	Port           int           `mapstructure:"port"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	// SessionRetries 打开会话失败时的重试次数
	SessionRetries int `mapstructure:"session_retries"`
}

// DetectConfig 探测引擎参数
type DetectConfig struct {
	AutoOrder        []string      `mapstructure:"auto_order"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
}

// InventoryConfig 设备清单来源
type InventoryConfig struct {
	// Source infrahub | sqlite
	Source   string         `mapstructure:"source"`
	Infrahub InfrahubConfig `mapstructure:"infrahub"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

// InfrahubConfig Infrahub GraphQL 接口
type InfrahubConfig struct {
	URL         string        `mapstructure:"url"`
	Token       string        `mapstructure:"token"`
	Schema      string        `mapstructure:"schema"`
	TLSInsecure bool          `mapstructure:"tls_insecure"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ReportConfig 批量检查报告导出
type ReportConfig struct {
	// Backend local | minio；minio 写入失败时回落到本地
	Backend string            `mapstructure:"backend"`
	Prefix  string            `mapstructure:"prefix"`
	Local   LocalReportConfig `mapstructure:"local"`
	Minio   MinioConfig       `mapstructure:"minio"`
}

// LocalReportConfig 本地存储配置
type LocalReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// MinioConfig 对象存储配置
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	mu           sync.RWMutex
	v            *viper.Viper
	globalConfig *Config
)

// 沿用原工具的环境变量名；带 SYSVERS_ 前缀的写法优先
var envAliases = map[string][]string{
	"ssh.username":                    {"SYSVERS_SSH_USERNAME", "SSH_USERNAME"},
	"ssh.password":                    {"SYSVERS_SSH_PASSWORD", "SSH_PASSWORD"},
	"ssh.port":                        {"SYSVERS_SSH_PORT", "SSH_PORT"},
	"inventory.infrahub.url":          {"SYSVERS_INVENTORY_INFRAHUB_URL", "INFRAHUB_URL"},
	"inventory.infrahub.token":        {"SYSVERS_INVENTORY_INFRAHUB_TOKEN", "INFRAHUB_API_TOKEN"},
	"inventory.infrahub.schema":       {"SYSVERS_INVENTORY_INFRAHUB_SCHEMA", "INFRAHUB_DEVICE_SCHEMA"},
	"inventory.infrahub.tls_insecure": {"SYSVERS_INVENTORY_INFRAHUB_TLS_INSECURE", "INFRAHUB_TLS_INSECURE"},
}

// Load 加载配置文件。configPath 为空时按默认路径查找，找不到文件则只用默认值与环境变量。
func Load(configPath string) (*Config, error) {
	// .env 不存在不算错误；已存在的环境变量不会被覆盖
	_ = godotenv.Load()

	nv := viper.New()
	nv.SetConfigType("yaml")
	setDefaults(nv)

	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		nv.SetConfigName("config")
		nv.AddConfigPath("./configs")
		nv.AddConfigPath("../configs")
		nv.AddConfigPath("../../configs")
	}

	nv.SetEnvPrefix("SYSVERS")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	for key, envs := range envAliases {
		if err := nv.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := decode(nv)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	v = nv
	globalConfig = cfg
	mu.Unlock()
	return cfg, nil
}

func decode(nv *viper.Viper) (*Config, error) {
	var cfg Config
	if err := nv.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.AutoOrder(); err != nil {
		return nil, fmt.Errorf("invalid detect.auto_order: %w", err)
	}
	return &cfg, nil
}

func setDefaults(nv *viper.Viper) {
	nv.SetDefault("ssh.port", model.DefaultSSHPort)
	nv.SetDefault("ssh.connect_timeout", 30*time.Second)
	nv.SetDefault("ssh.command_timeout", 30*time.Second)
	nv.SetDefault("ssh.session_retries", 3)

	// 自动探测：网络设备优先，它们对 Unix 命令的回应最不可靠
	nv.SetDefault("detect.auto_order", []string{"cisco", "juniper", "ubiquiti", "linux", "macos", "windows"})
	nv.SetDefault("detect.probe_timeout", 10*time.Second)
	nv.SetDefault("detect.batch_concurrency", 8)

	nv.SetDefault("inventory.source", "infrahub")
	nv.SetDefault("inventory.infrahub.schema", "JeylanDevice")
	nv.SetDefault("inventory.infrahub.timeout", 30*time.Second)
	nv.SetDefault("inventory.sqlite.path", "./data/sysvers.db")
	nv.SetDefault("inventory.sqlite.max_idle_conns", 2)
	nv.SetDefault("inventory.sqlite.max_open_conns", 4)
	nv.SetDefault("inventory.sqlite.conn_max_lifetime", time.Hour)

	nv.SetDefault("report.backend", "local")
	nv.SetDefault("report.prefix", "sysvers")
	nv.SetDefault("report.local.dir", "./data/reports")
	nv.SetDefault("report.minio.port", 9000)
	nv.SetDefault("report.minio.bucket", "sysvers")

	nv.SetDefault("server.host", "0.0.0.0")
	nv.SetDefault("server.port", 8080)
	nv.SetDefault("server.mode", "release")
	nv.SetDefault("server.read_timeout", 60*time.Second)
	nv.SetDefault("server.write_timeout", 5*time.Minute)

	nv.SetDefault("log.level", "info")
	nv.SetDefault("log.format", "text")
	nv.SetDefault("log.output", "console")
	nv.SetDefault("log.file_path", "./logs/sysvers.log")
	nv.SetDefault("log.max_size", 100)
	nv.SetDefault("log.max_backups", 5)
	nv.SetDefault("log.max_age", 30)
}

// Get 获取全局配置
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Watch 监听配置文件变化，重新解析成功后回调；解析失败保留旧配置
func Watch(onChange func(*Config)) {
	mu.RLock()
	nv := v
	mu.RUnlock()
	if nv == nil || nv.ConfigFileUsed() == "" {
		return
	}

	nv.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(nv)
		if err != nil {
			logger.WithField("file", e.Name).Errorf("Failed to reload config: %v", err)
			return
		}
		mu.Lock()
		globalConfig = cfg
		mu.Unlock()
		logger.WithField("file", e.Name).Info("Config reloaded")
		if onChange != nil {
			onChange(cfg)
		}
	})
	nv.WatchConfig()
}

// AutoOrder 解析后的自动探测顺序
func (c *Config) AutoOrder() ([]model.Family, error) {
	return model.ParseFamilies(c.Detect.AutoOrder)
}

// ConnectionParams 以配置中的凭据与超时构造连接参数
func (c *Config) ConnectionParams(host string) model.ConnectionParams {
	return model.ConnectionParams{
		Host:           host,
		Port:           c.SSH.Port,
		Username:       c.SSH.Username,
		Password:       c.SSH.Password,
		CommandTimeout: c.SSH.CommandTimeout,
		ConnectTimeout: c.SSH.ConnectTimeout,
	}
}

// LoggerConfig 转换为 pkg/logger 的配置
func (c *Config) LoggerConfig(verbose bool) logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		Output:     c.Log.Output,
		FilePath:   c.Log.FilePath,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Verbose:    verbose,
	}
}

// GetServerAddr 获取服务器地址
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
