package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Serial    SerialConfig    `mapstructure:"serial"`
	Channel   ChannelConfig   `mapstructure:"channel"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Gate      GateConfig      `mapstructure:"gate"`
	Recipe    RecipeConfig    `mapstructure:"recipe"`
	Records   RecordsConfig   `mapstructure:"records"`
	Status    StatusConfig    `mapstructure:"status"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// SerialConfig 串口链路配置
type SerialConfig struct {
	BaudRate    int           `mapstructure:"baud_rate"`
	Retries     int           `mapstructure:"retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	OpenSettle  time.Duration `mapstructure:"open_settle"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// Simulate 指向 simulate.yaml 时使用模拟控制台设备代替真实串口
	Simulate string `mapstructure:"simulate"`
}

// ChannelConfig 命令通道配置
type ChannelConfig struct {
	LineTerminator string `mapstructure:"line_terminator"`
	// Completion 响应完成判定策略：fixed | idle | prompt
	Completion     string        `mapstructure:"completion"`
	DefaultSettle  time.Duration `mapstructure:"default_settle"`
	IdleWindow     time.Duration `mapstructure:"idle_window"`
	MaxWait        time.Duration `mapstructure:"max_wait"`
	PromptSuffixes []string      `mapstructure:"prompt_suffixes"`
	ErrorHints     []string      `mapstructure:"error_hints"`
	// EchoLines debug 级别下打印的回显首尾行数
	EchoLines int `mapstructure:"echo_lines"`
}

// InventoryConfig 序列号提取配置
type InventoryConfig struct {
	Platform string `mapstructure:"platform"`
	// Parser: regex | template
	Parser        string        `mapstructure:"parser"`
	MarkerPattern string        `mapstructure:"marker_pattern"`
	TemplatePath  string        `mapstructure:"template_path"`
	Settle        time.Duration `mapstructure:"settle"`
}

// GateConfig 身份校验配置
type GateConfig struct {
	// MatchPolicy: full | prefix6
	MatchPolicy string `mapstructure:"match_policy"`
}

// RecipeConfig 配置下发序列
type RecipeConfig struct {
	Platform     string        `mapstructure:"platform"`
	RSAModulus   int           `mapstructure:"rsa_modulus"`
	KeygenSettle time.Duration `mapstructure:"keygen_settle"`
	SaveSettle   time.Duration `mapstructure:"save_settle"`
}

// RecordsConfig 设备清单来源
type RecordsConfig struct {
	Path string `mapstructure:"path"`
}

// StatusConfig 接口状态采集配置
type StatusConfig struct {
	CSVPath string        `mapstructure:"csv_path"`
	Command string        `mapstructure:"command"`
	Settle  time.Duration `mapstructure:"settle"`
	// InterfacePrefixes 需要汇总的接口名前缀
	InterfacePrefixes []string `mapstructure:"interface_prefixes"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// LogLevel gorm 日志级别：silent | error | warn | info
	LogLevel string `mapstructure:"log_level"`
}

// StorageConfig 会话记录存储配置
type StorageConfig struct {
	Transcripts TranscriptsConfig `mapstructure:"transcripts"`
	Minio       MinioConfig       `mapstructure:"minio"`
}

// TranscriptsConfig 会话记录写入配置
type TranscriptsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend: local | minio
	Backend string `mapstructure:"backend"`
	BaseDir string `mapstructure:"base_dir"`
	Prefix  string `mapstructure:"prefix"`
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

// ServerConfig 只读查询接口配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
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

const (
	MatchPolicyFull    = "full"
	MatchPolicyPrefix6 = "prefix6"
)

var globalConfig *Config

// Load 加载配置文件；configPath 为空时按默认路径查找，找不到文件则仅使用默认值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
	}

	v.SetEnvPrefix("CONSOLE_PROV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg = replaceEnvVars(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Default 返回仅包含默认值的配置（不读取文件与环境变量）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	_ = cfg.Validate()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	// 串口：9600 波特率，3 次重试，间隔 3s，打开后等待适配器稳定 5s
	v.SetDefault("serial.baud_rate", 9600)
	v.SetDefault("serial.retries", 3)
	v.SetDefault("serial.retry_delay", 3*time.Second)
	v.SetDefault("serial.open_settle", 5*time.Second)
	v.SetDefault("serial.read_timeout", 100*time.Millisecond)
	v.SetDefault("serial.simulate", "")

	v.SetDefault("channel.line_terminator", "\r\n")
	v.SetDefault("channel.completion", "prompt")
	v.SetDefault("channel.default_settle", time.Second)
	v.SetDefault("channel.idle_window", 500*time.Millisecond)
	v.SetDefault("channel.max_wait", 30*time.Second)
	v.SetDefault("channel.prompt_suffixes", []string{"#", ">"})
	v.SetDefault("channel.error_hints", []string{"% Invalid input", "% Incomplete command", "% Ambiguous command"})
	v.SetDefault("channel.echo_lines", 5)

	v.SetDefault("inventory.platform", "cisco_ios")
	v.SetDefault("inventory.parser", "regex")
	v.SetDefault("inventory.marker_pattern", `SN:\s*([A-Z0-9]+)`)
	v.SetDefault("inventory.template_path", "")
	v.SetDefault("inventory.settle", 2*time.Second)

	v.SetDefault("gate.match_policy", MatchPolicyFull)

	v.SetDefault("recipe.platform", "cisco_ios")
	v.SetDefault("recipe.rsa_modulus", 1024)
	v.SetDefault("recipe.keygen_settle", 3*time.Second)
	v.SetDefault("recipe.save_settle", 2*time.Second)

	v.SetDefault("records.path", "Data.csv")

	v.SetDefault("status.csv_path", "Dispositivos.csv")
	v.SetDefault("status.command", "show ip interface brief")
	v.SetDefault("status.settle", 2*time.Second)
	v.SetDefault("status.interface_prefixes", []string{"FastEthernet", "GigabitEthernet", "Ethernet"})

	v.SetDefault("database.sqlite.path", "./data/consoleprov.db")
	v.SetDefault("database.sqlite.conn_max_lifetime", time.Hour)
	v.SetDefault("database.sqlite.log_level", "warn")

	v.SetDefault("storage.transcripts.enabled", true)
	v.SetDefault("storage.transcripts.backend", "local")
	v.SetDefault("storage.transcripts.base_dir", "./data/transcripts")
	v.SetDefault("storage.transcripts.prefix", "")
	v.SetDefault("storage.minio.bucket", "consoleprov-transcripts")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 18080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file_path", "./logs/consoleprov.log")
	v.SetDefault("log.max_size", 20)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
}

// Validate 校验会影响安全闸门与串口行为的关键配置
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Gate.MatchPolicy)) {
	case MatchPolicyFull, MatchPolicyPrefix6:
		c.Gate.MatchPolicy = strings.ToLower(strings.TrimSpace(c.Gate.MatchPolicy))
	default:
		return fmt.Errorf("invalid gate.match_policy %q (want %s or %s)", c.Gate.MatchPolicy, MatchPolicyFull, MatchPolicyPrefix6)
	}
	switch strings.ToLower(strings.TrimSpace(c.Channel.Completion)) {
	case "fixed", "idle", "prompt":
		c.Channel.Completion = strings.ToLower(strings.TrimSpace(c.Channel.Completion))
	default:
		return fmt.Errorf("invalid channel.completion %q", c.Channel.Completion)
	}
	switch strings.ToLower(strings.TrimSpace(c.Inventory.Parser)) {
	case "regex", "template":
		c.Inventory.Parser = strings.ToLower(strings.TrimSpace(c.Inventory.Parser))
	default:
		return fmt.Errorf("invalid inventory.parser %q", c.Inventory.Parser)
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("invalid serial.baud_rate %d", c.Serial.BaudRate)
	}
	if c.Serial.Retries < 1 {
		c.Serial.Retries = 1
	}
	return nil
}

// Get 获取全局配置
func Get() *Config {
	return globalConfig
}

// replaceEnvVars 替换 ${VAR} 形式的敏感配置
func replaceEnvVars(cfg Config) Config {
	cfg.Storage.Minio.AccessKey = expandEnv(cfg.Storage.Minio.AccessKey)
	cfg.Storage.Minio.SecretKey = expandEnv(cfg.Storage.Minio.SecretKey)
	return cfg
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
	}
	return s
}

// GetServerAddr 获取服务器地址
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
