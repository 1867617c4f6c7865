package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // 存储配置
	Events   EventsConfig   `mapstructure:"events"`   // 选举活动规则
	Chain    ChainConfig    `mapstructure:"chain"`    // 链上合约配置
	Metrics  MetricsConfig  `mapstructure:"metrics"`  // 指标暴露配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig 存储配置：memory 为进程内存储，postgres 走 GORM
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`            // memory / postgres
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（postgres://...）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	Seed            bool          `mapstructure:"seed"`              // 内存模式下是否写入示例数据
}

// EventsConfig 选举活动编辑规则
type EventsConfig struct {
	// UniqueLineItems 为 true 时同一活动内 club+position 至多一条
	UniqueLineItems bool `mapstructure:"unique_line_items"`
}

// ChainConfig 投票活动合约与钱包配置
type ChainConfig struct {
	Enabled             bool          `mapstructure:"enabled"`               // 是否启用链上功能
	RPCURL              string        `mapstructure:"rpc_url"`               // RPC地址
	ContractAddress     string        `mapstructure:"contract_address"`      // VotingEvent 合约地址
	PrivateKey          string        `mapstructure:"private_key"`           // 钱包私钥（建议放 .env）
	KeyFile             string        `mapstructure:"key_file"`              // 私钥文件路径（挂载后才出现时会轮询等待）
	WalletPollInterval  time.Duration `mapstructure:"wallet_poll_interval"`  // 钱包发现轮询间隔
	WalletTimeout       time.Duration `mapstructure:"wallet_timeout"`        // 钱包发现超时
	ConfirmPollInterval time.Duration `mapstructure:"confirm_poll_interval"` // 交易回执轮询间隔
	ConfirmTimeout      time.Duration `mapstructure:"confirm_timeout"`       // 等待上链确认超时
	GasLimit            uint64        `mapstructure:"gas_limit"`             // 单笔交易 gas 上限
	LazyConnect         bool          `mapstructure:"lazy_connect"`          // 读写调用前是否自动连接钱包
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录读取 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("chain.wallet_poll_interval", time.Second)
	v.SetDefault("chain.wallet_timeout", 10*time.Second)
	v.SetDefault("chain.confirm_poll_interval", 2*time.Second)
	v.SetDefault("chain.confirm_timeout", 2*time.Minute)
	v.SetDefault("chain.gas_limit", 500000)
	v.SetDefault("chain.lazy_connect", false)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CHAIN_PRIVATE_KEY"); v != "" {
		cfg.Chain.PrivateKey = v
	}
	if v := os.Getenv("CHAIN_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("CHAIN_CONTRACT_ADDRESS"); v != "" {
		cfg.Chain.ContractAddress = v
	}
}

// Validate 校验配置组合是否可用
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.driver=postgres 时 database.dsn 必填")
		}
	default:
		return fmt.Errorf("未支持的存储驱动: %s", c.Database.Driver)
	}
	if c.Chain.Enabled {
		if c.Chain.RPCURL == "" || c.Chain.ContractAddress == "" {
			return fmt.Errorf("chain.enabled 时 rpc_url, contract_address 必填")
		}
		if c.Chain.PrivateKey == "" && c.Chain.KeyFile == "" {
			return fmt.Errorf("chain.enabled 时 private_key 或 key_file 至少配置一个")
		}
	}
	return nil
}
