package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 身份提供者模式
const (
	IdentityModeLocal  = "local"  // 本地 bcrypt 凭证（开发/测试）
	IdentityModeRemote = "remote" // 外部身份服务 HTTP API
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// ClassifierConfig 定义分类器模型工件的加载配置
type ClassifierConfig struct {
	ModelPath      string        // 模型参数文件路径（JSON）
	VectorizerPath string        // 向量化器文件路径（JSON）
	CacheTTL       time.Duration // 分类结果缓存时长（仅在配置了 Redis 时生效）
}

// IdentityConfig 定义外部身份服务的接入配置
type IdentityConfig struct {
	Mode       string        // "local" 或 "remote"
	BaseURL    string        // 身份服务地址，remote 模式必填
	ServiceKey string        // 身份服务密钥，remote 模式必填
	Timeout    time.Duration // 单次调用超时，默认 10s
}

// SMTPConfig 定义 SMTP 邮件接收服务的配置
type SMTPConfig struct {
	Enabled  bool   // 是否启用 SMTP 接收，默认关闭
	BindAddr string // SMTP 服务监听地址，格式 "host:port"，默认 ":2525"
	Domain   string // SMTP 服务器域名，用于 HELO/EHLO 响应
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	LogFile     string // 日志文件路径，留空只输出到 stdout
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 缓存服务配置
type RedisConfig struct {
	Address  string // Redis 服务地址，留空禁用缓存
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// JWTConfig 定义 JWT 认证相关配置
type JWTConfig struct {
	Secret       string        // JWT 签名密钥，必须至少 32 字符
	Issuer       string        // JWT 签发者标识，默认 "spamguard"
	AccessExpiry time.Duration // 访问令牌有效期，默认 1 小时
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server     ServerConfig
	Classifier ClassifierConfig
	Identity   IdentityConfig
	SMTP       SMTPConfig
	CORS       CORSConfig
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//   1. 系统环境变量
//   2. .env 文件（如果存在）
//   3. 默认值
//
// 环境变量前缀: SPAMGUARD_
// 例如: SPAMGUARD_SERVER_PORT, SPAMGUARD_JWT_SECRET
//
// 返回值:
//   - *Config: 加载成功的配置对象
//   - error: 配置验证失败时返回错误
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetEnvPrefix("spamguard")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("classifier.model_path", "./models/model.json")
	viper.SetDefault("classifier.vectorizer_path", "./models/vectorizer.json")
	viper.SetDefault("classifier.cache_ttl", "1h")
	viper.SetDefault("identity.mode", IdentityModeRemote)
	viper.SetDefault("identity.base_url", "")
	viper.SetDefault("identity.service_key", "")
	viper.SetDefault("identity.timeout", "10s")
	viper.SetDefault("smtp.enabled", false)
	viper.SetDefault("smtp.bind_addr", ":2525")
	viper.SetDefault("smtp.domain", "spamguard.local")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.address", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.issuer", "spamguard")
	viper.SetDefault("jwt.access_expiry", "1h")

	cacheTTL, err := time.ParseDuration(viper.GetString("classifier.cache_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid classifier.cache_ttl: %w", err)
	}

	identityTimeout, err := time.ParseDuration(viper.GetString("identity.timeout"))
	if err != nil {
		identityTimeout = 10 * time.Second
	}

	identityMode := strings.ToLower(viper.GetString("identity.mode"))
	if identityMode != IdentityModeLocal && identityMode != IdentityModeRemote {
		return nil, fmt.Errorf("invalid identity.mode: %q (supported: local, remote)", identityMode)
	}

	// 外部身份服务配置缺失在启动时即失败
	if identityMode == IdentityModeRemote {
		if viper.GetString("identity.base_url") == "" {
			return nil, fmt.Errorf("identity.base_url is required when identity.mode is remote (set SPAMGUARD_IDENTITY_BASE_URL)")
		}
		if viper.GetString("identity.service_key") == "" {
			return nil, fmt.Errorf("identity.service_key is required when identity.mode is remote (set SPAMGUARD_IDENTITY_SERVICE_KEY)")
		}
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("jwt.access_expiry"))
	if err != nil {
		accessExpiry = time.Hour
	}

	jwtSecret := viper.GetString("jwt.secret")

	// 安全检查：禁止使用默认的 JWT secret
	if jwtSecret == "change-me-in-production" {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret cannot be the default value. Please set SPAMGUARD_JWT_SECRET environment variable")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret must be at least 32 characters long")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Classifier: ClassifierConfig{
			ModelPath:      viper.GetString("classifier.model_path"),
			VectorizerPath: viper.GetString("classifier.vectorizer_path"),
			CacheTTL:       cacheTTL,
		},
		Identity: IdentityConfig{
			Mode:       identityMode,
			BaseURL:    strings.TrimRight(viper.GetString("identity.base_url"), "/"),
			ServiceKey: viper.GetString("identity.service_key"),
			Timeout:    identityTimeout,
		},
		SMTP: SMTPConfig{
			Enabled:  viper.GetBool("smtp.enabled"),
			BindAddr: viper.GetString("smtp.bind_addr"),
			Domain:   viper.GetString("smtp.domain"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			LogFile:     viper.GetString("log.file"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:       jwtSecret,
			Issuer:       viper.GetString("jwt.issuer"),
			AccessExpiry: accessExpiry,
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//   1. 当前目录的 .env
//   2. 父目录的 .env（用于从 backend/ 子目录运行的情况）
//
// 环境变量不会被覆盖（已存在的环境变量优先级更高）
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
