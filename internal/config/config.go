package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type AdminConfig struct {
	// Prefix 是管理页面的路由前缀（不带斜杠），例如 "admin" -> /admin
	Prefix string `mapstructure:"prefix"`
}

type FilesConfig struct {
	// Root 是所有文件操作的沙箱根目录，启动时转成绝对路径
	Root         string `mapstructure:"root"`
	MaxTextBytes int64  `mapstructure:"max_text_bytes"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type SessionConfig struct {
	Secret   string `mapstructure:"secret"`
	TTLHours int    `mapstructure:"ttl_hours"`
	Cookie   string `mapstructure:"cookie"`
}

type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LoginLimitConfig struct {
	Attempts      int `mapstructure:"attempts"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Files      FilesConfig      `mapstructure:"files"`
	Data       DataConfig       `mapstructure:"data"`
	Session    SessionConfig    `mapstructure:"session"`
	Bootstrap  BootstrapConfig  `mapstructure:"bootstrap"`
	LoginLimit LoginLimitConfig `mapstructure:"login_limit"`
}

// AdminPath 返回带前导斜杠的管理页面路径，例如 "/admin"。
func (c *Config) AdminPath() string {
	return "/" + c.Admin.Prefix
}

// SessionTTL 返回会话固定有效期（从创建时间起算，不滑动）。
func (c *Config) SessionTTL() time.Duration {
	h := c.Session.TTLHours
	if h <= 0 {
		h = 12
	}
	return time.Duration(h) * time.Hour
}

// UsersPath 返回用户存储文档的路径。
func (c *Config) UsersPath() string {
	return filepath.Join(c.Data.Dir, "users.json")
}

// AuditPath 返回审计日志文件的路径。
func (c *Config) AuditPath() string {
	return filepath.Join(c.Data.Dir, "audit.log")
}

// SessionDBPath 返回会话数据库文件的路径。
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Data.Dir, "sessions.db")
}

// LoginWindow 返回登录限流的滚动窗口长度。
func (c *Config) LoginWindow() time.Duration {
	m := c.LoginLimit.WindowMinutes
	if m <= 0 {
		m = 10
	}
	return time.Duration(m) * time.Minute
}

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it looks for an optional "config.yaml" in the
// current working directory. Environment variables with prefix FP_
// override file values. The returned struct is built once at startup
// and passed by reference into each component.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. FP_SERVER_PORT=9000
	v.SetEnvPrefix("FP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件可选：找不到就只用默认值 + 环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 沙箱根目录固定为绝对路径
	rootAbs, err := filepath.Abs(c.Files.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	c.Files.Root = rootAbs

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 3097)
	v.SetDefault("server.mode", "")
	v.SetDefault("admin.prefix", "admin")
	v.SetDefault("files.root", ".")
	v.SetDefault("files.max_text_bytes", 2*1024*1024)
	v.SetDefault("data.dir", "./data")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl_hours", 12)
	v.SetDefault("session.cookie", "fp_session")
	v.SetDefault("bootstrap.username", "admin")
	v.SetDefault("bootstrap.password", "admin123")
	v.SetDefault("login_limit.attempts", 20)
	v.SetDefault("login_limit.window_minutes", 10)
}
