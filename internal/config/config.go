package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddr           = "localhost:2406"
	defaultServerPath           = "/ws"
	defaultHeartbeatInterval    = 5
	defaultHandshakeTimeout     = 10
	defaultMaxReconnectAttempts = 5
	defaultReconnectInterval    = 2
	defaultSendBuffer           = 256
	defaultLogLevel             = "info"
)

// Config 客户端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig 服务器连接配置
type ServerConfig struct {
	Addr string `yaml:"addr"` // host:port
	Path string `yaml:"path"` // WebSocket 路径
}

// ClientConfig 传输层配置
type ClientConfig struct {
	HeartbeatInterval    int `yaml:"heartbeat_interval"`     // 心跳间隔（秒）
	HandshakeTimeout     int `yaml:"handshake_timeout"`      // 握手超时（秒）
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"` // 最大重连次数
	ReconnectInterval    int `yaml:"reconnect_interval"`     // 重连间隔（秒）
	SendBuffer           int `yaml:"send_buffer"`            // 发送队列长度
}

// LogConfig 日志配置
type LogConfig struct {
	Dir   string `yaml:"dir"`   // 日志目录，空则使用用户主目录
	Level string `yaml:"level"` // debug/info/warn/error
}

// URL 返回完整的 WebSocket 地址
func (c *ServerConfig) URL() string {
	return fmt.Sprintf("ws://%s%s", c.Addr, c.Path)
}

// HeartbeatIntervalDuration 返回心跳间隔时长
func (c *ClientConfig) HeartbeatIntervalDuration() time.Duration {
	return time.Duration(c.HeartbeatInterval) * time.Second
}

// HandshakeTimeoutDuration 返回握手超时时长
func (c *ClientConfig) HandshakeTimeoutDuration() time.Duration {
	return time.Duration(c.HandshakeTimeout) * time.Second
}

// ReconnectIntervalDuration 返回重连间隔时长
func (c *ClientConfig) ReconnectIntervalDuration() time.Duration {
	return time.Duration(c.ReconnectInterval) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg
}

// applyDefaults 设置默认值
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Server.Path == "" {
		cfg.Server.Path = defaultServerPath
	}
	if cfg.Client.HeartbeatInterval == 0 {
		cfg.Client.HeartbeatInterval = defaultHeartbeatInterval
	}
	if cfg.Client.HandshakeTimeout == 0 {
		cfg.Client.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.Client.MaxReconnectAttempts == 0 {
		cfg.Client.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if cfg.Client.ReconnectInterval == 0 {
		cfg.Client.ReconnectInterval = defaultReconnectInterval
	}
	if cfg.Client.SendBuffer == 0 {
		cfg.Client.SendBuffer = defaultSendBuffer
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

// applyEnv 环境变量覆盖
func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SERVER_PATH"); v != "" {
		cfg.Server.Path = v
	}
	if v := os.Getenv("CLIENT_HEARTBEAT_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Client.HeartbeatInterval = n
		}
	}
	if v := os.Getenv("CLIENT_MAX_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Client.MaxReconnectAttempts = n
		}
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.Log.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
}
