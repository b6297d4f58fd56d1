// Package config 提供模型推理客户端的配置加载与热更新。
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ClientConfig 推理客户端配置
type ClientConfig struct {
	// Endpoint 模型部署的调用地址（必填，可由环境变量回退）
	Endpoint string `mapstructure:"endpoint"`

	// Streaming 是否默认请求流式输出
	Streaming bool `mapstructure:"streaming"`

	// MaxRetries 最大重试次数
	MaxRetries int `mapstructure:"max_retries"`

	// Timeout 单次请求超时时间
	Timeout time.Duration `mapstructure:"timeout"`
}

// Loader 配置管理器，支持文件变更热加载
type Loader struct {
	v        *viper.Viper
	mu       sync.RWMutex
	value    ClientConfig
	watchers []func(old, new ClientConfig)
}

// Option 配置选项
type Option func(*viper.Viper)

// WithDefault 设置默认值
func WithDefault(key string, value any) Option {
	return func(v *viper.Viper) { v.SetDefault(key, value) }
}

// Load 加载配置文件并自动监控变更
//
// 环境变量绑定：前缀 ODSC（如 ODSC_MAX_RETRIES），endpoint 额外回退到
// OCI_LLM_ENDPOINT，与客户端本身的回退保持一致。
func Load(path string, opts ...Option) (*Loader, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("streaming", false)
	v.SetDefault("max_retries", 3)
	v.SetDefault("timeout", 300*time.Second)

	v.SetEnvPrefix("ODSC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("endpoint", "ODSC_ENDPOINT", "OCI_LLM_ENDPOINT")

	for _, opt := range opts {
		opt(v)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	l := &Loader{v: v, value: cfg}
	l.watch()
	return l, nil
}

// Get 获取当前配置（并发安全）
func (l *Loader) Get() ClientConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value
}

// OnChange 注册配置变更回调
func (l *Loader) OnChange(callback func(old, new ClientConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watchers = append(l.watchers, callback)
}

func (l *Loader) watch() {
	var (
		debounceTimer *time.Timer
		debounceMu    sync.Mutex
	)

	l.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
			l.handleConfigChange()
		})
		debounceMu.Unlock()
	})

	l.v.WatchConfig()
}

func (l *Loader) handleConfigChange() {
	oldCfg, newCfg, watchers, ok := l.reload()
	if !ok || oldCfg == newCfg {
		return
	}

	for _, cb := range watchers {
		func() {
			defer func() { _ = recover() }()
			cb(oldCfg, newCfg)
		}()
	}
}

// reload 重新加载配置，返回旧值、新值、回调列表和是否成功
func (l *Loader) reload() (ClientConfig, ClientConfig, []func(old, new ClientConfig), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.value
	if err := l.v.ReadInConfig(); err != nil {
		return old, old, nil, false
	}

	var cfg ClientConfig
	if err := l.v.Unmarshal(&cfg); err != nil {
		return old, old, nil, false
	}
	l.value = cfg

	watchers := make([]func(old, new ClientConfig), len(l.watchers))
	copy(watchers, l.watchers)
	return old, cfg, watchers, true
}
