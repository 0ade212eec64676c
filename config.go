// Configuration for RxGo schedulers
// 调度器配置：工作goroutine数量、队列容量、时钟
package rxgo

import (
	"fmt"
	"runtime"

	"github.com/zoobzio/clockz"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// 配置选项
// ============================================================================

// Option 配置选项接口
type Option interface {
	Apply(config *Config)
}

// Config 配置结构
type Config struct {
	// Workers ThreadPool 的工作goroutine数量
	Workers int `yaml:"workers"`
	// QueueSize ThreadPool 任务队列容量，0 表示 Workers 的两倍
	QueueSize int `yaml:"queue_size"`
	// Clock 计时来源，测试时可替换为 clockz.FakeClock
	Clock clockz.Clock `yaml:"-"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Workers: runtime.NumCPU(),
		Clock:   clockz.RealClock,
	}
}

// Apply 让已加载的配置可以直接作为选项使用，非零字段覆盖目标配置
func (c *Config) Apply(config *Config) {
	if c.Workers > 0 {
		config.Workers = c.Workers
	}
	if c.QueueSize > 0 {
		config.QueueSize = c.QueueSize
	}
	if c.Clock != nil {
		config.Clock = c.Clock
	}
}

func newConfig(opts []Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(cfg)
		}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
	return cfg
}

// LoadConfig 从YAML加载配置，例如
//
//	workers: 8
//	queue_size: 64
func LoadConfig(data []byte) (*Config, error) {
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("rxgo: parse config: %w", err)
	}
	if file.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, file.Workers)
	}
	if file.QueueSize < 0 {
		return nil, fmt.Errorf("%w: queue_size must be non-negative, got %d", ErrInvalidConfig, file.QueueSize)
	}

	cfg := DefaultConfig()
	file.Apply(cfg)
	return cfg, nil
}

type workersOption struct {
	n int
}

func (o workersOption) Apply(config *Config) {
	if o.n > 0 {
		config.Workers = o.n
	}
}

// WithWorkers 设置工作goroutine数量，n <= 0 时保持默认值
func WithWorkers(n int) Option {
	return workersOption{n: n}
}

type queueSizeOption struct {
	n int
}

func (o queueSizeOption) Apply(config *Config) {
	if o.n > 0 {
		config.QueueSize = o.n
	}
}

// WithQueueSize 设置任务队列容量
func WithQueueSize(n int) Option {
	return queueSizeOption{n: n}
}

type clockOption struct {
	clock clockz.Clock
}

func (o clockOption) Apply(config *Config) {
	if o.clock != nil {
		config.Clock = o.clock
	}
}

// WithClock 设置计时来源，配合 clockz.NewFakeClock 用于确定性测试
func WithClock(clock clockz.Clock) Option {
	return clockOption{clock: clock}
}
