package config

import "time"

// Config represents the configuration shared by the tourviz client and the tspd daemon
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Log       LogConfig       `yaml:"log"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Poll      PollConfig      `yaml:"poll"`
	Routing   RoutingConfig   `yaml:"routing"`
	Presets   PresetsConfig   `yaml:"presets"`
	Audio     AudioConfig     `yaml:"audio"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	Solver    SolverConfig    `yaml:"solver"`
}

// LogConfig controls where the client writes its logs
type LogConfig struct {
	File string `yaml:"file"`
}

// OptimizerConfig locates the optimizer service
type OptimizerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// PollConfig controls the snapshot polling loop
type PollConfig struct {
	Interval    string `yaml:"interval"`     // e.g., "500ms"
	Backoff     string `yaml:"backoff"`      // none, constant, linear or exponential
	BackoffBase string `yaml:"backoff_base"` // e.g., "500ms"
	BackoffMax  string `yaml:"backoff_max"`  // e.g., "10s"
	MaxFailures int    `yaml:"max_failures"` // 0 means unlimited
}

// RoutingConfig controls the real-world route lookup
type RoutingConfig struct {
	Enabled *bool         `yaml:"enabled,omitempty"`
	BaseURL string        `yaml:"base_url"`
	Timeout string        `yaml:"timeout"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the routing circuit breaker
type BreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold int    `yaml:"failure_threshold"`
	SuccessThreshold int    `yaml:"success_threshold"`
	OpenTimeout      string `yaml:"open_timeout"`
}

// PresetsConfig locates the preset registry source
type PresetsConfig struct {
	File string `yaml:"file"` // empty selects the embedded defaults
}

// AudioConfig toggles the terminal-status chime
type AudioConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DaemonConfig configures the tspd listeners and storage
type DaemonConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
	DBPath   string `yaml:"db_path"`
}

// SolverConfig configures the mock optimizer
type SolverConfig struct {
	Iterations    int    `yaml:"iterations"`
	Population    int    `yaml:"population"`
	StepDelay     string `yaml:"step_delay"`
	ConvergeAfter int    `yaml:"converge_after"` // 0 disables early stopping
	Seed          int64  `yaml:"seed"`
}

// GetInterval returns the poll interval as a time.Duration
func (p *PollConfig) GetInterval() (time.Duration, error) {
	return time.ParseDuration(p.Interval)
}

// GetBackoffBase returns the base backoff delay as a time.Duration
func (p *PollConfig) GetBackoffBase() (time.Duration, error) {
	return time.ParseDuration(p.BackoffBase)
}

// GetBackoffMax returns the maximum backoff delay as a time.Duration
func (p *PollConfig) GetBackoffMax() (time.Duration, error) {
	return time.ParseDuration(p.BackoffMax)
}

// IsEnabled reports whether route lookups are attempted (default true)
func (r *RoutingConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// GetTimeout returns the routing request timeout as a time.Duration
func (r *RoutingConfig) GetTimeout() (time.Duration, error) {
	return time.ParseDuration(r.Timeout)
}

// GetOpenTimeout returns how long the breaker stays open as a time.Duration
func (b *BreakerConfig) GetOpenTimeout() (time.Duration, error) {
	return time.ParseDuration(b.OpenTimeout)
}

// GetStepDelay returns the delay between solver iterations as a time.Duration
func (s *SolverConfig) GetStepDelay() (time.Duration, error) {
	return time.ParseDuration(s.StepDelay)
}
