package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Defaults used when the configuration file leaves a field empty
const (
	DefaultOptimizerURL = "http://localhost:8000"
	DefaultRoutingURL   = "https://router.project-osrm.org"
	DefaultPollInterval = "500ms"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a configuration with every default filled in
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "tourviz.log"
	}
	if cfg.Optimizer.BaseURL == "" {
		cfg.Optimizer.BaseURL = DefaultOptimizerURL
	}

	if cfg.Poll.Interval == "" {
		cfg.Poll.Interval = DefaultPollInterval
	}
	if cfg.Poll.Backoff == "" {
		cfg.Poll.Backoff = "none"
	}
	if cfg.Poll.BackoffBase == "" {
		cfg.Poll.BackoffBase = "500ms"
	}
	if cfg.Poll.BackoffMax == "" {
		cfg.Poll.BackoffMax = "10s"
	}

	if cfg.Routing.BaseURL == "" {
		cfg.Routing.BaseURL = DefaultRoutingURL
	}
	if cfg.Routing.Timeout == "" {
		cfg.Routing.Timeout = "5s"
	}
	if cfg.Routing.Breaker.FailureThreshold == 0 {
		cfg.Routing.Breaker.FailureThreshold = 3
	}
	if cfg.Routing.Breaker.SuccessThreshold == 0 {
		cfg.Routing.Breaker.SuccessThreshold = 1
	}
	if cfg.Routing.Breaker.OpenTimeout == "" {
		cfg.Routing.Breaker.OpenTimeout = "30s"
	}

	if cfg.Daemon.HTTPAddr == "" {
		cfg.Daemon.HTTPAddr = ":8000"
	}
	if cfg.Daemon.GRPCAddr == "" {
		cfg.Daemon.GRPCAddr = ":50051"
	}
	if cfg.Daemon.DBPath == "" {
		cfg.Daemon.DBPath = ":memory:"
	}

	if cfg.Solver.Iterations == 0 {
		cfg.Solver.Iterations = 20
	}
	if cfg.Solver.Population == 0 {
		cfg.Solver.Population = 20
	}
	if cfg.Solver.StepDelay == "" {
		cfg.Solver.StepDelay = "500ms"
	}
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if err := validateURL("optimizer.base_url", cfg.Optimizer.BaseURL); err != nil {
		return err
	}
	if err := validatePoll(&cfg.Poll); err != nil {
		return fmt.Errorf("poll validation failed: %w", err)
	}
	if err := validateRouting(&cfg.Routing); err != nil {
		return fmt.Errorf("routing validation failed: %w", err)
	}
	if err := validateSolver(&cfg.Solver); err != nil {
		return fmt.Errorf("solver validation failed: %w", err)
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", field, raw)
	}
	return nil
}

func positiveDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %s: %w", field, raw, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, raw)
	}
	return nil
}

// validatePoll validates the polling loop configuration
func validatePoll(p *PollConfig) error {
	if err := positiveDuration("interval", p.Interval); err != nil {
		return err
	}

	validBackoffs := map[string]bool{
		"none":        true,
		"constant":    true,
		"linear":      true,
		"exponential": true,
	}
	if !validBackoffs[p.Backoff] {
		return fmt.Errorf("invalid backoff type: %s (must be none, constant, linear, or exponential)", p.Backoff)
	}
	if p.Backoff != "none" {
		if err := positiveDuration("backoff_base", p.BackoffBase); err != nil {
			return err
		}
		if err := positiveDuration("backoff_max", p.BackoffMax); err != nil {
			return err
		}
	}

	if p.MaxFailures < 0 {
		return fmt.Errorf("max_failures cannot be negative, got %d", p.MaxFailures)
	}
	return nil
}

// validateRouting validates the routing service configuration
func validateRouting(r *RoutingConfig) error {
	if !r.IsEnabled() {
		return nil
	}
	if err := validateURL("base_url", r.BaseURL); err != nil {
		return err
	}
	if err := positiveDuration("timeout", r.Timeout); err != nil {
		return err
	}

	if r.Breaker.Enabled {
		if r.Breaker.FailureThreshold <= 0 {
			return fmt.Errorf("breaker failure_threshold must be positive, got %d", r.Breaker.FailureThreshold)
		}
		if r.Breaker.SuccessThreshold <= 0 {
			return fmt.Errorf("breaker success_threshold must be positive, got %d", r.Breaker.SuccessThreshold)
		}
		if err := positiveDuration("breaker open_timeout", r.Breaker.OpenTimeout); err != nil {
			return err
		}
	}
	return nil
}

// validateSolver validates the mock optimizer configuration
func validateSolver(s *SolverConfig) error {
	if s.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", s.Iterations)
	}
	if s.Population < 2 {
		return fmt.Errorf("population must be at least 2, got %d", s.Population)
	}
	if _, err := s.GetStepDelay(); err != nil {
		return fmt.Errorf("invalid step_delay %s: %w", s.StepDelay, err)
	}
	if s.ConvergeAfter < 0 {
		return fmt.Errorf("converge_after cannot be negative, got %d", s.ConvergeAfter)
	}
	return nil
}
