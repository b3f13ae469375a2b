package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"warden.dev/warden/engine"
)

type Config struct {
	DataDir        string   `json:"data_dir"`
	BindAddr       string   `json:"bind_addr"`
	LogLevel       string   `json:"log_level"`
	Controller     string   `json:"controller"`
	TrustedTargets []string `json:"trusted_targets"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".warden"
	}
	return filepath.Join(home, ".warden")
}

func DefaultConfig() Config {
	return Config{
		DataDir:        DefaultDataDir(),
		BindAddr:       "127.0.0.1:19711",
		LogLevel:       "info",
		TrustedTargets: nil,
	}
}

// NormalizeTargets flattens, trims and dedupes hex target identities from
// flag and config input, preserving first-seen order.
func NormalizeTargets(raw ...string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		for _, t := range strings.Split(token, ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if err := validateAddr(cfg.BindAddr); err != nil {
		return fmt.Errorf("invalid bind_addr: %w", err)
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if _, err := engine.AddressFromHex(cfg.Controller); err != nil {
		return fmt.Errorf("invalid controller: %w", err)
	}
	for _, t := range cfg.TrustedTargets {
		if _, err := engine.AddressFromHex(t); err != nil {
			return fmt.Errorf("invalid trusted target %q: %w", t, err)
		}
	}
	return nil
}

// TargetRegistry builds the immutable allow-list from a validated config.
func (cfg Config) TargetRegistry() (*engine.TargetRegistry, error) {
	targets := make([]engine.Address, 0, len(cfg.TrustedTargets))
	for _, t := range cfg.TrustedTargets {
		a, err := engine.AddressFromHex(t)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted target %q: %w", t, err)
		}
		targets = append(targets, a)
	}
	return engine.NewTargetRegistry(targets...), nil
}

// LoadConfig reads a JSON config file. Unknown fields are rejected so typos
// do not silently disable a setting.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := readFileByPath(path)
	if err != nil {
		return cfg, err
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}
