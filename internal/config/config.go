// Package config loads the optional kernel options file. The options
// file is operator tuning only; the connection file (see the
// connection package) is the protocol-mandated input.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/logging"
)

type KernelOptions struct {
	Banner    string         `toml:"banner"`
	LogLevel  string         `toml:"log_level"`
	DebugAddr string         `toml:"debug_addr"`
	Executor  ExecutorConfig `toml:"executor"`
}

type ExecutorConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

func DefaultKernelOptions() KernelOptions {
	return KernelOptions{
		Banner:   "Apache Groovy kernel",
		Executor: ExecutorConfig{Command: "groovy", Args: []string{"-"}},
	}
}

func LoadKernelOptions(path string) (KernelOptions, error) {
	cfg := DefaultKernelOptions()
	if err := loadToml(path, &cfg); err != nil {
		return KernelOptions{}, err
	}
	if cfg.Banner == "" {
		cfg.Banner = DefaultKernelOptions().Banner
	}
	if cfg.Executor.Command == "" {
		cfg.Executor = DefaultKernelOptions().Executor
	}
	if err := ValidateKernelOptions(cfg); err != nil {
		return KernelOptions{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("options load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("options parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateKernelOptions(cfg KernelOptions) error {
	if strings.TrimSpace(cfg.Executor.Command) == "" {
		return fmt.Errorf("options missing executor command")
	}
	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("options invalid log_level %q", cfg.LogLevel)
		}
	}
	return nil
}
