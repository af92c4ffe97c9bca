package fractalvault

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/fractalvault/fractalvault/pkg/logging"
)

// Config configures an engine instance. The zero value is usable; defaults
// are applied in New.
type Config struct {
	// Logger is an optional structured logger. If nil, a stderr logger is used.
	Logger *slog.Logger
	// KDFIterations overrides the key-derivation round count. 0 keeps the
	// default. Changing it invalidates ciphertexts sealed under the old key.
	KDFIterations int
	// ComplexityRand is the perturbation source for the complexity
	// heuristic. Tests inject a seeded source to pin weights; nil selects a
	// time-seeded one.
	ComplexityRand *rand.Rand
	// ExportParallelism bounds concurrent unsealing during bulk export.
	// 0 selects a per-CPU default.
	ExportParallelism int
}

// fileConfig is the YAML shape of an engine config file.
type fileConfig struct {
	KDFIterations     int    `yaml:"kdfIterations"`
	ExportParallelism int    `yaml:"exportParallelism"`
	LogLevel          string `yaml:"logLevel"`
}

// LoadConfig reads a YAML config file and returns the corresponding Config
// with a tinted logger at the configured level.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return Config{
		Logger:            logging.New(logging.ParseLevel(fc.LogLevel)),
		KDFIterations:     fc.KDFIterations,
		ExportParallelism: fc.ExportParallelism,
	}, nil
}

// defaultLogger returns a logger that writes text logs to stderr at Info
// level. Applications can inject their own slog.Logger for JSON, different
// levels, etc.
func defaultLogger() *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(h)
}
