// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/libsim-project/libsim/lib/library"
)

// Config is the fully resolved simulator configuration.
type Config struct {
	// Writers and Readers are the agent counts, both >= 0.
	Writers int
	Readers int

	// Read and Write bound each kind's occupancy duration; Window
	// bounds the windowed arbiter's admission window. All normalized.
	Read   library.DurationSpan
	Write  library.DurationSpan
	Window library.DurationSpan

	// Tick is the FIFO arbiter's poll interval.
	Tick time.Duration

	Policy library.Policy

	// Debug switches the status output from the compact one-line
	// summary to the verbose per-agent view.
	Debug bool

	// Seed fixes the random draws for reproducible runs; zero means
	// seed from the clock.
	Seed uint64

	// LogLevel controls the structured logger on stderr.
	LogLevel slog.Level

	// ShowVersion requests version output instead of a run.
	ShowVersion bool
}

// Default returns the built-in configuration, matching the historic
// simulator defaults: reads take 0–5s, writes 5–15s, the admission
// window 10–20s, and the FIFO queue is polled once per second.
func Default() Config {
	return Config{
		Read:     library.Span(0, 5),
		Write:    library.Span(5, 15),
		Window:   library.Span(10, 20),
		Tick:     library.DefaultTick,
		Policy:   library.PolicyWindowed,
		LogLevel: slog.LevelInfo,
	}
}

// fileConfig is the YAML shape. Every field is optional; absent fields
// keep their current value.
type fileConfig struct {
	Policy      *string    `yaml:"policy"`
	Debug       *bool      `yaml:"debug"`
	Seed        *uint64    `yaml:"seed"`
	TickSeconds *int       `yaml:"tick_seconds"`
	Times       *fileTimes `yaml:"times"`
}

type fileTimes struct {
	MinRead   *int `yaml:"min_read"`
	MaxRead   *int `yaml:"max_read"`
	MinWrite  *int `yaml:"min_write"`
	MaxWrite  *int `yaml:"max_write"`
	MinWindow *int `yaml:"min_window"`
	MaxWindow *int `yaml:"max_window"`
}

// applyFile overlays the YAML file at path onto cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if file.Policy != nil {
		policy, err := library.ParsePolicy(*file.Policy)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.Policy = policy
	}
	if file.Debug != nil {
		cfg.Debug = *file.Debug
	}
	if file.Seed != nil {
		cfg.Seed = *file.Seed
	}
	if file.TickSeconds != nil {
		if *file.TickSeconds <= 0 {
			return fmt.Errorf("config file %s: tick_seconds must be positive", path)
		}
		cfg.Tick = time.Duration(*file.TickSeconds) * time.Second
	}
	if times := file.Times; times != nil {
		for _, bound := range []*int{
			times.MinRead, times.MaxRead,
			times.MinWrite, times.MaxWrite,
			times.MinWindow, times.MaxWindow,
		} {
			if bound != nil && *bound < 0 {
				return fmt.Errorf("config file %s: duration bounds must be >= 0, got %d", path, *bound)
			}
		}
		cfg.Read = spanOverlay(cfg.Read, times.MinRead, times.MaxRead)
		cfg.Write = spanOverlay(cfg.Write, times.MinWrite, times.MaxWrite)
		cfg.Window = spanOverlay(cfg.Window, times.MinWindow, times.MaxWindow)
	}
	return nil
}

// spanOverlay replaces either bound of a span from optional file
// values, renormalizing afterwards.
func spanOverlay(span library.DurationSpan, minSeconds, maxSeconds *int) library.DurationSpan {
	if minSeconds != nil {
		span.Min = time.Duration(*minSeconds) * time.Second
	}
	if maxSeconds != nil {
		span.Max = time.Duration(*maxSeconds) * time.Second
	}
	return span.Normalized()
}
