// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/libsim-project/libsim/lib/library"
)

// Usage is the help text printed on malformed arguments.
const Usage = `Usage: libsim <number_of_writers> <number_of_readers>
              [-t min_read max_read min_write max_write [min_window max_window]]
              [-policy windowed|fifo] [-tick seconds] [-config file]
              [-debug] [-log debug|info|warn|error] [-version]

Durations are whole seconds and must be >= 0. An inverted min/max pair
is swapped, not rejected. The min_window/max_window pair applies to the
windowed policy and is ignored by fifo. Give the agent counts before
-t: its bounds list is read greedily, so trailing integers are consumed
as bounds.`

// UsageError reports malformed command-line arguments. The binary
// prints Reason followed by Usage and exits non-zero.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string { return e.Reason }

func usagef(format string, args ...any) *UsageError {
	return &UsageError{Reason: fmt.Sprintf(format, args...)}
}

// cliOptions holds raw command-line values before merging, so flags
// can override file-provided settings regardless of position.
type cliOptions struct {
	positionals []int
	times       []int // nil, or 4 or 6 values
	debug       bool
	policy      string
	tick        *int
	configPath  string
	logLevel    string
	version     bool
	seed        *uint64
}

// Load resolves the full configuration from command-line arguments
// (excluding the program name). Order: defaults, then -config file,
// then flags.
func Load(args []string) (Config, error) {
	options, err := scan(args)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if options.configPath != "" {
		if err := applyFile(&cfg, options.configPath); err != nil {
			return Config{}, err
		}
	}

	if options.version {
		cfg.ShowVersion = true
		return cfg, nil
	}

	if len(options.positionals) != 2 {
		return Config{}, usagef("expected 2 positional arguments (writer count, reader count), got %d", len(options.positionals))
	}
	cfg.Writers = options.positionals[0]
	cfg.Readers = options.positionals[1]
	if cfg.Writers < 0 || cfg.Readers < 0 {
		return Config{}, usagef("agent counts must be >= 0 (writers=%d readers=%d)", cfg.Writers, cfg.Readers)
	}

	if options.times != nil {
		for _, bound := range options.times {
			if bound < 0 {
				return Config{}, usagef("-t bounds must be >= 0, got %d", bound)
			}
		}
		cfg.Read = library.Span(options.times[0], options.times[1])
		cfg.Write = library.Span(options.times[2], options.times[3])
		if len(options.times) == 6 {
			cfg.Window = library.Span(options.times[4], options.times[5])
		}
	}
	if options.debug {
		cfg.Debug = true
	}
	if options.policy != "" {
		policy, err := library.ParsePolicy(options.policy)
		if err != nil {
			return Config{}, usagef("%v", err)
		}
		cfg.Policy = policy
	}
	if options.tick != nil {
		if *options.tick <= 0 {
			return Config{}, usagef("-tick must be positive, got %d", *options.tick)
		}
		cfg.Tick = time.Duration(*options.tick) * time.Second
	}
	if options.seed != nil {
		cfg.Seed = *options.seed
	}
	if options.logLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(options.logLevel)); err != nil {
			return Config{}, usagef("bad -log level %q", options.logLevel)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// scan tokenizes the argument list. Positional arguments and flags may
// be interleaved; -t greedily consumes the run of integers after it.
func scan(args []string) (cliOptions, error) {
	var options cliOptions

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-t", "--times":
			values, consumed, err := scanInts(args[i+1:])
			if err != nil {
				return options, err
			}
			if len(values) != 4 && len(values) != 6 {
				return options, usagef("-t takes 4 or 6 integer bounds, got %d", len(values))
			}
			options.times = values
			i += consumed
		case "-debug", "--debug":
			options.debug = true
		case "-policy", "--policy":
			value, err := flagValue(args, &i, arg)
			if err != nil {
				return options, err
			}
			options.policy = value
		case "-tick", "--tick":
			value, err := flagValue(args, &i, arg)
			if err != nil {
				return options, err
			}
			tick, err := strconv.Atoi(value)
			if err != nil {
				return options, usagef("unparsable -tick value %q", value)
			}
			options.tick = &tick
		case "-seed", "--seed":
			value, err := flagValue(args, &i, arg)
			if err != nil {
				return options, err
			}
			seed, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return options, usagef("unparsable -seed value %q", value)
			}
			options.seed = &seed
		case "-config", "--config":
			value, err := flagValue(args, &i, arg)
			if err != nil {
				return options, err
			}
			options.configPath = value
		case "-log", "--log":
			value, err := flagValue(args, &i, arg)
			if err != nil {
				return options, err
			}
			options.logLevel = value
		case "-version", "--version":
			options.version = true
		default:
			count, err := strconv.Atoi(arg)
			if err != nil {
				return options, usagef("unrecognized argument %q", arg)
			}
			options.positionals = append(options.positionals, count)
		}
	}
	return options, nil
}

// scanInts collects the leading run of integer tokens, stopping at the
// first non-integer (the next flag or positional).
func scanInts(args []string) (values []int, consumed int, err error) {
	for _, arg := range args {
		value, parseErr := strconv.Atoi(arg)
		if parseErr != nil {
			break
		}
		values = append(values, value)
		consumed++
		if len(values) == 6 {
			break
		}
	}
	if len(values) == 0 {
		return nil, 0, usagef("-t requires integer bounds")
	}
	return values, consumed, nil
}

// flagValue returns the token following a value-taking flag,
// advancing the scan index.
func flagValue(args []string, i *int, flag string) (string, error) {
	if *i+1 >= len(args) {
		return "", usagef("%s requires a value", flag)
	}
	*i++
	return args[*i], nil
}
