// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves the simulator's configuration from the
// command line and an optional YAML file.
//
// Resolution order is fixed: built-in defaults, then the file named by
// -config (no discovery, no fallback paths, a missing file is an
// error), then command-line flags. The two agent counts are always
// positional and always required.
//
// Inverted duration pairs (min > max) are not errors; they are
// silently swapped before use. Malformed arguments produce a
// [*UsageError] so the binary can print usage and exit non-zero before
// any coordinator state exists.
package config
