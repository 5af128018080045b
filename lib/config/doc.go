// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads optional default settings for the zpress CLI.
//
// Settings come from a single YAML file specified by the ZPRESS_CONFIG
// environment variable or the --config flag. There is no automatic
// discovery: configuration is deterministic and auditable, with no
// hidden overrides. Command-line flags always win over file values.
package config
