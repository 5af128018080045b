// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for zpress packages.
package testutil
