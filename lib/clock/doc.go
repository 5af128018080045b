// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time observation for testability.
//
// The progress display throttles refreshes against a monotonic clock.
// Production code injects Real(); tests inject a *Fake and advance it
// deterministically.
package clock
