// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

// Package fileio turns lists of filesystem inputs plus a set of
// preferences into framed compressed artifacts on disk, or the
// reverse.
//
// It owns the per-file streaming state machines for every supported
// format, the multi-format frame demultiplexer on decompression, the
// sparse-write engine that turns zero runs into filesystem holes, the
// closed-loop adaptive compression level controller for the Zstandard
// path, the destination-file lifecycle (open, write, close, or cleanup
// on abort, with interrupt-driven deletion of partial outputs), and
// the batch drivers that walk source lists, derive destinations, and
// aggregate results.
//
// Memory discipline is strictly streaming: buffers are sized once per
// batch and reused for every file.
package fileio
