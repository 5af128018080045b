// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

// Package zframe parses Zstandard frame and block headers without
// decoding payloads.
//
// Two consumers share it: the decompression demultiplexer, which needs
// a frame-bounded reader so a codec pulling from a concatenated stream
// cannot overrun into the next frame, and the list mode, which walks
// frame and block headers with seeks to report sizes and counts.
package zframe
