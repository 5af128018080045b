// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/zpress-io/zpress/lib/zframe"
)

const (
	// decompressBufferSize sizes the shared buffered source. It must
	// hold at least a full frame header for the demultiplexer probe.
	decompressBufferSize = 128 << 10

	// lz4FrameMagic is the little-endian lz4 frame magic.
	lz4FrameMagic = 0x184D2204

	// passThroughBlockSize is the copy unit in raw passthrough mode.
	passThroughBlockSize = 64 << 10
)

// decompressionResources owns the streaming decode context and the
// shared buffered source for one decompression batch. The buffered
// source is Reset per file, so bytes loaded beyond a frame survive for
// the next magic probe without reallocation.
type decompressionResources struct {
	prefs   *Prefs
	display *Display

	decoder  *zstd.Decoder
	source   *bufio.Reader
	copyBuf  []byte
	gzReader *gzip.Reader

	// dstFile is non-nil when the whole batch shares one destination.
	dstFile *os.File
}

// newDecompressionResources builds the batch-level decode resources.
func newDecompressionResources(prefs *Prefs, display *Display, dictFileName string) (*decompressionResources, error) {
	r := &decompressionResources{
		prefs:   prefs,
		display: display,
		source:  bufio.NewReaderSize(nil, decompressBufferSize),
		copyBuf: make([]byte, decompressBufferSize),
	}

	if prefs.PatchFrom {
		if err := adjustPatchFromParams(prefs, display, getFileSize(dictFileName), 0); err != nil {
			return nil, err
		}
	}
	dict, err := loadDictionary(prefs, display, dictFileName)
	if err != nil {
		return nil, err
	}

	options := []zstd.DOption{
		zstd.IgnoreChecksum(!prefs.ChecksumFlag),
	}
	if prefs.MemLimit > 0 {
		options = append(options, zstd.WithDecoderMaxWindow(prefs.MemLimit))
	}
	if len(dict) > 0 {
		if prefs.PatchFrom {
			options = append(options, zstd.WithDecoderDictRaw(0, dict))
		} else {
			options = append(options, zstd.WithDecoderDicts(dict))
		}
	}

	decoder, err := zstd.NewReader(nil, options...)
	if err != nil {
		return nil, coded(codeCodec, "can't create decompression context: %v", err)
	}
	r.decoder = decoder
	return r, nil
}

// free releases the decode context.
func (r *decompressionResources) free() {
	r.decoder.Close()
}

// decompressZstdFrame decodes exactly one Zstandard frame from the
// shared source through the sparse sink. The frame-bounded reader
// keeps the codec from consuming bytes past the frame, which is what
// keeps the demultiplexer's view of the stream intact.
func (r *decompressionResources) decompressZstdFrame(ctx *Context,
	sink *sparseWriter, srcName string, alreadyDecoded uint64) (uint64, error) {

	frame, err := zframe.NewFrameReader(r.source)
	if err != nil {
		return 0, coded(codeDecode, "%s : Decoding error (36) : %v", srcName, err)
	}
	if limit := r.prefs.MemLimit; limit > 0 && frame.Header().WindowSize > limit {
		return 0, coded(codeDecode,
			"%s : Window size larger than maximum : %d > %d ; use --long or --memory to raise the limit",
			srcName, frame.Header().WindowSize, limit)
	}

	if err := r.decoder.Reset(frame); err != nil {
		return 0, coded(codeDecode, "%s : Decoding error (36) : %v", srcName, err)
	}

	var frameSize uint64
	for {
		n, rerr := r.decoder.Read(r.copyBuf)
		if n > 0 {
			if _, werr := sink.Write(r.copyBuf[:n]); werr != nil {
				return frameSize, werr
			}
			frameSize += uint64(n)
			r.showDecompressProgress(ctx, srcName, alreadyDecoded+frameSize)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return frameSize, coded(codeDecode, "%s : Decoding error (36) : %v", srcName, rerr)
		}
	}

	if err := frame.Drain(); err != nil {
		return frameSize, coded(codeDecode, "%s : Read error (39) : premature end", srcName)
	}
	if err := sink.Finish(); err != nil {
		return frameSize, err
	}
	return frameSize, nil
}

// skipSkippableFrame consumes a skippable frame: 4 magic bytes, a
// 4-byte little-endian length, then the payload.
func (r *decompressionResources) skipSkippableFrame(srcName string) error {
	var header [8]byte
	if _, err := io.ReadFull(r.source, header[:]); err != nil {
		return coded(codeTruncated, "%s : Read error (39) : premature end", srcName)
	}
	size := binary.LittleEndian.Uint32(header[4:])
	if _, err := io.CopyN(io.Discard, r.source, int64(size)); err != nil {
		return coded(codeTruncated, "%s : Read error (39) : premature end", srcName)
	}
	return nil
}

// decompressGzFrame decodes one gzip member. The gzip reader pulls
// bytes one at a time from the buffered source, so the member's end
// leaves following bytes unread for the next probe.
func (r *decompressionResources) decompressGzFrame(ctx *Context,
	sink *sparseWriter, srcName string) (uint64, error) {

	var err error
	if r.gzReader == nil {
		r.gzReader, err = gzip.NewReader(r.source)
	} else {
		err = r.gzReader.Reset(r.source)
	}
	if err != nil {
		return 0, coded(codeDecode, "zpress: %s: gzip header error: %v", srcName, err)
	}
	r.gzReader.Multistream(false)

	var outSize uint64
	for {
		n, rerr := r.gzReader.Read(r.copyBuf)
		if n > 0 {
			if _, werr := sink.Write(r.copyBuf[:n]); werr != nil {
				return outSize, werr
			}
			outSize += uint64(n)
			r.showDecompressProgress(ctx, srcName, outSize)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return outSize, coded(codeDecode, "zpress: %s: inflate error: %v", srcName, rerr)
		}
	}
	if err := sink.Finish(); err != nil {
		return outSize, err
	}
	return outSize, nil
}

// decompressLzmaFrame decodes an xz stream or a raw lzma stream.
func (r *decompressionResources) decompressLzmaFrame(ctx *Context,
	sink *sparseWriter, srcName string, plainLzma bool) (uint64, error) {

	var stream io.Reader
	var err error
	if plainLzma {
		stream, err = lzma.NewReader(r.source)
	} else {
		stream, err = xz.NewReader(r.source)
	}
	if err != nil {
		return 0, coded(codeDecode, "zpress: %s: lzma decoder error: %v", srcName, err)
	}

	var outSize uint64
	for {
		n, rerr := stream.Read(r.copyBuf)
		if n > 0 {
			if _, werr := sink.Write(r.copyBuf[:n]); werr != nil {
				return outSize, werr
			}
			outSize += uint64(n)
			r.showDecompressProgress(ctx, srcName, outSize)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return outSize, coded(codeDecode, "zpress: %s: lzma decoding error: %v", srcName, rerr)
		}
	}
	if err := sink.Finish(); err != nil {
		return outSize, err
	}
	return outSize, nil
}

// decompressLz4Frame decodes one lz4 frame.
func (r *decompressionResources) decompressLz4Frame(ctx *Context,
	sink *sparseWriter, srcName string) (uint64, error) {

	reader := lz4.NewReader(r.source)

	var outSize uint64
	for {
		n, rerr := reader.Read(r.copyBuf)
		if n > 0 {
			if _, werr := sink.Write(r.copyBuf[:n]); werr != nil {
				return outSize, werr
			}
			outSize += uint64(n)
			r.display.Updatef(2, "\rDecompressed : %s  ", hsize(outSize))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return outSize, coded(codeDecode, "zpress: %s: lz4 decompression error: %v", srcName, rerr)
		}
	}
	if err := sink.Finish(); err != nil {
		return outSize, err
	}
	return outSize, nil
}

// passThrough copies the input to the output verbatim, for
// compatibility with gzip -df on already-decompressed data.
func (r *decompressionResources) passThrough(sink *sparseWriter) error {
	for {
		n, rerr := r.source.Read(r.copyBuf[:passThroughBlockSize])
		if n > 0 {
			if _, werr := sink.Write(r.copyBuf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return coded(codeRead, "Pass-through read error : %v", rerr)
		}
	}
	return sink.Finish()
}

// showDecompressProgress writes the throttled decompression progress
// line.
func (r *decompressionResources) showDecompressProgress(ctx *Context, srcName string, decoded uint64) {
	level := 1
	if ctx.HasStdoutOutput && r.display.Progress != ProgressAlways {
		level = 2
	}
	if ctx.TotalFiles > 1 {
		r.display.Updatef(level, "\rDecompress: %2d/%2d files. Current: %s : %s...    ",
			ctx.CurrentIndex+1, ctx.TotalFiles, truncateName(srcName, 18), hsize(decoded))
	} else {
		r.display.Updatef(level, "\r%-20.20s : %s...     ", truncateName(srcName, 20), hsize(decoded))
	}
}

// decompressFrames walks the source frame by frame, dispatching each
// on its leading magic bytes, until the input is exhausted. Unconsumed
// bytes behind each decoder stay in the shared buffered source, so a
// stream may mix formats freely.
func (r *decompressionResources) decompressFrames(ctx *Context,
	dstFile *os.File, dstName, srcName string) error {

	prefs := r.prefs
	display := r.display
	readSomething := false
	var fileSize uint64

	for {
		magic, err := r.source.Peek(4)
		if len(magic) == 0 {
			if err == io.EOF {
				if !readSomething {
					display.Printf(1, "zpress: %s: unexpected end of file \n", srcName)
					return errFileSkipped
				}
				break
			}
			display.Printf(1, "zpress: %s: %v \n", srcName, err)
			return errFileSkipped
		}
		readSomething = true
		if len(magic) < 4 {
			display.Printf(1, "zpress: %s: unknown header \n", srcName)
			return errFileSkipped
		}

		sink := newSparseWriter(dstFile, prefs)
		magic32 := binary.LittleEndian.Uint32(magic)
		var frameSize uint64
		var frameErr error

		switch {
		case magic32 == zframe.MagicNumber:
			frameSize, frameErr = r.decompressZstdFrame(ctx, sink, srcName, fileSize)
		case zframe.IsSkippable(magic32):
			frameErr = r.skipSkippableFrame(srcName)
		case magic[0] == 0x1F && magic[1] == 0x8B:
			frameSize, frameErr = r.decompressGzFrame(ctx, sink, srcName)
		case magic[0] == 0xFD && magic[1] == 0x37:
			frameSize, frameErr = r.decompressLzmaFrame(ctx, sink, srcName, false)
		case magic[0] == 0x5D && magic[1] == 0x00:
			frameSize, frameErr = r.decompressLzmaFrame(ctx, sink, srcName, true)
		case magic32 == lz4FrameMagic:
			frameSize, frameErr = r.decompressLz4Frame(ctx, sink, srcName)
		case prefs.Overwrite && dstName == StdoutMark:
			return r.passThrough(sink)
		default:
			display.Printf(1, "zpress: %s: unsupported format \n", srcName)
			return errFileSkipped
		}

		if frameErr != nil {
			display.Printf(1, "%v \n", frameErr)
			return frameErr
		}
		fileSize += frameSize
	}

	ctx.TotalBytesOut += fileSize
	display.clearLine(2)
	if (display.Verbosity >= 2 && ctx.TotalFiles <= 1 && !ctx.HasStdoutOutput) ||
		display.Verbosity >= 3 || display.Progress == ProgressAlways {
		display.Printf(1, "\r%-20s: %d bytes \n", srcName, fileSize)
	}
	return nil
}

// decompressDstFile opens the destination (unless the batch shares
// one), arms interrupt cleanup for its lifetime, decodes all frames,
// and removes the partial artifact on failure.
func (r *decompressionResources) decompressDstFile(ctx *Context,
	srcFile *os.File, dstName, srcName string) error {

	dstFile := r.dstFile
	closeDst := false
	var srcInfo os.FileInfo
	transferMTime := false

	if dstFile == nil && !r.prefs.TestMode {
		permissions := defaultFilePermissions
		if info, ok := sourceAttributes(srcName); ok {
			permissions = info.Mode().Perm()
			srcInfo = info
			transferMTime = true
		}

		var err error
		dstFile, err = openDestinationFile(ctx, r.prefs, r.display, srcName, dstName, permissions)
		if err != nil || dstFile == nil {
			return errFileSkipped
		}
		closeDst = true
		armCleanup(dstName)
	}

	r.source.Reset(srcFile)
	err := r.decompressFrames(ctx, dstFile, dstName, srcName)

	if closeDst {
		disarmCleanup()
		if closeErr := dstFile.Close(); closeErr != nil {
			r.display.Printf(1, "zpress: %s: %v \n", dstName, closeErr)
			if err == nil {
				err = coded(codeClose, "zpress: %s: %v", dstName, closeErr)
			}
		}
		if transferMTime {
			transferAttributes(dstName, srcInfo)
		}
		if err != nil && dstName != StdoutMark {
			_ = removeFile(r.display, dstName)
		}
	}
	return err
}

// decompressSrcFile applies source policy, opens the source, runs the
// destination half, and honors --rm on success.
func (r *decompressionResources) decompressSrcFile(ctx *Context, dstName, srcName string) error {
	display := r.display

	if info, err := os.Stat(srcName); err == nil && info.IsDir() {
		display.Printf(1, "zpress: %s is a directory -- ignored \n", srcName)
		return errFileSkipped
	}

	srcFile, err := openSourceFile(r.prefs, display, srcName)
	if err != nil {
		return errFileSkipped
	}

	result := r.decompressDstFile(ctx, srcFile, dstName, srcName)

	if closeErr := srcFile.Close(); closeErr != nil {
		display.Printf(1, "zpress: %s: %v \n", srcName, closeErr)
		return coded(codeClose, "zpress: %s: %v", srcName, closeErr)
	}
	if r.prefs.RemoveSrcFile && result == nil && srcName != StdinMark {
		// Cleanup must be disarmed first, or an interrupt here would
		// delete the destination along with the source.
		disarmCleanup()
		if rmErr := removeFile(display, srcName); rmErr != nil {
			display.Printf(1, "zpress: %s: %v \n", srcName, rmErr)
			return errFileSkipped
		}
	}
	return result
}
