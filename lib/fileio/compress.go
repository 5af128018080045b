// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"io"
	"math/bits"
	"os"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

const defaultFilePermissions os.FileMode = 0o666

// fileSizeUnknown marks a source whose size cannot be stat-ed.
const fileSizeUnknown = ^uint64(0)

const (
	// compressBufferSize is the fixed source buffer for the
	// synchronous format loops.
	compressBufferSize = 128 << 10

	// defaultJobSize is the per-job chunk size of the Zstandard
	// pipeline when the preference leaves it unset.
	defaultJobSize = 1 << 20

	// maxWindowLog bounds patch-from window derivation.
	maxWindowLog = 27

	// adaptWindowLog is the window applied in adaptive mode when no
	// explicit window or long-distance matching was requested, so the
	// frame stays decodable at a predictable memory cost while the
	// level moves.
	adaptWindowLog = 23

	// longWindowLog is the default window for --long.
	longWindowLog = 27
)

// getFileSize returns the size of a regular file, or fileSizeUnknown.
func getFileSize(name string) uint64 {
	info, err := os.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return fileSizeUnknown
	}
	return uint64(info.Size())
}

// highbit64 gives the position of the highest set bit. v must be > 0.
func highbit64(v uint64) int {
	return 63 - bits.LeadingZeros64(v)
}

// compressionResources owns the codec contexts and fixed buffers for
// one compression batch. The per-file loops receive them by reference
// and never resize or replace them.
type compressionResources struct {
	prefs   *Prefs
	display *Display

	dict         []byte
	dictFileName string

	srcBuffer  []byte
	jobSize    int
	jobBuffers chan []byte

	encoderOptions []zstd.EOption
	encoders       map[zstd.EncoderLevel]*zstd.Encoder

	gzWriter  *gzip.Writer
	lz4Writer *lz4.Writer

	// dstFile is non-nil when the whole batch shares one destination.
	dstFile *os.File
}

// adjustPatchFromParams derives the window from the reference and the
// largest source, raises the memory limit to fit, and refuses sources
// beyond the representable window.
func adjustPatchFromParams(prefs *Prefs, display *Display, dictSize, maxSrcSize uint64) error {
	maxSize := dictSize
	if maxSrcSize != fileSizeUnknown && maxSrcSize > maxSize {
		maxSize = maxSrcSize
	}
	if maxSize < prefs.StreamSrcSize {
		maxSize = prefs.StreamSrcSize
	}
	if maxSize == 0 || (maxSrcSize == fileSizeUnknown && prefs.StreamSrcSize == 0) {
		return coded(codePatchFrom, "Using --patch-from with stdin requires --stream-size")
	}
	if maxSize > 1<<maxWindowLog {
		return coded(codePatchFrom, "Can't handle files larger than %d MB in patch-from mode", (1<<maxWindowLog)>>20)
	}

	fileWindowLog := highbit64(maxSize) + 1
	if prefs.WindowLog == 0 {
		prefs.WindowLog = fileWindowLog
	}
	if !prefs.LongDistanceMatching && fileWindowLog > adaptWindowLog {
		display.Printf(1, "long mode automatically triggered\n")
		prefs.LongDistanceMatching = true
	}
	// Frames may declare a window up to 1<<WindowLog, which is larger
	// than maxSize; the limit must admit that window.
	if window := uint64(1) << prefs.WindowLog; prefs.MemLimit < window {
		prefs.MemLimit = window
	}
	return nil
}

// newCompressionResources builds the batch-level resources: the codec
// contexts, the fixed buffers, and the dictionary.
func newCompressionResources(prefs *Prefs, display *Display,
	dictFileName string, maxSrcSize uint64, level int) (*compressionResources, error) {

	r := &compressionResources{
		prefs:    prefs,
		display:  display,
		encoders: make(map[zstd.EncoderLevel]*zstd.Encoder),
	}

	if prefs.PatchFrom {
		if err := adjustPatchFromParams(prefs, display, getFileSize(dictFileName), maxSrcSize); err != nil {
			return nil, err
		}
	}

	dict, err := loadDictionary(prefs, display, dictFileName)
	if err != nil {
		return nil, err
	}
	r.dict = dict
	r.dictFileName = dictFileName

	r.srcBuffer = make([]byte, compressBufferSize)
	r.jobSize = prefs.JobSize
	if r.jobSize <= 0 {
		r.jobSize = defaultJobSize
	}
	workers := prefs.Workers
	if workers < 1 {
		workers = 1
	}
	r.jobBuffers = make(chan []byte, workers+2)
	for i := 0; i < workers+2; i++ {
		r.jobBuffers <- make([]byte, r.jobSize)
	}

	windowLog := prefs.WindowLog
	if windowLog == 0 && prefs.LongDistanceMatching {
		windowLog = longWindowLog
	}
	if windowLog == 0 && prefs.Adaptive {
		windowLog = adaptWindowLog
	}

	r.encoderOptions = []zstd.EOption{
		zstd.WithEncoderConcurrency(workers),
		zstd.WithEncoderCRC(prefs.ChecksumFlag),
		// An empty source still yields a frame, so it round-trips.
		zstd.WithZeroFrames(true),
	}
	if windowLog > 0 {
		// The codec accepts windows between 1 KiB and 512 MiB; keep
		// derived values inside a sane slice of that range.
		if windowLog > maxWindowLog {
			windowLog = maxWindowLog
		}
		if windowLog < 10 {
			windowLog = 10
		}
		r.encoderOptions = append(r.encoderOptions, zstd.WithWindowSize(1<<windowLog))
	}
	if len(dict) > 0 {
		if prefs.PatchFrom {
			r.encoderOptions = append(r.encoderOptions, zstd.WithEncoderDictRaw(0, dict))
		} else {
			r.encoderOptions = append(r.encoderOptions, zstd.WithEncoderDict(dict))
		}
	}

	if prefs.Format == FormatZstd {
		if _, err := r.encoderFor(level); err != nil {
			return nil, err
		}
	}

	gzw, err := gzip.NewWriterLevel(io.Discard, gzipLevel(level))
	if err != nil {
		return nil, coded(codeCodec, "gzip writer: %v", err)
	}
	r.gzWriter = gzw

	r.lz4Writer = lz4.NewWriter(io.Discard)
	if err := r.lz4Writer.Apply(
		lz4.BlockSizeOption(lz4.Block64Kb),
		lz4.ChecksumOption(prefs.ChecksumFlag),
		lz4.CompressionLevelOption(lz4Level(level)),
		lz4.ConcurrencyOption(workers),
	); err != nil {
		return nil, coded(codeCodec, "lz4 writer: %v", err)
	}

	return r, nil
}

// encoderFor returns the cached encoder for the tier that numeric
// level maps to, creating it on first use. All encoders in the cache
// share the batch options.
func (r *compressionResources) encoderFor(level int) (*zstd.Encoder, error) {
	tier := zstd.EncoderLevelFromZstd(level)
	if enc, ok := r.encoders[tier]; ok {
		return enc, nil
	}
	options := append([]zstd.EOption{zstd.WithEncoderLevel(tier)}, r.encoderOptions...)
	enc, err := zstd.NewWriter(nil, options...)
	if err != nil {
		return nil, coded(codeCodec, "can't create compression context: %v", err)
	}
	r.encoders[tier] = enc
	return enc, nil
}

// free releases the codec contexts.
func (r *compressionResources) free() {
	for _, enc := range r.encoders {
		_ = enc.Close()
	}
}

// gzipLevel clamps a zstd-range level into gzip's 1..9.
func gzipLevel(level int) int {
	if level < gzip.BestSpeed {
		return gzip.BestSpeed
	}
	if level > gzip.BestCompression {
		return gzip.BestCompression
	}
	return level
}

// lz4Level maps a zstd-range level onto lz4 levels.
func lz4Level(level int) lz4.CompressionLevel {
	switch {
	case level <= 0:
		return lz4.Fast
	case level >= 9:
		return lz4.Level9
	default:
		return [...]lz4.CompressionLevel{
			lz4.Level1, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
			lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8,
		}[level]
	}
}

// countingWriter forwards to w and counts bytes written.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// pipelineStats are the atomic counters behind Snapshot.
type pipelineStats struct {
	ingested atomic.Uint64
	consumed atomic.Uint64
	produced atomic.Uint64
	flushed  atomic.Uint64
	jobID    atomic.Uint32
	active   atomic.Int32
}

func (s *pipelineStats) snapshot() Snapshot {
	return Snapshot{
		Ingested:      s.ingested.Load(),
		Consumed:      s.consumed.Load(),
		Produced:      s.produced.Load(),
		Flushed:       s.flushed.Load(),
		CurrentJobID:  s.jobID.Load(),
		ActiveWorkers: int(s.active.Load()),
	}
}

// compressJob is one chunk of source bytes queued for the encoder.
type compressJob struct {
	buf []byte
	n   int
}

// pipeWriter receives the codec's output, counts it as produced, and
// hands owned copies to the flusher.
type pipeWriter struct {
	stats *pipelineStats
	ch    chan<- []byte
}

func (p *pipeWriter) Write(b []byte) (int, error) {
	p.stats.produced.Add(uint64(len(b)))
	owned := make([]byte, len(b))
	copy(owned, b)
	p.ch <- owned
	return len(b), nil
}

// compressZstdFrame runs the Zstandard per-file streaming loop: a
// reader feeding fixed job buffers through a bounded queue to the
// encoder, whose output drains through a flusher to the destination.
// The queue depths are what give the adaptive controller its
// occupancy signals.
func (r *compressionResources) compressZstdFrame(ctx *Context,
	srcFile, dstFile *os.File, srcName string, fileSize uint64,
	level int) (read, written uint64, err error) {

	prefs := r.prefs
	display := r.display
	stats := &pipelineStats{}
	controller := newAdaptiveController(prefs, level)

	pledged := int64(-1)
	if fileSize != fileSizeUnknown {
		pledged = int64(fileSize)
	} else if prefs.StreamSrcSize > 0 {
		pledged = int64(prefs.StreamSrcSize)
	}

	workers := prefs.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan compressJob, workers)
	flushCh := make(chan []byte, workers)
	levelCh := make(chan int, 1)
	encDone := make(chan error, 1)
	flushDone := make(chan error, 1)

	sink := &pipeWriter{stats: stats, ch: flushCh}

	encoder, err := r.encoderFor(level)
	if err != nil {
		return 0, 0, err
	}
	if pledged >= 0 && prefs.ContentSize && !prefs.Adaptive {
		encoder.ResetContentSize(sink, pledged)
	} else {
		encoder.Reset(sink)
	}

	go func() {
		var encodeErr error
		currentTier := zstd.EncoderLevelFromZstd(level)
		enc := encoder
		for job := range jobs {
			if encodeErr != nil {
				r.jobBuffers <- job.buf
				continue
			}
			select {
			case newLevel := <-levelCh:
				if tier := zstd.EncoderLevelFromZstd(newLevel); tier != currentTier {
					// End the current frame and continue at the new
					// tier; the concatenated frames remain one valid
					// stream.
					if closeErr := enc.Close(); closeErr != nil {
						encodeErr = coded(codeCodec, "zpress: %s: compression error: %v", srcName, closeErr)
					}
					next, encErr := r.encoderFor(newLevel)
					if encErr != nil {
						encodeErr = encErr
					} else {
						next.Reset(sink)
						enc = next
						currentTier = tier
					}
				}
			default:
			}
			if encodeErr != nil {
				r.jobBuffers <- job.buf
				continue
			}
			stats.active.Store(1)
			_, writeErr := enc.Write(job.buf[:job.n])
			stats.consumed.Add(uint64(job.n))
			stats.jobID.Add(1)
			stats.active.Store(0)
			r.jobBuffers <- job.buf
			if writeErr != nil {
				encodeErr = coded(codeCodec, "zpress: %s: compression error: %v", srcName, writeErr)
			}
		}
		if encodeErr == nil {
			if closeErr := enc.Close(); closeErr != nil {
				encodeErr = coded(codeCodec, "zpress: %s: compression error: %v", srcName, closeErr)
			}
		}
		close(flushCh)
		encDone <- encodeErr
	}()

	go func() {
		var flushErr error
		for buf := range flushCh {
			if flushErr != nil {
				continue
			}
			n, writeErr := dstFile.Write(buf)
			stats.flushed.Add(uint64(n))
			if writeErr != nil {
				flushErr = coded(codeWrite, "Write error : %v (cannot write compressed block)", writeErr)
			}
		}
		flushDone <- flushErr
	}()

	requestedLevel := level
	var readErr error
readLoop:
	for {
		buf := <-r.jobBuffers
		n, rerr := io.ReadFull(srcFile, buf)
		if n > 0 {
			read += uint64(n)
			stats.ingested.Add(uint64(n))
			blocked := false
			select {
			case jobs <- compressJob{buf: buf, n: n}:
			default:
				blocked = true
			}
			if blocked {
				jobs <- compressJob{buf: buf, n: n}
			}
			if prefs.Adaptive {
				controller.recordInput(blocked, stats.produced.Load()-stats.flushed.Load())
			}
		} else {
			r.jobBuffers <- buf
		}

		end := rerr == io.EOF || rerr == io.ErrUnexpectedEOF
		if rerr != nil && !end {
			readErr = coded(codeRead, "Read error : %v", rerr)
			break readLoop
		}
		if pledged >= 0 && read == uint64(pledged) {
			// The pledge is trusted: reaching it ends the stream even
			// if the source would still deliver bytes.
			end = true
		}

		if display.readyForUpdate() {
			snap := stats.snapshot()
			r.showCompressProgress(ctx, srcName, fileSize, controller.Level(), snap)
			if prefs.Adaptive {
				if next := controller.observe(snap); next != requestedLevel {
					requestedLevel = next
					select {
					case levelCh <- next:
					default:
						// A pending request is superseded below.
						select {
						case <-levelCh:
						default:
						}
						levelCh <- next
					}
				}
			}
		}

		if end {
			break
		}
	}
	close(jobs)

	encodeErr := <-encDone
	flushErr := <-flushDone
	written = stats.flushed.Load()

	switch {
	case readErr != nil:
		return read, written, readErr
	case encodeErr != nil:
		return read, written, encodeErr
	case flushErr != nil:
		return read, written, flushErr
	}

	if fileSize != fileSizeUnknown && read != fileSize {
		return read, written, coded(codeShortRead,
			"Read error : Incomplete read : %d / %d B", read, fileSize)
	}
	return read, written, nil
}

// showCompressProgress writes the throttled progress line.
func (r *compressionResources) showCompressProgress(ctx *Context,
	srcName string, fileSize uint64, level int, snap Snapshot) {

	display := r.display
	cShare := 0.0
	if snap.Consumed > 0 {
		cShare = float64(snap.Produced) / float64(snap.Consumed) * 100
	}
	if display.Verbosity >= 3 {
		display.Updatef(3, "\r(L%d) Buffered :%s - Consumed :%s - Compressed :%s => %.2f%% ",
			level, hsize(snap.Ingested-snap.Consumed), hsize(snap.Consumed), hsize(snap.Produced), cShare)
		return
	}
	if display.Verbosity >= 2 || display.Progress == ProgressAlways {
		display.clearLine(1)
		if ctx.TotalFiles > 1 {
			display.Printf(1, "Compress: %d/%d files. Current: %s ",
				ctx.CurrentIndex+1, ctx.TotalFiles, truncateName(srcName, 18))
		}
		display.Printf(1, "Read:%s ", hsize(snap.Consumed))
		if fileSize != fileSizeUnknown {
			display.Printf(2, "/%s", hsize(fileSize))
		}
		display.Printf(1, " ==> %2.f%%", cShare)
		display.delayNextUpdate()
	}
}

// compressGzipFrame runs the synchronous gzip per-file loop over the
// shared source buffer.
func (r *compressionResources) compressGzipFrame(srcFile, dstFile *os.File,
	srcName string, fileSize uint64) (read, written uint64, err error) {

	counting := &countingWriter{w: dstFile}
	gz := r.gzWriter
	gz.Reset(counting)

	for {
		n, rerr := srcFile.Read(r.srcBuffer)
		if n > 0 {
			read += uint64(n)
			if _, werr := gz.Write(r.srcBuffer[:n]); werr != nil {
				return read, counting.n, coded(codeCodec, "zpress: %s: deflate error: %v", srcName, werr)
			}
			r.showSimpleProgress(srcName, read, fileSize, counting.n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return read, counting.n, coded(codeRead, "Read error : %v", rerr)
		}
	}
	if cerr := gz.Close(); cerr != nil {
		return read, counting.n, coded(codeCodec, "zpress: %s: deflate error: %v", srcName, cerr)
	}
	return read, counting.n, nil
}

// compressLzmaFrame runs the xz and raw-lzma per-file loops; the two
// formats share one shape and differ only in the stream writer.
func (r *compressionResources) compressLzmaFrame(srcFile, dstFile *os.File,
	srcName string, fileSize uint64, plainLzma bool) (read, written uint64, err error) {

	counting := &countingWriter{w: dstFile}
	var stream io.WriteCloser
	if plainLzma {
		w, werr := lzma.NewWriter(counting)
		if werr != nil {
			return 0, 0, coded(codeCodec, "zpress: %s: lzma encoder error: %v", srcName, werr)
		}
		stream = w
	} else {
		w, werr := xz.NewWriter(counting)
		if werr != nil {
			return 0, 0, coded(codeCodec, "zpress: %s: xz encoder error: %v", srcName, werr)
		}
		stream = w
	}

	for {
		n, rerr := srcFile.Read(r.srcBuffer)
		if n > 0 {
			read += uint64(n)
			if _, werr := stream.Write(r.srcBuffer[:n]); werr != nil {
				return read, counting.n, coded(codeCodec, "zpress: %s: lzma encoding error: %v", srcName, werr)
			}
			r.showSimpleProgress(srcName, read, fileSize, counting.n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return read, counting.n, coded(codeRead, "Read error : %v", rerr)
		}
	}
	if cerr := stream.Close(); cerr != nil {
		return read, counting.n, coded(codeCodec, "zpress: %s: lzma encoding error: %v", srcName, cerr)
	}
	return read, counting.n, nil
}

// compressLz4Frame runs the lz4 per-file loop over the shared writer.
func (r *compressionResources) compressLz4Frame(srcFile, dstFile *os.File,
	srcName string, fileSize uint64) (read, written uint64, err error) {

	counting := &countingWriter{w: dstFile}
	w := r.lz4Writer
	w.Reset(counting)

	for {
		n, rerr := srcFile.Read(r.srcBuffer)
		if n > 0 {
			read += uint64(n)
			if _, werr := w.Write(r.srcBuffer[:n]); werr != nil {
				return read, counting.n, coded(codeCodec, "zpress: %s: lz4 compression failed: %v", srcName, werr)
			}
			r.showSimpleProgress(srcName, read, fileSize, counting.n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return read, counting.n, coded(codeRead, "Error reading %s: %v", srcName, rerr)
		}
	}
	if cerr := w.Close(); cerr != nil {
		return read, counting.n, coded(codeCodec, "zpress: %s: lz4 end of stream failed: %v", srcName, cerr)
	}
	return read, counting.n, nil
}

// showSimpleProgress is the progress line for the non-zstd formats.
func (r *compressionResources) showSimpleProgress(srcName string, read, fileSize, written uint64) {
	ratio := 0.0
	if read > 0 {
		ratio = float64(written) / float64(read) * 100
	}
	if fileSize == fileSizeUnknown {
		r.display.Updatef(2, "\rRead : %d MB ==> %.2f%% ", read>>20, ratio)
	} else {
		r.display.Updatef(2, "\rRead : %d / %d MB ==> %.2f%% ", read>>20, fileSize>>20, ratio)
	}
	_ = srcName
}

// compressFilenameInternal compresses one opened source into one
// opened destination in the format the preferences select, then
// prints the per-file result line.
func (r *compressionResources) compressFilenameInternal(ctx *Context,
	srcFile, dstFile *os.File, dstName, srcName string, level int) error {

	prefs := r.prefs
	display := r.display
	fileSize := fileSizeUnknown
	if srcName != StdinMark {
		fileSize = getFileSize(srcName)
	}
	display.Printf(5, "%s: %d bytes \n", srcName, fileSize)

	var read, written uint64
	var err error
	switch prefs.Format {
	case FormatGzip:
		read, written, err = r.compressGzipFrame(srcFile, dstFile, srcName, fileSize)
	case FormatXz:
		read, written, err = r.compressLzmaFrame(srcFile, dstFile, srcName, fileSize, false)
	case FormatLzma:
		read, written, err = r.compressLzmaFrame(srcFile, dstFile, srcName, fileSize, true)
	case FormatLz4:
		read, written, err = r.compressLz4Frame(srcFile, dstFile, srcName, fileSize)
	default:
		read, written, err = r.compressZstdFrame(ctx, srcFile, dstFile, srcName, fileSize, level)
	}
	if err != nil {
		display.Printf(1, "%v \n", err)
		return err
	}

	ctx.TotalBytesIn += read
	ctx.TotalBytesOut += written
	display.clearLine(2)
	if display.Verbosity >= 2 && !ctx.HasStdoutOutput &&
		(display.Verbosity >= 3 || ctx.TotalFiles <= 1) {
		if read == 0 {
			display.Printf(2, "%-20s :  (%s => %s, %s) \n",
				srcName, hsize(read), hsize(written), dstName)
		} else {
			display.Printf(2, "%-20s :%6.2f%%   (%s => %s, %s) \n",
				srcName, float64(written)/float64(read)*100,
				hsize(read), hsize(written), dstName)
		}
	}
	return nil
}

// compressFilenameDstFile opens the destination (unless the batch
// already holds one), arms interrupt cleanup for its lifetime, runs
// the compression, and removes the partial artifact on failure.
func (r *compressionResources) compressFilenameDstFile(ctx *Context,
	srcFile *os.File, dstName, srcName string, level int) error {

	dstFile := r.dstFile
	closeDst := false
	var srcInfo os.FileInfo
	transferMTime := false

	if dstFile == nil {
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
		// Armed only after the open succeeds: an interrupt during the
		// overwrite prompt must not delete the existing file.
		armCleanup(dstName)
	}

	err := r.compressFilenameInternal(ctx, srcFile, dstFile, dstName, srcName, level)

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

// compressFilenameSrcFile applies the source-side policy, opens the
// source, runs the destination half, and honors --rm on success.
func (r *compressionResources) compressFilenameSrcFile(ctx *Context,
	dstName, srcName string, level int) error {

	prefs := r.prefs
	display := r.display

	if info, err := os.Stat(srcName); err == nil && info.IsDir() {
		display.Printf(1, "zpress: %s is a directory -- ignored \n", srcName)
		return errFileSkipped
	}
	if r.dictFileName != "" && sameFile(srcName, r.dictFileName) {
		display.Printf(1, "zpress: cannot use %s as an input file and dictionary \n", srcName)
		return errFileSkipped
	}
	if prefs.ExcludeCompressed && isCompressedName(srcName) {
		display.Printf(4, "File is already compressed : %s \n", srcName)
		return nil
	}

	srcFile, err := openSourceFile(prefs, display, srcName)
	if err != nil {
		return errFileSkipped
	}

	result := r.compressFilenameDstFile(ctx, srcFile, dstName, srcName, level)

	_ = srcFile.Close()
	if prefs.RemoveSrcFile && result == nil && srcName != StdinMark {
		// Cleanup must be disarmed first: from here an interrupt would
		// otherwise delete the completed destination as well.
		disarmCleanup()
		if rmErr := removeFile(display, srcName); rmErr != nil {
			return coded(ExitError, "zpress: %s: %v", srcName, rmErr)
		}
	}
	return result
}
