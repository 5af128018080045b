// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"errors"
	"os"
)

// removeMultiFilesWarning handles the prompt/abort matrix when several
// inputs are processed into one destination. Returns true when the
// batch must abort.
//
// With --force or a single file the batch always proceeds. With --rm
// the operation is destructive, so: quiet mode aborts pre-emptively,
// stdout output aborts (the concatenation cannot be un-done), and
// otherwise the user is asked. Without --rm a warning is printed,
// silenceable with -q.
func removeMultiFilesWarning(ctx *Context, prefs *Prefs, display *Display, outFileName string) bool {
	if ctx.TotalFiles <= 1 || prefs.Overwrite {
		return false
	}
	if display.Verbosity <= 1 {
		if prefs.RemoveSrcFile {
			display.Printf(1, "zpress: Aborting... not deleting files and processing into dst: %s\n", outFileName)
			return true
		}
		return false
	}
	if outFileName == StdoutMark {
		display.Printf(2, "zpress: WARNING: all input files will be processed and concatenated into stdout. \n")
	} else {
		display.Printf(2, "zpress: WARNING: all input files will be processed and concatenated into a single output file: %s \n", outFileName)
	}
	display.Printf(2, "The concatenated output CANNOT regenerate the original directory tree. \n")
	if prefs.RemoveSrcFile {
		if ctx.HasStdoutOutput {
			display.Printf(1, "Aborting. Use -f if you really want to delete the files and output to stdout\n")
			return true
		}
		return !confirm(display, "This is a destructive operation. Proceed? (y/n): ", "Aborting...\n")
	}
	return false
}

// largestFileSize returns the biggest stat-able source size, used to
// derive patch-from parameters for the whole batch.
func largestFileSize(srcNames []string) uint64 {
	var largest uint64
	for _, name := range srcNames {
		if size := getFileSize(name); size != fileSizeUnknown && size > largest {
			largest = size
		}
	}
	return largest
}

// CompressFilename compresses a single source into a single
// destination. Returns the per-file status and any fatal error.
func CompressFilename(ctx *Context, prefs *Prefs, display *Display,
	dstName, srcName, dictFileName string, level int) (int, error) {

	ress, err := newCompressionResources(prefs, display, dictFileName, getFileSize(srcName), level)
	if err != nil {
		return 1, err
	}
	defer ress.free()

	if ferr := ress.compressFilenameSrcFile(ctx, dstName, srcName, level); ferr != nil {
		var fatal *Error
		if asFatal(ferr, &fatal) {
			return 1, fatal
		}
		return 1, nil
	}
	ctx.Processed++
	return 0, nil
}

// asFatal reports whether err is a coded fatal error (as opposed to a
// per-file skip) and extracts it.
func asFatal(err error, target **Error) bool {
	if errors.Is(err, errFileSkipped) {
		return false
	}
	var codedErr *Error
	if errors.As(err, &codedErr) {
		switch codedErr.Code {
		case codeDictTooLarge, codePatchFrom, codeCodec:
			*target = codedErr
			return true
		}
	}
	return false
}

// CompressMultiple compresses a batch of sources in one of three
// modes: all into outFileName when it is set, into per-source derived
// names otherwise, optionally mirrored under mirrorRootDir.
func CompressMultiple(ctx *Context, prefs *Prefs, display *Display,
	srcNames []string, mirrorRootDir, outDirName, outFileName, suffix string,
	dictFileName string, level int) (int, error) {

	ress, err := newCompressionResources(prefs, display, dictFileName, largestFileSize(srcNames), level)
	if err != nil {
		return 1, err
	}
	defer ress.free()

	status := 0
	if outFileName != "" {
		if removeMultiFilesWarning(ctx, prefs, display, outFileName) {
			return 1, nil
		}
		dstFile, err := openDestinationFile(ctx, prefs, display, "", outFileName, defaultFilePermissions)
		if err != nil || dstFile == nil {
			return 1, nil
		}
		ress.dstFile = dstFile
		for ; ctx.CurrentIndex < ctx.TotalFiles; ctx.CurrentIndex++ {
			ferr := ress.compressFilenameSrcFile(ctx, outFileName, srcNames[ctx.CurrentIndex], level)
			if ferr == nil {
				ctx.Processed++
			} else {
				var fatal *Error
				if asFatal(ferr, &fatal) {
					return 1, fatal
				}
				status = 1
			}
		}
		ress.dstFile = nil
		if closeErr := dstFile.Close(); closeErr != nil && outFileName != StdoutMark {
			return 1, coded(codeClose, "Write error (%v) : cannot properly close %s", closeErr, outFileName)
		}
	} else {
		for ; ctx.CurrentIndex < ctx.TotalFiles; ctx.CurrentIndex++ {
			srcName := srcNames[ctx.CurrentIndex]
			outDir := outDirName
			if mirrorRootDir != "" {
				mirrored, merr := mirroredDir(srcName, mirrorRootDir)
				if merr != nil {
					display.Printf(2, "zpress: --output-dir-mirror cannot compress '%s' into '%s' \n", srcName, mirrorRootDir)
					status = 1
					continue
				}
				outDir = mirrored
			}
			dstName := CompressedName(srcName, outDir, suffix)
			ferr := ress.compressFilenameSrcFile(ctx, dstName, srcName, level)
			if ferr == nil {
				ctx.Processed++
			} else {
				var fatal *Error
				if asFatal(ferr, &fatal) {
					return 1, fatal
				}
				status = 1
			}
		}
		if outDirName != "" {
			CheckFilenameCollisions(display, srcNames)
		}
	}

	if ctx.Processed >= 1 && ctx.TotalFiles > 1 && ctx.TotalBytesIn != 0 {
		display.clearLine(2)
		display.Printf(2, "%3d files compressed :%.2f%%   (%s => %s)\n",
			ctx.Processed,
			float64(ctx.TotalBytesOut)/float64(ctx.TotalBytesIn)*100,
			hsize(ctx.TotalBytesIn), hsize(ctx.TotalBytesOut))
	}
	return status, nil
}

// DecompressFilename decompresses a single source into a single
// destination.
func DecompressFilename(ctx *Context, prefs *Prefs, display *Display,
	dstName, srcName, dictFileName string) (int, error) {

	ress, err := newDecompressionResources(prefs, display, dictFileName)
	if err != nil {
		return 1, err
	}
	defer ress.free()

	if ferr := ress.decompressSrcFile(ctx, dstName, srcName); ferr != nil {
		var fatal *Error
		if asFatal(ferr, &fatal) {
			return 1, fatal
		}
		return 1, nil
	}
	ctx.Processed++
	return 0, nil
}

// DecompressMultiple mirrors CompressMultiple for decompression.
// Sources whose suffix cannot be recognized fail individually without
// stopping the batch.
func DecompressMultiple(ctx *Context, prefs *Prefs, display *Display,
	srcNames []string, mirrorRootDir, outDirName, outFileName string,
	dictFileName string) (int, error) {

	ress, err := newDecompressionResources(prefs, display, dictFileName)
	if err != nil {
		return 1, err
	}
	defer ress.free()

	status := 0
	if outFileName != "" {
		if removeMultiFilesWarning(ctx, prefs, display, outFileName) {
			return 1, nil
		}
		if !prefs.TestMode {
			dstFile, err := openDestinationFile(ctx, prefs, display, "", outFileName, defaultFilePermissions)
			if err != nil || dstFile == nil {
				return 1, coded(codeOpen, "cannot open %s", outFileName)
			}
			ress.dstFile = dstFile
		}
		for ; ctx.CurrentIndex < ctx.TotalFiles; ctx.CurrentIndex++ {
			ferr := ress.decompressSrcFile(ctx, outFileName, srcNames[ctx.CurrentIndex])
			if ferr == nil {
				ctx.Processed++
			} else {
				var fatal *Error
				if asFatal(ferr, &fatal) {
					return 1, fatal
				}
				status = 1
			}
		}
		if ress.dstFile != nil {
			dstFile := ress.dstFile
			ress.dstFile = nil
			if closeErr := dstFile.Close(); closeErr != nil && outFileName != StdoutMark {
				return 1, coded(codeClose, "Write error : %v : cannot properly close output file", closeErr)
			}
		}
	} else {
		for ; ctx.CurrentIndex < ctx.TotalFiles; ctx.CurrentIndex++ {
			srcName := srcNames[ctx.CurrentIndex]
			outDir := outDirName
			if mirrorRootDir != "" {
				mirrored, merr := mirroredDir(srcName, mirrorRootDir)
				if merr != nil {
					display.Printf(2, "zpress: --output-dir-mirror cannot decompress '%s' into '%s'\n", srcName, mirrorRootDir)
					status = 1
					continue
				}
				outDir = mirrored
			}
			dstName, derr := DecompressedName(srcName, outDir)
			if derr != nil {
				display.Printf(1, "%v. Specify the output name with -o. Ignoring.\n", derr)
				status = 1
				continue
			}
			ferr := ress.decompressSrcFile(ctx, dstName, srcName)
			if ferr == nil {
				ctx.Processed++
			} else {
				var fatal *Error
				if asFatal(ferr, &fatal) {
					return 1, fatal
				}
				status = 1
			}
		}
		if outDirName != "" {
			CheckFilenameCollisions(display, srcNames)
		}
	}

	if ctx.Processed >= 1 && ctx.TotalFiles > 1 && ctx.TotalBytesOut != 0 {
		display.Printf(2, "%d files decompressed : %d bytes total \n", ctx.Processed, ctx.TotalBytesOut)
	}
	return status, nil
}

// ensureDir verifies (or creates) an output directory argument.
func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureOutputDirs prepares the -O / --output-dir-mirror targets
// before a batch starts.
func EnsureOutputDirs(outDirName, mirrorRootDir string) error {
	if err := ensureDir(outDirName); err != nil {
		return coded(codeOpen, "cannot create output directory %s: %v", outDirName, err)
	}
	if err := ensureDir(mirrorRootDir); err != nil {
		return coded(codeOpen, "cannot create output directory %s: %v", mirrorRootDir, err)
	}
	return nil
}
