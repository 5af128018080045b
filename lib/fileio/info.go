// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zpress-io/zpress/lib/zframe"
)

// FileInfo aggregates what --list learns about one file (or, via Add,
// about a whole batch) without decoding any payloads.
type FileInfo struct {
	// DecompressedSize sums the declared content sizes of all data
	// frames; meaningless when DecompUnavailable is set.
	DecompressedSize uint64

	// CompressedSize is the on-disk size.
	CompressedSize uint64

	// WindowSize is the last seen frame window.
	WindowSize uint64

	// NumDataFrames and NumSkippableFrames count frames by kind.
	NumDataFrames      int
	NumSkippableFrames int

	// DecompUnavailable is set when any frame omits its content size.
	DecompUnavailable bool

	// UsesChecksum is true only when every data frame carries one.
	UsesChecksum bool

	// NumFiles counts the files folded into this record.
	NumFiles int
}

// Add folds another file's record into a running total.
func (info *FileInfo) Add(other FileInfo) {
	info.NumDataFrames += other.NumDataFrames
	info.NumSkippableFrames += other.NumSkippableFrames
	info.CompressedSize += other.CompressedSize
	info.DecompressedSize += other.DecompressedSize
	info.DecompUnavailable = info.DecompUnavailable || other.DecompUnavailable
	info.UsesChecksum = info.UsesChecksum && other.UsesChecksum
	info.NumFiles += other.NumFiles
}

// Info walk outcomes. Frame errors still yield partial information;
// the other failures abandon the file.
var (
	errInfoNotZstd   = errors.New("not a zstandard file")
	errInfoTruncated = errors.New("truncated input")
)

// analyzeFrames walks every frame of an opened file: data-frame
// headers are parsed, block headers are followed with seeks past their
// payloads, skippable frames are skipped by their declared length.
// The walk succeeds only when end of file coincides with the position
// reaching the stat-reported size.
func analyzeFrames(f *os.File, info *FileInfo) error {
	usesCheck := true
	for {
		var headerBuffer [zframe.HeaderSizeMax]byte
		numRead, err := io.ReadFull(f, headerBuffer[:])
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return fmt.Errorf("error while reading frame header: %w", err)
		}
		if numRead < zframe.HeaderSizeMin {
			if numRead == 0 && info.CompressedSize > 0 {
				position, serr := f.Seek(0, io.SeekCurrent)
				if serr != nil {
					return serr
				}
				if uint64(position) != info.CompressedSize {
					return errInfoTruncated
				}
				break // clean end of file
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return errInfoNotZstd
			}
			return fmt.Errorf("did not reach end of file but ran out of frames")
		}

		magic := binary.LittleEndian.Uint32(headerBuffer[:4])
		switch {
		case magic == zframe.MagicNumber:
			header, herr := zframe.ParseHeader(headerBuffer[:numRead])
			if herr != nil {
				return fmt.Errorf("could not decode frame header: %w", herr)
			}
			if header.ContentSize == zframe.ContentSizeUnknown {
				info.DecompUnavailable = true
			} else {
				info.DecompressedSize += header.ContentSize
			}
			info.WindowSize = header.WindowSize

			// Reposition to the end of the frame header, then follow
			// the block chain.
			if _, err := f.Seek(int64(header.HeaderSize-numRead), io.SeekCurrent); err != nil {
				return fmt.Errorf("could not move to end of frame header: %w", err)
			}
			for {
				var blockHeader [zframe.BlockHeaderSize]byte
				if _, err := io.ReadFull(f, blockHeader[:]); err != nil {
					return fmt.Errorf("error while reading block header: %w", err)
				}
				block, berr := zframe.ParseBlock(blockHeader[:])
				if berr != nil {
					return fmt.Errorf("unsupported block type: %w", berr)
				}
				if _, err := f.Seek(int64(block.PayloadSize), io.SeekCurrent); err != nil {
					return fmt.Errorf("could not skip to end of block: %w", err)
				}
				if block.Last {
					break
				}
			}

			if header.HasChecksum {
				if _, err := f.Seek(zframe.ChecksumSize, io.SeekCurrent); err != nil {
					return fmt.Errorf("could not skip past checksum: %w", err)
				}
			} else {
				usesCheck = false
			}
			info.NumDataFrames++

		case zframe.IsSkippable(magic):
			frameSize := binary.LittleEndian.Uint32(headerBuffer[4:8])
			if _, err := f.Seek(int64(8+int64(frameSize)-int64(numRead)), io.SeekCurrent); err != nil {
				return fmt.Errorf("could not find end of skippable frame: %w", err)
			}
			info.NumSkippableFrames++

		default:
			return errInfoNotZstd
		}
	}
	info.UsesChecksum = info.NumDataFrames > 0 && usesCheck
	return nil
}

// getFileInfo opens one file and walks its frames.
func getFileInfo(prefs *Prefs, display *Display, info *FileInfo, srcName string) error {
	if !isRegularFile(srcName) {
		return fmt.Errorf("%s is not a file", srcName)
	}
	f, err := openSourceFile(prefs, display, srcName)
	if err != nil {
		return fmt.Errorf("could not open source file %s", srcName)
	}
	defer f.Close()

	info.CompressedSize = getFileSize(srcName)
	info.NumFiles = 1
	return analyzeFrames(f, info)
}

// displayInfo writes one file's record to stdout, short form at the
// default verbosity and long form above it.
func displayInfo(display *Display, srcName string, info *FileInfo) {
	check := "None"
	if info.UsesChecksum {
		check = "XXH64"
	}
	ratio := 0.0
	if info.CompressedSize > 0 {
		ratio = float64(info.DecompressedSize) / float64(info.CompressedSize)
	}
	if display.Verbosity <= 2 {
		if !info.DecompUnavailable {
			fmt.Fprintf(os.Stdout, "%6d  %5d  %10s  %12s  %5.3f  %5s  %s\n",
				info.NumSkippableFrames+info.NumDataFrames, info.NumSkippableFrames,
				hsize(info.CompressedSize), hsize(info.DecompressedSize), ratio, check, srcName)
		} else {
			fmt.Fprintf(os.Stdout, "%6d  %5d  %10s  %12s  %5s  %5s  %s\n",
				info.NumSkippableFrames+info.NumDataFrames, info.NumSkippableFrames,
				hsize(info.CompressedSize), "", "", check, srcName)
		}
		return
	}

	fmt.Fprintf(os.Stdout, "%s \n", srcName)
	fmt.Fprintf(os.Stdout, "# Zstandard Frames: %d\n", info.NumDataFrames)
	if info.NumSkippableFrames > 0 {
		fmt.Fprintf(os.Stdout, "# Skippable Frames: %d\n", info.NumSkippableFrames)
	}
	fmt.Fprintf(os.Stdout, "Window Size: %s (%d B)\n", hsize(info.WindowSize), info.WindowSize)
	fmt.Fprintf(os.Stdout, "Compressed Size: %s (%d B)\n", hsize(info.CompressedSize), info.CompressedSize)
	if !info.DecompUnavailable {
		fmt.Fprintf(os.Stdout, "Decompressed Size: %s (%d B)\n", hsize(info.DecompressedSize), info.DecompressedSize)
		fmt.Fprintf(os.Stdout, "Ratio: %.4f\n", ratio)
	}
	fmt.Fprintf(os.Stdout, "Check: %s\n\n", check)
}

// listFile reports one file and folds it into the total. Frame errors
// report partial information but count as failures.
func listFile(prefs *Prefs, display *Display, total *FileInfo, srcName string) int {
	var info FileInfo
	err := getFileInfo(prefs, display, &info, srcName)
	switch {
	case errors.Is(err, errInfoNotZstd):
		fmt.Fprintf(os.Stdout, "File %q not compressed by zstd \n", srcName)
		return 1
	case errors.Is(err, errInfoTruncated):
		fmt.Fprintf(os.Stdout, "File %q is truncated \n", srcName)
		return 1
	case err != nil:
		display.Printf(1, "Error while parsing %q: %v \n", srcName, err)
		displayInfo(display, srcName, &info)
		total.Add(info)
		return 1
	}
	displayInfo(display, srcName, &info)
	total.Add(info)
	return 0
}

// ListFiles implements --list over a batch of files and prints a total
// line when there is more than one.
func ListFiles(prefs *Prefs, display *Display, srcNames []string) (int, error) {
	for _, name := range srcNames {
		if name == StdinMark {
			return 1, coded(ExitError, "zpress: --list does not support reading from standard input")
		}
	}
	if len(srcNames) == 0 {
		display.Printf(1, "No files given \n")
		return 1, nil
	}

	if display.Verbosity <= 2 {
		fmt.Fprintf(os.Stdout, "Frames  Skips  Compressed  Uncompressed  Ratio  Check  Filename\n")
	}

	status := 0
	total := FileInfo{UsesChecksum: true}
	for _, name := range srcNames {
		status |= listFile(prefs, display, &total, name)
	}

	if len(srcNames) > 1 && display.Verbosity <= 2 {
		fmt.Fprintf(os.Stdout, "----------------------------------------------------------------- \n")
		check := ""
		if total.UsesChecksum {
			check = "XXH64"
		}
		if total.DecompUnavailable {
			fmt.Fprintf(os.Stdout, "%6d  %5d  %10s  %12s  %5s  %5s  %d files\n",
				total.NumSkippableFrames+total.NumDataFrames, total.NumSkippableFrames,
				hsize(total.CompressedSize), "", "", check, total.NumFiles)
		} else {
			ratio := 0.0
			if total.CompressedSize > 0 {
				ratio = float64(total.DecompressedSize) / float64(total.CompressedSize)
			}
			fmt.Fprintf(os.Stdout, "%6d  %5d  %10s  %12s  %5.3f  %5s  %d files\n",
				total.NumSkippableFrames+total.NumDataFrames, total.NumSkippableFrames,
				hsize(total.CompressedSize), hsize(total.DecompressedSize), ratio, check, total.NumFiles)
		}
	}
	return status, nil
}
