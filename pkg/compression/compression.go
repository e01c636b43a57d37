// Package compression converts downloaded files between compression
// formats. Conversion is a pure post-download step: the source file is
// recompressed under the swapped extension and removed on success.
package compression

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/errors"
)

// Format identifies a compression format by its canonical file extension.
type Format string

const (
	// FormatNone marks an uncompressed file.
	FormatNone Format = ""
	FormatGz   Format = "gz"
	FormatBz2  Format = "bz2"
	FormatXz   Format = "xz"
	FormatZstd Format = "zst"
)

// ParseFormat validates a user-supplied format name. Common aliases are
// accepted; the empty string means no conversion.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "":
		return FormatNone, nil
	case "gz", "gzip":
		return FormatGz, nil
	case "bz2", "bzip2":
		return FormatBz2, nil
	case "xz":
		return FormatXz, nil
	case "zst", "zstd":
		return FormatZstd, nil
	default:
		return "", errors.Wrapf(errors.ErrBadArgument, "unsupported compression format %q", s)
	}
}

// Detect returns the compression format a filename carries, or FormatNone.
// Matching is case-insensitive.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gz":
		return FormatGz
	case ".bz2":
		return FormatBz2
	case ".xz":
		return FormatXz
	case ".zst":
		return FormatZstd
	}
	return FormatNone
}

// ShouldConvert decides whether a file needs recompression to target,
// optionally restricted to files currently compressed as from. It returns
// the detected source format when conversion applies. Uncompressed files
// and files already in the target format are left alone.
func ShouldConvert(filename string, target, from Format) (bool, Format) {
	if target == FormatNone {
		return false, FormatNone
	}
	source := Detect(filename)
	if source == FormatNone || source == target {
		return false, FormatNone
	}
	if from != FormatNone && source != from {
		return false, FormatNone
	}
	return true, source
}

// ConvertedFilename swaps the compression extension for the target's. The
// stem keeps its case; the new extension is always lowercase.
func ConvertedFilename(filename string, target Format) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + "." + string(target)
}

// Convert recompresses srcPath into dstPath and removes the source on
// success. On failure the partial target is removed and the source left
// untouched.
func Convert(srcPath, dstPath string, source, target Format) error {
	srcCodec, ok := codec(source)
	if !ok {
		return errors.Wrapf(errors.ErrBadArgument, "unsupported source compression format %q", source)
	}
	dstCodec, ok := codec(target)
	if !ok {
		return errors.Wrapf(errors.ErrBadArgument, "unsupported target compression format %q", target)
	}

	if err := recompress(srcPath, dstPath, srcCodec, dstCodec); err != nil {
		_ = os.Remove(dstPath)
		return errors.Wrapf(err, "compression conversion failed for %s", srcPath)
	}
	if err := os.Remove(srcPath); err != nil {
		return errors.Wrap(err, "could not remove source file")
	}
	logger.Infof("Converted %s -> %s", srcPath, dstPath)
	return nil
}

func codec(format Format) (archives.Compression, bool) {
	switch format {
	case FormatGz:
		return archives.Gz{}, true
	case FormatBz2:
		return archives.Bz2{}, true
	case FormatXz:
		return archives.Xz{}, true
	case FormatZstd:
		return archives.Zstd{}, true
	}
	return nil, false
}

func recompress(srcPath, dstPath string, src, dst archives.Compression) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return errors.Wrap(err, "could not open source file")
	}
	defer func() { _ = in.Close() }()

	decompressor, err := src.OpenReader(in)
	if err != nil {
		return errors.Wrap(err, "could not open decompressor")
	}
	defer func() { _ = decompressor.Close() }()

	out, err := os.Create(dstPath)
	if err != nil {
		return errors.Wrap(err, "could not create target file")
	}

	compressor, err := dst.OpenWriter(out)
	if err != nil {
		_ = out.Close()
		return errors.Wrap(err, "could not open compressor")
	}

	if _, err := io.Copy(compressor, decompressor); err != nil {
		_ = compressor.Close()
		_ = out.Close()
		return errors.Wrap(err, "recompressing")
	}
	// the compressor must flush before the file closes
	if err := compressor.Close(); err != nil {
		_ = out.Close()
		return errors.Wrap(err, "finalizing compressed stream")
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return errors.Wrap(err, "could not sync file")
	}
	return out.Close()
}
