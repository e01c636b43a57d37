package download

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/errors"
	"github.com/dbpedia/databusclient/pkg/model"
)

// verifyChunkSize bounds the read buffer while hashing.
const verifyChunkSize = 4096

// Validate checks a downloaded file against its expected SHA-256 digest.
// A missing expected digest skips validation with a warning regardless of
// mode. The returned bool reports whether a mismatch was detected; the
// error is only non-nil in error mode, where a mismatch aborts the run.
func Validate(path, expected string, mode model.ValidationMode) (bool, error) {
	if mode == model.ValidationOff {
		logger.Debugf("Skipping checksum validation for %s", path)
		return false, nil
	}
	if expected == "" {
		logger.Warnf("No checksum available for %s, skipping validation", path)
		return false, nil
	}

	actual, err := fileSHA256(path)
	if err != nil {
		return false, err
	}
	if strings.EqualFold(actual, expected) {
		logger.Successf("Checksum OK for %s", path)
		return false, nil
	}

	if mode == model.ValidationError {
		return true, errors.Wrapf(errors.ErrChecksumMismatch, "%s: expected %s, got %s", path, expected, actual)
	}
	logger.Warn("Checksum mismatch", logger.Fields{
		"path":     path,
		"expected": expected,
		"actual":   actual,
	})
	return true, nil
}

// fileSHA256 streams the file through an incremental digest.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, verifyChunkSize)); err != nil {
		return "", errors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
