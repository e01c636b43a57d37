package model

import (
	"strings"

	"github.com/dbpedia/databusclient/pkg/errors"
)

// FileRef is one downloadable file produced by resolution. Checksum holds
// the expected SHA-256 digest as lowercase hex, or empty when the registry
// metadata did not carry one.
type FileRef struct {
	URL      string
	Checksum string
}

// DownloadStatus describes the outcome of fetching a single file.
type DownloadStatus string

const (
	// StatusSucceeded indicates the file was fully written to disk.
	StatusSucceeded DownloadStatus = "succeeded"
	// StatusSkippedNotFound indicates the server answered 404 and the file
	// was skipped without aborting the batch.
	StatusSkippedNotFound DownloadStatus = "skipped-not-found"
	// StatusFailedAuth indicates an authentication or authorization failure.
	StatusFailedAuth DownloadStatus = "failed-auth"
	// StatusFailedChecksum indicates the downloaded bytes did not match the
	// expected digest under error-mode validation.
	StatusFailedChecksum DownloadStatus = "failed-checksum"
	// StatusFailedOther indicates any other failure.
	StatusFailedOther DownloadStatus = "failed"
)

// DownloadResult is the per-file record aggregated over a download run.
type DownloadResult struct {
	URL    string
	Path   string
	Bytes  int64
	Status DownloadStatus
	Err    error

	// ChecksumMismatch reports that validation detected a digest mismatch.
	// In warning mode the download still counts as succeeded.
	ChecksumMismatch bool
}

// ValidationMode controls how checksum validation failures are handled.
type ValidationMode string

const (
	// ValidationOff skips checksum validation entirely.
	ValidationOff ValidationMode = "off"
	// ValidationWarning logs mismatches but keeps going.
	ValidationWarning ValidationMode = "warning"
	// ValidationError aborts the run on a mismatch.
	ValidationError ValidationMode = "error"
)

// ParseValidationMode converts a user-supplied mode string. Matching is
// case-insensitive; anything outside off, warning and error is rejected.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch strings.ToLower(s) {
	case string(ValidationOff):
		return ValidationOff, nil
	case string(ValidationWarning):
		return ValidationWarning, nil
	case string(ValidationError):
		return ValidationError, nil
	default:
		return "", errors.Wrapf(errors.ErrBadArgument, "unknown checksum mode %q", s)
	}
}
