package deploy

import (
	"strconv"

	"github.com/dbpedia/databusclient/pkg/errors"
)

// Metadata describes an already-uploaded file by its stats. Format and
// compression are optional and inferred from the URL path when absent.
type Metadata struct {
	Checksum        string
	Size            int64
	URL             string
	FormatExtension string
	Compression     string
}

// DistributionsFromMetadata turns metadata entries into distributions,
// numbering them with a `count` content variant so multi-file datasets
// stay valid. Every entry must carry a URL, a positive size and a SHA-256
// hex digest.
func DistributionsFromMetadata(entries []Metadata) ([]Distribution, error) {
	dists := make([]Distribution, 0, len(entries))
	for i, entry := range entries {
		if entry.URL == "" {
			return nil, errors.Wrapf(errors.ErrBadArgument, "metadata entry %d has no url", i)
		}
		if entry.Size <= 0 {
			return nil, errors.Wrapf(errors.ErrBadArgument, "invalid size for %s: expected a positive integer, got %d", entry.URL, entry.Size)
		}
		if !isSHA256Hex(entry.Checksum) {
			return nil, errors.Wrapf(errors.ErrBadArgument, "invalid checksum for %s", entry.URL)
		}

		dists = append(dists, Distribution{
			URL:             entry.URL,
			ContentVariants: map[string]string{"count": strconv.Itoa(i)},
			FormatExtension: entry.FormatExtension,
			Compression:     entry.Compression,
			SHA256:          entry.Checksum,
			ByteSize:        entry.Size,
		})
	}
	return dists, nil
}

func isSHA256Hex(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
