// Package deploy builds and publishes Databus dataset versions: it parses
// distribution argument strings into structured values, assembles the
// JSON-LD dataset document and submits it to the registry's publish API.
package deploy

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dbpedia/databusclient/pkg/errors"
)

// Effective values when a distribution carries no format or compression
// information and none can be read off its URL path.
const (
	formatFile      = "file"
	compressionNone = "none"
)

// Distribution describes one downloadable file of a dataset version. Only
// URL is mandatory: missing format and compression are inferred from the
// URL path when the dataset is built, missing file stats can be completed
// by downloading the file.
type Distribution struct {
	URL             string
	ContentVariants map[string]string
	FormatExtension string
	Compression     string
	SHA256          string
	ByteSize        int64
}

// ParseDistributionString decodes the CLI argument form
//
//	URL|key=value_key2=value2|format|compression|sha256sum:length
//
// into a Distribution. The content variant slot always follows the URL and
// may be empty; format, compression and the stats pair are optional but
// positional. Malformed input is rejected rather than guessed at.
func ParseDistributionString(s string) (Distribution, error) {
	segments := strings.Split(s, "|")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	d := Distribution{URL: segments[0], ContentVariants: map[string]string{}}
	if d.URL == "" {
		return Distribution{}, errors.Wrap(errors.ErrBadArgument, "distribution needs a URL")
	}

	rest := segments[1:]
	if len(rest) > 0 {
		if err := parseContentVariants(rest[0], d.ContentVariants); err != nil {
			return Distribution{}, err
		}
		rest = rest[1:]
	}

	// A trailing segment containing a colon is the sha256sum:length pair.
	if len(rest) > 0 && strings.Contains(rest[len(rest)-1], ":") {
		sha, size, err := parseFileStats(rest[len(rest)-1])
		if err != nil {
			return Distribution{}, err
		}
		d.SHA256, d.ByteSize = sha, size
		rest = rest[:len(rest)-1]
	}

	switch len(rest) {
	case 0:
	case 1:
		d.FormatExtension = rest[0]
	case 2:
		d.FormatExtension, d.Compression = rest[0], rest[1]
	default:
		return Distribution{}, errors.Wrapf(errors.ErrBadArgument, "too many segments in distribution %q", s)
	}

	return d, nil
}

func parseContentVariants(slot string, cvs map[string]string) error {
	if slot == "" {
		return nil
	}
	for _, kv := range strings.Split(strings.Trim(slot, "_"), "_") {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			return errors.Wrapf(errors.ErrBadArgument, "content variant %q must have the form key=value", kv)
		}
		cvs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return nil
}

func parseFileStats(pair string) (string, int64, error) {
	parts := strings.Split(pair, ":")
	if len(parts) != 2 {
		return "", 0, errors.Wrapf(errors.ErrBadArgument, "can't parse %q, submit file stats as sha256sum:length", pair)
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, errors.Wrapf(errors.ErrBadArgument, "content length in %q is not a number", pair)
	}
	return parts[0], size, nil
}

// String re-encodes the distribution into its CLI argument form. Content
// variants are emitted in sorted key order.
func (d Distribution) String() string {
	var b strings.Builder
	b.WriteString(d.URL)
	b.WriteString("|")
	b.WriteString(encodeContentVariants(d.ContentVariants))
	if d.FormatExtension != "" {
		b.WriteString("|" + d.FormatExtension)
	}
	if d.Compression != "" {
		b.WriteString("|" + d.Compression)
	}
	if d.SHA256 != "" {
		b.WriteString("|" + d.SHA256 + ":" + strconv.FormatInt(d.ByteSize, 10))
	}
	return b.String()
}

func encodeContentVariants(cvs map[string]string) string {
	if len(cvs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(cvs))
	for key := range cvs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+cvs[key])
	}
	return strings.Join(pairs, "_")
}

// HasStats reports whether the file stats are already known.
func (d Distribution) HasStats() bool {
	return d.SHA256 != ""
}

// FormatAndCompression returns the effective formatExtension and compression
// for the registry document. An explicit format wins over the URL path; a
// missing compression next to an explicit format means uncompressed.
func (d Distribution) FormatAndCompression() (string, string) {
	if d.FormatExtension != "" {
		compression := d.Compression
		if compression == "" {
			compression = compressionNone
		}
		return d.FormatExtension, compression
	}

	format, compression := inferFromPath(d.URL)
	if d.Compression != "" {
		compression = d.Compression
	}
	return format, compression
}

// inferFromPath reads format and compression off the last path segment,
// taking at most the final two dot-separated suffixes. Fragments are cut,
// query strings are left alone.
func inferFromPath(rawURL string) (string, string) {
	last := rawURL
	if idx := strings.LastIndex(last, "/"); idx >= 0 {
		last = last[idx+1:]
	}
	last, _, _ = strings.Cut(last, "#")

	dot := strings.LastIndex(last, ".")
	if dot < 0 {
		return formatFile, compressionNone
	}
	ext := last[dot+1:]

	head := last[:dot]
	if inner := strings.LastIndex(head, "."); inner >= 0 {
		return head[inner+1:], ext
	}
	return ext, compressionNone
}
