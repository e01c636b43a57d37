package registry

import (
	"strings"

	"github.com/dbpedia/databusclient/internal/logger"
)

// checksumFields are the well-known Part attributes checked in order
// before falling back to a scan over the whole node.
var checksumFields = []string{"checksum", "sha256sum", "sha256", "databus:checksum"}

// partChecksum extracts the expected SHA-256 digest from a Part node.
// The named fields are tried first; if none of them yields a digest the
// whole node is scanned recursively as degraded behavior for upstream
// schema drift. The matched path is debug-logged either way.
func partChecksum(node map[string]interface{}) string {
	for _, field := range checksumFields {
		raw, ok := node[field]
		if !ok {
			continue
		}
		if digest := findHexDigest(raw); digest != "" {
			logger.Debugf("checksum taken from field %q", field)
			return strings.ToLower(digest)
		}
	}

	for _, key := range sortedKeys(node) {
		if isChecksumField(key) {
			continue
		}
		if digest := findHexDigest(node[key]); digest != "" {
			logger.Debugf("checksum found by scanning field %q", key)
			return strings.ToLower(digest)
		}
	}
	return ""
}

func isChecksumField(key string) bool {
	for _, field := range checksumFields {
		if key == field {
			return true
		}
	}
	return false
}

// findHexDigest searches strings, JSON-LD value objects and nested
// structures for a 64 character hex string.
func findHexDigest(v interface{}) string {
	switch val := v.(type) {
	case string:
		if isHexDigest(val) {
			return val
		}
	case map[string]interface{}:
		// value objects carry the payload under @value
		if inner, ok := val["@value"]; ok {
			if digest := findHexDigest(inner); digest != "" {
				return digest
			}
		}
		for _, key := range sortedKeys(val) {
			if key == "@value" {
				continue
			}
			if digest := findHexDigest(val[key]); digest != "" {
				return digest
			}
		}
	case []interface{}:
		for _, item := range val {
			if digest := findHexDigest(item); digest != "" {
				return digest
			}
		}
	}
	return ""
}

// isHexDigest reports whether s is exactly 64 hex characters.
func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
