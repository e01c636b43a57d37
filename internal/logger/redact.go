package logger

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Redacted replaces secret header values in log output.
const Redacted = "REDACTED"

// secretHeaders lists request headers whose values must never reach the
// log, in canonical form.
var secretHeaders = map[string]struct{}{
	"Authorization": {},
	"X-Api-Key":     {},
}

// RedactHeaders renders headers for logging with secret values replaced by
// REDACTED. Keys are sorted so output is stable.
func RedactHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.Join(h[k], ",")
		if _, secret := secretHeaders[http.CanonicalHeaderKey(k)]; secret {
			v = Redacted
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}
	return strings.Join(parts, "; ")
}

// HTTPRequest logs one outgoing request at debug level with secrets
// redacted.
func HTTPRequest(method, url string, h http.Header) {
	if len(h) == 0 {
		Debugf("[HTTP] %s %s", method, url)
		return
	}
	Debugf("[HTTP] %s %s {%s}", method, url, RedactHeaders(h))
}

// HTTPResponse logs one response status at debug level.
func HTTPResponse(method, url string, status int) {
	Debugf("[HTTP] %s %s -> %d", method, url, status)
}
