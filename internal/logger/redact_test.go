package logger

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer super-secret-token")
	h.Set("X-API-KEY", "my-api-key")
	h.Set("Accept", "application/ld+json")

	out := RedactHeaders(h)
	assert.Contains(t, out, "Authorization: REDACTED")
	assert.Contains(t, out, "X-Api-Key: REDACTED")
	assert.Contains(t, out, "Accept: application/ld+json")
	assert.NotContains(t, out, "super-secret-token")
	assert.NotContains(t, out, "my-api-key")
}

func TestHTTPRequestLogsRedacted(t *testing.T) {
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()
	logger = nil
	InitLogger("debug", FormatText)

	h := http.Header{}
	h.Set("Authorization", "Bearer VAULTTOKEN")
	HTTPRequest(http.MethodGet, "https://data.dbpedia.io/file.ttl", h)
	HTTPResponse(http.MethodGet, "https://data.dbpedia.io/file.ttl", 200)

	out := buf.String()
	assert.Contains(t, out, "[HTTP] GET https://data.dbpedia.io/file.ttl")
	assert.Contains(t, out, "REDACTED")
	assert.Contains(t, out, "-> 200")
	assert.NotContains(t, out, "VAULTTOKEN")
}

func TestHTTPRequestWithoutHeaders(t *testing.T) {
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()
	logger = nil
	InitLogger("debug", FormatText)

	HTTPRequest(http.MethodHead, "https://databus.dbpedia.org/acct", nil)
	assert.Contains(t, buf.String(), "[HTTP] HEAD https://databus.dbpedia.org/acct")
}
