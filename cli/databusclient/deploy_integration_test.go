//go:build integration

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishRecorder struct {
	mu     sync.Mutex
	apiKey string
	body   []byte
}

// newPublishServer serves a downloadable file and records the publish POST.
func newPublishServer(t *testing.T, payload []byte) (*httptest.Server, *publishRecorder) {
	t.Helper()
	rec := &publishRecorder{}

	mux := http.NewServeMux()
	mux.HandleFunc("/files/geo.ttl.gz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	})
	mux.HandleFunc("/api/publish", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		rec.mu.Lock()
		rec.apiKey = r.Header.Get("X-API-KEY")
		rec.body = body
		rec.mu.Unlock()

		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestDeployDataset(t *testing.T) {
	payload := []byte("deploy integration payload\n")
	srv, rec := newPublishServer(t, payload)

	_, err := runCommand(t,
		"--config", tempConfigPath(t),
		"deploy",
		"--versionid", srv.URL+"/alice/mappings/geo-coordinates/2023.12.31",
		"--title", "Geo coordinates",
		"--abstract", "Geo coordinate mappings.",
		"--description", "Geo coordinate mappings extracted from infoboxes.",
		"--license", "http://dalicc.net/licenselibrary/Cc010Universal",
		"--apikey", "integration-key",
		srv.URL+"/files/geo.ttl.gz|lang=en",
	)
	require.NoError(t, err, "deploy should succeed")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "integration-key", rec.apiKey)

	var dataset struct {
		Context string                   `json:"@context"`
		Graph   []map[string]interface{} `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal(rec.body, &dataset))
	assert.Equal(t, "https://downloads.dbpedia.org/databus/context.jsonld", dataset.Context)
	require.Len(t, dataset.Graph, 2, "artifact and version graphs expected")

	version := dataset.Graph[1]
	assert.Equal(t, srv.URL+"/alice/mappings/geo-coordinates/2023.12.31", version["@id"])

	distributions, ok := version["distribution"].([]interface{})
	require.True(t, ok, "version graph should carry distributions")
	require.Len(t, distributions, 1)
	part := distributions[0].(map[string]interface{})
	assert.Equal(t, "ttl", part["formatExtension"])
	assert.Equal(t, "gz", part["compression"])
	assert.Equal(t, "en", part["dcv:lang"])
	assert.Equal(t, sha256Hex(payload), part["sha256sum"], "stats must be computed from the served file")
	assert.Equal(t, float64(len(payload)), part["byteSize"])
}

func TestDeployRequiresMetadataFlags(t *testing.T) {
	_, err := runCommand(t,
		"--config", tempConfigPath(t),
		"deploy",
		"https://example.org/geo.ttl.gz",
	)
	require.Error(t, err, "deploy without required flags must fail")
}

func TestDeployRejectsBadDistribution(t *testing.T) {
	_, err := runCommand(t,
		"--config", tempConfigPath(t),
		"deploy",
		"--versionid", "https://databus.dbpedia.org/alice/mappings/geo/2023.12.31",
		"--title", "T",
		"--abstract", "A",
		"--description", "D",
		"--license", "http://dalicc.net/licenselibrary/Cc010Universal",
		"--apikey", "k",
		"https://example.org/geo.ttl.gz|novalue",
	)
	require.Error(t, err, "a bare content variant tag must be rejected")
}
