package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbpedia/databusclient/pkg/errors"
	"github.com/dbpedia/databusclient/pkg/model"
)

type stubTokenSource struct {
	token     string
	err       error
	available bool
	calls     int
	lastURL   string
}

func (s *stubTokenSource) Token(_ context.Context, downloadURL string) (string, error) {
	s.calls++
	s.lastURL = downloadURL
	return s.token, s.err
}

func (s *stubTokenSource) Available() bool { return s.available }

type recordedRequest struct {
	method string
	path   string
	header http.Header
}

func recordingServer(handler http.HandlerFunc) (*httptest.Server, *[]recordedRequest) {
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			header: r.Header.Clone(),
		})
		handler(w, r)
	}))
	return server, &requests
}

func hostOfURL(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Host
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newTestManager(apiKey string, vault TokenSource, hosts ...string) *ManagerImpl {
	return NewManager(5*time.Second, apiKey, vault, hosts)
}

func TestNewManager(t *testing.T) {
	m := NewManager(3*time.Second, "key", nil, []string{"data.dbpedia.io"})
	require.NotNil(t, m)
	assert.Equal(t, 3*time.Second, m.client.Timeout)
	assert.Equal(t, 3*time.Second, m.headClient.Timeout)
	assert.Equal(t, "databusclient/1.0", m.userAgent)
	assert.NotNil(t, m.headClient.CheckRedirect)
}

func TestFetchAnonymous(t *testing.T) {
	content := []byte("databus file content")
	server, requests := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write(content)
		}
	})
	defer server.Close()

	dir := t.TempDir()
	m := newTestManager("", nil)
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, result.Status)
	assert.Equal(t, int64(len(content)), result.Bytes)
	assert.Equal(t, filepath.Join(dir, "file.ttl"), result.Path)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	require.Len(t, *requests, 2)
	assert.Equal(t, http.MethodHead, (*requests)[0].method)
	assert.Equal(t, http.MethodGet, (*requests)[1].method)
	assert.Equal(t, "identity", (*requests)[1].header.Get("Accept-Encoding"))
	assert.Empty(t, (*requests)[1].header.Get("X-API-KEY"))
}

func TestFetchDerivesDatabusTreePath(t *testing.T) {
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("x"))
		}
	})
	defer server.Close()

	base := t.TempDir()
	m := newTestManager("", nil)
	fileURL := server.URL + "/alice/mappings/geo/2023.01.01/geo.ttl.bz2"
	result, err := m.Fetch(context.Background(), model.FileRef{URL: fileURL}, Options{BaseDir: base})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "alice", "mappings", "geo", "2023.01.01", "geo.ttl.bz2"), result.Path)
	assert.FileExists(t, result.Path)
}

func TestFetchEmptyURLFails(t *testing.T) {
	m := newTestManager("", nil)
	result, err := m.Fetch(context.Background(), model.FileRef{}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownloadFailed)
	assert.Equal(t, model.StatusFailedOther, result.Status)
}

func TestFetchVaultTokenRequiredBeforeAnyRequest(t *testing.T) {
	server, requests := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request may be issued without a vault token source")
	})
	defer server.Close()

	m := newTestManager("", &stubTokenSource{available: false}, hostOfURL(t, server.URL))
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrVaultTokenRequired)
	assert.Equal(t, model.StatusFailedAuth, result.Status)
	assert.Empty(t, *requests)
}

func TestFetchVaultTokenRequiredWithoutSource(t *testing.T) {
	server, requests := recordingServer(func(w http.ResponseWriter, r *http.Request) {})
	defer server.Close()

	m := newTestManager("", nil, hostOfURL(t, server.URL))
	_, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrVaultTokenRequired)
	assert.Empty(t, *requests)
}

func TestFetchFollowsSingleRedirectHop(t *testing.T) {
	server, requests := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old/file.ttl":
			w.Header().Set("Location", "/new/file.ttl")
			w.WriteHeader(http.StatusFound)
		case "/new/file.ttl":
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte("moved content"))
			}
		}
	})
	defer server.Close()

	dir := t.TempDir()
	m := newTestManager("", nil)
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/old/file.ttl"}, Options{Dir: dir})
	require.NoError(t, err)

	require.Len(t, *requests, 3)
	assert.Equal(t, "/old/file.ttl", (*requests)[0].path)
	assert.Equal(t, http.MethodHead, (*requests)[0].method)
	assert.Equal(t, "/new/file.ttl", (*requests)[1].path)
	assert.Equal(t, http.MethodHead, (*requests)[1].method)
	assert.Equal(t, "/new/file.ttl", (*requests)[2].path)
	assert.Equal(t, http.MethodGet, (*requests)[2].method)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "moved content", string(data))
}

func TestFetchHeadUnauthorizedNeedsAPIKey(t *testing.T) {
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	m := newTestManager("", nil)
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
	assert.Equal(t, model.StatusFailedAuth, result.Status)
}

func TestFetchHeadUnauthorizedRetriesWithAPIKey(t *testing.T) {
	server, requests := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("protected content"))
		}
	})
	defer server.Close()

	dir := t.TempDir()
	m := newTestManager("secret-key", nil)
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, result.Status)

	require.Len(t, *requests, 3)
	assert.Empty(t, (*requests)[0].header.Get("X-API-KEY"))
	assert.Equal(t, "secret-key", (*requests)[1].header.Get("X-API-KEY"))
	assert.Equal(t, http.MethodGet, (*requests)[2].method)
	assert.Equal(t, "secret-key", (*requests)[2].header.Get("X-API-KEY"))
}

func TestFetchBearerChallengeFromUntrustedHost(t *testing.T) {
	vault := &stubTokenSource{available: true, token: "never-used"}
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("WWW-Authenticate", `Bearer realm="vault"`)
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	defer server.Close()

	// the server challenges but is not allow-listed, so no token may leave
	m := newTestManager("", vault)
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrHostNotVaultConfigured)
	assert.Equal(t, model.StatusFailedAuth, result.Status)
	assert.Zero(t, vault.calls)
}

func TestFetchVaultBearerFlow(t *testing.T) {
	content := []byte("vault protected bytes")
	server, requests := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="vault"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(content)
	})
	defer server.Close()

	vault := &stubTokenSource{available: true, token: "vault-token-xyz"}
	dir := t.TempDir()
	m := newTestManager("", vault, hostOfURL(t, server.URL))
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, result.Status)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	assert.Equal(t, 1, vault.calls)
	assert.Equal(t, server.URL+"/file.ttl", vault.lastURL)

	// HEAD, anonymous GET, bearer GET
	require.Len(t, *requests, 3)
	retry := (*requests)[2]
	assert.Equal(t, "Bearer vault-token-xyz", retry.header.Get("Authorization"))
	assert.NotEqual(t, "identity", retry.header.Get("Accept-Encoding"))
}

func TestFetchVaultRetryStillUnauthorized(t *testing.T) {
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.Header.Get("Authorization") == "" {
			w.Header().Set("WWW-Authenticate", "bearer")
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	vault := &stubTokenSource{available: true, token: "expired"}
	m := newTestManager("", vault, hostOfURL(t, server.URL))
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTokenInvalid)
	assert.Contains(t, err.Error(), "invalid or expired")
	assert.Equal(t, model.StatusFailedAuth, result.Status)
}

func TestFetchVaultRetryForbidden(t *testing.T) {
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	})
	defer server.Close()

	vault := &stubTokenSource{available: true, token: "limited"}
	m := newTestManager("", vault, hostOfURL(t, server.URL))
	_, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInsufficientPermissions)
	assert.Contains(t, err.Error(), "permission")
}

func TestFetchPlainForbidden(t *testing.T) {
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusForbidden)
		}
	})
	defer server.Close()

	m := newTestManager("", nil)
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrForbidden)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Equal(t, model.StatusFailedAuth, result.Status)
}

func TestFetchNotFoundSkips(t *testing.T) {
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	dir := t.TempDir()
	m := newTestManager("", nil)
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/gone.ttl"}, Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSkippedNotFound, result.Status)
	assert.NoFileExists(t, filepath.Join(dir, "gone.ttl"))
}

func TestFetchServerError(t *testing.T) {
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	defer server.Close()

	m := newTestManager("", nil)
	result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/file.ttl"}, Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, model.StatusFailedOther, result.Status)
}

func TestFetchChecksumValidation(t *testing.T) {
	content := []byte("checksummed content")
	good := sha256Hex(content)
	bad := sha256Hex([]byte("different content"))

	newServer := func() *httptest.Server {
		server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				_, _ = w.Write(content)
			}
		})
		return server
	}

	t.Run("match", func(t *testing.T) {
		server := newServer()
		defer server.Close()
		m := newTestManager("", nil)
		result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/f", Checksum: good},
			Options{Dir: t.TempDir(), Validation: model.ValidationError})
		require.NoError(t, err)
		assert.False(t, result.ChecksumMismatch)
	})

	t.Run("mismatch in error mode aborts", func(t *testing.T) {
		server := newServer()
		defer server.Close()
		m := newTestManager("", nil)
		result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/f", Checksum: bad},
			Options{Dir: t.TempDir(), Validation: model.ValidationError})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrChecksumMismatch)
		assert.Equal(t, model.StatusFailedChecksum, result.Status)
		assert.True(t, result.ChecksumMismatch)
	})

	t.Run("mismatch in warning mode continues", func(t *testing.T) {
		server := newServer()
		defer server.Close()
		m := newTestManager("", nil)
		result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/f", Checksum: bad},
			Options{Dir: t.TempDir(), Validation: model.ValidationWarning})
		require.NoError(t, err)
		assert.Equal(t, model.StatusSucceeded, result.Status)
		assert.True(t, result.ChecksumMismatch)
	})

	t.Run("mismatch with validation off is ignored", func(t *testing.T) {
		server := newServer()
		defer server.Close()
		m := newTestManager("", nil)
		result, err := m.Fetch(context.Background(), model.FileRef{URL: server.URL + "/f", Checksum: bad},
			Options{Dir: t.TempDir(), Validation: model.ValidationOff})
		require.NoError(t, err)
		assert.False(t, result.ChecksumMismatch)
	})
}

func TestFetchAllSkips404ButStopsOnAuthFailure(t *testing.T) {
	server, _ := recordingServer(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/ok":
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte("fine"))
			}
		case "/secret":
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	defer server.Close()

	dir := t.TempDir()
	m := newTestManager("", nil)
	refs := []model.FileRef{
		{URL: server.URL + "/missing"},
		{URL: server.URL + "/ok"},
		{URL: server.URL + "/secret"},
	}

	results, err := m.FetchAll(context.Background(), refs, Options{Dir: dir})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)

	require.Len(t, results, 3)
	assert.Equal(t, model.StatusSkippedNotFound, results[0].Status)
	assert.Equal(t, model.StatusSucceeded, results[1].Status)
	assert.Equal(t, model.StatusFailedAuth, results[2].Status)
	assert.FileExists(t, filepath.Join(dir, "ok"))
}

func TestTargetPath(t *testing.T) {
	tests := []struct {
		name string
		url  string
		opts Options
		want string
	}{
		{
			name: "explicit dir",
			url:  "https://data.dbpedia.io/alice/mappings/geo/2023.01.01/geo.ttl.bz2",
			opts: Options{Dir: "/downloads"},
			want: "/downloads/geo.ttl.bz2",
		},
		{
			name: "derived tree",
			url:  "https://databus.dbpedia.org/alice/mappings/geo/2023.01.01/geo.ttl.bz2",
			opts: Options{BaseDir: "/data"},
			want: "/data/alice/mappings/geo/2023.01.01/geo.ttl.bz2",
		},
		{
			name: "derived tree falls back to latest when no version segment",
			url:  "https://example.org/alice/mappings/geo.ttl",
			opts: Options{BaseDir: "/data"},
			want: "/data/alice/mappings/geo.ttl/latest/geo.ttl",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := targetPath(tt.url, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetPathRejectsBareHost(t *testing.T) {
	_, err := targetPath("https://example.org/", Options{Dir: "/downloads"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownloadFailed)
}
