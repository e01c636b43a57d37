package download

import (
	"context"
	goerrors "errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/auth"
	"github.com/dbpedia/databusclient/pkg/errors"
	"github.com/dbpedia/databusclient/pkg/fsutil"
	"github.com/dbpedia/databusclient/pkg/model"
)

const (
	// downloadChunkSize bounds the copy buffer so progress updates stay
	// fine-grained even for large files.
	downloadChunkSize = 1024

	// latestSegment names the version directory when the URL carries none.
	latestSegment = "latest"
)

// ManagerImpl retrieves files over HTTP. Authentication escalates per file:
// anonymous first, then the Databus API key, then a vault bearer token when
// the server answers a bearer challenge and the host is allow-listed. The
// HEAD probe and the GET of one file are inherently sequential; the batch
// loop is sequential too.
type ManagerImpl struct {
	client     *http.Client
	headClient *http.Client
	userAgent  string
	apiKey     string
	vault      TokenSource
	vaultHosts []string
}

// NewManager creates a download manager. apiKey may be empty for anonymous
// access, vault may be nil when no token source is configured and
// vaultHosts lists the hosts trusted for the bearer-token flow.
func NewManager(timeout time.Duration, apiKey string, vault TokenSource, vaultHosts []string) *ManagerImpl {
	return &ManagerImpl{
		client: &http.Client{Timeout: timeout},
		headClient: &http.Client{
			Timeout: timeout,
			// redirects are followed manually so the Location target's
			// auth demands are seen before any GET
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:  "databusclient/1.0",
		apiKey:     apiKey,
		vault:      vault,
		vaultHosts: vaultHosts,
	}
}

// FetchAll downloads the batch one file at a time. The results slice covers
// every attempted file; on error it ends with the failing file's record.
func (m *ManagerImpl) FetchAll(ctx context.Context, refs []model.FileRef, opts Options) ([]model.DownloadResult, error) {
	results := make([]model.DownloadResult, 0, len(refs))
	for _, ref := range refs {
		result, err := m.Fetch(ctx, ref, opts)
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Fetch downloads a single file. A 404 yields a skipped result with a nil
// error so batches keep going; every other failure is returned.
func (m *ManagerImpl) Fetch(ctx context.Context, ref model.FileRef, opts Options) (model.DownloadResult, error) {
	result := model.DownloadResult{URL: ref.URL, Status: model.StatusFailedOther}
	if ref.URL == "" {
		return fail(result, errors.Wrap(errors.ErrDownloadFailed, "registry metadata carries no file URL"))
	}

	localPath, err := targetPath(ref.URL, opts)
	if err != nil {
		return fail(result, err)
	}
	result.Path = localPath

	// an allow-listed host will demand a vault token; surface a missing
	// token source before touching the network
	if host := hostOf(ref.URL); m.vaultHostAllowed(host) && !m.vaultUsable() {
		return fail(result, errors.Wrapf(errors.ErrVaultTokenRequired, "host %s", host))
	}

	resolvedURL, err := m.resolveURL(ctx, ref.URL)
	if err != nil {
		return fail(result, err)
	}

	resp, err := m.open(ctx, resolvedURL)
	if err != nil {
		return fail(result, err)
	}
	if resp == nil {
		logger.Warnf("File not found (404), skipping %s", resolvedURL)
		result.Status = model.StatusSkippedNotFound
		return result, nil
	}
	defer func() { _ = resp.Body.Close() }()

	written, err := m.writeFile(resp.Body, localPath, resp.ContentLength, opts)
	result.Bytes = written
	if err != nil {
		return fail(result, err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		logger.Warn("Downloaded size does not match Content-Length", logger.Fields{
			"url":            resolvedURL,
			"content_length": resp.ContentLength,
			"written":        written,
		})
	}

	mismatch, err := Validate(localPath, ref.Checksum, opts.Validation)
	result.ChecksumMismatch = mismatch
	if err != nil {
		return fail(result, err)
	}

	result.Status = model.StatusSucceeded
	logger.Successf("Downloaded %s", localPath)
	return result, nil
}

// fail records the error on the result and classifies its status.
func fail(result model.DownloadResult, err error) (model.DownloadResult, error) {
	result.Err = err
	result.Status = statusFor(err)
	return result, err
}

func statusFor(err error) model.DownloadStatus {
	switch {
	case goerrors.Is(err, errors.ErrAPIKeyRequired),
		goerrors.Is(err, errors.ErrVaultTokenRequired),
		goerrors.Is(err, errors.ErrHostNotVaultConfigured),
		goerrors.Is(err, errors.ErrTokenInvalid),
		goerrors.Is(err, errors.ErrInsufficientPermissions),
		goerrors.Is(err, errors.ErrUnauthorized),
		goerrors.Is(err, errors.ErrForbidden),
		goerrors.Is(err, errors.ErrTokenExchange):
		return model.StatusFailedAuth
	case goerrors.Is(err, errors.ErrChecksumMismatch):
		return model.StatusFailedChecksum
	default:
		return model.StatusFailedOther
	}
}

// targetPath computes where a file lands: directly under an explicit
// directory, or in an account/group/artifact/version tree recreated from
// the URL itself. filepath.Join drops segments the URL does not carry.
func targetPath(rawURL string, opts Options) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "unparseable file URL %s", rawURL)
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "file URL %s has no basename", rawURL)
	}

	if opts.Dir != "" {
		return filepath.Join(opts.Dir, base), nil
	}

	id := model.ParseIdentifier(rawURL)
	version := id.Version
	if version == "" {
		version = latestSegment
	}
	root := opts.BaseDir
	if root == "" {
		root = "."
	}
	return filepath.Join(root, id.Account, id.Group, id.Artifact, version, base), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func (m *ManagerImpl) vaultHostAllowed(host string) bool {
	for _, allowed := range m.vaultHosts {
		if host == allowed {
			return true
		}
	}
	return false
}

func (m *ManagerImpl) vaultUsable() bool {
	return m.vault != nil && m.vault.Available()
}

// resolveURL probes the file URL with HEAD, follows a single redirect hop
// and settles the API key question early. A 401 from an allow-listed host
// is left for the GET, which carries the vault flow.
func (m *ManagerImpl) resolveURL(ctx context.Context, rawURL string) (string, error) {
	resp, err := m.head(ctx, rawURL, "")
	if err != nil {
		return "", err
	}

	resolved := rawURL
	if isRedirect(resp.StatusCode) {
		if location := resp.Header.Get("Location"); location != "" {
			resolved = resolveLocation(rawURL, location)
			logger.Debugf("Redirected to %s", resolved)
			resp, err = m.head(ctx, resolved, "")
			if err != nil {
				return "", err
			}
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if m.vaultHostAllowed(hostOf(resolved)) {
			return resolved, nil
		}
		if m.apiKey == "" {
			return "", errors.Wrapf(errors.ErrAPIKeyRequired, "%s requires a Databus API key", resolved)
		}
		// informational probe; the GET sends the key regardless
		resp, err = m.head(ctx, resolved, m.apiKey)
		if err != nil {
			return "", err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			logger.Debugf("HEAD still unauthorized for %s, continuing to GET", resolved)
		}
	}
	return resolved, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// resolveLocation resolves a possibly relative Location header against the
// requested URL.
func resolveLocation(rawURL, location string) string {
	base, err := url.Parse(rawURL)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}

func (m *ManagerImpl) head(ctx context.Context, rawURL, apiKey string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	if apiKey != "" {
		if err := (auth.APIKeyAuth{Key: apiKey}).Apply(req); err != nil {
			return nil, err
		}
	}
	logger.HTTPRequest(http.MethodHead, rawURL, req.Header)

	resp, err := m.headClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDownloadFailed, err.Error())
	}
	_ = resp.Body.Close()
	logger.HTTPResponse(http.MethodHead, rawURL, resp.StatusCode)
	return resp, nil
}

// open issues the streaming GET. It returns a nil response for a 404 so
// the caller can skip the file; any other non-2xx becomes an error. A
// bearer challenge from an allow-listed host triggers the vault retry.
func (m *ManagerImpl) open(ctx context.Context, rawURL string) (*http.Response, error) {
	var a auth.Authenticator = auth.NoAuth{}
	if m.apiKey != "" {
		a = auth.APIKeyAuth{Key: m.apiKey}
	}
	resp, err := m.get(ctx, rawURL, true, a)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && hasBearerChallenge(resp.Header) {
		_ = resp.Body.Close()
		return m.openWithVaultToken(ctx, rawURL)
	}
	return checkOpenStatus(resp, rawURL)
}

// openWithVaultToken retries the GET with a freshly exchanged bearer token.
// Only allow-listed hosts ever see the token; anything else answering a
// bearer challenge is refused outright.
func (m *ManagerImpl) openWithVaultToken(ctx context.Context, rawURL string) (*http.Response, error) {
	host := hostOf(rawURL)
	if !m.vaultHostAllowed(host) {
		return nil, errors.Wrapf(errors.ErrHostNotVaultConfigured, "host %s answered a bearer challenge", host)
	}
	if !m.vaultUsable() {
		return nil, errors.Wrapf(errors.ErrVaultTokenRequired, "host %s", host)
	}

	token, err := m.vault.Token(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	// no Accept-Encoding override on the retry
	resp, err := m.get(ctx, rawURL, false, auth.BearerAuth{Token: token})
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrTokenInvalid, "%s", rawURL)
	case http.StatusForbidden:
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrInsufficientPermissions, "%s", rawURL)
	}
	return checkOpenStatus(resp, rawURL)
}

func checkOpenStatus(resp *http.Response, rawURL string) (*http.Response, error) {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, nil
	case resp.StatusCode == http.StatusForbidden:
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrForbidden, "access forbidden for %s, check credentials", rawURL)
	case resp.StatusCode == http.StatusUnauthorized:
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrUnauthorized, "unauthorized for %s, check API key or vault token", rawURL)
	default:
		status := resp.StatusCode
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrDownloadFailed, "%s returned status %d", rawURL, status)
	}
}

func (m *ManagerImpl) get(ctx context.Context, rawURL string, identityEncoding bool, a auth.Authenticator) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	if identityEncoding {
		// identity keeps Content-Length meaningful for the size check
		req.Header.Set("Accept-Encoding", "identity")
	}
	if err := a.Apply(req); err != nil {
		return nil, err
	}
	logger.HTTPRequest(http.MethodGet, rawURL, req.Header)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDownloadFailed, err.Error())
	}
	logger.HTTPResponse(http.MethodGet, rawURL, resp.StatusCode)
	return resp, nil
}

func hasBearerChallenge(h http.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("WWW-Authenticate")), "bearer")
}

// writeFile streams the body into a temp file next to the target and
// renames it into place so a killed process never leaves a half-written
// file under the final name.
func (m *ManagerImpl) writeFile(body io.Reader, absPath string, size int64, opts Options) (int64, error) {
	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return 0, errors.Wrap(err, "could not create download dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.tmp")
	if err != nil {
		return 0, errors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	var dst io.Writer = tmp
	if bar := newProgressBar(size, filepath.Base(absPath), opts.Progress, !opts.NoColor); bar != nil {
		dst = io.MultiWriter(tmp, bar)
		defer func() { _ = bar.Close() }()
	}

	written, err := io.CopyBuffer(dst, body, make([]byte, downloadChunkSize))
	if err != nil {
		_ = tmp.Close()
		return written, errors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return written, errors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		return written, errors.Wrap(err, "could not close file")
	}

	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return written, errors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeSecure); err != nil {
		return written, errors.Wrap(err, "could not set permissions")
	}
	return written, nil
}
