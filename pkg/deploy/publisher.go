package deploy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/auth"
	"github.com/dbpedia/databusclient/pkg/errors"
)

const userAgent = "databusclient/1.0"

// LogLevel selects how verbosely the registry logs a publish request.
type LogLevel string

// Publish log levels understood by the registry.
const (
	LogLevelError LogLevel = "error"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
)

// Publisher submits datasets to a Databus publish API.
type Publisher struct {
	client      *http.Client
	userAgent   string
	apiKey      string
	verifyParts bool
	logLevel    LogLevel
}

// NewPublisher creates a publisher. verifyParts asks the registry to check
// file stats server-side; the client already computes them, so it defaults
// off to spare the registry the extra load.
func NewPublisher(timeout time.Duration, apiKey string, verifyParts bool, logLevel LogLevel) *Publisher {
	if logLevel == "" {
		logLevel = LogLevelDebug
	}
	return &Publisher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent:   userAgent,
		apiKey:      apiKey,
		verifyParts: verifyParts,
		logLevel:    logLevel,
	}
}

// Deploy POSTs the dataset to the publish API of the registry named in its
// graphs. The registry answers 200 on success; anything else fails with the
// response text.
func (p *Publisher) Deploy(ctx context.Context, dataset *Dataset) error {
	if p.apiKey == "" {
		return errors.Wrap(errors.ErrAPIKeyRequired, "deploy")
	}

	base, err := publishBase(dataset)
	if err != nil {
		return err
	}

	body, err := json.Marshal(dataset)
	if err != nil {
		return errors.Wrap(err, "failed to encode dataset")
	}

	apiURI := fmt.Sprintf("%s/api/publish?verify-parts=%t&log-level=%s", base, p.verifyParts, p.logLevel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURI, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Content-Type", "application/json")
	if err := (auth.APIKeyAuth{Key: p.apiKey}).Apply(req); err != nil {
		return err
	}
	logger.HTTPRequest(http.MethodPost, apiURI, req.Header)

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrDeployFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	logger.HTTPResponse(http.MethodPost, apiURI, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return errors.Wrapf(errors.ErrDeployFailed, "could not deploy dataset: %s", strings.TrimSpace(string(text)))
	}

	logger.Successf("Deployed dataset to %s", base)
	return nil
}

// DeployMetadata publishes a dataset version described by file metadata
// entries. Stats come with the entries, so nothing is downloaded.
func (p *Publisher) DeployMetadata(ctx context.Context, entries []Metadata, versionID, title, abstract, description, licenseURL string) error {
	dists, err := DistributionsFromMetadata(entries)
	if err != nil {
		return err
	}

	dataset, err := CreateDataset(versionID, title, abstract, description, licenseURL, dists, DatasetOptions{})
	if err != nil {
		return err
	}

	logger.Infof("Deploying dataset version %s", strings.Trim(versionID, "/"))
	if err := p.Deploy(ctx, dataset); err != nil {
		return err
	}

	logger.Successf("Deployed %d file(s) to %s", len(entries), strings.Trim(versionID, "/"))
	for _, entry := range entries {
		logger.Infof("  - %s", entry.URL)
	}
	return nil
}

// CompleteStats fills in missing file stats by downloading the file and
// hashing it. Distributions that already carry stats are left alone. This
// can take a while for large files.
func (p *Publisher) CompleteStats(ctx context.Context, d *Distribution) error {
	if d.HasStats() {
		return nil
	}

	logger.Debugf("Loading file stats for %s", d.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrDeployFailed, "loading stats for %s: %v", d.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Wrapf(errors.ErrDeployFailed, "loading stats for %s: status %d", d.URL, resp.StatusCode)
	}

	hash := sha256.New()
	size, err := io.Copy(hash, resp.Body)
	if err != nil {
		return errors.Wrapf(errors.ErrDeployFailed, "loading stats for %s: %v", d.URL, err)
	}

	d.SHA256 = hex.EncodeToString(hash.Sum(nil))
	d.ByteSize = size
	return nil
}

// CompleteAllStats runs CompleteStats over every distribution in place.
func (p *Publisher) CompleteAllStats(ctx context.Context, dists []Distribution) error {
	for i := range dists {
		if err := p.CompleteStats(ctx, &dists[i]); err != nil {
			return err
		}
	}
	return nil
}

// FileStats streams a local file through SHA-256 and returns the hex digest
// and byte size.
func FileStats(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrapf(err, "failed to open %s", path)
	}
	defer func() { _ = f.Close() }()

	hash := sha256.New()
	size, err := io.Copy(hash, f)
	if err != nil {
		return "", 0, errors.Wrapf(err, "failed to hash %s", path)
	}
	return hex.EncodeToString(hash.Sum(nil)), size, nil
}

// publishBase derives the registry base URL from the first graph's @id.
func publishBase(dataset *Dataset) (string, error) {
	if dataset == nil || len(dataset.Graph) == 0 {
		return "", errors.Wrap(errors.ErrBadArgument, "dataset has no graphs")
	}

	var id string
	switch g := dataset.Graph[0].(type) {
	case GroupGraph:
		id = g.ID
	case ArtifactGraph:
		id = g.ID
	case VersionGraph:
		id = g.ID
	default:
		return "", errors.Wrap(errors.ErrBadArgument, "dataset graph carries no identifier")
	}

	u, err := url.Parse(id)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.Wrapf(errors.ErrBadArgument, "graph identifier %q is not an absolute URL", id)
	}
	return u.Scheme + "://" + u.Host, nil
}
