// Package registry talks to a DBpedia Databus instance. It fetches JSON-LD
// metadata and collection queries, runs SPARQL queries, resolves
// identifiers of any granularity into flat file lists and issues
// authenticated delete calls.
package registry

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/auth"
	"github.com/dbpedia/databusclient/pkg/errors"
)

// UserAgent identifies the client on all registry calls.
const UserAgent = "databusclient/1.0"

const (
	acceptJSONLD       = "application/ld+json"
	acceptSPARQLQuery  = "text/sparql"
	acceptSPARQLResult = "application/sparql-results+json"
)

// Client handles HTTP operations against a Databus registry.
type Client struct {
	client    *http.Client
	userAgent string
	apiKey    string
}

// NewClient creates a registry client. The API key may be empty for
// anonymous access.
func NewClient(timeout time.Duration, apiKey string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: UserAgent,
		apiKey:    apiKey,
	}
}

// HasAPIKey reports whether the client sends an X-API-KEY header.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// FetchDocument retrieves the JSON-LD representation of a Databus resource.
// Any non-2xx answer is an error; resolution of the identifier aborts.
func (c *Client) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	return c.get(ctx, uri, acceptJSONLD)
}

// FetchCollectionQuery retrieves the SPARQL query a collection embeds. The
// response body is the literal query text.
func (c *Client) FetchCollectionQuery(ctx context.Context, uri string) (string, error) {
	data, err := c.get(ctx, uri, acceptSPARQLQuery)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// QuerySPARQL posts a query to the endpoint and returns the bound values,
// one per result row. Rows binding more than one variable are skipped with
// a diagnostic.
func (c *Client) QuerySPARQL(ctx context.Context, endpoint, query string) ([]string, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", acceptSPARQLResult)
	if err := c.applyAuth(req); err != nil {
		return nil, err
	}
	logger.HTTPRequest(http.MethodPost, endpoint, req.Header)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrQueryFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	logger.HTTPResponse(http.MethodPost, endpoint, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrQueryFailed, "endpoint %s returned status %d", endpoint, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read query response")
	}

	return parseBindingValues(data)
}

// Delete issues an authenticated DELETE for a registry resource. The
// Databus answers 200 or 204 on success.
func (c *Client) Delete(ctx context.Context, uri string) error {
	if c.apiKey == "" {
		return errors.Wrap(errors.ErrAPIKeyRequired, "delete")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, uri, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("User-Agent", c.userAgent)
	if err := c.applyAuth(req); err != nil {
		return err
	}
	logger.HTTPRequest(http.MethodDelete, uri, req.Header)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrDeleteFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	logger.HTTPResponse(http.MethodDelete, uri, resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return errors.Wrapf(errors.ErrUnauthorized, "delete %s", uri)
	case http.StatusForbidden:
		return errors.Wrapf(errors.ErrForbidden, "delete %s", uri)
	default:
		return errors.Wrapf(errors.ErrDeleteFailed, "%s returned status %d", uri, resp.StatusCode)
	}
}

func (c *Client) get(ctx context.Context, uri, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	if err := c.applyAuth(req); err != nil {
		return nil, err
	}
	logger.HTTPRequest(http.MethodGet, uri, req.Header)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMetadataFetch, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	logger.HTTPResponse(http.MethodGet, uri, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(errors.ErrMetadataFetch, "%s returned status %d", uri, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return data, nil
}

func (c *Client) applyAuth(req *http.Request) error {
	if c.apiKey == "" {
		return nil
	}
	return auth.APIKeyAuth{Key: c.apiKey}.Apply(req)
}
