package registry

import (
	"context"
	"strings"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/errors"
	"github.com/dbpedia/databusclient/pkg/model"
)

// Resolver reduces Databus identifiers, collections and literal SPARQL
// queries to flat file lists.
type Resolver struct {
	Fetcher Fetcher

	// Endpoint overrides per-host SPARQL endpoint detection when set.
	Endpoint string

	// AllVersions resolves every version of an artifact instead of only
	// the latest one.
	AllVersions bool
}

// NewResolver creates a resolver over the given metadata access.
func NewResolver(fetcher Fetcher, endpoint string, allVersions bool) *Resolver {
	return &Resolver{Fetcher: fetcher, Endpoint: endpoint, AllVersions: allVersions}
}

// Resolve turns one input into the files it denotes. Inputs that cannot be
// resolved yet (accounts, file:// query references, bare hosts) yield an
// empty list without an error so a multi-input batch keeps going.
func (r *Resolver) Resolve(ctx context.Context, input string) ([]model.FileRef, error) {
	granularity, id := model.Classify(input)

	switch granularity {
	case model.GranularityQuery:
		endpoint := r.Endpoint
		if endpoint == "" {
			return nil, errors.ErrNoEndpoint
		}
		logger.Infof("QUERY %s", strings.ReplaceAll(input, "\n", " "))
		return r.runFileQuery(ctx, endpoint, input)

	case model.GranularityLocalQuery:
		logger.Warn("query in file not supported yet", logger.Fields{"input": input})
		return nil, nil

	case model.GranularityCollection:
		endpoint := r.endpointFor(id)
		logger.Infof("SPARQL endpoint %s", endpoint)
		query, err := r.Fetcher.FetchCollectionQuery(ctx, input)
		if err != nil {
			return nil, errors.Wrapf(err, "collection %s", input)
		}
		return r.runFileQuery(ctx, endpoint, query)

	case model.GranularityFile:
		return []model.FileRef{{URL: input}}, nil

	case model.GranularityVersion:
		return r.resolveVersion(ctx, input)

	case model.GranularityArtifact:
		return r.resolveArtifact(ctx, input)

	case model.GranularityGroup:
		return r.resolveGroup(ctx, input)

	case model.GranularityAccount:
		logger.Warnf("account identifiers not supported yet, skipping %s", input)
		return nil, nil

	default:
		logger.Warnf("cannot resolve %s, skipping", input)
		return nil, nil
	}
}

// endpointFor picks the explicit endpoint or derives one from the
// identifier's host. Different identifiers in one batch may auto-detect
// different endpoints.
func (r *Resolver) endpointFor(id model.Identifier) string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	return id.SPARQLEndpoint()
}

func (r *Resolver) runFileQuery(ctx context.Context, endpoint, query string) ([]model.FileRef, error) {
	values, err := r.Fetcher.QuerySPARQL(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	refs := make([]model.FileRef, 0, len(values))
	for _, v := range values {
		refs = append(refs, model.FileRef{URL: v})
	}
	return refs, nil
}

func (r *Resolver) resolveVersion(ctx context.Context, uri string) ([]model.FileRef, error) {
	doc, err := r.Fetcher.FetchDocument(ctx, uri)
	if err != nil {
		return nil, errors.Wrapf(err, "version %s", uri)
	}
	return versionParts(doc)
}

func (r *Resolver) resolveArtifact(ctx context.Context, uri string) ([]model.FileRef, error) {
	doc, err := r.Fetcher.FetchDocument(ctx, uri)
	if err != nil {
		return nil, errors.Wrapf(err, "artifact %s", uri)
	}
	versions, err := artifactVersions(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "artifact %s", uri)
	}

	if !r.AllVersions {
		latest := versions[0]
		logger.Infof("No version given, using latest version: %s", latest)
		return r.resolveVersion(ctx, latest)
	}

	refs := []model.FileRef{}
	for _, version := range versions {
		parts, err := r.resolveVersion(ctx, version)
		if err != nil {
			return nil, err
		}
		refs = append(refs, parts...)
	}
	return refs, nil
}

func (r *Resolver) resolveGroup(ctx context.Context, uri string) ([]model.FileRef, error) {
	doc, err := r.Fetcher.FetchDocument(ctx, uri)
	if err != nil {
		return nil, errors.Wrapf(err, "group %s", uri)
	}
	artifacts, err := groupArtifacts(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "group %s", uri)
	}

	refs := []model.FileRef{}
	for _, artifact := range artifacts {
		logger.Infof("Processing artifact %s", artifact)
		parts, err := r.resolveArtifact(ctx, artifact)
		if err != nil {
			return nil, err
		}
		refs = append(refs, parts...)
	}
	return refs, nil
}
