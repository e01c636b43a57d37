package registry

import (
	"context"
	goerrors "errors"
	"strings"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/errors"
	"github.com/dbpedia/databusclient/pkg/model"
)

// ConfirmAction is the answer to a single deletion prompt.
type ConfirmAction int

const (
	// ConfirmYes deletes the resource.
	ConfirmYes ConfirmAction = iota
	// ConfirmSkip leaves the resource alone and continues with the rest.
	ConfirmSkip
	// ConfirmCancel aborts the whole deletion run.
	ConfirmCancel
)

// ConfirmFunc decides the fate of one resource. The CLI wires an
// interactive prompt here; batch callers pass nil and set Force.
type ConfirmFunc func(uri string) (ConfirmAction, error)

// Remover issues the actual DELETE calls. *Client satisfies it.
type Remover interface {
	Delete(ctx context.Context, uri string) error
}

// DeleteQueue collects resource URIs during classification so the
// destructive calls happen in one pass at the end. URIs keep insertion
// order, which puts versions before their artifact and artifacts before
// their group.
type DeleteQueue struct {
	uris []string
	seen map[string]struct{}
}

// NewDeleteQueue returns an empty queue.
func NewDeleteQueue() *DeleteQueue {
	return &DeleteQueue{seen: make(map[string]struct{})}
}

// Add enqueues a URI once; duplicates are ignored.
func (q *DeleteQueue) Add(uri string) {
	if _, ok := q.seen[uri]; ok {
		return
	}
	q.seen[uri] = struct{}{}
	q.uris = append(q.uris, uri)
}

// Len reports the number of queued URIs.
func (q *DeleteQueue) Len() int { return len(q.uris) }

// URIs returns the queued URIs in insertion order.
func (q *DeleteQueue) URIs() []string { return q.uris }

// Deleter removes registry resources. Groups and artifacts are expanded
// into their contained versions first so nothing is orphaned; files
// cannot be deleted through the API and are skipped with a warning.
type Deleter struct {
	Fetcher Fetcher
	Remover Remover
	// DryRun only reports what would be deleted.
	DryRun bool
	// Force suppresses the confirmation prompt.
	Force bool
	// Confirm is consulted per resource unless DryRun or Force is set.
	Confirm ConfirmFunc
}

// NewDeleter wires a deleter around a registry client.
func NewDeleter(client *Client, dryRun, force bool, confirm ConfirmFunc) *Deleter {
	return &Deleter{
		Fetcher: client,
		Remover: client,
		DryRun:  dryRun,
		Force:   force,
		Confirm: confirm,
	}
}

// Delete classifies each identifier, queues the resources it expands to
// and then executes the queue. A cancel answer from the confirmation
// prompt aborts the run before anything is removed.
func (d *Deleter) Delete(ctx context.Context, identifiers []string) error {
	queue := NewDeleteQueue()
	for _, identifier := range identifiers {
		if err := d.collect(ctx, queue, identifier); err != nil {
			return err
		}
	}
	if queue.Len() == 0 {
		logger.Info("Nothing to delete")
		return nil
	}
	if d.DryRun {
		return nil
	}
	logger.Infof("Deleting %d resource(s)", queue.Len())
	for _, uri := range queue.URIs() {
		logger.Infof("[DELETE] %s", uri)
		if err := d.Remover.Delete(ctx, uri); err != nil {
			return err
		}
	}
	return nil
}

// collect classifies one identifier and queues it as given. The URI is
// never rewritten to a canonical form: deletion must hit exactly the
// resource the caller named.
func (d *Deleter) collect(ctx context.Context, queue *DeleteQueue, identifier string) error {
	uri := strings.TrimRight(strings.TrimSpace(identifier), "/")
	granularity, _ := model.Classify(uri)
	switch granularity {
	case model.GranularityCollection:
		logger.Infof("Deleting collection %s", uri)
		return d.enqueue(queue, uri)
	case model.GranularityVersion:
		logger.Infof("Deleting version %s", uri)
		return d.enqueue(queue, uri)
	case model.GranularityFile:
		logger.Warnf("Deleting single files is not supported, skipping %s", uri)
		return nil
	case model.GranularityArtifact:
		logger.Infof("Deleting artifact %s and all its versions", uri)
		return d.collectArtifact(ctx, queue, uri)
	case model.GranularityGroup:
		logger.Infof("Deleting group %s and all its artifacts", uri)
		return d.collectGroup(ctx, queue, uri)
	default:
		logger.Warnf("Deletion is not supported for %s, skipping", uri)
		return nil
	}
}

// collectArtifact queues every version of the artifact and then the
// artifact itself. An artifact without versions is still deleted.
func (d *Deleter) collectArtifact(ctx context.Context, queue *DeleteQueue, uri string) error {
	doc, err := d.Fetcher.FetchDocument(ctx, uri)
	if err != nil {
		return errors.Wrapf(err, "fetch artifact %s", uri)
	}
	versions, err := artifactVersions(doc)
	if err != nil && !goerrors.Is(err, errors.ErrNoVersions) {
		return err
	}
	if len(versions) == 0 {
		logger.Infof("No versions found for artifact %s", uri)
	}
	for _, version := range versions {
		if err := d.enqueue(queue, version); err != nil {
			return err
		}
	}
	return d.enqueue(queue, uri)
}

// collectGroup queues every artifact of the group recursively and then
// the group itself.
func (d *Deleter) collectGroup(ctx context.Context, queue *DeleteQueue, uri string) error {
	doc, err := d.Fetcher.FetchDocument(ctx, uri)
	if err != nil {
		return errors.Wrapf(err, "fetch group %s", uri)
	}
	artifacts, err := groupArtifacts(doc)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		logger.Infof("No artifacts found for group %s", uri)
	}
	for _, artifact := range artifacts {
		if err := d.collectArtifact(ctx, queue, artifact); err != nil {
			return err
		}
	}
	return d.enqueue(queue, uri)
}

// enqueue runs the confirmation prompt and either queues the URI,
// reports it for a dry run or propagates a cancel.
func (d *Deleter) enqueue(queue *DeleteQueue, uri string) error {
	if !d.DryRun && !d.Force && d.Confirm != nil {
		action, err := d.Confirm(uri)
		if err != nil {
			return err
		}
		switch action {
		case ConfirmSkip:
			logger.Infof("Skipping %s", uri)
			return nil
		case ConfirmCancel:
			return errors.ErrDeleteCancelled
		}
	}
	if d.DryRun {
		logger.Infof("[DRY RUN] Would delete %s", uri)
		return nil
	}
	queue.Add(uri)
	return nil
}
