package client

import (
	"context"
	"fmt"

	"github.com/dbpedia/databusclient/pkg/compression"
	"github.com/dbpedia/databusclient/pkg/deploy"
	"github.com/dbpedia/databusclient/pkg/download"
	"github.com/dbpedia/databusclient/pkg/hooks"
	"github.com/dbpedia/databusclient/pkg/model"
)

// Client bundles the collaborators for the three Databus operations.
// PostHook is optional; when set it runs after every successfully
// downloaded file and once per finished batch.
type Client struct {
	Resolver   Resolver
	Downloader Downloader
	Publisher  Publisher
	Deleter    Deleter
	Hooks      Hooks
	PostHook   hooks.Runner
}

// New constructs a client from existing collaborators. Helper for wiring.
// Hooks can be the zero value if no event handling is needed.
func New(resolver Resolver, downloader Downloader, publisher Publisher, deleter Deleter, h Hooks) *Client {
	return &Client{
		Resolver:   resolver,
		Downloader: downloader,
		Publisher:  publisher,
		Deleter:    deleter,
		Hooks:      h,
	}
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Download resolves each identifier into its file set and fetches the sets
// in order. Per-file outcomes accumulate across identifiers; the first hard
// failure aborts the run and returns what was gathered so far.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) ([]model.DownloadResult, error) {
	if c.Resolver == nil {
		return nil, fmt.Errorf("resolver is not configured")
	}
	if c.Downloader == nil {
		return nil, fmt.Errorf("download manager is not configured")
	}

	dlOpts := download.Options{
		Dir:        opts.Dir,
		BaseDir:    opts.BaseDir,
		Validation: opts.Validation,
		Progress:   opts.Progress,
		NoColor:    opts.NoColor,
	}

	var results []model.DownloadResult
	for _, input := range opts.Identifiers {
		emit(c.Hooks, Event{Phase: "resolving", ID: input})
		refs, err := c.Resolver.Resolve(ctx, input)
		if err != nil {
			emit(c.Hooks, Event{Phase: "error", ID: input, Msg: err.Error()})
			return results, err
		}
		if len(refs) == 0 {
			continue
		}

		emit(c.Hooks, Event{Phase: "downloading", ID: input, Msg: fmt.Sprintf("%d file(s)", len(refs))})
		batch, err := c.Downloader.FetchAll(ctx, refs, dlOpts)
		results = append(results, batch...)
		if err != nil {
			emit(c.Hooks, Event{Phase: "error", ID: input, Msg: err.Error()})
			return results, err
		}
	}

	if err := c.convertResults(results, opts.ConvertTo, opts.ConvertFrom); err != nil {
		emit(c.Hooks, Event{Phase: "error", Msg: err.Error()})
		return results, err
	}

	if err := c.runPostHooks(results); err != nil {
		emit(c.Hooks, Event{Phase: "error", Msg: err.Error()})
		return results, err
	}

	emit(c.Hooks, Event{Phase: "done"})
	return results, nil
}

// convertResults recompresses the written files in place, updating each
// result's path to the converted file.
func (c *Client) convertResults(results []model.DownloadResult, target, from compression.Format) error {
	if target == compression.FormatNone {
		return nil
	}

	for i := range results {
		res := &results[i]
		if res.Status != model.StatusSucceeded {
			continue
		}
		ok, source := compression.ShouldConvert(res.Path, target, from)
		if !ok {
			continue
		}

		emit(c.Hooks, Event{Phase: "converting", ID: res.URL, Msg: res.Path})
		converted := compression.ConvertedFilename(res.Path, target)
		if err := compression.Convert(res.Path, converted, source, target); err != nil {
			return err
		}
		res.Path = converted
	}
	return nil
}

// runPostHooks feeds every written file to the post-download script and
// closes the batch with the done event.
func (c *Client) runPostHooks(results []model.DownloadResult) error {
	if c.PostHook == nil {
		return nil
	}

	total := 0
	for _, res := range results {
		if res.Status != model.StatusSucceeded {
			continue
		}
		total++
		if err := c.PostHook.FileDownloaded(res.URL, res.Path, !res.ChecksumMismatch); err != nil {
			return err
		}
	}
	return c.PostHook.Done(total)
}

// Deploy completes missing file stats, assembles the dataset document and
// publishes it.
func (c *Client) Deploy(ctx context.Context, opts DeployOptions) error {
	if c.Publisher == nil {
		return fmt.Errorf("publisher is not configured")
	}

	emit(c.Hooks, Event{Phase: "deploying", ID: opts.VersionID})
	if err := c.Publisher.CompleteAllStats(ctx, opts.Distributions); err != nil {
		emit(c.Hooks, Event{Phase: "error", ID: opts.VersionID, Msg: err.Error()})
		return err
	}

	dataset, err := deploy.CreateDataset(opts.VersionID, opts.Title, opts.Abstract, opts.Description, opts.License, opts.Distributions, opts.Dataset)
	if err != nil {
		emit(c.Hooks, Event{Phase: "error", ID: opts.VersionID, Msg: err.Error()})
		return err
	}

	if err := c.Publisher.Deploy(ctx, dataset); err != nil {
		emit(c.Hooks, Event{Phase: "error", ID: opts.VersionID, Msg: err.Error()})
		return err
	}

	emit(c.Hooks, Event{Phase: "done", ID: opts.VersionID})
	return nil
}

// Delete walks the identifiers and removes them through the registry.
// Confirmation and dry-run policy live on the configured Deleter.
func (c *Client) Delete(ctx context.Context, identifiers []string) error {
	if c.Deleter == nil {
		return fmt.Errorf("deleter is not configured")
	}

	emit(c.Hooks, Event{Phase: "deleting"})
	if err := c.Deleter.Delete(ctx, identifiers); err != nil {
		emit(c.Hooks, Event{Phase: "error", Msg: err.Error()})
		return err
	}

	emit(c.Hooks, Event{Phase: "done"})
	return nil
}
