//go:generate mockgen -destination=./mocks/client.go -package=mocks . Deleter,Downloader,Publisher,Resolver

// Package client ties resolution, download, deploy and delete together
// behind one facade. CLI commands call only this package.
package client

import (
	"context"

	"github.com/dbpedia/databusclient/pkg/compression"
	"github.com/dbpedia/databusclient/pkg/deploy"
	"github.com/dbpedia/databusclient/pkg/download"
	"github.com/dbpedia/databusclient/pkg/model"
)

// Resolver is the subset of the registry resolver used by the client.
type Resolver interface {
	Resolve(ctx context.Context, input string) ([]model.FileRef, error)
}

// Downloader is the subset of the download manager used by the client.
type Downloader interface {
	FetchAll(ctx context.Context, refs []model.FileRef, opts download.Options) ([]model.DownloadResult, error)
}

// Publisher is the subset of the deploy publisher used by the client.
type Publisher interface {
	CompleteAllStats(ctx context.Context, dists []deploy.Distribution) error
	Deploy(ctx context.Context, dataset *deploy.Dataset) error
}

// Deleter executes recursive registry deletions.
type Deleter interface {
	Delete(ctx context.Context, identifiers []string) error
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // resolving|downloading|converting|deploying|deleting|done|error
	ID    string // identifier or URL the phase applies to
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// DownloadOptions control a download run.
type DownloadOptions struct {
	Identifiers []string
	Dir         string
	BaseDir     string
	Validation  model.ValidationMode
	Progress    bool
	NoColor     bool

	// ConvertTo recompresses every downloaded file into the target format;
	// ConvertFrom limits conversion to files currently in that format.
	ConvertTo   compression.Format
	ConvertFrom compression.Format
}

// DeployOptions control publishing one dataset version.
type DeployOptions struct {
	VersionID     string
	Title         string
	Abstract      string
	Description   string
	License       string
	Distributions []deploy.Distribution
	Dataset       deploy.DatasetOptions
}
