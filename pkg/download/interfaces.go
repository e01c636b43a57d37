//go:generate mockgen -destination=./mocks/download.go -package=mocks . Manager,TokenSource
package download

import (
	"context"

	"github.com/dbpedia/databusclient/pkg/model"
)

// Manager downloads resolved registry files, escalating through the
// authentication tiers (anonymous, API key, vault bearer token) as the
// servers demand.
type Manager interface {
	// Fetch retrieves a single file to its local path.
	Fetch(ctx context.Context, ref model.FileRef, opts Options) (model.DownloadResult, error)

	// FetchAll retrieves the batch strictly sequentially. A 404 skips the
	// file and continues; any other failure stops the batch. The returned
	// results cover every attempted file including the failing one.
	FetchAll(ctx context.Context, refs []model.FileRef, opts Options) ([]model.DownloadResult, error)
}

// TokenSource mints vault bearer tokens for protected download hosts.
// vault.TokenSource is the production implementation.
type TokenSource interface {
	// Token exchanges the configured refresh token for a bearer token
	// scoped to the download URL's host.
	Token(ctx context.Context, downloadURL string) (string, error)

	// Available reports whether a refresh token is configured at all.
	Available() bool
}

// Options control one download batch.
type Options struct {
	// Dir is an explicit destination directory. When set, files land
	// directly in it under their URL basename.
	Dir string

	// BaseDir anchors the derived account/group/artifact/version tree used
	// when Dir is empty. Empty means the working directory.
	BaseDir string

	// Validation selects checksum handling for downloaded files.
	Validation model.ValidationMode

	// Progress renders a per-file progress bar on stderr.
	Progress bool

	// NoColor disables ANSI color codes in the progress bar.
	NoColor bool
}
