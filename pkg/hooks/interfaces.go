package hooks

//go:generate mockgen -destination=./mocks/hooks.go -package=mocks . Runner

// Runner receives download lifecycle events. Implementations decide what a
// script (or any other reaction) does with them; a returned error aborts the
// surrounding run.
type Runner interface {
	// FileDownloaded runs after a file landed on disk.
	FileDownloaded(url, path string, checksumOK bool) error
	// Done runs once after the whole batch finished.
	Done(total int) error
}
