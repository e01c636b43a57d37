package hooks

// Event identifies the download lifecycle point a script run reports.
type Event string

// Supported events.
const (
	// EventFile fires once per successfully downloaded file.
	EventFile Event = "file"
	// EventDone fires once after the whole batch finished.
	EventDone Event = "done"
)
