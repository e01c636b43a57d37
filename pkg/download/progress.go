package download

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// newProgressBar renders byte progress for one file on stderr. size may be
// -1 when the server sent no Content-Length. Returns nil when disabled so
// callers skip the MultiWriter entirely.
func newProgressBar(size int64, filename string, enabled, colored bool) *progressbar.ProgressBar {
	if !enabled {
		return nil
	}
	description := filename
	if colored {
		description = "[cyan]" + filename + "[reset]"
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(colored),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
