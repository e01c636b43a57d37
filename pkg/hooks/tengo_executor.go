package hooks

import (
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/dbpedia/databusclient/pkg/errors"
)

// TengoExecutor runs a user-supplied Tengo script on download events. The
// same script serves every event; it can branch on the `event` global. All
// globals are defined on every run (with zero values where an event carries
// no payload for them) so a script may reference any of them unconditionally.
// A script fails the event by assigning a message to the predeclared `err`
// global.
type TengoExecutor struct {
	script string
	mutex  sync.RWMutex
}

// NewTengoExecutor creates an executor with no script; every event is a no-op
// until SetScript provides one.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{}
}

// SetScript replaces the script source.
func (e *TengoExecutor) SetScript(src string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.script = src
}

// HasScript reports whether a script is loaded.
func (e *TengoExecutor) HasScript() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.script != ""
}

// FileDownloaded runs the script for a single downloaded file.
func (e *TengoExecutor) FileDownloaded(url, path string, checksumOK bool) error {
	return e.run(EventFile, map[string]interface{}{
		"event":       string(EventFile),
		"url":         url,
		"path":        path,
		"checksum_ok": checksumOK,
		"total":       0,
	})
}

// Done runs the script once after the whole batch finished. total counts the
// files that were actually written.
func (e *TengoExecutor) Done(total int) error {
	return e.run(EventDone, map[string]interface{}{
		"event":       string(EventDone),
		"url":         "",
		"path":        "",
		"checksum_ok": false,
		"total":       total,
	})
}

func (e *TengoExecutor) run(event Event, vars map[string]interface{}) error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.script == "" {
		return nil
	}

	script := tengo.NewScript([]byte(e.script))
	script.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times", "json"))

	// err must exist before the run: Tengo only allows plain assignment to
	// declared variables, and scripts set err from nested scopes.
	vars["err"] = nil
	for name, value := range vars {
		if err := script.Add(name, value); err != nil {
			return errors.Wrapf(errors.ErrHookExecution, "adding variable %q to %s script: %v", name, event, err)
		}
	}

	compiled, err := script.Run()
	if err != nil {
		return errors.Wrapf(errors.ErrHookExecution, "%s hook: %v", event, err)
	}

	// Scripts signal deliberate failure by assigning to `err`.
	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return errors.Wrapf(errors.ErrHookScript, "%s hook: %v", event, v)
		case string:
			if v != "" {
				return errors.Wrapf(errors.ErrHookScript, "%s hook: %s", event, v)
			}
		}
	}

	return nil
}
