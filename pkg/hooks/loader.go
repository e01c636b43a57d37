package hooks

import (
	"os"

	"github.com/dbpedia/databusclient/pkg/errors"
)

// LoadScript reads a Tengo script from path and returns an executor running
// it on every event.
func LoadScript(path string) (*TengoExecutor, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHookLoad, "reading script %s: %v", path, err)
	}

	executor := NewTengoExecutor()
	executor.SetScript(string(content))
	return executor, nil
}
