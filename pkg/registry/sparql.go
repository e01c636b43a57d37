package registry

import (
	"encoding/json"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/errors"
)

// sparqlResults mirrors the standard SPARQL JSON results layout. Only the
// bound values are consumed.
type sparqlResults struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Value string `json:"value"`
}

// parseBindingValues flattens result rows into their bound values. A file
// query must bind exactly one variable per row; rows violating that are
// skipped with a diagnostic instead of failing the whole result set.
func parseBindingValues(data []byte) ([]string, error) {
	var parsed sparqlResults
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(errors.ErrQueryFailed, err.Error())
	}

	values := make([]string, 0, len(parsed.Results.Bindings))
	for _, row := range parsed.Results.Bindings {
		if len(row) != 1 {
			logger.Warnf("skipping query result row with %d bindings, expected exactly one", len(row))
			continue
		}
		for _, v := range row {
			values = append(values, v.Value)
		}
	}
	return values, nil
}
