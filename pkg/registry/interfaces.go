//go:generate mockgen -destination=./mocks/registry.go -package=mocks . Fetcher,Remover
package registry

import "context"

// Fetcher is the metadata access the resolver works against.
type Fetcher interface {
	// FetchDocument retrieves a resource's JSON-LD representation.
	FetchDocument(ctx context.Context, uri string) ([]byte, error)
	// FetchCollectionQuery retrieves the SPARQL query a collection embeds.
	FetchCollectionQuery(ctx context.Context, uri string) (string, error)
	// QuerySPARQL runs a query and returns the bound value per result row.
	QuerySPARQL(ctx context.Context, endpoint, query string) ([]string, error)
}
