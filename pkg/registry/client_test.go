package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbpedia/databusclient/pkg/errors"
)

func TestFetchDocument(t *testing.T) {
	var gotAccept, gotAgent, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		gotKey = r.Header.Get("X-API-KEY")
		_, _ = w.Write([]byte(`{"@id": "doc"}`))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "")
	data, err := client.FetchDocument(context.Background(), server.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"@id": "doc"}`, string(data))
	assert.Equal(t, "application/ld+json", gotAccept)
	assert.Equal(t, UserAgent, gotAgent)
	assert.Empty(t, gotKey)
}

func TestFetchDocumentSendsAPIKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "secret-key")
	_, err := client.FetchDocument(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey)
}

func TestFetchDocumentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "")
	_, err := client.FetchDocument(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMetadataFetch)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFetchCollectionQuery(t *testing.T) {
	const query = "SELECT ?file WHERE { ?s ?p ?file }"
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(query))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "")
	got, err := client.FetchCollectionQuery(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, query, got)
	assert.Equal(t, "text/sparql", gotAccept)
}

func TestQuerySPARQL(t *testing.T) {
	var gotQuery, gotAccept, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.PostFormValue("query")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"results": {"bindings": [
			{"file": {"type": "uri", "value": "https://example.org/a.ttl.bz2"}},
			{"file": {"type": "uri", "value": "https://example.org/b.ttl.bz2"}}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "")
	values, err := client.QuerySPARQL(context.Background(), server.URL, "SELECT ?file {}")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org/a.ttl.bz2", "https://example.org/b.ttl.bz2"}, values)
	assert.Equal(t, "SELECT ?file {}", gotQuery)
	assert.Equal(t, "application/sparql-results+json", gotAccept)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
}

func TestQuerySPARQLSkipsMultiBindingRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": {"bindings": [
			{"file": {"value": "https://example.org/a.ttl.bz2"}, "size": {"value": "42"}},
			{"file": {"value": "https://example.org/b.ttl.bz2"}}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "")
	values, err := client.QuerySPARQL(context.Background(), server.URL, "SELECT * {}")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org/b.ttl.bz2"}, values)
}

func TestQuerySPARQLEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "malformed query", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "")
	_, err := client.QuerySPARQL(context.Background(), server.URL, "SELECT bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQueryFailed)
	assert.Contains(t, err.Error(), "status 400")
}

func TestDeleteRequiresAPIKey(t *testing.T) {
	client := NewClient(5*time.Second, "")
	err := client.Delete(context.Background(), "https://databus.dbpedia.org/a/g/art/2023.01.01")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
}

func TestDelete(t *testing.T) {
	var gotMethod, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotKey = r.Header.Get("X-API-KEY")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "secret-key")
	require.NoError(t, client.Delete(context.Background(), server.URL))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "secret-key", gotKey)
}

func TestDeleteStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: errors.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, want: errors.ErrForbidden},
		{name: "server error", status: http.StatusInternalServerError, want: errors.ErrDeleteFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(5*time.Second, "secret-key")
			err := client.Delete(context.Background(), server.URL)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
