package registry

import (
	"encoding/json"
	"sort"

	"github.com/dbpedia/databusclient/pkg/errors"
	"github.com/dbpedia/databusclient/pkg/model"
)

// idRef is a JSON-LD reference node.
type idRef struct {
	ID string `json:"@id"`
}

// decodeRefs accepts either a single reference object or an array of them,
// the two shapes Databus documents use interchangeably.
func decodeRefs(raw json.RawMessage) []idRef {
	if len(raw) == 0 {
		return nil
	}
	var many []idRef
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	var one idRef
	if err := json.Unmarshal(raw, &one); err == nil {
		return []idRef{one}
	}
	return nil
}

// artifactVersions extracts all version URIs from an artifact document,
// sorted descending. Databus versions are zero-padded date-like strings,
// so lexicographic order coincides with chronological order; the first
// entry is the latest version.
func artifactVersions(data []byte) ([]string, error) {
	var doc struct {
		HasVersion json.RawMessage `json:"databus:hasVersion"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing artifact JSON-LD")
	}

	refs := decodeRefs(doc.HasVersion)
	versions := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ID != "" {
			versions = append(versions, ref.ID)
		}
	}
	if len(versions) == 0 {
		return nil, errors.ErrNoVersions
	}

	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

// groupArtifacts extracts the artifact URIs a group document lists.
// Entries whose URI embeds a version are dropped; a catalogue sometimes
// contains malformed entries pointing at versions instead of artifacts.
func groupArtifacts(data []byte) ([]string, error) {
	var doc struct {
		HasArtifact json.RawMessage `json:"databus:hasArtifact"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing group JSON-LD")
	}

	refs := decodeRefs(doc.HasArtifact)
	artifacts := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		if model.ParseIdentifier(ref.ID).Version != "" {
			continue
		}
		artifacts = append(artifacts, ref.ID)
	}
	return artifacts, nil
}

// versionParts extracts the download URL and expected checksum of every
// Part node in a version document, in graph order. The file links are
// followed rather than any direct download URL so registry access counting
// stays accurate. A Part without a file attribute still contributes an
// entry with an empty URL.
func versionParts(data []byte) ([]model.FileRef, error) {
	var doc struct {
		Graph []map[string]interface{} `json:"@graph"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing version JSON-LD")
	}

	refs := []model.FileRef{}
	for _, node := range doc.Graph {
		nodeType, _ := node["@type"].(string)
		if nodeType != "Part" {
			continue
		}
		fileURL, _ := node["file"].(string)
		refs = append(refs, model.FileRef{
			URL:      fileURL,
			Checksum: partChecksum(node),
		})
	}
	return refs, nil
}

// sortedKeys returns map keys in a stable order for deterministic scans.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
