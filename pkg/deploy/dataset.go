package deploy

import (
	"encoding/json"
	"strings"

	"github.com/dbpedia/databusclient/pkg/errors"
	"github.com/dbpedia/databusclient/pkg/model"
)

// DatasetContext is the JSON-LD context every publish document references.
const DatasetContext = "https://downloads.dbpedia.org/databus/context.jsonld"

// Dataset is the JSON-LD document POSTed to the publish API. Graph holds,
// in order, an optional GroupGraph, an ArtifactGraph and a VersionGraph.
type Dataset struct {
	Context string        `json:"@context"`
	Graph   []interface{} `json:"@graph"`
}

// GroupGraph carries group-level metadata. It is only emitted when all of
// its descriptive fields are provided.
type GroupGraph struct {
	ID          string `json:"@id"`
	Type        string `json:"@type"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	Description string `json:"description"`
}

// ArtifactGraph carries artifact-level metadata, mirroring the dataset's
// own title, abstract and description.
type ArtifactGraph struct {
	ID          string `json:"@id"`
	Type        string `json:"@type"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	Description string `json:"description"`
}

// VersionGraph describes the dataset version itself together with its
// distributions.
type VersionGraph struct {
	Type           []string `json:"@type"`
	ID             string   `json:"@id"`
	HasVersion     string   `json:"hasVersion"`
	Title          string   `json:"title"`
	Abstract       string   `json:"abstract"`
	Description    string   `json:"description"`
	License        string   `json:"license"`
	Distribution   []Part   `json:"distribution"`
	Attribution    string   `json:"attribution,omitempty"`
	WasDerivedFrom string   `json:"wasDerivedFrom,omitempty"`
}

// Part is one distribution entry of a VersionGraph. Content variants are
// flattened into dcv:-prefixed keys when marshalling.
type Part struct {
	FormatExtension string
	Compression     string
	DownloadURL     string
	ByteSize        int64
	SHA256          string
	ContentVariants map[string]string
}

// MarshalJSON emits the Part with its content variants as dcv: keys next
// to the fixed fields.
func (p Part) MarshalJSON() ([]byte, error) {
	doc := map[string]interface{}{
		"@type":           "Part",
		"formatExtension": p.FormatExtension,
		"compression":     p.Compression,
		"downloadURL":     p.DownloadURL,
		"byteSize":        p.ByteSize,
		"sha256sum":       p.SHA256,
	}
	for key, value := range p.ContentVariants {
		doc["dcv:"+key] = value
	}
	return json.Marshal(doc)
}

// DatasetOptions carries the optional dataset metadata. The group graph is
// only added when title, abstract and description are all set.
type DatasetOptions struct {
	Attribution      string
	DerivedFrom      string
	GroupTitle       string
	GroupAbstract    string
	GroupDescription string
}

// CreateDataset assembles the publish document for a dataset version. The
// version ID must name a concrete version
// (https://host/account/group/artifact/version) and every distribution must
// already carry its file stats; complete them first when they are missing.
func CreateDataset(versionID, title, abstract, description, licenseURL string, dists []Distribution, opts DatasetOptions) (*Dataset, error) {
	trimmed := strings.Trim(versionID, "/")

	id := model.ParseIdentifier(trimmed)
	if id.Host == "" || id.Account == "" || id.Group == "" || id.Artifact == "" || id.Version == "" || id.File != "" {
		return nil, errors.Wrapf(errors.ErrBadArgument, "version ID %q must have the form https://host/account/group/artifact/version", versionID)
	}

	artifactID := trimmed[:strings.LastIndex(trimmed, "/")]
	groupID := artifactID[:strings.LastIndex(artifactID, "/")]

	parts := make([]Part, 0, len(dists))
	for _, d := range dists {
		if len(dists) > 1 && len(d.ContentVariants) == 0 {
			return nil, errors.Wrap(errors.ErrBadArgument, "datasets with more than one file need content variants on every distribution")
		}
		if !d.HasStats() {
			return nil, errors.Wrapf(errors.ErrBadArgument, "distribution %s has no file stats", d.URL)
		}

		format, compression := d.FormatAndCompression()
		parts = append(parts, Part{
			FormatExtension: format,
			Compression:     compression,
			DownloadURL:     d.URL,
			ByteSize:        d.ByteSize,
			SHA256:          d.SHA256,
			ContentVariants: d.ContentVariants,
		})
	}

	graphs := make([]interface{}, 0, 3)

	if opts.GroupTitle != "" && opts.GroupAbstract != "" && opts.GroupDescription != "" {
		graphs = append(graphs, GroupGraph{
			ID:          groupID,
			Type:        "Group",
			Title:       opts.GroupTitle,
			Abstract:    opts.GroupAbstract,
			Description: opts.GroupDescription,
		})
	}

	graphs = append(graphs, ArtifactGraph{
		ID:          artifactID,
		Type:        "Artifact",
		Title:       title,
		Abstract:    abstract,
		Description: description,
	})

	graphs = append(graphs, VersionGraph{
		Type:           []string{"Version", "Dataset"},
		ID:             trimmed,
		HasVersion:     id.Version,
		Title:          title,
		Abstract:       abstract,
		Description:    description,
		License:        licenseURL,
		Distribution:   parts,
		Attribution:    opts.Attribution,
		WasDerivedFrom: opts.DerivedFrom,
	})

	return &Dataset{Context: DatasetContext, Graph: graphs}, nil
}
