// Package model provides data structures and types for representing Databus
// identifiers, resolved file references, and download results.
package model

import "strings"

// identifierSlots is the number of path segments a full Databus identifier
// carries: host, account, group, artifact, version, file.
const identifierSlots = 6

// Identifier is a Databus URI decomposed into its positional segments.
// Empty fields mean the segment is absent; a coarser-grained identifier
// simply leaves its trailing fields empty.
type Identifier struct {
	Host     string
	Account  string
	Group    string
	Artifact string
	Version  string
	File     string
}

// ParseIdentifier splits a Databus URI into its six positional segments.
// It strips a leading http:// or https:// scheme and surrounding slashes,
// then maps the remaining path segments onto (host, account, group,
// artifact, version, file). Missing segments stay empty, segments beyond
// the sixth are ignored. The function is total: any input, including the
// empty string, yields a valid Identifier.
func ParseIdentifier(uri string) Identifier {
	s := strings.TrimPrefix(uri, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.Trim(s, "/")

	parts := strings.Split(s, "/")
	padded := make([]string, identifierSlots)
	for i := 0; i < identifierSlots && i < len(parts); i++ {
		padded[i] = parts[i]
	}

	return Identifier{
		Host:     padded[0],
		Account:  padded[1],
		Group:    padded[2],
		Artifact: padded[3],
		Version:  padded[4],
		File:     padded[5],
	}
}

// String reassembles the identifier into an https URI. Segments after the
// first empty one are dropped so a partially filled identifier renders as
// its coarser-grained URI. An identifier without a host renders empty.
func (id Identifier) String() string {
	if id.Host == "" {
		return ""
	}
	segments := []string{id.Host, id.Account, id.Group, id.Artifact, id.Version, id.File}
	kept := segments[:1]
	for _, seg := range segments[1:] {
		if seg == "" {
			break
		}
		kept = append(kept, seg)
	}
	return "https://" + strings.Join(kept, "/")
}

// SPARQLEndpoint derives the default SPARQL endpoint for the identifier's
// host.
func (id Identifier) SPARQLEndpoint() string {
	if id.Host == "" {
		return ""
	}
	return "https://" + id.Host + "/sparql"
}

// IsCollection reports whether the identifier addresses a curated
// collection rather than a taxonomy group.
func (id Identifier) IsCollection() bool {
	return id.Group == "collections" && id.Artifact != ""
}

// Granularity classifies what kind of resource an input line addresses.
type Granularity string

const (
	// GranularityQuery is a literal SPARQL query passed as an argument.
	GranularityQuery Granularity = "query"
	// GranularityLocalQuery is a file:// reference to a query on disk.
	GranularityLocalQuery Granularity = "local-query"
	// GranularityCollection is a curated collection URI.
	GranularityCollection Granularity = "collection"
	// GranularityFile is a single file URI.
	GranularityFile Granularity = "file"
	// GranularityVersion is an artifact version URI.
	GranularityVersion Granularity = "version"
	// GranularityArtifact is an artifact URI without a version.
	GranularityArtifact Granularity = "artifact"
	// GranularityGroup is a group URI.
	GranularityGroup Granularity = "group"
	// GranularityAccount is an account URI.
	GranularityAccount Granularity = "account"
	// GranularityUnknown is anything too coarse or malformed to resolve.
	GranularityUnknown Granularity = "unknown"
)

// Classify determines how an input line should be resolved. Strings without
// an http(s) or file scheme are literal SPARQL queries; file:// references
// are recognized but resolution support for them is separate. URIs are
// parsed and ranked by their deepest populated segment, with the
// collections group treated as its own granularity.
func Classify(input string) (Granularity, Identifier) {
	if strings.HasPrefix(input, "file://") {
		return GranularityLocalQuery, Identifier{}
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return GranularityQuery, Identifier{}
	}

	id := ParseIdentifier(input)
	switch {
	case id.IsCollection():
		return GranularityCollection, id
	case id.File != "":
		return GranularityFile, id
	case id.Version != "":
		return GranularityVersion, id
	case id.Artifact != "":
		return GranularityArtifact, id
	case id.Group != "" && id.Group != "collections":
		return GranularityGroup, id
	case id.Account != "":
		return GranularityAccount, id
	default:
		return GranularityUnknown, id
	}
}
