package shardexec

import "github.com/kailas-cloud/ftsearch/internal/query"

// ProjectionMode selects how Execute fills SerializedSearchDoc.Fields.
type ProjectionMode int

const (
	// ProjectAll emits every schema field's stored value. The default
	// when neither RETURN nor LOAD was given.
	ProjectAll ProjectionMode = iota
	// ProjectNoContent emits keys only.
	ProjectNoContent
	// ProjectReturn emits only the listed fields, read from the cached
	// index values (not the raw document).
	ProjectReturn
	// ProjectLoad re-reads the listed fields from the raw document via
	// Request.Loader instead of the cached index values.
	ProjectLoad
)

// ProjectField names one field to project, by its schema alias
// (ProjectReturn) or source identifier (ProjectLoad), with an optional
// "AS alias" rename.
type ProjectField struct {
	Identifier string
	As         string
}

// Projection bundles the policy and the concrete field list; Fields is
// unused for ProjectAll/ProjectNoContent.
type Projection struct {
	Mode   ProjectionMode
	Fields []ProjectField
}

// SortSpec names a SORTBY target; Desc is false for ASC.
type SortSpec struct {
	Field string
	Desc  bool
}

// Loader re-reads a key's raw document content, used only by
// ProjectLoad. The caller (internal/command, backed by the kvstore
// collaborator) supplies it; Executor never reads storage directly.
type Loader func(key string) (hashFields map[string]string, jsonDoc []byte, ok bool)

// Request is everything the executor needs to answer one shard's half of
// an FT.SEARCH/FT.AGGREGATE query.
type Request struct {
	AST        query.Node
	Params     map[string]string
	Projection Projection
	SortBy     *SortSpec
	Profile    bool
	Loader     Loader
}

// SerializedSearchDoc is one matched document, projected per Request.
type SerializedSearchDoc struct {
	Key      string
	Fields   map[string]any // alias -> string | float64 | nil
	KNNScore *float32
	// SortScore is a float64 for a NUMERIC SORTABLE target, a string for
	// any other target, or nil if the target field has no value for this
	// document or no SORTBY was requested.
	SortScore any
}

// ShardSearchResult is what one shard's executor hands back to the
// fan-out coordinator.
type ShardSearchResult struct {
	Docs      []SerializedSearchDoc
	TotalHits int
	Err       error
	Profile   []ProfileEvent
}
