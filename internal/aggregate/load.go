package aggregate

import (
	"github.com/kailas-cloud/ftsearch/internal/indexer"
	"github.com/kailas-cloud/ftsearch/internal/shardexec"
)

// LoadStage pulls additional document fields into every row before any
// transforming step runs (LOAD-before-transform constraint).
// Rows must already carry KeyField, set by whatever produced them from
// a shard's SerializedSearchDoc.
type LoadStage struct {
	Fields []shardexec.ProjectField
	Loader shardexec.Loader
}

func (s *LoadStage) Apply(rows []Row) ([]Row, error) {
	if s.Loader == nil {
		for _, row := range rows {
			for _, f := range s.Fields {
				row[loadedName(f)] = nil
			}
		}
		return rows, nil
	}

	for _, row := range rows {
		key, _ := row[KeyField].(string)
		hashFields, jsonDoc, ok := s.Loader(key)
		for _, f := range s.Fields {
			if !ok {
				row[loadedName(f)] = nil
				continue
			}
			v, found := indexer.LoadField(f.Identifier, hashFields, jsonDoc)
			if !found {
				row[loadedName(f)] = nil
				continue
			}
			row[loadedName(f)] = v
		}
	}
	return rows, nil
}

func loadedName(f shardexec.ProjectField) string {
	if f.As != "" {
		return f.As
	}
	return f.Identifier
}
