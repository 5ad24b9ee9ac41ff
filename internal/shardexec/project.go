package shardexec

import (
	"github.com/kailas-cloud/ftsearch/internal/indexer"
	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// projectFields builds doc's field map per req.Projection.
func (e *Executor) projectFields(doc DocID, req Request) map[string]any {
	switch req.Projection.Mode {
	case ProjectReturn:
		out := make(map[string]any, len(req.Projection.Fields))
		for _, pf := range req.Projection.Fields {
			out[projectedName(pf)] = e.fieldValue(doc, pf.Identifier)
		}
		return out

	case ProjectLoad:
		return e.loadFields(doc, req)

	default: // ProjectAll
		def := e.handle.Def
		out := make(map[string]any, len(def.Fields))
		for i := range def.Fields {
			alias := def.Fields[i].Alias
			out[alias] = e.fieldValue(doc, alias)
		}
		return out
	}
}

// fieldValue reads alias's stored value for doc: the NumericIndex's
// cached double for NUMERIC fields, the field.Set's raw-value cache for
// everything else (VECTOR fields have no projectable scalar and come
// back null, matching the rest of this field type's unsupported-content
// surface).
func (e *Executor) fieldValue(doc DocID, alias string) any {
	spec, ok := e.handle.Def.ByAlias(alias)
	if !ok {
		return nil
	}
	if spec.Type == schema.FieldNumeric {
		if v, ok := e.handle.Set.Numeric(alias).Value(doc); ok {
			return v
		}
		return nil
	}
	if v, ok := e.handle.Set.SortValue(alias, doc); ok {
		return v
	}
	return nil
}

// loadFields re-reads the raw document via req.Loader rather than the
// cached index values (LOAD n field [AS alias] ...). Without a
// Loader every requested field projects as null.
func (e *Executor) loadFields(doc DocID, req Request) map[string]any {
	out := make(map[string]any, len(req.Projection.Fields))
	key, ok := e.handle.Indexer.DocKey(doc)
	if !ok || req.Loader == nil {
		for _, pf := range req.Projection.Fields {
			out[projectedName(pf)] = nil
		}
		return out
	}
	hashFields, jsonDoc, ok := req.Loader(key)
	if !ok {
		for _, pf := range req.Projection.Fields {
			out[projectedName(pf)] = nil
		}
		return out
	}
	for _, pf := range req.Projection.Fields {
		v, ok := indexer.LoadField(pf.Identifier, hashFields, jsonDoc)
		if !ok {
			out[projectedName(pf)] = nil
			continue
		}
		out[projectedName(pf)] = v
	}
	return out
}

func projectedName(pf ProjectField) string {
	if pf.As != "" {
		return pf.As
	}
	return pf.Identifier
}

// sortScore computes SerializedSearchDoc.SortScore for the SORTBY target,
//: a double for a NUMERIC field, the stringified value
// otherwise, nil if unset or no SORTBY was requested.
func (e *Executor) sortScore(doc DocID, sortBy *SortSpec) any {
	if sortBy == nil {
		return nil
	}
	return e.fieldValue(doc, sortBy.Field)
}

// injectKNNScore writes the KNN distance into fields under alias when
// that alias is among the fields this request actually projects (:
// "If the KNN score field alias is in the return set, its distance is
// injected into the doc's values before reply"). ProjectAll's return set
// is every schema field, which never includes the synthetic score alias,
// so only ProjectReturn/ProjectLoad requests that explicitly named it
// receive the injection.
func injectKNNScore(fields map[string]any, req Request, alias string, distance float32) {
	if fields == nil {
		return
	}
	for _, pf := range req.Projection.Fields {
		if projectedName(pf) == alias {
			fields[alias] = float64(distance)
			return
		}
	}
}
