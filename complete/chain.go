package complete

// ChainResult is the outcome of walking relationship segments.
type ChainResult struct {
	// Object is the last object the walk reached.
	Object string
	// Hops counts the segments that were resolved.
	Hops int
	// Missing lists objects whose schema the walk needed but did not have.
	Missing []string
}

// WalkRelationships follows relationship segments from start. Each segment
// must be the exact relationship name of a reference field with a single
// target. The walk stops at the first segment it cannot follow, including
// polymorphic references, and at the first object without a schema.
func WalkRelationships(start string, segments []string, catalog Catalog) ChainResult {
	res := ChainResult{Object: start}

	for _, seg := range segments {
		schema, ok := catalog.Schema(res.Object)
		if !ok {
			res.Missing = appendUnique(res.Missing, res.Object)

			return res
		}

		field, ok := schema.FieldByRelationship(seg)
		if !ok || len(field.ReferenceTo) != 1 {
			return res
		}

		res.Object = field.ReferenceTo[0]
		res.Hops++
	}

	if _, ok := catalog.Schema(res.Object); !ok && res.Hops > 0 {
		res.Missing = appendUnique(res.Missing, res.Object)
	}

	return res
}
