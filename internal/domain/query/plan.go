package query

// Plan describes one hybrid vector search round trip. The planner fills it,
// the store adapter translates it into the backend's staged pipeline. Built
// fresh per call; never persisted.
type Plan struct {
	Vector  []float32
	Filters Filters
	Sort    *Sort

	// Limit is the caller-requested result count. Fetch is the over-fetched
	// vector stage limit (larger when an explicit sort needs candidates to
	// sort exactly); Candidates is the approximate-search pool size.
	Limit      int
	Fetch      int
	Candidates int

	// ScoreFloor drops weak matches when > 0. The planner leaves it at zero
	// when an explicit sort is present.
	ScoreFloor float64

	// SkipPreFilter disables the filter attached to the vector stage and
	// applies the complete filter set as a match stage immediately after it.
	// Set on the one retry after the index rejects a pre-filter field.
	SkipPreFilter bool
}
