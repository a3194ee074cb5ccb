package reconcile

// Failure records one non-fatal per-vehicle reconciliation failure. A full
// tier during an add or a re-tier is collected here instead of aborting the
// run.
type Failure struct {
	Plate  string `json:"plate"`
	Action string `json:"action"` // "add" or "retier"
	Reason string `json:"reason"`
}

// Report summarizes one applied reconciliation run. Plate lists are ordered
// the way the diff was applied (normalized-plate lexicographic).
type Report struct {
	// Total is the number of snapshot entries reconciled against.
	Total   int       `json:"total"`
	Added   []string  `json:"added"`
	Removed []string  `json:"removed"`
	Changed []string  `json:"changed"`
	Failed  []Failure `json:"failed"`
}

// Summary provides aggregate counts for a report.
type Summary struct {
	Total   int `json:"total"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`
}

// Summary returns the aggregate counts of the report.
func (r Report) Summary() Summary {
	return Summary{
		Total:   r.Total,
		Added:   len(r.Added),
		Removed: len(r.Removed),
		Changed: len(r.Changed),
		Failed:  len(r.Failed),
	}
}

// Empty reports whether the run changed nothing and collected no failures.
// Reconciling twice against the same snapshot yields an empty second report.
func (r Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0 && len(r.Failed) == 0
}
