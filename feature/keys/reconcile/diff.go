package reconcile

import (
	"sort"
	"strings"
)

// ExternalVehicle is one entry of the external inventory snapshot.
type ExternalVehicle struct {
	Plate         string
	PurchasePrice float64
}

// CurrentVehicle is the registry's view of one vehicle occupying a tiered
// slot, as supplied to Compute.
type CurrentVehicle struct {
	Plate         string
	PurchasePrice float64
	Slot          int
}

// PriceChange pairs a registered vehicle with the price reported externally.
type PriceChange struct {
	Plate    string
	Slot     int
	OldPrice float64
	NewPrice float64
}

// Diff is the set of operations needed to align the registry with a
// snapshot. Each slice is ordered by normalized plate so that applying a
// diff is deterministic.
type Diff struct {
	// New holds snapshot entries with no matching registry record.
	New []ExternalVehicle
	// Removed holds plates of assigned vehicles absent from the snapshot.
	Removed []string
	// Changed holds vehicles present on both sides whose price differs.
	Changed []PriceChange
}

// Empty reports whether the diff requires no work.
func (d Diff) Empty() bool {
	return len(d.New) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// NormalizePlate reduces a license plate to its comparison key: uppercase
// with spaces and dashes removed. "ab-123-cd" and "AB 123 CD" identify the
// same vehicle.
func NormalizePlate(plate string) string {
	normalized := strings.ToUpper(plate)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	return normalized
}

// Compute returns the diff between the registry view and an external
// snapshot. Both maps are keyed by normalized plate. Compute never mutates
// its inputs.
func Compute(current map[string]CurrentVehicle, snapshot map[string]ExternalVehicle) Diff {
	var diff Diff

	for _, key := range sortedKeys(snapshot) {
		ext := snapshot[key]
		cur, ok := current[key]
		if !ok {
			diff.New = append(diff.New, ext)
			continue
		}
		if cur.PurchasePrice != ext.PurchasePrice {
			diff.Changed = append(diff.Changed, PriceChange{
				Plate:    cur.Plate,
				Slot:     cur.Slot,
				OldPrice: cur.PurchasePrice,
				NewPrice: ext.PurchasePrice,
			})
		}
	}

	for _, key := range sortedKeys(current) {
		if _, ok := snapshot[key]; !ok {
			diff.Removed = append(diff.Removed, current[key].Plate)
		}
	}

	return diff
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
