package registry

import (
	"fmt"

	"key-manager/feature/keys/reconcile"
	"key-manager/feature/keys/slots"
)

// Reconcile aligns the registry with an external inventory snapshot and
// returns a report of everything it did. The whole run executes under the
// mutation lock: callers must fetch the snapshot beforehand.
//
// Sold and handed-over vehicles are no longer dealer-held inventory and are
// excluded from the comparison. Per-vehicle capacity failures are collected
// in the report, never fatal; a vehicle whose re-tier target is full keeps
// its old slot and recorded price so the next run retries. Reconciling
// twice against an unchanged snapshot yields an empty second report.
func (r *Registry) Reconcile(snapshot []reconcile.ExternalVehicle) reconcile.Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := make(map[string]reconcile.CurrentVehicle, len(r.assigned))
	for _, record := range r.assigned {
		current[reconcile.NormalizePlate(record.Plate)] = reconcile.CurrentVehicle{
			Plate:         record.Plate,
			PurchasePrice: record.PurchasePrice,
			Slot:          record.Slot,
		}
	}

	external := make(map[string]reconcile.ExternalVehicle, len(snapshot))
	for _, entry := range snapshot {
		key := reconcile.NormalizePlate(entry.Plate)
		if key == "" {
			continue
		}
		// Skip entries whose plate collides with a sold vehicle: the
		// vehicle is already out of reconciliation scope.
		if loc, exists := r.plates[key]; exists && loc.sold {
			continue
		}
		external[key] = entry
	}

	diff := reconcile.Compute(current, external)
	report := reconcile.Report{Total: len(external)}

	for _, entry := range diff.New {
		if _, err := r.add(entry.Plate, entry.PurchasePrice); err != nil {
			report.Failed = append(report.Failed, reconcile.Failure{
				Plate:  entry.Plate,
				Action: "add",
				Reason: err.Error(),
			})
			continue
		}
		report.Added = append(report.Added, entry.Plate)
	}

	for _, plate := range diff.Removed {
		if err := r.remove(plate); err != nil {
			// Unreachable while the lock is held; surfaced for safety.
			report.Failed = append(report.Failed, reconcile.Failure{
				Plate:  plate,
				Action: "remove",
				Reason: err.Error(),
			})
			continue
		}
		report.Removed = append(report.Removed, plate)
	}

	for _, change := range diff.Changed {
		if err := r.retier(change); err != nil {
			report.Failed = append(report.Failed, reconcile.Failure{
				Plate:  change.Plate,
				Action: "retier",
				Reason: err.Error(),
			})
			continue
		}
		report.Changed = append(report.Changed, change.Plate)
	}

	return report
}

// retier applies one external price change. Within the same tier only the
// recorded price moves; across tiers the old slot is released and the
// strategy picks a new one. On capacity failure nothing changes.
func (r *Registry) retier(change reconcile.PriceChange) error {
	record := r.assigned[change.Slot]
	if record == nil {
		panic(fmt.Sprintf("registry: retier of unoccupied slot %d", change.Slot))
	}

	currentTier, ok := slots.TierOf(record.Slot)
	if !ok {
		panic(fmt.Sprintf("registry: slot %d outside slot space", record.Slot))
	}
	if slots.TierFor(change.NewPrice).Name == currentTier.Name {
		record.PurchasePrice = change.NewPrice
		return nil
	}

	occupied := r.occupiedTiered()
	delete(occupied, record.Slot)
	newSlot, err := slots.Choose(change.NewPrice, occupied)
	if err != nil {
		return err
	}

	delete(r.assigned, record.Slot)
	record.Slot = newSlot
	record.PurchasePrice = change.NewPrice
	record.AssignedAt = r.now()
	r.assigned[newSlot] = record
	r.plates[reconcile.NormalizePlate(record.Plate)] = location{index: newSlot}
	return nil
}
