package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"key-manager/feature/keys/reconcile"
	"key-manager/feature/keys/slots"
)

var (
	// ErrAlreadyExists is returned when adding a plate already registered
	// in either pool.
	ErrAlreadyExists = errors.New("vehicle already registered")
	// ErrNotFound is returned when no vehicle matches the plate.
	ErrNotFound = errors.New("vehicle not found")
	// ErrInvalidState is returned when an operation is illegal for the
	// vehicle's current lifecycle state.
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// location points at the record of a registered vehicle: a tiered slot id,
// or a sold-pool index.
type location struct {
	sold  bool
	index int
}

// Registry is the owner of all vehicle records and slot occupancy. All
// mutations run under a single exclusive lock; reads observe a consistent
// snapshot under the shared lock. The zero value is not usable, call New.
type Registry struct {
	mu       sync.RWMutex
	assigned map[int]*Assignment
	sold     [slots.SoldSlots]*SoldVehicle
	plates   map[string]location

	now func() time.Time
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		assigned: make(map[int]*Assignment),
		plates:   make(map[string]location),
		now:      time.Now,
	}
}

// Add registers a new vehicle and assigns it to the lowest free slot of the
// tier matching its purchase price. It fails with ErrAlreadyExists for a
// duplicate plate and with slots.CapacityError when the tier is full; on
// failure nothing changes.
func (r *Registry) Add(plate string, price float64) (Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(plate, price)
}

func (r *Registry) add(plate string, price float64) (Assignment, error) {
	key := reconcile.NormalizePlate(plate)
	if _, exists := r.plates[key]; exists {
		return Assignment{}, fmt.Errorf("plate %s: %w", plate, ErrAlreadyExists)
	}

	slot, err := slots.Choose(price, r.occupiedTiered())
	if err != nil {
		return Assignment{}, err
	}
	if r.assigned[slot] != nil {
		// Choose picked an occupied slot: the mutation lock was bypassed.
		panic(fmt.Sprintf("registry: slot %d already occupied by %s", slot, r.assigned[slot].Plate))
	}

	record := &Assignment{
		Slot:          slot,
		Plate:         plate,
		PurchasePrice: price,
		AssignedAt:    r.now(),
	}
	r.assigned[slot] = record
	r.plates[key] = location{index: slot}
	return *record, nil
}

// Find returns the vehicle registered under the plate, in either pool.
func (r *Registry) Find(plate string) (Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, exists := r.plates[reconcile.NormalizePlate(plate)]
	if !exists {
		return Vehicle{}, fmt.Errorf("plate %s: %w", plate, ErrNotFound)
	}
	if loc.sold {
		return soldView(r.sold[loc.index]), nil
	}
	return assignmentView(r.assigned[loc.index]), nil
}

// Sell moves an assigned vehicle into the lowest free sold-pool slot,
// releasing its tiered slot. Only legal from the assigned state; a vehicle
// already sold fails with ErrInvalidState. With all ten sold slots taken it
// fails with slots.CapacityError and the vehicle keeps its tiered slot.
func (r *Registry) Sell(plate string, soldPrice float64) (SoldVehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reconcile.NormalizePlate(plate)
	loc, exists := r.plates[key]
	if !exists {
		return SoldVehicle{}, fmt.Errorf("plate %s: %w", plate, ErrNotFound)
	}
	if loc.sold {
		return SoldVehicle{}, fmt.Errorf("plate %s is already sold: %w", plate, ErrInvalidState)
	}

	idx, err := slots.ChooseSold(r.occupiedSold())
	if err != nil {
		return SoldVehicle{}, err
	}

	assignment := r.assigned[loc.index]
	record := &SoldVehicle{
		SoldIndex:     idx,
		SoldSlot:      slots.SoldSlotName(idx),
		Plate:         assignment.Plate,
		PurchasePrice: assignment.PurchasePrice,
		OriginalSlot:  assignment.Slot,
		SoldPrice:     soldPrice,
		AssignedAt:    assignment.AssignedAt,
		SoldAt:        r.now(),
	}

	r.sold[idx] = record
	delete(r.assigned, assignment.Slot)
	r.plates[key] = location{sold: true, index: idx}
	return *record, nil
}

// CompleteHandover releases the sold-pool slot and removes the vehicle
// entirely. Only legal from the sold state.
func (r *Registry) CompleteHandover(plate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reconcile.NormalizePlate(plate)
	loc, exists := r.plates[key]
	if !exists {
		return fmt.Errorf("plate %s: %w", plate, ErrNotFound)
	}
	if !loc.sold {
		return fmt.Errorf("plate %s is not sold: %w", plate, ErrInvalidState)
	}

	r.sold[loc.index] = nil
	delete(r.plates, key)
	return nil
}

// Remove deletes a vehicle from any state, releasing whichever slot it
// holds. Used administratively and by reconciliation when the external
// source no longer lists the vehicle.
func (r *Registry) Remove(plate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remove(plate)
}

func (r *Registry) remove(plate string) error {
	key := reconcile.NormalizePlate(plate)
	loc, exists := r.plates[key]
	if !exists {
		return fmt.Errorf("plate %s: %w", plate, ErrNotFound)
	}
	if loc.sold {
		r.sold[loc.index] = nil
	} else {
		delete(r.assigned, loc.index)
	}
	delete(r.plates, key)
	return nil
}

// ListSlots returns every slot of the given tier in ascending slot order,
// free slots included. A zero-value filter lists all 200 slots.
func (r *Registry) ListSlots(filter slots.Tier) []SlotView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	first, last := 0, slots.TotalSlots-1
	if filter.Capacity() > 0 {
		first, last = filter.First, filter.Last
	}

	views := make([]SlotView, 0, last-first+1)
	for slot := first; slot <= last; slot++ {
		view := SlotView{Slot: slot}
		if record := r.assigned[slot]; record != nil {
			copied := *record
			view.Vehicle = &copied
		}
		views = append(views, view)
	}
	return views
}

// ListSold returns the occupied sold-pool slots in slot order.
func (r *Registry) ListSold() []SoldVehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sold := make([]SoldVehicle, 0, slots.SoldSlots)
	for _, record := range r.sold {
		if record != nil {
			sold = append(sold, *record)
		}
	}
	return sold
}

// Assignments returns all tiered-slot assignments in ascending slot order.
func (r *Registry) Assignments() []Assignment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assignments := make([]Assignment, 0, len(r.assigned))
	for _, record := range r.assigned {
		assignments = append(assignments, *record)
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].Slot < assignments[j].Slot
	})
	return assignments
}

// Summary returns occupancy counts across both pools.
func (r *Registry) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	perTier := make(map[string]int, len(slots.Tiers))
	for _, tier := range slots.Tiers {
		perTier[string(tier.Name)] = 0
	}
	for slot := range r.assigned {
		if tier, ok := slots.TierOf(slot); ok {
			perTier[string(tier.Name)]++
		}
	}

	pending := 0
	for _, record := range r.sold {
		if record != nil {
			pending++
		}
	}

	return Summary{
		TotalSlots:      slots.TotalSlots,
		OccupiedSlots:   len(r.assigned),
		FreeSlots:       slots.TotalSlots - len(r.assigned),
		OccupiedPerTier: perTier,
		PendingHandover: pending,
		FreeSoldSlots:   slots.SoldSlots - pending,
	}
}

func (r *Registry) occupiedTiered() map[int]bool {
	occupied := make(map[int]bool, len(r.assigned))
	for slot := range r.assigned {
		occupied[slot] = true
	}
	return occupied
}

func (r *Registry) occupiedSold() []bool {
	occupied := make([]bool, slots.SoldSlots)
	for i, record := range r.sold {
		occupied[i] = record != nil
	}
	return occupied
}
