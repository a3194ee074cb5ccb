package registry

import (
	"time"

	"key-manager/feature/keys/slots"
)

// Status is the lifecycle state of a registered vehicle. Handover is
// terminal and not a stored status: the record is removed.
type Status string

const (
	StatusAssigned Status = "assigned"
	StatusSold     Status = "sold"
)

// Assignment is a vehicle occupying one tiered slot.
type Assignment struct {
	Slot          int       `json:"slot"`
	Plate         string    `json:"license_plate"`
	PurchasePrice float64   `json:"purchase_price"`
	AssignedAt    time.Time `json:"assigned_at"`
}

// SoldVehicle is a sold vehicle occupying one sold-pool slot awaiting key
// handover. Its former tiered slot was released at the moment of sale.
type SoldVehicle struct {
	SoldIndex     int       `json:"-"`
	SoldSlot      string    `json:"sold_slot"`
	Plate         string    `json:"license_plate"`
	PurchasePrice float64   `json:"purchase_price"`
	OriginalSlot  int       `json:"original_slot"`
	SoldPrice     float64   `json:"sold_price"`
	AssignedAt    time.Time `json:"assigned_at"`
	SoldAt        time.Time `json:"sold_at"`
}

// Vehicle is a read-only view of a registered vehicle in either pool.
type Vehicle struct {
	Plate         string    `json:"license_plate"`
	PurchasePrice float64   `json:"purchase_price"`
	Status        Status    `json:"status"`
	// Slot is the occupied tiered slot while assigned, or the formerly
	// occupied one after the sale.
	Slot       int       `json:"slot"`
	SoldSlot   string    `json:"sold_slot,omitempty"`
	SoldPrice  float64   `json:"sold_price,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
	SoldAt     time.Time `json:"sold_at,omitzero"`
}

// SlotView pairs a tiered slot id with its occupant, if any.
type SlotView struct {
	Slot    int         `json:"slot"`
	Vehicle *Assignment `json:"vehicle,omitempty"`
}

// Summary holds occupancy counts across both pools.
type Summary struct {
	TotalSlots      int            `json:"total_slots"`
	OccupiedSlots   int            `json:"occupied_slots"`
	FreeSlots       int            `json:"free_slots"`
	OccupiedPerTier map[string]int `json:"occupied_per_tier"`
	PendingHandover int            `json:"pending_handover"`
	FreeSoldSlots   int            `json:"free_sold_slots"`
}

func assignmentView(a *Assignment) Vehicle {
	return Vehicle{
		Plate:         a.Plate,
		PurchasePrice: a.PurchasePrice,
		Status:        StatusAssigned,
		Slot:          a.Slot,
		AssignedAt:    a.AssignedAt,
	}
}

func soldView(s *SoldVehicle) Vehicle {
	return Vehicle{
		Plate:         s.Plate,
		PurchasePrice: s.PurchasePrice,
		Status:        StatusSold,
		Slot:          s.OriginalSlot,
		SoldSlot:      slots.SoldSlotName(s.SoldIndex),
		SoldPrice:     s.SoldPrice,
		AssignedAt:    s.AssignedAt,
		SoldAt:        s.SoldAt,
	}
}
