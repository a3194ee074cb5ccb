package slots

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// TotalSlots is the number of tiered slots (ids 0 to TotalSlots-1).
	TotalSlots = 200
	// SoldSlots is the number of slots reserved for sold vehicles (v1-v10).
	SoldSlots = 10

	// PremiumThreshold is the exclusive lower price bound of the premium tier.
	PremiumThreshold = 3000.0
	// MiddenThreshold is the inclusive lower price bound of the midden tier.
	MiddenThreshold = 1500.0
)

// TierName identifies one of the three price bands.
type TierName string

const (
	TierPremium TierName = "premium"
	TierMidden  TierName = "midden"
	TierBudget  TierName = "budget"
)

// Tier is one contiguous band of tiered slots. First and Last are inclusive
// slot id bounds.
type Tier struct {
	Name  TierName
	First int
	Last  int
}

// Capacity returns the number of slots in the tier.
func (t Tier) Capacity() int {
	return t.Last - t.First + 1
}

// Contains reports whether the slot id falls inside the tier.
func (t Tier) Contains(slot int) bool {
	return slot >= t.First && slot <= t.Last
}

// Tiers is the ordered table of tier definitions, evaluated top-down by
// TierFor. The ranges partition 0..TotalSlots-1 exactly.
var Tiers = []Tier{
	{Name: TierPremium, First: 0, Last: 49},
	{Name: TierMidden, First: 50, Last: 99},
	{Name: TierBudget, First: 100, Last: 199},
}

// TierFor returns the tier matching a purchase price. A price of exactly
// 3000 falls in midden, exactly 1500 falls in midden, anything above 3000
// is premium and anything below 1500 is budget.
func TierFor(price float64) Tier {
	switch {
	case price > PremiumThreshold:
		return Tiers[0]
	case price >= MiddenThreshold:
		return Tiers[1]
	default:
		return Tiers[2]
	}
}

// TierOf returns the tier containing the given slot id.
func TierOf(slot int) (Tier, bool) {
	for _, t := range Tiers {
		if t.Contains(slot) {
			return t, true
		}
	}
	return Tier{}, false
}

// TierByName resolves a tier name (case-insensitive). Used to parse the
// tier filter of listing operations.
func TierByName(name string) (Tier, bool) {
	for _, t := range Tiers {
		if strings.EqualFold(string(t.Name), name) {
			return t, true
		}
	}
	return Tier{}, false
}

// CapacityError reports that every slot in a pool is occupied. It is a
// hard failure: assignment never overflows into an adjacent tier.
type CapacityError struct {
	// Pool is the tier name, or "sold" for the sold-vehicle pool.
	Pool string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("no free slot in %s pool", e.Pool)
}

// Choose returns the lowest-numbered free slot in the tier matching price.
// occupied reports which tiered slot ids are currently taken. Choose is
// pure: it never mutates the occupancy view.
func Choose(price float64, occupied map[int]bool) (int, error) {
	tier := TierFor(price)
	for slot := tier.First; slot <= tier.Last; slot++ {
		if !occupied[slot] {
			return slot, nil
		}
	}
	return 0, &CapacityError{Pool: string(tier.Name)}
}

// ChooseSold returns the lowest free sold-pool index (0-based). occupied
// must have length SoldSlots.
func ChooseSold(occupied []bool) (int, error) {
	for i := 0; i < SoldSlots && i < len(occupied); i++ {
		if !occupied[i] {
			return i, nil
		}
	}
	return 0, &CapacityError{Pool: "sold"}
}

// SoldSlotName formats a 0-based sold-pool index as its slot token (v1-v10).
func SoldSlotName(index int) string {
	return fmt.Sprintf("v%d", index+1)
}

// ParseSoldSlot parses a sold-slot token back to its 0-based index.
func ParseSoldSlot(token string) (int, bool) {
	rest, ok := strings.CutPrefix(token, "v")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > SoldSlots {
		return 0, false
	}
	return n - 1, true
}
