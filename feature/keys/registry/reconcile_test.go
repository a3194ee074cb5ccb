package registry_test

import (
	"fmt"
	"testing"

	"key-manager/feature/keys/reconcile"
	"key-manager/feature/keys/registry"
	"key-manager/feature/keys/slots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_Determinism(t *testing.T) {
	reg := registry.New()

	// Deliberately unsorted: processing order is plate-lexicographic.
	report := reg.Reconcile([]reconcile.ExternalVehicle{
		{Plate: "C", PurchasePrice: 100},
		{Plate: "A", PurchasePrice: 5000},
		{Plate: "B", PurchasePrice: 2000},
	})

	assert.Equal(t, []string{"A", "B", "C"}, report.Added)
	assert.Empty(t, report.Removed)
	assert.Empty(t, report.Changed)
	assert.Empty(t, report.Failed)

	for plate, slot := range map[string]int{"A": 0, "B": 50, "C": 100} {
		v, err := reg.Find(plate)
		require.NoError(t, err)
		assert.Equal(t, slot, v.Slot, plate)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	reg := registry.New()
	snapshot := []reconcile.ExternalVehicle{
		{Plate: "ID-001", PurchasePrice: 4000},
		{Plate: "ID-002", PurchasePrice: 2000},
		{Plate: "ID-003", PurchasePrice: 700},
	}

	first := reg.Reconcile(snapshot)
	assert.Len(t, first.Added, 3)

	second := reg.Reconcile(snapshot)
	assert.True(t, second.Empty(), "second run against unchanged snapshot: %+v", second)
	assert.Equal(t, 3, second.Total)
}

func TestReconcile_RemovesMissingVehicles(t *testing.T) {
	reg := registry.New()

	_, err := reg.Add("RC-KEEP", 2000)
	require.NoError(t, err)
	_, err = reg.Add("RC-GONE", 800)
	require.NoError(t, err)

	report := reg.Reconcile([]reconcile.ExternalVehicle{
		{Plate: "RC-KEEP", PurchasePrice: 2000},
	})

	assert.Equal(t, []string{"RC-GONE"}, report.Removed)
	_, err = reg.Find("RC-GONE")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	_, err = reg.Find("RC-KEEP")
	assert.NoError(t, err)
}

func TestReconcile_RetierOnTierChange(t *testing.T) {
	reg := registry.New()

	_, err := reg.Add("RT-001", 2000) // midden, slot 50
	require.NoError(t, err)

	report := reg.Reconcile([]reconcile.ExternalVehicle{
		{Plate: "RT-001", PurchasePrice: 5000},
	})

	assert.Equal(t, []string{"RT-001"}, report.Changed)
	v, err := reg.Find("RT-001")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Slot)
	assert.Equal(t, 5000.0, v.PurchasePrice)

	// Old midden slot released.
	a, err := reg.Add("RT-002", 2000)
	require.NoError(t, err)
	assert.Equal(t, 50, a.Slot)
}

func TestReconcile_PriceChangeWithinTierKeepsSlot(t *testing.T) {
	reg := registry.New()

	_, err := reg.Add("PC-001", 1600)
	require.NoError(t, err)

	report := reg.Reconcile([]reconcile.ExternalVehicle{
		{Plate: "PC-001", PurchasePrice: 2900},
	})
	assert.Equal(t, []string{"PC-001"}, report.Changed)

	v, err := reg.Find("PC-001")
	require.NoError(t, err)
	assert.Equal(t, 50, v.Slot)
	assert.Equal(t, 2900.0, v.PurchasePrice)

	// Applied price change makes the next run a no-op.
	second := reg.Reconcile([]reconcile.ExternalVehicle{
		{Plate: "PC-001", PurchasePrice: 2900},
	})
	assert.True(t, second.Empty())
}

func TestReconcile_RetierCapacityFailureKeepsOldSlot(t *testing.T) {
	reg := registry.New()

	premium := slots.Tiers[0]
	snapshot := make([]reconcile.ExternalVehicle, 0, premium.Capacity()+1)
	for i := 0; i < premium.Capacity(); i++ {
		plate := fmt.Sprintf("PF-%03d", i)
		_, err := reg.Add(plate, 5000)
		require.NoError(t, err)
		snapshot = append(snapshot, reconcile.ExternalVehicle{Plate: plate, PurchasePrice: 5000})
	}

	_, err := reg.Add("PF-UP", 2000) // midden, slot 50
	require.NoError(t, err)
	snapshot = append(snapshot, reconcile.ExternalVehicle{Plate: "PF-UP", PurchasePrice: 9000})

	report := reg.Reconcile(snapshot)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "PF-UP", report.Failed[0].Plate)
	assert.Equal(t, "retier", report.Failed[0].Action)
	assert.Empty(t, report.Changed)

	// Vehicle keeps old slot and old recorded price, so a later run with
	// freed premium capacity retries the move.
	v, err := reg.Find("PF-UP")
	require.NoError(t, err)
	assert.Equal(t, 50, v.Slot)
	assert.Equal(t, 2000.0, v.PurchasePrice)

	require.NoError(t, reg.Remove("PF-000"))
	snapshot = snapshot[1:] // drop PF-000
	second := reg.Reconcile(snapshot)
	assert.Equal(t, []string{"PF-UP"}, second.Changed)
	v, err = reg.Find("PF-UP")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Slot)
}

func TestReconcile_AddCapacityFailureCollected(t *testing.T) {
	reg := registry.New()

	budget := slots.Tiers[2]
	snapshot := make([]reconcile.ExternalVehicle, 0, budget.Capacity()+1)
	for i := 0; i <= budget.Capacity(); i++ {
		snapshot = append(snapshot, reconcile.ExternalVehicle{
			Plate:         fmt.Sprintf("AF-%03d", i),
			PurchasePrice: 400,
		})
	}

	report := reg.Reconcile(snapshot)

	assert.Len(t, report.Added, budget.Capacity())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "AF-100", report.Failed[0].Plate)
	assert.Equal(t, "add", report.Failed[0].Action)
	assert.Equal(t, budget.Capacity(), reg.Summary().OccupiedSlots)
}

func TestReconcile_IgnoresSoldVehicles(t *testing.T) {
	reg := registry.New()

	_, err := reg.Add("SV-001", 2000)
	require.NoError(t, err)
	_, err = reg.Sell("SV-001", 2200)
	require.NoError(t, err)

	// Sold vehicle absent from the snapshot: not removed. Present in the
	// snapshot: not re-added.
	report := reg.Reconcile(nil)
	assert.True(t, report.Empty())

	report = reg.Reconcile([]reconcile.ExternalVehicle{
		{Plate: "SV-001", PurchasePrice: 2000},
	})
	assert.True(t, report.Empty())

	v, err := reg.Find("SV-001")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusSold, v.Status)
}

func TestReconcile_DuplicatePlatesLastWins(t *testing.T) {
	reg := registry.New()

	report := reg.Reconcile([]reconcile.ExternalVehicle{
		{Plate: "DP-001", PurchasePrice: 800},
		{Plate: "dp 001", PurchasePrice: 5000},
	})

	assert.Equal(t, 1, report.Total)
	require.Len(t, report.Added, 1)
	v, err := reg.Find("DP-001")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, v.PurchasePrice)
	assert.Equal(t, 0, v.Slot)
}
