package keys

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"key-manager/feature/autoflex"
	"key-manager/feature/autoflex/mocks"
	"key-manager/feature/keys/history"
	"key-manager/feature/keys/reconcile"
	"key-manager/feature/keys/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) (*Service, *mocks.Client) {
	t.Helper()
	client := new(mocks.Client)
	recorder, err := history.NewRecorder(nil, zap.NewNop())
	require.NoError(t, err)
	return NewService(registry.New(), client, recorder, zap.NewNop()), client
}

func TestAddVehicle_Validation(t *testing.T) {
	svc, _ := setupService(t)

	tests := []struct {
		name  string
		plate string
		price float64
	}{
		{"empty plate", "", 2000},
		{"whitespace plate", "  - -", 2000},
		{"overlong plate", "AB-123-CD-456-EF-789", 2000},
		{"negative price", "AB-123-CD", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddVehicle(tt.plate, tt.price)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	// Nothing was registered.
	assert.Equal(t, 0, svc.Status().OccupiedSlots)
}

func TestAddVehicle_RegistersAndFinds(t *testing.T) {
	svc, _ := setupService(t)

	assignment, err := svc.AddVehicle("ab-123-cd", 2500)
	require.NoError(t, err)
	assert.Equal(t, "ab-123-cd", assignment.Plate)
	assert.Equal(t, 50, assignment.Slot)

	vehicle, err := svc.FindVehicle("AB 123 CD")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusAssigned, vehicle.Status)
}

func TestSellVehicle_Validation(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.AddVehicle("AB-123-CD", 2000)
	require.NoError(t, err)

	_, err = svc.SellVehicle("AB-123-CD", -5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	sold, err := svc.SellVehicle("AB-123-CD", 2750)
	require.NoError(t, err)
	assert.Equal(t, "v1", sold.SoldSlot)
}

func TestListSlots_TierFilter(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.AddVehicle("AB-123-CD", 5000)
	require.NoError(t, err)

	views, err := svc.ListSlots("premium")
	require.NoError(t, err)
	assert.Len(t, views, 50)
	require.NotNil(t, views[0].Vehicle)
	assert.Equal(t, "AB-123-CD", views[0].Vehicle.Plate)

	all, err := svc.ListSlots("")
	require.NoError(t, err)
	assert.Len(t, all, 200)

	_, err = svc.ListSlots("luxury")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSync_Reconciles(t *testing.T) {
	svc, client := setupService(t)
	_, err := svc.AddVehicle("GONE-01", 2000)
	require.NoError(t, err)

	client.On("FetchSnapshot", mock.Anything).Return([]reconcile.ExternalVehicle{
		{Plate: "NEW01", PurchasePrice: 5000},
	}, nil)

	report, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW01"}, report.Added)
	assert.Equal(t, []string{"GONE-01"}, report.Removed)
	assert.Equal(t, 1, report.Total)

	status := svc.Status()
	require.NotNil(t, status.LastSync)
	assert.Empty(t, status.LastSync.Error)
	require.NotNil(t, status.LastSync.Report)
	assert.Equal(t, 1, status.LastSync.Report.Summary().Added)
}

func TestSync_Unavailable(t *testing.T) {
	svc, client := setupService(t)
	_, err := svc.AddVehicle("AB-123-CD", 2000)
	require.NoError(t, err)

	client.On("FetchSnapshot", mock.Anything).Return(nil, autoflex.ErrSyncUnavailable)

	_, err = svc.Sync(context.Background())
	assert.ErrorIs(t, err, autoflex.ErrSyncUnavailable)

	// Registry untouched, failure visible in the status.
	assert.Equal(t, 1, svc.Status().OccupiedSlots)
	status := svc.Status()
	require.NotNil(t, status.LastSync)
	assert.NotEmpty(t, status.LastSync.Error)
	assert.Nil(t, status.LastSync.Report)
}

func TestSync_ConcurrentCallsShareOneRun(t *testing.T) {
	svc, client := setupService(t)

	release := make(chan struct{})
	var fetches int32
	client.On("FetchSnapshot", mock.Anything).
		Run(func(mock.Arguments) {
			atomic.AddInt32(&fetches, 1)
			<-release
		}).
		Return([]reconcile.ExternalVehicle{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Sync(context.Background())
			assert.NoError(t, err)
		}()
	}

	// Let both callers reach the dedup gate before the fetch completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&fetches))
}

func TestHistory_Disabled(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.History(10)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestStatus_Initial(t *testing.T) {
	svc, _ := setupService(t)

	status := svc.Status()
	assert.Equal(t, 200, status.TotalSlots)
	assert.Equal(t, 200, status.FreeSlots)
	assert.False(t, status.HistoryEnabled)
	assert.Nil(t, status.LastSync)
}
