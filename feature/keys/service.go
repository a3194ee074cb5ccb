package keys

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"key-manager/feature/autoflex"
	"key-manager/feature/keys/history"
	"key-manager/feature/keys/reconcile"
	"key-manager/feature/keys/registry"
	"key-manager/feature/keys/slots"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidInput marks malformed collaborator input (plate or price).
// Validation failures never surface as domain errors.
var ErrInvalidInput = errors.New("invalid input")

// maxPlateLength bounds the normalized plate key; Dutch plates are 6
// characters, leave headroom for foreign formats.
const maxPlateLength = 16

// SyncStatus captures the outcome of the most recent sync run.
type SyncStatus struct {
	At     time.Time         `json:"at"`
	Report *reconcile.Report `json:"report,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// SystemStatus is the overall state exposed on the status endpoint.
type SystemStatus struct {
	registry.Summary
	HistoryEnabled bool        `json:"history_enabled"`
	LastSync       *SyncStatus `json:"last_sync,omitempty"`
}

// Service orchestrates the registry, the external inventory source and the
// movement log.
type Service struct {
	registry *registry.Registry
	client   autoflex.Client
	recorder *history.Recorder
	logger   *zap.Logger

	// sf collapses concurrent sync triggers into one fetch+reconcile.
	sf singleflight.Group

	mu       sync.Mutex
	lastSync *SyncStatus
}

// NewService creates the key management service.
func NewService(reg *registry.Registry, client autoflex.Client, recorder *history.Recorder, logger *zap.Logger) *Service {
	return &Service{
		registry: reg,
		client:   client,
		recorder: recorder,
		logger:   logger,
	}
}

// AddVehicle registers a vehicle manually and assigns it a tiered slot.
func (s *Service) AddVehicle(plate string, price float64) (registry.Assignment, error) {
	if err := validatePlate(plate); err != nil {
		return registry.Assignment{}, err
	}
	if err := validatePrice(price); err != nil {
		return registry.Assignment{}, err
	}

	assignment, err := s.registry.Add(plate, price)
	if err != nil {
		return registry.Assignment{}, err
	}

	s.recorder.Record(history.KeyEvent{
		Plate:  assignment.Plate,
		Action: history.ActionAssigned,
		Slot:   strconv.Itoa(assignment.Slot),
		Price:  assignment.PurchasePrice,
	})
	s.logger.Info("Vehicle assigned",
		zap.String("plate", assignment.Plate),
		zap.Int("slot", assignment.Slot),
		zap.Float64("price", assignment.PurchasePrice),
	)
	return assignment, nil
}

// FindVehicle looks a vehicle up by plate, in either pool.
func (s *Service) FindVehicle(plate string) (registry.Vehicle, error) {
	if err := validatePlate(plate); err != nil {
		return registry.Vehicle{}, err
	}
	return s.registry.Find(plate)
}

// SellVehicle moves a vehicle to the sold pool and records the sale price.
func (s *Service) SellVehicle(plate string, soldPrice float64) (registry.SoldVehicle, error) {
	if err := validatePlate(plate); err != nil {
		return registry.SoldVehicle{}, err
	}
	if err := validatePrice(soldPrice); err != nil {
		return registry.SoldVehicle{}, err
	}

	sold, err := s.registry.Sell(plate, soldPrice)
	if err != nil {
		return registry.SoldVehicle{}, err
	}

	s.recorder.Record(history.KeyEvent{
		Plate:  sold.Plate,
		Action: history.ActionSold,
		Slot:   sold.SoldSlot,
		Price:  sold.SoldPrice,
		Detail: fmt.Sprintf("was slot %d", sold.OriginalSlot),
	})
	s.logger.Info("Vehicle sold",
		zap.String("plate", sold.Plate),
		zap.String("sold_slot", sold.SoldSlot),
		zap.Int("original_slot", sold.OriginalSlot),
	)
	return sold, nil
}

// CompleteHandover hands the key to the buyer and removes the vehicle.
func (s *Service) CompleteHandover(plate string) error {
	if err := validatePlate(plate); err != nil {
		return err
	}

	vehicle, err := s.registry.Find(plate)
	if err != nil {
		return err
	}
	if err := s.registry.CompleteHandover(plate); err != nil {
		return err
	}

	s.recorder.Record(history.KeyEvent{
		Plate:  vehicle.Plate,
		Action: history.ActionHandedOver,
		Slot:   vehicle.SoldSlot,
	})
	s.logger.Info("Handover completed", zap.String("plate", vehicle.Plate))
	return nil
}

// RemoveVehicle administratively removes a vehicle from any state.
func (s *Service) RemoveVehicle(plate string) error {
	if err := validatePlate(plate); err != nil {
		return err
	}
	if err := s.registry.Remove(plate); err != nil {
		return err
	}

	s.recorder.Record(history.KeyEvent{
		Plate:  plate,
		Action: history.ActionRemoved,
	})
	s.logger.Info("Vehicle removed", zap.String("plate", plate))
	return nil
}

// ListSlots returns the slot overview, optionally filtered to one tier.
// An empty filter lists all 200 slots.
func (s *Service) ListSlots(tierFilter string) ([]registry.SlotView, error) {
	var filter slots.Tier
	if tierFilter != "" {
		tier, ok := slots.TierByName(tierFilter)
		if !ok {
			return nil, fmt.Errorf("unknown tier %q: %w", tierFilter, ErrInvalidInput)
		}
		filter = tier
	}
	return s.registry.ListSlots(filter), nil
}

// ListSold returns the sold vehicles awaiting handover, in slot order.
func (s *Service) ListSold() []registry.SoldVehicle {
	return s.registry.ListSold()
}

// History returns the most recent key movements, newest first. It fails
// when the movement log is disabled.
func (s *Service) History(limit int) ([]history.KeyEvent, error) {
	if !s.recorder.Enabled() {
		return nil, fmt.Errorf("movement history is disabled: %w", registry.ErrNotFound)
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.recorder.Recent(limit)
}

// Status returns the system status including the last sync outcome.
func (s *Service) Status() SystemStatus {
	s.mu.Lock()
	lastSync := s.lastSync
	s.mu.Unlock()

	return SystemStatus{
		Summary:        s.registry.Summary(),
		HistoryEnabled: s.recorder.Enabled(),
		LastSync:       lastSync,
	}
}

// Sync fetches a snapshot from the external source and reconciles the
// registry against it. Concurrent calls share one run. The snapshot is
// fully fetched before any registry lock is taken, so a slow external call
// never stalls other operations.
func (s *Service) Sync(ctx context.Context) (reconcile.Report, error) {
	result, err, _ := s.sf.Do("sync", func() (any, error) {
		return s.syncOnce(ctx)
	})
	if err != nil {
		return reconcile.Report{}, err
	}
	return result.(reconcile.Report), nil
}

func (s *Service) syncOnce(ctx context.Context) (reconcile.Report, error) {
	snapshot, err := s.client.FetchSnapshot(ctx)
	if err != nil {
		s.setLastSync(&SyncStatus{At: time.Now(), Error: err.Error()})
		s.recorder.Record(history.KeyEvent{
			Action: history.ActionSyncFailed,
			Detail: err.Error(),
		})
		s.logger.Error("Sync failed", zap.Error(err))
		return reconcile.Report{}, err
	}

	report := s.registry.Reconcile(snapshot)
	summary := report.Summary()

	s.setLastSync(&SyncStatus{At: time.Now(), Report: &report})
	s.recorder.Record(history.KeyEvent{
		Action: history.ActionSync,
		Detail: fmt.Sprintf("total=%d added=%d removed=%d changed=%d failed=%d",
			summary.Total, summary.Added, summary.Removed, summary.Changed, summary.Failed),
	})
	s.logger.Info("Sync completed",
		zap.Int("total", summary.Total),
		zap.Int("added", summary.Added),
		zap.Int("removed", summary.Removed),
		zap.Int("changed", summary.Changed),
		zap.Int("failed", summary.Failed),
	)
	return report, nil
}

func (s *Service) setLastSync(status *SyncStatus) {
	s.mu.Lock()
	s.lastSync = status
	s.mu.Unlock()
}

// StartAutoSync runs Sync every interval until ctx is cancelled. Failures
// are logged and the loop keeps going.
func (s *Service) StartAutoSync(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sync(ctx); err != nil {
					s.logger.Warn("Auto-sync failed", zap.Error(err))
				}
			}
		}
	}()
}

func validatePlate(plate string) error {
	normalized := reconcile.NormalizePlate(plate)
	if normalized == "" {
		return fmt.Errorf("license plate %q is empty: %w", plate, ErrInvalidInput)
	}
	if len(normalized) > maxPlateLength {
		return fmt.Errorf("license plate %q is too long: %w", plate, ErrInvalidInput)
	}
	return nil
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return fmt.Errorf("price %v must be a non-negative number: %w", price, ErrInvalidInput)
	}
	return nil
}
