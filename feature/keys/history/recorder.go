package history

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actions recorded in the movement log.
const (
	ActionAssigned   = "assigned"
	ActionSold       = "sold"
	ActionHandedOver = "handed_over"
	ActionRemoved    = "removed"
	ActionSync       = "sync"
	ActionSyncFailed = "sync_failed"
)

// KeyEvent is one recorded key movement.
type KeyEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Plate     string    `gorm:"size:16;index" json:"license_plate"`
	Action    string    `gorm:"size:32" json:"action"`
	Slot      string    `gorm:"size:8" json:"slot"`
	Price     float64   `json:"price"`
	Detail    string    `gorm:"size:255" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the movement log table name.
func (KeyEvent) TableName() string {
	return "key_events"
}

// Recorder appends key movements to the database. A nil database disables
// recording entirely.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecorder prepares the movement log schema and returns a recorder.
// Passing a nil database yields a disabled recorder.
func NewRecorder(db *gorm.DB, logger *zap.Logger) (*Recorder, error) {
	if db != nil {
		if err := db.AutoMigrate(&KeyEvent{}); err != nil {
			return nil, err
		}
	}
	return &Recorder{db: db, logger: logger}, nil
}

// Enabled reports whether movements are being persisted.
func (r *Recorder) Enabled() bool {
	return r.db != nil
}

// Record appends one event. Failures are logged, never propagated: the log
// must not interfere with registry operations.
func (r *Recorder) Record(event KeyEvent) {
	if r.db == nil {
		return
	}
	if err := r.db.Create(&event).Error; err != nil {
		r.logger.Warn("Failed to record key event",
			zap.String("action", event.Action),
			zap.String("plate", event.Plate),
			zap.Error(err),
		)
	}
}

// Recent returns the latest events, newest first.
func (r *Recorder) Recent(limit int) ([]KeyEvent, error) {
	if r.db == nil {
		return nil, nil
	}
	var events []KeyEvent
	err := r.db.Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}
