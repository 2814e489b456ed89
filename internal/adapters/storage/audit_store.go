// Package storage persists a historical audit trail of recognizer events
// to SQLite via GORM. This is not recognizer state: the recognizer's
// target/client registries always start empty on process start, exactly as
// before; the audit trail only ever accumulates a record of what happened
// for later inspection (the web dashboard and the PDF report both read it).
package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/zizzania-go/zizzaniad/internal/core/domain"
)

// EventModel is one row of the handshake_events audit table: a durable
// record of a NEW_CLIENT or HANDSHAKE lifecycle event. EventID is a
// client-assigned UUID rather than the autoincrement ID, so the PDF report
// and dashboard can cite a stable identifier across exports.
type EventModel struct {
	ID        uint `gorm:"primarykey"`
	EventID   string `gorm:"index"`
	CreatedAt time.Time
	Action    string `gorm:"index"`
	BSSID     string `gorm:"index"`
	Client    string `gorm:"index"`
}

// TableName maps EventModel to the handshake_events table.
func (EventModel) TableName() string {
	return "handshake_events"
}

// AuditStore wraps a GORM SQLite connection scoped to the handshake_events
// table.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore opens (creating if needed) the SQLite database at path and
// migrates the event schema.
func NewAuditStore(path string) (*AuditStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&EventModel{}); err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// WAL allows the web dashboard to read concurrently with the single
	// frame-processing goroutine's writes.
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	db.Exec("PRAGMA synchronous=NORMAL;")

	return &AuditStore{db: db}, nil
}

// RecordEvent appends one lifecycle event to the audit trail. internal/app
// wires it as a dispatcher.DispatcherFunc observer, never as the primary
// dispatcher, so a failing database never halts handshake recognition. The
// insert runs synchronously on the caller's goroutine, so a slow database
// does delay the frame that triggered the event.
func (s *AuditStore) RecordEvent(record [13]byte) error {
	msg, ok := domain.DecodeDispatcherMessage(record[:])
	if !ok {
		return nil
	}
	return s.db.Create(&EventModel{
		EventID: uuid.New().String(),
		Action:  msg.Action.String(),
		BSSID:   msg.BSSID.String(),
		Client:  msg.Client.String(),
	}).Error
}

// RecentEvents returns the most recent n audit rows, newest first, for the
// web dashboard and the PDF report.
func (s *AuditStore) RecentEvents(n int) ([]EventModel, error) {
	var events []EventModel
	err := s.db.Order("created_at desc").Limit(n).Find(&events).Error
	return events, err
}

// CountByAction returns how many rows exist for a given action string
// ("NEW_CLIENT" or "HANDSHAKE").
func (s *AuditStore) CountByAction(action string) (int64, error) {
	var count int64
	err := s.db.Model(&EventModel{}).Where("action = ?", action).Count(&count).Error
	return count, err
}

// Close releases the underlying database connection.
func (s *AuditStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

