// Package audit records significant engine events: settled spins, large
// wins, jackpot hits, RNG health checks and storage faults.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/reelhouse/engine/internal/domain"
)

// Event types
const (
	EventSpinSettled    = "spin_settled"
	EventLargeWin       = "large_win"
	EventJackpotWon     = "jackpot_won"
	EventBonusAwarded   = "bonus_awarded"
	EventDeposit        = "deposit"
	EventWithdrawal     = "withdrawal"
	EventStorageFault   = "storage_fault"
	EventRNGHealthCheck = "rng_health_check"
	EventConfigRejected = "config_rejected"
)

// Service provides audit logging. When constructed without a database it
// degrades to process logs, so the engine can run against the in-memory
// ledger with the same call sites.
type Service struct {
	db *sql.DB
}

// New creates an audit service writing to the audit_events table.
func New(db *sql.DB) *Service {
	return &Service{db: db}
}

// NewLogOnly creates an audit service that only writes process logs.
func NewLogOnly() *Service {
	return &Service{}
}

// LogEvent records a significant event.
func (s *Service) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if s.db == nil {
		log.Printf("audit [%s] %s: %s", event.Severity, event.Type, event.Description)
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, type, severity, timestamp, player_id, description, data, component)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, event.Type, event.Severity, event.Timestamp, event.PlayerID,
		event.Description, string(event.Data), event.Component)
	if err != nil {
		// an audit write failure must not fail the settled spin
		log.Printf("audit write failed: %v", err)
	}
	return err
}

// Log is a convenience method for logging events.
func (s *Service) Log(ctx context.Context, eventType string, severity domain.EventSeverity, description string, data interface{}, opts ...EventOption) error {
	event := &domain.AuditEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Severity:    severity,
		Timestamp:   time.Now().UTC(),
		Description: description,
		Component:   "engine",
	}

	if data != nil {
		if jsonData, err := json.Marshal(data); err == nil {
			event.Data = jsonData
		}
	}

	for _, opt := range opts {
		opt(event)
	}

	return s.LogEvent(ctx, event)
}

// EventOption is a functional option for configuring audit events.
type EventOption func(*domain.AuditEvent)

// WithPlayer sets the player ID for the event.
func WithPlayer(playerID string) EventOption {
	return func(e *domain.AuditEvent) {
		e.PlayerID = &playerID
	}
}

// WithComponent overrides the originating component name.
func WithComponent(component string) EventOption {
	return func(e *domain.AuditEvent) {
		e.Component = component
	}
}
