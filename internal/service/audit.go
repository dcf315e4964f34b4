package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/agentcore/internal/domain"
)

// RecordEvent appends an event to the run's audit trail. Audit failures are
// logged, never propagated; they must not take the run down.
func (s *Service) RecordEvent(ctx context.Context, runID, name string, payload interface{}) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("ERROR: failed to marshal %s payload for run %s: %v", name, runID, err)
		} else {
			data = b
		}
	}
	ev := &domain.AuditEvent{
		EventID: "evt_" + uuid.New().String()[:8],
		RunID:   runID,
		Ts:      time.Now().UnixMilli(),
		Name:    name,
		Payload: data,
	}
	if err := s.store.RecordAuditEvent(ctx, ev); err != nil {
		log.Printf("ERROR: failed to record %s event for run %s: %v", name, runID, err)
	}
}

// GetRunEvents returns the audit trail for a run, optionally after a
// timestamp and filtered by event names.
func (s *Service) GetRunEvents(ctx context.Context, runID string, afterTs int64, names []string, limit int) ([]domain.AuditEvent, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	return s.store.GetAuditEvents(ctx, runID, afterTs, names, limit)
}
