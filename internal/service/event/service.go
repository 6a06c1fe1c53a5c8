package event

import (
	"context"
	"encoding/json"
	"fmt"

	"storepulse/internal/domain"
	"storepulse/internal/events"
	"storepulse/internal/store"
)

type Service struct {
	store   *store.Store
	tracker *events.Tracker
}

func New(s *store.Store, tracker *events.Tracker) *Service {
	return &Service{store: s, tracker: tracker}
}

// TrackInput is an event reported by the dashboard.
type TrackInput struct {
	Type      domain.EventKind `json:"type"`
	SessionID string           `json:"sessionId"`
	UserID    string           `json:"userId"`
	Data      json.RawMessage  `json:"data"`
}

// Track decodes the payload for its kind and records it. Unknown kinds
// and invalid payloads are rejected.
func (s *Service) Track(ctx context.Context, tenantID string, in TrackInput) (*domain.CustomEvent, error) {
	payload, err := domain.DecodeEventPayload(in.Type, in.Data)
	if err != nil {
		return nil, err
	}
	e, err := s.tracker.Record(ctx, s.store.Tenant(tenantID), in.SessionID, in.UserID, payload)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", in.Type, err)
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, tenantID string, filter domain.EventFilter) ([]domain.CustomEvent, error) {
	return s.store.Tenant(tenantID).ListEvents(ctx, filter)
}
