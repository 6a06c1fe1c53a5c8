package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/domain"
	"storepulse/internal/events"
	"storepulse/internal/store"
)

func TestTrackAndList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	_, err := s.Tenants().Create(ctx, domain.Tenant{ID: "tenant-001", Name: "Demo", Domain: "demo-store.myshopify.com"})
	require.NoError(t, err)
	svc := New(s, events.NewTracker(nil, nil, nil))

	e, err := svc.Track(ctx, "tenant-001", TrackInput{
		Type:      domain.EventProductViewed,
		SessionID: "sess-1",
		Data:      json.RawMessage(`{"productId":"p1","productName":"Mug","productPrice":"12.50"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-001", e.TenantID)

	_, err = svc.Track(ctx, "tenant-001", TrackInput{Type: "page_scrolled", SessionID: "sess-1", Data: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, domain.ErrInvalid)

	_, err = svc.Track(ctx, "tenant-001", TrackInput{Type: domain.EventUserRegistered, Data: json.RawMessage(`{"registrationMethod":"email","userRole":"customer"}`)})
	require.ErrorIs(t, err, domain.ErrInvalid)

	list, err := svc.List(ctx, "tenant-001", domain.EventFilter{Kind: domain.EventProductViewed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	viewed, ok := list[0].Payload.(domain.ProductViewed)
	require.True(t, ok)
	assert.Equal(t, "Mug", viewed.ProductName)
}
