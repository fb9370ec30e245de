package l1wire

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
)

func TestDecoder_TrackBatch(t *testing.T) {
	dec := NewDecoder(timeutil.NewMockClock(time.UnixMilli(5_000)))
	raw, err := Marshal(Envelope{
		SchemaVersion: "1.0",
		ServerTsMs:    4_900,
		Payload: &TrackDeltaBatch{Deltas: []TrackDelta{
			{ID: "a", Kind: KindAircraft, Position: Position{Lat: 1, Lon: 2, Alt: 3}},
			{ID: "b", Kind: KindGround},
		}},
	})
	require.NoError(t, err)

	ev, err := dec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, EventTrackBatch, ev.Type())

	batch := ev.(*TrackBatchEvent)
	assert.Equal(t, Header{SchemaVersion: "1.0", ServerTsMs: 4_900}, batch.EnvelopeHeader())
	require.Len(t, batch.Deltas, 2)
	assert.Equal(t, "a", batch.Deltas[0].ID)
	assert.Equal(t, "b", batch.Deltas[1].ID)
}

func TestDecoder_AlertNames(t *testing.T) {
	tests := []struct {
		name         string
		severity     uint64
		status       uint64
		wantSeverity string
		wantStatus   string
	}{
		{"high active", 3, 1, "HIGH", "ACTIVE"},
		{"critical resolved", 4, 3, "CRITICAL", "RESOLVED"},
		{"unspecified", 0, 0, "UNSPECIFIED", "UNSPECIFIED"},
		{"unknown values", 17, 9, "UNKNOWN", "UNKNOWN"},
	}
	dec := NewDecoder(timeutil.NewMockClock(time.UnixMilli(0)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Marshal(Envelope{Payload: &AlertUpsert{
				ID:              "alert-7",
				Severity:        tt.severity,
				Status:          tt.status,
				Title:           "Loitering",
				EvidenceLinkIDs: []string{"link-3", "link-1", "link-2"},
			}})
			require.NoError(t, err)

			ev, err := dec.Decode(raw)
			require.NoError(t, err)
			alert, ok := ev.(*AlertEvent)
			require.True(t, ok, "event type %T", ev)
			assert.Equal(t, tt.wantSeverity, alert.Severity)
			assert.Equal(t, tt.wantStatus, alert.Status)
			assert.Equal(t, []string{"link-3", "link-1", "link-2"}, alert.EvidenceLinkIDs)
		})
	}
}

func TestDecoder_ProviderLatency(t *testing.T) {
	now := time.UnixMilli(1_700_000_010_000)
	dec := NewDecoder(timeutil.NewMockClock(now))

	tests := []struct {
		name        string
		lastSuccess uint64
		want        uint64
	}{
		{"ten seconds ago", 1_700_000_000_000, 10_000},
		{"never succeeded", 0, 0},
		{"provider clock ahead", 1_700_000_020_000, 0},
		{"exactly now", 1_700_000_010_000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Marshal(Envelope{Payload: &ProviderStatus{
				ProviderID:      "opensky",
				Online:          true,
				LastSuccessTsMs: tt.lastSuccess,
				EntityCount:     812,
			}})
			require.NoError(t, err)

			ev, err := dec.Decode(raw)
			require.NoError(t, err)
			health := ev.(*ProviderHealthEvent)
			assert.Equal(t, tt.want, health.LatencyMs)
			assert.True(t, health.Online)
			assert.Equal(t, uint32(812), health.EntityCount)
		})
	}
}

func TestDecoder_PassThroughPayloads(t *testing.T) {
	dec := NewDecoder(nil)
	tests := []struct {
		payload Payload
		want    EventType
	}{
		{&SnapshotMeta{SnapshotID: "snap-1", StartTsMs: 10, EndTsMs: 20, DeltaCount: 5}, EventSnapshot},
		{&LinkUpsert{ID: "l", FromID: "a", ToID: "b", Relation: "escorts"}, EventLink},
		{&SubscriptionAck{SubscriptionID: "s", Accepted: true}, EventSubscriptionAck},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			raw, err := Marshal(Envelope{Payload: tt.payload})
			require.NoError(t, err)
			ev, err := dec.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Type())
		})
	}
}

func TestDecoder_IgnoresSubscriptionRequest(t *testing.T) {
	raw, err := Marshal(Envelope{Payload: &SubscriptionRequest{Mode: ModeLive}})
	require.NoError(t, err)

	ev, err := NewDecoder(nil).Decode(raw)
	assert.Nil(t, ev)
	assert.True(t, errors.Is(err, ErrIgnoredPayload))
}

func TestDecoder_MalformedYieldsNoEvent(t *testing.T) {
	ev, err := NewDecoder(nil).Decode([]byte{0x52, 0x7f, 0x01})
	assert.Nil(t, ev)
	var de *DecodeError
	assert.True(t, errors.As(err, &de), "err = %v", err)
}
