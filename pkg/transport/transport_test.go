package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/observability"
)

// recordingMetrics captures the gauge values a Broadcaster reports, so
// tests can assert on subscriber-count bookkeeping without a real metrics
// backend.
type recordingMetrics struct {
	observability.MetricsClient
	gauges map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{MetricsClient: observability.NewNoOpMetricsClient(), gauges: map[string]float64{}}
}

func (r *recordingMetrics) RecordGauge(name string, value float64, labels map[string]string) {
	r.gauges[name] = value
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	client := identity.NewClientID()
	op := crdt.Operation{
		ID:    identity.OpID{Client: client, Counter: 1},
		Stamp: identity.VectorClock{client: 1},
		Kind:  crdt.OpTextInsert,
		Seq:   identity.NewNodeID(),
		Char:  'x',
	}

	b, err := Marshal(op)
	require.NoError(t, err)

	got, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	assert.Equal(t, op.Kind, got.Kind)
	assert.Equal(t, op.Char, got.Char)
	assert.Equal(t, op.Seq, got.Seq)
}

func TestUnmarshalUnknownKindIsError(t *testing.T) {
	_, err := Unmarshal([]byte(`{"kind":"not_a_real_kind","id":{"client":"c","counter":1},"stamp":{}}`))
	require.Error(t, err)
}

func TestBroadcasterExcludesOrigin(t *testing.T) {
	b := NewBroadcaster(0, 0, nil, nil)
	assert.Equal(t, 0, b.Count())

	client := identity.NewClientID()
	b.Subscribe(client, &Channel{})
	assert.Equal(t, 1, b.Count())

	// Publishing from the only subscriber must not send back to it: its
	// Channel has no connection, so a send would panic.
	ctx := context.Background()
	b.Publish(ctx, client, crdt.Operation{})

	b.Unsubscribe(client)
	assert.Equal(t, 0, b.Count())

	// Publish with no subscribers must not panic or block.
	b.Publish(ctx, client, crdt.Operation{})
}

func TestBroadcasterRecordsSubscriberGauge(t *testing.T) {
	metrics := newRecordingMetrics()
	b := NewBroadcaster(0, 0, nil, metrics)

	clientA := identity.NewClientID()
	clientB := identity.NewClientID()

	b.Subscribe(clientA, &Channel{})
	assert.Equal(t, 1.0, metrics.gauges["transport_broadcaster_subscribers"])

	b.Subscribe(clientB, &Channel{})
	assert.Equal(t, 2.0, metrics.gauges["transport_broadcaster_subscribers"])

	b.Unsubscribe(clientA)
	assert.Equal(t, 1.0, metrics.gauges["transport_broadcaster_subscribers"])
}

func TestNewBroadcasterDefaultsNilMetrics(t *testing.T) {
	b := NewBroadcaster(0, 0, nil, nil)
	require.NotNil(t, b.metrics)

	// A nil metrics client must not panic on Subscribe/Unsubscribe.
	client := identity.NewClientID()
	b.Subscribe(client, &Channel{})
	b.Unsubscribe(client)
}
