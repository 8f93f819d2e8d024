package transport

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/observability"
)

// DefaultBroadcastRate is the default steady-state send rate per
// subscriber channel, chosen well above any plausible single-document
// typing rate while still bounding a runaway sender.
const DefaultBroadcastRate = 200 // operations/sec

// DefaultBroadcastBurst allows a short burst (a paste, a bulk structural
// edit) through without throttling.
const DefaultBroadcastBurst = 400

// Broadcaster fans one document's locally-applied operations out to every
// other subscribed Channel, rate-limiting each subscriber independently so
// one slow or misbehaving peer cannot back-pressure the others (spec.md's
// domain-stack note on "transport send-side rate limiting (bounding
// broadcast fan-out)"), grounded on the teacher's per-connection fan-out
// pattern in its websocket hub.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[identity.ClientID]*subscriber
	logger      observability.Logger
	metrics     observability.MetricsClient
	rate        rate.Limit
	burst       int
}

type subscriber struct {
	channel *Channel
	limiter *rate.Limiter
}

// NewBroadcaster creates a Broadcaster. A zero ratePerSec/burst falls back
// to DefaultBroadcastRate/DefaultBroadcastBurst. A nil metrics falls back
// to observability.DefaultMetricsClient.
func NewBroadcaster(ratePerSec float64, burst int, logger observability.Logger, metrics observability.MetricsClient) *Broadcaster {
	if ratePerSec <= 0 {
		ratePerSec = DefaultBroadcastRate
	}
	if burst <= 0 {
		burst = DefaultBroadcastBurst
	}
	if logger == nil {
		logger = observability.NewLogger("transport")
	}
	if metrics == nil {
		metrics = observability.DefaultMetricsClient
	}
	return &Broadcaster{
		subscribers: make(map[identity.ClientID]*subscriber),
		logger:      logger,
		metrics:     metrics,
		rate:        rate.Limit(ratePerSec),
		burst:       burst,
	}
}

// Subscribe registers client's channel to receive future Publish calls.
func (b *Broadcaster) Subscribe(client identity.ClientID, ch *Channel) {
	b.mu.Lock()
	b.subscribers[client] = &subscriber{
		channel: ch,
		limiter: rate.NewLimiter(b.rate, b.burst),
	}
	count := len(b.subscribers)
	b.mu.Unlock()

	b.metrics.RecordGauge("transport_broadcaster_subscribers", float64(count), nil)
}

// Unsubscribe removes client from the fan-out set. It does not close the
// channel; the caller owns its lifecycle.
func (b *Broadcaster) Unsubscribe(client identity.ClientID) {
	b.mu.Lock()
	delete(b.subscribers, client)
	count := len(b.subscribers)
	b.mu.Unlock()

	b.metrics.RecordGauge("transport_broadcaster_subscribers", float64(count), nil)
}

// Publish sends op to every subscriber except origin. A subscriber whose
// limiter is exhausted waits for its own turn rather than dropping the
// operation — correctness depends on every peer eventually seeing every
// operation, so throttling slows a peer down, it never skips traffic for
// one.
func (b *Broadcaster) Publish(ctx context.Context, origin identity.ClientID, op crdt.Operation) {
	b.mu.Lock()
	targets := make(map[identity.ClientID]*subscriber, len(b.subscribers))
	for client, sub := range b.subscribers {
		if client == origin {
			continue
		}
		targets[client] = sub
	}
	b.mu.Unlock()

	for client, sub := range targets {
		if err := sub.limiter.Wait(ctx); err != nil {
			return // ctx cancelled; the caller is shutting the document down
		}
		err := sub.channel.Send(ctx, op)
		b.metrics.RecordOperation("transport_broadcaster", "publish", err == nil, 0, nil)
		if err != nil {
			b.logger.Warn("broadcast send failed", map[string]interface{}{
				"client": string(client),
				"error":  err.Error(),
			})
		}
	}
}

// Count reports the number of currently subscribed channels.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
