package ws

import (
	"context"
	"encoding/json"
	"time"

	"jobdash/internal/domain/job"
	"jobdash/internal/view"
)

// RelayChannel carries acknowledged listing writes between server instances.
const RelayChannel = "jobdash:job_updated"

type JobUpdatedEvent struct {
	Type      string        `json:"type"`
	JobID     string        `json:"job_id"`
	Row       view.TableRow `json:"row"`
	Timestamp string        `json:"timestamp"`
}

// Relay fans a payload out to every instance subscribed to a channel.
type Relay interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, fn func([]byte)) bool
}

// Notifier publishes acknowledged listing writes to every connected feed.
// With a relay attached, writes go through the relay and every instance,
// this one included, broadcasts what it receives.
type Notifier struct {
	hub     *Hub
	now     func() time.Time
	relay   Relay
	timeout time.Duration
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub, now: time.Now, timeout: 2 * time.Second}
}

// WithRelay subscribes to RelayChannel until ctx is done. If the relay
// cannot subscribe, the notifier keeps broadcasting locally.
func (n *Notifier) WithRelay(ctx context.Context, relay Relay) *Notifier {
	if n == nil || relay == nil {
		return n
	}
	if !relay.Subscribe(ctx, RelayChannel, n.receive) {
		n.hub.logf("WS relay unavailable, broadcasting locally")
		return n
	}
	n.relay = relay
	return n
}

func (n *Notifier) NotifyJobUpdated(l job.Listing) {
	if n == nil || n.hub == nil {
		return
	}
	if n.relay != nil {
		b, err := json.Marshal(l)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			err = n.relay.Publish(ctx, RelayChannel, b)
			cancel()
		}
		if err == nil {
			return
		}
		n.hub.logf("WS relay publish error | job_id=%s error=%v", l.ID, err)
	}
	n.broadcast(l)
}

func (n *Notifier) receive(payload []byte) {
	var l job.Listing
	if err := json.Unmarshal(payload, &l); err != nil || l.ID == "" {
		n.hub.logf("WS relay dropped malformed payload | error=%v", err)
		return
	}
	n.broadcast(l)
}

func (n *Notifier) broadcast(l job.Listing) {
	now := n.now().UTC()
	evt := JobUpdatedEvent{
		Type:      MsgJobUpdated,
		JobID:     l.ID,
		Row:       view.NewTableRow(l, now),
		Timestamp: now.Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		n.hub.logf("WS notify marshal error | job_id=%s error=%v", l.ID, err)
		return
	}
	n.hub.BroadcastListing(l, b)
}
