package mqtt

import "log/slog"

// outgoing is a formatted message waiting for the broker.
type outgoing struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog holds summaries and events that could not be delivered yet. When
// full, the oldest message is dropped so the newest session survives. Callers
// hold RealPublisher.mu.
type backlog struct {
	msgs    []outgoing
	limit   int
	dropped int // since the last take
	logger  *slog.Logger
}

func newBacklog(limit int, logger *slog.Logger) *backlog {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &backlog{msgs: make([]outgoing, 0, limit), limit: limit, logger: logger}
}

// add queues msg behind everything already waiting.
func (b *backlog) add(msg outgoing) {
	if len(b.msgs) == b.limit {
		if b.dropped == 0 {
			b.logger.Warn("mqtt backlog full, dropping oldest", "limit", b.limit)
		}
		b.dropped++
		copy(b.msgs, b.msgs[1:])
		b.msgs = b.msgs[:len(b.msgs)-1]
	}
	b.msgs = append(b.msgs, msg)
}

// requeue puts msgs back at the front, oldest first, ahead of anything added
// since they were taken.
func (b *backlog) requeue(msgs []outgoing) {
	rest := b.msgs
	b.msgs = make([]outgoing, 0, b.limit)
	for _, m := range msgs {
		b.add(m)
	}
	for _, m := range rest {
		b.add(m)
	}
}

// take empties the backlog and returns its messages oldest first.
func (b *backlog) take() []outgoing {
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = make([]outgoing, 0, b.limit)
	if b.dropped > 0 {
		b.logger.Warn("mqtt backlog overflowed", "dropped", b.dropped)
		b.dropped = 0
	}
	return out
}

func (b *backlog) len() int {
	return len(b.msgs)
}
