package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/breathwork/internal/logic"
)

// DefaultBufferSize bounds how many messages are held while the broker is unreachable.
const DefaultBufferSize = 64

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker. Messages that could not
// be delivered are queued, then sent ahead of the next publish or replayed
// when the connection comes back.
type RealPublisher struct {
	client broker
	logger *slog.Logger

	mu      sync.Mutex
	backlog *backlog
	// connectedOnce distinguishes the first connect from reconnects.
	connectedOnce bool
}

// broker is the part of paho.Client the publisher uses.
type broker interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// NewRealPublisher creates a publisher for the given broker. The connection is
// established in the background; startup does not wait for the broker.
func NewRealPublisher(broker, clientID string, logger *slog.Logger) (*RealPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &RealPublisher{
		logger:  logger,
		backlog: newBacklog(DefaultBufferSize, logger),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})

	client := paho.NewClient(opts)
	p.client = client
	client.Connect()
	return p, nil
}

// Publish sends a session summary to the MQTT broker.
func (p *RealPublisher) Publish(summary logic.Summary) error {
	payload, err := FormatPayload(summary)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1 (at-least-once): summaries are the persistence record
	return p.publish(outgoing{topic: Topic, payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(outgoing{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(msg outgoing) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.backlog.add(msg)
		n := p.backlog.len()
		p.mu.Unlock()
		p.logger.Info("mqtt offline, queued message", "topic", msg.topic, "queued", n)
		return nil
	}
	// Earlier failures go out first so summaries keep their order.
	pending := append(p.backlog.take(), msg)
	p.mu.Unlock()

	return p.deliver(pending)
}

// deliver sends msgs in order. On the first failure the unsent messages are
// queued again and the error returned.
func (p *RealPublisher) deliver(msgs []outgoing) error {
	for i, msg := range msgs {
		if err := p.send(msg); err != nil {
			p.mu.Lock()
			p.backlog.requeue(msgs[i:])
			p.mu.Unlock()
			return err
		}
	}
	return nil
}

func (p *RealPublisher) send(msg outgoing) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// onConnect replays queued messages and announces reconnects. paho runs it
// on its own goroutine, so blocking on tokens here is fine.
func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	pending := p.backlog.take()
	reconnect := p.connectedOnce
	p.connectedOnce = true
	p.mu.Unlock()

	p.logger.Info("mqtt connected", "replaying", len(pending), "reconnect", reconnect)

	if reconnect {
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err == nil {
			if err := p.send(outgoing{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
				p.logger.Warn("mqtt reconnect announce failed", "error", err)
			}
		}
	}

	if err := p.deliver(pending); err != nil {
		p.logger.Warn("mqtt replay failed, queued again", "error", err)
	}
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns how many messages are waiting for the broker.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backlog.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
