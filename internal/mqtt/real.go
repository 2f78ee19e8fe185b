package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/envmon/internal/logic"
)

const (
	publishTimeout = 5 * time.Second
	retryInterval  = 5 * time.Second
)

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	BufferSize int
	Logger     *zap.SugaredLogger
	// Now stamps the last-will and RECONNECTED messages. Defaults to time.Now.
	Now func() time.Time
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed once it comes back.
type RealPublisher struct {
	client paho.Client
	logger *zap.SugaredLogger
	now    func() time.Time

	mu            sync.Mutex
	buffer        *ringBuffer
	connectedOnce bool
}

// NewRealPublisher creates a publisher for the given broker and starts
// connecting in the background. It never blocks on the broker; paho keeps
// retrying until the connection succeeds.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.ClientID == "" {
		o.ClientID = "envmon"
	}
	p := newPublisher(nil, o)

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: p.now(),
		Event:     EventOffline,
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.logger.Warnf("connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p, nil
}

func newPublisher(client paho.Client, o Options) *RealPublisher {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	size := o.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &RealPublisher{
		client: client,
		logger: logger,
		now:    now,
		buffer: newRingBuffer(size, logger),
	}
}

// Publish sends an input event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	if err := p.publish(bufferedMsg{topic: TopicEvents, payload: payload}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once): lifecycle events must arrive
	msg := bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}
	if err := p.publish(msg); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		p.buffer.push(msg)
		p.logger.Debugf("offline, buffered message for %s (%d queued)", msg.topic, p.buffer.len())
		return nil
	}
	return p.send(msg)
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout after %v", publishTimeout)
	}
	return token.Error()
}

// onConnect replays buffered messages and, on reconnects, announces the
// recovered connection.
func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reconnect := p.connectedOnce
	p.connectedOnce = true

	pending := p.buffer.drainAll()
	if reconnect {
		p.logger.Infof("reconnected, replaying %d buffered messages", len(pending))
	} else {
		p.logger.Infof("connected, replaying %d buffered messages", len(pending))
	}

	for i, msg := range pending {
		if err := p.send(msg); err != nil {
			p.logger.Warnf("replay failed for %s: %v", msg.topic, err)
			// Keep whatever was not sent for the next connect.
			for _, rest := range pending[i:] {
				p.buffer.push(rest)
			}
			return
		}
	}

	if !reconnect {
		return
	}
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: EventReconnected})
	if err != nil {
		p.logger.Errorf("format reconnected payload: %v", err)
		return
	}
	if err := p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
		p.logger.Warnf("publish reconnected event: %v", err)
	}
}

// IsConnected reports whether the connection to the broker is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker. Messages still buffered are discarded.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	if n := p.buffer.len(); n > 0 {
		p.logger.Warnf("closing with %d unsent messages", n)
	}
	p.mu.Unlock()

	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
