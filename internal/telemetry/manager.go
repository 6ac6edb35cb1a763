package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/pkg/logger"
)

const (
	// AuditStreamName is the JetStream stream for security audit events.
	AuditStreamName = "SECURITY_AUDIT"

	// Device signal subject prefix. Sensor data is deliberately
	// published on core NATS, not JetStream: motion traces are
	// sensitive and must not accumulate in durable storage.
	SignalSubjectPrefix = "tel"

	// AuditSubjectPrefix prefixes audit event subjects.
	AuditSubjectPrefix = "audit"
)

// Signal subjects are scoped per device so one NATS cluster can carry
// several paired devices without cross-talk.
func MotionSubject(deviceID string) string {
	return fmt.Sprintf("%s.%s.motion", SignalSubjectPrefix, deviceID)
}

func PressSubject(deviceID string) string {
	return fmt.Sprintf("%s.%s.press", SignalSubjectPrefix, deviceID)
}

func LifecycleSubject(deviceID string) string {
	return fmt.Sprintf("%s.%s.lifecycle", SignalSubjectPrefix, deviceID)
}

// Manager fans device signals into typed channels and publishes audit
// events.
type Manager struct {
	client   *Client
	deviceID string
	logger   *logger.Logger

	motionCh    chan model.MotionSample
	shakeCh     chan model.MotionSample
	pressCh     chan model.PressEvent
	lifecycleCh chan model.LifecycleEvent

	subs []*nats.Subscription
}

// NewManager creates a telemetry manager over an established client,
// listening for the signals of one paired device.
func NewManager(client *Client, deviceID string, log *logger.Logger) *Manager {
	return &Manager{
		client:      client,
		deviceID:    deviceID,
		logger:      log.WithComponent("telemetry"),
		motionCh:    make(chan model.MotionSample, 64),
		shakeCh:     make(chan model.MotionSample, 64),
		pressCh:     make(chan model.PressEvent, 16),
		lifecycleCh: make(chan model.LifecycleEvent, 4),
	}
}

// EnsureAuditStream ensures the audit stream exists.
func (m *Manager) EnsureAuditStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, AuditStreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        AuditStreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", AuditSubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Content-free security transition events",
	})
	if err != nil {
		return fmt.Errorf("failed to create audit stream: %w", err)
	}

	return nil
}

// Subscribe attaches to the device signal subjects. Decoded events land
// on the typed channels; a full channel drops the new event rather than
// blocking the NATS callback.
func (m *Manager) Subscribe() error {
	motionSubject := MotionSubject(m.deviceID)
	sub, err := m.client.Conn().Subscribe(motionSubject, func(msg *nats.Msg) {
		var s model.MotionSample
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			return
		}
		if s.At.IsZero() {
			s.At = time.Now()
		}
		// Fan out: the same sample stream feeds the face-down
		// detector and the shake matcher.
		select {
		case m.motionCh <- s:
		default:
		}
		select {
		case m.shakeCh <- s:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", motionSubject, err)
	}
	m.subs = append(m.subs, sub)

	pressSubject := PressSubject(m.deviceID)
	sub, err = m.client.Conn().Subscribe(pressSubject, func(msg *nats.Msg) {
		var e model.PressEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return
		}
		if e.At.IsZero() {
			e.At = time.Now()
		}
		select {
		case m.pressCh <- e:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pressSubject, err)
	}
	m.subs = append(m.subs, sub)

	lifecycleSubject := LifecycleSubject(m.deviceID)
	sub, err = m.client.Conn().Subscribe(lifecycleSubject, func(msg *nats.Msg) {
		var e model.LifecycleEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return
		}
		if e.At.IsZero() {
			e.At = time.Now()
		}
		select {
		case m.lifecycleCh <- e:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", lifecycleSubject, err)
	}
	m.subs = append(m.subs, sub)

	return nil
}

// Motion returns the accelerometer sample channel for the face-down
// detector.
func (m *Manager) Motion() <-chan model.MotionSample {
	return m.motionCh
}

// Shakes returns the accelerometer sample channel for the shake matcher.
func (m *Manager) Shakes() <-chan model.MotionSample {
	return m.shakeCh
}

// Presses returns the button press channel.
func (m *Manager) Presses() <-chan model.PressEvent {
	return m.pressCh
}

// Lifecycle returns the app lifecycle transition channel.
func (m *Manager) Lifecycle() <-chan model.LifecycleEvent {
	return m.lifecycleCh
}

// PublishSecurityEvent publishes a content-free audit record. Publish
// failures are logged and swallowed: audit must never block or revert a
// security decision.
func (m *Manager) PublishSecurityEvent(ctx context.Context, event *model.SecurityEvent) {
	subject := fmt.Sprintf("%s.%s", AuditSubjectPrefix, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("failed to marshal audit event", zap.Error(err))
		return
	}

	if _, err := m.client.JetStream().Publish(ctx, subject, data); err != nil {
		m.logger.Error("failed to publish audit event",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// Drain detaches the signal subscriptions.
func (m *Manager) Drain() {
	for _, sub := range m.subs {
		_ = sub.Unsubscribe()
	}
	m.subs = nil
}
