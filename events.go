package chardev

import (
	"context"
	"time"
)

type EventSeverity string

const (
	EventInfo  EventSeverity = "INFO"
	EventWarn  EventSeverity = "WARN"
	EventError EventSeverity = "ERROR"
)

// Lifecycle event types emitted by a DeviceBinding.
const (
	EventTypeNodePublished = "node_published"
	EventTypeNodeTornDown  = "node_torn_down"
	EventTypeRolledBack    = "registration_rolled_back"
)

// DeviceEvent describes a lifecycle transition of a device binding.
type DeviceEvent struct {
	ID       string
	Device   string
	Type     string
	Severity EventSeverity
	At       time.Time
	Meta     map[string]string
}

// NewLogNotifier returns an EventNotifier that writes events to logger.
func NewLogNotifier(logger Logger) EventNotifier { return &logNotifier{logger: logger} }

type logNotifier struct {
	logger Logger
}

func (n *logNotifier) PublishEvent(ctx context.Context, e DeviceEvent) error {
	if n.logger == nil {
		return nil
	}
	switch e.Severity {
	case EventWarn:
		n.logger.Warn("device event", "device", e.Device, "type", e.Type)
	case EventError:
		n.logger.Error("device event", "device", e.Device, "type", e.Type)
	default:
		n.logger.Info("device event", "device", e.Device, "type", e.Type)
	}
	return nil
}
