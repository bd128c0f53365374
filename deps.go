package chardev

import (
	"context"
	"time"
)

// Host-provided dependencies for a DeviceBinding.
type Dependencies struct {
	Registry DeviceRegistry
	Logger   Logger
	Clock    Clock
	Notifier EventNotifier
}

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type Clock interface {
	Now() time.Time
}

// EventNotifier receives lifecycle events emitted by a DeviceBinding.
type EventNotifier interface {
	PublishEvent(ctx context.Context, e DeviceEvent) error
}
