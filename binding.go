package chardev

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BindingState is the lifecycle state of a DeviceBinding.
type BindingState string

const (
	StateUnregistered   BindingState = "UNREGISTERED"
	StateCharRegistered BindingState = "CHAR_REGISTERED"
	StateClassCreated   BindingState = "CLASS_CREATED"
	StateNodePublished  BindingState = "NODE_PUBLISHED"
	StateTornDown       BindingState = "TORN_DOWN"
)

// DeviceBinding associates a fixed-capacity buffer with an addressable
// device node. Create acquires the device identity from the registry in
// three ordered steps (char-major registration, class creation, node
// publication) and rolls back already-acquired steps in reverse order if
// any step fails, so a node is never externally visible half-constructed.
// Destroy releases the three resources in strict reverse order.
//
// The binding does not own the buffer semantics; it forwards session I/O
// to the BoundedBuffer while in StateNodePublished and rejects it with
// ErrDeviceNotReady otherwise.
type DeviceBinding struct {
	id        string
	name      string
	className string
	exclusive bool

	registry DeviceRegistry
	logger   Logger
	clock    Clock
	notifier EventNotifier
	buffer   *BoundedBuffer

	// Held per write when the exclusive-writer discipline is configured.
	writerMu sync.Mutex

	mu          sync.Mutex
	state       BindingState
	major       int
	class       ClassHandle
	node        NodeHandle
	publishedAt time.Time

	sessions *sessionTable
}

// NewDeviceBinding creates an unregistered binding for cfg. The registry
// dependency is required; logger, clock and notifier are optional.
func NewDeviceBinding(cfg DeviceConfig, deps Dependencies) (*DeviceBinding, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("a DeviceRegistry is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = NewSystemClock()
	}

	buffer, err := NewBoundedBuffer(cfg.CapacityBytes)
	if err != nil {
		return nil, err
	}

	return &DeviceBinding{
		id:        uuid.New().String(),
		name:      cfg.Name,
		className: cfg.ClassName,
		exclusive: cfg.ExclusiveWriter,
		registry:  deps.Registry,
		logger:    deps.Logger,
		clock:     clock,
		notifier:  deps.Notifier,
		buffer:    buffer,
		state:     StateUnregistered,
		sessions:  newSessionTable(),
	}, nil
}

// ID returns the binding instance identifier.
func (b *DeviceBinding) ID() string { return b.id }

// Name returns the device node name.
func (b *DeviceBinding) Name() string { return b.name }

// ClassName returns the device class name.
func (b *DeviceBinding) ClassName() string { return b.className }

// Capacity returns the buffer capacity in bytes.
func (b *DeviceBinding) Capacity() int { return b.buffer.Capacity() }

// State returns the current lifecycle state.
func (b *DeviceBinding) State() BindingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Major returns the registered major number (0 while unregistered).
func (b *DeviceBinding) Major() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.major
}

// OpenSessions returns the number of currently open sessions.
func (b *DeviceBinding) OpenSessions() int { return b.sessions.len() }

// acquireStep is one reversible resource acquisition. Steps are driven in
// order by Create and released in exact reverse order on rollback and
// teardown, which pins the ordering invariant in structure rather than in
// hand-written cleanup blocks.
type acquireStep struct {
	name     string
	sentinel error
	state    BindingState
	acquire  func(ctx context.Context) error
	release  func(ctx context.Context) error
}

func (b *DeviceBinding) acquireSteps() []acquireStep {
	return []acquireStep{
		{
			name:     "register char device",
			sentinel: ErrRegistrationFailed,
			state:    StateCharRegistered,
			acquire: func(ctx context.Context) error {
				major, err := b.registry.RegisterChar(ctx, b.name)
				if err != nil {
					return err
				}
				b.major = major
				return nil
			},
			release: func(ctx context.Context) error {
				err := b.registry.UnregisterChar(ctx, b.major, b.name)
				b.major = 0
				return err
			},
		},
		{
			name:     "create device class",
			sentinel: ErrClassCreationFailed,
			state:    StateClassCreated,
			acquire: func(ctx context.Context) error {
				class, err := b.registry.CreateClass(ctx, b.className)
				if err != nil {
					return err
				}
				b.class = class
				return nil
			},
			release: func(ctx context.Context) error {
				err := b.registry.DestroyClass(ctx, b.class)
				b.class = ""
				return err
			},
		},
		{
			name:     "publish device node",
			sentinel: ErrNodePublishFailed,
			state:    StateNodePublished,
			acquire: func(ctx context.Context) error {
				node, err := b.registry.PublishNode(ctx, b.class, b.major, b.name)
				if err != nil {
					return err
				}
				b.node = node
				return nil
			},
			release: func(ctx context.Context) error {
				err := b.registry.RemoveNode(ctx, b.node)
				b.node = ""
				return err
			},
		},
	}
}

// Create registers the device identity and publishes the node. On any step
// failure the already-acquired steps are released in reverse order, the
// binding returns to StateUnregistered and the step's sentinel error is
// returned wrapping the cause. Rollback release failures are logged and do
// not mask the original error; the error is only returned once rollback
// has run to completion.
func (b *DeviceBinding) Create(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateNodePublished:
		return fmt.Errorf("device %q is already published", b.name)
	case StateTornDown:
		return fmt.Errorf("device %q is torn down", b.name)
	}

	steps := b.acquireSteps()
	for i, step := range steps {
		if err := step.acquire(ctx); err != nil {
			b.rollbackLocked(ctx, steps[:i])
			b.state = StateUnregistered
			if b.logger != nil {
				b.logger.Error("device registration failed",
					"device", b.name, "step", step.name, "error", err)
			}
			b.emitLocked(ctx, EventTypeRolledBack, EventError)
			return fmt.Errorf("%w: %w", step.sentinel, err)
		}
		b.state = step.state
	}

	b.publishedAt = b.clock.Now()
	if b.logger != nil {
		b.logger.Info("device node published",
			"device", b.name, "class", b.className, "major", b.major)
	}
	b.emitLocked(ctx, EventTypeNodePublished, EventInfo)
	return nil
}

// rollbackLocked releases the given acquired steps in reverse order,
// best-effort. Caller holds b.mu.
func (b *DeviceBinding) rollbackLocked(ctx context.Context, acquired []acquireStep) {
	for i := len(acquired) - 1; i >= 0; i-- {
		if err := acquired[i].release(ctx); err != nil && b.logger != nil {
			b.logger.Error("rollback release failed",
				"device", b.name, "step", acquired[i].name, "error", err)
		}
	}
}

// Destroy unpublishes the node and releases the class and char
// registration, in strict reverse order of acquisition. Teardown is
// best-effort: an individual release error is logged and teardown
// continues through the remaining releases; the errors are joined in the
// return value. All open sessions are closed. Destroying an already
// torn-down (or never-created) binding is a no-op returning nil.
func (b *DeviceBinding) Destroy(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateNodePublished {
		return nil
	}

	steps := b.acquireSteps()
	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i].release(ctx); err != nil {
			if b.logger != nil {
				b.logger.Error("teardown release failed",
					"device", b.name, "step", steps[i].name, "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", steps[i].name, err))
		}
	}

	closed := b.sessions.markAllClosed()
	b.state = StateTornDown
	if b.logger != nil {
		b.logger.Info("device node torn down", "device", b.name, "sessions_closed", closed)
	}
	b.emitLocked(ctx, EventTypeNodeTornDown, EventInfo)
	return errors.Join(errs...)
}

// Open opens a new session on the published node. The session cursor
// starts at 0. Returns ErrDeviceNotReady outside StateNodePublished.
func (b *DeviceBinding) Open() (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateNodePublished {
		return nil, ErrDeviceNotReady
	}

	s := newSession(b, b.clock.Now())
	b.sessions.add(s)
	if b.logger != nil {
		b.logger.Debug("session opened", "device", b.name, "session", s.id)
	}
	return s, nil
}

func (b *DeviceBinding) emitLocked(ctx context.Context, eventType string, severity EventSeverity) {
	if b.notifier == nil {
		return
	}
	_ = b.notifier.PublishEvent(ctx, DeviceEvent{
		ID:       uuid.New().String(),
		Device:   b.name,
		Type:     eventType,
		Severity: severity,
		At:       b.clock.Now(),
	})
}
