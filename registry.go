package chardev

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ClassHandle identifies a device class held by a registry.
type ClassHandle string

// NodeHandle identifies a published device node held by a registry.
type NodeHandle string

// DeviceRegistry is the external device-management collaborator a
// DeviceBinding acquires its identity from. Every operation is opaque and
// fallible; the binding owns the acquire/release ordering (see
// registry_contracts.go).
type DeviceRegistry interface {
	// RegisterChar acquires a char-device major number for name.
	RegisterChar(ctx context.Context, name string) (int, error)
	// UnregisterChar releases a major number acquired by RegisterChar.
	UnregisterChar(ctx context.Context, major int, name string) error

	// CreateClass creates a device class grouping.
	CreateClass(ctx context.Context, name string) (ClassHandle, error)
	// DestroyClass releases a class created by CreateClass.
	DestroyClass(ctx context.Context, class ClassHandle) error

	// PublishNode creates the filesystem-visible node under class.
	PublishNode(ctx context.Context, class ClassHandle, major int, name string) (NodeHandle, error)
	// RemoveNode unpublishes a node created by PublishNode.
	RemoveNode(ctx context.Context, node NodeHandle) error
}

// MemoryRegistry is an in-process DeviceRegistry for local development and
// tests. Majors are allocated from the experimental range upward.
type MemoryRegistry struct {
	mu        sync.Mutex
	nextMajor int
	majors    map[int]string       // major -> device name
	classes   map[ClassHandle]string
	nodes     map[NodeHandle]ClassHandle
}

// NewMemoryRegistry creates an empty in-process registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		nextMajor: 240,
		majors:    make(map[int]string),
		classes:   make(map[ClassHandle]string),
		nodes:     make(map[NodeHandle]ClassHandle),
	}
}

func (r *MemoryRegistry) RegisterChar(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("device name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.majors {
		if existing == name {
			return 0, fmt.Errorf("device name %q already registered", name)
		}
	}
	major := r.nextMajor
	r.nextMajor++
	r.majors[major] = name
	return major, nil
}

func (r *MemoryRegistry) UnregisterChar(ctx context.Context, major int, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.majors[major]; !ok {
		return fmt.Errorf("major %d is not registered", major)
	}
	delete(r.majors, major)
	return nil
}

func (r *MemoryRegistry) CreateClass(ctx context.Context, name string) (ClassHandle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("class name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	handle := ClassHandle("class:" + name)
	if _, ok := r.classes[handle]; ok {
		return "", fmt.Errorf("class %q already exists", name)
	}
	r.classes[handle] = name
	return handle, nil
}

func (r *MemoryRegistry) DestroyClass(ctx context.Context, class ClassHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[class]; !ok {
		return fmt.Errorf("unknown class handle %q", class)
	}
	for _, owner := range r.nodes {
		if owner == class {
			return fmt.Errorf("class %q still has published nodes", class)
		}
	}
	delete(r.classes, class)
	return nil
}

func (r *MemoryRegistry) PublishNode(ctx context.Context, class ClassHandle, major int, name string) (NodeHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[class]; !ok {
		return "", fmt.Errorf("unknown class handle %q", class)
	}
	if _, ok := r.majors[major]; !ok {
		return "", fmt.Errorf("major %d is not registered", major)
	}
	handle := NodeHandle(fmt.Sprintf("node:%s:%d", name, major))
	if _, ok := r.nodes[handle]; ok {
		return "", fmt.Errorf("node %q already published", name)
	}
	r.nodes[handle] = class
	return handle, nil
}

func (r *MemoryRegistry) RemoveNode(ctx context.Context, node NodeHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[node]; !ok {
		return fmt.Errorf("unknown node handle %q", node)
	}
	delete(r.nodes, node)
	return nil
}

// LiveCounts reports how many majors, classes and nodes are currently held.
// Intended for tests and diagnostics.
func (r *MemoryRegistry) LiveCounts() (majors, classes, nodes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.majors), len(r.classes), len(r.nodes)
}
