package chardev

import "time"

// NodeInfo is a point-in-time snapshot of a binding's published identity,
// intended for host tooling and diagnostics.
type NodeInfo struct {
	Name          string       `json:"name"`
	ClassName     string       `json:"class_name"`
	Major         int          `json:"major,omitempty"`
	Minor         int          `json:"minor"`
	Path          string       `json:"path,omitempty"`
	State         BindingState `json:"state"`
	CapacityBytes int          `json:"capacity_bytes"`
	PublishedAt   time.Time    `json:"published_at,omitempty"`
	OpenSessions  int          `json:"open_sessions"`
}

// NodeInfo returns a snapshot of the binding's current identity and state.
func (b *DeviceBinding) NodeInfo() NodeInfo {
	b.mu.Lock()
	info := NodeInfo{
		Name:          b.name,
		ClassName:     b.className,
		Major:         b.major,
		State:         b.state,
		CapacityBytes: b.buffer.Capacity(),
		PublishedAt:   b.publishedAt,
	}
	if b.state == StateNodePublished {
		info.Path = "/dev/" + b.name
	}
	b.mu.Unlock()

	info.OpenSessions = b.sessions.len()
	return info
}

// ToMap converts the snapshot to a map for consumers that merge it into
// larger payloads. Zero values are omitted.
func (i NodeInfo) ToMap() map[string]any {
	result := make(map[string]any)

	result["name"] = i.Name
	result["class_name"] = i.ClassName
	result["state"] = string(i.State)
	result["capacity_bytes"] = i.CapacityBytes
	if i.Major > 0 {
		result["major"] = i.Major
		result["minor"] = i.Minor
	}
	if i.Path != "" {
		result["path"] = i.Path
	}
	if !i.PublishedAt.IsZero() {
		result["published_at"] = i.PublishedAt.Unix()
	}
	if i.OpenSessions > 0 {
		result["open_sessions"] = i.OpenSessions
	}

	return result
}
