package chardev

// Registry-side contract notes:
//
// A DeviceRegistry implementation stands in for the platform's device
// management layer. The DeviceBinding drives it with a fixed ordering
// contract that implementations can rely on:
//
// - Acquisition order is always RegisterChar, CreateClass, PublishNode.
// - Release order is always the exact reverse: RemoveNode, DestroyClass,
//   UnregisterChar.
// - A handle is released at most once, and only by the binding that
//   acquired it.
// - Releases during rollback or teardown are best-effort: the binding
//   calls every remaining release even if an earlier one fails, so
//   implementations should make releases safe to attempt after a partial
//   failure.
// - PublishNode is only called with a class handle and major number
//   obtained from the same registry in the same Create attempt, so a node
//   is never visible without its class and major alive.
//
// Implementations in this repo: MemoryRegistry (in-process) and
// HTTPDeviceRegistry (device-manager REST API).
//
// This file is documentation-only (no runtime code required).
