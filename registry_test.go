package chardev

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistryAllocatesDistinctMajors(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	a, err := reg.RegisterChar(ctx, "dev_a")
	require.NoError(t, err)
	b, err := reg.RegisterChar(ctx, "dev_b")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = reg.RegisterChar(ctx, "dev_a")
	assert.Error(t, err, "duplicate name must be rejected")

	_, err = reg.RegisterChar(ctx, "  ")
	assert.Error(t, err)
}

func TestMemoryRegistryUnregister(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	major, err := reg.RegisterChar(ctx, "dev_a")
	require.NoError(t, err)
	require.NoError(t, reg.UnregisterChar(ctx, major, "dev_a"))

	assert.Error(t, reg.UnregisterChar(ctx, major, "dev_a"))

	// The name is free again after unregistering.
	_, err = reg.RegisterChar(ctx, "dev_a")
	assert.NoError(t, err)
}

func TestMemoryRegistryClassLifecycle(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	class, err := reg.CreateClass(ctx, "dev_class")
	require.NoError(t, err)

	_, err = reg.CreateClass(ctx, "dev_class")
	assert.Error(t, err, "duplicate class must be rejected")

	require.NoError(t, reg.DestroyClass(ctx, class))
	assert.Error(t, reg.DestroyClass(ctx, class))
}

func TestMemoryRegistryPublishRequiresClassAndMajor(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	_, err := reg.PublishNode(ctx, ClassHandle("class:ghost"), 240, "dev_a")
	assert.Error(t, err)

	major, err := reg.RegisterChar(ctx, "dev_a")
	require.NoError(t, err)
	class, err := reg.CreateClass(ctx, "dev_class")
	require.NoError(t, err)

	_, err = reg.PublishNode(ctx, class, major+1, "dev_a")
	assert.Error(t, err, "unknown major must be rejected")

	node, err := reg.PublishNode(ctx, class, major, "dev_a")
	require.NoError(t, err)

	// A class with live nodes cannot be destroyed.
	assert.Error(t, reg.DestroyClass(ctx, class))

	require.NoError(t, reg.RemoveNode(ctx, node))
	assert.NoError(t, reg.DestroyClass(ctx, class))

	majors, classes, nodes := reg.LiveCounts()
	assert.Equal(t, 1, majors)
	assert.Zero(t, classes)
	assert.Zero(t, nodes)
}

func TestBindingLifecycleAgainstMemoryRegistry(t *testing.T) {
	reg := NewMemoryRegistry()
	b, err := NewDeviceBinding(DeviceConfig{Name: "simple_dev"}, Dependencies{Registry: reg})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Create(ctx))

	majors, classes, nodes := reg.LiveCounts()
	assert.Equal(t, 1, majors)
	assert.Equal(t, 1, classes)
	assert.Equal(t, 1, nodes)

	require.NoError(t, b.Destroy(ctx))

	majors, classes, nodes = reg.LiveCounts()
	assert.Zero(t, majors)
	assert.Zero(t, classes)
	assert.Zero(t, nodes)
}
