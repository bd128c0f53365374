package chardev

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/NotrixInc/nx-chardev/devrpc"
)

func TestNodeServerOpenRequiresPublishedNode(t *testing.T) {
	b, err := NewDeviceBinding(DeviceConfig{Name: "simple_dev"}, Dependencies{
		Registry: newRecordingRegistry(),
	})
	require.NoError(t, err)
	srv := NewNodeServer(b, nil)

	_, err = srv.Open(context.Background(), &devrpc.OpenRequest{ClientId: "c1"})
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestNodeServerReadWriteRoundTrip(t *testing.T) {
	b := publishedBinding(t, newFakeClock())
	srv := NewNodeServer(b, nil)
	ctx := context.Background()

	opened, err := srv.Open(ctx, &devrpc.OpenRequest{ClientId: "c1"})
	require.NoError(t, err)
	assert.NotEmpty(t, opened.SessionId)
	assert.Equal(t, "/dev/simple_dev", opened.NodePath)
	assert.Equal(t, int64(DefaultCapacity), opened.CapacityBytes)

	wrote, err := srv.Write(ctx, &devrpc.WriteRequest{
		SessionId: opened.SessionId,
		Data:      []byte("HELLOWORLD"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), wrote.Accepted)
	assert.Equal(t, uint64(10), wrote.Position)

	// Reading through a second remote session starts at position 0.
	reader, err := srv.Open(ctx, &devrpc.OpenRequest{ClientId: "c2"})
	require.NoError(t, err)
	read, err := srv.Read(ctx, &devrpc.ReadRequest{SessionId: reader.SessionId, Length: 20})
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLOWORLD"), read.Data)
	assert.Equal(t, uint64(10), read.Position)
}

func TestNodeServerUnknownSession(t *testing.T) {
	b := publishedBinding(t, newFakeClock())
	srv := NewNodeServer(b, nil)
	ctx := context.Background()

	_, err := srv.Read(ctx, &devrpc.ReadRequest{SessionId: "nope", Length: 4})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = srv.Write(ctx, &devrpc.WriteRequest{SessionId: "nope", Data: []byte("x")})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestNodeServerClose(t *testing.T) {
	b := publishedBinding(t, newFakeClock())
	srv := NewNodeServer(b, nil)
	ctx := context.Background()

	opened, err := srv.Open(ctx, &devrpc.OpenRequest{})
	require.NoError(t, err)

	_, err = srv.Close(ctx, &devrpc.CloseRequest{SessionId: opened.SessionId})
	require.NoError(t, err)
	assert.Zero(t, b.OpenSessions())

	_, err = srv.Read(ctx, &devrpc.ReadRequest{SessionId: opened.SessionId, Length: 1})
	assert.Equal(t, codes.NotFound, status.Code(err))

	// Closing an unknown session is a no-op, like close(2) on a stale fd
	// table entry.
	_, err = srv.Close(ctx, &devrpc.CloseRequest{SessionId: "nope"})
	assert.NoError(t, err)
}

func TestNodeServerDropsSessionsClosedUnderneath(t *testing.T) {
	b := publishedBinding(t, newFakeClock())
	srv := NewNodeServer(b, nil)
	ctx := context.Background()

	opened, err := srv.Open(ctx, &devrpc.OpenRequest{})
	require.NoError(t, err)

	// Teardown closes the session behind the server's back.
	require.NoError(t, b.Destroy(ctx))

	_, err = srv.Read(ctx, &devrpc.ReadRequest{SessionId: opened.SessionId, Length: 1})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestNodeServerInfo(t *testing.T) {
	b := publishedBinding(t, newFakeClock())
	srv := NewNodeServer(b, nil)
	ctx := context.Background()

	_, err := srv.Open(ctx, &devrpc.OpenRequest{})
	require.NoError(t, err)

	info, err := srv.Info(ctx, &devrpc.InfoRequest{})
	require.NoError(t, err)
	assert.Equal(t, "simple_dev", info.Name)
	assert.Equal(t, "simple_dev_class", info.ClassName)
	assert.Equal(t, int32(240), info.Major)
	assert.Equal(t, string(StateNodePublished), info.State)
	assert.Equal(t, int64(DefaultCapacity), info.CapacityBytes)
	assert.Equal(t, int32(1), info.OpenSessions)
}
