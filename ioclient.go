package chardev

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/NotrixInc/nx-chardev/devrpc"
)

// NodeClient connects a remote caller to a device node host.
type NodeClient struct {
	cc *grpc.ClientConn
	c  devrpc.DeviceNodeServiceClient
}

// DialDeviceNode connects to the node host at addr.
func DialDeviceNode(addr string) (*NodeClient, error) {
	// addr format: host:port or unix:///tmp/nx-chardev.sock
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &NodeClient{cc: conn, c: devrpc.NewDeviceNodeServiceClient(conn)}, nil
}

func (c *NodeClient) Close() error { return c.cc.Close() }

// Info returns the node host's current identity and state.
func (c *NodeClient) Info(ctx context.Context) (*devrpc.InfoResponse, error) {
	return c.c.Info(ctx, &devrpc.InfoRequest{})
}

// OpenSession opens a remote session. The remote cursor starts at 0 and is
// owned by this session only.
func (c *NodeClient) OpenSession(ctx context.Context, clientID string) (*RemoteSession, error) {
	resp, err := c.c.Open(ctx, &devrpc.OpenRequest{ClientId: clientID})
	if err != nil {
		return nil, err
	}
	return &RemoteSession{
		c:        c.c,
		id:       resp.SessionId,
		nodePath: resp.NodePath,
		capacity: resp.CapacityBytes,
	}, nil
}

// RemoteSession is the client half of one open session on a remote node.
type RemoteSession struct {
	c        devrpc.DeviceNodeServiceClient
	id       string
	nodePath string
	capacity int64
}

// ID returns the session identifier assigned by the node host.
func (s *RemoteSession) ID() string { return s.id }

// NodePath returns the published node path, e.g. "/dev/simple_dev".
func (s *RemoteSession) NodePath() string { return s.nodePath }

// Capacity returns the node's buffer capacity in bytes.
func (s *RemoteSession) Capacity() int { return int(s.capacity) }

// Read reads up to n bytes at the remote session cursor. Zero bytes with a
// nil error means end-of-data.
func (s *RemoteSession) Read(ctx context.Context, n int) ([]byte, error) {
	resp, err := s.c.Read(ctx, &devrpc.ReadRequest{SessionId: s.id, Length: int64(n)})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Write writes a prefix of p at the remote session cursor and returns the
// number of bytes accepted (input past capacity is truncated).
func (s *RemoteSession) Write(ctx context.Context, p []byte) (int, error) {
	resp, err := s.c.Write(ctx, &devrpc.WriteRequest{SessionId: s.id, Data: p})
	if err != nil {
		return 0, err
	}
	return int(resp.Accepted), nil
}

// Close releases the remote session.
func (s *RemoteSession) Close(ctx context.Context) error {
	_, err := s.c.Close(ctx, &devrpc.CloseRequest{SessionId: s.id})
	return err
}

// RequireNodeAddrFromEnv reads the node host address from the environment.
func RequireNodeAddrFromEnv(getenv func(string) string) (string, error) {
	addr := getenv("NX_CHARDEV_GRPC_ADDR")
	if addr == "" {
		return "", fmt.Errorf("NX_CHARDEV_GRPC_ADDR is required")
	}
	return addr, nil
}
