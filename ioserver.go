package chardev

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/NotrixInc/nx-chardev/devrpc"
)

// NodeServer exposes a published DeviceBinding over the DeviceNodeService
// gRPC contract. Every remote open maps to one local session, so remote
// callers get the same per-session cursor independence as local ones.
type NodeServer struct {
	devrpc.UnimplementedDeviceNodeServiceServer

	binding *DeviceBinding
	logger  Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewNodeServer creates a server for the given binding.
func NewNodeServer(b *DeviceBinding, logger Logger) *NodeServer {
	return &NodeServer{
		binding:  b,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Register registers the DeviceNodeService on gs.
func (s *NodeServer) Register(gs grpc.ServiceRegistrar) {
	devrpc.RegisterDeviceNodeServiceServer(gs, s)
}

func (s *NodeServer) Open(ctx context.Context, req *devrpc.OpenRequest) (*devrpc.OpenResponse, error) {
	sess, err := s.binding.Open()
	if err != nil {
		return nil, ioStatus(err)
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("remote session opened",
			"device", s.binding.Name(), "session", sess.ID(), "client", req.ClientId)
	}

	return &devrpc.OpenResponse{
		SessionId:     sess.ID(),
		NodePath:      s.binding.NodeInfo().Path,
		CapacityBytes: int64(s.binding.Capacity()),
	}, nil
}

func (s *NodeServer) Read(ctx context.Context, req *devrpc.ReadRequest) (*devrpc.ReadResponse, error) {
	sess, err := s.lookup(req.SessionId)
	if err != nil {
		return nil, err
	}

	data, err := sess.Read(int(req.Length))
	if err != nil {
		s.dropIfClosed(req.SessionId, err)
		return nil, ioStatus(err)
	}
	return &devrpc.ReadResponse{Data: data, Position: sess.Position()}, nil
}

func (s *NodeServer) Write(ctx context.Context, req *devrpc.WriteRequest) (*devrpc.WriteResponse, error) {
	sess, err := s.lookup(req.SessionId)
	if err != nil {
		return nil, err
	}

	accepted, err := sess.Write(req.Data)
	if err != nil {
		s.dropIfClosed(req.SessionId, err)
		return nil, ioStatus(err)
	}
	return &devrpc.WriteResponse{Accepted: int64(accepted), Position: sess.Position()}, nil
}

func (s *NodeServer) Close(ctx context.Context, req *devrpc.CloseRequest) (*devrpc.CloseResponse, error) {
	s.mu.Lock()
	sess, ok := s.sessions[req.SessionId]
	delete(s.sessions, req.SessionId)
	s.mu.Unlock()

	if ok {
		_ = sess.Close()
	}
	return &devrpc.CloseResponse{}, nil
}

func (s *NodeServer) Info(ctx context.Context, req *devrpc.InfoRequest) (*devrpc.InfoResponse, error) {
	info := s.binding.NodeInfo()
	return &devrpc.InfoResponse{
		Name:          info.Name,
		ClassName:     info.ClassName,
		Major:         int32(info.Major),
		State:         string(info.State),
		CapacityBytes: int64(info.CapacityBytes),
		OpenSessions:  int32(info.OpenSessions),
	}, nil
}

func (s *NodeServer) lookup(sessionID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown session %q", sessionID)
	}
	return sess, nil
}

// dropIfClosed removes sessions that were closed underneath the server
// (binding teardown or idle reaping) so later calls get NotFound.
func (s *NodeServer) dropIfClosed(sessionID string, err error) {
	if !errors.Is(err, ErrSessionClosed) {
		return
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// ioStatus maps the I/O error taxonomy onto gRPC status codes.
func ioStatus(err error) error {
	switch {
	case errors.Is(err, ErrDeviceNotReady):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrSessionClosed):
		return status.Error(codes.NotFound, err.Error())
	case IsTransferFault(err):
		return status.Error(codes.DataLoss, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
