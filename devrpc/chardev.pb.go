package devrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// This file is intentionally handwritten to avoid protoc in the minimal
// reference. It defines the internal gRPC contract for exposing a published
// character-device node to remote sessions.

type OpenRequest struct {
	ClientId string
}

type OpenResponse struct {
	SessionId     string
	NodePath      string
	CapacityBytes int64
}

type ReadRequest struct {
	SessionId string
	Length    int64
}

type ReadResponse struct {
	Data     []byte
	Position uint64
}

type WriteRequest struct {
	SessionId string
	Data      []byte
}

type WriteResponse struct {
	Accepted int64
	Position uint64
}

type CloseRequest struct {
	SessionId string
}

type CloseResponse struct{}

type InfoRequest struct{}

type InfoResponse struct {
	Name          string
	ClassName     string
	Major         int32
	State         string
	CapacityBytes int64
	OpenSessions  int32
}

// DeviceNodeService: called by remote sessions (client) -> node host (server).
type DeviceNodeServiceClient interface {
	Open(ctx context.Context, in *OpenRequest, opts ...grpc.CallOption) (*OpenResponse, error)
	Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error)
	Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	Close(ctx context.Context, in *CloseRequest, opts ...grpc.CallOption) (*CloseResponse, error)
	Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error)
}

type deviceNodeServiceClient struct{ cc grpc.ClientConnInterface }

func NewDeviceNodeServiceClient(cc grpc.ClientConnInterface) DeviceNodeServiceClient {
	return &deviceNodeServiceClient{cc}
}

func (c *deviceNodeServiceClient) Open(ctx context.Context, in *OpenRequest, opts ...grpc.CallOption) (*OpenResponse, error) {
	out := new(OpenResponse)
	err := c.cc.Invoke(ctx, "/nx.chardev.DeviceNodeService/Open", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceNodeServiceClient) Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error) {
	out := new(ReadResponse)
	err := c.cc.Invoke(ctx, "/nx.chardev.DeviceNodeService/Read", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceNodeServiceClient) Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	out := new(WriteResponse)
	err := c.cc.Invoke(ctx, "/nx.chardev.DeviceNodeService/Write", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceNodeServiceClient) Close(ctx context.Context, in *CloseRequest, opts ...grpc.CallOption) (*CloseResponse, error) {
	out := new(CloseResponse)
	err := c.cc.Invoke(ctx, "/nx.chardev.DeviceNodeService/Close", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceNodeServiceClient) Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error) {
	out := new(InfoResponse)
	err := c.cc.Invoke(ctx, "/nx.chardev.DeviceNodeService/Info", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type DeviceNodeServiceServer interface {
	Open(context.Context, *OpenRequest) (*OpenResponse, error)
	Read(context.Context, *ReadRequest) (*ReadResponse, error)
	Write(context.Context, *WriteRequest) (*WriteResponse, error)
	Close(context.Context, *CloseRequest) (*CloseResponse, error)
	Info(context.Context, *InfoRequest) (*InfoResponse, error)
	mustEmbedUnimplementedDeviceNodeServiceServer()
}

type UnimplementedDeviceNodeServiceServer struct{}

func (UnimplementedDeviceNodeServiceServer) Open(context.Context, *OpenRequest) (*OpenResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Open not implemented")
}
func (UnimplementedDeviceNodeServiceServer) Read(context.Context, *ReadRequest) (*ReadResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Read not implemented")
}
func (UnimplementedDeviceNodeServiceServer) Write(context.Context, *WriteRequest) (*WriteResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Write not implemented")
}
func (UnimplementedDeviceNodeServiceServer) Close(context.Context, *CloseRequest) (*CloseResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Close not implemented")
}
func (UnimplementedDeviceNodeServiceServer) Info(context.Context, *InfoRequest) (*InfoResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Info not implemented")
}
func (UnimplementedDeviceNodeServiceServer) mustEmbedUnimplementedDeviceNodeServiceServer() {}

func RegisterDeviceNodeServiceServer(s grpc.ServiceRegistrar, srv DeviceNodeServiceServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "nx.chardev.DeviceNodeService",
		HandlerType: (*DeviceNodeServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Open",
				Handler: func(_ interface{}, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					in := new(OpenRequest)
					if err := dec(in); err != nil {
						return nil, err
					}
					return srv.Open(ctx, in)
				},
			},
			{
				MethodName: "Read",
				Handler: func(_ interface{}, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					in := new(ReadRequest)
					if err := dec(in); err != nil {
						return nil, err
					}
					return srv.Read(ctx, in)
				},
			},
			{
				MethodName: "Write",
				Handler: func(_ interface{}, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					in := new(WriteRequest)
					if err := dec(in); err != nil {
						return nil, err
					}
					return srv.Write(ctx, in)
				},
			},
			{
				MethodName: "Close",
				Handler: func(_ interface{}, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					in := new(CloseRequest)
					if err := dec(in); err != nil {
						return nil, err
					}
					return srv.Close(ctx, in)
				},
			},
			{
				MethodName: "Info",
				Handler: func(_ interface{}, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					in := new(InfoRequest)
					if err := dec(in); err != nil {
						return nil, err
					}
					return srv.Info(ctx, in)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "chardev.proto",
	}, srv)
}
