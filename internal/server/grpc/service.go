package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the tracker gRPC service.
const ServiceName = "cargotrack.v1.Tracker"

const (
	snapshotMethod = "/" + ServiceName + "/Snapshot"
	syncMethod     = "/" + ServiceName + "/Sync"
)

// TrackerServer is the server API of the tracker service. Responses are
// generic structs so no generated code is needed.
type TrackerServer interface {
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Sync(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var TrackerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrackerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Snapshot", Handler: unaryHandler(snapshotMethod, TrackerServer.Snapshot)},
		{MethodName: "Sync", Handler: unaryHandler(syncMethod, TrackerServer.Sync)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cargotrack/tracker.proto",
}

func RegisterTrackerServer(s grpc.ServiceRegistrar, srv TrackerServer) {
	s.RegisterService(&TrackerServiceDesc, srv)
}

type methodFunc func(TrackerServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call methodFunc) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TrackerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TrackerServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// TrackerClient calls the tracker service.
type TrackerClient struct {
	cc grpc.ClientConnInterface
}

func NewTrackerClient(cc grpc.ClientConnInterface) *TrackerClient {
	return &TrackerClient{cc: cc}
}

func (c *TrackerClient) Snapshot(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, snapshotMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TrackerClient) Sync(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, syncMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
