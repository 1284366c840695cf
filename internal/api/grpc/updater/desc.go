package updater

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "releasechannels.v1.UpdaterService"

// Full method names used by clients.
const (
	FetchUpdateMethod       = "/" + ServiceName + "/FetchUpdate"
	InstallUpdateMethod     = "/" + ServiceName + "/InstallUpdate"
	SetChannelMethod        = "/" + ServiceName + "/SetChannel"
	GetChannelMethod        = "/" + ServiceName + "/GetChannel"
	AvailableChannelsMethod = "/" + ServiceName + "/AvailableChannels"
)

// UpdaterServer is the server API for the update commands.
type UpdaterServer interface {
	FetchUpdate(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	InstallUpdate(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	SetChannel(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetChannel(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error)
	AvailableChannels(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
}

// ServiceDesc describes the update service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Mirrors generated *_grpc.pb.go descriptors.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UpdaterServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FetchUpdate",
			Handler:    unary(FetchUpdateMethod, newEmpty, UpdaterServer.FetchUpdate),
		},
		{
			MethodName: "InstallUpdate",
			Handler:    unary(InstallUpdateMethod, newEmpty, UpdaterServer.InstallUpdate),
		},
		{
			MethodName: "SetChannel",
			Handler:    unary(SetChannelMethod, newString, UpdaterServer.SetChannel),
		},
		{
			MethodName: "GetChannel",
			Handler:    unary(GetChannelMethod, newEmpty, UpdaterServer.GetChannel),
		},
		{
			MethodName: "AvailableChannels",
			Handler:    unary(AvailableChannelsMethod, newEmpty, UpdaterServer.AvailableChannels),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "releasechannels/v1/updater.proto",
}

// RegisterUpdaterServer registers srv on the gRPC server.
func RegisterUpdaterServer(s grpc.ServiceRegistrar, srv UpdaterServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }

func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// unary builds a method handler that decodes Req and dispatches to call,
// honouring any configured interceptor.
func unary[Req, Resp proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(UpdaterServer, context.Context, Req) (Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		server, ok := srv.(UpdaterServer)
		if !ok {
			return nil, status.Errorf(codes.Unimplemented, "%T does not implement %s", srv, ServiceName)
		}

		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(Req)
			if !ok {
				return nil, status.Errorf(codes.Internal, "unexpected request type %T", req)
			}

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}
