package channel

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName    = "joynr.messaging.Channel"
	transmitMethod = "/" + serviceName + "/Transmit"
)

// channelServer is the server API of the channel service
type channelServer interface {
	Transmit(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error)
}

func transmitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(channelServer).Transmit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: transmitMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(channelServer).Transmit(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// channelServiceDesc describes the channel service. Requests carry a CBOR encoded frame.
var channelServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*channelServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Transmit",
			Handler:    transmitHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "joynr/messaging/channel.proto",
}
