// Package rpc exposes the inference engine as a gRPC service. Messages are
// google.protobuf.Struct values, so the service needs no generated stubs.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
const (
	ServiceName     = "alarminference.Inference"
	InferMethod     = "/" + ServiceName + "/Infer"
	errorInfoDomain = "alarminference"
)

// InferenceServer is the server API for the Inference service.
type InferenceServer interface {
	Infer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Inference service for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InferenceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Infer", Handler: inferHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarminference/inference",
}

func inferHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServer).Infer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InferMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InferenceServer).Infer(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterInferenceServer registers srv on r.
func RegisterInferenceServer(r grpc.ServiceRegistrar, srv InferenceServer) {
	r.RegisterService(&ServiceDesc, srv)
}

// #endregion service-desc
