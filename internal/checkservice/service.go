// Package checkservice exposes package license checks over gRPC.
//
// The service uses well-known protobuf types for its messages so that no
// generated code is required: the request is a google.protobuf.StringValue
// holding the package name and the response is a google.protobuf.Struct.
package checkservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "licensetree.v1.LicenseChecker"

	checkPackageMethod = "/" + ServiceName + "/CheckPackage"
)

// LicenseCheckerServer is the server API for the LicenseChecker service.
type LicenseCheckerServer interface {
	CheckPackage(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

func RegisterLicenseCheckerServer(s grpc.ServiceRegistrar, srv LicenseCheckerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc for the LicenseChecker service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LicenseCheckerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CheckPackage",
			Handler:    checkPackageHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "licensetree/v1/checker.proto",
}

func checkPackageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LicenseCheckerServer).CheckPackage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: checkPackageMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LicenseCheckerServer).CheckPackage(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
