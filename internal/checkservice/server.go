package checkservice

import (
	"context"
	"errors"
	"strings"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/licensetree/internal/resolver"
)

// Server answers CheckPackage calls with a Resolver.
type Server struct {
	Resolver resolver.Resolver
}

var _ LicenseCheckerServer = (*Server)(nil)

func (s *Server) CheckPackage(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	pkg := strings.TrimSpace(req.GetValue())
	if pkg == "" {
		return nil, status.Error(codes.InvalidArgument, "package name is required")
	}

	res, err := s.Resolver.Resolve(ctx, resolver.Input{Package: pkg})
	if err != nil {
		log.FromContext(ctx).Error(err, "license check failed", "package", pkg)
		return nil, status.Error(errorCode(err), err.Error())
	}
	out, err := encodeResult(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, resolver.ErrEmptyPackageName):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// NewGRPCServer returns a gRPC server with the LicenseChecker and the standard
// health service registered. logger is attached to every request context.
func NewGRPCServer(r resolver.Resolver, logger logr.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(loggerInterceptor(logger)))
	srv := grpc.NewServer(opts...)
	RegisterLicenseCheckerServer(srv, &Server{Resolver: r})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

func loggerInterceptor(logger logr.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = log.IntoContext(ctx, logger.WithValues("method", info.FullMethod))
		return handler(ctx, req)
	}
}
