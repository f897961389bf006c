package checkservice

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/bayleafwalker/licensetree/internal/pkgdata"
	"github.com/bayleafwalker/licensetree/internal/resolver"
)

func startServer(t *testing.T, r resolver.Resolver) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, _ := NewGRPCServer(r, logr.Discard())
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newResolver(t *testing.T) *resolver.LicenseResolver {
	t.Helper()
	q := pkgdata.NewStaticQuerier(pkgdata.Fixture{Packages: map[string]pkgdata.StaticPackage{
		"busybox": {License: "GPLv2", RDepends: "libc6"},
		"gnupg":   {License: "GPLv3", RDepends: "libc6"},
		"libc6":   {Recipe: "glibc", License: "GPLv2 & LGPLv2.1"},
	}})
	p, err := pkgdata.NewProvider(q)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return resolver.NewLicenseResolver(p, resolver.Options{Prohibited: sets.New("GPLv3", "LGPLv3")})
}

func TestCheckPackage_RoundTrip(t *testing.T) {
	c := NewClient(startServer(t, newResolver(t)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.CheckPackage(ctx, "busybox")
	if err != nil {
		t.Fatalf("CheckPackage: %v", err)
	}
	want := &CheckResponse{Package: "busybox", Passed: true, Licenses: []string{"GPLv2"}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("unexpected response (-want +got):\n%s", diff)
	}

	resp, err = c.CheckPackage(ctx, "gnupg")
	if err != nil {
		t.Fatalf("CheckPackage: %v", err)
	}
	if resp.Passed || len(resp.Licenses) != 0 {
		t.Fatalf("expected gnupg to fail, got %+v", resp)
	}
	if !strings.HasPrefix(resp.Tree, "gnupg: [GPLv3] -> []") {
		t.Fatalf("expected tree dump for failing package, got %q", resp.Tree)
	}
}

func TestCheckPackage_InvalidArgument(t *testing.T) {
	c := NewClient(startServer(t, newResolver(t)))

	_, err := c.CheckPackage(context.Background(), "  ")
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, resolver.Input) (resolver.Result, error) {
	return resolver.Result{}, f.err
}

func TestCheckPackage_IterationLimitIsInternal(t *testing.T) {
	c := NewClient(startServer(t, failingResolver{err: resolver.ErrIterationLimit}))

	_, err := c.CheckPackage(context.Background(), "loop")
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
	if !strings.Contains(status.Convert(err).Message(), "iteration limit") {
		t.Fatalf("expected message to mention iteration limit, got %q", status.Convert(err).Message())
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{err: context.Canceled, want: codes.Canceled},
		{err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{err: resolver.ErrEmptyPackageName, want: codes.InvalidArgument},
		{err: errors.New("boom"), want: codes.Internal},
	}
	for _, tc := range tests {
		if got := errorCode(tc.err); got != tc.want {
			t.Errorf("errorCode(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestHealth(t *testing.T) {
	conn := startServer(t, newResolver(t))

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}
}
