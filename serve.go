package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/bayleafwalker/licensetree/internal/checkservice"
	"github.com/bayleafwalker/licensetree/internal/resolver"
)

const shutdownTimeout = 10 * time.Second

// runServe runs the gRPC check service and the metrics endpoint until ctx is
// canceled.
func runServe(ctx context.Context, r resolver.Resolver, grpcAddr, metricsAddr string) int {
	logger := log.FromContext(ctx)

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Error(err, "unable to listen", "address", grpcAddr)
		return exitError
	}
	grpcServer, healthServer := checkservice.NewGRPCServer(r, logger.WithName("checkservice"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ctrlmetrics.Registry, promhttp.HandlerOpts{}))
	checks := http.StripPrefix("/healthz", &healthz.Handler{Checks: map[string]healthz.Checker{"ping": healthz.Ping}})
	mux.Handle("/healthz", checks)
	mux.Handle("/healthz/", checks)
	httpServer := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting gRPC check service", "address", lis.Addr().String())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("starting metrics server", "address", metricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(err, "server stopped")
		return exitError
	}
	return exitPass
}
