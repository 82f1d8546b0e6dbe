// Command pressured serves HTTP (and optionally gRPC) behind an admission
// gate that sheds load while the process is under pressure.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jonwraymond/underpressure/admission"
	"github.com/jonwraymond/underpressure/health"
	"github.com/jonwraymond/underpressure/observe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pressured:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, settings.observeConfig())
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	logger := obs.Logger()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "telemetry shutdown failed", observe.F("error", err.Error()))
		}
	}()

	gate, sampler, err := admission.New(ctx, settings.admissionConfig(),
		admission.WithLogger(logger),
		admission.WithMeter(obs.Meter()),
		admission.WithTracer(obs.Tracer()),
	)
	if err != nil {
		return err
	}
	defer sampler.Stop()

	reg, err := health.RegisterGauges(obs.Meter(), sampler)
	if err != nil {
		return fmt.Errorf("register gauges: %w", err)
	}
	defer func() { _ = reg.Unregister() }()

	if !gate.Thresholds().Enabled() {
		logger.Warn(ctx, "no thresholds configured, every request will be accepted")
	}

	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           newMux(gate),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "http server listening", observe.F("addr", settings.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var grpcSrv *grpc.Server
	if settings.GRPCAddr != "" {
		lis, err := net.Listen("tcp", settings.GRPCAddr)
		if err != nil {
			_ = srv.Close()
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = newGRPCServer(gate)
		g.Go(func() error {
			logger.Info(gctx, "grpc server listening", observe.F("addr", settings.GRPCAddr))
			return grpcSrv.Serve(lis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newMux routes the gated application handler and the ungated probe and
// scrape endpoints.
func newMux(gate *admission.Gate) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", admission.HTTPMiddleware(gate)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})))
	health.RegisterHandlers(mux, gate.Checker())
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func newGRPCServer(gate *admission.Gate) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(admission.UnaryServerInterceptor(gate)),
		grpc.ChainStreamInterceptor(admission.StreamServerInterceptor(gate)),
	)
	healthpb.RegisterHealthServer(s, grpchealth.NewServer())
	return s
}
