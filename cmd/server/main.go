package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/config"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/history"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/logging"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/network"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/rpc"
)

// #region main
func main() {
	os.Exit(run())
}

// run owns every deferred cleanup so main can exit only after they ran.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	listen := flag.String("listen", cfg.ListenAddr, "gRPC listen address")
	metricsAddr := flag.String("metrics", cfg.MetricsAddr, "Prometheus /metrics address (empty disables)")
	dbPath := flag.String("db", cfg.DBPath, "history database path")
	ordering := flag.String("ordering", cfg.Ordering, "elimination planner: declaration | min_degree")
	flag.Parse()

	logger, err := logging.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}

	planner, err := inference.PlannerByName(*ordering)
	if err != nil {
		logger.Error("bad ordering", "err", err)
		return 2
	}
	engine := inference.NewEngine(network.Alarm(), inference.WithPlanner(planner))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts := []rpc.ServerOption{
		rpc.WithLogger(logger),
		rpc.WithMetrics(rpc.NewMetrics(reg)),
	}
	if cfg.RecordHistory {
		store, err := history.NewStore(*dbPath)
		if err != nil {
			logger.Error("failed to open history", "db", *dbPath, "err", err)
			return 1
		}
		defer store.Close()
		opts = append(opts, rpc.WithStore(store))
	}
	srv := rpc.NewServer(engine, opts...)

	gs := grpc.NewServer(grpc.UnaryInterceptor(rpc.LoggingInterceptor(logger)))
	srv.Register(gs)

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		logger.Error("listen", "addr", *listen, "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, logger, gs, lis, reg, *metricsAddr, planner.Name()); err != nil {
		logger.Error("server stopped", "err", err)
		return 1
	}
	return 0
}

// serve runs the gRPC and metrics listeners until ctx is done or one fails.
func serve(ctx context.Context, logger *log.Logger, gs *grpc.Server, lis net.Listener, reg *prometheus.Registry, metricsAddr, ordering string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("inference server ready", "addr", lis.Addr().String(), "ordering", ordering)
		return gs.Serve(lis)
	})

	var metricsSrv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("metrics listening", "addr", metricsAddr)
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}

// #endregion main
