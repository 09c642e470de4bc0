package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"roomhub/infrastructure/websocket"
	"roomhub/projection"
	"roomhub/repositories"
	"roomhub/runtime"
	"roomhub/runtime/workers"
	"roomhub/sink"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns the process lifecycle, so that deferred
// cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Transcript storage (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING)
	if config.BadgerFilepath == "" {
		options = options.WithInMemory(true)
	}
	db, err := badger.Open(options)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Diagnostics pipeline
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diagnostics := runtime.NewDiagnostics(log, config.DiagnosticsBufferSize)
	stats := projection.NewRoomStats()
	fanout := workers.NewEventFanout(log, diagnostics.Events(), config.SinkTimeout,
		sink.NewLogSink(log),
		sink.NewTranscriptSink(repositories.NewTranscriptRepository(db, log)),
		stats,
	)
	dispatcher := workers.NewDispatcher(log)
	reporter := workers.NewReporterWorker(log, config.ReportInterval,
		[]workers.NamedChannel{{Name: "diagnostics", Channel: diagnostics.Events()}},
		dispatcher.InFlight, stats)

	sup := workers.NewSupervisor(log, diagnostics, config.RestartInterval)
	supervised := make(chan struct{})
	// Not bound to the signal context: the pipeline must outlive the room
	// shutdown to consume its last events, sup.Stop ends it.
	go func() {
		sup.Add(fanout, reporter).Run(context.Background())
		close(supervised)
	}()

	// 4. Room engine
	registry := runtime.NewRegistry(log, dispatcher, diagnostics)

	// 5. WebSocket server
	handler := websocket.NewHandler(registry, log, websocket.Config{
		MaxMessageSize: config.MaxMessageSize,
		SessionOptions: []runtime.SessionOption{
			runtime.WithSessionLogger(log),
			runtime.WithSessionDiagnostics(diagnostics),
			runtime.WithSendTimeout(config.SendTimeout),
		},
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           websocket.SetupRoutes(handler, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. gRPC health service
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting WebSocket server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting gRPC health server", "address", grpcAddress)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		log.Error("Server failed, shutting down", "error", runErr)
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	// Disconnects every session, hijacked websocket connections included.
	registry.Shutdown()
	dispatcher.Wait()
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	// The fanout drains queued events and waits for its sinks before the
	// deferred db.Close runs.
	sup.Stop()
	<-supervised

	for _, stat := range stats.Snapshot() {
		log.Info("Room summary", "room", stat.Room, "joins", stat.Joins, "leaves", stat.Leaves, "notified", stat.Notified)
	}
	delivery, closing := stats.Failures()
	log.Info("Program stopped", "delivery_failures", delivery, "close_failures", closing,
		"diagnostics_dropped", diagnostics.Dropped())
	return runErr
}
