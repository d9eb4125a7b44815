package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-sync/auth"
	"room-sync/infrastructure/socket"
	"room-sync/internal"
	"room-sync/repositories"
	"room-sync/runtime"
	"room-sync/runtime/workers"
	"room-sync/sink"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthService = "room-sync.Room"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the listener and returns once the room is left, so deferred cleanup always runs.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	repository := repositories.NewRoomRepository(db, log)
	if err = repository.SeedTierPolicies(); err != nil {
		return fmt.Errorf("tier policies seeding failed: %w", err)
	}

	// 3. Store behind the session token
	guard := auth.NewTokenGuard(config.JWTSecret)
	if _, err = guard.ValidateToken(config.SessionToken); err != nil {
		return fmt.Errorf("session token rejected: %w", err)
	}
	store := auth.NewGuardedStore(guard, config.SessionToken, repository)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Event bus, supervised so a crash reconnects
	bus := socket.NewBus(log, config.Socket())
	busSupervisor := workers.NewSupervisor(log, config.RestartInterval).Add(bus)
	go busSupervisor.Run(ctx)

	// 6. gRPC health, SERVING only while the room is Live
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	address := fmt.Sprintf("%s:%d", config.Host, config.HealthPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gRPC health server", "address", address, "at", time.Now().UTC())
		if err := grpcServer.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Join the room
	timeline := sink.NewTimeline()
	orchestrator := runtime.NewOrchestrator(log, config.UserID, bus, store, runtime.NewRegistry(), config.Runtime())
	orchestrator.Add(
		sink.NewLogSink(log),
		sink.NewHealthSink(healthServer, healthService),
		timeline,
	)
	if config.DebugPort != nil {
		internal.StartDebugServer(log, db, config.Host, *config.DebugPort, timeline.Stats)
	}
	if _, err = orchestrator.Join(ctx, config.Room()); err != nil {
		return fmt.Errorf("join failed: %w", err)
	}

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		orchestrator.Stop()
		return err
	}

	// 9. Final Cleanup
	orchestrator.Stop()
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	log.Info("Program stopped cleanly")
	return nil
}
