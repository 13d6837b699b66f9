package main

import (
	"chat-relay/auth"
	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/transport/ws"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the transport and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Identity store (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	// Defer will be executed before run() returns anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Relay core
	identities := repositories.NewIdentityRepository(db)
	verifier := auth.NewVerifier(config.JWTSecret)
	authenticator := auth.NewAuthenticator(log, verifier, identities, config.HandshakeTimeout)
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	engine := runtime.NewEngine(log, authenticator, supervisor, config.SinkTimeout)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	engineDone := make(chan struct{})
	go func() {
		engine.Start(ctx, config.MetricInterval)
		close(engineDone)
	}()

	if config.DebugPort > 0 {
		internal.StartDebugServer(log, config.DebugPort, func() map[string]any {
			connections, rooms := engine.Registry().Counts()
			return map[string]any{
				"connections": connections,
				"rooms":       rooms,
			}
		})
	}

	// 6. Websocket surface
	wsServer := ws.NewServer(log, engine.Tracker(), config.SendBufferSize)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWS)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	engine.Stop()
	<-engineDone
	log.Info("Program stopped cleanly")

	return nil
}
