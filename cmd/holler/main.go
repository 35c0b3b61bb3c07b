package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tobert/hootenanny/cmd/internal/bootstrap"
	"github.com/tobert/hootenanny/gateway"
	"github.com/tobert/hootenanny/jobstore"
	"github.com/tobert/hootenanny/wire"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "holler",
	Short: "The MCP-to-ZMQ gateway: Streamable HTTP and SSE in front of the HOOT01 peer fabric",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a local config override file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "holler: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	proc, err := bootstrap.New("holler", configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := wire.NewClient(wire.DefaultClientConfig(proc.Config.Wire.ServiceName, proc.Config.Wire.Endpoint), proc.Logger)
	if err != nil {
		return fmt.Errorf("holler: connect to hootenanny: %w", err)
	}
	defer client.Close()
	if wm, err := proc.Metrics.NewWireMetrics(); err != nil {
		proc.Logger.Warn("holler: wire metrics registration failed", zap.Error(err))
	} else {
		client.SetMetrics(wm)
	}

	catalog := gateway.NewCatalog(client)
	if err := catalog.Refresh(ctx); err != nil {
		proc.Logger.Warn("holler: initial tool catalog refresh failed", zap.Error(err))
	}

	jobs := jobstore.New()
	if jm, err := proc.Metrics.NewJobStoreMetrics(); err != nil {
		proc.Logger.Warn("holler: job store metrics registration failed", zap.Error(err))
	} else {
		jobs.SetMetrics(jm)
	}
	classifier := gateway.DefaultClassifier()
	dispatcher := gateway.NewDispatcher(client, jobs, classifier)
	sessions := gateway.NewSessionStore(proc.Config.Gateway.SessionIdleTimeout)

	backends := make([]gateway.BackendConfig, 0, len(proc.Config.Gateway.Backends))
	for i, endpoint := range proc.Config.Gateway.Backends {
		backends = append(backends, gateway.BackendConfig{Name: fmt.Sprintf("backend-%d", i), Endpoint: endpoint})
	}
	subscribers := gateway.NewSubscriberGroup(backends, sessions, proc.Logger)
	go func() {
		if err := subscribers.Run(ctx); err != nil {
			proc.Logger.Warn("holler: subscriber group stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := proc.ServeDiagnostics("127.0.0.1:9101"); err != nil {
			proc.Logger.Warn("holler: diagnostics server stopped", zap.Error(err))
		}
	}()

	handler := gateway.NewServer(gateway.ServerInfo{Name: "hootenanny-holler", Version: "0.1.0"}, sessions, catalog, dispatcher, proc.Logger)

	server := &http.Server{Addr: proc.Config.Gateway.ListenAddr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	proc.Logger.Info("holler: listening", zap.String("addr", proc.Config.Gateway.ListenAddr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("holler: serve: %w", err)
	}

	proc.Logger.Info("holler: shut down")
	return nil
}
