package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tobert/hootenanny/cas"
	"github.com/tobert/hootenanny/cmd/internal/bootstrap"
	"github.com/tobert/hootenanny/hoot"
	"github.com/tobert/hootenanny/jobstore"
	"github.com/tobert/hootenanny/wire"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hootenanny",
	Short: "The orchestrator peer: CAS, jobs, and tool dispatch for the gateway",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a local config override file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hootenanny: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	proc, err := bootstrap.New("hootenanny", configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := cas.NewFileStore(cas.Config{
		BasePath:      proc.Config.CAS.BasePath,
		StoreMetadata: proc.Config.CAS.StoreMetadata,
		ReadOnly:      proc.Config.CAS.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("hootenanny: open CAS store: %w", err)
	}

	jobs := jobstore.New()
	if jm, err := proc.Metrics.NewJobStoreMetrics(); err != nil {
		proc.Logger.Warn("hootenanny: job store metrics registration failed", zap.Error(err))
	} else {
		jobs.SetMetrics(jm)
	}

	var garden *wire.Client
	if proc.Config.Garden.ShellEndpoint != "" {
		garden, err = wire.NewClient(wire.DefaultClientConfig("chaosgarden", proc.Config.Garden.ShellEndpoint), proc.Logger)
		if err != nil {
			return fmt.Errorf("hootenanny: connect to chaosgarden: %w", err)
		}
		defer garden.Close()
		if wm, err := proc.Metrics.NewWireMetrics(); err != nil {
			proc.Logger.Warn("hootenanny: wire metrics registration failed", zap.Error(err))
		} else {
			garden.SetMetrics(wm)
		}
	}

	dispatcher := hoot.NewDispatcher(store, jobs, garden)
	pcfg := wire.PeerConfig{
		ServiceName:    "hootenanny",
		RouterEndpoint: proc.Config.Hootenanny.RouterEndpoint,
		PubEndpoint:    proc.Config.Hootenanny.PubEndpoint,
	}
	peer, err := wire.NewPeer(pcfg, dispatcher, proc.Logger)
	if err != nil {
		return fmt.Errorf("hootenanny: bind peer sockets: %w", err)
	}
	defer peer.Close()

	go peer.Run(ctx)
	go func() {
		if err := proc.ServeDiagnostics("127.0.0.1:9100"); err != nil {
			proc.Logger.Warn("hootenanny: diagnostics server stopped", zap.Error(err))
		}
	}()

	proc.Logger.Info("hootenanny: listening",
		zap.String("router", pcfg.RouterEndpoint),
		zap.String("pub", pcfg.PubEndpoint),
	)

	<-ctx.Done()
	proc.Logger.Info("hootenanny: shutting down")
	return nil
}
