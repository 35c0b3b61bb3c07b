package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tobert/hootenanny/cmd/internal/bootstrap"
	"github.com/tobert/hootenanny/garden"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chaosgarden",
	Short: "The realtime audio/timeline kernel, speaking the 4-socket HOOT01 control protocol",
	RunE:  runGarden,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a local config override file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chaosgarden: %v\n", err)
		os.Exit(1)
	}
}

func runGarden(cmd *cobra.Command, args []string) error {
	proc, err := bootstrap.New("chaosgarden", configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := garden.NewStore()
	defer store.Close()

	dispatcher := garden.NewToolDispatcher(store)
	kcfg := garden.KernelConfig{
		ControlEndpoint:   proc.Config.Garden.ControlEndpoint,
		ShellEndpoint:     proc.Config.Garden.ShellEndpoint,
		IOPubEndpoint:     proc.Config.Garden.IOPubEndpoint,
		HeartbeatEndpoint: proc.Config.Garden.HeartbeatEndpoint,
		ServiceName:       "chaosgarden",
	}
	kernel, err := garden.NewKernel(kcfg, store, dispatcher, proc.Logger)
	if err != nil {
		return fmt.Errorf("chaosgarden: bind kernel sockets: %w", err)
	}
	defer kernel.Close()

	ticker := garden.NewTicker(store, func(ev garden.TickEvent) {
		publishTickEvent(kernel, ev)
	})

	go kernel.RunControl(ctx)
	go kernel.RunShell(ctx)
	go kernel.RunHeartbeat(ctx)
	go ticker.Run(ctx)
	go func() {
		if err := proc.ServeDiagnostics("127.0.0.1:9102"); err != nil {
			proc.Logger.Warn("chaosgarden: diagnostics server stopped", zap.Error(err))
		}
	}()

	proc.Logger.Info("chaosgarden: listening",
		zap.String("control", kcfg.ControlEndpoint),
		zap.String("shell", kcfg.ShellEndpoint),
		zap.String("iopub", kcfg.IOPubEndpoint),
	)

	<-ctx.Done()
	proc.Logger.Info("chaosgarden: shutting down")
	return nil
}

func publishTickEvent(kernel *garden.Kernel, ev garden.TickEvent) {
	topic, env := tickEventToBroadcast(ev)
	if env == nil {
		return
	}
	_ = kernel.Publish(topic, env)
}
