// Command chardevd registers a fixed-capacity character device node and
// serves it to remote sessions over gRPC.
//
// The device identity is acquired from a device registry: by default an
// in-process one, or a device-manager REST API when --devmgr is set. On
// SIGINT/SIGTERM the node is unpublished and all identity resources are
// released in reverse order of acquisition.
//
// Examples:
//
//	# Serve the default 1 KiB device on :9400
//	chardevd serve --name simple_dev
//
//	# Serve a device declared in a config file, registered with a
//	# device manager
//	chardevd serve --config /etc/nx/chardev.yaml --devmgr http://127.0.0.1:8090
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	chardev "github.com/NotrixInc/nx-chardev"
)

var rootCmd = &cobra.Command{
	Use:   "chardevd",
	Short: "chardevd hosts a fixed-capacity character device node.",
}

var (
	configPath    string
	listenAddr    string
	devmgrAddr    string
	deviceName    string
	capacityBytes int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Register the device node and serve it over gRPC.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "device config file (YAML)")
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":9400", "gRPC listen address")
	serveCmd.Flags().StringVar(&devmgrAddr, "devmgr", "", "device-manager HTTP address (empty = in-process registry)")
	serveCmd.Flags().StringVar(&deviceName, "name", "simple_dev", "device node name (ignored when --config is set)")
	serveCmd.Flags().IntVar(&capacityBytes, "capacity", chardev.DefaultCapacity, "buffer capacity in bytes (ignored when --config is set)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := chardev.NewStdLogger()

	var cfg chardev.DeviceConfig
	if configPath != "" {
		var err error
		cfg, err = chardev.LoadDeviceConfig(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = chardev.DeviceConfig{Name: deviceName, CapacityBytes: capacityBytes}
		if err := cfg.Normalize(); err != nil {
			return err
		}
	}

	var registry chardev.DeviceRegistry
	if devmgrAddr != "" {
		registry = chardev.NewHTTPDeviceRegistry(devmgrAddr)
	} else {
		registry = chardev.NewMemoryRegistry()
	}

	binding, err := chardev.NewDeviceBinding(cfg, chardev.Dependencies{
		Registry: registry,
		Logger:   logger,
		Notifier: chardev.NewLogNotifier(logger),
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := binding.Create(ctx); err != nil {
		return err
	}

	reaper := chardev.NewSessionReaper(binding, time.Minute, cfg.SessionTTL(), logger)
	reaper.Start()

	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		reaper.Stop()
		_ = binding.Destroy(ctx)
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	}

	server := grpc.NewServer()
	chardev.NewNodeServer(binding, logger).Register(server)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(lis) }()

	logger.Info("serving device node",
		"device", cfg.Name, "capacity_bytes", binding.Capacity(), "listen", listenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("grpc server failed", "error", err)
		}
	}

	server.GracefulStop()
	reaper.Stop()
	if err := binding.Destroy(ctx); err != nil {
		logger.Error("teardown finished with errors", "error", err)
	}
	return nil
}
