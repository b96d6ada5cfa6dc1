package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lislabs/flutter-webview-windows/internal/bridge"
	"github.com/lislabs/flutter-webview-windows/internal/config"
	"github.com/lislabs/flutter-webview-windows/internal/engine"
	"github.com/lislabs/flutter-webview-windows/internal/engine/webview2"
	"github.com/lislabs/flutter-webview-windows/internal/ipc"
	"github.com/lislabs/flutter-webview-windows/internal/logger"
	"github.com/lislabs/flutter-webview-windows/internal/webview"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon",
	Long: `Starts the bridge socket and serves webview sessions until interrupted.
Sessions created by a connection are disposed when that connection drops.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	host := webview.NewHost(webview.HostOptions{
		NewEnvironment: func() (engine.Environment, error) {
			return webview2.NewEnvironment(webview2.Options{
				BrowserArguments: cfg.Engine.BrowserArguments,
				UserDataDir:      cfg.Engine.UserDataDir,
			})
		},
		NewCompositor:     webview2.NewCompositor,
		CreateDebugWindow: webview2.CreateDebugWindow,
		DestroyWindow:     webview2.DestroyWindow,
	})
	defer func() {
		if err := host.Close(); err != nil {
			logger.Errorf("host shutdown error: %v", err)
		}
	}()

	server := ipc.NewSocketServer(cfg.IPC.SocketPath, func() (ipc.MethodHandler, func()) {
		plugin := bridge.NewPlugin(host, bridge.PluginOptions{
			OffscreenOnly: cfg.Engine.OffscreenOnly,
			UserAgent:     cfg.Engine.UserAgent,
		})
		return plugin, plugin.DisposeAll
	})
	server.SetMaxClients(cfg.IPC.MaxClients)

	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig
	logger.Infof("received %s, shutting down", s)

	return nil
}
