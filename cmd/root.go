package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lislabs/flutter-webview-windows/internal/config"
	"github.com/lislabs/flutter-webview-windows/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string

	rootCmd = &cobra.Command{
		Use:   "webview-bridge",
		Short: "webview-bridge - embedded browser composition bridge",
		Long: `webview-bridge hosts off-screen browser sessions and exposes them to a
widget toolkit over a local socket: the widget sends navigation, resize and
pointer input; the bridge forwards them into the engine and streams the
engine's navigation, title and cursor events back.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				config.SetConfigPath(configPath)
			}
			if err := config.Init(); err != nil {
				return err
			}
			if level := config.Get().Logging.LogLevel; level != "" {
				logger.SetLevel(level)
			}
			return nil
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd)
}
