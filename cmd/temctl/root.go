package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/earth-module/tem-dashboard/internal/config"
	"github.com/earth-module/tem-dashboard/internal/logging"
)

var (
	configPath string
	hostFlag   string
	sslFlag    bool
	verifyTLS  bool
	layoutFlag string
	logLevel   string
	logFormat  string

	// cfg is loaded once in PersistentPreRunE and read by every command.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "temctl",
	Short: "Dashboard and control tool for The Earth Module",
	Long: "temctl polls The Earth Module's REST API and serves a live dashboard " +
		"over HTTP, renders it in the terminal, or runs one-shot commands.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyRootFlags(cmd, &loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		// Commands that own the terminal replace this logger.
		logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel(), cfg.Log.Format)
		cmd.SetContext(logging.NewContext(cmd.Context(), logger))
		return nil
	},
}

func applyRootFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		c.Device.Host = hostFlag
	}
	if flags.Changed("ssl") {
		c.Device.SSL = sslFlag
	}
	if flags.Changed("verify-tls") {
		c.Device.VerifyTLS = verifyTLS
	}
	if flags.Changed("layout") {
		c.Device.Layout = layoutFlag
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		c.Log.Format = logFormat
	}
}

// Execute runs the root command until it returns or a signal arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML config file (default $TEM_CONFIG)")
	pf.StringVar(&hostFlag, "host", "", "module address, e.g. 192.168.4.1 or http://tem.local")
	pf.BoolVar(&sslFlag, "ssl", false, "use https when --host has no scheme")
	pf.BoolVar(&verifyTLS, "verify-tls", false, "verify the module's TLS certificate")
	pf.StringVar(&layoutFlag, "layout", "", "output layout: default (2 CV + 2 gate) or legacy (4 CV)")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "", "json or text")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(resetWiFiCmd)
	rootCmd.AddCommand(checkUpdateCmd)
}
