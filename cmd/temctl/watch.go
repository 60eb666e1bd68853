package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/earth-module/tem-dashboard/internal/logging"
	"github.com/earth-module/tem-dashboard/internal/tui"
)

var watchLogFile string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the live dashboard in the terminal",
	Long: "watch polls the module and renders readings and outputs in the " +
		"terminal. Outputs can be reassigned from the keyboard. Logs go to a " +
		"file because the dashboard owns the screen.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = watchLogFile
		}
		return runWatch(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log destination (default <tmp>/temctl.log)")
}

func runWatch(parent context.Context) error {
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(os.TempDir(), "temctl.log")
	}
	logger, closer, err := logging.OpenFile(path, cfg.LogLevel(), cfg.Log.Format)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a := newApp(cfg, logger)
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		a.poller.Run(ctx)
	}()

	err = tui.Run(ctx, a.store, a.service, logger)
	cancel()
	<-pollDone
	return err
}
