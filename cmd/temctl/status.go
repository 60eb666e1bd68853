package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/dashboard"
	"github.com/earth-module/tem-dashboard/internal/logging"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll the module once and print the dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a := newApp(cfg, logging.FromContext(cmd.Context()))
		snap := a.poller.RunOnce(cmd.Context())
		view := dashboard.Build(snap, a.store.Catalog())
		out := cmd.OutOrStdout()
		if statusJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}
		printView(out, view)
		if !view.Connection.Online() {
			return fmt.Errorf("module at %s did not respond", a.client.BaseURL())
		}
		return nil
	},
}

var paramsCmd = &cobra.Command{
	Use:       "params [cv|gate]",
	Short:     "List the parameters that can drive each output kind",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(catalog.KindCV), string(catalog.KindGate)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := []catalog.Kind{catalog.KindCV, catalog.KindGate}
		if len(args) == 1 {
			kind, err := catalog.ParseKind(args[0])
			if err != nil {
				return err
			}
			kinds = []catalog.Kind{kind}
		}
		cat := catalog.Default()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, kind := range kinds {
			fmt.Fprintf(tw, "%s\n", strings.ToUpper(string(kind)))
			for _, group := range dashboard.Options(cat, kind, -1) {
				fmt.Fprintf(tw, "  %s\n", group.Label)
				for _, opt := range group.Options {
					badge := ""
					if opt.IsNew {
						badge = "NEW"
					}
					fmt.Fprintf(tw, "    %d\t%s\t%s\t%s\n", opt.ID, opt.Label, opt.Detail, badge)
				}
			}
		}
		return tw.Flush()
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the full view as JSON")
}

func printView(w io.Writer, view dashboard.View) {
	d := view.Device
	fmt.Fprintf(w, "%s  [%s]\n", d.Hostname, view.Connection)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, line := range [][2]string{
		{"Version", d.Version},
		{"IP", d.IP},
		{"WiFi", strings.TrimSpace(d.SSID + " " + d.Signal)},
		{"Memory", d.Memory},
		{"Uptime", d.Uptime},
		{"Location", strings.TrimSpace(d.City + " " + d.Coordinates)},
	} {
		if line[1] != "" {
			fmt.Fprintf(tw, "%s\t%s\n", line[0], line[1])
		}
	}
	if view.Update.Available {
		fmt.Fprintf(tw, "Update\t%s available\n", view.Update.LatestVersion)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, tile := range view.Tiles {
		text := tile.Text
		if tile.Available {
			text += tile.Unit
		}
		fmt.Fprintf(tw, "%s\t%s\n", tile.Label, text)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, card := range view.Cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", card.Title, card.Output.Text, card.ParamLabel, card.Actual)
	}
	_ = tw.Flush()
}
