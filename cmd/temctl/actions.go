package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/logging"
	"github.com/earth-module/tem-dashboard/internal/resolver"
	"github.com/earth-module/tem-dashboard/internal/service"
)

var (
	confirmFlag bool
	locLat      float64
	locLng      float64
	locCity     string
)

var errNeedsYes = errors.New("this action needs --yes")

func serviceFor(cmd *cobra.Command) *service.Service {
	return newApp(cfg, logging.FromContext(cmd.Context())).service
}

// confirmErr turns the service's confirmation error into a flag hint.
func confirmErr(err error) error {
	if errors.Is(err, service.ErrConfirmationRequired) {
		return errNeedsYes
	}
	return err
}

var assignCmd = &cobra.Command{
	Use:     "assign <cv|gate> <index> <param-id>",
	Short:   "Route a parameter to an output channel",
	Example: "  temctl assign cv 1 10     # CV 1 follows the moon phase\n  temctl assign gate 2 11   # GATE 2 switches at day/night",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := catalog.ParseKind(args[0])
		if err != nil {
			return err
		}
		number, err := strconv.Atoi(args[1])
		if err != nil || number < 1 {
			return fmt.Errorf("invalid index %q", args[1])
		}
		id, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid parameter id %q", args[2])
		}
		svc := serviceFor(cmd)
		index := number - 1
		if err := svc.Assign(cmd.Context(), kind, index, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", kind.ChannelName(index), resolver.Label(svc.Store().Catalog(), kind, id))
		return nil
	},
}

var locationCmd = &cobra.Command{
	Use:     "location --lat <deg> --lng <deg>",
	Short:   "Set the module's location",
	Example: "  temctl location --lat=-33.9249 --lng=18.4241 --city \"Cape Town\"",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
			return errors.New("--lat and --lng are required")
		}
		if err := serviceFor(cmd).SetLocation(cmd.Context(), locLat, locLng, locCity); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "location set to %.4f, %.4f\n", locLat, locLng)
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the module's API keys",
}

var keysSetCmd = &cobra.Command{
	Use:   "set <openweather|nasa> <key>",
	Short: "Store an API key on the module",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := serviceFor(cmd).SaveKey(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s key saved\n", args[0])
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <openweather|nasa>",
	Short: "Remove an API key from the module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := serviceFor(cmd).DeleteKey(cmd.Context(), args[0], confirmFlag); err != nil {
			return confirmErr(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s key deleted\n", args[0])
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := serviceFor(cmd).Restart(cmd.Context(), confirmFlag); err != nil {
			return confirmErr(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "restart requested")
		return nil
	},
}

var resetWiFiCmd = &cobra.Command{
	Use:   "reset-wifi",
	Short: "Erase WiFi credentials; the module reopens its setup access point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := serviceFor(cmd).ResetWiFi(cmd.Context(), confirmFlag); err != nil {
			return confirmErr(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wifi reset requested")
		return nil
	},
}

var checkUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Ask the module whether newer firmware exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info, err := serviceFor(cmd).CheckUpdate(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !info.Available {
			fmt.Fprintf(out, "firmware %s is up to date\n", info.CurrentVersion)
			return nil
		}
		fmt.Fprintf(out, "update available: %s → %s\n", info.CurrentVersion, info.LatestVersion)
		if info.WizardURL != "" {
			fmt.Fprintf(out, "install from %s\n", info.WizardURL)
		}
		return nil
	},
}

func init() {
	locationCmd.Flags().Float64Var(&locLat, "lat", 0, "latitude, -90..90")
	locationCmd.Flags().Float64Var(&locLng, "lng", 0, "longitude, -180..180")
	locationCmd.Flags().StringVar(&locCity, "city", "", "display name stored with the location")

	for _, c := range []*cobra.Command{keysDeleteCmd, restartCmd, resetWiFiCmd} {
		c.Flags().BoolVarP(&confirmFlag, "yes", "y", false, "confirm the action")
	}
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysDeleteCmd)
}
