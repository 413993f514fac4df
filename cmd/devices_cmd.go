package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/tetherlink/internal/tether"
)

func deviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect and manage this device's pairing identity",
	}
	cmd.AddCommand(deviceIDCmd())
	cmd.AddCommand(deviceListCmd())
	cmd.AddCommand(deviceSetRoleCmd())
	cmd.AddCommand(deviceClearRoleCmd())
	return cmd
}

func deviceIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print this device's id and role",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			fmt.Printf("%s\t%s\t%s\n", app.identity.DeviceID(), app.identity.DeviceType(), app.deviceName())
		},
	}
}

func deviceListCmd() *cobra.Command {
	var roleFilter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List devices registered on the server",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()

			devices, err := app.gateway.ActiveDevices(context.Background(), tether.DeviceType(roleFilter))
			if err != nil {
				fatalf("Error: %s", err)
			}

			if asJSON {
				data, _ := json.MarshalIndent(devices, "", "  ")
				fmt.Println(string(data))
				return
			}

			if len(devices) == 0 {
				fmt.Println("No devices registered.")
				return
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DEVICE ID\tNAME\tTYPE")
			for _, d := range devices {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.DeviceID, d.DeviceName, d.DeviceType)
			}
			w.Flush()
		},
	}

	cmd.Flags().StringVar(&roleFilter, "type", "", "filter by role (pc or phone)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func deviceSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <pc|phone>",
		Short: "Force this device's pairing role",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			if err := app.identity.SetForcedDeviceType(tether.DeviceType(args[0])); err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Printf("Role set to %s.\n", args[0])
		},
	}
}

func deviceClearRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-role",
		Short: "Remove the forced role and use automatic detection",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			if err := app.identity.ClearForcedDeviceType(); err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Printf("Role cleared; detected role is %s.\n", app.identity.DeviceType())
		},
	}
}
