package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/tetherlink/internal/tether"
)

func pairingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairing",
		Short: "Initiate, accept, and tear down device pairings",
	}
	cmd.AddCommand(pairingInitiateCmd())
	cmd.AddCommand(pairingAcceptCmd())
	cmd.AddCommand(pairingRejectCmd())
	cmd.AddCommand(pairingDisconnectCmd())
	cmd.AddCommand(pairingStatusCmd())
	cmd.AddCommand(pairingQRCmd())
	return cmd
}

func pairingInitiateCmd() *cobra.Command {
	var formSession, formType string

	cmd := &cobra.Command{
		Use:   "initiate <toDeviceId>",
		Short: "Ask another device to pair with this one",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()

			err := app.gateway.Initiate(context.Background(), tether.InitiateRequest{
				DeviceType:    app.identity.DeviceType(),
				DeviceID:      app.identity.DeviceID(),
				DeviceName:    app.deviceName(),
				ToDeviceID:    args[0],
				FormSessionID: formSession,
				FormType:      formType,
			})
			if err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Printf("Pairing request sent to %s.\n", args[0])
		},
	}

	cmd.Flags().StringVar(&formSession, "form-session", "", "form session to attach photos to")
	cmd.Flags().StringVar(&formType, "form-type", "", "form type (add-car, edit-car)")
	return cmd
}

func pairingAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <requestId>",
		Short: "Accept an incoming pairing request",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			if err := app.gateway.Accept(context.Background(), args[0]); err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Println("Pairing accepted.")
		},
	}
}

func pairingRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <requestId>",
		Short: "Reject an incoming pairing request",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			if err := app.gateway.Reject(context.Background(), args[0]); err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Println("Pairing rejected.")
		},
	}
}

func pairingDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <connectionId>",
		Short: "End an active pairing",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			if err := app.gateway.Disconnect(context.Background(), args[0]); err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Println("Disconnected.")
		},
	}
}

func pairingStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show this device's pairing status",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()

			resp, err := app.gateway.Status(context.Background(), app.identity.DeviceID())
			if err != nil {
				fatalf("Error: %s", err)
			}
			if asJSON {
				data, _ := json.MarshalIndent(resp, "", "  ")
				fmt.Println(string(data))
				return
			}
			printStatus(&resp.ConnectionStatus)
			if resp.FormSessionID != "" {
				fmt.Printf("Active form session: %s\n", resp.FormSessionID)
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

// pairingQRCmd prints this device's id as a terminal QR code so a phone can
// scan it and initiate the pairing.
func pairingQRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qr",
		Short: "Show this device's id as a scannable QR code",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()

			deviceID := app.identity.DeviceID()
			qr, err := qrcode.New(deviceID, qrcode.Medium)
			if err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Print(qr.ToSmallString(false))
			fmt.Printf("Device id: %s\n", deviceID)
		},
	}
}
