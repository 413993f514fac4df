package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/tetherlink/internal/config"
	"github.com/nextlevelbuilder/tetherlink/internal/tether"
)

func sessionCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Connect, register this device, and follow pairing events",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			runSession(app, userID)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "account id to register under")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runSession(app *app, userID string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := app.manager.Connect(ctx)
	if err != nil {
		fatalf("Error connecting: %s", err)
	}

	registrar := tether.NewRegistrar(ch, app.identity)
	defer registrar.Stop()
	if err := registrar.RegisterDevice(userID, app.deviceName()); err != nil {
		fatalf("Error registering device: %s", err)
	}

	session := tether.NewSession(ch, app.identity, app.gateway)
	off := session.Subscribe()
	defer off()

	// Server-side state first; the event stream takes over from there.
	if err := session.CheckStatus(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: status check failed: %s\n", err)
	}
	printStatus(session.Status())

	offEvents := watchEvents(ch)
	defer offEvents()

	// Config edits while the session runs re-register under the new name.
	watcher, err := config.NewWatcher(resolveConfigPath())
	if err == nil {
		watcher.OnChange(func(cfg *config.Config) {
			app.cfg = cfg
			registrar.RegisterDevice(userID, app.deviceName())
		})
		watcher.Start()
		defer watcher.Stop()
	}

	fmt.Printf("Session running as %s (%s). Ctrl-C to exit.\n",
		app.identity.DeviceID(), app.identity.DeviceType())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("\nShutting down.")
}

// watchEvents prints each pairing event as it arrives.
func watchEvents(ch tether.Channel) func() {
	events := []string{
		tether.EventRequest,
		tether.EventAccepted,
		tether.EventRejected,
		tether.EventDisconnected,
		tether.EventConnectionStatus,
		tether.EventPhotoReceived,
		tether.EventUploadProgress,
		tether.EventPhoneFound,
		tether.EventOpenSmartCrop,
	}
	offs := make([]func(), 0, len(events))
	for _, event := range events {
		event := event
		offs = append(offs, ch.On(event, func(data json.RawMessage) {
			fmt.Printf("[%s] %s\n", event, data)
		}))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func printStatus(st *tether.ConnectionStatus) {
	if st == nil || !st.IsConnected {
		fmt.Println("Not paired.")
		return
	}
	fmt.Printf("Paired (connection %s)", st.ConnectionID)
	if st.OtherDevice != nil {
		fmt.Printf(" with %s (%s)", st.OtherDevice.DeviceName, st.OtherDevice.DeviceID)
	}
	fmt.Println()
}
