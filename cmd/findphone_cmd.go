package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/tetherlink/internal/tether"
)

func findPhoneCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "find-phone",
		Short: "Ask paired phones to identify themselves",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ch, err := app.manager.Connect(ctx)
			if err != nil {
				fatalf("Error connecting: %s", err)
			}

			found := make(chan tether.PhoneFound, 4)
			off := ch.On(tether.EventPhoneFound, func(data json.RawMessage) {
				var reply tether.PhoneFound
				if json.Unmarshal(data, &reply) != nil {
					return
				}
				// Late or excess replies must not block the dispatch goroutine.
				select {
				case found <- reply:
				default:
				}
			})
			defer off()

			if err := app.gateway.FindMyPhone(ctx, app.identity.DeviceID()); err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Println("Ping sent. Waiting for phones...")

			deadline := time.After(wait)
			answered := 0
			for {
				select {
				case reply := <-found:
					answered++
					fmt.Printf("  %s (%s) answered\n", reply.PhoneDeviceName, reply.PhoneDeviceID)
				case <-deadline:
					if answered == 0 {
						fmt.Println("No phones answered.")
					}
					return
				}
			}
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for answers")
	return cmd
}
